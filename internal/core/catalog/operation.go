package catalog

import (
	"context"
	"sync"

	"github.com/yndnr/booklend-go/internal/core/domain"
)

// Status is the lifecycle of one user action.
type Status int

const (
	Idle Status = iota
	Pending
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is a point-in-time copy of an Operation.
type Snapshot[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Operation tracks one action (submit, delete, refresh) owned by a
// screen. At most one run may be pending at a time.
type Operation[T any] struct {
	mu    sync.Mutex
	state Snapshot[T]
}

// Begin marks the operation pending. It fails with
// domain.ErrOperationPending if a run is already in flight.
func (o *Operation[T]) Begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Status == Pending {
		return domain.ErrOperationPending
	}
	o.state = Snapshot[T]{Status: Pending}
	return nil
}

// Succeed records a result.
func (o *Operation[T]) Succeed(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = Snapshot[T]{Status: Succeeded, Value: v}
}

// Fail records an error.
func (o *Operation[T]) Fail(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = Snapshot[T]{Status: Failed, Err: err}
}

// Reset returns the operation to Idle.
func (o *Operation[T]) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = Snapshot[T]{}
}

// Snapshot returns the current state.
func (o *Operation[T]) Snapshot() Snapshot[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Run begins the operation, calls fn and records its outcome.
func (o *Operation[T]) Run(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	if err := o.Begin(); err != nil {
		var zero T
		return zero, err
	}

	v, err := fn(ctx)
	if err != nil {
		o.Fail(err)
		return v, err
	}
	o.Succeed(v)
	return v, nil
}
