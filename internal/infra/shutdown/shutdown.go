package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hook releases one resource.
type Hook func(context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Handler runs cleanup hooks once, in reverse order of registration.
type Handler struct {
	timeout time.Duration

	mu    sync.Mutex
	hooks []namedHook
	ran   bool
}

// NewHandler creates a handler whose hooks share a timeout budget.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{timeout: timeout}
}

// OnShutdown registers a hook. Hooks registered after Run are ignored.
func (h *Handler) OnShutdown(name string, hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ran {
		return
	}
	h.hooks = append(h.hooks, namedHook{name: name, fn: hook})
}

// Run executes every hook, newest first, and joins their errors.
// Later calls are no-ops.
func (h *Handler) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.ran {
		h.mu.Unlock()
		return nil
	}
	h.ran = true
	hooks := h.hooks
	h.hooks = nil
	h.mu.Unlock()

	// Cleanup must still run after the caller's context was cancelled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, err))
		}
	}
	return errors.Join(errs...)
}

// WithSignals returns a context cancelled on SIGINT or SIGTERM. Cancelling
// it aborts a pending biometric challenge or HTTP request.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
