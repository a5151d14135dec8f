package storage

import (
	"context"
	"errors"

	"github.com/yndnr/booklend-go/internal/core/domain"
)

// Key names a value persisted by the client.
//
// Only registered keys may be used; this keeps the set of on-device
// state explicit and catches typos at the call site.
type Key string

const (
	// KeyToken holds the bearer session token.
	KeyToken Key = "token"
)

// registry lists every known key.
var registry = map[Key]struct{}{
	KeyToken: {},
}

// Keys returns all registered keys.
func Keys() []Key {
	keys := make([]Key, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	return keys
}

// Valid reports whether k is a registered key.
func (k Key) Valid() bool {
	_, ok := registry[k]
	return ok
}

func (k Key) String() string {
	return string(k)
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Store persists small string values under registered keys.
//
// Implementations must be safe for concurrent use. There are no
// transactional guarantees across keys; concurrent writes to the same
// key are last-write-wins. All failures wrap domain.ErrStorage.
type Store interface {
	// Set stores value under key.
	Set(ctx context.Context, key Key, value string) error

	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key Key) (value string, ok bool, err error)

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key Key) error

	// Clear removes every value owned by this store.
	Clear(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}

// checkKey validates key against the registry.
func checkKey(key Key) error {
	if !key.Valid() {
		return domain.ErrUnknownKey.WithDetails(string(key))
	}
	return nil
}

// storageErr wraps cause as a storage error for op on key.
func storageErr(op string, key Key, cause error) error {
	if cause == nil {
		return nil
	}
	var de *domain.DomainError
	if errors.As(cause, &de) {
		return cause
	}
	details := op
	if key != "" {
		details += " " + string(key)
	}
	return domain.ErrStorage.WithDetails(details + ": " + cause.Error()).WithCause(cause)
}
