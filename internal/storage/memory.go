package storage

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[Key]string
	closed bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[Key]string)}
}

// Set stores a value.
func (s *MemoryStore) Set(ctx context.Context, key Key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return storageErr("set", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storageErr("set", key, ErrClosed)
	}
	s.data[key] = value
	return nil
}

// Get retrieves a value.
func (s *MemoryStore) Get(ctx context.Context, key Key) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	if err := ctx.Err(); err != nil {
		return "", false, storageErr("get", key, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, storageErr("get", key, ErrClosed)
	}
	v, ok := s.data[key]
	return v, ok, nil
}

// Remove deletes a key.
func (s *MemoryStore) Remove(ctx context.Context, key Key) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return storageErr("remove", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storageErr("remove", key, ErrClosed)
	}
	delete(s.data, key)
	return nil
}

// Clear removes all values.
func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return storageErr("clear", "", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storageErr("clear", "", ErrClosed)
	}
	s.data = make(map[Key]string)
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
