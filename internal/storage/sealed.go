package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndnr/booklend-go/pkg/crypto/adaptive"
	"github.com/yndnr/booklend-go/pkg/token"
)

// SealedStore encrypts values before handing them to an inner Store.
// The key name is bound to each value as additional data, so a value
// copied under another key fails to open.
type SealedStore struct {
	inner  Store
	sealer *adaptive.Sealer
	logger *slog.Logger
}

// NewSealedStore wraps inner with the given 32-byte key.
func NewSealedStore(inner Store, key []byte, logger *slog.Logger) (*SealedStore, error) {
	sealer, err := adaptive.New(key)
	if err != nil {
		return nil, storageErr("open", "", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SealedStore{inner: inner, sealer: sealer, logger: logger}, nil
}

// Set seals and stores a value.
func (s *SealedStore) Set(ctx context.Context, key Key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	sealed, err := s.sealer.Seal([]byte(value), []byte(key))
	if err != nil {
		return storageErr("seal", key, err)
	}
	return s.inner.Set(ctx, key, base64.RawStdEncoding.EncodeToString(sealed))
}

// Get retrieves and opens a value. A value that fails to open is
// reported as a storage error, never returned as plaintext.
func (s *SealedStore) Get(ctx context.Context, key Key) (string, bool, error) {
	raw, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	sealed, err := base64.RawStdEncoding.DecodeString(raw)
	if err != nil {
		return "", false, storageErr("open", key, err)
	}
	plain, err := s.sealer.Open(sealed, []byte(key))
	if err != nil {
		s.logger.Warn("sealed value could not be opened", "key", key.String(), "error", err)
		return "", false, storageErr("open", key, err)
	}
	return string(plain), true, nil
}

// Remove deletes a key.
func (s *SealedStore) Remove(ctx context.Context, key Key) error {
	return s.inner.Remove(ctx, key)
}

// Clear removes all values.
func (s *SealedStore) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}

// Close closes the inner store.
func (s *SealedStore) Close() error {
	return s.inner.Close()
}

// LoadOrCreateKey reads a sealing key from path, creating a new random
// key with mode 0600 when the file does not exist.
func LoadOrCreateKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil || len(key) != adaptive.KeySize {
			return nil, storageErr("load key", "", fmt.Errorf("invalid key file %s", path))
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, storageErr("load key", "", err)
	}

	key, err := token.GenerateBytes(adaptive.KeySize)
	if err != nil {
		return nil, storageErr("create key", "", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, storageErr("create key", "", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key) + "\n"
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return nil, storageErr("create key", "", err)
	}
	return key, nil
}
