package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// namespace prefixes every key written by BadgerStore so Clear never
// touches data it does not own.
const namespace = "booklend/kv/"

// BadgerConfig contains Badger tuning parameters for the client store.
type BadgerConfig struct {
	// Dir is the storage directory.
	Dir string

	// SyncWrites enables fsync after each write.
	// Default: true (writes are rare and user driven)
	SyncWrites bool

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 16MB
	ValueLogFileSize int64

	// GCDiscardRatio is the value log GC threshold applied on Close.
	// Default: 0.5
	GCDiscardRatio float64
}

// DefaultBadgerConfig returns the default Badger configuration for dir.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:              dir,
		SyncWrites:       true,
		ValueLogFileSize: 16 << 20,
		GCDiscardRatio:   0.5,
	}
}

// BadgerStore implements Store on Badger v3.
type BadgerStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewBadgerStore opens (or creates) a Badger store at cfg.Dir.
func NewBadgerStore(cfg BadgerConfig, logger *slog.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, storageErr("open", "", err)
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	// Small footprint: the store holds a handful of short strings.
	opts.MemTableSize = 4 << 20
	opts.NumMemtables = 1
	opts.BlockCacheSize = 1 << 20
	opts.IndexCacheSize = 1 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, storageErr("open", "", err)
	}

	logger.Debug("badger store opened", "dir", cfg.Dir)

	return &BadgerStore{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}, nil
}

func dbKey(key Key) []byte {
	return []byte(namespace + string(key))
}

// Set stores a value.
func (s *BadgerStore) Set(ctx context.Context, key Key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := s.guard(ctx); err != nil {
		return storageErr("set", key, err)
	}
	defer s.mu.RUnlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dbKey(key), []byte(value))
	})
	return storageErr("set", key, err)
}

// Get retrieves a value.
func (s *BadgerStore) Get(ctx context.Context, key Key) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	if err := s.guard(ctx); err != nil {
		return "", false, storageErr("get", key, err)
	}
	defer s.mu.RUnlock()

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("get", key, err)
	}
	return string(value), true, nil
}

// Remove deletes a key.
func (s *BadgerStore) Remove(ctx context.Context, key Key) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := s.guard(ctx); err != nil {
		return storageErr("remove", key, err)
	}
	defer s.mu.RUnlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(dbKey(key))
	})
	return storageErr("remove", key, err)
}

// Clear drops every key under the store namespace.
func (s *BadgerStore) Clear(ctx context.Context) error {
	if err := s.guard(ctx); err != nil {
		return storageErr("clear", "", err)
	}
	defer s.mu.RUnlock()

	err := s.db.DropPrefix([]byte(namespace))
	return storageErr("clear", "", err)
}

// Close runs a final value log GC pass and closes the database.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for {
		if err := s.db.RunValueLogGC(s.cfg.GCDiscardRatio); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Debug("badger value log gc skipped", "error", err)
			}
			break
		}
	}

	if err := s.db.Close(); err != nil {
		return storageErr("close", "", err)
	}
	s.logger.Debug("badger store closed", "dir", s.cfg.Dir)
	return nil
}

// Collectors returns gauges reporting the on-disk size of the store.
// Sizes read as zero once the store is closed.
func (s *BadgerStore) Collectors() []prometheus.Collector {
	size := func(pick func(lsm, vlog int64) int64) func() float64 {
		return func() float64 {
			s.mu.RLock()
			defer s.mu.RUnlock()
			if s.closed {
				return 0
			}
			return float64(pick(s.db.Size()))
		}
	}

	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "booklend",
			Subsystem: "store",
			Name:      "lsm_size_bytes",
			Help:      "Badger LSM tree size in bytes.",
		}, size(func(lsm, _ int64) int64 { return lsm })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "booklend",
			Subsystem: "store",
			Name:      "value_log_size_bytes",
			Help:      "Badger value log size in bytes.",
		}, size(func(_, vlog int64) int64 { return vlog })),
	}
}

// guard takes the read lock and checks ctx and closed state.
// On success the caller must release the read lock.
func (s *BadgerStore) guard(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	return nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// Badger's info output is chatty for a CLI; demote it.
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
