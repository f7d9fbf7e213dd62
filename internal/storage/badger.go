package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	apperrors "github.com/allisson/envelope/internal/errors"
)

// badger values are stored as: version (8 bytes big-endian) | updated_at unix nanos (8 bytes) | payload.
const badgerHeaderSize = 16

// BadgerConfig holds BadgerDB settings.
type BadgerConfig struct {
	Dir        string
	InMemory   bool
	SyncWrites bool
}

// BadgerStore persists entries in an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a BadgerDB at cfg.Dir.
func NewBadgerStore(cfg BadgerConfig, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := cfg.Dir
	if cfg.InMemory {
		dir = ""
	}

	opts := badger.DefaultOptions(dir).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(&badgerLogger{logger: logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

// Get returns the entry for key.
func (b *BadgerStore) Get(ctx context.Context, key string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry *Entry
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		entry, err = decodeBadgerValue(key, raw)
		return err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get badger entry")
	}

	return entry, nil
}

// Set writes value unconditionally.
func (b *BadgerStore) Set(ctx context.Context, key string, value []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var version int64
	err := b.db.Update(func(txn *badger.Txn) error {
		current, err := b.currentVersion(txn, key)
		if err != nil {
			return err
		}
		version = current + 1
		return txn.Set([]byte(key), encodeBadgerValue(version, value))
	})
	if err != nil {
		if err == badger.ErrConflict {
			return 0, ErrVersionConflict
		}
		return 0, apperrors.Wrap(err, "failed to set badger entry")
	}

	return version, nil
}

// CompareAndSwap writes value when the stored version matches expectedVersion.
// Concurrent transactions touching the same key surface as ErrVersionConflict.
func (b *BadgerStore) CompareAndSwap(
	ctx context.Context,
	key string,
	expectedVersion int64,
	value []byte,
) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		current, err := b.currentVersion(txn, key)
		if err != nil {
			return err
		}
		if current != expectedVersion {
			return ErrVersionConflict
		}
		return txn.Set([]byte(key), encodeBadgerValue(expectedVersion+1, value))
	})
	if err != nil {
		if err == badger.ErrConflict || apperrors.Is(err, ErrVersionConflict) {
			return 0, ErrVersionConflict
		}
		return 0, apperrors.Wrap(err, "failed to swap badger entry")
	}

	return expectedVersion + 1, nil
}

// Delete removes key.
func (b *BadgerStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to delete badger entry")
	}
	return nil
}

// Close closes the underlying database.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func (b *BadgerStore) currentVersion(txn *badger.Txn, key string) (int64, error) {
	item, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int64
	err = item.Value(func(val []byte) error {
		if len(val) < badgerHeaderSize {
			return fmt.Errorf("badger entry %q is truncated", key)
		}
		version = int64(binary.BigEndian.Uint64(val[:8]))
		return nil
	})
	return version, err
}

func encodeBadgerValue(version int64, value []byte) []byte {
	buf := make([]byte, badgerHeaderSize+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(version))
	binary.BigEndian.PutUint64(buf[8:16], uint64(time.Now().UTC().UnixNano()))
	copy(buf[badgerHeaderSize:], value)
	return buf
}

func decodeBadgerValue(key string, raw []byte) (*Entry, error) {
	if len(raw) < badgerHeaderSize {
		return nil, fmt.Errorf("badger entry %q is truncated", key)
	}
	return &Entry{
		Key:       key,
		Version:   int64(binary.BigEndian.Uint64(raw[:8])),
		UpdatedAt: time.Unix(0, int64(binary.BigEndian.Uint64(raw[8:16]))).UTC(),
		Value:     cloneBytes(raw[badgerHeaderSize:]),
	}, nil
}

// badgerLogger routes badger's internal logging into slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}
