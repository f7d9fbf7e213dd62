// Package storage provides a small versioned key-value abstraction used to persist
// whole documents (the DEK store, the audit log) with optimistic concurrency.
//
// Every successful write bumps the entry version by one. CompareAndSwap only applies a
// write when the caller observed the current version, which lets several processes
// share the same backend without lost updates.
package storage

import (
	"context"
	"time"

	apperrors "github.com/allisson/envelope/internal/errors"
)

var (
	// ErrKeyNotFound indicates the key has never been written or was deleted.
	ErrKeyNotFound = apperrors.Wrap(apperrors.ErrNotFound, "storage key not found")

	// ErrVersionConflict indicates the stored version differs from the expected one.
	ErrVersionConflict = apperrors.Wrap(apperrors.ErrConflict, "storage version conflict")

	// ErrRetriesExhausted indicates Update gave up after repeated version conflicts.
	ErrRetriesExhausted = apperrors.Wrap(apperrors.ErrConflict, "storage update retries exhausted")
)

// Entry is a stored value together with its version.
type Entry struct {
	Key       string
	Value     []byte
	Version   int64
	UpdatedAt time.Time
}

// Store is a versioned key-value store.
type Store interface {
	// Get returns the entry for key or ErrKeyNotFound.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set writes value unconditionally and returns the new version.
	Set(ctx context.Context, key string, value []byte) (int64, error)

	// CompareAndSwap writes value only when the stored version equals expectedVersion.
	// An expectedVersion of zero means the key must not exist yet. Returns the new
	// version or ErrVersionConflict.
	CompareAndSwap(ctx context.Context, key string, expectedVersion int64, value []byte) (int64, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// UpdateFunc receives the current value (nil when the key is missing) and returns the
// value to write.
type UpdateFunc func(current []byte) ([]byte, error)

// Update runs an optimistic read-modify-write cycle, retrying on version conflicts up
// to maxRetries extra attempts. Errors returned by fn abort the update unchanged.
func Update(ctx context.Context, store Store, key string, maxRetries int, fn UpdateFunc) (int64, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		var current []byte
		var version int64

		entry, err := store.Get(ctx, key)
		switch {
		case err == nil:
			current = entry.Value
			version = entry.Version
		case apperrors.Is(err, ErrKeyNotFound):
		default:
			return 0, err
		}

		next, err := fn(current)
		if err != nil {
			return 0, err
		}

		newVersion, err := store.CompareAndSwap(ctx, key, version, next)
		if err == nil {
			return newVersion, nil
		}
		if !apperrors.Is(err, ErrVersionConflict) {
			return 0, err
		}
	}

	return 0, ErrRetriesExhausted
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
