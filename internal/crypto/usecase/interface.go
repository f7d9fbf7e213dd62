// Package usecase implements the DEK lifecycle: active-DEK selection with
// generate-on-first-use, lookup by id for historical data, rotation and explicit
// pruning.
//
// The DEK store is persisted as a whole. Every mutation is a load-mutate-save cycle
// that runs under an in-process mutex and is committed with compare-and-swap on the
// store version, so concurrent rotations in one or several processes never lose a
// generated DEK.
package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
)

// DekStoreRepository persists the DEK store document.
//
// Available implementations:
//   - KVDekStoreRepository: JSON document in any storage.Store backend
type DekStoreRepository interface {
	// Load returns the persisted store. A missing store is returned empty at version
	// zero. A malformed store is returned empty, carrying the stored version, together
	// with ErrDekStoreMalformed.
	Load(ctx context.Context) (*cryptoDomain.DekStore, error)

	// Save persists the store with compare-and-swap on store.Version and updates it on
	// success. Returns storage.ErrVersionConflict when another writer got there first.
	Save(ctx context.Context, store *cryptoDomain.DekStore) error
}

// DekUseCase manages the DEK lifecycle.
//
// Audit events are attributed to the source stored in the context with
// auditDomain.WithSource, defaulting to "system".
type DekUseCase interface {
	// GetActiveDek returns the unwrapped active DEK. When no DEK is active a new one
	// is generated, wrapped and durably persisted before it is returned. The caller
	// owns the returned DEK and must zero it after use.
	GetActiveDek(ctx context.Context) (*cryptoDomain.Dek, error)

	// GetDekByID unwraps a DEK for decrypting historical data. The caller owns the
	// returned DEK and must zero it after use.
	//
	// Returns ErrKekUnavailable, ErrDekNotFound or ErrDekUnwrapFailed.
	GetDekByID(ctx context.Context, id cryptoDomain.DekID) (*cryptoDomain.Dek, error)

	// Rotate generates a new DEK and makes it active. Old DEKs are never removed. On
	// failure the persisted store is left as it was and ErrDekGenerationFailed is
	// returned.
	Rotate(ctx context.Context) (cryptoDomain.DekID, error)

	// Prune removes inactive DEKs created more than maxAge ago. DEKs for which retain
	// returns true are kept, and the active DEK is never removed. With dryRun the
	// candidates are returned without changing the store.
	Prune(
		ctx context.Context,
		maxAge time.Duration,
		retain func(cryptoDomain.DekID) bool,
		dryRun bool,
	) ([]cryptoDomain.DekID, error)

	// ListDeks returns the non-sensitive view of every DEK, oldest first.
	ListDeks(ctx context.Context) ([]cryptoDomain.DekInfo, error)
}
