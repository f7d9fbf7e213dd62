package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	auditUseCase "github.com/allisson/envelope/internal/audit/usecase"
	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	cryptoService "github.com/allisson/envelope/internal/crypto/service"
	apperrors "github.com/allisson/envelope/internal/errors"
	"github.com/allisson/envelope/internal/storage"
)

// DekUseCaseConfig holds the tunables of the DEK manager.
type DekUseCaseConfig struct {
	// Algorithm is the data algorithm recorded on newly generated DEKs.
	Algorithm cryptoDomain.Algorithm
	// MaxRetries bounds compare-and-swap retries per store mutation.
	MaxRetries int
}

type dekUseCase struct {
	kek        *cryptoDomain.Kek
	dekRepo    DekStoreRepository
	keyManager cryptoService.KeyManager
	auditLog   auditUseCase.AuditLogUseCase
	logger     *slog.Logger
	algorithm  cryptoDomain.Algorithm
	maxRetries int
	now        func() time.Time

	mu    sync.Mutex
	group singleflight.Group

	// skipReportedAt is the store version whose skipped records were last reported.
	skipReportedAt atomic.Int64
}

// generationTimeout bounds a shared first-use generation, which outlives the
// context of the caller that started it.
const generationTimeout = 30 * time.Second

// NewDekUseCase creates a new DekUseCase.
//
// A nil kek puts the manager in a degraded state in which every operation that needs
// the KEK fails with ErrKekUnavailable.
func NewDekUseCase(
	kek *cryptoDomain.Kek,
	dekRepo DekStoreRepository,
	keyManager cryptoService.KeyManager,
	auditLog auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
	cfg DekUseCaseConfig,
) DekUseCase {
	if cfg.Algorithm == "" {
		cfg.Algorithm = cryptoDomain.AESGCM
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &dekUseCase{
		kek:        kek,
		dekRepo:    dekRepo,
		keyManager: keyManager,
		auditLog:   auditLog,
		logger:     logger,
		algorithm:  cfg.Algorithm,
		maxRetries: cfg.MaxRetries,
		now:        time.Now,
	}
}

// GetActiveDek returns the active DEK, generating one on first use.
func (d *dekUseCase) GetActiveDek(ctx context.Context) (*cryptoDomain.Dek, error) {
	if d.kek == nil {
		return nil, cryptoDomain.ErrKekUnavailable
	}

	dekStore, _, err := d.load(ctx)
	if err != nil {
		return nil, err
	}

	active, ok := dekStore.Active()
	if !ok {
		// Concurrent first-use callers share one generation. It runs detached from
		// the caller that started it, so that caller giving up does not fail the others.
		ch := d.group.DoChan("active", func() (any, error) {
			genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), generationTimeout)
			defer cancel()
			return d.ensureActive(genCtx)
		})
		select {
		case <-ctx.Done():
			return nil, apperrors.Wrap(cryptoDomain.ErrDekGenerationFailed, ctx.Err().Error())
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			active = res.Val.(*cryptoDomain.WrappedDek)
		}
	}

	return d.unwrap(ctx, active)
}

// GetDekByID unwraps the DEK with the given id.
func (d *dekUseCase) GetDekByID(ctx context.Context, id cryptoDomain.DekID) (*cryptoDomain.Dek, error) {
	if d.kek == nil {
		return nil, cryptoDomain.ErrKekUnavailable
	}

	dekStore, _, err := d.load(ctx)
	if err != nil {
		return nil, err
	}

	dek, ok := dekStore.Get(id)
	if !ok {
		return nil, cryptoDomain.ErrDekNotFound
	}

	return d.unwrap(ctx, dek)
}

// Rotate adds a new active DEK.
func (d *dekUseCase) Rotate(ctx context.Context) (cryptoDomain.DekID, error) {
	source := auditDomain.SourceFromContext(ctx, auditDomain.SourceSystem)

	if d.kek == nil {
		d.auditLog.Log(ctx, auditDomain.ActionDekRotateFailed, source, auditDomain.TargetDek,
			map[string]string{"cause": "kek_unavailable"})
		return cryptoDomain.DekID{}, cryptoDomain.ErrKekUnavailable
	}

	d.auditLog.Log(ctx, auditDomain.ActionDekRotateStart, source, auditDomain.TargetDek, nil)

	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		dek   *cryptoDomain.WrappedDek
		count int
	)
	err := d.mutate(ctx, func(dekStore *cryptoDomain.DekStore) (bool, error) {
		var err error
		dek, err = d.generate(dekStore)
		if err != nil {
			return false, err
		}
		count = dekStore.Len()
		return true, nil
	})
	if err != nil {
		d.logger.Error("dek rotation failed", slog.Any("error", err))
		d.auditLog.Log(ctx, auditDomain.ActionDekRotateFailed, source, auditDomain.TargetDek,
			map[string]string{"cause": causeOf(err)})
		return cryptoDomain.DekID{}, apperrors.Wrap(cryptoDomain.ErrDekGenerationFailed, err.Error())
	}

	d.logger.Info("dek rotated",
		slog.String("algorithm", string(dek.Algorithm)),
		slog.Int("dek_count", count),
	)
	d.auditLog.Log(ctx, auditDomain.ActionDekRotateOK, source, auditDomain.TargetDek, map[string]string{
		"algorithm": string(dek.Algorithm),
		"dek_count": strconv.Itoa(count),
	})

	return dek.ID, nil
}

// Prune removes old inactive DEKs that the caller does not retain.
func (d *dekUseCase) Prune(
	ctx context.Context,
	maxAge time.Duration,
	retain func(cryptoDomain.DekID) bool,
	dryRun bool,
) ([]cryptoDomain.DekID, error) {
	if maxAge <= 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "max age must be positive")
	}
	source := auditDomain.SourceFromContext(ctx, auditDomain.SourceSystem)

	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := d.now().Add(-maxAge)
	var (
		candidates []cryptoDomain.DekID
		remaining  int
	)
	err := d.mutate(ctx, func(dekStore *cryptoDomain.DekStore) (bool, error) {
		candidates = dekStore.PruneCandidates(cutoff, retain)
		if dryRun || len(candidates) == 0 {
			return false, nil
		}
		if err := dekStore.Remove(candidates); err != nil {
			return false, err
		}
		remaining = dekStore.Len()
		return true, nil
	}, withStrictLoad())
	if err != nil {
		return nil, err
	}

	if dryRun || len(candidates) == 0 {
		d.auditLog.Log(ctx, auditDomain.ActionDekPruneSkipped, source, auditDomain.TargetDek, map[string]string{
			"candidates": strconv.Itoa(len(candidates)),
			"dry_run":    strconv.FormatBool(dryRun),
		})
		return candidates, nil
	}

	d.logger.Warn("deks pruned", slog.Int("pruned", len(candidates)), slog.Int("remaining", remaining))
	d.auditLog.Log(ctx, auditDomain.ActionDekPruned, source, auditDomain.TargetDek, map[string]string{
		"pruned":    strconv.Itoa(len(candidates)),
		"remaining": strconv.Itoa(remaining),
	})
	return candidates, nil
}

// ListDeks returns the non-sensitive view of every DEK.
func (d *dekUseCase) ListDeks(ctx context.Context) ([]cryptoDomain.DekInfo, error) {
	dekStore, _, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	return dekStore.List(), nil
}

// ensureActive generates and persists an active DEK unless another writer already
// did. It returns the DEK that ended up active.
func (d *dekUseCase) ensureActive(ctx context.Context) (*cryptoDomain.WrappedDek, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		active    *cryptoDomain.WrappedDek
		generated bool
	)
	err := d.mutate(ctx, func(dekStore *cryptoDomain.DekStore) (bool, error) {
		if dek, ok := dekStore.Active(); ok {
			active, generated = dek, false
			return false, nil
		}
		dek, err := d.generate(dekStore)
		if err != nil {
			return false, err
		}
		active, generated = dek, true
		return true, nil
	})
	if err != nil {
		d.logger.Error("failed to generate active dek", slog.Any("error", err))
		d.auditLog.Log(ctx, auditDomain.ActionDekError, auditDomain.SourceSystem, auditDomain.TargetDek,
			map[string]string{"cause": causeOf(err)})
		return nil, apperrors.Wrap(cryptoDomain.ErrDekGenerationFailed, err.Error())
	}

	if generated {
		d.logger.Info("active dek generated", slog.String("algorithm", string(active.Algorithm)))
		d.auditLog.Log(ctx, auditDomain.ActionDekGenerated, auditDomain.SourceSystem, auditDomain.TargetDek,
			map[string]string{"algorithm": string(active.Algorithm)})
	}
	return active, nil
}

// generate creates a new DEK, adds it to dekStore and activates it.
func (d *dekUseCase) generate(dekStore *cryptoDomain.DekStore) (*cryptoDomain.WrappedDek, error) {
	dek, key, err := d.keyManager.CreateDek(d.kek, d.algorithm)
	if err != nil {
		return nil, err
	}
	key.Zero()

	if err := dekStore.Add(dek); err != nil {
		return nil, err
	}
	if err := dekStore.Activate(dek.ID); err != nil {
		return nil, err
	}
	return dek, nil
}

type mutateOptions struct {
	strict bool
}

type mutateOption func(*mutateOptions)

// withStrictLoad refuses to mutate a malformed store instead of replacing it.
func withStrictLoad() mutateOption {
	return func(o *mutateOptions) { o.strict = true }
}

// mutate runs a load-mutate-save cycle, retrying on version conflicts. fn reports
// whether the store changed; unchanged stores are not written.
func (d *dekUseCase) mutate(
	ctx context.Context,
	fn func(*cryptoDomain.DekStore) (bool, error),
	opts ...mutateOption,
) error {
	var o mutateOptions
	for _, opt := range opts {
		opt(&o)
	}

	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		dekStore, malformed, err := d.load(ctx)
		if err != nil {
			return err
		}
		if malformed && o.strict {
			return cryptoDomain.ErrDekStoreMalformed
		}

		changed, err := fn(dekStore)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		err = d.dekRepo.Save(ctx, dekStore)
		if err == nil {
			if attempt > 0 {
				d.logger.Debug("dek store saved after conflicts", slog.Int("attempts", attempt+1))
			}
			return nil
		}
		if !apperrors.Is(err, storage.ErrVersionConflict) {
			return err
		}
	}

	return storage.ErrRetriesExhausted
}

// load reads the store. A malformed store is reported as empty with a warning.
func (d *dekUseCase) load(ctx context.Context) (*cryptoDomain.DekStore, bool, error) {
	dekStore, err := d.dekRepo.Load(ctx)
	if err == nil {
		d.reportSkipped(ctx, dekStore)
		return dekStore, false, nil
	}
	if !apperrors.Is(err, cryptoDomain.ErrDekStoreMalformed) || dekStore == nil {
		return nil, false, err
	}

	d.logger.Warn("dek store is malformed, treating it as empty", slog.Any("error", err))
	d.auditLog.Log(ctx, auditDomain.ActionDekWarning, auditDomain.SourceSystem, auditDomain.TargetDek,
		map[string]string{"cause": "dek_store_malformed"})
	return dekStore, true, nil
}

// reportSkipped logs and audits records the repository could not decode. Each
// stored version is reported once so repeated loads do not flood the audit log.
func (d *dekUseCase) reportSkipped(ctx context.Context, dekStore *cryptoDomain.DekStore) {
	if len(dekStore.Skipped) == 0 {
		return
	}
	if d.skipReportedAt.Swap(dekStore.Version) == dekStore.Version {
		return
	}

	d.logger.Warn("dek store has unreadable entries, they are kept but not used",
		slog.Int("count", len(dekStore.Skipped)),
		slog.Any("reasons", dekStore.Skipped))
	d.auditLog.Log(ctx, auditDomain.ActionDekWarning, auditDomain.SourceSystem, auditDomain.TargetDek,
		map[string]string{
			"cause": "dek_record_unreadable",
			"count": strconv.Itoa(len(dekStore.Skipped)),
		})
}

// unwrap decrypts a DEK record. Unwrap failures are security relevant and audited as
// critical.
func (d *dekUseCase) unwrap(ctx context.Context, dek *cryptoDomain.WrappedDek) (*cryptoDomain.Dek, error) {
	key, err := d.keyManager.DecryptDek(dek, d.kek)
	if err != nil {
		if apperrors.Is(err, cryptoDomain.ErrDekUnwrapFailed) {
			d.logger.Error("dek unwrap failed, kek mismatch or tampered record")
			d.auditLog.Log(ctx, auditDomain.ActionDekCritical, auditDomain.SourceSystem, auditDomain.TargetDek,
				map[string]string{"cause": "dek_unwrap_failed"})
		}
		return nil, err
	}
	return &cryptoDomain.Dek{ID: dek.ID, Algorithm: dek.Algorithm, Key: key}, nil
}

// causeOf maps an internal error to a short code that is safe to audit.
func causeOf(err error) string {
	switch {
	case apperrors.Is(err, cryptoDomain.ErrKekUnavailable):
		return "kek_unavailable"
	case apperrors.Is(err, cryptoDomain.ErrRandomSource):
		return "random_source"
	case apperrors.Is(err, cryptoDomain.ErrUnsupportedAlgorithm):
		return "unsupported_algorithm"
	case apperrors.Is(err, storage.ErrRetriesExhausted):
		return "store_conflict"
	case apperrors.Is(err, cryptoDomain.ErrDekAlreadyExists):
		return "dek_id_collision"
	case apperrors.Is(err, context.Canceled), apperrors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "persistence_error"
	}
}
