package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	"github.com/allisson/envelope/internal/metrics"
)

// dekUseCaseWithMetrics decorates DekUseCase with metrics instrumentation.
type dekUseCaseWithMetrics struct {
	next    DekUseCase
	metrics metrics.BusinessMetrics
}

// NewDekUseCaseWithMetrics wraps a DekUseCase with metrics recording.
func NewDekUseCaseWithMetrics(useCase DekUseCase, m metrics.BusinessMetrics) DekUseCase {
	return &dekUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (d *dekUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	d.metrics.ObserveOperation(ctx, "crypto", operation, metrics.Outcome(err), time.Since(start))
}

// GetActiveDek records metrics for active DEK resolution.
func (d *dekUseCaseWithMetrics) GetActiveDek(ctx context.Context) (*cryptoDomain.Dek, error) {
	start := time.Now()
	dek, err := d.next.GetActiveDek(ctx)
	d.record(ctx, "dek_get_active", start, err)
	return dek, err
}

// GetDekByID records metrics for DEK lookups.
func (d *dekUseCaseWithMetrics) GetDekByID(ctx context.Context, id cryptoDomain.DekID) (*cryptoDomain.Dek, error) {
	start := time.Now()
	dek, err := d.next.GetDekByID(ctx, id)
	d.record(ctx, "dek_get", start, err)
	return dek, err
}

// Rotate records metrics for DEK rotations.
func (d *dekUseCaseWithMetrics) Rotate(ctx context.Context) (cryptoDomain.DekID, error) {
	start := time.Now()
	id, err := d.next.Rotate(ctx)
	d.record(ctx, "dek_rotate", start, err)
	return id, err
}

// Prune records metrics for DEK pruning.
func (d *dekUseCaseWithMetrics) Prune(
	ctx context.Context,
	maxAge time.Duration,
	retain func(cryptoDomain.DekID) bool,
	dryRun bool,
) ([]cryptoDomain.DekID, error) {
	start := time.Now()
	ids, err := d.next.Prune(ctx, maxAge, retain, dryRun)
	d.record(ctx, "dek_prune", start, err)
	return ids, err
}

// ListDeks records metrics for DEK listings.
func (d *dekUseCaseWithMetrics) ListDeks(ctx context.Context) ([]cryptoDomain.DekInfo, error) {
	start := time.Now()
	infos, err := d.next.ListDeks(ctx)
	d.record(ctx, "dek_list", start, err)
	return infos, err
}
