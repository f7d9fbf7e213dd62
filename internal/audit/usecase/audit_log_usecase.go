package usecase

import (
	"context"
	"log/slog"
	"time"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	auditService "github.com/allisson/envelope/internal/audit/service"
	apperrors "github.com/allisson/envelope/internal/errors"
)

// auditLogUseCase implements AuditLogUseCase on top of an AuditLogRepository.
type auditLogUseCase struct {
	auditLogRepo AuditLogRepository
	signer       auditService.EventSigner
	logger       *slog.Logger
	maxEntries   int
	now          func() time.Time
}

// NewAuditLogUseCase creates a new AuditLogUseCase. signer may be nil, in which case
// events are stored unsigned.
func NewAuditLogUseCase(
	auditLogRepo AuditLogRepository,
	signer auditService.EventSigner,
	logger *slog.Logger,
) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo: auditLogRepo,
		signer:       signer,
		logger:       logger,
		maxEntries:   auditDomain.MaxEntries,
		now:          time.Now,
	}
}

// Log records an event. Persistence or signing failures are reported through the
// application logger only.
func (a *auditLogUseCase) Log(
	ctx context.Context,
	action, source, target string,
	details map[string]string,
) {
	event := auditDomain.NewEvent(action, source, target, details, a.now())

	if a.signer != nil {
		signature, err := a.signer.Sign(&event)
		if err != nil {
			a.logger.Error("failed to sign audit event",
				slog.String("action", event.Action),
				slog.Any("error", err),
			)
		} else {
			event.Signature = signature
		}
	}

	a.logger.Info("audit event",
		slog.String("action", event.Action),
		slog.String("source", event.Source),
		slog.String("target", event.Target),
		slog.Any("details", event.Details),
	)

	if err := a.auditLogRepo.Append(ctx, event, a.maxEntries); err != nil {
		a.logger.Error("failed to record audit event",
			slog.String("action", event.Action),
			slog.Any("error", err),
		)
	}
}

// List returns up to limit events, newest first.
func (a *auditLogUseCase) List(ctx context.Context, limit int) ([]auditDomain.Event, error) {
	if limit <= 0 || limit > a.maxEntries {
		return nil, auditDomain.ErrInvalidLimit
	}

	events, err := a.auditLogRepo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}

	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// Clear empties the log, then records that it was cleared.
func (a *auditLogUseCase) Clear(ctx context.Context, source string) error {
	if err := a.auditLogRepo.Clear(ctx); err != nil {
		return apperrors.Wrap(err, "failed to clear audit log")
	}

	a.Log(ctx, auditDomain.ActionLogsCleared, source, auditDomain.TargetAuditLog, nil)
	return nil
}

// Verify checks every stored event against the signer.
func (a *auditLogUseCase) Verify(ctx context.Context) (*VerifyResult, error) {
	if a.signer == nil {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, "audit signing is not configured")
	}

	events, err := a.auditLogRepo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}

	result := &VerifyResult{Total: len(events)}
	for i := range events {
		switch err := a.signer.Verify(&events[i]); {
		case err == nil:
			result.Valid++
		case apperrors.Is(err, auditDomain.ErrSignatureMissing):
			result.Unsigned++
		default:
			result.Invalid++
		}
	}

	return result, nil
}
