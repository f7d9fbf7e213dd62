package usecase

import (
	"context"
	"log/slog"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	auditUseCase "github.com/allisson/envelope/internal/audit/usecase"
	"github.com/allisson/envelope/internal/errors"
	rotationDomain "github.com/allisson/envelope/internal/rotation/domain"
)

type settingsUseCase struct {
	repo      SettingsRepository
	scheduler Scheduler
	auditLog  auditUseCase.AuditLogUseCase
	logger    *slog.Logger
}

// NewSettingsUseCase creates a SettingsUseCase. scheduler may be nil when rotation is
// not running in this process; settings are then only persisted.
func NewSettingsUseCase(
	repo SettingsRepository,
	scheduler Scheduler,
	auditLog auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
) SettingsUseCase {
	return &settingsUseCase{
		repo:      repo,
		scheduler: scheduler,
		auditLog:  auditLog,
		logger:    logger,
	}
}

// Get returns the persisted settings.
func (s *settingsUseCase) Get(ctx context.Context) (rotationDomain.Settings, error) {
	return s.repo.Load()
}

// Update validates, persists and applies a new rotation interval.
func (s *settingsUseCase) Update(
	ctx context.Context,
	value string,
	source string,
) (rotationDomain.Settings, error) {
	interval, err := rotationDomain.ParseInterval(value)
	if err != nil {
		s.auditLog.Log(ctx, auditDomain.ActionSettingsRejected, source, auditDomain.TargetSchedule,
			map[string]string{"reason": "invalid_interval"})
		return rotationDomain.Settings{}, err
	}

	previous := s.current()

	settings := rotationDomain.Settings{RotationInterval: interval}
	if err := s.repo.Save(settings); err != nil {
		return rotationDomain.Settings{}, errors.Wrap(err, "failed to save rotation settings")
	}

	s.apply(ctx, previous, interval, source)
	return settings, nil
}

// Reload applies the settings file after an external change.
func (s *settingsUseCase) Reload(ctx context.Context) {
	settings, err := s.repo.Load()
	if err != nil {
		reason := "unreadable"
		if errors.Is(err, rotationDomain.ErrInvalidInterval) {
			reason = "invalid_interval"
		}
		s.logger.Warn("rejected rotation settings file", slog.String("reason", reason), slog.Any("error", err))
		s.auditLog.Log(ctx, auditDomain.ActionSettingsRejected, auditDomain.SourceSystem,
			auditDomain.TargetSchedule, map[string]string{"reason": reason})
		return
	}

	s.apply(ctx, s.current(), settings.RotationInterval, auditDomain.SourceSystem)
}

// current is the schedule in effect: the running scheduler's, or else the persisted one.
func (s *settingsUseCase) current() rotationDomain.Interval {
	if s.scheduler != nil {
		return s.scheduler.Interval()
	}
	settings, err := s.repo.Load()
	if err != nil {
		return ""
	}
	return settings.RotationInterval
}

func (s *settingsUseCase) apply(ctx context.Context, previous, next rotationDomain.Interval, source string) {
	if previous == next {
		return
	}
	if s.scheduler != nil {
		s.scheduler.Reschedule(next)
	}

	s.logger.Info("rotation interval changed",
		slog.String("old_interval", string(previous)),
		slog.String("new_interval", string(next)),
	)
	s.auditLog.Log(ctx, auditDomain.ActionCronRescheduled, source, auditDomain.TargetSchedule, map[string]string{
		"old_interval": string(previous),
		"new_interval": string(next),
	})
}
