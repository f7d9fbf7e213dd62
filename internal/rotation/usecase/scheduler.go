package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	cryptoUseCase "github.com/allisson/envelope/internal/crypto/usecase"
	rotationDomain "github.com/allisson/envelope/internal/rotation/domain"
)

// SchedulerOption configures a scheduler.
type SchedulerOption func(*scheduler)

// WithPeriod overrides how an interval maps to a ticker period.
func WithPeriod(period func(rotationDomain.Interval) time.Duration) SchedulerOption {
	return func(s *scheduler) {
		s.period = period
	}
}

type scheduler struct {
	dekUseCase cryptoUseCase.DekUseCase
	logger     *slog.Logger
	period     func(rotationDomain.Interval) time.Duration

	mu       sync.Mutex
	interval rotationDomain.Interval
	changed  chan struct{}
}

// NewScheduler creates a scheduler that rotates the DEK on interval.
func NewScheduler(
	dekUseCase cryptoUseCase.DekUseCase,
	interval rotationDomain.Interval,
	logger *slog.Logger,
	opts ...SchedulerOption,
) Scheduler {
	s := &scheduler{
		dekUseCase: dekUseCase,
		logger:     logger,
		period:     rotationDomain.Interval.Period,
		interval:   interval,
		changed:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the rotation loop until ctx is done.
func (s *scheduler) Start(ctx context.Context) error {
	interval := s.Interval()
	s.logger.Info("starting dek rotation scheduler", slog.String("interval", string(interval)))

	ticker := time.NewTicker(s.period(interval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping dek rotation scheduler")
			return ctx.Err()
		case <-s.changed:
			interval = s.Interval()
			ticker.Reset(s.period(interval))
			s.logger.Info("dek rotation rescheduled", slog.String("interval", string(interval)))
		case <-ticker.C:
			s.rotate(ctx)
		}
	}
}

// Reschedule replaces the current schedule.
func (s *scheduler) Reschedule(interval rotationDomain.Interval) {
	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()

	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Interval returns the current schedule.
func (s *scheduler) Interval() rotationDomain.Interval {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *scheduler) rotate(ctx context.Context) {
	ctx = auditDomain.WithSource(ctx, auditDomain.SourceScheduler)
	if _, err := s.dekUseCase.Rotate(ctx); err != nil {
		s.logger.Error("scheduled dek rotation failed", slog.Any("error", err))
	}
}
