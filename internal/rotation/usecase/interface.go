// Package usecase runs scheduled DEK rotation and manages the rotation settings.
package usecase

import (
	"context"

	rotationDomain "github.com/allisson/envelope/internal/rotation/domain"
)

// SettingsRepository persists rotation settings.
//
// Available implementations:
//   - service.YAMLSettingsStore: YAML file
type SettingsRepository interface {
	Load() (rotationDomain.Settings, error)
	Save(settings rotationDomain.Settings) error
}

// Scheduler rotates the DEK periodically.
type Scheduler interface {
	// Start runs the rotation loop until ctx is done.
	Start(ctx context.Context) error

	// Reschedule replaces the current schedule. The next rotation happens one full
	// period after the call.
	Reschedule(interval rotationDomain.Interval)

	// Interval returns the current schedule.
	Interval() rotationDomain.Interval
}

// SettingsUseCase reads and changes the rotation settings.
type SettingsUseCase interface {
	// Get returns the persisted settings.
	Get(ctx context.Context) (rotationDomain.Settings, error)

	// Update validates and persists a new interval and reschedules rotation when it
	// changed. An unknown interval is audited as settings_rejected and leaves the
	// current settings untouched.
	Update(ctx context.Context, interval string, source string) (rotationDomain.Settings, error)

	// Reload applies the settings file after it was changed outside the process.
	Reload(ctx context.Context)
}
