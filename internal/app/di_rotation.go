package app

import (
	"fmt"
	"log/slog"

	rotationDomain "github.com/allisson/envelope/internal/rotation/domain"
	rotationHTTP "github.com/allisson/envelope/internal/rotation/http"
	rotationService "github.com/allisson/envelope/internal/rotation/service"
	rotationUseCase "github.com/allisson/envelope/internal/rotation/usecase"
)

// SettingsStore returns the YAML rotation settings store.
func (c *Container) SettingsStore() (*rotationService.YAMLSettingsStore, error) {
	var err error
	c.settingsStoreInit.Do(func() {
		var interval rotationDomain.Interval
		interval, err = rotationDomain.ParseInterval(c.config.RotationInterval)
		if err != nil {
			err = fmt.Errorf("invalid ROTATION_INTERVAL %q: %w", c.config.RotationInterval, err)
			c.setInitError("settingsStore", err)
			return
		}
		c.settingsStore = rotationService.NewYAMLSettingsStore(
			c.config.SettingsFile,
			rotationDomain.Settings{RotationInterval: interval},
		)
	})
	if storedErr := c.initError("settingsStore"); storedErr != nil {
		return nil, storedErr
	}
	return c.settingsStore, nil
}

// Scheduler returns the DEK rotation scheduler, or nil when ROTATION_ENABLED is false.
// It starts on the persisted interval, or the configured default when the settings
// file cannot be used.
func (c *Container) Scheduler() (rotationUseCase.Scheduler, error) {
	var err error
	c.schedulerInit.Do(func() {
		if !c.config.RotationEnabled {
			return
		}
		c.scheduler, err = c.initScheduler()
		if err != nil {
			c.setInitError("scheduler", err)
		}
	})
	if storedErr := c.initError("scheduler"); storedErr != nil {
		return nil, storedErr
	}
	return c.scheduler, nil
}

// SettingsUseCase returns the rotation settings use case.
func (c *Container) SettingsUseCase() (rotationUseCase.SettingsUseCase, error) {
	var err error
	c.settingsUseCaseInit.Do(func() {
		c.settingsUseCase, err = c.initSettingsUseCase()
		if err != nil {
			c.setInitError("settingsUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("settingsUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.settingsUseCase, nil
}

// SettingsHandler returns the rotation settings HTTP handler.
func (c *Container) SettingsHandler() (*rotationHTTP.SettingsHandler, error) {
	var err error
	c.settingsHandlerInit.Do(func() {
		var useCase rotationUseCase.SettingsUseCase
		useCase, err = c.SettingsUseCase()
		if err != nil {
			c.setInitError("settingsHandler", fmt.Errorf("failed to get settings use case for handler: %w", err))
			return
		}
		c.settingsHandler = rotationHTTP.NewSettingsHandler(useCase, c.Logger())
	})
	if storedErr := c.initError("settingsHandler"); storedErr != nil {
		return nil, storedErr
	}
	return c.settingsHandler, nil
}

// NewSettingsWatcher creates a watcher for the settings file. Each call returns a new
// watcher owned by the caller.
func (c *Container) NewSettingsWatcher() (*rotationService.SettingsWatcher, error) {
	store, err := c.SettingsStore()
	if err != nil {
		return nil, err
	}
	return rotationService.NewSettingsWatcher(store.Path(), rotationService.DefaultDebounce, c.Logger())
}

func (c *Container) initScheduler() (rotationUseCase.Scheduler, error) {
	store, err := c.SettingsStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings store for scheduler: %w", err)
	}

	dekUseCase, err := c.DekUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get dek use case for scheduler: %w", err)
	}

	interval := store.Defaults().RotationInterval
	if settings, err := store.Load(); err == nil {
		interval = settings.RotationInterval
	} else {
		c.Logger().Warn("rotation settings unusable, using default interval",
			slog.String("interval", string(interval)),
			slog.Any("error", err))
	}

	return rotationUseCase.NewScheduler(dekUseCase, interval, c.Logger()), nil
}

func (c *Container) initSettingsUseCase() (rotationUseCase.SettingsUseCase, error) {
	store, err := c.SettingsStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings store for settings use case: %w", err)
	}

	scheduler, err := c.Scheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduler for settings use case: %w", err)
	}

	auditLog, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log for settings use case: %w", err)
	}

	return rotationUseCase.NewSettingsUseCase(store, scheduler, auditLog, c.Logger()), nil
}
