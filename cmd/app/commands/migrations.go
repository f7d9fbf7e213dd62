package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// errNoSchema marks storage drivers that keep no SQL schema.
var errNoSchema = errors.New("storage driver has no schema")

// migrationSource returns the golang-migrate source URL of a storage driver.
func migrationSource(storageDriver string) (string, error) {
	switch storageDriver {
	case "postgres":
		return "file://migrations/postgresql", nil
	case "mysql":
		return "file://migrations/mysql", nil
	case "memory", "badger":
		return "", errNoSchema
	}
	return "", fmt.Errorf("unsupported storage driver %q", storageDriver)
}

// RunMigrations brings the kv_entries schema up to date. It is a no-op for the
// memory and badger drivers.
func RunMigrations(logger *slog.Logger, storageDriver, connectionString string) error {
	source, err := migrationSource(storageDriver)
	if errors.Is(err, errNoSchema) {
		logger.Info("skipping migrations", slog.String("driver", storageDriver), slog.String("reason", err.Error()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	m, err := migrate.New(source, connectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	logger.Info("applying migrations", slog.String("driver", storageDriver), slog.String("source", source))
	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("schema already up to date")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("migrations applied")
	}
	return nil
}
