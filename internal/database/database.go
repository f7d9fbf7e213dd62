// Package database opens the SQL connection pools behind the postgres and mysql
// storage drivers.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

const pingTimeout = 5 * time.Second

// Config holds the pool settings for a SQL storage backend.
type Config struct {
	StorageDriver      string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// DriverName maps a STORAGE_DRIVER value to the registered database/sql driver.
func DriverName(storageDriver string) (string, error) {
	switch storageDriver {
	case "postgres":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("storage driver %q is not backed by SQL", storageDriver)
	}
}

// Open creates the pool and checks that the server answers before returning it.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	driverName, err := DriverName(cfg.StorageDriver)
	if err != nil {
		return nil, err
	}
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("DB_CONNECTION_STRING is required for storage driver %q", cfg.StorageDriver)
	}

	db, err := sql.Open(driverName, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
