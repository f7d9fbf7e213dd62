package storage

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/allisson/envelope/internal/errors"
)

// PostgreSQLStore persists entries in the kv_entries table.
// Values are BYTEA; versions come back through RETURNING.
type PostgreSQLStore struct {
	db *sql.DB
}

// NewPostgreSQLStore creates a new PostgreSQL-backed store.
func NewPostgreSQLStore(db *sql.DB) *PostgreSQLStore {
	return &PostgreSQLStore{db: db}
}

// Get retrieves an entry by key.
func (p *PostgreSQLStore) Get(ctx context.Context, key string) (*Entry, error) {
	query := `SELECT entry_key, value, version, updated_at
			  FROM kv_entries
			  WHERE entry_key = $1`

	var entry Entry
	err := p.db.QueryRowContext(ctx, query, key).Scan(
		&entry.Key,
		&entry.Value,
		&entry.Version,
		&entry.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get kv entry")
	}

	return &entry, nil
}

// Set upserts the entry and returns the new version.
func (p *PostgreSQLStore) Set(ctx context.Context, key string, value []byte) (int64, error) {
	query := `INSERT INTO kv_entries (entry_key, value, version, updated_at)
			  VALUES ($1, $2, 1, $3)
			  ON CONFLICT (entry_key) DO UPDATE
			  SET value = EXCLUDED.value,
			      version = kv_entries.version + 1,
			      updated_at = EXCLUDED.updated_at
			  RETURNING version`

	var version int64
	if err := p.db.QueryRowContext(ctx, query, key, value, time.Now().UTC()).Scan(&version); err != nil {
		return 0, apperrors.Wrap(err, "failed to set kv entry")
	}
	return version, nil
}

// CompareAndSwap writes value when the stored version matches expectedVersion.
func (p *PostgreSQLStore) CompareAndSwap(
	ctx context.Context,
	key string,
	expectedVersion int64,
	value []byte,
) (int64, error) {
	now := time.Now().UTC()

	var (
		result sql.Result
		err    error
	)
	if expectedVersion == 0 {
		query := `INSERT INTO kv_entries (entry_key, value, version, updated_at)
				  VALUES ($1, $2, 1, $3)
				  ON CONFLICT (entry_key) DO NOTHING`
		result, err = p.db.ExecContext(ctx, query, key, value, now)
	} else {
		query := `UPDATE kv_entries
				  SET value = $1,
				      version = version + 1,
				      updated_at = $2
				  WHERE entry_key = $3 AND version = $4`
		result, err = p.db.ExecContext(ctx, query, value, now, key, expectedVersion)
	}
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to swap kv entry")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return 0, ErrVersionConflict
	}

	return expectedVersion + 1, nil
}

// Delete removes an entry by key.
func (p *PostgreSQLStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_entries WHERE entry_key = $1`

	if _, err := p.db.ExecContext(ctx, query, key); err != nil {
		return apperrors.Wrap(err, "failed to delete kv entry")
	}
	return nil
}

// Close closes the database connection pool.
func (p *PostgreSQLStore) Close() error {
	return p.db.Close()
}
