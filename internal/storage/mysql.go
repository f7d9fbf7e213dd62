package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/envelope/internal/database"
	apperrors "github.com/allisson/envelope/internal/errors"
)

// MySQLStore persists entries in the kv_entries table.
// Values are LONGBLOB; Set reads the new version back inside a transaction.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore creates a new MySQL-backed store.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// Get retrieves an entry by key.
func (m *MySQLStore) Get(ctx context.Context, key string) (*Entry, error) {

	query := `SELECT entry_key, value, version, updated_at
			  FROM kv_entries
			  WHERE entry_key = ?`

	var entry Entry
	err := m.db.QueryRowContext(ctx, query, key).Scan(
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

// Set upserts the entry inside a transaction and returns the new version.
// MySQL has no RETURNING clause, so the version is read back in the same transaction.
func (m *MySQLStore) Set(ctx context.Context, key string, value []byte) (int64, error) {
	var version int64

	err := database.WithTx(ctx, m.db, func(tx *sql.Tx) error {
	
		query := `INSERT INTO kv_entries (entry_key, value, version, updated_at)
				  VALUES (?, ?, 1, ?)
				  ON DUPLICATE KEY UPDATE
				  value = VALUES(value),
				  version = version + 1,
				  updated_at = VALUES(updated_at)`

		if _, err := tx.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
			return err
		}

		return tx.QueryRowContext(
			ctx,
			`SELECT version FROM kv_entries WHERE entry_key = ?`,
			key,
		).Scan(&version)
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to set kv entry")
	}

	return version, nil
}

// CompareAndSwap writes value when the stored version matches expectedVersion.
func (m *MySQLStore) CompareAndSwap(
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
		query := `INSERT IGNORE INTO kv_entries (entry_key, value, version, updated_at)
				  VALUES (?, ?, 1, ?)`
		result, err = m.db.ExecContext(ctx, query, key, value, now)
	} else {
		query := `UPDATE kv_entries
				  SET value = ?,
				      version = version + 1,
				      updated_at = ?
				  WHERE entry_key = ? AND version = ?`
		result, err = m.db.ExecContext(ctx, query, value, now, key, expectedVersion)
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
func (m *MySQLStore) Delete(ctx context.Context, key string) error {

	if _, err := m.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE entry_key = ?`, key); err != nil {
		return apperrors.Wrap(err, "failed to delete kv entry")
	}
	return nil
}

// Close closes the database connection pool.
func (m *MySQLStore) Close() error {
	return m.db.Close()
}
