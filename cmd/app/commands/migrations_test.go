package commands

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationSource(t *testing.T) {
	tests := []struct {
		driver string
		source string
		err    error
	}{
		{driver: "postgres", source: "file://migrations/postgresql"},
		{driver: "mysql", source: "file://migrations/mysql"},
		{driver: "memory", err: errNoSchema},
		{driver: "badger", err: errNoSchema},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			source, err := migrationSource(tt.driver)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.source, source)
		})
	}

	_, err := migrationSource("sqlite")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported storage driver "sqlite"`)
}

func TestRunMigrations(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("schemaless drivers are skipped", func(t *testing.T) {
		require.NoError(t, RunMigrations(logger, "memory", ""))
		require.NoError(t, RunMigrations(logger, "badger", ""))
	})

	t.Run("unsupported driver", func(t *testing.T) {
		err := RunMigrations(logger, "sqlite", "sqlite://envelope.db")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create migrate instance")
	})

	t.Run("unparseable connection string", func(t *testing.T) {
		err := RunMigrations(logger, "postgres", "not a url")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create migrate instance")
	})
}
