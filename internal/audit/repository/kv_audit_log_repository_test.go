package repository

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	"github.com/allisson/envelope/internal/storage"
)

func newEvent(action string) auditDomain.Event {
	return auditDomain.NewEvent(action, "test", "dek", map[string]string{"k": "v"}, time.Now())
}

func TestKVAuditLogRepository_AppendList(t *testing.T) {
	ctx := context.Background()

	t.Run("empty log", func(t *testing.T) {
		repo := NewKVAuditLogRepository(storage.NewMemoryStore(), 3)
		events, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("newest first with details and signature", func(t *testing.T) {
		repo := NewKVAuditLogRepository(storage.NewMemoryStore(), 3)

		first := newEvent("first")
		second := newEvent("second")
		second.Signature = []byte{1, 2, 3}

		require.NoError(t, repo.Append(ctx, first, auditDomain.MaxEntries))
		require.NoError(t, repo.Append(ctx, second, auditDomain.MaxEntries))

		events, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "second", events[0].Action)
		assert.Equal(t, []byte{1, 2, 3}, events[0].Signature)
		assert.Equal(t, "first", events[1].Action)
		assert.Equal(t, map[string]string{"k": "v"}, events[1].Details)
		assert.True(t, events[1].Timestamp.Equal(first.Timestamp))
	})

	t.Run("truncates to max entries", func(t *testing.T) {
		repo := NewKVAuditLogRepository(storage.NewMemoryStore(), 3)
		for i := 0; i < 5; i++ {
			require.NoError(t, repo.Append(ctx, newEvent(strconv.Itoa(i)), 3))
		}

		events, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, "4", events[0].Action)
		assert.Equal(t, "2", events[2].Action)
	})

	t.Run("malformed log is replaced on append", func(t *testing.T) {
		store := storage.NewMemoryStore()
		_, err := store.Set(ctx, AuditLogKey, []byte("{not json"))
		require.NoError(t, err)
		repo := NewKVAuditLogRepository(store, 3)

		_, err = repo.List(ctx)
		assert.ErrorIs(t, err, auditDomain.ErrAuditLogMalformed)

		require.NoError(t, repo.Append(ctx, newEvent("fresh"), auditDomain.MaxEntries))
		events, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "fresh", events[0].Action)
	})

	t.Run("concurrent appends are all kept", func(t *testing.T) {
		repo := NewKVAuditLogRepository(storage.NewMemoryStore(), 100)

		var wg sync.WaitGroup
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, repo.Append(ctx, newEvent(strconv.Itoa(i)), auditDomain.MaxEntries))
			}(i)
		}
		wg.Wait()

		events, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, events, 25)
	})
}

func TestKVAuditLogRepository_Clear(t *testing.T) {
	ctx := context.Background()
	repo := NewKVAuditLogRepository(storage.NewMemoryStore(), 3)

	require.NoError(t, repo.Append(ctx, newEvent("a"), auditDomain.MaxEntries))
	require.NoError(t, repo.Clear(ctx))

	events, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}
