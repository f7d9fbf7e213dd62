package usecase_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	auditRepository "github.com/allisson/envelope/internal/audit/repository"
	auditUseCase "github.com/allisson/envelope/internal/audit/usecase"
	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	cryptoRepository "github.com/allisson/envelope/internal/crypto/repository"
	cryptoService "github.com/allisson/envelope/internal/crypto/service"
	"github.com/allisson/envelope/internal/crypto/usecase"
	"github.com/allisson/envelope/internal/storage"
)

type fixture struct {
	store    storage.Store
	repo     usecase.DekStoreRepository
	auditLog auditUseCase.AuditLogUseCase
}

func newFixture() *fixture {
	store := storage.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		store: store,
		repo:  cryptoRepository.NewKVDekStoreRepository(store),
		auditLog: auditUseCase.NewAuditLogUseCase(
			auditRepository.NewKVAuditLogRepository(store, 10), nil, logger,
		),
	}
}

func (f *fixture) useCase(t *testing.T, kek *cryptoDomain.Kek) usecase.DekUseCase {
	t.Helper()
	return f.useCaseWithRepo(kek, f.repo)
}

func (f *fixture) useCaseWithRepo(kek *cryptoDomain.Kek, repo usecase.DekStoreRepository) usecase.DekUseCase {
	cipher := cryptoService.NewCipherService(cryptoService.NewAEADManager(), nil)
	return usecase.NewDekUseCase(
		kek,
		repo,
		cryptoService.NewKeyManager(cipher),
		f.auditLog,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		usecase.DekUseCaseConfig{Algorithm: cryptoDomain.AESGCM, MaxRetries: 10},
	)
}

func (f *fixture) actions(t *testing.T) []string {
	t.Helper()
	events, err := f.auditLog.List(context.Background(), auditDomain.MaxEntries)
	require.NoError(t, err)
	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	return actions
}

func newKek(t *testing.T, fill byte) *cryptoDomain.Kek {
	t.Helper()
	kek, err := cryptoDomain.NewKek(
		cryptoDomain.NewKey(bytes.Repeat([]byte{fill}, 32)),
		cryptoDomain.KekEncodingHex,
		32,
		false,
	)
	require.NoError(t, err)
	return kek
}

// saveFailingRepository delegates Load and fails every Save with err.
type saveFailingRepository struct {
	usecase.DekStoreRepository
	err error
}

func (r *saveFailingRepository) Save(context.Context, *cryptoDomain.DekStore) error {
	return r.err
}

// gatedRepository blocks the first Save until release is closed.
type gatedRepository struct {
	usecase.DekStoreRepository
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *gatedRepository) Save(ctx context.Context, dekStore *cryptoDomain.DekStore) error {
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.entered)
		<-r.release
	}
	return r.DekStoreRepository.Save(ctx, dekStore)
}

// addRawRecord inserts a record straight into the persisted store document.
func (f *fixture) addRawRecord(t *testing.T, id, record string) {
	t.Helper()
	ctx := context.Background()
	entry, err := f.store.Get(ctx, cryptoRepository.DekStoreKey)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(entry.Value, &doc))
	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["keys"], &keys))
	keys[id] = json.RawMessage(record)
	doc["keys"], err = json.Marshal(keys)
	require.NoError(t, err)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	_, err = f.store.Set(ctx, cryptoRepository.DekStoreKey, raw)
	require.NoError(t, err)
}

func TestDekUseCase_UnreadableRecordKeepsStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := f.useCase(t, newKek(t, 7))

	first, err := uc.GetActiveDek(ctx)
	require.NoError(t, err)
	unreadable := `{"algorithm":"xchacha20","encrypted_key":"YQ==","nonce":"YQ==","tag":"YQ=="}`
	f.addRawRecord(t, "dek_future", unreadable)

	again, err := uc.GetActiveDek(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	rotated, err := uc.Rotate(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, rotated)

	old, err := uc.GetDekByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Key.Bytes(), old.Key.Bytes())

	persisted, err := f.repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, persisted.Len())
	assert.Equal(t, rotated, persisted.ActiveID)
	require.Contains(t, persisted.Unreadable, "dek_future")
	assert.JSONEq(t, unreadable, string(persisted.Unreadable["dek_future"]))

	warnings := 0
	for _, action := range f.actions(t) {
		if action == auditDomain.ActionDekWarning {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings, "one warning per stored version holding the record")
}

func TestDekUseCase_GetActiveDek_CancelledCallerDoesNotFailOthers(t *testing.T) {
	f := newFixture()
	repo := &gatedRepository{
		DekStoreRepository: f.repo,
		entered:            make(chan struct{}),
		release:            make(chan struct{}),
	}
	uc := f.useCaseWithRepo(newKek(t, 8), repo)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := uc.GetActiveDek(firstCtx)
		firstErr <- err
	}()
	<-repo.entered

	type result struct {
		dek *cryptoDomain.Dek
		err error
	}
	second := make(chan result, 1)
	go func() {
		dek, err := uc.GetActiveDek(context.Background())
		second <- result{dek, err}
	}()

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, cryptoDomain.ErrDekGenerationFailed)

	time.Sleep(20 * time.Millisecond)
	close(repo.release)

	res := <-second
	require.NoError(t, res.err)
	require.NotNil(t, res.dek)

	persisted, err := f.repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, persisted.Len())
	assert.Equal(t, res.dek.ID, persisted.ActiveID)
}

func TestDekUseCase_GetActiveDek(t *testing.T) {
	ctx := context.Background()

	t.Run("generates and persists on first use", func(t *testing.T) {
		f := newFixture()
		uc := f.useCase(t, newKek(t, 0))

		dek, err := uc.GetActiveDek(ctx)
		require.NoError(t, err)
		id := dek.ID
		assert.False(t, id.IsZero())
		assert.Equal(t, cryptoDomain.AESGCM, dek.Algorithm)
		assert.Equal(t, cryptoDomain.KeySize, dek.Key.Len())

		persisted, err := f.repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, id, persisted.ActiveID)
		assert.Equal(t, 1, persisted.Len())
		assert.Contains(t, f.actions(t), auditDomain.ActionDekGenerated)

		again, err := uc.GetActiveDek(ctx)
		require.NoError(t, err)
		assert.Equal(t, id, again.ID)
		assert.Equal(t, dek.Key.Bytes(), again.Key.Bytes())
	})

	t.Run("degraded without kek", func(t *testing.T) {
		uc := newFixture().useCase(t, nil)

		_, err := uc.GetActiveDek(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrKekUnavailable)
	})

	t.Run("concurrent first use generates one dek", func(t *testing.T) {
		f := newFixture()
		uc := f.useCase(t, newKek(t, 1))

		const workers = 20
		ids := make([]cryptoDomain.DekID, workers)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				dek, err := uc.GetActiveDek(ctx)
				if err == nil {
					ids[i] = dek.ID
				}
				errs[i] = err
			}(i)
		}
		wg.Wait()

		for i := 0; i < workers; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, ids[0], ids[i])
		}
		persisted, err := f.repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, persisted.Len())
	})

	t.Run("dangling active id triggers generation", func(t *testing.T) {
		f := newFixture()
		_, err := f.store.Set(ctx, cryptoRepository.DekStoreKey, []byte(`{"active_id":"dek_gone","keys":{}}`))
		require.NoError(t, err)
		uc := f.useCase(t, newKek(t, 2))

		dek, err := uc.GetActiveDek(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, "dek_gone", dek.ID.Value())

		persisted, err := f.repo.Load(ctx)
		require.NoError(t, err)
		_, ok := persisted.Active()
		assert.True(t, ok)
	})

	t.Run("malformed store is replaced with a warning", func(t *testing.T) {
		f := newFixture()
		_, err := f.store.Set(ctx, cryptoRepository.DekStoreKey, []byte("not-json"))
		require.NoError(t, err)
		uc := f.useCase(t, newKek(t, 3))

		dek, err := uc.GetActiveDek(ctx)
		require.NoError(t, err)
		assert.Contains(t, f.actions(t), auditDomain.ActionDekWarning)

		persisted, err := f.repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, dek.ID, persisted.ActiveID)
	})

	t.Run("persistence failure returns generation failed", func(t *testing.T) {
		f := newFixture()
		repo := &saveFailingRepository{DekStoreRepository: f.repo, err: errors.New("disk full")}
		uc := f.useCaseWithRepo(newKek(t, 4), repo)

		dek, err := uc.GetActiveDek(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrDekGenerationFailed)
		assert.Nil(t, dek)

		persisted, err := f.repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, persisted.Len())
		assert.Contains(t, f.actions(t), auditDomain.ActionDekError)
	})
}

func TestDekUseCase_GetDekByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the wrapped key", func(t *testing.T) {
		f := newFixture()
		uc := f.useCase(t, newKek(t, 5))
		active, err := uc.GetActiveDek(ctx)
		require.NoError(t, err)

		got, err := uc.GetDekByID(ctx, active.ID)
		require.NoError(t, err)
		assert.Equal(t, active.ID, got.ID)
		assert.Equal(t, active.Key.Bytes(), got.Key.Bytes())
	})

	t.Run("unknown id", func(t *testing.T) {
		uc := newFixture().useCase(t, newKek(t, 5))
		id, err := cryptoDomain.NewDekID()
		require.NoError(t, err)

		_, err = uc.GetDekByID(ctx, id)
		assert.ErrorIs(t, err, cryptoDomain.ErrDekNotFound)
	})

	t.Run("kek mismatch is critical", func(t *testing.T) {
		f := newFixture()
		active, err := f.useCase(t, newKek(t, 6)).GetActiveDek(ctx)
		require.NoError(t, err)

		dek, err := f.useCase(t, newKek(t, 7)).GetDekByID(ctx, active.ID)
		assert.ErrorIs(t, err, cryptoDomain.ErrDekUnwrapFailed)
		assert.Nil(t, dek)
		assert.Equal(t, auditDomain.ActionDekCritical, f.actions(t)[0])
	})

	t.Run("degraded without kek", func(t *testing.T) {
		uc := newFixture().useCase(t, nil)
		id, err := cryptoDomain.NewDekID()
		require.NoError(t, err)

		_, err = uc.GetDekByID(ctx, id)
		assert.ErrorIs(t, err, cryptoDomain.ErrKekUnavailable)
	})
}

func TestDekUseCase_Rotate(t *testing.T) {
	ctx := context.Background()

	t.Run("sequential rotations keep every dek", func(t *testing.T) {
		f := newFixture()
		uc := f.useCase(t, newKek(t, 8))

		const rotations = 5
		seen := make(map[cryptoDomain.DekID]bool)
		var last cryptoDomain.DekID
		for i := 0; i < rotations; i++ {
			id, err := uc.Rotate(ctx)
			require.NoError(t, err)
			assert.False(t, seen[id])
			seen[id] = true
			last = id
		}

		for id := range seen {
			_, err := uc.GetDekByID(ctx, id)
			assert.NoError(t, err)
		}

		active, err := uc.GetActiveDek(ctx)
		require.NoError(t, err)
		assert.Equal(t, last, active.ID)

		actions := f.actions(t)
		assert.Equal(t, auditDomain.ActionDekRotateOK, actions[0])
		assert.Equal(t, auditDomain.ActionDekRotateStart, actions[1])
	})

	t.Run("rotation success details omit the dek id", func(t *testing.T) {
		f := newFixture()
		id, err := f.useCase(t, newKek(t, 9)).Rotate(ctx)
		require.NoError(t, err)

		events, err := f.auditLog.List(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"algorithm": "aes-gcm", "dek_count": "1"}, events[0].Details)
		for _, v := range events[0].Details {
			assert.NotContains(t, v, id.Value())
		}
	})

	t.Run("source comes from context", func(t *testing.T) {
		f := newFixture()
		_, err := f.useCase(t, newKek(t, 9)).Rotate(auditDomain.WithSource(ctx, auditDomain.SourceScheduler))
		require.NoError(t, err)

		events, err := f.auditLog.List(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, auditDomain.SourceScheduler, events[0].Source)
	})

	t.Run("concurrent rotations across instances lose nothing", func(t *testing.T) {
		f := newFixture()
		kek := newKek(t, 10)
		instances := []usecase.DekUseCase{f.useCase(t, kek), f.useCase(t, kek)}

		const rotations = 10
		ids := make([]cryptoDomain.DekID, rotations)
		errs := make([]error, rotations)
		var wg sync.WaitGroup
		for i := 0; i < rotations; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ids[i], errs[i] = instances[i%2].Rotate(ctx)
			}(i)
		}
		wg.Wait()

		persisted, err := f.repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, rotations, persisted.Len())
		for i := 0; i < rotations; i++ {
			require.NoError(t, errs[i])
			_, ok := persisted.Get(ids[i])
			assert.True(t, ok)
		}
	})

	t.Run("failure leaves the store untouched", func(t *testing.T) {
		f := newFixture()
		kek := newKek(t, 11)
		before, err := f.useCase(t, kek).Rotate(ctx)
		require.NoError(t, err)

		repo := &saveFailingRepository{DekStoreRepository: f.repo, err: errors.New("disk full")}
		_, err = f.useCaseWithRepo(kek, repo).Rotate(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrDekGenerationFailed)

		persisted, err := f.repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, persisted.ActiveID)
		assert.Equal(t, 1, persisted.Len())
		assert.Equal(t, auditDomain.ActionDekRotateFailed, f.actions(t)[0])
	})

	t.Run("persistent conflicts exhaust retries", func(t *testing.T) {
		f := newFixture()
		repo := &saveFailingRepository{DekStoreRepository: f.repo, err: storage.ErrVersionConflict}

		_, err := f.useCaseWithRepo(newKek(t, 12), repo).Rotate(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrDekGenerationFailed)

		events, err := f.auditLog.List(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "store_conflict", events[0].Details["cause"])
	})

	t.Run("degraded without kek", func(t *testing.T) {
		f := newFixture()
		_, err := f.useCase(t, nil).Rotate(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrKekUnavailable)
		assert.Equal(t, auditDomain.ActionDekRotateFailed, f.actions(t)[0])
	})
}

func TestDekUseCase_Prune(t *testing.T) {
	ctx := context.Background()

	// seed stores three DEKs: two created 100 days ago and the active one.
	seed := func(t *testing.T, f *fixture) (oldA, oldB, active cryptoDomain.DekID) {
		t.Helper()
		uc := f.useCase(t, newKek(t, 13))
		ids := make([]cryptoDomain.DekID, 3)
		for i := range ids {
			id, err := uc.Rotate(ctx)
			require.NoError(t, err)
			ids[i] = id
		}

		dekStore, err := f.repo.Load(ctx)
		require.NoError(t, err)
		old := time.Now().UTC().Add(-100 * 24 * time.Hour)
		for _, id := range ids {
			dek, _ := dekStore.Get(id)
			dek.CreatedAt = old
		}
		require.NoError(t, f.repo.Save(ctx, dekStore))
		return ids[0], ids[1], ids[2]
	}

	t.Run("removes old inactive deks only", func(t *testing.T) {
		f := newFixture()
		oldA, oldB, active := seed(t, f)
		uc := f.useCase(t, newKek(t, 13))

		pruned, err := uc.Prune(ctx, 30*24*time.Hour, nil, false)
		require.NoError(t, err)
		assert.ElementsMatch(t, []cryptoDomain.DekID{oldA, oldB}, pruned)

		persisted, err := f.repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, persisted.Len())
		assert.Equal(t, active, persisted.ActiveID)
		assert.Equal(t, auditDomain.ActionDekPruned, f.actions(t)[0])
	})

	t.Run("retained deks survive", func(t *testing.T) {
		f := newFixture()
		oldA, oldB, _ := seed(t, f)
		uc := f.useCase(t, newKek(t, 13))

		pruned, err := uc.Prune(ctx, 30*24*time.Hour, func(id cryptoDomain.DekID) bool {
			return id == oldA
		}, false)
		require.NoError(t, err)
		assert.Equal(t, []cryptoDomain.DekID{oldB}, pruned)

		_, err = uc.GetDekByID(ctx, oldA)
		assert.NoError(t, err)
	})

	t.Run("dry run changes nothing", func(t *testing.T) {
		f := newFixture()
		seed(t, f)
		uc := f.useCase(t, newKek(t, 13))

		pruned, err := uc.Prune(ctx, 30*24*time.Hour, nil, true)
		require.NoError(t, err)
		assert.Len(t, pruned, 2)

		persisted, err := f.repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, persisted.Len())
		assert.Equal(t, auditDomain.ActionDekPruneSkipped, f.actions(t)[0])
	})

	t.Run("young deks are kept", func(t *testing.T) {
		f := newFixture()
		seed(t, f)
		uc := f.useCase(t, newKek(t, 13))

		pruned, err := uc.Prune(ctx, 365*24*time.Hour, nil, false)
		require.NoError(t, err)
		assert.Empty(t, pruned)
	})

	t.Run("invalid max age", func(t *testing.T) {
		_, err := newFixture().useCase(t, nil).Prune(ctx, 0, nil, false)
		assert.Error(t, err)
	})

	t.Run("malformed store is never pruned", func(t *testing.T) {
		f := newFixture()
		_, err := f.store.Set(ctx, cryptoRepository.DekStoreKey, []byte("{"))
		require.NoError(t, err)

		_, err = f.useCase(t, nil).Prune(ctx, time.Hour, nil, false)
		assert.ErrorIs(t, err, cryptoDomain.ErrDekStoreMalformed)

		entry, err := f.store.Get(ctx, cryptoRepository.DekStoreKey)
		require.NoError(t, err)
		assert.Equal(t, []byte("{"), entry.Value)
	})
}

func TestDekUseCase_ListDeks(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := f.useCase(t, newKek(t, 14))

	infos, err := uc.ListDeks(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)

	first, err := uc.Rotate(ctx)
	require.NoError(t, err)
	second, err := uc.Rotate(ctx)
	require.NoError(t, err)

	infos, err = uc.ListDeks(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byID := map[cryptoDomain.DekID]cryptoDomain.DekInfo{}
	for _, info := range infos {
		byID[info.ID] = info
	}
	assert.False(t, byID[first].Active)
	assert.True(t, byID[second].Active)
	assert.Equal(t, cryptoDomain.AESGCM, byID[second].Algorithm)
}
