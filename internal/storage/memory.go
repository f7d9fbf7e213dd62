package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory. Useful for tests and single-shot CLI runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Get returns a copy of the stored entry.
func (m *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	entry.Value = cloneBytes(entry.Value)
	return &entry, nil
}

// Set writes value unconditionally.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	version := m.entries[key].Version + 1
	m.entries[key] = Entry{
		Key:       key,
		Value:     cloneBytes(value),
		Version:   version,
		UpdatedAt: time.Now().UTC(),
	}
	return version, nil
}

// CompareAndSwap writes value when the stored version matches expectedVersion.
func (m *MemoryStore) CompareAndSwap(
	ctx context.Context,
	key string,
	expectedVersion int64,
	value []byte,
) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.entries[key]
	if !ok && expectedVersion != 0 {
		return 0, ErrVersionConflict
	}
	if ok && current.Version != expectedVersion {
		return 0, ErrVersionConflict
	}

	version := expectedVersion + 1
	m.entries[key] = Entry{
		Key:       key,
		Value:     cloneBytes(value),
		Version:   version,
		UpdatedAt: time.Now().UTC(),
	}
	return version, nil
}

// Delete removes key.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
