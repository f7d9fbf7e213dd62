package domain

import (
	"sort"
	"time"
)

// DekStore is the set of wrapped DEKs plus the id of the active one.
//
// Invariants: when ActiveID is set it refers to an entry in Keys; entries are only
// ever added, except through an explicit Prune which never removes the active DEK.
// Version is the storage version the store was loaded at and is used for
// compare-and-swap when the store is saved.
//
// Unreadable holds the records that could not be decoded, keyed by their stored
// id. They are never served, and saving the store writes them back unchanged.
// Skipped lists why records, or the active id, were ignored while loading.
type DekStore struct {
	ActiveID   DekID
	Keys       map[DekID]*WrappedDek
	Unreadable map[string][]byte
	Skipped    []string
	Version    int64
}

// NewDekStore creates an empty store.
func NewDekStore() *DekStore {
	return &DekStore{Keys: make(map[DekID]*WrappedDek)}
}

// Active returns the active DEK record, if any.
func (s *DekStore) Active() (*WrappedDek, bool) {
	if s.ActiveID.IsZero() {
		return nil, false
	}
	dek, ok := s.Keys[s.ActiveID]
	return dek, ok
}

// Get returns a DEK record by id.
func (s *DekStore) Get(id DekID) (*WrappedDek, bool) {
	dek, ok := s.Keys[id]
	return dek, ok
}

// Add inserts a new record. Existing ids are never overwritten.
func (s *DekStore) Add(dek *WrappedDek) error {
	if s.Keys == nil {
		s.Keys = make(map[DekID]*WrappedDek)
	}
	if _, exists := s.Keys[dek.ID]; exists {
		return ErrDekAlreadyExists
	}
	if _, exists := s.Unreadable[dek.ID.Value()]; exists {
		return ErrDekAlreadyExists
	}
	s.Keys[dek.ID] = dek
	return nil
}

// Activate marks an existing record as the active DEK.
func (s *DekStore) Activate(id DekID) error {
	if _, ok := s.Keys[id]; !ok {
		return ErrDekNotFound
	}
	s.ActiveID = id
	return nil
}

// Len returns the number of records.
func (s *DekStore) Len() int {
	return len(s.Keys)
}

// List returns the non-sensitive view of every record, oldest first.
func (s *DekStore) List() []DekInfo {
	infos := make([]DekInfo, 0, len(s.Keys))
	for id, dek := range s.Keys {
		infos = append(infos, DekInfo{
			ID:        id,
			Algorithm: dek.Algorithm,
			CreatedAt: dek.CreatedAt,
			Active:    id == s.ActiveID,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID.Value() < infos[j].ID.Value()
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// PruneCandidates returns the ids created before cutoff that are neither active nor
// retained by the caller's policy.
func (s *DekStore) PruneCandidates(cutoff time.Time, retain func(DekID) bool) []DekID {
	var ids []DekID
	for _, info := range s.List() {
		if info.Active || !info.CreatedAt.Before(cutoff) {
			continue
		}
		if retain != nil && retain(info.ID) {
			continue
		}
		ids = append(ids, info.ID)
	}
	return ids
}

// Remove deletes the given records. The active DEK can never be removed.
func (s *DekStore) Remove(ids []DekID) error {
	for _, id := range ids {
		if id == s.ActiveID {
			return ErrActiveDekRetained
		}
	}
	for _, id := range ids {
		delete(s.Keys, id)
	}
	return nil
}
