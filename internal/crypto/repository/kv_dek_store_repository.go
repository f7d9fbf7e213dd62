// Package repository persists the DEK store as a single JSON document in a
// versioned key-value store.
package repository

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	apperrors "github.com/allisson/envelope/internal/errors"
	"github.com/allisson/envelope/internal/storage"
)

// DekStoreKey is the storage key of the DEK store document.
const DekStoreKey = "deks"

type wrappedDekDocument struct {
	Algorithm    string    `json:"algorithm"`
	EncryptedKey []byte    `json:"encrypted_key"`
	Nonce        []byte    `json:"nonce"`
	Tag          []byte    `json:"tag"`
	CreatedAt    time.Time `json:"created_at"`
}

type dekStoreDocument struct {
	ActiveID string                     `json:"active_id,omitempty"`
	Keys     map[string]json.RawMessage `json:"keys"`
}

// KVDekStoreRepository loads and saves the whole DEK store under DekStoreKey.
type KVDekStoreRepository struct {
	store storage.Store
}

// NewKVDekStoreRepository creates a new KVDekStoreRepository.
func NewKVDekStoreRepository(store storage.Store) *KVDekStoreRepository {
	return &KVDekStoreRepository{store: store}
}

// Load returns the persisted store, or an empty store at version zero when nothing
// has been written yet.
//
// When the document cannot be decoded, Load returns an empty store carrying the
// stored version together with ErrDekStoreMalformed, so a caller that chooses to
// continue can overwrite the bad document through compare-and-swap. A single bad
// record does not make the document malformed: it is kept in Unreadable and
// reported in Skipped.
func (r *KVDekStoreRepository) Load(ctx context.Context) (*cryptoDomain.DekStore, error) {
	entry, err := r.store.Get(ctx, DekStoreKey)
	if err != nil {
		if apperrors.Is(err, storage.ErrKeyNotFound) {
			return cryptoDomain.NewDekStore(), nil
		}
		return nil, apperrors.Wrap(err, "failed to get dek store")
	}

	dekStore, err := decodeDekStore(entry.Value)
	if err != nil {
		empty := cryptoDomain.NewDekStore()
		empty.Version = entry.Version
		return empty, err
	}
	dekStore.Version = entry.Version
	return dekStore, nil
}

// Save writes the store if nobody else changed it since it was loaded, then updates
// store.Version. A concurrent change returns storage.ErrVersionConflict.
func (r *KVDekStoreRepository) Save(ctx context.Context, dekStore *cryptoDomain.DekStore) error {
	raw, err := encodeDekStore(dekStore)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode dek store")
	}

	version, err := r.store.CompareAndSwap(ctx, DekStoreKey, dekStore.Version, raw)
	if err != nil {
		return apperrors.Wrap(err, "failed to save dek store")
	}

	dekStore.Version = version
	return nil
}

func decodeDekStore(raw []byte) (*cryptoDomain.DekStore, error) {
	var doc dekStoreDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrDekStoreMalformed, err.Error())
	}

	dekStore := cryptoDomain.NewDekStore()
	for rawID, rawRecord := range doc.Keys {
		dek, reason := decodeWrappedDek(rawID, rawRecord)
		if reason != "" {
			if dekStore.Unreadable == nil {
				dekStore.Unreadable = make(map[string][]byte)
			}
			dekStore.Unreadable[rawID] = rawRecord
			dekStore.Skipped = append(dekStore.Skipped, reason)
			continue
		}
		dekStore.Keys[dek.ID] = dek
	}
	sort.Strings(dekStore.Skipped)

	// A dangling active id is kept as is; the DEK manager treats it as "no active
	// DEK" and generates a new one. So is an active id that cannot be parsed.
	if doc.ActiveID != "" {
		activeID, err := cryptoDomain.ParseDekID(doc.ActiveID)
		if err != nil {
			dekStore.Skipped = append(dekStore.Skipped, "invalid active dek id")
		} else {
			dekStore.ActiveID = activeID
		}
	}

	return dekStore, nil
}

// decodeWrappedDek returns the record, or a short reason it cannot be used.
func decodeWrappedDek(rawID string, raw json.RawMessage) (*cryptoDomain.WrappedDek, string) {
	id, err := cryptoDomain.ParseDekID(rawID)
	if err != nil {
		return nil, "invalid dek id"
	}

	var record wrappedDekDocument
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, "undecodable dek record"
	}

	// Records written before the algorithm was recorded are AES-GCM.
	alg := cryptoDomain.AESGCM
	if record.Algorithm != "" {
		if alg, err = cryptoDomain.ParseAlgorithm(record.Algorithm); err != nil {
			return nil, "invalid dek algorithm"
		}
	}
	if len(record.EncryptedKey) == 0 || len(record.Nonce) == 0 || len(record.Tag) == 0 {
		return nil, "incomplete dek record"
	}

	return &cryptoDomain.WrappedDek{
		ID:           id,
		Algorithm:    alg,
		EncryptedKey: record.EncryptedKey,
		Nonce:        record.Nonce,
		Tag:          record.Tag,
		CreatedAt:    record.CreatedAt.UTC(),
	}, ""
}

func encodeDekStore(dekStore *cryptoDomain.DekStore) ([]byte, error) {
	doc := dekStoreDocument{
		ActiveID: dekStore.ActiveID.Value(),
		Keys:     make(map[string]json.RawMessage, len(dekStore.Keys)+len(dekStore.Unreadable)),
	}
	for rawID, rawRecord := range dekStore.Unreadable {
		doc.Keys[rawID] = rawRecord
	}
	for id, dek := range dekStore.Keys {
		record, err := json.Marshal(wrappedDekDocument{
			Algorithm:    string(dek.Algorithm),
			EncryptedKey: dek.EncryptedKey,
			Nonce:        dek.Nonce,
			Tag:          dek.Tag,
			CreatedAt:    dek.CreatedAt,
		})
		if err != nil {
			return nil, err
		}
		doc.Keys[id.Value()] = record
	}
	return json.Marshal(doc)
}
