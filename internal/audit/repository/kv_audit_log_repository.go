// Package repository persists the audit log as a single JSON document in a
// versioned key-value store.
package repository

import (
	"context"
	"encoding/json"
	"time"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	apperrors "github.com/allisson/envelope/internal/errors"
	"github.com/allisson/envelope/internal/storage"
)

// AuditLogKey is the storage key of the audit log document.
const AuditLogKey = "audit_log"

type eventDocument struct {
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	Source    string            `json:"source"`
	Target    string            `json:"target"`
	Details   map[string]string `json:"details,omitempty"`
	Signature []byte            `json:"signature,omitempty"`
}

// KVAuditLogRepository stores the audit log under AuditLogKey.
// Appends use compare-and-swap so concurrent writers never drop each other's events.
type KVAuditLogRepository struct {
	store      storage.Store
	maxRetries int
}

// NewKVAuditLogRepository creates a new KVAuditLogRepository.
func NewKVAuditLogRepository(store storage.Store, maxRetries int) *KVAuditLogRepository {
	return &KVAuditLogRepository{store: store, maxRetries: maxRetries}
}

// Append inserts event at the head of the log.
// An undecodable stored log is replaced rather than blocking new events.
func (r *KVAuditLogRepository) Append(ctx context.Context, event auditDomain.Event, maxEntries int) error {
	_, err := storage.Update(ctx, r.store, AuditLogKey, r.maxRetries, func(current []byte) ([]byte, error) {
		events, err := decodeEvents(current)
		if err != nil {
			events = nil
		}
		return encodeEvents(auditDomain.Prepend(events, event, maxEntries))
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to append audit event")
	}
	return nil
}

// List returns every stored event, newest first.
func (r *KVAuditLogRepository) List(ctx context.Context) ([]auditDomain.Event, error) {
	entry, err := r.store.Get(ctx, AuditLogKey)
	if err != nil {
		if apperrors.Is(err, storage.ErrKeyNotFound) {
			return []auditDomain.Event{}, nil
		}
		return nil, apperrors.Wrap(err, "failed to get audit log")
	}

	return decodeEvents(entry.Value)
}

// Clear removes every event.
func (r *KVAuditLogRepository) Clear(ctx context.Context) error {
	if _, err := r.store.Set(ctx, AuditLogKey, []byte("[]")); err != nil {
		return apperrors.Wrap(err, "failed to clear audit log")
	}
	return nil
}

func decodeEvents(raw []byte) ([]auditDomain.Event, error) {
	if len(raw) == 0 {
		return []auditDomain.Event{}, nil
	}

	var docs []eventDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, apperrors.Wrap(auditDomain.ErrAuditLogMalformed, err.Error())
	}

	events := make([]auditDomain.Event, 0, len(docs))
	for _, doc := range docs {
		events = append(events, auditDomain.Event{
			Timestamp: doc.Timestamp.UTC(),
			Action:    doc.Action,
			Source:    doc.Source,
			Target:    doc.Target,
			Details:   doc.Details,
			Signature: doc.Signature,
		})
	}
	return events, nil
}

func encodeEvents(events []auditDomain.Event) ([]byte, error) {
	docs := make([]eventDocument, 0, len(events))
	for _, event := range events {
		docs = append(docs, eventDocument{
			Timestamp: event.Timestamp,
			Action:    event.Action,
			Source:    event.Source,
			Target:    event.Target,
			Details:   event.Details,
			Signature: event.Signature,
		})
	}
	return json.Marshal(docs)
}
