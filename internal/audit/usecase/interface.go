// Package usecase implements audit logging: recording sanitized, optionally signed
// events into a capped newest-first log, listing them and clearing the log.
package usecase

import (
	"context"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
)

// AuditLogRepository persists the capped audit log.
type AuditLogRepository interface {
	// Append inserts event at the head of the log, truncating it to maxEntries.
	Append(ctx context.Context, event auditDomain.Event, maxEntries int) error

	// List returns all stored events, newest first.
	List(ctx context.Context) ([]auditDomain.Event, error)

	// Clear removes every event.
	Clear(ctx context.Context) error
}

// AuditLogUseCase is the audit sink used by the rest of the system.
type AuditLogUseCase interface {
	// Log records an event. Failures are logged and never returned, so auditing can
	// not break the operation being audited.
	Log(ctx context.Context, action, source, target string, details map[string]string)

	// List returns up to limit events, newest first.
	List(ctx context.Context, limit int) ([]auditDomain.Event, error)

	// Clear empties the log and then records a logs_cleared event attributed to source.
	Clear(ctx context.Context, source string) error

	// Verify checks every event signature.
	Verify(ctx context.Context) (*VerifyResult, error)
}

// VerifyResult summarizes a signature verification pass.
type VerifyResult struct {
	Total    int
	Valid    int
	Invalid  int
	Unsigned int
}
