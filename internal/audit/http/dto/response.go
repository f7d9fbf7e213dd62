// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	auditUseCase "github.com/allisson/envelope/internal/audit/usecase"
)

// AuditLogResponse represents a single audit event in API responses.
type AuditLogResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	Source    string            `json:"source"`
	Target    string            `json:"target"`
	Details   map[string]string `json:"details,omitempty"`
	Signed    bool              `json:"signed"`
}

// ListAuditLogsResponse wraps a page of audit events, newest first.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// VerifyAuditLogsResponse reports the result of a signature verification pass.
type VerifyAuditLogsResponse struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Unsigned int `json:"unsigned"`
}

// MapAuditLogsToListResponse converts domain events to an API response.
func MapAuditLogsToListResponse(events []auditDomain.Event) ListAuditLogsResponse {
	data := make([]AuditLogResponse, 0, len(events))
	for _, e := range events {
		data = append(data, AuditLogResponse{
			Timestamp: e.Timestamp,
			Action:    e.Action,
			Source:    e.Source,
			Target:    e.Target,
			Details:   e.Details,
			Signed:    len(e.Signature) > 0,
		})
	}
	return ListAuditLogsResponse{Data: data}
}

// MapVerifyResult converts a verification result to an API response.
func MapVerifyResult(result *auditUseCase.VerifyResult) VerifyAuditLogsResponse {
	return VerifyAuditLogsResponse{
		Total:    result.Total,
		Valid:    result.Valid,
		Invalid:  result.Invalid,
		Unsigned: result.Unsigned,
	}
}
