package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
)

func TestMapAuditLogsToListResponse(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("maps events", func(t *testing.T) {
		response := MapAuditLogsToListResponse([]auditDomain.Event{
			{
				Timestamp: now,
				Action:    auditDomain.ActionDekRotateOK,
				Source:    "admin",
				Target:    auditDomain.TargetDek,
				Details:   map[string]string{"algorithm": "aes-gcm"},
				Signature: []byte{1, 2, 3},
			},
			{Timestamp: now, Action: auditDomain.ActionLogsCleared, Source: "cli", Target: "audit_log"},
		})

		assert.Len(t, response.Data, 2)
		assert.True(t, response.Data[0].Signed)
		assert.Equal(t, "aes-gcm", response.Data[0].Details["algorithm"])
		assert.False(t, response.Data[1].Signed)
		assert.Equal(t, "cli", response.Data[1].Source)
	})

	t.Run("empty list is not null", func(t *testing.T) {
		response := MapAuditLogsToListResponse(nil)
		assert.NotNil(t, response.Data)
		assert.Empty(t, response.Data)
	})
}
