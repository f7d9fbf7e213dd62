// Package http provides HTTP handlers for audit log administration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	"github.com/allisson/envelope/internal/audit/http/dto"
	auditUseCase "github.com/allisson/envelope/internal/audit/usecase"
	"github.com/allisson/envelope/internal/httputil"
)

const defaultListLimit = 50

// AuditLogHandler handles HTTP requests for audit log operations.
type AuditLogHandler struct {
	auditLogUseCase auditUseCase.AuditLogUseCase
	logger          *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler with required dependencies.
func NewAuditLogHandler(
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUseCase: auditLogUseCase,
		logger:          logger,
	}
}

// ListHandler returns the most recent audit events.
// GET /v1/audit-logs?limit=50 - Admin only. Events are ordered newest first.
func (h *AuditLogHandler) ListHandler(c *gin.Context) {
	limit, err := httputil.ParseLimit(c, defaultListLimit, auditDomain.MaxEntries)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	events, err := h.auditLogUseCase.List(c.Request.Context(), limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditLogsToListResponse(events))
}

// ClearHandler empties the audit log. The clear itself is recorded afterwards.
// DELETE /v1/audit-logs - Admin only. Returns 204 No Content.
func (h *AuditLogHandler) ClearHandler(c *gin.Context) {
	if err := h.auditLogUseCase.Clear(c.Request.Context(), auditDomain.SourceAdmin); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// VerifyHandler checks the signature of every stored event.
// GET /v1/audit-logs/verify - Admin only.
func (h *AuditLogHandler) VerifyHandler(c *gin.Context) {
	result, err := h.auditLogUseCase.Verify(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVerifyResult(result))
}
