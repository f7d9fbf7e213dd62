// Package http provides HTTP handlers for DEK administration.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	"github.com/allisson/envelope/internal/crypto/http/dto"
	cryptoUseCase "github.com/allisson/envelope/internal/crypto/usecase"
	"github.com/allisson/envelope/internal/httputil"
	customValidation "github.com/allisson/envelope/internal/validation"
)

// DekHandler handles HTTP requests for DEK rotation, listing and pruning.
type DekHandler struct {
	dekUseCase cryptoUseCase.DekUseCase
	logger     *slog.Logger
}

// NewDekHandler creates a new DEK handler.
func NewDekHandler(dekUseCase cryptoUseCase.DekUseCase, logger *slog.Logger) *DekHandler {
	return &DekHandler{
		dekUseCase: dekUseCase,
		logger:     logger,
	}
}

// RotateHandler generates a new active DEK.
// POST /v1/deks/rotate - Admin only.
func (h *DekHandler) RotateHandler(c *gin.Context) {
	ctx := auditDomain.WithSource(c.Request.Context(), auditDomain.SourceAdmin)

	if _, err := h.dekUseCase.Rotate(ctx); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.RotateDekResponse{Rotated: true})
}

// ListHandler lists DEK metadata, oldest first.
// GET /v1/deks - Admin only.
func (h *DekHandler) ListHandler(c *gin.Context) {
	infos, err := h.dekUseCase.ListDeks(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDekInfosToListResponse(infos))
}

// PruneHandler removes inactive DEKs older than max_age_days.
// POST /v1/deks/prune - Admin only. Requires confirm unless dry_run is set.
func (h *DekHandler) PruneHandler(c *gin.Context) {
	var req dto.PruneDeksRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ctx := auditDomain.WithSource(c.Request.Context(), auditDomain.SourceAdmin)
	maxAge := time.Duration(req.MaxAgeDays) * 24 * time.Hour

	ids, err := h.dekUseCase.Prune(ctx, maxAge, req.RetainFunc(), req.DryRun)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPruneResult(ids, req.DryRun))
}
