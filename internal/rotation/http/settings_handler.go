// Package http provides HTTP handlers for the DEK rotation settings.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	"github.com/allisson/envelope/internal/httputil"
	"github.com/allisson/envelope/internal/rotation/http/dto"
	rotationUseCase "github.com/allisson/envelope/internal/rotation/usecase"
	customValidation "github.com/allisson/envelope/internal/validation"
)

// SettingsHandler handles HTTP requests for rotation settings.
type SettingsHandler struct {
	settingsUseCase rotationUseCase.SettingsUseCase
	logger          *slog.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settingsUseCase rotationUseCase.SettingsUseCase, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsUseCase: settingsUseCase,
		logger:          logger,
	}
}

// GetHandler returns the current rotation settings.
// GET /v1/settings - Admin only.
func (h *SettingsHandler) GetHandler(c *gin.Context) {
	settings, err := h.settingsUseCase.Get(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSettingsToResponse(settings))
}

// UpdateHandler changes the rotation interval and reschedules rotation.
// PUT /v1/settings - Admin only.
func (h *SettingsHandler) UpdateHandler(c *gin.Context) {
	var req dto.UpdateSettingsRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	settings, err := h.settingsUseCase.Update(c.Request.Context(), req.RotationInterval, auditDomain.SourceAdmin)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSettingsToResponse(settings))
}
