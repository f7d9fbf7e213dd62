// Package http provides HTTP handlers for string envelope encryption.
package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	"github.com/allisson/envelope/internal/envelope/http/dto"
	envelopeUseCase "github.com/allisson/envelope/internal/envelope/usecase"
	"github.com/allisson/envelope/internal/httputil"
	customValidation "github.com/allisson/envelope/internal/validation"
)

// EnvelopeHandler handles HTTP requests for envelope encryption and decryption.
type EnvelopeHandler struct {
	envelopeUseCase envelopeUseCase.EnvelopeUseCase
	logger          *slog.Logger
}

// NewEnvelopeHandler creates a new envelope handler.
func NewEnvelopeHandler(envelopeUseCase envelopeUseCase.EnvelopeUseCase, logger *slog.Logger) *EnvelopeHandler {
	return &EnvelopeHandler{
		envelopeUseCase: envelopeUseCase,
		logger:          logger,
	}
}

// EncryptHandler encrypts a base64 plaintext with the active DEK.
// POST /v1/encrypt
// Returns 200 OK with the envelope string.
func (h *EnvelopeHandler) EncryptHandler(c *gin.Context) {
	var req dto.EncryptRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	plaintext, err := base64.StdEncoding.DecodeString(req.Plaintext)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 plaintext: %w", err), h.logger)
		return
	}
	defer cryptoDomain.Zero(plaintext)

	envelope, err := h.envelopeUseCase.EncryptString(c.Request.Context(), plaintext, sourceOf(req.Source))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.EncryptResponse{Ciphertext: envelope})
}

// DecryptHandler decrypts an envelope string. With passthrough, input that is not an
// envelope is returned unchanged.
// POST /v1/decrypt
// Returns 200 OK with the base64 plaintext.
func (h *EnvelopeHandler) DecryptHandler(c *gin.Context) {
	var req dto.DecryptRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	decrypt := h.envelopeUseCase.DecryptString
	if req.Passthrough {
		decrypt = h.envelopeUseCase.DecryptStringOrPassthrough
	}

	plaintext, err := decrypt(c.Request.Context(), req.Ciphertext, sourceOf(req.Source))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer cryptoDomain.Zero(plaintext)

	c.JSON(http.StatusOK, dto.DecryptResponse{Plaintext: plaintext})
}

func sourceOf(source string) string {
	if source == "" {
		return auditDomain.SourceAPI
	}
	return source
}
