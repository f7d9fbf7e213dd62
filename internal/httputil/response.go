// Package httputil writes the JSON error bodies shared by every handler.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/envelope/internal/errors"
)

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type errorMapping struct {
	status int
	code   string
	// message is returned instead of err.Error(); empty means the error text is
	// safe to show because it only describes caller input.
	message string
}

var errorMappings = map[error]errorMapping{
	apperrors.ErrNotFound:     {http.StatusNotFound, "not_found", "The requested resource was not found"},
	apperrors.ErrConflict:     {http.StatusConflict, "conflict", "A concurrent update conflicted, retry the request"},
	apperrors.ErrInvalidInput: {http.StatusUnprocessableEntity, "invalid_input", ""},
	apperrors.ErrUnauthorized: {http.StatusUnauthorized, "unauthorized", "Authentication is required"},
	apperrors.ErrForbidden:    {http.StatusForbidden, "forbidden", "You don't have permission to access this resource"},
	apperrors.ErrUnavailable:  {http.StatusServiceUnavailable, "unavailable", "The service is temporarily unavailable"},
	apperrors.ErrInternal:     {http.StatusInternalServerError, "internal_error", "An internal error occurred"},
}

// HandleErrorGin maps err's kind to a status code and writes a JSON response.
// Server-side failures are logged at error level and client failures at warn; only
// invalid input echoes the error text back.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	mapping := errorMappings[apperrors.KindOf(err)]
	response := ErrorResponse{Error: mapping.code, Message: mapping.message}
	if response.Message == "" {
		response.Message = err.Error()
	}

	if logger != nil {
		level := slog.LevelWarn
		if mapping.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(c, level, "request failed",
			slog.Int("status_code", mapping.status),
			slog.String("error_code", mapping.code),
			slog.Any("error", err),
		)
	}

	c.JSON(mapping.status, response)
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed JSON or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	})
}

// HandleValidationErrorGin writes a 422 Unprocessable Entity response for validation errors.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}
