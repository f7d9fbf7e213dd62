// Package http provides the admin authentication and rate limiting middleware.
package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authService "github.com/allisson/envelope/internal/auth/service"
	apperrors "github.com/allisson/envelope/internal/errors"
	"github.com/allisson/envelope/internal/httputil"
)

// AdminAuthMiddleware guards admin endpoints with a Bearer token checked against the
// configured Argon2id hash.
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer")
//
// Error handling:
//   - No admin token hash configured → 403 Forbidden (admin endpoints disabled)
//   - Missing or malformed Authorization header → 401 Unauthorized
//   - Token does not match the hash → 401 Unauthorized
func AdminAuthMiddleware(
	tokenHash string,
	tokenService authService.TokenService,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenHash == "" {
			logger.Debug("admin endpoint rejected: no admin token configured")
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Parse Bearer token (case-insensitive)
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		plainToken := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if !tokenService.CompareToken(plainToken, tokenHash) {
			logger.Debug("authentication failed: invalid admin token",
				slog.String("client_ip", c.ClientIP()))
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
