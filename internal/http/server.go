// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditHTTP "github.com/allisson/envelope/internal/audit/http"
	authHTTP "github.com/allisson/envelope/internal/auth/http"
	authService "github.com/allisson/envelope/internal/auth/service"
	"github.com/allisson/envelope/internal/config"
	cryptoHTTP "github.com/allisson/envelope/internal/crypto/http"
	envelopeHTTP "github.com/allisson/envelope/internal/envelope/http"
	"github.com/allisson/envelope/internal/metrics"
	rotationHTTP "github.com/allisson/envelope/internal/rotation/http"
)

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

// Handlers groups the domain handlers mounted by the router.
type Handlers struct {
	Envelope *envelopeHTTP.EnvelopeHandler
	Dek      *cryptoHTTP.DekHandler
	AuditLog *auditHTTP.AuditLogHandler
	Settings *rotationHTTP.SettingsHandler
}

// Server is the API server.
type Server struct {
	listener
	router *gin.Engine
	checks map[string]ReadinessCheck
}

// NewServer creates a new HTTP server. checks are run by the readiness endpoint, keyed
// by component name.
func NewServer(
	checks map[string]ReadinessCheck,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		listener: newListener("http server", host, port, 60*time.Second, logger),
		checks:   checks,
	}
}

// SetupRouter builds the gin engine with the middleware chain and every route.
// Background work started by the middleware stops when ctx is done.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	handlers Handlers,
	tokenService authService.TokenService,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if cors := corsMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); cors != nil {
		router.Use(cors)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	v1.Use(OperationTimeoutMiddleware(cfg.OperationTimeout))
	if cfg.RateLimitEnabled {
		v1.Use(authHTTP.RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	adminAuth := authHTTP.AdminAuthMiddleware(cfg.AdminTokenHash, tokenService, s.logger)

	if handlers.Envelope != nil {
		v1.POST("/encrypt", handlers.Envelope.EncryptHandler)
		v1.POST("/decrypt", handlers.Envelope.DecryptHandler)
	}

	if handlers.Dek != nil {
		deks := v1.Group("/deks", adminAuth)
		deks.GET("", handlers.Dek.ListHandler)
		deks.POST("/rotate", handlers.Dek.RotateHandler)
		deks.POST("/prune", handlers.Dek.PruneHandler)
	}

	if handlers.AuditLog != nil {
		auditLogs := v1.Group("/audit-logs", adminAuth)
		auditLogs.GET("", handlers.AuditLog.ListHandler)
		auditLogs.DELETE("", handlers.AuditLog.ClearHandler)
		auditLogs.GET("/verify", handlers.AuditLog.VerifyHandler)
	}

	if handlers.Settings != nil {
		v1.GET("/settings", handlers.Settings.GetHandler)
		v1.PUT("/settings", adminAuth, handlers.Settings.UpdateHandler)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves the API until Shutdown is called. SetupRouter must run first.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	return s.serve(s.router)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler runs every readiness check with a short deadline.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ready := true
	components := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("readiness check failed",
				slog.String("component", name),
				slog.Any("error", err))
			components[name] = "error"
			ready = false
			continue
		}
		components[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
