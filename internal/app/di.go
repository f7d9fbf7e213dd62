// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	auditHTTP "github.com/allisson/envelope/internal/audit/http"
	auditService "github.com/allisson/envelope/internal/audit/service"
	auditUseCase "github.com/allisson/envelope/internal/audit/usecase"
	authService "github.com/allisson/envelope/internal/auth/service"
	"github.com/allisson/envelope/internal/config"
	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	cryptoHTTP "github.com/allisson/envelope/internal/crypto/http"
	cryptoRepository "github.com/allisson/envelope/internal/crypto/repository"
	cryptoService "github.com/allisson/envelope/internal/crypto/service"
	cryptoUseCase "github.com/allisson/envelope/internal/crypto/usecase"
	"github.com/allisson/envelope/internal/database"
	envelopeHTTP "github.com/allisson/envelope/internal/envelope/http"
	envelopeUseCase "github.com/allisson/envelope/internal/envelope/usecase"
	apperrors "github.com/allisson/envelope/internal/errors"
	"github.com/allisson/envelope/internal/http"
	"github.com/allisson/envelope/internal/metrics"
	rotationHTTP "github.com/allisson/envelope/internal/rotation/http"
	rotationService "github.com/allisson/envelope/internal/rotation/service"
	rotationUseCase "github.com/allisson/envelope/internal/rotation/usecase"
	"github.com/allisson/envelope/internal/storage"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// ctx scopes background work started by components; Shutdown cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	store           storage.Store
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Crypto
	kek           *cryptoDomain.Kek
	kekWarnings   []string
	kekErr        error
	aeadManager   cryptoService.AEADManager
	cipherService *cryptoService.CipherService
	keyManager    cryptoService.KeyManager
	kmsService    cryptoService.KMSService
	kekLoader     *cryptoService.KekLoaderService
	dekRepository cryptoUseCase.DekStoreRepository
	dekUseCase    cryptoUseCase.DekUseCase
	dekHandler    *cryptoHTTP.DekHandler

	// Audit
	auditLogRepository auditUseCase.AuditLogRepository
	eventSigner        auditService.EventSigner
	auditLogUseCase    auditUseCase.AuditLogUseCase
	auditLogHandler    *auditHTTP.AuditLogHandler

	// Envelope
	envelopeUseCase envelopeUseCase.EnvelopeUseCase
	envelopeHandler *envelopeHTTP.EnvelopeHandler

	// Rotation
	settingsStore   *rotationService.YAMLSettingsStore
	scheduler       rotationUseCase.Scheduler
	settingsUseCase rotationUseCase.SettingsUseCase
	settingsHandler *rotationHTTP.SettingsHandler

	// Auth
	tokenService authService.TokenService

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                     sync.Mutex
	loggerInit             sync.Once
	dbInit                 sync.Once
	storeInit              sync.Once
	metricsProviderInit    sync.Once
	businessMetricsInit    sync.Once
	kekInit                sync.Once
	aeadManagerInit        sync.Once
	cipherServiceInit      sync.Once
	keyManagerInit         sync.Once
	kmsServiceInit         sync.Once
	kekLoaderInit          sync.Once
	dekRepositoryInit      sync.Once
	dekUseCaseInit         sync.Once
	dekHandlerInit         sync.Once
	auditLogRepositoryInit sync.Once
	eventSignerInit        sync.Once
	auditLogUseCaseInit    sync.Once
	auditLogHandlerInit    sync.Once
	envelopeUseCaseInit    sync.Once
	envelopeHandlerInit    sync.Once
	settingsStoreInit      sync.Once
	schedulerInit          sync.Once
	settingsUseCaseInit    sync.Once
	settingsHandlerInit    sync.Once
	tokenServiceInit       sync.Once
	httpServerInit         sync.Once
	metricsServerInit      sync.Once
	initErrors             map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		config:     cfg,
		ctx:        ctx,
		cancel:     cancel,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection used by the SQL storage backends.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.setInitError("db", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("db"); storedErr != nil {
		return nil, storedErr
	}
	return c.db, nil
}

// Store returns the storage backend selected by STORAGE_DRIVER.
func (c *Container) Store() (storage.Store, error) {
	var err error
	c.storeInit.Do(func() {
		c.store, err = c.initStore()
		if err != nil {
			c.setInitError("store", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("store"); storedErr != nil {
		return nil, storedErr
	}
	return c.store, nil
}

// MetricsProvider returns the Prometheus metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.setInitError("metricsProvider", fmt.Errorf("failed to create metrics provider: %w", err))
		}
	})
	if storedErr := c.initError("metricsProvider"); storedErr != nil {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. It is a no-op when metrics are
// disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.setInitError("businessMetrics", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("businessMetrics"); storedErr != nil {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// TokenService returns the admin token service.
func (c *Container) TokenService() authService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = authService.NewTokenService()
	})
	return c.tokenService
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.setInitError("httpServer", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("httpServer"); storedErr != nil {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.setInitError("metricsServer", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("metricsServer"); storedErr != nil {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// SQL stores share the *sql.DB closed below.
	if c.store != nil && c.db == nil {
		if err := c.store.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("storage close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if c.kek != nil {
		c.kek.Close()
	}

	return errors.Join(shutdownErrors...)
}

func (c *Container) setInitError(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initErrors[name] = err
}

func (c *Container) initError(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[name]
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Open(context.Background(), database.Config{
		StorageDriver:      c.config.StorageDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initStore selects the storage backend.
func (c *Container) initStore() (storage.Store, error) {
	switch c.config.StorageDriver {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "badger":
		store, err := storage.NewBadgerStore(storage.BadgerConfig{
			Dir:        c.config.BadgerDir,
			InMemory:   c.config.BadgerInMemory,
			SyncWrites: c.config.BadgerSyncWrites,
		}, c.Logger())
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		return store, nil
	case "postgres", "mysql":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for storage: %w", err)
		}
		if c.config.StorageDriver == "mysql" {
			return storage.NewMySQLStore(db), nil
		}
		return storage.NewPostgreSQLStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", c.config.StorageDriver)
	}
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	envelopeHandler, err := c.EnvelopeHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope handler for http server: %w", err)
	}

	dekHandler, err := c.DekHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get dek handler for http server: %w", err)
	}

	auditLogHandler, err := c.AuditLogHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log handler for http server: %w", err)
	}

	settingsHandler, err := c.SettingsHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings handler for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(c.readinessChecks(), c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(c.ctx, c.config, http.Handlers{
		Envelope: envelopeHandler,
		Dek:      dekHandler,
		AuditLog: auditLogHandler,
		Settings: settingsHandler,
	}, c.TokenService(), metricsProvider)

	return server, nil
}

func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}

// readinessChecks reports the storage backend and the KEK. A missing KEK keeps the
// process alive for diagnostics but not ready for traffic.
func (c *Container) readinessChecks() map[string]http.ReadinessCheck {
	return map[string]http.ReadinessCheck{
		"storage": func(ctx context.Context) error {
			store, err := c.Store()
			if err != nil {
				return err
			}
			if _, err := store.Get(ctx, cryptoRepository.DekStoreKey); err != nil && !apperrors.Is(err, storage.ErrKeyNotFound) {
				return err
			}
			return nil
		},
		"kek": func(ctx context.Context) error {
			_, err := c.Kek()
			return err
		},
	}
}
