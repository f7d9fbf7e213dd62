package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/envelope/internal/app"
	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	"github.com/allisson/envelope/internal/config"
	cryptoUseCase "github.com/allisson/envelope/internal/crypto/usecase"
	"github.com/allisson/envelope/internal/http"
)

const shutdownTimeout = 15 * time.Second

// RunServer starts the HTTP API, the metrics server, the DEK rotation scheduler and
// the settings file watcher, and blocks until SIGINT/SIGTERM or a fatal error.
//
// A missing or invalid KEK does not stop the server: it starts degraded, reports the
// problem in the audit log and fails encryption requests until restarted with a
// usable KEK.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	defer closeContainer(container, logger)

	container.ReportKekStatus(ctx)

	dekUseCase, err := container.DekUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize dek use case: %w", err)
	}
	ensureActiveDek(ctx, dekUseCase, logger)

	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	scheduler, err := container.Scheduler()
	if err != nil {
		return fmt.Errorf("failed to initialize rotation scheduler: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(gctx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.Start(gctx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	if scheduler != nil {
		settingsUseCase, err := container.SettingsUseCase()
		if err != nil {
			return fmt.Errorf("failed to initialize settings use case: %w", err)
		}

		watcher, err := container.NewSettingsWatcher()
		if err != nil {
			return fmt.Errorf("failed to initialize settings watcher: %w", err)
		}

		g.Go(func() error {
			if err := scheduler.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("rotation scheduler error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			return watcher.Run(gctx, settingsUseCase.Reload)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		return shutdownServers(server, metricsServer)
	})

	return g.Wait()
}

// ensureActiveDek generates the first DEK at start-up so that the first encryption
// request does not pay for it. Failures leave the server running degraded.
func ensureActiveDek(ctx context.Context, dekUseCase cryptoUseCase.DekUseCase, logger *slog.Logger) {
	dek, err := dekUseCase.GetActiveDek(auditDomain.WithSource(ctx, auditDomain.SourceSystem))
	if err != nil {
		logger.Warn("no active dek available, encryption is disabled", slog.Any("error", err))
		return
	}
	dek.Zero()
}

func shutdownServers(server *http.Server, metricsServer *http.MetricsServer) error {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var shutdownErrors []error

	if err := server.Shutdown(shutdownCtx); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}
