package app

import (
	"context"
	"fmt"
	"log/slog"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	cryptoHTTP "github.com/allisson/envelope/internal/crypto/http"
	cryptoRepository "github.com/allisson/envelope/internal/crypto/repository"
	cryptoService "github.com/allisson/envelope/internal/crypto/service"
	cryptoUseCase "github.com/allisson/envelope/internal/crypto/usecase"
)

// Kek returns the KEK loaded from configuration. When loading fails the error is
// returned on every call and the DEK use case runs degraded.
func (c *Container) Kek() (*cryptoDomain.Kek, error) {
	c.kekInit.Do(func() {
		c.kek, c.kekWarnings, c.kekErr = c.KekLoader().Load(c.ctx, c.config.KEK, c.config.KEKKMSKeyURI)
	})
	return c.kek, c.kekErr
}

// ReportKekStatus logs and audits the outcome of KEK loading. Call it once at startup,
// after the audit log is available.
func (c *Container) ReportKekStatus(ctx context.Context) {
	logger := c.Logger()
	kek, err := c.Kek()

	auditLog, auditErr := c.AuditLogUseCase()
	if auditErr != nil {
		logger.Error("audit log unavailable", slog.Any("error", auditErr))
	}

	if err != nil {
		logger.Error("kek unavailable, every key operation will fail", slog.Any("error", err))
		if auditLog != nil {
			auditLog.Log(ctx, auditDomain.ActionDekCritical, auditDomain.SourceSystem, auditDomain.TargetDek,
				map[string]string{"reason": "kek_unavailable"})
		}
		return
	}

	for _, warning := range c.kekWarnings {
		logger.Warn("kek warning", slog.String("warning", warning))
		if auditLog != nil {
			auditLog.Log(ctx, auditDomain.ActionDekWarning, auditDomain.SourceSystem, auditDomain.TargetDek,
				map[string]string{"message": warning})
		}
	}

	logger.Info("kek loaded",
		slog.String("encoding", string(kek.Encoding)),
		slog.Bool("derived", kek.Derived),
	)
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// CipherService returns the data encryption primitive.
func (c *Container) CipherService() *cryptoService.CipherService {
	c.cipherServiceInit.Do(func() {
		c.cipherService = cryptoService.NewCipherService(c.AEADManager(), nil)
	})
	return c.cipherService
}

// KeyManager returns the key manager service.
func (c *Container) KeyManager() cryptoService.KeyManager {
	c.keyManagerInit.Do(func() {
		c.keyManager = cryptoService.NewKeyManager(c.CipherService())
	})
	return c.keyManager
}

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// KekLoader returns the KEK loader.
func (c *Container) KekLoader() *cryptoService.KekLoaderService {
	c.kekLoaderInit.Do(func() {
		c.kekLoader = cryptoService.NewKekLoader(c.KMSService())
	})
	return c.kekLoader
}

// DekStoreRepository returns the DEK store repository.
func (c *Container) DekStoreRepository() (cryptoUseCase.DekStoreRepository, error) {
	var err error
	c.dekRepositoryInit.Do(func() {
		c.dekRepository, err = c.initDekStoreRepository()
		if err != nil {
			c.setInitError("dekRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("dekRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.dekRepository, nil
}

// DekUseCase returns the DEK use case decorated with business metrics.
func (c *Container) DekUseCase() (cryptoUseCase.DekUseCase, error) {
	var err error
	c.dekUseCaseInit.Do(func() {
		c.dekUseCase, err = c.initDekUseCase()
		if err != nil {
			c.setInitError("dekUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("dekUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.dekUseCase, nil
}

// DekHandler returns the DEK admin HTTP handler.
func (c *Container) DekHandler() (*cryptoHTTP.DekHandler, error) {
	var err error
	c.dekHandlerInit.Do(func() {
		var dekUseCase cryptoUseCase.DekUseCase
		dekUseCase, err = c.DekUseCase()
		if err != nil {
			c.setInitError("dekHandler", fmt.Errorf("failed to get dek use case for dek handler: %w", err))
			return
		}
		c.dekHandler = cryptoHTTP.NewDekHandler(dekUseCase, c.Logger())
	})
	if storedErr := c.initError("dekHandler"); storedErr != nil {
		return nil, storedErr
	}
	return c.dekHandler, nil
}

func (c *Container) initDekStoreRepository() (cryptoUseCase.DekStoreRepository, error) {
	store, err := c.Store()
	if err != nil {
		return nil, fmt.Errorf("failed to get storage for dek repository: %w", err)
	}
	return cryptoRepository.NewKVDekStoreRepository(store), nil
}

func (c *Container) initDekUseCase() (cryptoUseCase.DekUseCase, error) {
	algorithm, err := cryptoDomain.ParseAlgorithm(c.config.DEKAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("invalid DEK_ALGORITHM %q: %w", c.config.DEKAlgorithm, err)
	}

	dekRepository, err := c.DekStoreRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get dek repository for dek use case: %w", err)
	}

	auditLog, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log for dek use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for dek use case: %w", err)
	}

	// A KEK load failure leaves kek nil and the use case degraded.
	kek, _ := c.Kek()

	useCase := cryptoUseCase.NewDekUseCase(
		kek,
		dekRepository,
		c.KeyManager(),
		auditLog,
		c.Logger(),
		cryptoUseCase.DekUseCaseConfig{
			Algorithm:  algorithm,
			MaxRetries: c.config.DEKStoreMaxRetries,
		},
	)

	return cryptoUseCase.NewDekUseCaseWithMetrics(useCase, businessMetrics), nil
}
