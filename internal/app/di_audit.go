package app

import (
	"fmt"

	auditHTTP "github.com/allisson/envelope/internal/audit/http"
	auditRepository "github.com/allisson/envelope/internal/audit/repository"
	auditService "github.com/allisson/envelope/internal/audit/service"
	auditUseCase "github.com/allisson/envelope/internal/audit/usecase"
)

// AuditLogRepository returns the audit log repository.
func (c *Container) AuditLogRepository() (auditUseCase.AuditLogRepository, error) {
	var err error
	c.auditLogRepositoryInit.Do(func() {
		c.auditLogRepository, err = c.initAuditLogRepository()
		if err != nil {
			c.setInitError("auditLogRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("auditLogRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.auditLogRepository, nil
}

// EventSigner returns the audit event signer, or nil when no KEK is loaded. Unsigned
// events are still recorded.
func (c *Container) EventSigner() auditService.EventSigner {
	c.eventSignerInit.Do(func() {
		kek, err := c.Kek()
		if err != nil {
			return
		}
		signer, err := auditService.NewHMACEventSigner(kek)
		if err != nil {
			return
		}
		c.eventSigner = signer
	})
	return c.eventSigner
}

// AuditLogUseCase returns the audit log use case.
func (c *Container) AuditLogUseCase() (auditUseCase.AuditLogUseCase, error) {
	var err error
	c.auditLogUseCaseInit.Do(func() {
		c.auditLogUseCase, err = c.initAuditLogUseCase()
		if err != nil {
			c.setInitError("auditLogUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("auditLogUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.auditLogUseCase, nil
}

// AuditLogHandler returns the audit log HTTP handler.
func (c *Container) AuditLogHandler() (*auditHTTP.AuditLogHandler, error) {
	var err error
	c.auditLogHandlerInit.Do(func() {
		var auditLog auditUseCase.AuditLogUseCase
		auditLog, err = c.AuditLogUseCase()
		if err != nil {
			c.setInitError("auditLogHandler", fmt.Errorf("failed to get audit log use case for handler: %w", err))
			return
		}
		c.auditLogHandler = auditHTTP.NewAuditLogHandler(auditLog, c.Logger())
	})
	if storedErr := c.initError("auditLogHandler"); storedErr != nil {
		return nil, storedErr
	}
	return c.auditLogHandler, nil
}

func (c *Container) initAuditLogRepository() (auditUseCase.AuditLogRepository, error) {
	store, err := c.Store()
	if err != nil {
		return nil, fmt.Errorf("failed to get storage for audit log repository: %w", err)
	}
	return auditRepository.NewKVAuditLogRepository(store, c.config.DEKStoreMaxRetries), nil
}

func (c *Container) initAuditLogUseCase() (auditUseCase.AuditLogUseCase, error) {
	repo, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for audit log use case: %w", err)
	}
	return auditUseCase.NewAuditLogUseCase(repo, c.EventSigner(), c.Logger()), nil
}
