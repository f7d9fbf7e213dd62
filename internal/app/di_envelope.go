package app

import (
	"fmt"

	envelopeHTTP "github.com/allisson/envelope/internal/envelope/http"
	envelopeUseCase "github.com/allisson/envelope/internal/envelope/usecase"
)

// EnvelopeUseCase returns the envelope codec decorated with business metrics.
func (c *Container) EnvelopeUseCase() (envelopeUseCase.EnvelopeUseCase, error) {
	var err error
	c.envelopeUseCaseInit.Do(func() {
		c.envelopeUseCase, err = c.initEnvelopeUseCase()
		if err != nil {
			c.setInitError("envelopeUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("envelopeUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.envelopeUseCase, nil
}

// EnvelopeHandler returns the envelope HTTP handler.
func (c *Container) EnvelopeHandler() (*envelopeHTTP.EnvelopeHandler, error) {
	var err error
	c.envelopeHandlerInit.Do(func() {
		var useCase envelopeUseCase.EnvelopeUseCase
		useCase, err = c.EnvelopeUseCase()
		if err != nil {
			c.setInitError("envelopeHandler", fmt.Errorf("failed to get envelope use case for handler: %w", err))
			return
		}
		c.envelopeHandler = envelopeHTTP.NewEnvelopeHandler(useCase, c.Logger())
	})
	if storedErr := c.initError("envelopeHandler"); storedErr != nil {
		return nil, storedErr
	}
	return c.envelopeHandler, nil
}

func (c *Container) initEnvelopeUseCase() (envelopeUseCase.EnvelopeUseCase, error) {
	dekUseCase, err := c.DekUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get dek use case for envelope use case: %w", err)
	}

	auditLog, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log for envelope use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for envelope use case: %w", err)
	}

	useCase := envelopeUseCase.NewEnvelopeUseCase(dekUseCase, c.CipherService(), auditLog, c.Logger())
	return envelopeUseCase.NewEnvelopeUseCaseWithMetrics(useCase, businessMetrics), nil
}
