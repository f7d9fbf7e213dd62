package usecase

import (
	"context"
	"time"

	envelopeDomain "github.com/allisson/envelope/internal/envelope/domain"
	"github.com/allisson/envelope/internal/metrics"
)

// envelopeUseCaseWithMetrics decorates EnvelopeUseCase with metrics instrumentation.
type envelopeUseCaseWithMetrics struct {
	next    EnvelopeUseCase
	metrics metrics.BusinessMetrics
}

// NewEnvelopeUseCaseWithMetrics wraps an EnvelopeUseCase with metrics recording.
func NewEnvelopeUseCaseWithMetrics(useCase EnvelopeUseCase, m metrics.BusinessMetrics) EnvelopeUseCase {
	return &envelopeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// record labels failures with their audit cause code, a small fixed set.
func (e *envelopeUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = envelopeDomain.CauseCode(err)
	}
	e.metrics.ObserveOperation(ctx, "envelope", operation, outcome, time.Since(start))
}

// EncryptString records metrics for string encryption.
func (e *envelopeUseCaseWithMetrics) EncryptString(
	ctx context.Context,
	plaintext []byte,
	source string,
) (string, error) {
	start := time.Now()
	envelope, err := e.next.EncryptString(ctx, plaintext, source)
	e.record(ctx, "encrypt_string", start, err)
	return envelope, err
}

// DecryptString records metrics for string decryption.
func (e *envelopeUseCaseWithMetrics) DecryptString(
	ctx context.Context,
	envelope string,
	source string,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := e.next.DecryptString(ctx, envelope, source)
	e.record(ctx, "decrypt_string", start, err)
	return plaintext, err
}

// DecryptStringOrPassthrough records metrics for lenient string decryption.
func (e *envelopeUseCaseWithMetrics) DecryptStringOrPassthrough(
	ctx context.Context,
	value string,
	source string,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := e.next.DecryptStringOrPassthrough(ctx, value, source)
	e.record(ctx, "decrypt_string_passthrough", start, err)
	return plaintext, err
}

// EncryptFile records metrics for file encryption.
func (e *envelopeUseCaseWithMetrics) EncryptFile(ctx context.Context, srcPath, dstPath, source string) error {
	start := time.Now()
	err := e.next.EncryptFile(ctx, srcPath, dstPath, source)
	e.record(ctx, "encrypt_file", start, err)
	return err
}

// DecryptFile records metrics for file decryption.
func (e *envelopeUseCaseWithMetrics) DecryptFile(ctx context.Context, srcPath, dstPath, source string) error {
	start := time.Now()
	err := e.next.DecryptFile(ctx, srcPath, dstPath, source)
	e.record(ctx, "decrypt_file", start, err)
	return err
}
