package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels shared by every domain. Domains with finer failure codes (the
// envelope cause codes) report those instead of OutcomeError.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// BusinessMetrics records key-lifecycle and envelope operations.
type BusinessMetrics interface {
	// ObserveOperation counts one operation and records how long it took.
	// outcome must come from a bounded set to keep label cardinality low.
	ObserveOperation(ctx context.Context, domain, operation, outcome string, elapsed time.Duration)
}

// Outcome maps err to OutcomeSuccess or OutcomeError.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

type businessMetrics struct {
	operations metric.Int64Counter
	durations  metric.Float64Histogram
}

// NewBusinessMetrics creates <namespace>_operations_total and
// <namespace>_operation_duration_seconds.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operations, opErr := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Key lifecycle and envelope operations by outcome"),
		metric.WithUnit("{operation}"),
	)
	durations, durErr := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of key lifecycle and envelope operations"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5),
	)
	if err := errors.Join(opErr, durErr); err != nil {
		return nil, fmt.Errorf("failed to create business instruments: %w", err)
	}

	return &businessMetrics{operations: operations, durations: durations}, nil
}

func (b *businessMetrics) ObserveOperation(
	ctx context.Context,
	domain, operation, outcome string,
	elapsed time.Duration,
) {
	attrs := metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	b.operations.Add(ctx, 1, attrs)
	b.durations.Record(ctx, elapsed.Seconds(), attrs)
}

// NoOpBusinessMetrics is used when METRICS_ENABLED is false.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

// ObserveOperation does nothing.
func (n *NoOpBusinessMetrics) ObserveOperation(context.Context, string, string, string, time.Duration) {}
