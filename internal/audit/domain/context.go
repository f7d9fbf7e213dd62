package domain

import "context"

type sourceKey struct{}

// WithSource returns a context that attributes audit events to source.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFromContext returns the source stored by WithSource, or fallback.
func SourceFromContext(ctx context.Context, fallback string) string {
	if source, ok := ctx.Value(sourceKey{}).(string); ok && source != "" {
		return source
	}
	return fallback
}
