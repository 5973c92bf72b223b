package normalizr

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*normalizerConfig)

// normalizerConfig holds configuration for a Normalizer instance.
type normalizerConfig struct {
	logger        *slog.Logger
	tracer        trace.Tracer
	meterProvider metric.MeterProvider
}

// WithLogger sets a custom logger.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) NormalizerOption {
	return func(c *normalizerConfig) {
		c.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer. Every normalization is recorded
// as a span. If not provided, the global tracer provider is used.
func WithTracer(tracer trace.Tracer) NormalizerOption {
	return func(c *normalizerConfig) {
		c.tracer = tracer
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider used to create
// the normalization instruments. If not provided, the global meter
// provider is used.
func WithMeterProvider(mp metric.MeterProvider) NormalizerOption {
	return func(c *normalizerConfig) {
		c.meterProvider = mp
	}
}
