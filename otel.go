package normalizr

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// instrumentationName names the tracer and meter of this package.
const instrumentationName = "github.com/zero-day-ai/normalizr"

// normalizeMetrics holds the OpenTelemetry metric instruments of a Normalizer.
type normalizeMetrics struct {
	// count increments for each normalization, by schema and outcome
	count metric.Int64Counter

	// duration records normalization duration in milliseconds
	duration metric.Float64Histogram

	// entities records the number of records emitted per normalization
	entities metric.Int64Histogram
}

func newNormalizeMetrics(meter metric.Meter) (*normalizeMetrics, error) {
	m := &normalizeMetrics{}
	var err error

	m.count, err = meter.Int64Counter(
		"normalizr.normalize.count",
		metric.WithDescription("Number of normalizations performed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create count counter: %w", err)
	}

	m.duration, err = meter.Float64Histogram(
		"normalizr.normalize.duration",
		metric.WithDescription("Normalization duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	m.entities, err = meter.Int64Histogram(
		"normalizr.normalize.entities",
		metric.WithDescription("Number of entity records emitted per normalization"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create entities histogram: %w", err)
	}

	return m, nil
}

// record is called once per normalization. kind is "" on success.
func (m *normalizeMetrics) record(ctx context.Context, schemaName, kind string, elapsed time.Duration, entities int) {
	outcome := "ok"
	if kind != "" {
		outcome = kind
	}

	opts := metric.WithAttributes(
		attribute.String("schema", schemaName),
		attribute.String("outcome", outcome),
	)

	m.count.Add(ctx, 1, opts)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, opts)
	if kind == "" {
		m.entities.Record(ctx, int64(entities), metric.WithAttributes(attribute.String("schema", schemaName)))
	}
}
