package normalizr

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/normalizr/schema"
)

// maxLineSize bounds a single line of NormalizeJSONLines input.
const maxLineSize = 16 << 20

// Normalizer runs normalizations with logging, tracing and metrics.
// It is safe for concurrent use.
type Normalizer struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *normalizeMetrics
}

// New creates a Normalizer.
func New(opts ...NormalizerOption) (*Normalizer, error) {
	cfg := &normalizerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(instrumentationName)
	}
	if cfg.meterProvider == nil {
		cfg.meterProvider = otel.GetMeterProvider()
	}

	metrics, err := newNormalizeMetrics(cfg.meterProvider.Meter(instrumentationName))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return &Normalizer{
		logger:  cfg.logger,
		tracer:  cfg.tracer,
		metrics: metrics,
	}, nil
}

// Normalize normalizes input with s. Failures are returned as *Error.
func (n *Normalizer) Normalize(ctx context.Context, s schema.Schema, input any) (*schema.Output, error) {
	return n.run(ctx, "Normalizer.Normalize", s, func() (*schema.Output, error) {
		return s.Normalize(input)
	})
}

// NormalizeMany normalizes a root list or keyed map of entities of s.
func (n *Normalizer) NormalizeMany(ctx context.Context, s *schema.EntitySchema, input any) (*schema.Output, error) {
	return n.run(ctx, "Normalizer.NormalizeMany", entitySchema(s), func() (*schema.Output, error) {
		return s.NormalizeMany(input)
	})
}

// NormalizeJSON decodes a JSON document and normalizes it with s. Numbers
// are decoded as json.Number, so ids keep their exact textual form.
func (n *Normalizer) NormalizeJSON(ctx context.Context, s schema.Schema, data []byte) (*schema.Output, error) {
	return n.run(ctx, "Normalizer.NormalizeJSON", s, func() (*schema.Output, error) {
		input, err := decodeJSON(data)
		if err != nil {
			return nil, err
		}
		return s.Normalize(input)
	})
}

// NormalizeJSONLines decodes newline-delimited JSON, one entity per
// non-blank line, and normalizes the entities as array values of s.
func (n *Normalizer) NormalizeJSONLines(ctx context.Context, s *schema.EntitySchema, data []byte) (*schema.Output, error) {
	return n.run(ctx, "Normalizer.NormalizeJSONLines", entitySchema(s), func() (*schema.Output, error) {
		items, err := decodeJSONLines(data)
		if err != nil {
			return nil, err
		}
		return schema.NewArrayValues(s).Normalize(items)
	})
}

// NormalizeYAML decodes a YAML document and normalizes it with s.
func (n *Normalizer) NormalizeYAML(ctx context.Context, s schema.Schema, data []byte) (*schema.Output, error) {
	return n.run(ctx, "Normalizer.NormalizeYAML", s, func() (*schema.Output, error) {
		input, err := decodeYAML(data)
		if err != nil {
			return nil, err
		}
		return s.Normalize(input)
	})
}

func (n *Normalizer) run(ctx context.Context, op string, s schema.Schema, fn func() (*schema.Output, error)) (*schema.Output, error) {
	if s == nil {
		return nil, &Error{Op: op, Kind: KindConfiguration, Err: fmt.Errorf("%w: nil schema", ErrInvalidReference)}
	}
	name := s.Name()

	ctx, span := n.tracer.Start(ctx, "normalizr.normalize", trace.WithAttributes(
		attribute.String("normalizr.op", op),
		attribute.String("normalizr.schema", name),
	))
	defer span.End()

	start := time.Now()
	out, err := n.call(ctx, fn)
	elapsed := time.Since(start)

	if err != nil {
		wrapped := newError(op, name, err)

		span.RecordError(err)
		span.SetStatus(codes.Error, wrapped.Kind)
		span.SetAttributes(attribute.String("normalizr.error_kind", wrapped.Kind))
		n.metrics.record(ctx, name, wrapped.Kind, elapsed, 0)

		n.logger.WarnContext(ctx, "normalization failed",
			"op", op,
			"schema", name,
			"kind", wrapped.Kind,
			"error", err)
		return nil, wrapped
	}

	count := out.Entities.Count()
	span.SetAttributes(
		attribute.Int("normalizr.entities", count),
		attribute.Int("normalizr.types", len(out.Entities)),
	)
	span.SetStatus(codes.Ok, "")
	n.metrics.record(ctx, name, "", elapsed, count)

	n.logger.DebugContext(ctx, "normalized",
		"op", op,
		"schema", name,
		"entities", count,
		"types", len(out.Entities),
		"duration", elapsed)
	return out, nil
}

// entitySchema keeps a nil *schema.EntitySchema a nil schema.Schema.
func entitySchema(s *schema.EntitySchema) schema.Schema {
	if s == nil {
		return nil
	}
	return s
}

// call runs fn unless ctx is already done.
func (n *Normalizer) call(ctx context.Context, fn func() (*schema.Output, error)) (*schema.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fn()
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrInvalidInput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: json: trailing data after document", ErrInvalidInput)
	}
	return v, nil
}

func decodeJSONLines(data []byte) ([]any, error) {
	items := []any{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		item, err := decodeJSON(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: error reading JSON lines: %v", ErrInvalidInput, err)
	}

	return items, nil
}

func decodeYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", ErrInvalidInput, err)
	}
	return stringKeys(v), nil
}

// stringKeys rewrites the map[any]any values yaml.v3 produces for
// mappings with non-string keys into map[string]any.
func stringKeys(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, item := range x {
			x[k] = stringKeys(item)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = stringKeys(item)
		}
		return out
	case []any:
		for i, item := range x {
			x[i] = stringKeys(item)
		}
		return x
	}
	return v
}
