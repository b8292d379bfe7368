// SPDX-License-Identifier: MPL-2.0

// Package telemetry traces pipeline runs with OpenTelemetry. Every run is a
// span and every module phase a child span. Traces are exported over OTLP/gRPC
// when the standard OTEL_EXPORTER_OTLP_* variables name an endpoint.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/gluepipe/gluepipe/internal/pipeline"
)

const instrumentationName = "github.com/gluepipe/gluepipe/internal/pipeline"

// Attribute keys.
const (
	AttrModule = attribute.Key("gluepipe.module")
	AttrPhase  = attribute.Key("gluepipe.phase")
	AttrRunID  = attribute.Key("gluepipe.run_id")
)

// Endpoint variables that enable export.
var endpointEnv = []string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"}

// Tracer creates spans for runs and module phases. It implements
// pipeline.Observer.
type Tracer struct {
	tracer trace.Tracer
}

var _ pipeline.Observer = (*Tracer)(nil)

// NewTracer traces through tp. A nil tp disables tracing.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(instrumentationName)}
}

// StartRun starts the span of one pipeline attempt.
func (t *Tracer) StartRun(ctx context.Context, runID string, attempt int) (context.Context, func(error)) {
	ctx, span := t.tracer.Start(ctx, "pipeline",
		trace.WithAttributes(AttrRunID.String(runID), attribute.Int("gluepipe.attempt", attempt)))
	return ctx, endSpan(span)
}

// ObservePhase starts a child span for one module phase.
func (t *Tracer) ObservePhase(ctx context.Context, module string, phase pipeline.Phase) (context.Context, func(error)) {
	ctx, span := t.tracer.Start(ctx, phase.String()+" "+module,
		trace.WithAttributes(AttrModule.String(module), AttrPhase.String(phase.String())))
	return ctx, endSpan(span)
}

func endSpan(span trace.Span) func(error) {
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// NewProvider returns an exporting tracer provider when getenv names an OTLP
// endpoint, and nil otherwise. The caller must shut the provider down.
func NewProvider(ctx context.Context, getenv func(string) string, version string) (*sdktrace.TracerProvider, error) {
	enabled := false
	for _, key := range endpointEnv {
		enabled = enabled || getenv(key) != ""
	}
	if !enabled {
		return nil, nil
	}

	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot create OTLP exporter: %w", err)
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", "gluepipe"),
		attribute.String("service.version", version),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}
