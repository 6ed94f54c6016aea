// Package tracing is the time-bounded observer the dispatch loop reports
// per-request latencies to. It is independent of dispatch correctness: a
// nil or no-op Observer never affects matching, ordering, or deadlines.
//
// Follows the zjrosen-perles OpenTelemetry wiring convention: a
// TracerProvider built once at startup, span creation hidden behind a
// small Observer seam so callers never touch otel types directly.
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observer records dispatch-loop events. RequestStarted returns a handle to
// close once the dispatch loop has handled the command; the manager ends it
// with the outcome "dispatched", "queued", "expired" or "idle".
type Observer interface {
	RequestStarted(ctx context.Context, op string) RequestSpan
}

// RequestSpan is closed exactly once per observed request.
type RequestSpan interface {
	End(outcome string)
}

// noopObserver satisfies Observer without recording anything; used when no
// tracer is configured.
type noopObserver struct{}

func (noopObserver) RequestStarted(context.Context, string) RequestSpan { return noopSpan{} }

type noopSpan struct{}

func (noopSpan) End(string) {}

// Noop is the zero-cost Observer.
var Noop Observer = noopObserver{}

// otelObserver records a span per request, tagging latency and outcome.
type otelObserver struct {
	tracer trace.Tracer
}

// NewOTelObserver wraps an OpenTelemetry TracerProvider's tracer for pool
// name into an Observer.
func NewOTelObserver(tp trace.TracerProvider, pool string) Observer {
	return &otelObserver{tracer: tp.Tracer("workerpool/" + pool)}
}

func (o *otelObserver) RequestStarted(ctx context.Context, op string) RequestSpan {
	_, span := o.tracer.Start(ctx, op)
	return &otelSpan{span: span, start: time.Now()}
}

type otelSpan struct {
	span  trace.Span
	start time.Time
}

func (s *otelSpan) End(outcome string) {
	s.span.AddEvent(outcome)
	s.span.End()
}

// Exporter config for the demo CLI: either stdout (local/dev) or an OTLP
// gRPC collector endpoint.
type ExporterKind int

const (
	ExporterStdout ExporterKind = iota
	ExporterOTLPGRPC
)

// NewTracerProvider builds an SDK TracerProvider for the given pool/service
// name, exporting spans via kind. Caller must call Shutdown on the result.
func NewTracerProvider(ctx context.Context, kind ExporterKind, endpoint, service string) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch kind {
	case ExporterOTLPGRPC:
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	default:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return nil, err
	}
	res := resource.NewSchemaless(attribute.String("service.name", service))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}
