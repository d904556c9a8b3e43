package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// SpanMeta describes a span to start.
type SpanMeta struct {
	Name       string
	Kind       trace.SpanKind
	Attributes []attribute.KeyValue
}

// ToolSpan returns the span metadata for an MCP tool invocation.
// Span name: tool.<name>
func ToolSpan(name string) SpanMeta {
	return SpanMeta{
		Name:       "tool." + name,
		Kind:       trace.SpanKindServer,
		Attributes: []attribute.KeyValue{attribute.String("tool.name", name)},
	}
}

// UpstreamSpan returns the span metadata for a request to the search engine.
// Span name: searxng.<op>
func UpstreamSpan(op string, attrs ...attribute.KeyValue) SpanMeta {
	return SpanMeta{
		Name:       "searxng." + op,
		Kind:       trace.SpanKindClient,
		Attributes: attrs,
	}
}

// Tracer wraps OpenTelemetry span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan is best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span described by meta.
	StartSpan(ctx context.Context, meta SpanMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording err when non-nil.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta SpanMeta) (context.Context, trace.Span) {
	kind := meta.Kind
	if kind == trace.SpanKindUnspecified {
		kind = trace.SpanKindInternal
	}
	return t.tracer.Start(ctx, meta.Name,
		trace.WithAttributes(meta.Attributes...),
		trace.WithSpanKind(kind),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopTracer returns a tracer whose spans record nothing.
func NopTracer() Tracer {
	return NewTracer(tracenoop.NewTracerProvider().Tracer("noop"))
}
