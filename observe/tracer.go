package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// InvocationMeta identifies a policy-guarded invocation for telemetry.
type InvocationMeta struct {
	Unit  string // wrapped unit name (required)
	Chain string // optional chain label, e.g. "checkout-pipeline"
}

// SpanName returns the deterministic span name for this invocation.
// Format: policy.invoke.<chain>.<unit> or policy.invoke.<unit>
func (m InvocationMeta) SpanName() string {
	if m.Chain != "" {
		return "policy.invoke." + m.Chain + "." + m.Unit
	}
	return "policy.invoke." + m.Unit
}

// Tracer wraps OpenTelemetry tracing with invocation-scoped span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a policy-guarded invocation.
	StartSpan(ctx context.Context, meta InvocationMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with invocation metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta InvocationMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("policy.unit", meta.Unit),
		attribute.Bool("policy.error", false), // Updated in EndSpan on error
	}
	if meta.Chain != "" {
		attrs = append(attrs, attribute.String("policy.chain", meta.Chain))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("policy.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta InvocationMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
