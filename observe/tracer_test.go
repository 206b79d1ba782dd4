package observe

import (
	"context"
	"errors"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// TestInvocationMeta_SpanName verifies span name formats with and without a chain.
func TestInvocationMeta_SpanName(t *testing.T) {
	cases := []struct {
		meta InvocationMeta
		want string
	}{
		{InvocationMeta{Unit: "fetch"}, "policy.invoke.fetch"},
		{InvocationMeta{Unit: "fetch", Chain: "checkout"}, "policy.invoke.checkout.fetch"},
	}

	for _, c := range cases {
		if got := c.meta.SpanName(); got != c.want {
			t.Errorf("SpanName(%+v) = %q, want %q", c.meta, got, c.want)
		}
	}
}

// TestTracer_RecordsErrorStatus verifies error spans carry error status.
func TestTracer_RecordsErrorStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := newTracer(tp.Tracer("test"))

	meta := InvocationMeta{Unit: "failing"}
	_, span := tracer.StartSpan(context.Background(), meta)
	tracer.EndSpan(span, errors.New("boom"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	if spans[0].Name() != "policy.invoke.failing" {
		t.Errorf("unexpected span name: %q", spans[0].Name())
	}
	if spans[0].Status().Description != "boom" {
		t.Errorf("expected status description 'boom', got %q", spans[0].Status().Description)
	}
}

// TestTracer_SuccessSpanKind verifies success spans end cleanly as internal spans.
func TestTracer_SuccessSpanKind(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := newTracer(tp.Tracer("test"))

	_, span := tracer.StartSpan(context.Background(), InvocationMeta{Unit: "ok"})
	tracer.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	if spans[0].SpanKind() != trace.SpanKindInternal {
		t.Errorf("expected internal span kind, got %v", spans[0].SpanKind())
	}
}

// TestNoopTracer verifies the noop tracer never panics.
func TestNoopTracer(t *testing.T) {
	tracer := newNoopTracer()
	_, span := tracer.StartSpan(context.Background(), InvocationMeta{Unit: "noop"})
	tracer.EndSpan(span, errors.New("ignored"))
	tracer.EndSpan(span, nil)
}
