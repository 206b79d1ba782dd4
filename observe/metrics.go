package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records policy invocation outcomes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordInvocation records one guarded invocation with its duration and
	// error status.
	RecordInvocation(ctx context.Context, meta InvocationMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"policy.invoke.total",
		metric.WithDescription("Total number of policy-guarded invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"policy.invoke.errors",
		metric.WithDescription("Total number of failed invocations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"policy.invoke.duration_ms",
		metric.WithDescription("Invocation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordInvocation records metrics for one guarded invocation.
func (m *metricsImpl) RecordInvocation(ctx context.Context, meta InvocationMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("policy.unit", meta.Unit),
	}
	if meta.Chain != "" {
		attrs = append(attrs, attribute.String("policy.chain", meta.Chain))
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordInvocation(ctx context.Context, meta InvocationMeta, duration time.Duration, err error) {
}
