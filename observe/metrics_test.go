package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// TestMetrics_RecordInvocation verifies counters and histogram are recorded.
func TestMetrics_RecordInvocation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("newMetrics failed: %v", err)
	}

	ctx := context.Background()
	meta := InvocationMeta{Unit: "fetch", Chain: "checkout"}
	m.RecordInvocation(ctx, meta, 10*time.Millisecond, nil)
	m.RecordInvocation(ctx, meta, 20*time.Millisecond, errors.New("boom"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	found := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			found[metric.Name] = true

			switch metric.Name {
			case "policy.invoke.total":
				sum, ok := metric.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("unexpected data type for total: %T", metric.Data)
				}
				if got := sum.DataPoints[0].Value; got != 2 {
					t.Errorf("expected total=2, got %d", got)
				}
			case "policy.invoke.errors":
				sum, ok := metric.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("unexpected data type for errors: %T", metric.Data)
				}
				if got := sum.DataPoints[0].Value; got != 1 {
					t.Errorf("expected errors=1, got %d", got)
				}
			case "policy.invoke.duration_ms":
				hist, ok := metric.Data.(metricdata.Histogram[float64])
				if !ok {
					t.Fatalf("unexpected data type for duration: %T", metric.Data)
				}
				if got := hist.DataPoints[0].Count; got != 2 {
					t.Errorf("expected 2 histogram samples, got %d", got)
				}
			}
		}
	}

	for _, name := range []string{"policy.invoke.total", "policy.invoke.errors", "policy.invoke.duration_ms"} {
		if !found[name] {
			t.Errorf("metric %q not recorded", name)
		}
	}
}

// TestNoopMetrics verifies the noop implementation is callable.
func TestNoopMetrics(t *testing.T) {
	m := &noopMetrics{}
	m.RecordInvocation(context.Background(), InvocationMeta{Unit: "x"}, time.Millisecond, nil)
	m.RecordInvocation(context.Background(), InvocationMeta{Unit: "x"}, time.Millisecond, errors.New("boom"))
}
