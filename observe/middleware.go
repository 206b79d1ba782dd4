package observe

import (
	"context"
	"time"

	"github.com/jonwraymond/faultline/resilience"
)

// Middleware records telemetry for every invocation of the units it wraps. It
// implements resilience.Policy, so it composes into a chain like any other
// policy; place it outermost to time the whole chain, or innermost to time
// only the unit.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	chain   string
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware)

// WithChainLabel tags all telemetry emitted by this middleware with a chain
// label.
func WithChainLabel(name string) MiddlewareOption {
	return func(m *Middleware) {
		m.chain = name
	}
}

// NewMiddleware creates a telemetry middleware from explicit components. Nil
// components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger, opts ...MiddlewareOption) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	m := &Middleware{tracer: tracer, metrics: metrics, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MiddlewareFromObserver builds a Middleware from an Observer's telemetry
// primitives.
func MiddlewareFromObserver(obs Observer, opts ...MiddlewareOption) (*Middleware, error) {
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger(), opts...), nil
}

// Wrap returns a unit that records a span, metrics, and log lines around each
// invocation of u. The wrapped unit keeps u's invocation shape.
func (m *Middleware) Wrap(u resilience.Unit) resilience.Unit {
	meta := InvocationMeta{Unit: u.Name(), Chain: m.chain}
	logger := m.logger.WithInvocation(meta)

	core := func(ctx context.Context) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		logger.Debug(ctx, "invocation started")

		start := time.Now()
		value, err := resilience.Invoke(ctx, u)
		elapsed := time.Since(start)

		m.metrics.RecordInvocation(ctx, meta, elapsed, err)
		m.tracer.EndSpan(span, err)

		if err != nil {
			logger.Warn(ctx, "invocation failed",
				Field{Key: "error", Value: err.Error()},
				Field{Key: "duration_ms", Value: elapsed.Milliseconds()},
			)
		} else {
			logger.Debug(ctx, "invocation completed",
				Field{Key: "duration_ms", Value: elapsed.Milliseconds()},
			)
		}
		return value, err
	}

	if resilience.IsDeferred(u) {
		return resilience.Go(u.Name(), core)
	}
	return resilience.Func(u.Name(), core)
}

var _ resilience.Policy = (*Middleware)(nil)
