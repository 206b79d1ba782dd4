package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/faultline/observe"
	"github.com/jonwraymond/faultline/policyconfig"
	"github.com/jonwraymond/faultline/resilience"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the resilience policy scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd.Context())
		},
	}
}

func runScenarios(ctx context.Context) error {
	obs, err := newObserver(ctx)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	if metricsAddr != "" {
		startMetricsServer(metricsAddr)
	}

	mw, err := observe.MiddlewareFromObserver(obs, observe.WithChainLabel("demo"))
	if err != nil {
		return fmt.Errorf("setting up middleware: %w", err)
	}

	scenarios := []struct {
		name string
		run  func(ctx context.Context, mw *observe.Middleware) error
	}{
		{"retry", runRetryScenario},
		{"timeout", runTimeoutScenario},
		{"bulkhead", runBulkheadScenario},
		{"fallback", runFallbackScenario},
		{"circuit-breaker", runBreakerScenario},
	}

	if configPath != "" {
		scenarios = append(scenarios, struct {
			name string
			run  func(ctx context.Context, mw *observe.Middleware) error
		}{"configured-chain", runConfiguredScenario})
	}

	for _, s := range scenarios {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Info().Str("scenario", s.name).Msg("Running scenario")
		if err := s.run(ctx, mw); err != nil {
			log.Error().Str("scenario", s.name).Err(err).Msg("Scenario failed")
			return err
		}
		log.Info().Str("scenario", s.name).Msg("Scenario completed")
	}

	return nil
}

func newObserver(ctx context.Context) (observe.Observer, error) {
	cfg := observe.Config{
		ServiceName: "faultline-demo",
		Version:     "dev",
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}
	if metricsAddr != "" {
		cfg.Metrics = observe.MetricsConfig{
			Enabled:  true,
			Exporter: "prometheus",
		}
	}
	return observe.NewObserver(ctx, cfg)
}

func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Info().Str("addr", addr).Msg("Serving Prometheus metrics")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn().Err(err).Msg("Metrics server stopped")
		}
	}()
}

// runRetryScenario drives a unit that fails twice before succeeding through a
// three-attempt retry.
func runRetryScenario(ctx context.Context, mw *observe.Middleware) error {
	retry, err := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: 3,
		Delay:       100 * time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.Info().Int("attempt", attempt).Err(err).Dur("delay", delay).Msg("Retrying")
		},
	})
	if err != nil {
		return err
	}

	attempts := 0
	u := resilience.Func("flaky-fetch", func(ctx context.Context) (any, error) {
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("transient failure %d", attempts)
		}
		return "fetched", nil
	})

	value, err := resilience.NewChain(mw, retry).Execute(ctx, u)
	if err != nil {
		return err
	}
	log.Info().Interface("value", value).Int("attempts", attempts).Msg("Retry succeeded")
	return nil
}

// runTimeoutScenario bounds a slow deferred unit and expects it to time out.
func runTimeoutScenario(ctx context.Context, mw *observe.Middleware) error {
	timeout, err := resilience.NewTimeout(resilience.TimeoutConfig{
		Timeout: 200 * time.Millisecond,
	})
	if err != nil {
		return err
	}

	u := resilience.Go("slow-report", func(ctx context.Context) (any, error) {
		select {
		case <-time.After(2 * time.Second):
			return "report", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	_, err = resilience.NewChain(mw, timeout).Execute(ctx, u)
	if !errors.Is(err, resilience.ErrTimeout) {
		return fmt.Errorf("expected timeout, got: %w", err)
	}
	log.Info().Err(err).Msg("Slow unit timed out as expected")
	return nil
}

// runBulkheadScenario saturates a single-slot bulkhead with two concurrent
// calls; one is rejected.
func runBulkheadScenario(ctx context.Context, mw *observe.Middleware) error {
	bulkhead, err := resilience.NewBulkhead(resilience.BulkheadConfig{Capacity: 1})
	if err != nil {
		return err
	}

	u := resilience.Func("slow-job", func(ctx context.Context) (any, error) {
		time.Sleep(300 * time.Millisecond)
		return "done", nil
	})
	chain := resilience.NewChain(mw, bulkhead)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = chain.Execute(ctx, u)
		}(i)
	}
	wg.Wait()

	var admitted, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, resilience.ErrBulkheadFull):
			rejected++
		default:
			return err
		}
	}

	stats := bulkhead.Stats()
	log.Info().
		Int("admitted", admitted).
		Int("rejected", rejected).
		Int64("total_rejected", stats.Rejected).
		Msg("Bulkhead contention resolved")
	return nil
}

// runFallbackScenario routes a failing primary to a secondary unit.
func runFallbackScenario(ctx context.Context, mw *observe.Middleware) error {
	secondary := resilience.Func("cached-profile", func(ctx context.Context) (any, error) {
		return "cached", nil
	})

	fallback, err := resilience.NewFallback(secondary)
	if err != nil {
		return err
	}

	primary := resilience.Func("live-profile", func(ctx context.Context) (any, error) {
		return nil, errors.New("upstream unavailable")
	})

	value, err := resilience.NewChain(mw, fallback).Execute(ctx, primary)
	if err != nil {
		return err
	}
	log.Info().Interface("value", value).Msg("Fallback served the request")
	return nil
}

// runBreakerScenario trips a threshold-2 breaker, observes short-circuiting,
// then recovers after the cool-down.
func runBreakerScenario(ctx context.Context, mw *observe.Middleware) error {
	breaker, err := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		RecoveryTimeout:  500 * time.Millisecond,
		OnStateChange: func(from, to resilience.BreakerState) {
			log.Info().Stringer("from", from).Stringer("to", to).Msg("Breaker state changed")
		},
	})
	if err != nil {
		return err
	}

	healthy := false
	u := resilience.Func("upstream-call", func(ctx context.Context) (any, error) {
		if !healthy {
			return nil, errors.New("upstream down")
		}
		return "ok", nil
	})
	chain := resilience.NewChain(mw, breaker)

	for i := 0; i < 4; i++ {
		_, err := chain.Execute(ctx, u)
		log.Info().Int("call", i+1).Err(err).Stringer("state", breaker.State()).Msg("Breaker call")
	}

	healthy = true
	time.Sleep(600 * time.Millisecond)

	value, err := chain.Execute(ctx, u)
	if err != nil {
		return fmt.Errorf("expected recovery, got: %w", err)
	}
	log.Info().Interface("value", value).Stringer("state", breaker.State()).Msg("Breaker recovered")
	return nil
}

// runConfiguredScenario builds a chain from --config and drives a flaky unit
// through it.
func runConfiguredScenario(ctx context.Context, mw *observe.Middleware) error {
	cfg, err := policyconfig.Load(configPath)
	if err != nil {
		return err
	}

	chain, err := cfg.Build()
	if err != nil {
		return err
	}

	attempts := 0
	u := resilience.Func("configured-fetch", func(ctx context.Context) (any, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("transient failure")
		}
		return "fetched", nil
	})

	value, err := resilience.NewChain(mw, chain).Execute(ctx, u)
	if err != nil {
		return err
	}
	log.Info().
		Str("chain", cfg.Name).
		Interface("value", value).
		Int("attempts", attempts).
		Msg("Configured chain succeeded")
	return nil
}
