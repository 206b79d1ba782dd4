package resilience

import (
	"context"
	"time"
)

// RetryConfig configures the retry policy.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Must be at least 1.
	MaxAttempts int

	// Delay is the fixed wait between attempts. Must be non-negative.
	Delay time.Duration

	// RetryIf determines whether an error triggers another attempt.
	// Default: all non-nil errors do.
	RetryIf func(err error) bool

	// OnRetry is called after each failed attempt that will be retried.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry re-invokes a failing unit of work up to a bound. Attempts are
// strictly sequential; the delay between them is constant.
type Retry struct {
	config RetryConfig
}

// NewRetry validates config and creates the policy.
func NewRetry(config RetryConfig) (*Retry, error) {
	if config.MaxAttempts < 1 {
		return nil, configError("retry max attempts must be at least 1, got %d", config.MaxAttempts)
	}
	if config.Delay < 0 {
		return nil, configError("retry delay must be non-negative, got %v", config.Delay)
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}
	return &Retry{config: config}, nil
}

// Execute invokes u up to MaxAttempts times. On success the value is
// returned immediately; once attempts are exhausted the last failure is
// propagated unchanged. The unit may run up to MaxAttempts times, so
// callers needing exactly-once semantics must ensure idempotence.
func (r *Retry) Execute(ctx context.Context, u Unit) (any, error) {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		value, err := Invoke(ctx, u)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			return nil, err
		}
		if attempt >= r.config.MaxAttempts {
			break
		}

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, r.config.Delay)
		}
		if err := sleep(ctx, r.config.Delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// Wrap returns u guarded by the retry policy, keeping u's name and
// dispatch shape.
func (r *Retry) Wrap(u Unit) Unit {
	return wrapShape(u.Name(), func(ctx context.Context) (any, error) {
		return r.Execute(ctx, u)
	}, u)
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
