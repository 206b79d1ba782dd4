package resilience

import (
	"context"
	"time"
)

// TimeoutConfig configures the timeout policy.
type TimeoutConfig struct {
	// Timeout is the per-call time bound. Zero expires immediately without
	// invoking the unit; negative values are rejected at construction.
	Timeout time.Duration
}

// Timeout bounds the execution time of a unit of work.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout validates config and creates the policy.
func NewTimeout(config TimeoutConfig) (*Timeout, error) {
	if config.Timeout < 0 {
		return nil, configError("timeout must be non-negative, got %v", config.Timeout)
	}
	return &Timeout{config: config}, nil
}

type attemptResult struct {
	value any
	err   error
}

// Execute invokes u and fails with ErrTimeout once the bound elapses.
//
// Deferred units race their Future against the timer and are cancelled on
// expiry so they stop consuming resources. Direct units run under a
// per-call watchdog: the call executes on its own goroutine with a context
// that is cancelled when the timer fires. A direct unit that ignores its
// context keeps running after Execute returns; the timeout cannot preempt
// it.
func (t *Timeout) Execute(ctx context.Context, u Unit) (any, error) {
	if t.config.Timeout == 0 {
		// Expired before any work starts; the unit is never invoked.
		return nil, unitError(ErrTimeout, u)
	}

	timer := time.NewTimer(t.config.Timeout)
	defer timer.Stop()

	switch w := u.(type) {
	case Direct:
		callCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		done := make(chan attemptResult, 1)
		go func() {
			value, err := w.Call(callCtx)
			done <- attemptResult{value, err}
		}()

		select {
		case res := <-done:
			return res.value, res.err
		case <-timer.C:
			cancel()
			return nil, unitError(ErrTimeout, u)
		case <-ctx.Done():
			return nil, ctx.Err()
		}

	case Deferred:
		f := w.Start(ctx)
		select {
		case <-f.Done():
			return f.Result()
		case <-timer.C:
			f.Cancel()
			return nil, unitError(ErrTimeout, u)
		case <-ctx.Done():
			f.Cancel()
			return nil, ctx.Err()
		}

	default:
		return nil, configError("unit %q is neither direct nor deferred", u.Name())
	}
}

// Wrap returns u guarded by the timeout policy, keeping u's name and
// dispatch shape.
func (t *Timeout) Wrap(u Unit) Unit {
	return wrapShape(u.Name(), func(ctx context.Context) (any, error) {
		return t.Execute(ctx, u)
	}, u)
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}
