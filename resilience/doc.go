// Package resilience provides composable fault-tolerance policies for units
// of work.
//
// A unit of work is either direct (it runs to completion on the calling
// goroutine) or deferred (it returns a Future driven to completion
// elsewhere). Every policy is written against the Invoke adapter and works
// with both kinds; wrapping preserves the dispatch shape, so a wrapped
// direct unit stays direct and a wrapped deferred unit stays deferred.
//
// # Policies
//
//   - Retry: re-invokes a failing unit up to a bound with a fixed delay.
//
//   - Timeout: bounds execution time, cancelling deferred units and
//     watchdogging direct ones.
//
//   - Bulkhead: limits concurrent in-flight invocations, rejecting excess
//     calls immediately.
//
//   - Circuit Breaker: short-circuits calls after consecutive failures
//     until a recovery window elapses.
//
//   - Fallback: invokes a secondary unit when the primary fails.
//
//   - Rate Limiter: bounds invocation frequency with a token bucket.
//
// # Composition
//
// Policies implement the Policy interface and compose by nesting; the
// caller controls the order:
//
//	cb, _ := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    FailureThreshold: 5,
//	    RecoveryTimeout:  30 * time.Second,
//	})
//	retry, _ := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts: 3,
//	    Delay:       100 * time.Millisecond,
//	})
//
//	unit := resilience.Func("fetch-profile", fetchProfile)
//	guarded := resilience.NewChain(cb, retry).Wrap(unit)
//
//	value, err := resilience.Invoke(ctx, guarded)
//
// Policy-originated failures wrap the package sentinels (ErrCircuitOpen,
// ErrBulkheadFull, ErrTimeout, ErrRateLimited) and name the wrapped unit;
// failures of the unit itself pass through unchanged. Policies never log.
package resilience
