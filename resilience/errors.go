package resilience

import (
	"errors"
	"fmt"
)

// Sentinel errors for policy-originated failures. Errors raised at a policy
// boundary wrap one of these and name the affected unit; match with
// errors.Is. Failures of the wrapped unit itself always pass through
// unmodified.
var (
	// ErrCircuitOpen is returned when the circuit breaker short-circuits a call.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrBulkheadFull is returned when the bulkhead rejects admission.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an invocation exceeds its time bound.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrRateLimited is returned when the rate limiter rejects a call.
	ErrRateLimited = errors.New("resilience: rate limit exceeded")

	// ErrInvalidConfig is returned eagerly by constructors for bad configuration.
	ErrInvalidConfig = errors.New("resilience: invalid configuration")
)

// unitError wraps a sentinel with the name of the affected unit.
func unitError(sentinel error, u Unit) error {
	return fmt.Errorf("%w: unit %q", sentinel, u.Name())
}

// configError wraps ErrInvalidConfig with a reason.
func configError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
