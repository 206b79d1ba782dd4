package resilience

import (
	"context"
	"sync"
	"time"
)

// BreakerState represents the circuit breaker state.
type BreakerState int

const (
	// StateClosed means calls pass through normally.
	StateClosed BreakerState = iota
	// StateOpen means calls are short-circuited without invoking the unit.
	StateOpen
	// StateHalfOpen means a single trial call probes recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// circuit. Must be at least 1.
	FailureThreshold int

	// RecoveryTimeout is the cool-down after opening before a trial call is
	// allowed. Must be non-negative.
	RecoveryTimeout time.Duration

	// OnStateChange is called after each state transition.
	OnStateChange func(from, to BreakerState)

	// IsFailure classifies call outcomes. Default: every non-nil error
	// counts as a failure.
	IsFailure func(err error) bool
}

// CircuitBreaker tracks consecutive failures and short-circuits calls while
// open. An instance may be shared across goroutines; every state transition
// runs under a single mutex. State lives for the lifetime of the instance.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu            sync.Mutex
	state         BreakerState
	failures      int
	openedAt      time.Time
	trialInFlight bool
}

// NewCircuitBreaker validates config and creates the policy.
func NewCircuitBreaker(config CircuitBreakerConfig) (*CircuitBreaker, error) {
	if config.FailureThreshold < 1 {
		return nil, configError("failure threshold must be at least 1, got %d", config.FailureThreshold)
	}
	if config.RecoveryTimeout < 0 {
		return nil, configError("recovery timeout must be non-negative, got %v", config.RecoveryTimeout)
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}, nil
}

// Execute runs u through the breaker. While open, u is never invoked and
// ErrCircuitOpen is returned naming u. The failing call's own error is
// always propagated to the caller, whatever transition it triggers.
func (cb *CircuitBreaker) Execute(ctx context.Context, u Unit) (any, error) {
	if err := cb.admit(); err != nil {
		return nil, unitError(err, u)
	}

	value, err := Invoke(ctx, u)
	cb.record(err)
	return value, err
}

// Wrap returns u guarded by the breaker, keeping u's name and dispatch
// shape.
func (cb *CircuitBreaker) Wrap(u Unit) Unit {
	return wrapShape(u.Name(), func(ctx context.Context) (any, error) {
		return cb.Execute(ctx, u)
	}, u)
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.stateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		// Exactly one trial call is let through.
		if cb.trialInFlight {
			return ErrCircuitOpen
		}
		cb.trialInFlight = true
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := cb.config.IsFailure(err)

	switch cb.state {
	case StateClosed:
		if failed {
			cb.failures++
			if cb.failures >= cb.config.FailureThreshold {
				cb.openedAt = time.Now()
				cb.transitionLocked(StateOpen)
			}
		} else {
			cb.failures = 0
		}

	case StateHalfOpen:
		cb.trialInFlight = false
		if failed {
			cb.openedAt = time.Now()
			cb.transitionLocked(StateOpen)
		} else {
			cb.failures = 0
			cb.transitionLocked(StateClosed)
		}
	}
}

// stateLocked applies the lazy open -> half-open transition before
// reporting. There is no background timer; a breaker that receives no calls
// stays open until the next call arrives.
func (cb *CircuitBreaker) stateLocked() BreakerState {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.config.RecoveryTimeout {
		cb.transitionLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) transitionLocked(to BreakerState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if to == StateHalfOpen {
		cb.trialInFlight = false
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}

// State returns the current state, applying the recovery transition if due.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

// Reset forces the breaker back to closed with a clean failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.trialInFlight = false
	cb.transitionLocked(StateClosed)
}

// BreakerStats is a snapshot of breaker state.
type BreakerStats struct {
	State    BreakerState
	Failures int
	OpenedAt time.Time
}

// Stats returns current breaker statistics.
func (cb *CircuitBreaker) Stats() BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return BreakerStats{
		State:    cb.stateLocked(),
		Failures: cb.failures,
		OpenedAt: cb.openedAt,
	}
}
