package resilience

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the sustained number of invocations per second. Must be
	// positive.
	Rate float64

	// Burst is the token bucket size. Must be at least 1.
	Burst int

	// WaitOnLimit waits for a token instead of rejecting immediately.
	WaitOnLimit bool
}

// RateLimiter bounds invocation frequency with a token bucket. Unlike the
// bulkhead it limits call rate, not simultaneous in-flight calls.
type RateLimiter struct {
	config  RateLimiterConfig
	limiter *rate.Limiter
}

// NewRateLimiter validates config and creates the policy.
func NewRateLimiter(config RateLimiterConfig) (*RateLimiter, error) {
	if config.Rate <= 0 {
		return nil, configError("rate must be positive, got %v", config.Rate)
	}
	if config.Burst < 1 {
		return nil, configError("burst must be at least 1, got %d", config.Burst)
	}

	return &RateLimiter{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
	}, nil
}

// Allow reports whether one invocation may proceed now.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Tokens returns the number of tokens currently available.
func (rl *RateLimiter) Tokens() float64 {
	return rl.limiter.Tokens()
}

// Execute runs u if the limiter admits it. In WaitOnLimit mode the call
// blocks for a token, honoring ctx; otherwise over-limit calls fail with
// ErrRateLimited naming u.
func (rl *RateLimiter) Execute(ctx context.Context, u Unit) (any, error) {
	if rl.config.WaitOnLimit {
		if err := rl.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	} else if !rl.limiter.Allow() {
		return nil, unitError(ErrRateLimited, u)
	}

	return Invoke(ctx, u)
}

// Wrap returns u guarded by the rate limiter, keeping u's name and dispatch
// shape.
func (rl *RateLimiter) Wrap(u Unit) Unit {
	return wrapShape(u.Name(), func(ctx context.Context) (any, error) {
		return rl.Execute(ctx, u)
	}, u)
}
