package resilience

import "context"

// Policy wraps a unit of work with fault-handling behavior. Wrapping
// preserves the dispatch shape: a direct unit stays direct, a deferred unit
// stays deferred (the fallback policy additionally promotes to deferred
// when its secondary is deferred).
type Policy interface {
	Wrap(u Unit) Unit
}

// Chain composes policies by nesting. The first policy is the outermost
// wrapper; order is entirely caller-controlled. A Chain is itself a Policy.
type Chain struct {
	policies []Policy
}

// NewChain creates a chain from outermost to innermost policy.
func NewChain(policies ...Policy) *Chain {
	return &Chain{policies: policies}
}

// Wrap applies every policy around u, innermost last.
func (c *Chain) Wrap(u Unit) Unit {
	for i := len(c.policies) - 1; i >= 0; i-- {
		u = c.policies[i].Wrap(u)
	}
	return u
}

// Execute wraps u and invokes the result.
func (c *Chain) Execute(ctx context.Context, u Unit) (any, error) {
	return Invoke(ctx, c.Wrap(u))
}
