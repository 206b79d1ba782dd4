package resilience

import "context"

// Fallback invokes a secondary unit of work when the primary fails.
type Fallback struct {
	secondary Unit
}

// NewFallback creates the policy. A nil secondary is rejected eagerly.
func NewFallback(secondary Unit) (*Fallback, error) {
	if secondary == nil {
		return nil, configError("fallback unit must not be nil")
	}
	return &Fallback{secondary: secondary}, nil
}

// Execute invokes primary and returns its value on success. On failure the
// secondary is invoked and its result returned; a failing secondary
// propagates the secondary's error, not the primary's.
func (f *Fallback) Execute(ctx context.Context, primary Unit) (any, error) {
	value, err := Invoke(ctx, primary)
	if err == nil {
		return value, nil
	}
	return Invoke(ctx, f.secondary)
}

// Wrap returns u guarded by the fallback. The wrapped unit is deferred if
// either u or the secondary is deferred; shape is fixed at construction.
func (f *Fallback) Wrap(u Unit) Unit {
	return wrapShape(u.Name(), func(ctx context.Context) (any, error) {
		return f.Execute(ctx, u)
	}, u, f.secondary)
}
