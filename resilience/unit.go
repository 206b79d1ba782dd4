package resilience

import (
	"context"
	"sync"
)

const anonymousName = "<anonymous>"

// Unit is a named unit of work guarded by policies. Concrete units are
// either Direct or Deferred; construction fixes which, and wrapping a unit
// in policies preserves it.
type Unit interface {
	// Name identifies the unit in errors and telemetry.
	Name() string
}

// Direct is a unit invoked synchronously on the caller's goroutine.
type Direct interface {
	Unit
	Call(ctx context.Context) (any, error)
}

// Deferred is a unit whose invocation is scheduled on its own goroutine.
// Start returns immediately with a Future for the eventual outcome.
type Deferred interface {
	Unit
	Start(ctx context.Context) *Future
}

// Operation is the function form of a unit of work.
type Operation func(ctx context.Context) (any, error)

// Future is the handle for a deferred invocation's outcome. It completes
// exactly once; later completions and cancellations are ignored.
type Future struct {
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc
	value  any
	err    error
}

// NewFuture creates an unresolved future. cancel, if non-nil, is invoked by
// Cancel to stop the underlying work.
func NewFuture(cancel context.CancelFunc) *Future {
	return &Future{
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// Complete resolves the future. Only the first call has any effect.
func (f *Future) Complete(value any, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Cancel stops the underlying work and resolves the future with
// context.Canceled, unless it already completed.
func (f *Future) Cancel() {
	if f.cancel != nil {
		f.cancel()
	}
	f.Complete(nil, context.Canceled)
}

// Done is closed when the future resolves.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the outcome. It blocks until the future resolves.
func (f *Future) Result() (any, error) {
	<-f.done
	return f.value, f.err
}

// Await waits for the outcome or for ctx. On ctx expiry the future is
// cancelled and ctx's error is returned.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		f.Cancel()
		return nil, ctx.Err()
	}
}

type directUnit struct {
	name string
	fn   Operation
}

func (u *directUnit) Name() string { return u.name }

func (u *directUnit) Call(ctx context.Context) (any, error) {
	return u.fn(ctx)
}

type deferredUnit struct {
	name string
	fn   Operation
}

func (u *deferredUnit) Name() string { return u.name }

func (u *deferredUnit) Start(ctx context.Context) *Future {
	ctx, cancel := context.WithCancel(ctx)
	f := NewFuture(cancel)
	go func() {
		defer cancel()
		f.Complete(u.fn(ctx))
	}()
	return f
}

// Func makes a direct unit from fn. An empty name becomes "<anonymous>".
func Func(name string, fn Operation) Direct {
	if name == "" {
		name = anonymousName
	}
	return &directUnit{name: name, fn: fn}
}

// Go makes a deferred unit from fn. An empty name becomes "<anonymous>".
func Go(name string, fn Operation) Deferred {
	if name == "" {
		name = anonymousName
	}
	return &deferredUnit{name: name, fn: fn}
}

// Invoke runs u to completion in its natural shape: direct units on the
// calling goroutine, deferred units scheduled and then awaited.
func Invoke(ctx context.Context, u Unit) (any, error) {
	switch w := u.(type) {
	case Direct:
		return w.Call(ctx)
	case Deferred:
		return w.Start(ctx).Await(ctx)
	default:
		return nil, configError("unit %q is neither direct nor deferred", u.Name())
	}
}

// IsDeferred reports whether u dispatches as deferred. A unit implementing
// both interfaces counts as direct, matching Invoke.
func IsDeferred(u Unit) bool {
	if _, ok := u.(Direct); ok {
		return false
	}
	_, ok := u.(Deferred)
	return ok
}

// wrapShape builds a policy wrapper around core that keeps the dispatch
// shape of the wrapped units: deferred if any participant is deferred,
// direct otherwise.
func wrapShape(name string, core Operation, units ...Unit) Unit {
	for _, u := range units {
		if IsDeferred(u) {
			return Go(name, core)
		}
	}
	return Func(name, core)
}
