package resilience

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// BulkheadConfig configures the bulkhead.
type BulkheadConfig struct {
	// Capacity is the maximum number of in-flight invocations. Zero admits
	// nothing; negative values are rejected at construction.
	Capacity int
}

// Bulkhead bounds simultaneous in-flight invocations of a unit of work.
// Excess calls are rejected immediately, never queued. It gates
// concurrency, not call frequency.
type Bulkhead struct {
	config BulkheadConfig
	sem    *semaphore.Weighted

	mu        sync.Mutex
	active    int
	maxActive int
	rejected  int64
}

// NewBulkhead validates config and creates the policy.
func NewBulkhead(config BulkheadConfig) (*Bulkhead, error) {
	if config.Capacity < 0 {
		return nil, configError("bulkhead capacity must be non-negative, got %d", config.Capacity)
	}
	return &Bulkhead{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.Capacity)),
	}, nil
}

// Acquire admits one invocation without blocking. It fails with
// ErrBulkheadFull when the bulkhead is at capacity.
func (b *Bulkhead) Acquire() error {
	if !b.sem.TryAcquire(1) {
		b.mu.Lock()
		b.rejected++
		b.mu.Unlock()
		return ErrBulkheadFull
	}

	b.mu.Lock()
	b.active++
	if b.active > b.maxActive {
		b.maxActive = b.active
	}
	b.mu.Unlock()
	return nil
}

// Release frees a slot. It must be called exactly once per successful
// Acquire.
func (b *Bulkhead) Release() {
	b.sem.Release(1)

	b.mu.Lock()
	b.active--
	b.mu.Unlock()
}

// Execute admits and invokes u. The slot is released on every exit path,
// including failure and cancellation.
func (b *Bulkhead) Execute(ctx context.Context, u Unit) (any, error) {
	if err := b.Acquire(); err != nil {
		return nil, unitError(ErrBulkheadFull, u)
	}
	defer b.Release()

	return Invoke(ctx, u)
}

// Wrap returns u guarded by the bulkhead, keeping u's name and dispatch
// shape.
func (b *Bulkhead) Wrap(u Unit) Unit {
	return wrapShape(u.Name(), func(ctx context.Context) (any, error) {
		return b.Execute(ctx, u)
	}, u)
}

// BulkheadStats is a snapshot of bulkhead counters.
type BulkheadStats struct {
	Active    int
	MaxActive int
	Available int
	Capacity  int
	Rejected  int64
}

// Stats returns current bulkhead counters.
func (b *Bulkhead) Stats() BulkheadStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BulkheadStats{
		Active:    b.active,
		MaxActive: b.maxActive,
		Available: b.config.Capacity - b.active,
		Capacity:  b.config.Capacity,
		Rejected:  b.rejected,
	}
}
