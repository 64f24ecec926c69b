package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mirkobrombin/go-stash/v1/metrics"
)

// maybeSweep runs on the way out of every public operation. When a sweep is
// due it launches one pass on its own goroutine and returns immediately;
// the triggering call never waits for the pass. A compare-and-swap on the
// sweeping flag keeps passes single-flight: a trigger arriving while a pass
// is in flight is a no-op.
func (c *Cache[K, V]) maybeSweep() {
	if c.closed.Load() {
		return
	}
	interval := c.policy.SweepInterval()
	if interval <= 0 {
		return
	}
	now := time.Now()
	if now.UnixNano()-c.lastSweep.Load() < int64(interval) {
		return
	}
	if !c.sweeping.CompareAndSwap(false, true) {
		return
	}
	c.sweepWG.Add(1)
	go c.sweep(now)
}

// sweep scans a snapshot of the current entries and removes the expired
// ones. Entries are independent, so eviction runs in parallel, bounded by
// the configured limit. lastSweep advances only after the pass completes,
// whether or not anything was removed.
func (c *Cache[K, V]) sweep(now time.Time) {
	defer c.sweepWG.Done()
	defer c.sweeping.Store(false)

	var span trace.Span
	if c.traceEnabled {
		_, span = tracer.Start(context.Background(), "Cache.Sweep")
		span.SetAttributes(attribute.String("stash.sweep.id", uuid.NewString()))
		defer span.End()
	}

	c.mu.RLock()
	snapshot := make(map[K]*entry[K, V], len(c.entries))
	for k, e := range c.entries {
		snapshot[k] = e
	}
	c.mu.RUnlock()

	var removed atomic.Int64
	var g errgroup.Group
	g.SetLimit(c.sweepLimit)
	for k, e := range snapshot {
		k, e := k, e
		g.Go(func() error {
			// A panicking expiry check on one entry must not abort the
			// rest of the pass.
			defer func() { _ = recover() }()
			if e.expired(c.policy, now) && c.removeEntry(k, e) {
				removed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	c.sweeps.Add(1)
	metrics.SweepCounter.Inc()
	if c.sweepCounter != nil {
		c.sweepCounter.Inc()
	}
	c.lastSweep.Store(time.Now().UnixNano())
	if span != nil {
		span.SetAttributes(attribute.Int64("stash.sweep.removed", removed.Load()))
	}
}
