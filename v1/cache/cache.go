package cache

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	stasherrors "github.com/mirkobrombin/go-stash/v1/errors"
	"github.com/mirkobrombin/go-stash/v1/lock"
	"github.com/mirkobrombin/go-stash/v1/metrics"
	"github.com/mirkobrombin/go-stash/v1/policy"
)

var tracer = otel.Tracer("github.com/mirkobrombin/go-stash/v1/cache")

// Cache is a concurrent key→value cache with at-most-one-computation-per-key
// semantics. Reads of present entries never block behind population; misses
// for the same key serialize on a per-key lock so the factory runs once.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*entry[K, V]

	policy     *policy.Policy
	locks      *lock.Registry[K]
	normalize  func(K) K
	acceptZero bool

	lastSweep  atomic.Int64 // unix nanoseconds of the last completed sweep
	sweeping   atomic.Bool  // single-flight guard for the sweep pass
	sweepWG    sync.WaitGroup
	sweepLimit int
	closed     atomic.Bool

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	sweeps    atomic.Uint64

	hitCounter      prometheus.Counter
	missCounter     prometheus.Counter
	evictionCounter prometheus.Counter
	sweepCounter    prometheus.Counter
	entriesGauge    prometheus.Gauge
	traceEnabled    bool
}

// defaultSweepParallelism bounds the goroutines used by one sweep pass.
const defaultSweepParallelism = 8

// New returns a new Cache. Without expiration options the cache is
// permanent: entries live until explicitly removed or overwritten.
func New[K comparable, V any](opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		entries:    make(map[K]*entry[K, V]),
		policy:     policy.New(0, 0),
		locks:      lock.New[K](),
		acceptZero: true,
		sweepLimit: defaultSweepParallelism,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lastSweep.Store(time.Now().UnixNano())
	return c
}

// Policy returns the expiration policy governing this cache.
func (c *Cache[K, V]) Policy() *policy.Policy { return c.policy }

func (c *Cache[K, V]) key(k K) K {
	if c.normalize != nil {
		return c.normalize(k)
	}
	return k
}

// Get returns the value cached for key, if present and unexpired. It never
// invokes a factory; an expired entry is removed and reported as a miss.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool) {
	defer c.maybeSweep()
	metrics.GetCounter.Inc()

	var span trace.Span
	if c.traceEnabled {
		_, span = tracer.Start(ctx, "Cache.Get")
		defer span.End()
	}

	v, ok := c.lookup(c.key(key))
	if ok {
		c.recordHit(span)
	} else {
		c.recordMiss(span)
	}
	return v, ok
}

// GetOrSet returns the cached value for key, computing and storing it with
// factory on a miss. Concurrent callers for the same missing key invoke the
// factory at most once; the others wait on the key's lock and then observe
// the committed value. A factory failure propagates to the caller that ran
// it and leaves no entry behind, so waiters retry with their own factory.
func (c *Cache[K, V]) GetOrSet(ctx context.Context, key K, factory Factory[K, V]) (V, error) {
	var zero V
	if factory == nil {
		return zero, stasherrors.ErrNilFactory
	}
	if c.closed.Load() {
		return zero, stasherrors.ErrClosed
	}
	defer c.maybeSweep()

	var span trace.Span
	if c.traceEnabled {
		ctx, span = tracer.Start(ctx, "Cache.GetOrSet")
		defer span.End()
	}

	k := c.key(key)
	if v, ok := c.lookup(k); ok {
		c.recordHit(span)
		return v, nil
	}
	c.recordMiss(span)

	release, err := c.locks.Acquire(ctx, k)
	if err != nil {
		return zero, err
	}
	defer release()

	// Double-checked: another caller may have populated while we waited.
	if v, ok := c.lookup(k); ok {
		return v, nil
	}
	return c.populate(ctx, k, key, factory)
}

// Set computes a fresh value with factory and stores it, overwriting any
// existing entry for key. It deliberately skips the already-cached fast
// path; use it when a stale value must not be reused. On factory failure no
// entry remains for the key.
func (c *Cache[K, V]) Set(ctx context.Context, key K, factory Factory[K, V]) (V, error) {
	var zero V
	if factory == nil {
		return zero, stasherrors.ErrNilFactory
	}
	if c.closed.Load() {
		return zero, stasherrors.ErrClosed
	}
	defer c.maybeSweep()

	var span trace.Span
	if c.traceEnabled {
		ctx, span = tracer.Start(ctx, "Cache.Set")
		defer span.End()
	}

	k := c.key(key)
	release, err := c.locks.Acquire(ctx, k)
	if err != nil {
		return zero, err
	}
	defer release()
	return c.populate(ctx, k, key, factory)
}

// Remove deletes the entry for key, if present. Removing an absent key is
// not an error.
func (c *Cache[K, V]) Remove(ctx context.Context, key K) {
	defer c.maybeSweep()
	metrics.RemoveCounter.Inc()

	if c.traceEnabled {
		_, span := tracer.Start(ctx, "Cache.Remove")
		defer span.End()
	}

	k := c.key(key)
	c.mu.Lock()
	_, ok := c.entries[k]
	if ok {
		delete(c.entries, k)
	}
	size := len(c.entries)
	c.mu.Unlock()
	if ok {
		c.recordEviction(size)
	}
}

// Keys returns a point-in-time snapshot of the cached keys. The snapshot is
// not filtered by expiry: an expired entry the sweep has not reclaimed yet
// may still appear.
func (c *Cache[K, V]) Keys() []K {
	defer c.maybeSweep()
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]K, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// Values returns a point-in-time snapshot of the cached values, with the
// same staleness window as Keys. Reading a value renews its access time.
func (c *Cache[K, V]) Values() []V {
	defer c.maybeSweep()
	c.mu.RLock()
	defer c.mu.RUnlock()
	values := make([]V, 0, len(c.entries))
	for _, e := range c.entries {
		values = append(values, e.value())
	}
	return values
}

// Len returns the current number of entries, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close waits for an in-flight sweep and drops all entries. Population
// calls on a closed cache return ErrClosed.
func (c *Cache[K, V]) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.sweepWG.Wait()
	c.mu.Lock()
	c.entries = make(map[K]*entry[K, V])
	c.mu.Unlock()
	if c.entriesGauge != nil {
		c.entriesGauge.Set(0)
	}
}

// Stats reports basic metrics about cache usage.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Sweeps    uint64
	Size      int
}

// Metrics returns current metrics for the cache.
func (c *Cache[K, V]) Metrics() Stats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Sweeps:    c.sweeps.Load(),
		Size:      size,
	}
}

// lookup returns the unexpired value for the (already normalized) key. A
// present-but-expired entry is removed and reported as a miss. Only the
// map's read lock is taken; the per-key population lock is never touched.
func (c *Cache[K, V]) lookup(k K) (V, bool) {
	var zero V
	now := time.Now()
	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if e.expired(c.policy, now) {
		c.removeEntry(k, e)
		return zero, false
	}
	return e.value(), true
}

// populate computes a fresh entry under the key's lock and commits it to
// the map only on success. k is the normalized map key; key is the caller's
// key, which is what the factory receives.
func (c *Cache[K, V]) populate(ctx context.Context, k K, key K, factory Factory[K, V]) (V, error) {
	var zero V
	metrics.PopulateCounter.Inc()
	e := newEntry(key, factory)
	if err := e.compute(ctx); err != nil {
		// The failed entry is never published; discarding whatever the map
		// holds guarantees the next access starts from scratch.
		c.discard(k)
		return zero, err
	}
	v := e.value()
	if !c.acceptZero && isZero(v) {
		// Returned to this caller but not retained for reuse.
		c.discard(k)
		return v, nil
	}
	c.mu.Lock()
	c.entries[k] = e
	size := len(c.entries)
	c.mu.Unlock()
	if c.entriesGauge != nil {
		c.entriesGauge.Set(float64(size))
	}
	return v, nil
}

// removeEntry deletes k only if it still maps to e, so a concurrent
// overwrite is never clobbered. It reports whether a removal happened.
func (c *Cache[K, V]) removeEntry(k K, e *entry[K, V]) bool {
	c.mu.Lock()
	cur, ok := c.entries[k]
	if !ok || cur != e {
		c.mu.Unlock()
		return false
	}
	delete(c.entries, k)
	size := len(c.entries)
	c.mu.Unlock()
	c.recordEviction(size)
	return true
}

func (c *Cache[K, V]) discard(k K) {
	c.mu.Lock()
	delete(c.entries, k)
	size := len(c.entries)
	c.mu.Unlock()
	if c.entriesGauge != nil {
		c.entriesGauge.Set(float64(size))
	}
}

func (c *Cache[K, V]) recordHit(span trace.Span) {
	c.hits.Add(1)
	if c.hitCounter != nil {
		c.hitCounter.Inc()
	}
	if span != nil {
		span.SetAttributes(attribute.String("stash.cache.result", "hit"))
	}
}

func (c *Cache[K, V]) recordMiss(span trace.Span) {
	c.misses.Add(1)
	if c.missCounter != nil {
		c.missCounter.Inc()
	}
	if span != nil {
		span.SetAttributes(attribute.String("stash.cache.result", "miss"))
	}
}

func (c *Cache[K, V]) recordEviction(size int) {
	c.evictions.Add(1)
	if c.evictionCounter != nil {
		c.evictionCounter.Inc()
	}
	if c.entriesGauge != nil {
		c.entriesGauge.Set(float64(size))
	}
}

// isZero reports whether v equals V's zero value. V is not constrained to
// comparable, so the check goes through reflection.
func isZero[V any](v V) bool {
	return reflect.ValueOf(&v).Elem().IsZero()
}
