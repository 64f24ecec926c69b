package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithAbsoluteExpiration bounds every entry's lifetime from its creation
// time. A zero or negative duration leaves absolute expiration unset.
func WithAbsoluteExpiration[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.policy.SetAbsoluteExpiration(d)
	}
}

// WithRelativeExpiration bounds every entry's lifetime from its last access
// (sliding expiration). A zero or negative duration leaves it unset.
func WithRelativeExpiration[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.policy.SetRelativeExpiration(d)
	}
}

// WithAcceptZeroValue controls whether a computed value equal to V's zero
// value is retained. When disabled, the zero value is still returned to the
// caller that computed it but is not kept in the map, so the next access
// recomputes. The default is to retain zero values.
func WithAcceptZeroValue[K comparable, V any](accept bool) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.acceptZero = accept
	}
}

// WithKeyNormalizer installs a key normalizer applied before every map
// access and lock acquisition, so one function governs map identity and
// lock identity identically. Useful for case-insensitive string keys.
func WithKeyNormalizer[K comparable, V any](fn func(K) K) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.normalize = fn
	}
}

// WithSweepParallelism bounds how many goroutines a sweep pass uses to
// evict expired entries. A non-positive value keeps the default.
func WithSweepParallelism[K comparable, V any](n int) Option[K, V] {
	return func(c *Cache[K, V]) {
		if n > 0 {
			c.sweepLimit = n
		}
	}
}

// WithMetrics enables Prometheus metrics collection using the provided registerer.
func WithMetrics[K comparable, V any](reg prometheus.Registerer) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.hitCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stash_cache_hits_total",
			Help: "Total number of cache hits",
		})
		c.missCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stash_cache_misses_total",
			Help: "Total number of cache misses",
		})
		c.evictionCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stash_cache_evictions_total",
			Help: "Total number of cache evictions",
		})
		c.sweepCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stash_cache_sweeps_total",
			Help: "Total number of completed sweep passes",
		})
		c.entriesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stash_cache_entries",
			Help: "Current number of cached entries",
		})
		reg.MustRegister(c.hitCounter, c.missCounter, c.evictionCounter, c.sweepCounter, c.entriesGauge)
	}
}

// WithTracing enables OpenTelemetry tracing for cache operations.
func WithTracing[K comparable, V any]() Option[K, V] {
	return func(c *Cache[K, V]) {
		c.traceEnabled = true
	}
}
