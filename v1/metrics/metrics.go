package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// GetCounter tracks the number of Get operations.
	GetCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stash_get_total",
		Help: "Total number of Get operations",
	})
	// PopulateCounter tracks the number of factory invocations.
	PopulateCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stash_populate_total",
		Help: "Total number of cache populations (factory invocations)",
	})
	// RemoveCounter tracks the number of explicit removals.
	RemoveCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stash_remove_total",
		Help: "Total number of explicit removals",
	})
	// SweepCounter tracks the number of completed sweep passes.
	SweepCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stash_sweep_total",
		Help: "Total number of completed sweep passes",
	})
)

// NewRegistry creates a new Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// RegisterCacheMetrics registers stash operation metrics on the provided registry.
func RegisterCacheMetrics(reg prometheus.Registerer) {
	reg.MustRegister(GetCounter, PopulateCounter, RemoveCounter, SweepCounter)
}
