// Package lock provides per-key mutual exclusion for cache population.
// Locks are created on demand, one per key, so callers working on different
// keys never contend. Blocking and context-aware acquisition share the same
// underlying semaphore, so mixed callers on one key still serialize.
package lock
