package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mirkobrombin/go-stash/v1/policy"
)

// Factory produces the value for a key. It may block; the context it
// receives is the one passed to the population call and cancelling it
// aborts the population.
type Factory[K comparable, V any] func(ctx context.Context, key K) (V, error)

// entry is the stored record for one key: the memoized value plus its
// creation and last-access timestamps. The factory runs at most once per
// entry instance; a failed entry is never published to the map and never
// retried, so the next access starts over with a fresh entry.
type entry[K comparable, V any] struct {
	key     K
	factory Factory[K, V]

	val      V
	computed bool

	createdAt  time.Time
	accessedAt atomic.Int64 // unix nanoseconds, renewed on every read
}

func newEntry[K comparable, V any](key K, factory Factory[K, V]) *entry[K, V] {
	e := &entry[K, V]{key: key, factory: factory, createdAt: time.Now()}
	e.accessedAt.Store(e.createdAt.UnixNano())
	return e
}

// compute runs the factory. It must be called with the key's lock held and
// before the entry is published, so it needs no synchronization of its own.
func (e *entry[K, V]) compute(ctx context.Context) error {
	if e.computed {
		return nil
	}
	v, err := e.factory(ctx, e.key)
	if err != nil {
		return err
	}
	e.val = v
	e.computed = true
	e.factory = nil
	return nil
}

// value returns the memoized payload and renews the access timestamp,
// including on the read that performed the computation.
func (e *entry[K, V]) value() V {
	e.accessedAt.Store(time.Now().UnixNano())
	return e.val
}

func (e *entry[K, V]) expired(p *policy.Policy, now time.Time) bool {
	return p.Expired(e.createdAt, time.Unix(0, e.accessedAt.Load()), now)
}
