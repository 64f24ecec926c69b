package lock

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Registry issues mutual-exclusion handles scoped to a single key.
//
// Acquisition returns a release closure so that every exit path of the
// critical section (return, error, cancellation) can release with a defer.
type Registry[K comparable] struct {
	mu   sync.Mutex
	sems map[K]*semaphore.Weighted
}

// New returns an empty registry.
func New[K comparable]() *Registry[K] {
	return &Registry[K]{sems: make(map[K]*semaphore.Weighted)}
}

// sem returns the semaphore for key, creating it on first use.
func (r *Registry[K]) sem(key K) *semaphore.Weighted {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sems[key]
	if !ok {
		s = semaphore.NewWeighted(1)
		r.sems[key] = s
	}
	return s
}

// Acquire obtains the lock for key, waiting until it is free or ctx is
// done. On success the returned closure releases the lock.
func (r *Registry[K]) Acquire(ctx context.Context, key K) (func(), error) {
	s := r.sem(key)
	if err := s.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { s.Release(1) }, nil
}

// Lock is the blocking acquisition for synchronous callers. It cannot be
// cancelled and always succeeds.
func (r *Registry[K]) Lock(key K) func() {
	s := r.sem(key)
	// Acquire only fails when the context is cancelled; Background never is.
	_ = s.Acquire(context.Background(), 1)
	return func() { s.Release(1) }
}

// TryAcquire obtains the lock for key without waiting. It reports whether
// the lock was obtained.
func (r *Registry[K]) TryAcquire(key K) (func(), bool) {
	s := r.sem(key)
	if !s.TryAcquire(1) {
		return nil, false
	}
	return func() { s.Release(1) }, true
}

// Len returns the number of keys the registry has issued locks for.
func (r *Registry[K]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sems)
}
