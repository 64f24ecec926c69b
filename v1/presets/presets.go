package presets

import (
	"time"

	"github.com/mirkobrombin/go-stash/v1/cache"
)

// NewPermanent creates a cache whose entries never expire. Entries live
// until explicitly removed or overwritten; no sweep ever runs.
func NewPermanent[K comparable, V any]() *cache.Cache[K, V] {
	return cache.New[K, V]()
}

// NewAbsolute creates a cache whose entries expire a fixed duration after
// creation, regardless of how often they are read.
func NewAbsolute[K comparable, V any](ttl time.Duration) *cache.Cache[K, V] {
	return cache.New(cache.WithAbsoluteExpiration[K, V](ttl))
}

// NewSliding creates a cache whose entries expire when left unread for ttl.
// Every read pushes the expiration forward.
func NewSliding[K comparable, V any](ttl time.Duration) *cache.Cache[K, V] {
	return cache.New(cache.WithRelativeExpiration[K, V](ttl))
}

// NewMemoizer creates a permanent cache that refuses to retain zero values,
// suitable for memoizing lookups where the zero value means "no result yet".
func NewMemoizer[K comparable, V any]() *cache.Cache[K, V] {
	return cache.New(cache.WithAcceptZeroValue[K, V](false))
}
