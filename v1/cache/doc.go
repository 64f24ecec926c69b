// Package cache implements a memoizing in-memory cache with stampede
// protection. Concurrent misses for the same key invoke the factory at most
// once; population is serialized by a per-key lock that reads never touch.
// Entries can carry an absolute and/or a sliding expiration, and expired
// entries are reclaimed by a self-throttled sweep that runs opportunistically
// off the calling goroutines rather than on a dedicated timer.
package cache
