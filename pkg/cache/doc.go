// Package cache provides a small thread-safe LRU cache with per-entry TTL
// and explicit invalidation.
//
// It backs the read-mostly lookups of the notification engine (templates,
// preference decisions). The TTL exists only to bound staleness; any code
// path that mutates the cached source of truth is expected to call
// Invalidate for the affected keys rather than wait for expiry.
package cache
