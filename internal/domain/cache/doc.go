// Package cache provides the cache-through data-access contract used by
// every data-backed widget service.
//
// Components:
//   - Store: durable key/value blob contract (file and redis backends)
//   - Accessor + Get: the single generic get-cached-or-fetch algorithm
//
// The algorithm is strict about failure boundaries:
//   - a storage read error short-circuits; no fallback fetch is attempted
//   - a cache hit never invokes the fetch function
//   - a failed fetch never mutates the cache
//   - the record is written only after the fetch fully succeeds
//
// Freshness is entirely caller policy (ForceRefresh); records carry no
// expiry metadata.
//
// Example Usage:
//
//	acc := cache.NewAccessor(store, logger)
//	events, err := cache.Get(ctx, acc, "calendar.events", fetchEvents, cache.Options{})
package cache
