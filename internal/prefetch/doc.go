// Package prefetch implements the multi-tier catalog cache.
//
// Lookups consult three tiers in order: an in-process memory map, a [DurableStore] keyed by content hash, and
// the [services.ContentOrigin]. Concurrent requests for the same key share one flight, so N callers cause at
// most one origin request. Origin results are written to memory and through to the durable store. Failures
// and not-found results are never cached.
//
// [Cache.BatchPrefetch] resolves many keys with a single durable-tier batch read and fetches the remaining
// misses from the origin in sequential groups of [BatchSize] concurrent requests. One failing key never
// fails its group.
package prefetch
