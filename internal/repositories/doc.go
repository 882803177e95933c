// Package repositories implements SQLite persistence for the durable tier of the content cache.
//
// Key Implementations:
//   - [ContentCacheRepository] : models.Repository[*models.CacheEntry] over the content_cache table,
//     with batched lookups by hashed key, hit counting, and expiry purges
//   - [DurableStoreAdapter] : adapts the repository to the prefetch cache's store contract,
//     treating TTL-expired rows as misses and swallowing hit-count failures
//
// Rows are addressed by the SHA-256 hash of "type:id" (see models.ContentKey.Hash), so lookups never
// depend on the shape of the catalog ids themselves.
package repositories
