// Package tasks runs catalog operations on top of the prefetch cache with real-time progress reporting.
//
// # Core Operations
//
// The [CatalogEngine] interface defines four operations:
//
//  1. [CatalogEngine.LoadFeed] : Top-level home, charts or moods load
//     - Resolves the feed through the prefetch cache (origin retries already applied)
//     - Surfaces a recoverable failed state instead of aborting when the origin gives up
//     - Warms every album and playlist the feed references with one batch prefetch
//
//  2. [CatalogEngine.Warm] : Prefetch explicit content keys and report per-tier counts
//
//  3. [CatalogEngine.BuildQueue] : Resolve an album, playlist, watch list or artist into playable tracks
//
//  4. [CatalogEngine.BulkExport] : Write many queues to disk with a rate-limited worker pool
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [Engine] implements [CatalogEngine] with a dependency on [prefetch.Cache].
package tasks
