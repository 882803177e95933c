// Package models defines the domain types shared by the playback session, the player adapter, and the prefetch cache.
//
// The package contains three categories of types:
//
// 1. Playback values: immutable descriptions of what can be played and how
//   - [Track] : one playable item and its display metadata
//   - [PlaybackMode] : [Explicit] (session-owned ordering) or [Delegated] (surface-owned native playlist)
//   - [PlaybackModifiers] : shuffle and [RepeatMode], mutually exclusive via [PlaybackModifiers.Normalize]
//   - [SessionState] : Idle, ExplicitActive, DelegatedPending, DelegatedActive
//
// 2. Cache records: content keyed by ([ContentType], id)
//   - [ContentKey] : lookup key with a stable [ContentKey.Hash] for the durable tier
//   - [ContentRecord] : cached payload annotated with the [Tier] it came from
//   - [CacheEntry] : persistent durable-tier row with TTL, implementing [Model]
//
// 3. Catalog shapes: the subset of content origin responses the engine reads
//   - [Album], [Playlist], [CatalogTrack], [Feed]
//
// Persistent entities implement the [Model] interface and are stored through a [Repository].
package models
