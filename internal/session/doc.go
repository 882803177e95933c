// Package session owns the application's view of what is playing and what comes next.
//
// A [Session] holds the queue, the current index, the playback mode and the shuffle/repeat modifiers. It
// drives a [Player] (normally a [player.Adapter]) with commands and mirrors the events the player pushes
// back through [Session.HandleEvent].
//
// # Modes
//
// In explicit mode the session owns ordering: every transition computes the target index with [NextIndex]
// or [PreviousIndex] and issues a per-track load. In delegated mode a native playlist has been handed to
// the player, which owns ordering; the session keeps a shadow queue discovered by polling
// ([DiscoverMembers]) and hydrated concurrently through a [services.MetadataResolver].
//
// # Stale results
//
// Every queue replacement bumps a generation counter. Discovery and hydration results are applied only if
// their generation is still current, so a late metadata response never overwrites a newer queue.
//
// # Observing
//
// [Session.Subscribe] registers a callback that receives an immutable [Snapshot] after every change.
// Player commands and subscriber callbacks run outside the session lock.
package session
