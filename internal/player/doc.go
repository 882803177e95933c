// Package player wraps an external media-control surface behind a command/event contract.
//
// The surface is the single source of truth for actual playback. The engine never decodes media; it
// issues commands ([Adapter.LoadTrack], [Adapter.LoadNativePlaylist], [Adapter.Play], ...) and reacts to
// the [Event] values the surface pushes back (ready, state changed, error).
//
// # Loading
//
// The scripted surface is a process-wide resource bootstrapped once by a [Loader]. The loader moves
// through [NotLoaded], [Loading] and [Ready]; callers arriving while a bootstrap is in flight wait on it
// and are released exactly once when it completes.
//
// # Readiness
//
// Commands issued before the surface reports ready are dropped, not queued. Getters never fail: before
// ready, or when the surface errors, they return sentinels ([UnknownTime], [StateUnknown], -1, nil).
//
// # Simulation
//
// [SimulatedScript] provides an in-process, clock-driven surface for the CLI and tests. It resolves native
// playlists through a callback and advances playback time on a ticker scaled by a speed factor.
package player
