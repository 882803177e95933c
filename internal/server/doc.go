// Package server provides HTTP routing, middleware, and a remote-control API for a playback session.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /status") internally.
//
// # Control Handler
//
// [ControlHandler] exposes the session over HTTP while `ytplay play --listen` runs:
//
//	GET  /status        → JSON snapshot (state, mode, index, modifiers, clock, volume)
//	GET  /queue         → plain-text queue listing
//	POST /play/{index}  → play the queue entry at index
//	POST /next          → next track (respects shuffle and repeat)
//	POST /previous      → previous track, or restart past the threshold
//	POST /pause         → toggle pause
//	POST /stop          → stop playback
//	POST /seek?to=N     → seek to N seconds
//	POST /volume?level=N → set volume (clamped to 0..100)
//	POST /mute          → toggle mute
//	POST /shuffle       → toggle shuffle
//	POST /repeat        → cycle repeat mode
//
// Command endpoints respond with the resulting snapshot. Session errors map to 400 (bad index or argument)
// and 409 (empty queue).
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
