// Package services implements the HTTP collaborators of the playback engine.
//
// # Content Origin
//
// [OriginService] is the catalog API client behind the prefetch cache. It serves album, playlist, watch,
// artist, search and feed (home, charts, moods) lookups as typed methods and as raw payloads through
// [OriginService.Fetch], which is what the cache stores.
//
// Every request passes through a [rate.Limiter] and is retried with exponential backoff on transport
// errors, 429 and 5xx responses (honoring Retry-After). When origin.token is configured the HTTP client
// is wrapped by [oauth2.NewClient] with a static bearer token source.
//
// # Metadata Resolver
//
// [OEmbedResolver] resolves a video id to its title and author through an oEmbed endpoint. It is used to
// hydrate native playlist members and is best effort: a failure affects only that member.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotFound] : 404 (and 401/403 from oEmbed for private or removed videos)
//   - [shared.ErrTransientFetch] : retries exhausted on transport errors, 429 or 5xx
//   - [shared.ErrAPIRequest] : any other non-2xx response
package services
