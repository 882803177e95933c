package session

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"golang.org/x/sync/errgroup"
)

// MemberSource reports the member ids of a natively loaded playlist, or nil while they are unknown.
type MemberSource interface {
	NativeMemberIDs() []string
}

// DiscoverMembers polls src up to attempts times, waiting interval before each poll.
//
// It returns the first non-empty id list, [shared.ErrDiscoveryTimeout] once the attempts are exhausted, or
// the context error if ctx ends first.
func DiscoverMembers(ctx context.Context, src MemberSource, attempts int, interval time.Duration) ([]string, error) {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		if ids := src.NativeMemberIDs(); len(ids) > 0 {
			return ids, nil
		}
		timer.Reset(interval)
	}
	return nil, fmt.Errorf("%w after %d attempts", shared.ErrDiscoveryTimeout, attempts)
}

// SwitchToDelegated hands playlistID to the player and mirrors it as a shadow queue.
//
// The queue is filled with placeholder tracks as soon as membership is discovered, then upgraded in place as
// metadata resolves; SwitchToDelegated returns once hydration settles. If discovery times out the session
// stays in [models.DelegatedActive] with an empty queue and the timeout is returned. A result superseded by
// a later queue replacement is discarded and nil is returned.
func (s *Session) SwitchToDelegated(ctx context.Context, playlistID string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mode = models.Delegated
	s.state = models.DelegatedPending
	s.queue = nil
	s.index = -1
	s.playing = false
	s.playlistID = playlistID
	s.mu.Unlock()

	s.player.Stop()
	s.player.LoadNativePlaylist(playlistID, 0)
	s.notify()

	logger := s.logger.With("playlist_id", playlistID)
	logger.Info("discovering native playlist members")

	ids, err := DiscoverMembers(ctx, s.player, s.discoveryAttempts, s.discoveryInterval)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		logger.Debug("discarding superseded discovery result")
		return nil
	}
	s.state = models.DelegatedActive
	if err != nil {
		s.mu.Unlock()
		logger.Warn("native playlist discovery failed, continuing without a queue", "error", err)
		s.notify()
		return err
	}

	queue := make([]models.Track, len(ids))
	for i, id := range ids {
		queue[i] = models.PlaceholderTrack(id)
	}
	s.queue = queue
	s.index = 0
	s.mu.Unlock()

	if i := s.player.NativeIndex(); i >= 0 {
		s.mirrorNativeIndex(gen, i)
	}

	logger.Info("native playlist discovered", "members", len(ids))
	s.notify()

	s.hydrate(ctx, gen, ids)
	return nil
}

// hydrate resolves metadata for each member concurrently. Failures degrade single entries.
func (s *Session) hydrate(ctx context.Context, gen uint64, ids []string) {
	var g errgroup.Group
	g.SetLimit(s.hydrationLimit)

	for i, id := range ids {
		g.Go(func() error {
			track := s.resolveTrack(ctx, id)
			if s.applyHydration(gen, i, track) {
				s.notify()
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Session) resolveTrack(ctx context.Context, videoID string) models.Track {
	if s.resolver == nil {
		return models.UnknownTrack(videoID)
	}

	meta, err := s.resolver.Resolve(ctx, videoID)
	if err != nil || meta == nil {
		s.logger.Debug("metadata resolution failed", "video_id", videoID, "error", err)
		return models.UnknownTrack(videoID)
	}
	return models.PlaceholderTrack(videoID).WithMetadata(meta.Title, meta.Author)
}

// applyHydration replaces queue[i] when gen is current and the slot still holds the same member.
func (s *Session) applyHydration(gen uint64, i int, track models.Track) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || i >= len(s.queue) || s.queue[i].VideoID != track.VideoID {
		return false
	}

	queue := append([]models.Track(nil), s.queue...)
	queue[i] = track
	s.queue = queue
	return true
}

func (s *Session) mirrorNativeIndex(gen uint64, i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation && s.mode == models.Delegated && i < len(s.queue) {
		s.index = i
	}
}
