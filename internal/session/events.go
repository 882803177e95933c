package session

import (
	"context"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/player"
	"github.com/desertthunder/ytplay/internal/shared"
)

// Snapshot is an immutable copy of session state delivered to subscribers.
type Snapshot struct {
	State        models.SessionState
	Mode         models.PlaybackMode
	Queue        []models.Track
	CurrentIndex int
	IsPlaying    bool
	Modifiers    models.PlaybackModifiers
	CurrentTime  float64
	Duration     float64
	Volume       int
	Muted        bool
	Ready        bool
	PlaylistID   string
}

// Current returns the selected track, if any.
func (s Snapshot) Current() (models.Track, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Queue) {
		return models.Track{}, false
	}
	return s.Queue[s.CurrentIndex], true
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:        s.state,
		Mode:         s.mode,
		Queue:        append([]models.Track(nil), s.queue...),
		CurrentIndex: s.index,
		IsPlaying:    s.playing,
		Modifiers:    s.modifiers,
		CurrentTime:  s.currentTime,
		Duration:     s.duration,
		Volume:       s.volume,
		Muted:        s.muted,
		Ready:        s.ready,
		PlaylistID:   s.playlistID,
	}
}

// Subscribe registers fn for every state change and returns a function that removes it.
//
// Callbacks run synchronously in the goroutine that changed the state, one at a time and in order. They must
// not call back into the session synchronously.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	id := shared.GenerateID()

	s.subMu.Lock()
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Session) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.subMu.RLock()
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()
	if len(subs) == 0 {
		return
	}

	snap := s.Snapshot()
	for _, fn := range subs {
		fn(snap)
	}
}

// HandleEvent mirrors a player event into the session.
//
// Ended and error events always produce forward progress: explicit queues advance (or stop at the end),
// delegated playlists are left to the player or skipped with a next command.
func (s *Session) HandleEvent(ev player.Event) {
	switch ev.Kind {
	case player.EventReady:
		s.mu.Lock()
		s.ready = true
		s.mu.Unlock()
		s.logger.Debug("player ready")
		s.notify()

	case player.EventStateChanged:
		s.handleStateChange(ev.State)

	case player.EventError:
		s.handleError(ev.Code)
	}
}

// handleStateChange mirrors the playing flag and, in delegated mode, the native index. Ended is not
// mirrored: a native playlist has already moved past the item that ended, and repeat one needs that item.
func (s *Session) handleStateChange(st player.State) {
	nativeIndex := -1
	if s.Mode() == models.Delegated && st != player.StateEnded {
		nativeIndex = s.player.NativeIndex()
	}

	s.mu.Lock()
	s.playing = st == player.StatePlaying || st == player.StateBuffering
	gen := s.generation
	s.mu.Unlock()

	if nativeIndex >= 0 {
		s.mirrorNativeIndex(gen, nativeIndex)
	}
	s.notify()

	if st == player.StateEnded {
		s.handleEnded()
	}
}

func (s *Session) handleEnded() {
	s.mu.Lock()
	repeat := s.modifiers.Repeat
	mode := s.mode
	index := s.index
	s.mu.Unlock()

	switch {
	case repeat == models.RepeatOne && mode == models.Explicit:
		s.player.Seek(0)
		s.player.Play()
	case repeat == models.RepeatOne && index >= 0:
		s.player.PlayAt(index)
	case mode == models.Explicit:
		if err := s.PlayNext(); err != nil {
			s.logger.Debug("nothing to advance to", "error", err)
		}
	}
}

func (s *Session) handleError(code int) {
	s.mu.Lock()
	mode := s.mode
	index := s.index
	s.mu.Unlock()

	s.logger.Warn("skipping unplayable track", "error", shared.ErrUnplayable, "code", code, "index", index)
	if mode == models.Delegated {
		s.player.Next()
		return
	}
	if err := s.PlayNext(); err != nil {
		s.logger.Debug("nothing to skip to", "error", err)
	}
}

// Run mirrors current time and duration from the player every tick while it is playing. It returns when ctx
// is done.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Session) tick() {
	if s.player.State() != player.StatePlaying {
		return
	}
	current, duration := s.player.CurrentTime(), s.player.Duration()

	s.mu.Lock()
	changed := current != s.currentTime || duration != s.duration
	s.currentTime = current
	s.duration = duration
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}
