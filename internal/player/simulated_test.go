package player

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytplay/internal/shared"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) has(want Event) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ev := range l.events {
		if ev == want {
			return true
		}
	}
	return false
}

func newSimulated(t *testing.T, sc *SimulatedScript) (*SimulatedSurface, *eventLog) {
	t.Helper()
	if sc.Tick == 0 {
		sc.Tick = 5 * time.Millisecond
	}
	sc.Logger = shared.NewLogger(io.Discard)

	log := &eventLog{}
	s, err := sc.NewSurface(log.add)
	if err != nil {
		t.Fatalf("NewSurface() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Destroy() })
	waitFor(t, time.Second, func() bool { return log.has(ReadyEvent()) })
	return s.(*SimulatedSurface), log
}

func TestSimulatedSurface(t *testing.T) {
	t.Run("requires an event sink", func(t *testing.T) {
		sc := &SimulatedScript{}
		if _, err := sc.NewSurface(nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("NewSurface(nil) error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("load video plays and reports duration", func(t *testing.T) {
		s, log := newSimulated(t, &SimulatedScript{DurationOf: func(string) float64 { return 90 }})

		if err := s.LoadVideoByID("vid1"); err != nil {
			t.Fatalf("LoadVideoByID() error = %v", err)
		}
		waitFor(t, time.Second, func() bool { return log.has(StateEvent(StatePlaying)) })

		if d, _ := s.Duration(); d != 90 {
			t.Errorf("Duration() = %v, want 90", d)
		}
		if i, _ := s.PlaylistIndex(); i != -1 {
			t.Errorf("PlaylistIndex() = %d, want -1", i)
		}
	})

	t.Run("ended item emits ended", func(t *testing.T) {
		s, log := newSimulated(t, &SimulatedScript{
			Speed:      100,
			DurationOf: func(string) float64 { return 0.5 },
		})
		_ = s.LoadVideoByID("vid1")

		waitFor(t, 2*time.Second, func() bool { return log.has(StateEvent(StateEnded)) })
		if st, _ := s.PlayerState(); st != StateEnded {
			t.Errorf("PlayerState() = %v, want ended", st)
		}
	})

	t.Run("native playlist resolves asynchronously and auto-advances", func(t *testing.T) {
		release := make(chan struct{})
		s, _ := newSimulated(t, &SimulatedScript{
			Speed:      100,
			DurationOf: func(string) float64 { return 0.5 },
			Resolve: func(ctx context.Context, id string) ([]string, error) {
				<-release
				return []string{"a", "b", "c"}, nil
			},
		})

		if err := s.LoadPlaylist("PL1", 0); err != nil {
			t.Fatalf("LoadPlaylist() error = %v", err)
		}
		if ids, _ := s.Playlist(); ids != nil {
			t.Errorf("Playlist() = %v before resolution, want nil", ids)
		}

		close(release)
		waitFor(t, time.Second, func() bool {
			ids, _ := s.Playlist()
			return len(ids) == 3
		})
		waitFor(t, 2*time.Second, func() bool {
			i, _ := s.PlaylistIndex()
			return i == 2
		})
	})

	t.Run("failed resolution emits error", func(t *testing.T) {
		s, log := newSimulated(t, &SimulatedScript{
			Resolve: func(context.Context, string) ([]string, error) { return nil, shared.ErrNotFound },
		})
		_ = s.LoadPlaylist("PL404", 0)
		waitFor(t, time.Second, func() bool { return log.has(ErrorEvent(ErrCodeNotFound)) })
	})

	t.Run("unplayable item emits error", func(t *testing.T) {
		s, log := newSimulated(t, &SimulatedScript{
			Unplayable: func(id string) bool { return id == "blocked" },
		})
		_ = s.LoadVideoByID("blocked")
		waitFor(t, time.Second, func() bool { return log.has(ErrorEvent(ErrCodeEmbedBlocked)) })
	})

	t.Run("play at rejects out of range", func(t *testing.T) {
		s, _ := newSimulated(t, &SimulatedScript{})
		if err := s.PlayVideoAt(0); !errors.Is(err, shared.ErrInvalidIndex) {
			t.Errorf("PlayVideoAt(0) error = %v, want ErrInvalidIndex", err)
		}
	})

	t.Run("transport controls", func(t *testing.T) {
		s, _ := newSimulated(t, &SimulatedScript{DurationOf: func(string) float64 { return 60 }})
		_ = s.LoadVideoByID("vid1")

		_ = s.PauseVideo()
		if st, _ := s.PlayerState(); st != StatePaused {
			t.Errorf("after pause state = %v", st)
		}
		_ = s.SeekTo(500)
		if pos, _ := s.CurrentTime(); pos != 60 {
			t.Errorf("SeekTo past end = %v, want 60", pos)
		}
		_ = s.SeekTo(0)
		_ = s.PlayVideo()
		if st, _ := s.PlayerState(); st != StatePlaying {
			t.Errorf("after play state = %v", st)
		}
		_ = s.StopVideo()
		if st, _ := s.PlayerState(); st != StateCued {
			t.Errorf("after stop state = %v", st)
		}
		_ = s.SetVolume(150)
		_ = s.Mute()
		if s.Volume() != 100 || !s.Muted() {
			t.Errorf("volume = %d muted = %v", s.Volume(), s.Muted())
		}
	})
}

func TestSimulatedScriptBootstrap(t *testing.T) {
	sc := &SimulatedScript{}
	loader := NewLoader(sc.Bootstrap(), shared.NewLogger(io.Discard))
	script, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if script != Script(sc) {
		t.Error("bootstrap did not return the simulated script")
	}
}
