package session

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	tu "github.com/desertthunder/ytplay/internal/testing"
)

func newTestSession(p *tu.FakePlayer, opts Options) *Session {
	opts.Logger = shared.NewLogger(io.Discard)
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(3, 5))
	}
	if opts.DiscoveryInterval == 0 {
		opts.DiscoveryInterval = 5 * time.Millisecond
	}
	return New(p, opts)
}

func tracks(ids ...string) []models.Track {
	out := make([]models.Track, len(ids))
	for i, id := range ids {
		out[i] = models.NewTrack(id, "Song "+id, "Artist", "", "", 200)
	}
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestNew(t *testing.T) {
	s := newTestSession(tu.NewFakePlayer(), Options{})
	snap := s.Snapshot()
	if snap.State != models.Idle || snap.CurrentIndex != -1 || snap.Mode != models.Explicit {
		t.Errorf("initial snapshot = %+v", snap)
	}
}

func TestSetQueue(t *testing.T) {
	t.Run("selects every valid start index", func(t *testing.T) {
		for n := 1; n <= 5; n++ {
			for i := range n {
				p := tu.NewFakePlayer()
				s := newTestSession(p, Options{})
				ids := make([]string, n)
				for j := range ids {
					ids[j] = fmt.Sprintf("v%d", j)
				}

				s.SetQueue(tracks(ids...), i)

				if got := s.CurrentIndex(); got != i {
					t.Errorf("n=%d: CurrentIndex() = %d, want %d", n, got, i)
				}
				if s.Mode() != models.Explicit || s.State() != models.ExplicitActive {
					t.Errorf("n=%d: mode = %v state = %v", n, s.Mode(), s.State())
				}
				if cmds := p.Commands(); len(cmds) != 0 {
					t.Errorf("SetQueue issued commands %v", cmds)
				}
			}
		}
	})

	t.Run("invalid start index selects nothing", func(t *testing.T) {
		s := newTestSession(tu.NewFakePlayer(), Options{})
		for _, start := range []int{-1, 3, 100} {
			s.SetQueue(tracks("A", "B", "C"), start)
			if got := s.CurrentIndex(); got != -1 {
				t.Errorf("SetQueue(start=%d) index = %d, want -1", start, got)
			}
		}
	})

	t.Run("empty queue is idle", func(t *testing.T) {
		s := newTestSession(tu.NewFakePlayer(), Options{})
		s.SetQueue(nil, 0)
		if s.State() != models.Idle {
			t.Errorf("State() = %v, want idle", s.State())
		}
	})

	t.Run("queue is copied", func(t *testing.T) {
		s := newTestSession(tu.NewFakePlayer(), Options{})
		in := tracks("A", "B")
		s.SetQueue(in, 0)
		in[0].Title = "mutated"
		if s.Queue()[0].Title == "mutated" {
			t.Error("session queue aliases the caller's slice")
		}
	})
}

func TestPlayByIndex(t *testing.T) {
	t.Run("explicit mode loads by id", func(t *testing.T) {
		p := tu.NewFakePlayer()
		s := newTestSession(p, Options{})
		s.SetQueue(tracks("A", "B", "C"), 0)

		if err := s.PlayByIndex(1); err != nil {
			t.Fatalf("PlayByIndex() error = %v", err)
		}
		if got := p.LastCommand(); got != "load:B" {
			t.Errorf("command = %q, want load:B", got)
		}
		if !s.IsPlaying() || s.CurrentIndex() != 1 {
			t.Errorf("playing = %v index = %d", s.IsPlaying(), s.CurrentIndex())
		}
	})

	t.Run("rejects out of range", func(t *testing.T) {
		p := tu.NewFakePlayer()
		s := newTestSession(p, Options{})
		s.SetQueue(tracks("A"), 0)

		for _, i := range []int{-1, 1} {
			if err := s.PlayByIndex(i); !errors.Is(err, shared.ErrInvalidIndex) {
				t.Errorf("PlayByIndex(%d) error = %v, want ErrInvalidIndex", i, err)
			}
		}
		if len(p.Commands()) != 0 {
			t.Errorf("commands = %v, want none", p.Commands())
		}
	})
}

func TestPlayNext(t *testing.T) {
	t.Run("stops after the last track without repeat", func(t *testing.T) {
		p := tu.NewFakePlayer()
		s := newTestSession(p, Options{})
		s.SetQueue(tracks("A", "B", "C"), 0)

		_ = s.PlayNext()
		_ = s.PlayNext()
		if got := s.CurrentIndex(); got != 2 {
			t.Fatalf("after two PlayNext index = %d, want 2", got)
		}

		_ = s.PlayNext()
		if got := s.CurrentIndex(); got != -1 {
			t.Errorf("after third PlayNext index = %d, want -1", got)
		}
		if s.IsPlaying() {
			t.Error("still playing after end of queue")
		}
		if s.State() != models.Idle {
			t.Errorf("State() = %v, want idle", s.State())
		}
		want := []string{"load:B", "load:C", "stop"}
		if got := p.Commands(); fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("commands = %v, want %v", got, want)
		}
	})

	t.Run("wraps with repeat all", func(t *testing.T) {
		p := tu.NewFakePlayer()
		s := newTestSession(p, Options{})
		s.SetQueue(tracks("A", "B"), 1)
		s.SetPlaybackModifiers(models.PlaybackModifiers{Repeat: models.RepeatAll})

		_ = s.PlayNext()
		if got := s.CurrentIndex(); got != 0 {
			t.Errorf("index = %d, want 0", got)
		}
		if got := p.LastCommand(); got != "load:A" {
			t.Errorf("command = %q, want load:A", got)
		}
	})

	t.Run("shuffle picks another track", func(t *testing.T) {
		p := tu.NewFakePlayer()
		s := newTestSession(p, Options{})
		s.SetQueue(tracks("A", "B", "C", "D"), 2)
		s.ToggleShuffle()

		for range 20 {
			before := s.CurrentIndex()
			_ = s.PlayNext()
			if after := s.CurrentIndex(); after == before || after < 0 {
				t.Fatalf("shuffle moved %d -> %d", before, after)
			}
		}
	})

	t.Run("empty queue", func(t *testing.T) {
		s := newTestSession(tu.NewFakePlayer(), Options{})
		if err := s.PlayNext(); !errors.Is(err, shared.ErrEmptyQueue) {
			t.Errorf("PlayNext() error = %v, want ErrEmptyQueue", err)
		}
	})
}

func TestPlayPrevious(t *testing.T) {
	t.Run("restarts a track played past the threshold", func(t *testing.T) {
		p := tu.NewFakePlayer()
		s := newTestSession(p, Options{})
		s.SetQueue(tracks("A", "B", "C"), 2)
		p.SetClock(42, 200)

		_ = s.PlayPrevious()
		if got := s.CurrentIndex(); got != 2 {
			t.Errorf("index = %d, want 2", got)
		}
		if got := p.LastCommand(); got != "seek:0" {
			t.Errorf("command = %q, want seek:0", got)
		}
	})

	t.Run("retreats early in a track", func(t *testing.T) {
		p := tu.NewFakePlayer()
		s := newTestSession(p, Options{})
		s.SetQueue(tracks("A", "B", "C"), 2)
		p.SetClock(1.5, 200)

		_ = s.PlayPrevious()
		if got := s.CurrentIndex(); got != 1 {
			t.Errorf("index = %d, want 1", got)
		}
		if got := p.LastCommand(); got != "load:B" {
			t.Errorf("command = %q, want load:B", got)
		}
	})

	t.Run("start without repeat is a no-op", func(t *testing.T) {
		p := tu.NewFakePlayer()
		s := newTestSession(p, Options{})
		s.SetQueue(tracks("A", "B", "C"), 0)

		_ = s.PlayPrevious()
		if got := s.CurrentIndex(); got != 0 {
			t.Errorf("index = %d, want 0", got)
		}
		if len(p.Commands()) != 0 {
			t.Errorf("commands = %v, want none", p.Commands())
		}
	})

	t.Run("start with repeat wraps to the end", func(t *testing.T) {
		for _, repeat := range []models.RepeatMode{models.RepeatAll, models.RepeatOne} {
			p := tu.NewFakePlayer()
			s := newTestSession(p, Options{})
			s.SetQueue(tracks("A", "B", "C"), 0)
			s.SetPlaybackModifiers(models.PlaybackModifiers{Repeat: repeat})

			_ = s.PlayPrevious()
			if got := s.CurrentIndex(); got != 2 {
				t.Errorf("repeat %v: index = %d, want 2", repeat, got)
			}
		}
	})
}

func TestPlaybackModifiers(t *testing.T) {
	t.Run("enabling shuffle clears repeat", func(t *testing.T) {
		for _, repeat := range []models.RepeatMode{models.RepeatNone, models.RepeatAll, models.RepeatOne} {
			s := newTestSession(tu.NewFakePlayer(), Options{})
			s.SetPlaybackModifiers(models.PlaybackModifiers{Repeat: repeat})

			got := s.ToggleShuffle()
			if !got.Shuffle || got.Repeat != models.RepeatNone {
				t.Errorf("from repeat %v: ToggleShuffle() = %+v", repeat, got)
			}
		}
	})

	t.Run("enabling repeat clears shuffle", func(t *testing.T) {
		s := newTestSession(tu.NewFakePlayer(), Options{})
		s.ToggleShuffle()

		got := s.ToggleRepeat()
		if got.Shuffle || got.Repeat != models.RepeatAll {
			t.Errorf("ToggleRepeat() = %+v, want repeat all without shuffle", got)
		}
	})

	t.Run("toggling shuffle twice restores the original state", func(t *testing.T) {
		s := newTestSession(tu.NewFakePlayer(), Options{})
		orig := s.Modifiers()
		s.ToggleShuffle()
		s.ToggleShuffle()
		if got := s.Modifiers(); got != orig {
			t.Errorf("Modifiers() = %+v, want %+v", got, orig)
		}
	})

	t.Run("repeat cycles none all one", func(t *testing.T) {
		s := newTestSession(tu.NewFakePlayer(), Options{})
		want := []models.RepeatMode{models.RepeatAll, models.RepeatOne, models.RepeatNone}
		for _, w := range want {
			if got := s.ToggleRepeat().Repeat; got != w {
				t.Errorf("ToggleRepeat() = %v, want %v", got, w)
			}
		}
	})

	t.Run("conflicting request is normalized", func(t *testing.T) {
		s := newTestSession(tu.NewFakePlayer(), Options{})
		got := s.SetPlaybackModifiers(models.PlaybackModifiers{Shuffle: true, Repeat: models.RepeatOne})
		if got.Shuffle && got.Repeat != models.RepeatNone {
			t.Errorf("SetPlaybackModifiers() = %+v violates mutual exclusion", got)
		}
	})
}

func TestTransport(t *testing.T) {
	p := tu.NewFakePlayer()
	s := newTestSession(p, Options{})

	s.SetVolume(140)
	if got := s.Snapshot().Volume; got != 100 {
		t.Errorf("Volume = %d, want 100", got)
	}
	if got := p.LastCommand(); got != "volume:100" {
		t.Errorf("command = %q, want volume:100", got)
	}

	s.ToggleMute()
	if !s.Snapshot().Muted || p.LastCommand() != "mute" {
		t.Error("ToggleMute() did not mute")
	}
	s.ToggleMute()
	if s.Snapshot().Muted || p.LastCommand() != "unmute" {
		t.Error("ToggleMute() did not unmute")
	}

	s.TogglePause()
	if got := p.LastCommand(); got != "play" {
		t.Errorf("TogglePause() when stopped = %q, want play", got)
	}

	s.SetQueue(tracks("A"), 0)
	_ = s.PlayByIndex(0)
	s.TogglePause()
	if got := p.LastCommand(); got != "pause" {
		t.Errorf("TogglePause() when playing = %q, want pause", got)
	}

	s.Seek(30)
	if got := p.LastCommand(); got != "seek:30" {
		t.Errorf("command = %q, want seek:30", got)
	}

	s.Stop()
	if s.IsPlaying() || p.LastCommand() != "stop" {
		t.Error("Stop() did not stop")
	}
}
