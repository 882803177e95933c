package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/session"
	"github.com/desertthunder/ytplay/internal/shared"
)

type fakeController struct {
	mu    sync.Mutex
	snap  session.Snapshot
	subs  map[int]func(session.Snapshot)
	next  int
	calls []string
	err   error
}

func newFakeController(tracks ...models.Track) *fakeController {
	return &fakeController{
		snap: session.Snapshot{Queue: tracks, CurrentIndex: -1, Volume: 50},
		subs: make(map[int]func(session.Snapshot)),
	}
}

func (f *fakeController) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeController) publish(s session.Snapshot) {
	f.mu.Lock()
	f.snap = s
	subs := make([]func(session.Snapshot), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

func (f *fakeController) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeController) Subscribe(fn func(session.Snapshot)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeController) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeController) PlayByIndex(i int) error {
	f.record("play_at:" + string(rune('0'+i)))
	return f.err
}
func (f *fakeController) PlayNext() error     { f.record("next"); return f.err }
func (f *fakeController) PlayPrevious() error { f.record("previous"); return f.err }
func (f *fakeController) TogglePause()        { f.record("toggle_pause") }
func (f *fakeController) Stop()               { f.record("stop") }
func (f *fakeController) Seek(s float64) {
	if s == 0 {
		f.record("seek:0")
		return
	}
	f.record("seek")
}
func (f *fakeController) SetVolume(v int) {
	if v > 50 {
		f.record("volume_up")
	} else {
		f.record("volume_down")
	}
}
func (f *fakeController) ToggleMute() { f.record("toggle_mute") }
func (f *fakeController) ToggleShuffle() models.PlaybackModifiers {
	f.record("shuffle")
	return models.PlaybackModifiers{Shuffle: true}
}
func (f *fakeController) ToggleRepeat() models.PlaybackModifiers {
	f.record("repeat")
	return models.PlaybackModifiers{Repeat: models.RepeatAll}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testTracks() []models.Track {
	return []models.Track{
		models.NewTrack("v1", "Song One", "Artist One", "", "Album", 61),
		models.NewTrack("v2", "Song Two", "Artist Two", "", "", 0),
		models.NewTrack("v3", "Song Three", "Artist Three", "", "", 200),
	}
}

// exec runs cmd and feeds a non-nil result back into the model.
func exec(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		if _, ok := msg.(Msg); ok {
			m.Update(msg)
		}
	}
}

func TestModelKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want string
	}{
		{name: "space toggles pause", key: tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, want: "toggle_pause"},
		{name: "next", key: runes("n"), want: "next"},
		{name: "previous", key: runes("p"), want: "previous"},
		{name: "stop", key: runes("x"), want: "stop"},
		{name: "seek forward", key: tea.KeyMsg{Type: tea.KeyRight}, want: "seek"},
		{name: "seek back clamps at zero", key: tea.KeyMsg{Type: tea.KeyLeft}, want: "seek:0"},
		{name: "volume up", key: runes("+"), want: "volume_up"},
		{name: "volume down", key: runes("-"), want: "volume_down"},
		{name: "mute", key: runes("m"), want: "toggle_mute"},
		{name: "shuffle", key: runes("s"), want: "shuffle"},
		{name: "repeat", key: runes("r"), want: "repeat"},
		{name: "enter plays selection", key: tea.KeyMsg{Type: tea.KeyEnter}, want: "play_at:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newFakeController(testTracks()...)
			m := NewModel(context.Background(), ctrl, "Test", nil)
			m.Init()

			_, cmd := m.Update(tt.key)
			exec(m, cmd)

			calls := ctrl.Calls()
			if len(calls) != 1 || calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", calls, tt.want)
			}
		})
	}
}

func TestModelQuit(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(context.Background(), ctrl, "Test", nil)
	m.Init()
	if ctrl.subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", ctrl.subscribers())
	}

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if ctrl.subscribers() != 0 {
		t.Errorf("subscribers after quit = %d, want 0", ctrl.subscribers())
	}
}

func TestModelSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("renders the latest snapshot", func(t *testing.T) {
		ctrl := newFakeController(testTracks()...)
		m := NewModel(ctx, ctrl, "Test", nil)
		m.Init()

		snap := ctrl.Snapshot()
		for i := range 3 {
			snap.CurrentIndex = i
			snap.State = models.ExplicitActive
			snap.IsPlaying = true
			ctrl.publish(snap)
		}

		msg := m.waitForSnapshot()()
		m.Update(msg)

		if m.snap.CurrentIndex != 2 {
			t.Errorf("current index = %d, want 2 (latest)", m.snap.CurrentIndex)
		}
		if m.queue.Index() != 2 {
			t.Errorf("selected = %d, want 2", m.queue.Index())
		}
		view := m.View()
		if !strings.Contains(view, "Song Three") || !strings.Contains(view, "3/3") {
			t.Errorf("view missing now playing:\n%s", view)
		}
	})

	t.Run("push never blocks", func(t *testing.T) {
		ctrl := newFakeController()
		m := NewModel(ctx, ctrl, "Test", nil)
		m.Init()

		done := make(chan struct{})
		go func() {
			for range 100 {
				ctrl.publish(session.Snapshot{CurrentIndex: -1})
			}
			close(done)
		}()
		<-done
		if len(m.snapshots) != 1 {
			t.Errorf("buffered snapshots = %d, want 1", len(m.snapshots))
		}
	})

	t.Run("wait returns nil when context is done", func(t *testing.T) {
		cctx, ccancel := context.WithCancel(context.Background())
		m := NewModel(cctx, newFakeController(), "Test", nil)
		ccancel()
		if msg := m.waitForSnapshot()(); msg != nil {
			t.Errorf("msg = %v, want nil", msg)
		}
	})
}

func TestModelStart(t *testing.T) {
	t.Run("loading until start returns", func(t *testing.T) {
		ctrl := newFakeController(testTracks()...)
		started := false
		m := NewModel(context.Background(), ctrl, "Native", func(context.Context) error {
			started = true
			return nil
		})
		if m.view != LoadingView {
			t.Fatalf("view = %v, want loading", m.view)
		}
		m.Init()
		if !strings.Contains(m.View(), "Loading player") {
			t.Errorf("loading view = %q", m.View())
		}

		_, cmd := m.Update(runes("n"))
		if cmd != nil || len(ctrl.Calls()) != 0 {
			t.Error("commands should be ignored while loading")
		}

		m.Update(m.runStart()())
		if !started {
			t.Error("start was not called")
		}
		if m.view != PlayerView {
			t.Errorf("view = %v, want player", m.view)
		}
	})

	t.Run("start error is shown", func(t *testing.T) {
		ctrl := newFakeController()
		m := NewModel(context.Background(), ctrl, "Native", func(context.Context) error {
			return shared.ErrDiscoveryTimeout
		})
		m.Init()
		m.Update(m.runStart()())

		if !errors.Is(m.err, shared.ErrTimeout) {
			t.Errorf("err = %v", m.err)
		}
		view := m.View()
		if !strings.Contains(view, "Error:") || !strings.Contains(view, "Queue is empty") {
			t.Errorf("view = %q", view)
		}
	})
}

func TestModelCommandFailure(t *testing.T) {
	ctrl := newFakeController()
	ctrl.err = shared.ErrEmptyQueue
	m := NewModel(context.Background(), ctrl, "Test", nil)
	m.Init()

	_, cmd := m.Update(runes("n"))
	exec(m, cmd)

	if !strings.Contains(m.status, "next") || !strings.Contains(m.status, "queue is empty") {
		t.Errorf("status = %q", m.status)
	}
	if !strings.Contains(m.View(), "queue is empty") {
		t.Error("view should show command failure")
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name              string
		current, duration float64
		want              string
	}{
		{name: "unknown duration", current: 10, duration: -1, want: "[    ]"},
		{name: "half", current: 50, duration: 100, want: "[==  ]"},
		{name: "past the end", current: 150, duration: 100, want: "[====]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progressBar(tt.current, tt.duration, 4); got != tt.want {
				t.Errorf("progressBar() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrackItem(t *testing.T) {
	items := queueItems(testTracks(), 1)
	first := items[0].(trackItem)
	if first.Title() != "1. Song One" {
		t.Errorf("Title() = %q", first.Title())
	}
	if first.Description() != "Artist One • Album • 1:01" {
		t.Errorf("Description() = %q", first.Description())
	}
	if cur := items[1].(trackItem); !strings.HasPrefix(cur.Title(), "▶ ") {
		t.Errorf("current Title() = %q", cur.Title())
	}
}
