package player

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/shared"
)

// UnknownTime is returned by time getters when the surface cannot answer.
const UnknownTime float64 = -1

// Adapter wraps a [Surface] with a drop-before-ready, never-fail contract.
type Adapter struct {
	loader *Loader
	logger *log.Logger

	mu        sync.RWMutex
	surface   Surface
	ready     bool
	listeners map[int]func(Event)
	nextID    int
}

// NewAdapter creates an [Adapter] whose surface comes from loader.
func NewAdapter(loader *Loader, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Adapter{
		loader:    loader,
		logger:    shared.WithLogger(logger, "component", "player"),
		listeners: make(map[int]func(Event)),
	}
}

// Init waits for the script and constructs the surface. Subsequent calls are no-ops.
func (a *Adapter) Init(ctx context.Context) error {
	a.mu.RLock()
	initialized := a.surface != nil
	a.mu.RUnlock()
	if initialized {
		return nil
	}

	script, err := a.loader.Load(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.surface != nil {
		return nil
	}

	surface, err := script.NewSurface(a.dispatch)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrLoaderFailed, err)
	}
	a.surface = surface
	a.logger.Debug("surface constructed")
	return nil
}

// OnEvent registers a listener for surface events and returns a function that removes it.
func (a *Adapter) OnEvent(fn func(Event)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

// Ready reports whether the surface has signalled readiness.
func (a *Adapter) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ready
}

// Close destroys the surface. The adapter must be re-initialized before further use.
func (a *Adapter) Close() error {
	a.mu.Lock()
	surface := a.surface
	a.surface = nil
	a.ready = false
	a.mu.Unlock()

	if surface == nil {
		return nil
	}
	return surface.Destroy()
}

func (a *Adapter) dispatch(ev Event) {
	a.mu.Lock()
	if ev.Kind == EventReady {
		a.ready = true
	}
	listeners := make([]func(Event), 0, len(a.listeners))
	for _, fn := range a.listeners {
		listeners = append(listeners, fn)
	}
	a.mu.Unlock()

	a.logger.Debug("surface event", "kind", ev.Kind, "state", ev.State, "code", ev.Code)
	for _, fn := range listeners {
		fn(ev)
	}
}

// readySurface returns the surface, or nil when commands must be dropped.
func (a *Adapter) readySurface() Surface {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.ready {
		return nil
	}
	return a.surface
}

func (a *Adapter) command(name string, fn func(Surface) error) {
	s := a.readySurface()
	if s == nil {
		a.logger.Debug("dropped command", "command", name, "error", shared.ErrAdapterNotReady)
		return
	}
	if err := fn(s); err != nil {
		a.logger.Warn("surface command failed", "command", name, "error", err)
	}
}

func (a *Adapter) LoadTrack(videoID string) {
	a.command("load_track", func(s Surface) error { return s.LoadVideoByID(videoID) })
}

func (a *Adapter) LoadNativePlaylist(playlistID string, startIndex int) {
	a.command("load_native_playlist", func(s Surface) error { return s.LoadPlaylist(playlistID, startIndex) })
}

func (a *Adapter) PlayAt(index int) {
	a.command("play_at", func(s Surface) error { return s.PlayVideoAt(index) })
}

func (a *Adapter) Next()     { a.command("next", Surface.NextVideo) }
func (a *Adapter) Previous() { a.command("previous", Surface.PreviousVideo) }
func (a *Adapter) Play()     { a.command("play", Surface.PlayVideo) }
func (a *Adapter) Pause()    { a.command("pause", Surface.PauseVideo) }
func (a *Adapter) Stop()     { a.command("stop", Surface.StopVideo) }
func (a *Adapter) Mute()     { a.command("mute", Surface.Mute) }
func (a *Adapter) Unmute()   { a.command("unmute", Surface.UnMute) }

// Seek clamps negative positions to 0. Non-finite positions are dropped.
func (a *Adapter) Seek(seconds float64) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		a.logger.Debug("dropped command", "command", "seek", "error", shared.ErrInvalidArgument, "seconds", seconds)
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	a.command("seek", func(s Surface) error { return s.SeekTo(seconds) })
}

// SetVolume clamps volume to 0..100 before forwarding it.
func (a *Adapter) SetVolume(volume int) {
	a.command("set_volume", func(s Surface) error { return s.SetVolume(ClampVolume(volume)) })
}

// ClampVolume bounds v to 0..100.
func ClampVolume(v int) int {
	return max(0, min(100, v))
}

// NativeMemberIDs returns the ids of the natively loaded playlist, or nil.
func (a *Adapter) NativeMemberIDs() []string {
	s := a.readySurface()
	if s == nil {
		return nil
	}
	ids, err := s.Playlist()
	if err != nil {
		a.logger.Debug("playlist getter failed", "error", err)
		return nil
	}
	return ids
}

// NativeIndex returns the surface's playlist index, or -1.
func (a *Adapter) NativeIndex() int {
	s := a.readySurface()
	if s == nil {
		return -1
	}
	i, err := s.PlaylistIndex()
	if err != nil {
		return -1
	}
	return i
}

// CurrentTime returns the playback position in seconds, or [UnknownTime].
func (a *Adapter) CurrentTime() float64 {
	s := a.readySurface()
	if s == nil {
		return UnknownTime
	}
	t, err := s.CurrentTime()
	if err != nil {
		return UnknownTime
	}
	return t
}

// Duration returns the current item's duration in seconds, or [UnknownTime].
func (a *Adapter) Duration() float64 {
	s := a.readySurface()
	if s == nil {
		return UnknownTime
	}
	d, err := s.Duration()
	if err != nil {
		return UnknownTime
	}
	return d
}

// State returns the surface's playback state, or [StateUnknown].
func (a *Adapter) State() State {
	s := a.readySurface()
	if s == nil {
		return StateUnknown
	}
	st, err := s.PlayerState()
	if err != nil {
		return StateUnknown
	}
	return st
}
