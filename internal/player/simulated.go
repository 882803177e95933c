package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/shared"
)

const (
	DefaultSimulatedTick     = 250 * time.Millisecond
	DefaultSimulatedDuration = 180.0
)

// SimulatedScript is an in-process [Script] whose surfaces advance playback on a clock.
//
// Zero values select defaults: speed 1, a 250ms tick and 180 second items.
type SimulatedScript struct {
	// Resolve returns the member ids of a native playlist. Without it every playlist load fails.
	Resolve func(ctx context.Context, playlistID string) ([]string, error)
	// DurationOf returns an item's duration in seconds. Non-positive results fall back to the default.
	DurationOf func(videoID string) float64
	// Unplayable reports items that fail with an error event when loaded.
	Unplayable func(videoID string) bool

	Speed      float64
	Tick       time.Duration
	ReadyDelay time.Duration
	Logger     *log.Logger
}

// Bootstrap returns a [Bootstrap] that yields the script itself.
func (sc *SimulatedScript) Bootstrap() Bootstrap {
	return func(ctx context.Context) (Script, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return sc, nil
	}
}

// NewSurface constructs a [SimulatedSurface] and starts its clock. Ready is emitted after ReadyDelay.
func (sc *SimulatedScript) NewSurface(emit func(Event)) (Surface, error) {
	if emit == nil {
		return nil, fmt.Errorf("%w: event sink is required", shared.ErrInvalidArgument)
	}

	logger := sc.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	speed := sc.Speed
	if speed <= 0 {
		speed = 1
	}
	tick := sc.Tick
	if tick <= 0 {
		tick = DefaultSimulatedTick
	}

	id := shared.GenerateID()
	ctx, cancel := context.WithCancel(context.Background())
	s := &SimulatedSurface{
		id:       id,
		script:   sc,
		emit:     emit,
		speed:    speed,
		tick:     tick,
		ctx:      ctx,
		cancel:   cancel,
		signal:   make(chan struct{}, 1),
		logger:   shared.WithLogger(logger, "component", "simulator", "surface", id),
		index:    -1,
		state:    StateUnstarted,
		volume:   100,
		duration: 0,
	}
	go s.run()
	return s, nil
}

// SimulatedSurface is the [Surface] produced by [SimulatedScript].
type SimulatedSurface struct {
	id     string
	script *SimulatedScript
	emit   func(Event)
	speed  float64
	tick   time.Duration
	ctx    context.Context
	cancel context.CancelFunc
	signal chan struct{}
	logger *log.Logger

	mu       sync.Mutex
	pending  []Event
	playlist []string
	index    int
	videoID  string
	position float64
	duration float64
	state    State
	volume   int
	muted    bool
	loadSeq  int
}

// ID returns the surface's session id.
func (s *SimulatedSurface) ID() string { return s.id }

func (s *SimulatedSurface) run() {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	ready := time.After(s.script.ReadyDelay)
	last := time.Now()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ready:
			ready = nil
			s.emit(ReadyEvent())
		case <-s.signal:
			s.flush()
		case now := <-ticker.C:
			s.advance(now.Sub(last))
			last = now
			s.flush()
		}
	}
}

// flush delivers queued events outside the lock so listeners may issue commands.
func (s *SimulatedSurface) flush() {
	s.mu.Lock()
	events := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, ev := range events {
		s.emit(ev)
	}
}

func (s *SimulatedSurface) queueLocked(ev Event) {
	s.pending = append(s.pending, ev)
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *SimulatedSurface) setStateLocked(st State) {
	if s.state == st {
		return
	}
	s.state = st
	s.queueLocked(StateEvent(st))
}

func (s *SimulatedSurface) advance(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying {
		return
	}
	s.position += elapsed.Seconds() * s.speed
	if s.position < s.duration {
		return
	}

	s.position = s.duration
	s.setStateLocked(StateEnded)
	s.logger.Debug("item ended", "video_id", s.videoID)
	if s.playlist != nil && s.index+1 < len(s.playlist) {
		s.index++
		s.loadLocked(s.playlist[s.index])
	}
}

func (s *SimulatedSurface) durationOf(videoID string) float64 {
	if s.script.DurationOf != nil {
		if d := s.script.DurationOf(videoID); d > 0 {
			return d
		}
	}
	return DefaultSimulatedDuration
}

func (s *SimulatedSurface) loadLocked(videoID string) {
	s.videoID = videoID
	s.position = 0
	s.duration = s.durationOf(videoID)

	if s.script.Unplayable != nil && s.script.Unplayable(videoID) {
		s.state = StateUnstarted
		s.queueLocked(ErrorEvent(ErrCodeEmbedBlocked))
		s.logger.Debug("item unplayable", "video_id", videoID)
		return
	}
	s.state = StateBuffering
	s.setStateLocked(StatePlaying)
}

func (s *SimulatedSurface) LoadVideoByID(videoID string) error {
	if videoID == "" {
		return fmt.Errorf("%w: empty video id", shared.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadSeq++
	s.playlist = nil
	s.index = -1
	s.loadLocked(videoID)
	return nil
}

// LoadPlaylist resolves the playlist in the background. Members become visible through
// [SimulatedSurface.Playlist] only once resolution completes.
func (s *SimulatedSurface) LoadPlaylist(playlistID string, index int) error {
	if playlistID == "" {
		return fmt.Errorf("%w: empty playlist id", shared.ErrInvalidArgument)
	}

	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.playlist = nil
	s.index = -1
	s.videoID = ""
	s.position = 0
	s.setStateLocked(StateBuffering)
	s.mu.Unlock()

	go s.resolve(seq, playlistID, index)
	return nil
}

func (s *SimulatedSurface) resolve(seq int, playlistID string, index int) {
	var (
		members []string
		err     error
	)
	if s.script.Resolve == nil {
		err = fmt.Errorf("%w: no playlist resolver", shared.ErrNotFound)
	} else {
		members, err = s.script.Resolve(s.ctx, playlistID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.loadSeq {
		s.logger.Debug("discarding stale playlist resolution", "playlist_id", playlistID)
		return
	}
	if err == nil && len(members) == 0 {
		err = fmt.Errorf("%w: playlist %s has no members", shared.ErrNotFound, playlistID)
	}
	if err != nil {
		s.logger.Warn("playlist resolution failed", "playlist_id", playlistID, "error", err)
		s.state = StateUnstarted
		s.queueLocked(ErrorEvent(ErrCodeNotFound))
		return
	}

	if index < 0 || index >= len(members) {
		index = 0
	}
	s.playlist = append([]string(nil), members...)
	s.index = index
	s.loadLocked(s.playlist[index])
	s.logger.Debug("playlist resolved", "playlist_id", playlistID, "members", len(members))
}

func (s *SimulatedSurface) PlayVideoAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.playlist) {
		return fmt.Errorf("%w: %d", shared.ErrInvalidIndex, index)
	}
	s.index = index
	s.loadLocked(s.playlist[index])
	return nil
}

// NextVideo is a no-op at the end of the playlist.
func (s *SimulatedSurface) NextVideo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playlist == nil {
		return fmt.Errorf("%w: no playlist loaded", shared.ErrInvalidIndex)
	}
	if s.index+1 < len(s.playlist) {
		s.index++
		s.loadLocked(s.playlist[s.index])
	}
	return nil
}

// PreviousVideo restarts the first item instead of wrapping.
func (s *SimulatedSurface) PreviousVideo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playlist == nil {
		return fmt.Errorf("%w: no playlist loaded", shared.ErrInvalidIndex)
	}
	if s.index > 0 {
		s.index--
		s.loadLocked(s.playlist[s.index])
		return nil
	}
	s.position = 0
	return nil
}

func (s *SimulatedSurface) PlayVideo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.videoID == "" {
		return nil
	}
	if s.state == StateEnded {
		s.position = 0
	}
	s.setStateLocked(StatePlaying)
	return nil
}

func (s *SimulatedSurface) PauseVideo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePlaying || s.state == StateBuffering {
		s.setStateLocked(StatePaused)
	}
	return nil
}

func (s *SimulatedSurface) StopVideo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = 0
	if s.videoID != "" {
		s.setStateLocked(StateCued)
	}
	return nil
}

func (s *SimulatedSurface) SeekTo(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = max(0, min(seconds, s.duration))
	return nil
}

func (s *SimulatedSurface) SetVolume(volume int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = ClampVolume(volume)
	return nil
}

func (s *SimulatedSurface) Mute() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = true
	return nil
}

func (s *SimulatedSurface) UnMute() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = false
	return nil
}

func (s *SimulatedSurface) Playlist() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playlist == nil {
		return nil, nil
	}
	return append([]string(nil), s.playlist...), nil
}

func (s *SimulatedSurface) PlaylistIndex() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playlist == nil {
		return -1, nil
	}
	return s.index, nil
}

func (s *SimulatedSurface) CurrentTime() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position, nil
}

func (s *SimulatedSurface) Duration() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration, nil
}

func (s *SimulatedSurface) PlayerState() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

// Volume returns the last volume set, already clamped.
func (s *SimulatedSurface) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *SimulatedSurface) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// VideoID returns the loaded item, or "".
func (s *SimulatedSurface) VideoID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoID
}

func (s *SimulatedSurface) Destroy() error {
	s.cancel()
	return nil
}
