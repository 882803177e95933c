package session

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/player"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
)

const (
	// DiscoveryAttempts bounds how often native playlist membership is polled.
	DiscoveryAttempts = 10
	// DiscoveryInterval is the wait before each membership poll.
	DiscoveryInterval = 500 * time.Millisecond
	// RestartThreshold is the position in seconds past which "previous" restarts the current track.
	RestartThreshold = 3.0
	// TickInterval is the cadence at which playback time is mirrored from the player.
	TickInterval = time.Second
	// HydrationConcurrency caps concurrent metadata lookups for one native playlist.
	HydrationConcurrency = 8
)

// Player is the command and getter surface a session drives. [player.Adapter] implements it.
type Player interface {
	LoadTrack(videoID string)
	LoadNativePlaylist(playlistID string, startIndex int)
	PlayAt(index int)
	Next()
	Previous()
	Play()
	Pause()
	Stop()
	Seek(seconds float64)
	SetVolume(volume int)
	Mute()
	Unmute()

	NativeMemberIDs() []string
	NativeIndex() int
	CurrentTime() float64
	Duration() float64
	State() player.State
}

var _ Player = (*player.Adapter)(nil)

// Options configures a [Session]. Zero values select the package defaults.
type Options struct {
	Resolver             services.MetadataResolver
	Rand                 *rand.Rand
	Logger               *log.Logger
	DiscoveryAttempts    int
	DiscoveryInterval    time.Duration
	TickInterval         time.Duration
	HydrationConcurrency int
}

// Session is the playback state machine.
type Session struct {
	player   Player
	resolver services.MetadataResolver
	logger   *log.Logger

	discoveryAttempts int
	discoveryInterval time.Duration
	tickInterval      time.Duration
	hydrationLimit    int

	mu          sync.Mutex
	rng         *rand.Rand
	state       models.SessionState
	mode        models.PlaybackMode
	queue       []models.Track
	index       int
	playing     bool
	modifiers   models.PlaybackModifiers
	currentTime float64
	duration    float64
	volume      int
	muted       bool
	ready       bool
	playlistID  string
	generation  uint64

	notifyMu    sync.Mutex
	subMu       sync.RWMutex
	subscribers map[string]func(Snapshot)
}

// New creates an idle [Session] driving p.
func New(p Player, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	if opts.DiscoveryAttempts <= 0 {
		opts.DiscoveryAttempts = DiscoveryAttempts
	}
	if opts.DiscoveryInterval <= 0 {
		opts.DiscoveryInterval = DiscoveryInterval
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = TickInterval
	}
	if opts.HydrationConcurrency <= 0 {
		opts.HydrationConcurrency = HydrationConcurrency
	}

	return &Session{
		player:            p,
		resolver:          opts.Resolver,
		logger:            shared.WithLogger(opts.Logger, "component", "session"),
		discoveryAttempts: opts.DiscoveryAttempts,
		discoveryInterval: opts.DiscoveryInterval,
		tickInterval:      opts.TickInterval,
		hydrationLimit:    opts.HydrationConcurrency,
		rng:               opts.Rand,
		state:             models.Idle,
		mode:              models.Explicit,
		index:             -1,
		volume:            100,
		currentTime:       player.UnknownTime,
		duration:          player.UnknownTime,
		subscribers:       make(map[string]func(Snapshot)),
	}
}

// SetQueue replaces the queue and selects startIndex when it is in range, otherwise nothing.
//
// It switches to explicit mode and issues no player command.
func (s *Session) SetQueue(tracks []models.Track, startIndex int) {
	queue := append([]models.Track(nil), tracks...)

	s.mu.Lock()
	s.generation++
	s.queue = queue
	s.mode = models.Explicit
	s.playlistID = ""
	if startIndex >= 0 && startIndex < len(queue) {
		s.index = startIndex
	} else {
		s.index = -1
	}
	if len(queue) == 0 {
		s.state = models.Idle
	} else {
		s.state = models.ExplicitActive
	}
	s.mu.Unlock()

	s.logger.Debug("queue replaced", "tracks", len(queue), "index", s.CurrentIndex())
	s.notify()
}

// PlayByIndex starts the track at i. Explicit mode loads it by id; delegated mode asks the player to jump to
// its own playlist position.
func (s *Session) PlayByIndex(i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.queue) {
		n := len(s.queue)
		s.mu.Unlock()
		return fmt.Errorf("%w: %d not in [0, %d)", shared.ErrInvalidIndex, i, n)
	}

	mode := s.mode
	videoID := s.queue[i].VideoID
	s.index = i
	s.playing = true
	if mode == models.Explicit {
		s.state = models.ExplicitActive
	}
	s.mu.Unlock()

	if mode == models.Delegated {
		s.player.PlayAt(i)
	} else {
		s.player.LoadTrack(videoID)
	}
	s.notify()
	return nil
}

// PlayNext advances the queue. At the end of a non-repeating explicit queue playback stops and the session
// rests in [models.Idle] with no selection.
func (s *Session) PlayNext() error {
	s.mu.Lock()
	if s.mode == models.Delegated {
		s.mu.Unlock()
		s.player.Next()
		return nil
	}
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return shared.ErrEmptyQueue
	}

	next := NextIndex(len(s.queue), s.index, s.modifiers, s.rng)
	if next == -1 {
		s.index = -1
		s.playing = false
		s.state = models.Idle
		s.mu.Unlock()

		s.logger.Info("reached end of queue")
		s.player.Stop()
		s.notify()
		return nil
	}

	videoID := s.queue[next].VideoID
	s.index = next
	s.playing = true
	s.state = models.ExplicitActive
	s.mu.Unlock()

	s.player.LoadTrack(videoID)
	s.notify()
	return nil
}

// PlayPrevious restarts the current track when it has played past [RestartThreshold] seconds, otherwise
// retreats one position. Retreating past the start without repeat is a no-op.
func (s *Session) PlayPrevious() error {
	s.mu.Lock()
	mode := s.mode
	n := len(s.queue)
	s.mu.Unlock()

	if mode == models.Delegated {
		s.player.Previous()
		return nil
	}
	if n == 0 {
		return shared.ErrEmptyQueue
	}

	if s.player.CurrentTime() > RestartThreshold {
		s.player.Seek(0)
		return nil
	}

	s.mu.Lock()
	prev := PreviousIndex(len(s.queue), s.index, s.modifiers)
	if prev == -1 || s.mode != models.Explicit {
		s.mu.Unlock()
		return nil
	}
	videoID := s.queue[prev].VideoID
	s.index = prev
	s.playing = true
	s.state = models.ExplicitActive
	s.mu.Unlock()

	s.player.LoadTrack(videoID)
	s.notify()
	return nil
}

// SetPlaybackModifiers applies next after enforcing shuffle/repeat mutual exclusion and returns the result.
func (s *Session) SetPlaybackModifiers(next models.PlaybackModifiers) models.PlaybackModifiers {
	s.mu.Lock()
	applied := next.Normalize(s.modifiers)
	s.modifiers = applied
	s.mu.Unlock()

	s.logger.Debug("modifiers changed", "shuffle", applied.Shuffle, "repeat", applied.Repeat)
	s.notify()
	return applied
}

// ToggleShuffle flips shuffle. Enabling it clears repeat.
func (s *Session) ToggleShuffle() models.PlaybackModifiers {
	next := s.Modifiers()
	next.Shuffle = !next.Shuffle
	return s.SetPlaybackModifiers(next)
}

// ToggleRepeat cycles repeat None → All → One → None. Enabling it clears shuffle.
func (s *Session) ToggleRepeat() models.PlaybackModifiers {
	next := s.Modifiers()
	next.Repeat = next.Repeat.Next()
	return s.SetPlaybackModifiers(next)
}

func (s *Session) Play() {
	s.player.Play()
}

func (s *Session) Pause() {
	s.player.Pause()
}

// TogglePause pauses when playing and resumes otherwise.
func (s *Session) TogglePause() {
	if s.IsPlaying() {
		s.player.Pause()
	} else {
		s.player.Play()
	}
}

// Stop halts playback without touching the queue.
func (s *Session) Stop() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()

	s.player.Stop()
	s.notify()
}

func (s *Session) Seek(seconds float64) {
	s.player.Seek(seconds)
}

// SetVolume clamps volume to 0..100 and forwards it.
func (s *Session) SetVolume(volume int) {
	volume = player.ClampVolume(volume)
	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()

	s.player.SetVolume(volume)
	s.notify()
}

func (s *Session) Mute() {
	s.setMuted(true)
	s.player.Mute()
	s.notify()
}

func (s *Session) Unmute() {
	s.setMuted(false)
	s.player.Unmute()
	s.notify()
}

// ToggleMute flips the muted flag.
func (s *Session) ToggleMute() {
	s.mu.Lock()
	muted := s.muted
	s.mu.Unlock()
	if muted {
		s.Unmute()
	} else {
		s.Mute()
	}
}

func (s *Session) setMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
}

func (s *Session) Modifiers() models.PlaybackModifiers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modifiers
}

func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Mode() models.PlaybackMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Queue returns a copy of the queue.
func (s *Session) Queue() []models.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Track(nil), s.queue...)
}
