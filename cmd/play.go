package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/player"
	"github.com/desertthunder/ytplay/internal/server"
	"github.com/desertthunder/ytplay/internal/session"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/desertthunder/ytplay/internal/ui"
	"github.com/urfave/cli/v3"
)

const readyTimeout = 10 * time.Second

// playSource is what `play` was asked to play.
type playSource struct {
	title  string
	tracks []models.Track
	native string
	start  int
}

// durations remembers track lengths so the simulated surface can time items it only knows by id.
type durations struct {
	mu       sync.RWMutex
	byID     map[string]float64
	fallback float64
}

func newDurations(fallback int) *durations {
	return &durations{byID: make(map[string]float64), fallback: float64(fallback)}
}

func (d *durations) add(tracks []models.Track) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range tracks {
		if t.DurationSeconds > 0 {
			d.byID[t.VideoID] = float64(t.DurationSeconds)
		}
	}
}

func (d *durations) of(videoID string) float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if v, ok := d.byID[videoID]; ok {
		return v
	}
	return d.fallback
}

// resolveSource reads the queue file or builds the album/playlist queue named by the flags.
// Exactly one source must be given.
func (r *Runner) resolveSource(ctx context.Context, cmd *cli.Command) (*playSource, error) {
	given := 0
	for _, name := range []string{"queue", "album", "playlist", "native"} {
		if cmd.String(name) != "" {
			given++
		}
	}
	if given == 0 {
		return nil, fmt.Errorf("%w: one of --queue, --album, --playlist or --native", shared.ErrMissingArgument)
	}
	if given > 1 {
		return nil, fmt.Errorf("%w: --queue, --album, --playlist and --native are exclusive", shared.ErrInvalidFlag)
	}

	src := &playSource{start: int(cmd.Int("start"))}
	switch {
	case cmd.String("native") != "":
		src.native = cmd.String("native")
		src.title = "Playlist " + src.native
		return src, nil

	case cmd.String("queue") != "":
		q, err := formatter.ReadQueueYAML(cmd.String("queue"))
		if err != nil {
			return nil, err
		}
		src.title, src.tracks = q.Title, q.Tracks
		if !cmd.IsSet("start") {
			src.start = q.Start
		}
		if src.title == "" {
			src.title = filepath.Base(cmd.String("queue"))
		}

	default:
		key := models.Key(models.ContentAlbum, cmd.String("album"))
		if id := cmd.String("playlist"); id != "" {
			key = models.Key(models.ContentPlaylist, id)
		}
		q, err := r.catalog().BuildQueue(ctx, key)
		if err != nil {
			return nil, err
		}
		src.title, src.tracks = q.Title, q.Tracks
	}

	if len(src.tracks) == 0 {
		return nil, shared.ErrEmptyQueue
	}
	if src.start < 0 || src.start >= len(src.tracks) {
		return nil, fmt.Errorf("%w: --start %d with %d tracks", shared.ErrInvalidIndex, src.start, len(src.tracks))
	}
	return src, nil
}

// simulatedScript builds the surface script. Native playlists resolve their members through the catalog.
func (r *Runner) simulatedScript(d *durations, logger *log.Logger) *player.SimulatedScript {
	return &player.SimulatedScript{
		Resolve: func(ctx context.Context, playlistID string) ([]string, error) {
			q, err := r.catalog().BuildQueue(ctx, models.Key(models.ContentPlaylist, playlistID))
			if err != nil {
				return nil, err
			}
			d.add(q.Tracks)
			ids := make([]string, len(q.Tracks))
			for i, t := range q.Tracks {
				ids[i] = t.VideoID
			}
			return ids, nil
		},
		DurationOf: d.of,
		Speed:      r.config.Player.Speed,
		Logger:     logger,
	}
}

// waitReady blocks until the adapter reports ready.
func waitReady(ctx context.Context, adapter *player.Adapter) error {
	ready := make(chan struct{})
	var once sync.Once
	remove := adapter.OnEvent(func(ev player.Event) {
		if ev.Kind == player.EventReady {
			once.Do(func() { close(ready) })
		}
	})
	defer remove()

	if adapter.Ready() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: player surface not ready: %w", shared.ErrTimeout, ctx.Err())
	}
}

// Play drives a queue through the simulated surface, with the TUI or headless.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	repeat, err := parseRepeat(cmd.String("repeat"))
	if err != nil {
		return err
	}

	headless := cmd.Bool("headless")
	if !headless {
		fileLogger, err := shared.NewFileLogger(r.config.Logging.File)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Logging.Level))
		r.SetLogger(fileLogger)
	}

	src, err := r.resolveSource(ctx, cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d := newDurations(r.config.Player.DefaultSecs)
	d.add(src.tracks)

	loader := player.NewLoader(r.simulatedScript(d, r.logger).Bootstrap(), r.logger)
	adapter := player.NewAdapter(loader, r.logger)
	sess := session.New(adapter, session.Options{Resolver: r.resolver, Logger: r.logger})
	remove := adapter.OnEvent(sess.HandleEvent)
	defer remove()

	if err := adapter.Init(ctx); err != nil {
		return err
	}
	defer adapter.Close()
	go sess.Run(ctx)

	if err := waitReady(ctx, adapter); err != nil {
		return err
	}
	sess.SetVolume(r.config.Player.Volume)
	sess.SetPlaybackModifiers(models.PlaybackModifiers{Shuffle: cmd.Bool("shuffle"), Repeat: repeat})

	if addr := cmd.String("listen"); addr != "" {
		router := server.NewBasicRouter()
		router.Use(server.Recover(r.logger), server.Logging(r.logger))
		router.Handler(server.NewControlHandler(sess, r.logger))
		go func() {
			if err := server.Serve(ctx, addr, router, r.logger); err != nil {
				r.logger.Error("control server stopped", "error", err)
			}
		}()
	}

	start := func(ctx context.Context) error {
		if src.native != "" {
			return sess.SwitchToDelegated(ctx, src.native)
		}
		sess.SetQueue(src.tracks, src.start)
		return sess.PlayByIndex(src.start)
	}

	if headless {
		return r.playHeadless(ctx, sess, start)
	}

	p := tea.NewProgram(ui.NewModel(ctx, sess, src.title, start), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// playHeadless logs now-playing changes until an explicit queue runs out or the process is interrupted.
func (r *Runner) playHeadless(ctx context.Context, sess *session.Session, start func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	finished := make(chan struct{})
	var (
		once      sync.Once
		active    bool
		lastIndex = -2
		lastState models.SessionState
	)
	unsubscribe := sess.Subscribe(func(s session.Snapshot) {
		if s.CurrentIndex != lastIndex || s.State != lastState {
			r.logger.Info(formatter.NowPlaying(s))
			lastIndex, lastState = s.CurrentIndex, s.State
		}
		if s.State != models.Idle {
			active = true
		}
		if active && s.State == models.Idle && s.Mode == models.Explicit {
			once.Do(func() { close(finished) })
		}
	})
	defer unsubscribe()

	if err := start(ctx); err != nil {
		if !errors.Is(err, shared.ErrDiscoveryTimeout) {
			return err
		}
		r.logger.Warn("native playlist members not discovered; playback continues without a queue", "error", err)
	}

	select {
	case <-ctx.Done():
	case <-finished:
	}

	sess.Stop()
	return r.writePlain("%s", formatter.QueueListing(sess.Snapshot()))
}

func parseRepeat(s string) (models.RepeatMode, error) {
	switch s {
	case "", "none", "off":
		return models.RepeatNone, nil
	case "all":
		return models.RepeatAll, nil
	case "one":
		return models.RepeatOne, nil
	default:
		return models.RepeatNone, fmt.Errorf("%w: repeat must be none, all or one", shared.ErrInvalidFlag)
	}
}
