package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/shared"
)

// LoaderState is the bootstrap lifecycle of the control script.
type LoaderState int

const (
	NotLoaded LoaderState = iota
	Loading
	Ready
)

func (s LoaderState) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return ""
	}
}

type loadResult struct {
	script Script
	err    error
}

// Loader bootstraps the control script once and hands the result to every caller.
//
// Waiters registered while a bootstrap is in flight are released exactly once. A failed bootstrap
// returns the loader to [NotLoaded] so a later call may retry.
type Loader struct {
	mu        sync.Mutex
	state     LoaderState
	script    Script
	waiters   []chan loadResult
	bootstrap Bootstrap
	logger    *log.Logger
}

// NewLoader creates a [Loader] for the given bootstrap function.
func NewLoader(bootstrap Bootstrap, logger *log.Logger) *Loader {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Loader{bootstrap: bootstrap, logger: shared.WithLogger(logger, "component", "loader")}
}

// State reports the current lifecycle state.
func (l *Loader) State() LoaderState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Load returns the loaded script, starting a bootstrap if none has succeeded yet.
//
// Cancelling ctx abandons the wait but not the bootstrap itself, which still releases the other waiters.
func (l *Loader) Load(ctx context.Context) (Script, error) {
	l.mu.Lock()
	if l.state == Ready {
		script := l.script
		l.mu.Unlock()
		return script, nil
	}

	ch := make(chan loadResult, 1)
	l.waiters = append(l.waiters, ch)
	if l.state == NotLoaded {
		l.state = Loading
		go l.run()
	}
	l.mu.Unlock()

	select {
	case r := <-ch:
		return r.script, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) run() {
	l.logger.Debug("bootstrapping player script")
	script, err := l.bootstrap(context.Background())
	if err == nil && script == nil {
		err = fmt.Errorf("%w: bootstrap returned no script", shared.ErrLoaderFailed)
	} else if err != nil {
		err = fmt.Errorf("%w: %w", shared.ErrLoaderFailed, err)
	}

	l.mu.Lock()
	waiters := l.waiters
	l.waiters = nil
	if err != nil {
		l.state = NotLoaded
		l.script = nil
	} else {
		l.state = Ready
		l.script = script
	}
	l.mu.Unlock()

	if err != nil {
		l.logger.Error("player script failed to load", "error", err, "waiters", len(waiters))
	} else {
		l.logger.Info("player script ready", "waiters", len(waiters))
	}

	for _, w := range waiters {
		w <- loadResult{script: script, err: err}
	}
}
