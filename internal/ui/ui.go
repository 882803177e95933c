package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/session"
)

const (
	seekStep   = 10.0
	volumeStep = 5
	barWidth   = 30
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	PlayerView
)

// Controller is the part of [session.Session] the TUI drives.
type Controller interface {
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Snapshot)) func()
	PlayByIndex(i int) error
	PlayNext() error
	PlayPrevious() error
	TogglePause()
	Stop()
	Seek(seconds float64)
	SetVolume(volume int)
	ToggleMute()
	ToggleShuffle() models.PlaybackModifiers
	ToggleRepeat() models.PlaybackModifiers
}

var _ Controller = (*session.Session)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	ctrl        Controller
	start       func(context.Context) error
	title       string
	view        ViewState
	snap        session.Snapshot
	snapshots   chan session.Snapshot
	unsubscribe func()
	queue       list.Model
	width       int
	height      int
	status      string
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a TUI model for ctrl. start, when set, runs once from Init (for example loading a queue or
// switching to a native playlist); the loading view is shown until it returns.
func NewModel(ctx context.Context, ctrl Controller, title string, start func(context.Context) error) *Model {
	queue := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	queue.Title = "Queue"
	queue.SetShowHelp(false)
	queue.SetFilteringEnabled(false)
	queue.KeyMap.Quit.SetEnabled(false)

	view := PlayerView
	if start != nil {
		view = LoadingView
	}

	return &Model{
		ctx:       ctx,
		ctrl:      ctrl,
		start:     start,
		title:     title,
		view:      view,
		snap:      ctrl.Snapshot(),
		snapshots: make(chan session.Snapshot, 1),
		queue:     queue,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init subscribes to the session and runs the start function.
func (m *Model) Init() tea.Cmd {
	m.unsubscribe = m.ctrl.Subscribe(m.push)
	m.applySnapshot(m.snap)

	cmds := []tea.Cmd{m.waitForSnapshot()}
	if m.start != nil {
		cmds = append(cmds, m.runStart())
	}
	return tea.Batch(cmds...)
}

// push keeps only the latest snapshot in the channel. It never blocks the session.
func (m *Model) push(s session.Snapshot) {
	select {
	case m.snapshots <- s:
		return
	default:
	}
	select {
	case <-m.snapshots:
	default:
	}
	select {
	case m.snapshots <- s:
	default:
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.queue.SetSize(msg.Width-4, max(msg.Height-10, 4))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgSnapshot:
			cmd := m.applySnapshot(msg.data.(session.Snapshot))
			return m, tea.Batch(cmd, m.waitForSnapshot())
		case MsgStarted:
			m.view = PlayerView
			if err, _ := msg.data.(error); err != nil {
				m.err = err
			}
			return m, m.applySnapshot(m.ctrl.Snapshot())
		case MsgCommandFailed:
			data := msg.data.(struct {
				op  string
				err error
			})
			m.status = fmt.Sprintf("%s: %v", data.op, data.err)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return m.renderLoading()
	case PlayerView:
		return m.renderPlayer()
	default:
		return ""
	}
}

func (m *Model) applySnapshot(s session.Snapshot) tea.Cmd {
	prev := m.snap.CurrentIndex
	m.snap = s
	cmd := m.queue.SetItems(queueItems(s.Queue, s.CurrentIndex))
	if s.CurrentIndex >= 0 && (s.CurrentIndex != prev || m.queue.Index() >= len(s.Queue)) {
		m.queue.Select(s.CurrentIndex)
	}
	return cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		if m.unsubscribe != nil {
			m.unsubscribe()
			m.unsubscribe = nil
		}
		return m, tea.Quit
	}
	if m.view == LoadingView {
		return m, nil
	}
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.play):
		if item, ok := m.queue.SelectedItem().(trackItem); ok {
			pos := item.pos
			return m, m.run("play", func() error { return m.ctrl.PlayByIndex(pos) })
		}
		return m, nil
	case key.Matches(msg, m.keys.pause):
		return m, m.do("pause", m.ctrl.TogglePause)
	case key.Matches(msg, m.keys.next):
		return m, m.run("next", m.ctrl.PlayNext)
	case key.Matches(msg, m.keys.previous):
		return m, m.run("previous", m.ctrl.PlayPrevious)
	case key.Matches(msg, m.keys.stop):
		return m, m.do("stop", m.ctrl.Stop)
	case key.Matches(msg, m.keys.forward):
		at := m.snap.CurrentTime + seekStep
		return m, m.do("seek", func() { m.ctrl.Seek(at) })
	case key.Matches(msg, m.keys.rewind):
		at := max(m.snap.CurrentTime-seekStep, 0)
		return m, m.do("seek", func() { m.ctrl.Seek(at) })
	case key.Matches(msg, m.keys.louder):
		v := m.snap.Volume + volumeStep
		return m, m.do("volume", func() { m.ctrl.SetVolume(v) })
	case key.Matches(msg, m.keys.quieter):
		v := m.snap.Volume - volumeStep
		return m, m.do("volume", func() { m.ctrl.SetVolume(v) })
	case key.Matches(msg, m.keys.mute):
		return m, m.do("mute", m.ctrl.ToggleMute)
	case key.Matches(msg, m.keys.shuffle):
		return m, m.do("shuffle", func() { m.ctrl.ToggleShuffle() })
	case key.Matches(msg, m.keys.repeat):
		return m, m.do("repeat", func() { m.ctrl.ToggleRepeat() })
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

// run issues a session command off the update loop and reports its error.
func (m *Model) run(op string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return commandFailedMsg(op, err)
		}
		return nil
	}
}

func (m *Model) do(op string, fn func()) tea.Cmd {
	return m.run(op, func() error {
		fn()
		return nil
	})
}

func (m *Model) runStart() tea.Cmd {
	return func() tea.Msg {
		return startedMsg(m.start(m.ctx))
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.snapshots:
			return snapshotMsg(s)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) renderLoading() string {
	title := styles.title.Render(m.title)
	msg := "Loading player..."
	if m.snap.State == models.DelegatedPending {
		msg = "Discovering playlist members..."
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, styles.dim.Render(msg), helpView)
}

func (m *Model) renderPlayer() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(m.title))
	b.WriteString("\n")

	nowPlaying := formatter.NowPlaying(m.snap)
	if m.snap.IsPlaying {
		nowPlaying = styles.playing.Render(nowPlaying)
	}
	b.WriteString(nowPlaying)
	b.WriteString("\n")
	b.WriteString(progressBar(m.snap.CurrentTime, m.snap.Duration, barWidth))
	b.WriteString("  ")
	b.WriteString(volumeLabel(m.snap))
	b.WriteString("\n\n")

	if len(m.snap.Queue) == 0 {
		b.WriteString(styles.dim.Render("Queue is empty"))
	} else {
		b.WriteString(m.queue.View())
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(styles.warn.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// progressBar renders elapsed/duration as a fixed-width bar. Unknown durations render an empty bar.
func progressBar(current, duration float64, width int) string {
	filled := 0
	if duration > 0 && current > 0 {
		filled = min(int(current/duration*float64(width)), width)
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

func volumeLabel(s session.Snapshot) string {
	if s.Muted {
		return styles.warn.Render("muted")
	}
	return fmt.Sprintf("vol %d", s.Volume)
}
