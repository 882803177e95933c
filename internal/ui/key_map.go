package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	play     key.Binding
	pause    key.Binding
	next     key.Binding
	previous key.Binding
	stop     key.Binding
	forward  key.Binding
	rewind   key.Binding
	louder   key.Binding
	quieter  key.Binding
	mute     key.Binding
	shuffle  key.Binding
	repeat   key.Binding
	help     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		play:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		pause:    key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "pause")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		previous: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		stop:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		forward:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "+10s")),
		rewind:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "-10s")),
		louder:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		quieter:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		mute:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		shuffle:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		repeat:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.pause, k.next, k.previous, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.play, k.pause},
		{k.next, k.previous, k.stop, k.forward, k.rewind},
		{k.louder, k.quieter, k.mute},
		{k.shuffle, k.repeat, k.help, k.quit},
	}
}
