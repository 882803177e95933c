package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytplay/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSnapshot MsgKind = iota
	MsgStarted
	MsgCommandFailed
)

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(s session.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: s}
}

// startedMsg is the constructor for [MsgStarted]
func startedMsg(err error) Msg {
	return Msg{kind: MsgStarted, data: err}
}

// commandFailedMsg is the constructor for [MsgCommandFailed]
func commandFailedMsg(op string, err error) Msg {
	return Msg{
		kind: MsgCommandFailed,
		data: struct {
			op  string
			err error
		}{op, err},
	}
}
