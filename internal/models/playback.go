package models

// PlaybackMode selects who owns queue ordering.
type PlaybackMode int

const (
	// Explicit: the session issues a per-track load command for every transition.
	Explicit PlaybackMode = iota
	// Delegated: a native playlist was handed to the surface, which owns ordering.
	Delegated
)

func (m PlaybackMode) String() string {
	switch m {
	case Explicit:
		return "explicit"
	case Delegated:
		return "delegated"
	default:
		return ""
	}
}

// RepeatMode cycles None → All → One → None.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatAll
	RepeatOne
)

// Next returns the following mode in the repeat cycle.
func (r RepeatMode) Next() RepeatMode {
	switch r {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

func (r RepeatMode) String() string {
	switch r {
	case RepeatNone:
		return "none"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return ""
	}
}

// PlaybackModifiers holds shuffle and repeat. At most one of them is active.
type PlaybackModifiers struct {
	Shuffle bool
	Repeat  RepeatMode
}

// Normalize resolves a conflicting request against the previous state: whichever modifier was just enabled wins.
//
// When both are requested from a state that had neither, shuffle wins.
func (m PlaybackModifiers) Normalize(prev PlaybackModifiers) PlaybackModifiers {
	if !m.Shuffle || m.Repeat == RepeatNone {
		return m
	}
	shuffleEnabled := !prev.Shuffle
	repeatEnabled := prev.Repeat == RepeatNone
	if repeatEnabled && !shuffleEnabled {
		return PlaybackModifiers{Shuffle: false, Repeat: m.Repeat}
	}
	return PlaybackModifiers{Shuffle: true, Repeat: RepeatNone}
}

// SessionState is the playback session's lifecycle state.
type SessionState int

const (
	Idle SessionState = iota
	ExplicitActive
	DelegatedPending
	DelegatedActive
)

func (s SessionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case ExplicitActive:
		return "explicit_active"
	case DelegatedPending:
		return "delegated_pending"
	case DelegatedActive:
		return "delegated_active"
	default:
		return ""
	}
}
