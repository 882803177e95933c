package player

// State is the surface's playback state. Values mirror the embedded player's numeric codes.
type State int

const (
	StateUnknown   State = -2
	StateUnstarted State = -1
	StateEnded     State = 0
	StatePlaying   State = 1
	StatePaused    State = 2
	StateBuffering State = 3
	StateCued      State = 5
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	default:
		return ""
	}
}

// Error codes reported with [EventError].
const (
	ErrCodeInvalidParam  = 2
	ErrCodeHTML5         = 5
	ErrCodeNotFound      = 100
	ErrCodeNotEmbeddable = 101
	ErrCodeEmbedBlocked  = 150
)

// EventKind enumerates surface events.
type EventKind int

const (
	EventReady EventKind = iota
	EventStateChanged
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventStateChanged:
		return "state_changed"
	case EventError:
		return "error"
	default:
		return ""
	}
}

// Event is pushed from the surface to listeners.
type Event struct {
	Kind  EventKind
	State State // EventStateChanged
	Code  int   // EventError
}

// ReadyEvent is the constructor for [EventReady]
func ReadyEvent() Event { return Event{Kind: EventReady} }

// StateEvent is the constructor for [EventStateChanged]
func StateEvent(s State) Event { return Event{Kind: EventStateChanged, State: s} }

// ErrorEvent is the constructor for [EventError]
func ErrorEvent(code int) Event { return Event{Kind: EventError, Code: code} }
