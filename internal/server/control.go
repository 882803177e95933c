package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/session"
	"github.com/desertthunder/ytplay/internal/shared"
)

// Controller is the part of [session.Session] exposed over HTTP.
type Controller interface {
	Snapshot() session.Snapshot
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

var (
	_ Controller = (*session.Session)(nil)
	_ Handler    = (*ControlHandler)(nil)
)

// TrackStatus is the JSON form of a queued track.
type TrackStatus struct {
	VideoID  string `json:"video_id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration_seconds,omitempty"`
}

// Status is the JSON form of a [session.Snapshot].
type Status struct {
	State        string        `json:"state"`
	Mode         string        `json:"mode"`
	CurrentIndex int           `json:"current_index"`
	Current      *TrackStatus  `json:"current,omitempty"`
	QueueLength  int           `json:"queue_length"`
	Playing      bool          `json:"playing"`
	Shuffle      bool          `json:"shuffle"`
	Repeat       string        `json:"repeat"`
	CurrentTime  float64       `json:"current_time"`
	Duration     float64       `json:"duration"`
	Volume       int           `json:"volume"`
	Muted        bool          `json:"muted"`
	Ready        bool          `json:"ready"`
	PlaylistID   string        `json:"playlist_id,omitempty"`
	Queue        []TrackStatus `json:"queue,omitempty"`
}

// NewStatus converts a snapshot. The full queue is included only when withQueue is set.
func NewStatus(s session.Snapshot, withQueue bool) Status {
	st := Status{
		State:        s.State.String(),
		Mode:         s.Mode.String(),
		CurrentIndex: s.CurrentIndex,
		QueueLength:  len(s.Queue),
		Playing:      s.IsPlaying,
		Shuffle:      s.Modifiers.Shuffle,
		Repeat:       s.Modifiers.Repeat.String(),
		CurrentTime:  s.CurrentTime,
		Duration:     s.Duration,
		Volume:       s.Volume,
		Muted:        s.Muted,
		Ready:        s.Ready,
		PlaylistID:   s.PlaylistID,
	}
	if t, ok := s.Current(); ok {
		ts := trackStatus(t)
		st.Current = &ts
	}
	if withQueue {
		st.Queue = make([]TrackStatus, len(s.Queue))
		for i, t := range s.Queue {
			st.Queue[i] = trackStatus(t)
		}
	}
	return st
}

func trackStatus(t models.Track) TrackStatus {
	return TrackStatus{VideoID: t.VideoID, Title: t.Title, Artist: t.Artist, Album: t.Album, Duration: t.DurationSeconds}
}

// ControlHandler serves the remote-control API for one session.
type ControlHandler struct {
	ctrl   Controller
	logger *log.Logger
	mux    *http.ServeMux
}

// NewControlHandler creates a handler driving ctrl.
func NewControlHandler(ctrl Controller, logger *log.Logger) *ControlHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	h := &ControlHandler{ctrl: ctrl, logger: shared.WithLogger(logger, "component", "control"), mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /status", h.status)
	h.mux.HandleFunc("GET /queue", h.queue)
	h.mux.HandleFunc("POST /play/{index}", h.playAt)
	h.mux.HandleFunc("POST /next", h.command(ctrl.PlayNext))
	h.mux.HandleFunc("POST /previous", h.command(ctrl.PlayPrevious))
	h.mux.HandleFunc("POST /pause", h.action(ctrl.TogglePause))
	h.mux.HandleFunc("POST /stop", h.action(ctrl.Stop))
	h.mux.HandleFunc("POST /mute", h.action(ctrl.ToggleMute))
	h.mux.HandleFunc("POST /shuffle", h.action(func() { ctrl.ToggleShuffle() }))
	h.mux.HandleFunc("POST /repeat", h.action(func() { ctrl.ToggleRepeat() }))
	h.mux.HandleFunc("POST /seek", h.seek)
	h.mux.HandleFunc("POST /volume", h.volume)
	return h
}

// Routes returns the patterns served by the handler.
func (h *ControlHandler) Routes() []string {
	return []string{
		"GET /status", "GET /queue",
		"POST /play/{index}", "POST /next", "POST /previous", "POST /pause", "POST /stop",
		"POST /mute", "POST /shuffle", "POST /repeat", "POST /seek", "POST /volume",
	}
}

func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *ControlHandler) status(w http.ResponseWriter, r *http.Request) {
	withQueue := r.URL.Query().Get("queue") == "true"
	h.writeJSON(w, http.StatusOK, NewStatus(h.ctrl.Snapshot(), withQueue))
}

func (h *ControlHandler) queue(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, formatter.QueueListing(h.ctrl.Snapshot()))
}

func (h *ControlHandler) playAt(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: index %q", shared.ErrInvalidArgument, r.PathValue("index")))
		return
	}
	h.command(func() error { return h.ctrl.PlayByIndex(index) })(w, r)
}

func (h *ControlHandler) seek(w http.ResponseWriter, r *http.Request) {
	to, err := strconv.ParseFloat(r.URL.Query().Get("to"), 64)
	if err != nil || math.IsNaN(to) || math.IsInf(to, 0) {
		h.writeError(w, fmt.Errorf("%w: to must be a number of seconds", shared.ErrInvalidArgument))
		return
	}
	h.action(func() { h.ctrl.Seek(to) })(w, r)
}

func (h *ControlHandler) volume(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(r.URL.Query().Get("level"))
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: level must be an integer", shared.ErrInvalidArgument))
		return
	}
	h.action(func() { h.ctrl.SetVolume(level) })(w, r)
}

func (h *ControlHandler) command(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if err := fn(); err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, NewStatus(h.ctrl.Snapshot(), false))
	}
}

func (h *ControlHandler) action(fn func()) http.HandlerFunc {
	return h.command(func() error {
		fn()
		return nil
	})
}

func (h *ControlHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrInvalidIndex), errors.Is(err, shared.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrEmptyQueue):
		status = http.StatusConflict
	}
	h.logger.Debug("control command failed", "status", status, "error", err)
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *ControlHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", "error", err)
	}
}
