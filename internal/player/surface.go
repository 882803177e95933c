package player

import "context"

// Surface is the scripted media-control object. Implementations may emit events from any goroutine.
type Surface interface {
	LoadVideoByID(videoID string) error
	LoadPlaylist(playlistID string, index int) error
	PlayVideoAt(index int) error
	NextVideo() error
	PreviousVideo() error
	PlayVideo() error
	PauseVideo() error
	StopVideo() error
	SeekTo(seconds float64) error
	SetVolume(volume int) error
	Mute() error
	UnMute() error

	Playlist() ([]string, error)
	PlaylistIndex() (int, error)
	CurrentTime() (float64, error)
	Duration() (float64, error)
	PlayerState() (State, error)

	Destroy() error
}

// Script is the loaded control library. It constructs surfaces wired to an event sink.
type Script interface {
	NewSurface(emit func(Event)) (Surface, error)
}

// Bootstrap loads the control library. It runs at most once per successful [Loader] lifecycle.
type Bootstrap func(ctx context.Context) (Script, error)
