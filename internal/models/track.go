package models

import "fmt"

const (
	PlaceholderTitle = "Loading..."
	UnknownTitle     = "Unknown"
	UnknownArtist    = "Unknown Artist"
)

// Track identifies one playable media item and its display metadata.
//
// Tracks are values: queues replace entries instead of mutating them.
type Track struct {
	VideoID         string `json:"videoId" yaml:"video_id"`
	Title           string `json:"title" yaml:"title"`
	Artist          string `json:"artist" yaml:"artist"`
	Thumbnail       string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Album           string `json:"album,omitempty" yaml:"album,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty" yaml:"duration_seconds,omitempty"`
}

// NewTrack builds a [Track], deriving the thumbnail from the id when none is given.
func NewTrack(videoID, title, artist, thumbnail, album string, durationSeconds int) Track {
	if thumbnail == "" {
		thumbnail = ThumbnailURL(videoID)
	}
	return Track{
		VideoID:         videoID,
		Title:           title,
		Artist:          artist,
		Thumbnail:       thumbnail,
		Album:           album,
		DurationSeconds: durationSeconds,
	}
}

// PlaceholderTrack is shown for a native playlist member before its metadata resolves.
func PlaceholderTrack(videoID string) Track {
	return Track{VideoID: videoID, Title: PlaceholderTitle, Thumbnail: ThumbnailURL(videoID)}
}

// UnknownTrack is the degraded form of a member whose metadata could not be resolved.
func UnknownTrack(videoID string) Track {
	return Track{VideoID: videoID, Title: UnknownTitle, Artist: UnknownArtist, Thumbnail: ThumbnailURL(videoID)}
}

// WithMetadata returns a copy of t with the resolved title and artist.
func (t Track) WithMetadata(title, artist string) Track {
	if title == "" {
		title = UnknownTitle
	}
	if artist == "" {
		artist = UnknownArtist
	}
	t.Title = title
	t.Artist = artist
	return t
}

// IsPlaceholder reports whether t still awaits hydration.
func (t Track) IsPlaceholder() bool {
	return t.Title == PlaceholderTitle && t.Artist == ""
}

// ThumbnailURL derives a deterministic thumbnail location from a video id.
func ThumbnailURL(videoID string) string {
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID)
}
