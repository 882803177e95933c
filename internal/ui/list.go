package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/desertthunder/ytplay/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps a queued [models.Track] to implement [list.Item].
type trackItem struct {
	track   models.Track
	pos     int
	current bool
}

func (i trackItem) FilterValue() string { return i.track.Title }

func (i trackItem) Title() string {
	title := fmt.Sprintf("%d. %s", i.pos+1, i.track.Title)
	if i.current {
		return "▶ " + title
	}
	return title
}

func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	if i.track.DurationSeconds > 0 {
		desc = fmt.Sprintf("%s • %s", desc, formatter.FormatDuration(i.track.DurationSeconds))
	}
	return desc
}

// queueItems builds list items for tracks, marking the one at current.
func queueItems(tracks []models.Track, current int) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, pos: i, current: i == current}
	}
	return items
}
