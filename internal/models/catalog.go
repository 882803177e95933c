package models

import "strings"

// Thumbnail is an image reference from the catalog.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Artist is an artist reference inside catalog responses.
type Artist struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// AlbumRef is the album reference attached to a catalog track.
type AlbumRef struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// CatalogTrack is a track as returned by album, playlist and watch lookups.
type CatalogTrack struct {
	VideoID         string      `json:"videoId"`
	Title           string      `json:"title"`
	Artists         []Artist    `json:"artists"`
	Album           *AlbumRef   `json:"album,omitempty"`
	DurationSeconds int         `json:"duration_seconds,omitempty"`
	Thumbnails      []Thumbnail `json:"thumbnails,omitempty"`
}

// Album is the album lookup shape.
type Album struct {
	Title      string         `json:"title"`
	Artists    []Artist       `json:"artists,omitempty"`
	Thumbnails []Thumbnail    `json:"thumbnails"`
	Tracks     []CatalogTrack `json:"tracks"`
}

// Playlist is the playlist and watch lookup shape.
type Playlist struct {
	ID         string         `json:"id,omitempty"`
	Title      string         `json:"title,omitempty"`
	Thumbnails []Thumbnail    `json:"thumbnails,omitempty"`
	Tracks     []CatalogTrack `json:"tracks"`
}

// ArtistPage is the artist lookup shape.
type ArtistPage struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Thumbnails  []Thumbnail `json:"thumbnails,omitempty"`
	Songs       *Playlist   `json:"songs,omitempty"`
	Albums      []FeedItem  `json:"albums,omitempty"`
}

// FeedItem is one entry of a feed section or search result.
type FeedItem struct {
	Title      string      `json:"title"`
	VideoID    string      `json:"videoId,omitempty"`
	BrowseID   string      `json:"browseId,omitempty"`
	PlaylistID string      `json:"playlistId,omitempty"`
	Artists    []Artist    `json:"artists,omitempty"`
	Thumbnails []Thumbnail `json:"thumbnails,omitempty"`
}

// FeedSection is a titled row of the home, charts or moods feed.
type FeedSection struct {
	Title    string     `json:"title"`
	Contents []FeedItem `json:"contents"`
}

// Feed is the home, charts and moods lookup shape.
type Feed struct {
	Sections []FeedSection `json:"sections"`
}

// SearchResults is the search lookup shape.
type SearchResults struct {
	Query   string     `json:"query"`
	Results []FeedItem `json:"results"`
}

// ArtistNames joins the artist names with ", ".
func ArtistNames(artists []Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

// BestThumbnail returns the widest thumbnail URL, or "".
func BestThumbnail(thumbs []Thumbnail) string {
	best := -1
	url := ""
	for _, t := range thumbs {
		if t.Width > best {
			best = t.Width
			url = t.URL
		}
	}
	return url
}

// ToTrack converts a catalog track, falling back to albumTitle and albumThumb when the track carries none.
func (c CatalogTrack) ToTrack(albumTitle, albumThumb string) Track {
	album := albumTitle
	if c.Album != nil && c.Album.Name != "" {
		album = c.Album.Name
	}
	thumb := BestThumbnail(c.Thumbnails)
	if thumb == "" {
		thumb = albumThumb
	}
	artist := ArtistNames(c.Artists)
	if artist == "" {
		artist = UnknownArtist
	}
	return NewTrack(c.VideoID, c.Title, artist, thumb, album, c.DurationSeconds)
}

// PlayableTracks builds queue tracks from the album, skipping entries without a video id.
func (a Album) PlayableTracks() []Track {
	return toTracks(a.Tracks, a.Title, BestThumbnail(a.Thumbnails))
}

// PlayableTracks builds queue tracks from the playlist, skipping entries without a video id.
func (p Playlist) PlayableTracks() []Track {
	return toTracks(p.Tracks, "", BestThumbnail(p.Thumbnails))
}

func toTracks(items []CatalogTrack, albumTitle, albumThumb string) []Track {
	tracks := make([]Track, 0, len(items))
	for _, item := range items {
		if item.VideoID == "" {
			continue
		}
		tracks = append(tracks, item.ToTrack(albumTitle, albumThumb))
	}
	return tracks
}

// BrowseKeys returns the album and playlist keys referenced by the feed, without duplicates.
func (f Feed) BrowseKeys() []ContentKey {
	seen := make(map[ContentKey]bool)
	var keys []ContentKey
	add := func(k ContentKey) {
		if k.ID == "" || seen[k] {
			return
		}
		seen[k] = true
		keys = append(keys, k)
	}
	for _, section := range f.Sections {
		for _, item := range section.Contents {
			if item.BrowseID != "" {
				add(Key(ContentAlbum, item.BrowseID))
			}
			if item.PlaylistID != "" {
				add(Key(ContentPlaylist, item.PlaylistID))
			}
		}
	}
	return keys
}
