// package formatter renders queues and playback state as CSV, Markdown, plain text and YAML queue files
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/session"
	"github.com/desertthunder/ytplay/internal/shared"
	"gopkg.in/yaml.v3"
)

// QueueFile is a named, ordered track list. It is the on-disk format for queues.
type QueueFile struct {
	Title  string         `yaml:"title" json:"title"`
	Source string         `yaml:"source,omitempty" json:"source,omitempty"`
	Start  int            `yaml:"start,omitempty" json:"start,omitempty"`
	Tracks []models.Track `yaml:"tracks" json:"-"`
}

// NewQueueFile builds a [QueueFile] for tracks resolved from source.
func NewQueueFile(title string, source models.ContentKey, tracks []models.Track) *QueueFile {
	return &QueueFile{Title: title, Source: source.String(), Tracks: tracks}
}

// ID returns a filesystem-friendly identifier derived from the source key, or the title.
func (q *QueueFile) ID() string {
	id := q.Source
	if _, after, ok := strings.Cut(id, ":"); ok {
		id = after
	}
	if id == "" {
		id = q.Title
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, id)
}

// FormatDuration renders seconds as m:ss, or h:mm:ss past an hour. Negative values render as "--:--".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		return "--:--"
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// QueueToCSV converts a queue to CSV with columns: VideoID, Title, Artist, Album, Duration, Thumbnail
func QueueToCSV(q *QueueFile) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"VideoID", "Title", "Artist", "Album", "Duration", "Thumbnail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range q.Tracks {
		record := []string{
			track.VideoID,
			track.Title,
			track.Artist,
			track.Album,
			strconv.Itoa(track.DurationSeconds),
			track.Thumbnail,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// QueueToMarkdown converts a queue to Markdown with an optional cover image
func QueueToMarkdown(q *QueueFile, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", q.Title)
	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}
	if q.Source != "" {
		fmt.Fprintf(&buf, "**Source**: `%s`\n", q.Source)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(q.Tracks))
	fmt.Fprintf(&buf, "**Length**: %s\n\n", FormatDuration(totalSeconds(q.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range q.Tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.Artist, track.Title, albumPart, FormatDuration(track.DurationSeconds))
	}
	return buf.Bytes(), nil
}

// QueueToText converts a queue to plain text
func QueueToText(q *QueueFile) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Queue: %s\n", q.Title)
	if q.Source != "" {
		fmt.Fprintf(&buf, "Source: %s\n", q.Source)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(q.Tracks))

	for i, track := range q.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Title)
	}
	return buf.Bytes(), nil
}

// QueueToYAML encodes a queue file.
func QueueToYAML(q *QueueFile) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(q); err != nil {
		return nil, fmt.Errorf("failed to encode queue: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode queue: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseQueueYAML decodes a queue file. Tracks without a video id are rejected; missing thumbnails are derived.
func ParseQueueYAML(data []byte) (*QueueFile, error) {
	var q QueueFile
	if err := yaml.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	for i, track := range q.Tracks {
		if track.VideoID == "" {
			return nil, fmt.Errorf("%w: track %d has no video_id", shared.ErrInvalidInput, i+1)
		}
		if track.Thumbnail == "" {
			q.Tracks[i].Thumbnail = models.ThumbnailURL(track.VideoID)
		}
	}
	if q.Start < 0 || (len(q.Tracks) > 0 && q.Start >= len(q.Tracks)) {
		return nil, fmt.Errorf("%w: start %d outside queue of %d tracks", shared.ErrInvalidInput, q.Start, len(q.Tracks))
	}
	return &q, nil
}

// ReadQueueYAML loads a queue file from path.
func ReadQueueYAML(path string) (*QueueFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue file: %w", err)
	}
	return ParseQueueYAML(data)
}

// WriteQueueYAML writes q to path, defaulting to {id}.yaml.
func WriteQueueYAML(q *QueueFile, path string) (string, error) {
	if path == "" {
		path = q.ID() + ".yaml"
	}
	data, err := QueueToYAML(q)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write queue file: %w", err)
	}
	return path, nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of queue metadata (without tracks)
func ToMetadataJSON(q *QueueFile) ([]byte, error) {
	meta := struct {
		*QueueFile
		TrackCount int `json:"track_count"`
		Seconds    int `json:"total_seconds"`
	}{q, len(q.Tracks), totalSeconds(q.Tracks)}
	return json.MarshalIndent(meta, "", "  ")
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a queue to CSV format with accompanying metadata JSON file.
//
// Defaults to the queue ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(q *QueueFile, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = q.ID()
	}

	csvData, err := QueueToCSV(q)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(q)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{TracksFile: tracksFile, MetadataFile: metadataFile}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a queue to Markdown format in a dedicated directory.
//
// Directory name defaults to the queue ID. When imageURL is set the cover is downloaded; a failed download
// is reported through warn and does not fail the export.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(q *QueueFile, outputDir, imageURL string, warn func(msg string, kv ...any)) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = q.ID()
	}
	if warn == nil {
		warn = func(string, ...any) {}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			warn("failed to download cover image", "error", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				warn("failed to save cover image", "error", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := QueueToMarkdown(q, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteTextExport exports a queue to plain text format.
//
// Defaults to {id}_tracks.txt as the filename.
func WriteTextExport(q *QueueFile, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.txt", q.ID())
	}

	textData, err := QueueToText(q)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}

// ManifestEntry records the outcome of exporting one queue.
type ManifestEntry struct {
	Source string   `json:"source"`
	Title  string   `json:"title,omitempty"`
	Files  []string `json:"files,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Manifest summarizes a bulk export.
type Manifest struct {
	Format    string          `json:"format"`
	Directory string          `json:"directory"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	CreatedAt time.Time       `json:"created_at"`
	Entries   []ManifestEntry `json:"entries"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// NowPlaying renders a single status line for a session snapshot.
func NowPlaying(s session.Snapshot) string {
	track, ok := s.Current()
	if !ok {
		return fmt.Sprintf("[%s] nothing selected (%d queued)", s.State, len(s.Queue))
	}

	status := "paused"
	if s.IsPlaying {
		status = "playing"
	}
	position := fmt.Sprintf("%s/%s", FormatDuration(int(s.CurrentTime)), FormatDuration(int(s.Duration)))
	return fmt.Sprintf("[%s] %d/%d %s - %s %s (%s)%s",
		status, s.CurrentIndex+1, len(s.Queue), track.Artist, track.Title, position, s.Mode, modifierSuffix(s.Modifiers))
}

// QueueListing renders the queue with a marker on the current entry.
func QueueListing(s session.Snapshot) string {
	var b strings.Builder
	for i, track := range s.Queue {
		marker := "  "
		if i == s.CurrentIndex {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%2d. %s - %s\n", marker, i+1, track.Artist, track.Title)
	}
	return b.String()
}

func modifierSuffix(m models.PlaybackModifiers) string {
	switch {
	case m.Shuffle:
		return " [shuffle]"
	case m.Repeat != models.RepeatNone:
		return fmt.Sprintf(" [repeat %s]", m.Repeat)
	default:
		return ""
	}
}

func totalSeconds(tracks []models.Track) int {
	total := 0
	for _, t := range tracks {
		total += t.DurationSeconds
	}
	return total
}
