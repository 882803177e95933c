package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/prefetch"
	"github.com/desertthunder/ytplay/internal/shared"
)

// FeedResult is the outcome of a top-level feed load.
//
// Failed marks the recoverable "show retry" state: the origin gave up after its retries and nothing was cached.
type FeedResult struct {
	Key      models.ContentKey
	Feed     *models.Feed
	Tier     models.Tier
	NotFound bool
	Failed   bool
	Err      error
	Warm     *prefetch.BatchResult
}

// CatalogEngine defines catalog operations used by the CLI and TUI.
type CatalogEngine interface {
	// LoadFeed resolves a home, charts or moods feed and warms the content it references.
	LoadFeed(ctx context.Context, key models.ContentKey, progress chan<- ProgressUpdate) (*FeedResult, error)

	// Warm prefetches keys and reports where each was found.
	Warm(ctx context.Context, keys []models.ContentKey, progress chan<- ProgressUpdate) prefetch.BatchResult

	// BuildQueue resolves an album, playlist, watch list or artist into a playable queue.
	BuildQueue(ctx context.Context, key models.ContentKey) (*formatter.QueueFile, error)

	// BulkExport writes the queues for keys to disk concurrently.
	BulkExport(ctx context.Context, progress chan<- ProgressUpdate, keys []models.ContentKey, opts BulkExportOpts) (*BulkExportResult, error)
}

// Engine implements [CatalogEngine] on top of a [prefetch.Cache].
type Engine struct {
	cache  *prefetch.Cache
	logger *log.Logger
}

var _ CatalogEngine = (*Engine)(nil)

// NewEngine creates a new Engine backed by cache.
func NewEngine(cache *prefetch.Cache, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{cache: cache, logger: shared.WithLogger(logger, "component", "tasks")}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// LoadFeed resolves a feed key. A failed load returns a result with Failed set alongside the error.
// Warming failures are only counted.
func (e *Engine) LoadFeed(ctx context.Context, key models.ContentKey, progress chan<- ProgressUpdate) (*FeedResult, error) {
	switch key.Type {
	case models.ContentHome, models.ContentCharts, models.ContentMoods:
	default:
		return nil, fmt.Errorf("%w: %s is not a feed", shared.ErrInvalidArgument, key.Type)
	}

	result := &FeedResult{Key: key}
	e.sendProgress(progress, loadingFeedUpdate(key))

	rec, err := e.cache.Prefetch(ctx, key)
	if err != nil {
		result.Failed = true
		result.Err = err
		e.logger.Warn("feed load failed", "key", key, "error", err)
		e.sendProgress(progress, feedFailedUpdate(key, err))
		return result, err
	}
	if rec == nil {
		result.NotFound = true
		return result, nil
	}

	var feed models.Feed
	if err := rec.Decode(&feed); err != nil {
		result.Failed = true
		result.Err = fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
		return result, result.Err
	}
	result.Feed = &feed
	result.Tier = rec.Tier
	e.sendProgress(progress, feedLoadedUpdate(key, &feed, rec.Tier))

	keys := feed.BrowseKeys()
	if len(keys) == 0 {
		return result, nil
	}

	e.sendProgress(progress, warmingUpdate(len(keys)))
	warm := e.cache.BatchPrefetch(ctx, keys)
	result.Warm = &warm
	e.sendProgress(progress, warmedUpdate(warm))
	return result, nil
}

// Warm prefetches keys. A single key goes through Prefetch; several share one batch.
func (e *Engine) Warm(ctx context.Context, keys []models.ContentKey, progress chan<- ProgressUpdate) prefetch.BatchResult {
	e.sendProgress(progress, warmingUpdate(len(keys)))

	if len(keys) != 1 {
		result := e.cache.BatchPrefetch(ctx, keys)
		e.sendProgress(progress, warmedUpdate(result))
		return result
	}

	key := keys[0]
	result := prefetch.BatchResult{Requested: 1, Failed: make(map[models.ContentKey]error)}
	rec, err := e.cache.Prefetch(ctx, key)
	switch {
	case err != nil:
		result.Failed[key] = err
	case rec == nil:
		result.NotFound = append(result.NotFound, key)
	case rec.Tier == models.TierMemory:
		result.Memory = 1
	case rec.Tier == models.TierDurable:
		result.Durable = 1
	default:
		result.Origin = 1
	}
	e.sendProgress(progress, warmedUpdate(result))
	return result
}

// BuildQueue resolves key into a queue. Unknown content yields [shared.ErrNotFound]; content without playable
// tracks yields [shared.ErrEmptyQueue].
func (e *Engine) BuildQueue(ctx context.Context, key models.ContentKey) (*formatter.QueueFile, error) {
	rec, err := e.cache.Prefetch(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, key)
	}

	var (
		title  string
		tracks []models.Track
	)
	switch key.Type {
	case models.ContentAlbum:
		var album models.Album
		if err := rec.Decode(&album); err != nil {
			return nil, err
		}
		title, tracks = album.Title, album.PlayableTracks()
	case models.ContentPlaylist, models.ContentWatch:
		var pl models.Playlist
		if err := rec.Decode(&pl); err != nil {
			return nil, err
		}
		title, tracks = pl.Title, pl.PlayableTracks()
	case models.ContentArtist:
		var artist models.ArtistPage
		if err := rec.Decode(&artist); err != nil {
			return nil, err
		}
		title = artist.Name
		if artist.Songs != nil {
			tracks = artist.Songs.PlayableTracks()
		}
	default:
		return nil, fmt.Errorf("%w: cannot build a queue from %s", shared.ErrInvalidArgument, key.Type)
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: %s has no playable tracks", shared.ErrEmptyQueue, key)
	}
	if title == "" {
		title = key.String()
	}
	return formatter.NewQueueFile(title, key, tracks), nil
}
