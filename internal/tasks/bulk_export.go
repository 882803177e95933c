package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/desertthunder/ytplay/internal/models"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk queue exports.
type BulkExportOpts struct {
	Format     string  // Export format: yaml, csv, markdown, txt
	OutputDir  string  // Base output directory (default: ytplay_export_{epoch})
	NumWorkers int     // Concurrent writers (default: 4, max 8)
	RateLimit  float64 // Fetches per second (default: 5)
	Covers     bool    // Download cover images for markdown exports
}

// QueueExportResult is the outcome of exporting one key.
type QueueExportResult struct {
	Key     models.ContentKey
	Title   string
	Files   []string
	Success bool
	Error   error
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	Total        int
	Succeeded    int
	Failed       int
	OutputDir    string
	ManifestPath string
	Results      []QueueExportResult
}

type exportJob struct {
	key   models.ContentKey
	queue *formatter.QueueFile
}

// BulkExport resolves each key into a queue and writes it in the requested format.
//
// Fetches are paced by a rate limiter and writes run on a worker pool. Partial failures are recorded per key
// and summarized in export_manifest.json.
func (e *Engine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, keys []models.ContentKey, opts BulkExportOpts) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = "yaml"
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("ytplay_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	opts.NumWorkers = min(opts.NumWorkers, 8)
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Total:     len(keys),
		OutputDir: opts.OutputDir,
		Results:   make([]QueueExportResult, 0, len(keys)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan exportJob, len(keys))
	results := make(chan QueueExportResult, len(keys))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(&wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, key := range keys {
			if err := limiter.Wait(ctx); err != nil {
				for _, rest := range keys[i:] {
					results <- QueueExportResult{Key: rest, Title: rest.String(), Error: err}
				}
				return
			}

			e.sendProgress(prog, fetchingQueueUpdate(i+1, len(keys), key))
			queue, err := e.BuildQueue(ctx, key)
			if err != nil {
				results <- QueueExportResult{Key: key, Title: key.String(), Error: fmt.Errorf("failed to fetch: %w", err)}
				continue
			}
			jobs <- exportJob{key: key, queue: queue}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	manifest := &formatter.Manifest{Format: opts.Format, Directory: opts.OutputDir, CreatedAt: time.Now().UTC()}
	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		entry := formatter.ManifestEntry{Source: res.Key.String(), Title: res.Title, Files: res.Files}
		if res.Success {
			result.Succeeded++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(keys), res.Title, len(res.Files)))
		} else {
			result.Failed++
			entry.Error = res.Error.Error()
			e.sendProgress(prog, exportFailedUpdate(completed, len(keys), res.Title, res.Error))
		}
		manifest.Entries = append(manifest.Entries, entry)
	}
	manifest.Succeeded, manifest.Failed = result.Succeeded, result.Failed

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(manifest, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func (e *Engine) exportWorker(wg *sync.WaitGroup, jobs <-chan exportJob, results chan<- QueueExportResult, opts BulkExportOpts) {
	defer wg.Done()
	for job := range jobs {
		results <- e.exportQueue(job, opts)
	}
}

func (e *Engine) exportQueue(j exportJob, opts BulkExportOpts) QueueExportResult {
	result := QueueExportResult{Key: j.key, Title: j.queue.Title, Files: []string{}}
	base := filepath.Join(opts.OutputDir, j.queue.ID())

	switch opts.Format {
	case "csv":
		csvRes, err := formatter.WriteCSVExport(j.queue, base)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.TracksFile, csvRes.MetadataFile}

	case "markdown":
		var imageURL string
		if opts.Covers && len(j.queue.Tracks) > 0 {
			imageURL = j.queue.Tracks[0].Thumbnail
		}
		mdRes, err := formatter.WriteMarkdownExport(j.queue, base, imageURL, func(msg string, kv ...any) {
			e.logger.Warn(msg, append(kv, "queue", j.queue.Title)...)
		})
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files

	case "txt":
		path, err := formatter.WriteTextExport(j.queue, base+"_tracks.txt")
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}

	case "yaml":
		fallthrough
	default:
		path, err := formatter.WriteQueueYAML(j.queue, base+".yaml")
		if err != nil {
			result.Error = fmt.Errorf("YAML export failed: %w", err)
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}
