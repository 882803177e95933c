package tasks

import (
	"fmt"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/prefetch"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadFeed Phase = iota
	WarmContent
	FetchQueue
	ExportQueue
)

func (p Phase) String() string {
	switch p {
	case LoadFeed:
		return "load_feed"
	case WarmContent:
		return "warm_content"
	case FetchQueue:
		return "fetch_queue"
	case ExportQueue:
		return "export_queue"
	default:
		return ""
	}
}

func loadingFeedUpdate(key models.ContentKey) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadFeed,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Loading %s feed...", key.Type),
	}
}

func feedFailedUpdate(key models.ContentKey, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadFeed,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("✗ %s feed unavailable: %v (retry later)", key.Type, err),
	}
}

func feedLoadedUpdate(key models.ContentKey, feed *models.Feed, tier models.Tier) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadFeed,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Loaded %s feed from %s (%d sections)", key.Type, tier, len(feed.Sections)),
		Data:    feed,
	}
}

func warmingUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WarmContent,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Warming %d referenced items...", total),
	}
}

func warmedUpdate(r prefetch.BatchResult) ProgressUpdate {
	return ProgressUpdate{
		Phase: WarmContent,
		Step:  r.Requested,
		Total: r.Requested,
		Message: fmt.Sprintf("Warmed %d/%d (memory %d, durable %d, origin %d, missing %d, failed %d)",
			r.Resolved(), r.Requested, r.Memory, r.Durable, r.Origin, len(r.NotFound), len(r.Failed)),
		Data: r,
	}
}

func fetchingQueueUpdate(step, total int, key models.ContentKey) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchQueue,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching %s...", step, total, key),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportQueue,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportQueue,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
