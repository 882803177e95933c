package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/prefetch"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/desertthunder/ytplay/internal/tasks"
	"github.com/urfave/cli/v3"
)

// prefetchSummary is the JSON form of a warm pass.
type prefetchSummary struct {
	Requested int               `json:"requested"`
	Memory    int               `json:"memory"`
	Durable   int               `json:"durable"`
	Origin    int               `json:"origin"`
	NotFound  []string          `json:"not_found,omitempty"`
	Failed    map[string]string `json:"failed,omitempty"`
	Cache     prefetch.Stats    `json:"cache"`
}

func newPrefetchSummary(res prefetch.BatchResult, stats prefetch.Stats) prefetchSummary {
	s := prefetchSummary{
		Requested: res.Requested,
		Memory:    res.Memory,
		Durable:   res.Durable,
		Origin:    res.Origin,
		Cache:     stats,
	}
	for _, k := range res.NotFound {
		s.NotFound = append(s.NotFound, k.String())
	}
	if len(res.Failed) > 0 {
		s.Failed = make(map[string]string, len(res.Failed))
		for _, k := range res.FailedKeys() {
			s.Failed[k.String()] = res.Failed[k].Error()
		}
	}
	return s
}

// Prefetch warms the ids given as arguments. The subcommand name selects the content type.
func (r *Runner) Prefetch(ctx context.Context, cmd *cli.Command) error {
	contentType, err := models.ParseContentType(cmd.Name)
	if err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one %s id", shared.ErrMissingArgument, contentType)
	}

	keys := make([]models.ContentKey, len(ids))
	for i, id := range ids {
		keys[i] = models.Key(contentType, id)
	}

	engine := r.catalog()
	progress, done := r.logProgress()
	res := engine.Warm(ctx, keys, progress)
	close(progress)
	<-done

	summary := newPrefetchSummary(res, r.cache.Stats())
	if cmd.Bool("json") {
		if err := r.writeJSON(summary, true); err != nil {
			return err
		}
	} else {
		r.writePrefetchSummary(summary)
	}

	if len(res.Failed) > 0 && len(res.Failed) == res.Requested {
		return fmt.Errorf("%w: all %d lookups failed", shared.ErrTransientFetch, res.Requested)
	}
	return nil
}

func (r *Runner) writePrefetchSummary(s prefetchSummary) {
	r.writePlainHeader("Prefetch")
	r.writePlain("Requested: %d\n", s.Requested)
	r.writePlain("  memory:  %d\n", s.Memory)
	r.writePlain("  durable: %d\n", s.Durable)
	r.writePlain("  origin:  %d\n", s.Origin)
	if len(s.NotFound) > 0 {
		r.writePlain("Not found (%d):\n", len(s.NotFound))
		for _, k := range s.NotFound {
			r.writePlain("  • %s\n", k)
		}
	}
	if len(s.Failed) > 0 {
		r.writePlain("Failed (%d):\n", len(s.Failed))
		for k, msg := range s.Failed {
			r.writePlain("  • %s: %s\n", k, msg)
		}
	}
	r.writePlainln("Cache: %d entries, %d shared flights", s.Cache.Entries, s.Cache.SharedFlights)
}

// feedKey maps a feed subcommand and its flags to a content key.
func feedKey(name, country, lang string) (models.ContentKey, error) {
	switch name {
	case "home":
		return models.Key(models.ContentHome, ""), nil
	case "charts":
		return models.Key(models.ContentCharts, country), nil
	case "moods":
		if country == "" && lang == "" {
			return models.Key(models.ContentMoods, ""), nil
		}
		return models.Key(models.ContentMoods, services.MoodsID(country, lang)), nil
	default:
		return models.ContentKey{}, fmt.Errorf("%w: unknown feed %q", shared.ErrInvalidArgument, name)
	}
}

// Feed loads a top-level feed and warms the albums and playlists it references.
func (r *Runner) Feed(ctx context.Context, cmd *cli.Command) error {
	key, err := feedKey(cmd.Name, cmd.String("country"), cmd.String("lang"))
	if err != nil {
		return err
	}

	engine := r.catalog()
	progress, done := r.logProgress()
	res, err := engine.LoadFeed(ctx, key, progress)
	close(progress)
	<-done

	switch {
	case res != nil && res.Failed:
		r.writePlain("✗ %s is unavailable right now. Try again later.\n", key)
		return err
	case err != nil:
		return err
	case res.NotFound:
		r.writePlain("%s returned no content\n", key)
		return nil
	}

	r.writeFeed(res)
	return nil
}

func (r *Runner) writeFeed(res *tasks.FeedResult) {
	r.writePlainHeader(fmt.Sprintf("%s (%s)", res.Key, res.Tier))
	for _, section := range res.Feed.Sections {
		r.writePlain("%s\n", section.Title)
		for _, item := range section.Contents {
			ref := item.BrowseID
			if ref == "" {
				ref = item.PlaylistID
			}
			if ref == "" {
				ref = item.VideoID
			}
			r.writePlain("  • %s [%s]\n", item.Title, ref)
		}
	}

	if res.Warm != nil {
		r.writePlainln("Warmed %d/%d referenced items (memory %d, durable %d, origin %d, failed %d)",
			res.Warm.Resolved(), res.Warm.Requested, res.Warm.Memory, res.Warm.Durable, res.Warm.Origin, len(res.Warm.Failed))
	}
}

// logProgress returns a progress channel whose updates are logged until it is closed.
func (r *Runner) logProgress() (chan tasks.ProgressUpdate, <-chan struct{}) {
	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Info(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()
	return progress, done
}
