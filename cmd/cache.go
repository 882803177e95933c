package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheStats prints durable cache totals and a per-type breakdown.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.repository()
	if err != nil {
		return err
	}

	stats, err := repo.Stats()
	if err != nil {
		return err
	}

	r.writePlainHeader("Content cache")
	r.writePlain("Database: %s\n", r.config.Database.Path)
	r.writePlain("Entries:  %d (%d expired)\n", stats.Entries, stats.Expired)
	r.writePlain("Hits:     %d\n", stats.Hits)
	r.writePlain("Size:     %d bytes\n", stats.Bytes)

	types := make([]string, 0, len(stats.ByType))
	for t := range stats.ByType {
		types = append(types, string(t))
	}
	slices.Sort(types)
	for _, t := range types {
		r.writePlain("  %-9s %d\n", t, stats.ByType[models.ContentType(t)])
	}
	return nil
}

// CacheGet prints the cached payload for a content key.
func (r *Runner) CacheGet(ctx context.Context, cmd *cli.Command) error {
	contentType, err := models.ParseContentType(cmd.StringArg("type"))
	if err != nil {
		return err
	}
	key := models.Key(contentType, cmd.StringArg("id"))

	repo, err := r.repository()
	if err != nil {
		return err
	}

	entry, err := repo.Get(key.Hash())
	if errors.Is(err, shared.ErrCacheMiss) {
		r.writePlain("%s is not cached\n", key)
		return nil
	}
	if err != nil {
		return err
	}

	if entry.Expired(time.Now()) {
		r.logger.Warn("entry expired", "key", key, "expires_at", entry.ExpiresAt())
	}

	var payload any
	if err := json.Unmarshal(entry.Data(), &payload); err != nil {
		return fmt.Errorf("%w: cached payload for %s: %v", shared.ErrInvalidInput, key, err)
	}
	return r.writeJSON(payload, true)
}

// CachePurge deletes expired entries.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.repository()
	if err != nil {
		return err
	}

	n, err := repo.PurgeExpired(time.Now())
	if err != nil {
		return err
	}

	r.logger.Info("purged expired entries", "count", n)
	r.writePlain("✓ Purged %d expired entries\n", n)
	return nil
}
