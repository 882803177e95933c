package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/desertthunder/ytplay/internal/tasks"
	"github.com/urfave/cli/v3"
)

// QueueExport resolves the given ids into queues and writes them in the requested format.
func (r *Runner) QueueExport(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: queue export <type> <id> [id...]", shared.ErrMissingArgument)
	}

	contentType, err := models.ParseContentType(args[0])
	if err != nil {
		return err
	}
	switch contentType {
	case models.ContentAlbum, models.ContentPlaylist, models.ContentWatch, models.ContentArtist:
	default:
		return fmt.Errorf("%w: cannot export %s", shared.ErrInvalidArgument, contentType)
	}

	format := cmd.String("format")
	switch format {
	case "yaml", "csv", "markdown", "txt":
	default:
		return fmt.Errorf("%w: format must be yaml, csv, markdown or txt", shared.ErrInvalidFlag)
	}

	keys := make([]models.ContentKey, 0, len(args)-1)
	for _, id := range args[1:] {
		keys = append(keys, models.Key(contentType, id))
	}

	engine := r.catalog()
	progress, done := r.logProgress()
	res, err := engine.BulkExport(ctx, progress, keys, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
		Covers:     cmd.Bool("covers"),
	})
	close(progress)
	<-done
	if res == nil {
		return err
	}

	r.writePlainHeader("Queue export")
	r.writePlain("Output:    %s\n", res.OutputDir)
	r.writePlain("Succeeded: %d/%d\n", res.Succeeded, res.Total)
	for _, item := range res.Results {
		if item.Success {
			r.writePlain("  ✓ %s (%d files)\n", item.Title, len(item.Files))
		} else {
			r.writePlain("  ✗ %s: %v\n", item.Key, item.Error)
		}
	}
	if res.ManifestPath != "" {
		r.writePlain("Manifest:  %s\n", res.ManifestPath)
	}

	if err != nil {
		return err
	}
	if res.Succeeded == 0 && res.Total > 0 {
		return fmt.Errorf("%w: no queues exported", shared.ErrNotFound)
	}
	return nil
}

// QueueShow prints a YAML queue file as text.
func (r *Runner) QueueShow(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: queue file path", shared.ErrMissingArgument)
	}

	q, err := formatter.ReadQueueYAML(path)
	if err != nil {
		return err
	}

	text, err := formatter.QueueToText(q)
	if err != nil {
		return err
	}
	return r.writePlain("%s", text)
}
