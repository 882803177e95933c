// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand creates the config file and the cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml if missing, initialize the database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// playCommand drives a queue through the simulated player surface.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play a queue file, album or playlist (explicit) or a native playlist (delegated)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "queue",
				Aliases: []string{"q"},
				Usage:   "YAML queue file to play",
			},
			&cli.StringFlag{
				Name:  "album",
				Usage: "Album browse ID to play",
			},
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Playlist ID to play as an explicit queue",
			},
			&cli.StringFlag{
				Name:  "native",
				Usage: "Playlist ID handed to the player as a native playlist",
			},
			&cli.IntFlag{
				Name:  "start",
				Usage: "Queue index to start from",
			},
			&cli.BoolFlag{
				Name:  "shuffle",
				Usage: "Enable shuffle",
			},
			&cli.StringFlag{
				Name:  "repeat",
				Usage: "Repeat mode: none, all or one",
				Value: "none",
			},
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "Log now-playing changes instead of starting the TUI",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address for the HTTP remote-control API (e.g. 127.0.0.1:8090)",
			},
		},
		Action: r.Play,
	}
}

// prefetchCommand warms content ids through the prefetch cache.
func prefetchCommand(r *Runner) *cli.Command {
	sub := func(name, usage string) *cli.Command {
		return &cli.Command{
			Name:      name,
			Usage:     usage,
			ArgsUsage: "<id> [id...]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "json",
					Usage: "Output the result as JSON",
				},
			},
			Action: r.Prefetch,
		}
	}

	return &cli.Command{
		Name:  "prefetch",
		Usage: "Warm catalog content into the memory and durable caches",
		Commands: []*cli.Command{
			sub("album", "Prefetch albums by browse ID"),
			sub("playlist", "Prefetch playlists by ID"),
			sub("watch", "Prefetch watch lists by video ID"),
			sub("artist", "Prefetch artist pages by channel ID"),
		},
	}
}

// feedCommand loads top-level feeds and warms the content they reference.
func feedCommand(r *Runner) *cli.Command {
	country := func() cli.Flag { return &cli.StringFlag{Name: "country", Usage: "Country code (e.g. US)"} }
	lang := func() cli.Flag { return &cli.StringFlag{Name: "lang", Usage: "Language code (e.g. en)"} }

	return &cli.Command{
		Name:  "feed",
		Usage: "Load a top-level feed and warm its albums and playlists",
		Commands: []*cli.Command{
			{
				Name:   "home",
				Usage:  "Load the home feed",
				Action: r.Feed,
			},
			{
				Name:   "charts",
				Usage:  "Load the charts feed",
				Flags:  []cli.Flag{country()},
				Action: r.Feed,
			},
			{
				Name:   "moods",
				Usage:  "Load the moods & genres feed",
				Flags:  []cli.Flag{country(), lang()},
				Action: r.Feed,
			},
		},
	}
}

// cacheCommand inspects and maintains the durable content cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the durable content cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show entry counts, hits and size per content type",
				Action: r.CacheStats,
			},
			{
				Name:  "get",
				Usage: "Print the cached payload for a content key",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "type"},
					&cli.StringArg{Name: "id"},
				},
				Action: r.CacheGet,
			},
			{
				Name:   "purge",
				Usage:  "Delete expired entries",
				Action: r.CachePurge,
			},
		},
	}
}

// queueCommand builds queue files and exports.
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Build, export and inspect queues",
		Commands: []*cli.Command{
			{
				Name:      "export",
				Usage:     "Export albums, playlists or artists as queue files",
				ArgsUsage: "<album|playlist|watch|artist> <id> [id...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: yaml, csv, markdown, txt",
						Value:   "yaml",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: ytplay_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Fetches per second",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "covers",
						Usage: "Download cover images for markdown exports",
					},
				},
				Action: r.QueueExport,
			},
			{
				Name:  "show",
				Usage: "Print a YAML queue file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.QueueShow,
			},
		},
	}
}
