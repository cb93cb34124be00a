// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

func submissionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "interactive",
			Usage: "Show a progress view while uploading",
		},
		&cli.BoolFlag{
			Name:  "cleanup",
			Usage: "Delete uploaded files when the submission fails (overrides config)",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output the submission result as JSON",
		},
	}
}

// uploadCommand handles the three upload pipelines.
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "upload",
		Aliases: []string{"up"},
		Usage:   "Upload media and publish catalog records",
		Commands: []*cli.Command{
			{
				Name:  "release",
				Usage: "Upload a single, EP or album with its cover artwork",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "Release kind: single, ep or album",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "EP or album name",
					},
					&cli.StringFlag{
						Name:  "cover",
						Usage: "Path to the cover image",
					},
					&cli.StringSliceFlag{
						Name:    "track",
						Aliases: []string{"t"},
						Usage:   `Song as "title|artist|path" (repeatable, in order)`,
					},
				}, submissionFlags()...),
				Action: r.UploadRelease,
			},
			{
				Name:  "song",
				Usage: "Upload a top song with artwork",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Song title",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Artist name",
					},
					&cli.StringFlag{
						Name:  "cover",
						Usage: "Path to the artwork image",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Path to the song file",
					},
					&cli.FloatFlag{
						Name:  "duration",
						Usage: "Duration in seconds (probed from the file when omitted)",
					},
				}, submissionFlags()...),
				Action: r.UploadSong,
			},
			{
				Name:  "video",
				Usage: "Upload a gallery video",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Video title",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Video description",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Path to the video file",
					},
				}, submissionFlags()...),
				Action: r.UploadVideo,
			},
		},
	}
}

// songsCommand lists and exports top songs.
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Top songs operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List top songs, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, csv, markdown or json",
						Value:   "text",
					},
				},
				Action: r.SongsList,
			},
			{
				Name:  "export",
				Usage: "Export top songs to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, csv, markdown or json",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: songs.{ext})",
					},
				},
				Action: r.SongsExport,
			},
		},
	}
}

// releasesCommand lists and exports releases.
func releasesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "releases",
		Usage: "Release operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List releases of one kind, or all kinds",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "Release kind: single, ep or album",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ReleasesList,
			},
			{
				Name:  "export",
				Usage: "Export a release as Markdown with its cover image",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kind",
						Aliases:  []string{"k"},
						Usage:    "Release kind: single, ep or album",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Release ID to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: release ID)",
					},
				},
				Action: r.ReleasesExport,
			},
		},
	}
}

// videosCommand lists gallery videos.
func videosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "videos",
		Usage: "Gallery video operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List gallery videos, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.VideosList,
			},
		},
	}
}

// settingsCommand reads and edits the homepage settings.
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Homepage settings operations",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Show the homepage settings",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SettingsGet,
			},
			{
				Name:  "set",
				Usage: "Update homepage settings fields",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "field",
						Aliases: []string{"f"},
						Usage:   `Field assignment as "path=value", e.g. socialLinks.spotify=https://... (repeatable)`,
					},
				},
				Action: r.SettingsSet,
			},
			{
				Name:   "fields",
				Usage:  "List the editable settings fields",
				Action: r.SettingsFields,
			},
		},
	}
}

// playCommand returns the interactive terminal player.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "play",
		Aliases: []string{"player", "ui"},
		Usage:   "Launch the interactive player for top songs or gallery videos",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "videos",
				Usage: "Play gallery videos instead of top songs",
			},
			&cli.BoolFlag{
				Name:  "autoplay",
				Usage: "Continue with the next track when one ends",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Simulate playback without ffplay, using recorded durations",
			},
		},
		Action: r.Play,
	}
}

// serveCommand runs the read-only catalog API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the catalog as JSON over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port from config)",
			},
		},
		Action: r.Serve,
	}
}

// exportCommand writes the whole catalog to a directory.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export songs, videos and every release with covers to a directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: encore_export_{epoch})",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Songs file format: text, csv, markdown or json",
				Value:   "csv",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent release exports",
				Value: 5,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Release exports started per second",
				Value: 5,
			},
		},
		Action: r.ExportCatalog,
	}
}
