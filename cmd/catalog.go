package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/encore/internal/formatter"
	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/repositories"
	"github.com/desertthunder/encore/internal/shared"
	"github.com/desertthunder/encore/internal/tasks"
	"github.com/urfave/cli/v3"
)

type releaseOutput struct {
	ID string `json:"id"`
	models.Release
}

type videoOutput struct {
	ID string `json:"id"`
	models.Video
}

func (r *Runner) songs() (*repositories.SongRepository, error) {
	docs, err := r.documents()
	if err != nil {
		return nil, err
	}
	return repositories.NewSongRepository(docs), nil
}

func (r *Runner) releases() (*repositories.ReleaseRepository, error) {
	docs, err := r.documents()
	if err != nil {
		return nil, err
	}
	return repositories.NewReleaseRepository(docs), nil
}

func (r *Runner) videos() (*repositories.VideoRepository, error) {
	docs, err := r.documents()
	if err != nil {
		return nil, err
	}
	return repositories.NewVideoRepository(docs), nil
}

func parseFormatFlag(cmd *cli.Command) (formatter.Format, error) {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	return format, nil
}

// SongsList prints the top songs in the requested format.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	format, err := parseFormatFlag(cmd)
	if err != nil {
		return err
	}

	repo, err := r.songs()
	if err != nil {
		return err
	}
	songs, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list songs: %w", err)
	}

	data, err := formatter.ExportSongs(songs, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// SongsExport writes the top songs to a file.
func (r *Runner) SongsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := parseFormatFlag(cmd)
	if err != nil {
		return err
	}

	repo, err := r.songs()
	if err != nil {
		return err
	}
	songs, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list songs: %w", err)
	}

	path, err := formatter.WriteSongsExport(songs, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("exported songs", "count", len(songs), "path", path)
	return nil
}

// ReleasesList prints releases of the --kind collection, or of every kind.
func (r *Runner) ReleasesList(ctx context.Context, cmd *cli.Command) error {
	kind, err := models.ParseReleaseKind(cmd.String("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	repo, err := r.releases()
	if err != nil {
		return err
	}
	releases, err := repo.List(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to list releases: %w", err)
	}

	if cmd.Bool("json") {
		out := make([]releaseOutput, len(releases))
		for i, rel := range releases {
			out[i] = releaseOutput{ID: rel.ID, Release: rel}
		}
		return r.writeJSON(out, true)
	}

	data, err := formatter.ReleasesToText(releases)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// ReleasesExport writes one release as Markdown with its downloaded cover.
func (r *Runner) ReleasesExport(ctx context.Context, cmd *cli.Command) error {
	kind, err := models.ParseReleaseKind(cmd.String("kind"))
	if err != nil || kind == models.KindUnset {
		return fmt.Errorf("%w: --kind must be single, ep or album", shared.ErrInvalidFlag)
	}

	repo, err := r.releases()
	if err != nil {
		return err
	}
	release, err := repo.Get(ctx, kind, cmd.String("id"))
	if err != nil {
		return err
	}

	result, err := formatter.WriteReleaseExport(*release, cmd.String("dir"), r.httpClient, func(err error) {
		r.logger.Warn("failed to download cover image", "error", err)
	})
	if err != nil {
		return fmt.Errorf("failed to export release: %w", err)
	}

	r.writePlainHeader("Exported " + kind.Label())
	for _, f := range result.Files {
		r.writePlain("  %s\n", f)
	}
	return nil
}

// VideosList prints the gallery videos.
func (r *Runner) VideosList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.videos()
	if err != nil {
		return err
	}
	videos, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list videos: %w", err)
	}

	if cmd.Bool("json") {
		out := make([]videoOutput, len(videos))
		for i, v := range videos {
			out[i] = videoOutput{ID: v.ID, Video: v}
		}
		return r.writeJSON(out, true)
	}

	data, err := formatter.VideosToText(videos)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// ExportCatalog writes the whole catalog below --dir, logging progress as releases complete.
func (r *Runner) ExportCatalog(ctx context.Context, cmd *cli.Command) error {
	format, err := parseFormatFlag(cmd)
	if err != nil {
		return err
	}

	songs, err := r.songs()
	if err != nil {
		return err
	}
	releases, err := r.releases()
	if err != nil {
		return err
	}
	videos, err := r.videos()
	if err != nil {
		return err
	}

	exporter := tasks.NewCatalogExporter(releases, songs, videos, r.httpClient, r.logger)

	progress := make(chan tasks.ProgressUpdate, 32)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	result, err := exporter.BulkExport(ctx, progress, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	})
	close(progress)
	<-drained
	if err != nil {
		return err
	}

	r.writePlainHeader("Catalog Export")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Releases:  %d exported, %d failed\n", result.SuccessfulExports, result.FailedExports)
	r.writePlain("Manifest:  %s\n", result.ManifestPath)
	return nil
}
