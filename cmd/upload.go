package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/shared"
	"github.com/desertthunder/encore/internal/ui"
	"github.com/desertthunder/encore/internal/upload"
	"github.com/urfave/cli/v3"
)

// assetReport is one uploaded or planned asset in the JSON output of an upload command.
type assetReport struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
}

type submissionReport struct {
	Collection string        `json:"collection"`
	RecordID   string        `json:"recordId,omitempty"`
	Assets     []assetReport `json:"assets"`
	Orphans    []string      `json:"orphans,omitempty"`
	Removed    []string      `json:"removed,omitempty"`
	Error      string        `json:"error,omitempty"`
}

func newSubmissionReport(result *upload.Result, err error) submissionReport {
	report := submissionReport{Assets: []assetReport{}}
	if result != nil {
		report.Collection = result.Collection
		report.RecordID = result.RecordID
		report.Orphans = result.Orphans
		report.Removed = result.Removed
		for _, a := range result.Assets {
			report.Assets = append(report.Assets, assetReport{ID: a.ID, Role: a.Role.String(), Path: a.Path, URL: a.RemoteURL})
		}
	}
	if err != nil {
		report.Error = upload.Message(err)
	}
	return report
}

// parseTrack reads a "title|artist|path" track argument.
func parseTrack(s string) (upload.TrackInput, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return upload.TrackInput{}, fmt.Errorf("%w: track %q must be \"title|artist|path\"", shared.ErrInvalidFlag, s)
	}

	track := upload.TrackInput{
		Title:  strings.TrimSpace(parts[0]),
		Artist: strings.TrimSpace(parts[1]),
	}
	file, err := optionalFile(parts[2])
	if err != nil {
		return upload.TrackInput{}, err
	}
	track.File = file
	return track, nil
}

// optionalFile opens path, leaving a nil file for an empty path so form validation can report it.
func optionalFile(path string) (*upload.File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	return upload.OpenFile(path)
}

// pipeline builds an upload pipeline from the config and the --cleanup override.
func (r *Runner) pipeline(ctx context.Context, cmd *cli.Command) (*upload.Pipeline, error) {
	docs, err := r.documents()
	if err != nil {
		return nil, err
	}
	blobs, err := r.blobStore(ctx)
	if err != nil {
		return nil, err
	}

	opts := upload.OptionsFromConfig(r.config.Upload)
	if cmd.IsSet("cleanup") {
		opts.Cleanup = cmd.Bool("cleanup")
	}
	opts.Prober = r.durationProber()

	return upload.NewPipeline(blobs, docs, r.logger, opts), nil
}

// runSubmission runs submit either behind the progress view or with progress logged, then reports the outcome.
func (r *Runner) runSubmission(ctx context.Context, cmd *cli.Command, title string, submit ui.SubmitFunc) error {
	var (
		result *upload.Result
		err    error
	)

	if cmd.Bool("interactive") {
		model := ui.NewUploadModel(ctx, title, submit)
		if _, runErr := tea.NewProgram(model).Run(); runErr != nil {
			return fmt.Errorf("error running upload view: %w", runErr)
		}
		result, err = model.Result()
	} else {
		result, err = r.submitWithLogging(ctx, submit)
	}

	if cmd.Bool("json") {
		if writeErr := r.writeJSON(newSubmissionReport(result, err), true); writeErr != nil {
			return writeErr
		}
	} else if !cmd.Bool("interactive") {
		r.writePlain("%s\n", ui.RenderOutcome(result, err))
	}

	return err
}

func (r *Runner) submitWithLogging(ctx context.Context, submit ui.SubmitFunc) (*upload.Result, error) {
	progress := make(chan upload.ProgressUpdate, 64)
	drained := make(chan struct{})

	go func() {
		defer close(drained)
		for update := range progress {
			switch update.Phase {
			case upload.Failed:
				r.logger.Warn(update.Message, "phase", update.Phase, "percent", fmt.Sprintf("%.0f%%", update.Percent))
			default:
				r.logger.Info(update.Message, "phase", update.Phase, "percent", fmt.Sprintf("%.0f%%", update.Percent))
			}
		}
	}()

	result, err := submit(ctx, progress)
	close(progress)
	<-drained
	return result, err
}

// UploadRelease uploads a cover and its songs, then writes the release record.
func (r *Runner) UploadRelease(ctx context.Context, cmd *cli.Command) error {
	kind, err := models.ParseReleaseKind(cmd.String("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	form := &upload.ReleaseForm{Kind: kind, Name: cmd.String("name")}
	if form.Cover, err = optionalFile(cmd.String("cover")); err != nil {
		return err
	}
	for _, arg := range cmd.StringSlice("track") {
		track, err := parseTrack(arg)
		if err != nil {
			return err
		}
		form.Tracks = append(form.Tracks, track)
	}

	p, err := r.pipeline(ctx, cmd)
	if err != nil {
		return err
	}

	title := "Uploading release"
	if kind != models.KindUnset {
		title = "Uploading " + kind.Label()
	}
	if form.Name != "" {
		title += ": " + form.Name
	}
	return r.runSubmission(ctx, cmd, title, func(ctx context.Context, progress chan<- upload.ProgressUpdate) (*upload.Result, error) {
		return p.SubmitRelease(ctx, progress, form)
	})
}

// UploadSong uploads artwork and a song, then writes the top-song record.
func (r *Runner) UploadSong(ctx context.Context, cmd *cli.Command) error {
	form := &upload.SongForm{
		Title:    cmd.String("title"),
		Artist:   cmd.String("artist"),
		Duration: cmd.Float("duration"),
	}

	var err error
	if form.Cover, err = optionalFile(cmd.String("cover")); err != nil {
		return err
	}
	if form.Song, err = optionalFile(cmd.String("file")); err != nil {
		return err
	}

	p, err := r.pipeline(ctx, cmd)
	if err != nil {
		return err
	}

	return r.runSubmission(ctx, cmd, "Uploading top song: "+form.Title, func(ctx context.Context, progress chan<- upload.ProgressUpdate) (*upload.Result, error) {
		return p.SubmitTopSong(ctx, progress, form)
	})
}

// UploadVideo uploads a gallery video, then writes its record.
func (r *Runner) UploadVideo(ctx context.Context, cmd *cli.Command) error {
	form := &upload.VideoForm{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
	}

	var err error
	if form.File, err = optionalFile(cmd.String("file")); err != nil {
		return err
	}

	p, err := r.pipeline(ctx, cmd)
	if err != nil {
		return err
	}

	return r.runSubmission(ctx, cmd, "Uploading video: "+form.Title, func(ctx context.Context, progress chan<- upload.ProgressUpdate) (*upload.Result, error) {
		return p.SubmitVideo(ctx, progress, form)
	})
}
