package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/repositories"
	"github.com/desertthunder/encore/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) settings() (*repositories.SettingsRepository, error) {
	docs, err := r.documents()
	if err != nil {
		return nil, err
	}
	return repositories.NewSettingsRepository(docs), nil
}

// SettingsGet prints the homepage settings, creating the document on first read.
func (r *Runner) SettingsGet(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.settings()
	if err != nil {
		return err
	}
	settings, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(settings, true)
	}

	r.writePlainHeader("Homepage Settings")
	for _, line := range settingsLines(*settings) {
		r.writePlain("%s\n", line)
	}
	return nil
}

func settingsLines(s models.HomeSettings) []string {
	links := s.SocialLinks
	return []string{
		"Latest Song Title:       " + s.LatestSongTitle,
		"Latest Song Description: " + s.LatestSongDescription,
		"Record Label:            " + s.RecordLabel,
		"Phone Number:            " + s.PhoneNumber,
		"Email:                   " + s.Email,
		"YouTube Music:           " + links.YouTubeMusic,
		"Spotify:                 " + links.Spotify,
		"Apple Music:             " + links.AppleMusic,
		"Instagram:               " + links.Instagram,
		"YouTube:                 " + links.YouTube,
		"Facebook:                " + links.Facebook,
		"TikTok:                  " + links.TikTok,
	}
}

// SettingsSet applies each --field path=value to the stored settings and saves them.
//
// Nothing is written when any field is unknown or the result fails validation.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	assignments := cmd.StringSlice("field")
	if len(assignments) == 0 {
		return fmt.Errorf("%w: at least one --field path=value is required", shared.ErrMissingArgument)
	}

	repo, err := r.settings()
	if err != nil {
		return err
	}
	settings, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	for _, a := range assignments {
		path, value, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("%w: field %q must be \"path=value\"", shared.ErrInvalidFlag, a)
		}
		if err := settings.Set(strings.TrimSpace(path), value); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
	}

	if err := repo.Save(ctx, *settings); err != nil {
		return err
	}

	r.logger.Info("settings saved", "fields", len(assignments))
	return nil
}

// SettingsFields prints the dotted paths accepted by settings set.
func (r *Runner) SettingsFields(ctx context.Context, cmd *cli.Command) error {
	for _, name := range models.SettingsFieldNames() {
		r.writePlain("%s\n", name)
	}
	return nil
}
