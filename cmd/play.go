package main

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/playback"
	"github.com/desertthunder/encore/internal/shared"
	"github.com/desertthunder/encore/internal/ui"
	"github.com/urfave/cli/v3"
)

// dryRunDuration is used for tracks without a recorded duration when simulating playback.
const dryRunDuration = 30.0

// durationIndex remembers recorded durations by media URL for the simulated element.
type durationIndex struct {
	mu        sync.Mutex
	durations map[string]float64
}

func (d *durationIndex) record(tracks []models.Track) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.durations == nil {
		d.durations = make(map[string]float64, len(tracks))
	}
	for _, t := range tracks {
		d.durations[t.MediaURL] = t.DurationSeconds
	}
}

func (d *durationIndex) resolve(_ context.Context, url string) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.durations[url]; ok && v > 0 {
		return v, nil
	}
	return dryRunDuration, nil
}

// trackLoader returns the source of the player list: top songs, or gallery videos.
func (r *Runner) trackLoader(videos bool, index *durationIndex) ui.TrackLoader {
	return func(ctx context.Context) ([]models.Track, error) {
		var tracks []models.Track

		if videos {
			repo, err := r.videos()
			if err != nil {
				return nil, err
			}
			list, err := repo.List(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list videos: %w", err)
			}
			for _, v := range list {
				tracks = append(tracks, v.Track())
			}
		} else {
			repo, err := r.songs()
			if err != nil {
				return nil, err
			}
			if tracks, err = repo.Tracks(ctx); err != nil {
				return nil, fmt.Errorf("failed to list songs: %w", err)
			}
		}

		if index != nil {
			index.record(tracks)
		}
		return tracks, nil
	}
}

// Play launches the interactive player.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/encore-player.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	videos := cmd.Bool("videos")
	kind, title := playback.Audio, "Top Songs"
	if videos {
		kind, title = playback.Video, "Gallery"
	}

	var (
		element playback.MediaElement
		index   *durationIndex
	)
	switch {
	case r.element != nil:
		element = r.element
	case cmd.Bool("dry-run"):
		index = &durationIndex{}
		element = playback.NewClockElement(index.resolve, r.config.Player.Tick())
	default:
		element = playback.NewFFPlayElement(playback.FFPlayOptions{
			FFPlayPath:  r.config.Player.FFPlayPath,
			FFProbePath: r.config.Player.FFProbePath,
			Tick:        r.config.Player.Tick(),
			Display:     videos,
			Logger:      fileLogger,
		})
	}

	notifier, events := ui.NewEventSink(32)
	engine := playback.NewEngine(element, playback.Options{
		Kind:     kind,
		Volume:   r.config.Player.Volume,
		Resume:   videos,
		Notifier: notifier,
		Logger:   fileLogger,
	})
	defer engine.Stop()

	model := ui.NewPlayer(ctx, engine, events, ui.PlayerOptions{
		Title:    title,
		Autoplay: cmd.Bool("autoplay"),
		Load:     r.trackLoader(videos, index),
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running player: %w", err)
	}
	return nil
}
