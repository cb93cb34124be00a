package tasks

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/shared"
)

// ReleaseSource lists releases; [models.KindUnset] lists every kind.
type ReleaseSource interface {
	List(ctx context.Context, kind models.ReleaseKind) ([]models.Release, error)
}

// SongSource lists top songs.
type SongSource interface {
	List(ctx context.Context) ([]models.TopSong, error)
}

// VideoSource lists gallery videos.
type VideoSource interface {
	List(ctx context.Context) ([]models.Video, error)
}

// CatalogExporter exports catalog content to local files.
type CatalogExporter struct {
	releases ReleaseSource
	songs    SongSource
	videos   VideoSource
	client   *http.Client
	logger   *log.Logger
}

// NewCatalogExporter creates an exporter. A nil client uses [http.DefaultClient].
func NewCatalogExporter(releases ReleaseSource, songs SongSource, videos VideoSource, client *http.Client, logger *log.Logger) *CatalogExporter {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CatalogExporter{
		releases: releases,
		songs:    songs,
		videos:   videos,
		client:   client,
		logger:   shared.WithLogger(logger, "component", "export"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *CatalogExporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func releaseName(r models.Release) string {
	switch {
	case r.Name != "":
		return r.Name
	case len(r.Tracks) > 0:
		return r.Tracks[0].Title
	default:
		return r.ID
	}
}
