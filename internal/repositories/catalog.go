package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/encore/internal/models"
)

var newestFirst = models.ListOptions{OrderBy: "timestamp", Descending: true}

// ReleaseRepository reads and writes [models.Release] documents across the per-kind collections.
type ReleaseRepository struct {
	store models.DocumentStore
}

// NewReleaseRepository creates a new ReleaseRepository over store
func NewReleaseRepository(store models.DocumentStore) *ReleaseRepository {
	return &ReleaseRepository{store: store}
}

// Create writes the release to its kind's collection and returns the generated id.
func (r *ReleaseRepository) Create(ctx context.Context, release models.Release) (string, error) {
	if release.Collection() == "" {
		return "", fmt.Errorf("release kind is required")
	}
	return r.store.Add(ctx, release.Collection(), release.ToFields())
}

// Get retrieves a release by kind and id.
func (r *ReleaseRepository) Get(ctx context.Context, kind models.ReleaseKind, id string) (*models.Release, error) {
	doc, err := r.store.Get(ctx, kind.Collection(), id)
	if err != nil {
		return nil, err
	}

	var release models.Release
	if err := doc.Decode(&release); err != nil {
		return nil, err
	}
	release.ID = doc.ID
	if release.Kind == models.KindUnset {
		release.Kind = kind
	}
	return &release, nil
}

// List returns releases newest first. [models.KindUnset] lists every kind.
func (r *ReleaseRepository) List(ctx context.Context, kind models.ReleaseKind) ([]models.Release, error) {
	kinds := []models.ReleaseKind{kind}
	if kind == models.KindUnset {
		kinds = models.ReleaseKinds()
	}

	var out []models.Release
	for _, k := range kinds {
		docs, err := r.store.List(ctx, k.Collection(), newestFirst)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", k.Collection(), err)
		}

		releases, err := decodeAll(docs, func(rel *models.Release, id string) {
			rel.ID = id
			// documents written before kinds were stored only carry their collection
			if rel.Kind == models.KindUnset {
				rel.Kind = k
			}
		})
		if err != nil {
			return nil, err
		}
		out = append(out, releases...)
	}
	return out, nil
}

// SongRepository reads and writes [models.TopSong] documents.
type SongRepository struct {
	store models.DocumentStore
}

// NewSongRepository creates a new SongRepository over store
func NewSongRepository(store models.DocumentStore) *SongRepository {
	return &SongRepository{store: store}
}

// Create writes the song and returns the generated id.
func (r *SongRepository) Create(ctx context.Context, song models.TopSong) (string, error) {
	return r.store.Add(ctx, song.Collection(), song.ToFields())
}

// Get retrieves a song by id.
func (r *SongRepository) Get(ctx context.Context, id string) (*models.TopSong, error) {
	doc, err := r.store.Get(ctx, models.TopSongsCollection, id)
	if err != nil {
		return nil, err
	}

	var song models.TopSong
	if err := doc.Decode(&song); err != nil {
		return nil, err
	}
	song.ID = doc.ID
	return &song, nil
}

// List returns songs newest first.
func (r *SongRepository) List(ctx context.Context) ([]models.TopSong, error) {
	docs, err := r.store.List(ctx, models.TopSongsCollection, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	return decodeAll(docs, func(s *models.TopSong, id string) { s.ID = id })
}

// Tracks returns the songs as playable tracks, newest first.
func (r *SongRepository) Tracks(ctx context.Context) ([]models.Track, error) {
	songs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, len(songs))
	for i, s := range songs {
		tracks[i] = s.Track()
	}
	return tracks, nil
}

// VideoRepository reads and writes [models.Video] documents.
type VideoRepository struct {
	store models.DocumentStore
}

// NewVideoRepository creates a new VideoRepository over store
func NewVideoRepository(store models.DocumentStore) *VideoRepository {
	return &VideoRepository{store: store}
}

// Create writes the video and returns the generated id.
func (r *VideoRepository) Create(ctx context.Context, video models.Video) (string, error) {
	return r.store.Add(ctx, video.Collection(), video.ToFields())
}

// List returns videos newest first.
func (r *VideoRepository) List(ctx context.Context) ([]models.Video, error) {
	docs, err := r.store.List(ctx, models.VideosCollection, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return decodeAll(docs, func(v *models.Video, id string) { v.ID = id })
}
