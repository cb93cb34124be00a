package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/shared"
)

// SongLister lists top songs.
type SongLister interface {
	List(ctx context.Context) ([]models.TopSong, error)
}

// ReleaseLister lists releases, optionally of one kind.
type ReleaseLister interface {
	List(ctx context.Context, kind models.ReleaseKind) ([]models.Release, error)
}

// VideoLister lists videos.
type VideoLister interface {
	List(ctx context.Context) ([]models.Video, error)
}

// SettingsLoader loads the homepage settings.
type SettingsLoader interface {
	Load(ctx context.Context) (*models.HomeSettings, error)
}

// CatalogHandler serves the read-only catalog API.
type CatalogHandler struct {
	songs    SongLister
	releases ReleaseLister
	videos   VideoLister
	settings SettingsLoader
}

// NewCatalogHandler creates a CatalogHandler over the given repositories.
func NewCatalogHandler(songs SongLister, releases ReleaseLister, videos VideoLister, settings SettingsLoader) *CatalogHandler {
	return &CatalogHandler{songs: songs, releases: releases, videos: videos, settings: settings}
}

// Routes returns the HTTP routes this handler serves.
func (h *CatalogHandler) Routes() []string {
	return []string{"/api/songs", "/api/releases", "/api/videos", "/api/settings"}
}

type songResponse struct {
	ID string `json:"id"`
	models.TopSong
}

type releaseResponse struct {
	ID string `json:"id"`
	models.Release
}

type videoResponse struct {
	ID string `json:"id"`
	models.Video
}

// ServeHTTP dispatches on the request path.
func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()

	switch r.URL.Path {
	case "/api/songs":
		songs, err := h.songs.List(ctx)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]songResponse, len(songs))
		for i, s := range songs {
			out[i] = songResponse{ID: s.ID, TopSong: s}
		}
		writeJSON(w, http.StatusOK, out)

	case "/api/releases":
		kind, err := models.ParseReleaseKind(r.URL.Query().Get("kind"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		releases, err := h.releases.List(ctx, kind)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]releaseResponse, len(releases))
		for i, rel := range releases {
			out[i] = releaseResponse{ID: rel.ID, Release: rel}
		}
		writeJSON(w, http.StatusOK, out)

	case "/api/videos":
		videos, err := h.videos.List(ctx)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]videoResponse, len(videos))
		for i, v := range videos {
			out[i] = videoResponse{ID: v.ID, Video: v}
		}
		writeJSON(w, http.StatusOK, out)

	case "/api/settings":
		settings, err := h.settings.Load(ctx)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// NewMediaHandler serves files under root at /media/.
func NewMediaHandler(root string) http.Handler {
	return http.StripPrefix("/media/", http.FileServer(http.Dir(root)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrDocumentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
