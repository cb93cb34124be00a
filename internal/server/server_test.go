package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/repositories"
	"github.com/desertthunder/encore/internal/shared"
	tu "github.com/desertthunder/encore/internal/testing"
)

type failingSongs struct{ err error }

func (f failingSongs) List(context.Context) ([]models.TopSong, error) { return nil, f.err }

func newCatalog(t *testing.T) (*CatalogHandler, *tu.FakeDocumentStore) {
	t.Helper()

	store := tu.NewFakeDocumentStore()
	ctx := context.Background()

	songs := repositories.NewSongRepository(store)
	releases := repositories.NewReleaseRepository(store)
	videos := repositories.NewVideoRepository(store)
	settings := repositories.NewSettingsRepository(store)

	if _, err := songs.Create(ctx, models.TopSong{Title: "First", Artist: "Band", SongURL: "https://blobs.test/songs/1.mp3", Duration: 120}); err != nil {
		t.Fatalf("failed to seed songs: %v", err)
	}
	if _, err := songs.Create(ctx, models.TopSong{Title: "Second", Artist: "Band", SongURL: "https://blobs.test/songs/2.mp3", Duration: 90}); err != nil {
		t.Fatalf("failed to seed songs: %v", err)
	}
	if _, err := releases.Create(ctx, models.Release{Kind: models.KindEP, Name: "Night", CoverURL: "https://blobs.test/artworks/1.jpg",
		Tracks: []models.TrackEntry{{Title: "Lights", Artist: "Band", AudioURL: "https://blobs.test/songs/3.mp3"}}}); err != nil {
		t.Fatalf("failed to seed releases: %v", err)
	}
	if _, err := releases.Create(ctx, models.Release{Kind: models.KindSingle, CoverURL: "https://blobs.test/artworks/2.jpg",
		Tracks: []models.TrackEntry{{Title: "Hit", Artist: "Band", AudioURL: "https://blobs.test/songs/4.mp3"}}}); err != nil {
		t.Fatalf("failed to seed releases: %v", err)
	}
	if _, err := videos.Create(ctx, models.Video{Title: "Live", Description: "At the hall", VideoURL: "https://blobs.test/videos/1-live.mp4"}); err != nil {
		t.Fatalf("failed to seed videos: %v", err)
	}

	return NewCatalogHandler(songs, releases, videos, settings), store
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestCatalogHandler(t *testing.T) {
	catalog, _ := newCatalog(t)
	router := NewAPIRouter(catalog, "", shared.NewLogger(io.Discard))

	t.Run("songs newest first with ids", func(t *testing.T) {
		rec := get(t, router, "/api/songs")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}

		songs := decode[[]map[string]any](t, rec)
		if len(songs) != 2 {
			t.Fatalf("expected 2 songs, got %d", len(songs))
		}
		if songs[0]["title"] != "Second" {
			t.Errorf("expected newest first, got %v", songs[0]["title"])
		}
		if id, _ := songs[0]["id"].(string); id == "" {
			t.Error("expected a document id")
		}
	})

	t.Run("releases", func(t *testing.T) {
		all := decode[[]map[string]any](t, get(t, router, "/api/releases"))
		if len(all) != 2 {
			t.Errorf("expected 2 releases, got %d", len(all))
		}

		eps := decode[[]map[string]any](t, get(t, router, "/api/releases?kind=EP"))
		if len(eps) != 1 || eps[0]["name"] != "Night" {
			t.Errorf("unexpected EPs %v", eps)
		}
		songs, _ := eps[0]["songs"].([]any)
		if len(songs) != 1 {
			t.Errorf("expected nested songs, got %v", eps[0]["songs"])
		}
	})

	t.Run("unknown release kind", func(t *testing.T) {
		rec := get(t, router, "/api/releases?kind=mixtape")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if body := decode[map[string]string](t, rec); !strings.Contains(body["error"], "mixtape") {
			t.Errorf("unexpected error body %v", body)
		}
	})

	t.Run("videos", func(t *testing.T) {
		videos := decode[[]map[string]any](t, get(t, router, "/api/videos"))
		if len(videos) != 1 || videos[0]["videoURL"] != "https://blobs.test/videos/1-live.mp4" {
			t.Errorf("unexpected videos %v", videos)
		}
	})

	t.Run("settings are created on first read", func(t *testing.T) {
		rec := get(t, router, "/api/settings")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		settings := decode[map[string]any](t, rec)
		if _, ok := settings["socialLinks"]; !ok {
			t.Errorf("expected socialLinks in %v", settings)
		}
	})

	t.Run("rejects writes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/songs", strings.NewReader("{}")))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("store failures", func(t *testing.T) {
		h := NewCatalogHandler(failingSongs{err: errors.New("disk on fire")}, nil, nil, nil)
		if rec := get(t, h, "/api/songs"); rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}

		h = NewCatalogHandler(failingSongs{err: fmt.Errorf("%w: songs/x", shared.ErrDocumentNotFound)}, nil, nil, nil)
		if rec := get(t, h, "/api/songs"); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestMediaHandler(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "songs"), 0755); err != nil {
		t.Fatal(err)
	}
	tu.MustWriteFile(t, filepath.Join(root, "songs", "1_a.mp3"), []byte("ID3 audio"))

	catalog, _ := newCatalog(t)
	router := NewAPIRouter(catalog, root, shared.NewLogger(io.Discard))

	rec := get(t, router, "/media/songs/1_a.mp3")
	if rec.Code != http.StatusOK || rec.Body.String() != "ID3 audio" {
		t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
	}

	if rec := get(t, router, "/media/songs/missing.mp3"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/media/songs/1_a.mp3", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestMiddleware(t *testing.T) {
	t.Run("Logging records status", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)

		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

		out := buf.String()
		if !strings.Contains(out, "status=418") || !strings.Contains(out, "path=/brew") {
			t.Errorf("unexpected log line %q", out)
		}
	})

	t.Run("Recover", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)

		h := Recover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(buf.String(), "boom") {
			t.Error("expected panic to be logged")
		}
	})

	t.Run("order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("unexpected order %v", order)
		}
	})
}

func TestServerServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}

	catalog, _ := newCatalog(t)
	srv := New(ln.Addr().String(), NewAPIRouter(catalog, "", shared.NewLogger(io.Discard)), shared.NewLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/videos")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
