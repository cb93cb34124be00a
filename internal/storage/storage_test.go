package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/encore/internal/shared"
)

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name string
		p    Progress
		want float64
	}{
		{name: "unknown total", p: Progress{BytesTransferred: 10}, want: 0},
		{name: "half", p: Progress{BytesTransferred: 50, TotalBytes: 100}, want: 50},
		{name: "complete", p: Progress{BytesTransferred: 100, TotalBytes: 100}, want: 100},
		{name: "over-reported", p: Progress{BytesTransferred: 150, TotalBytes: 100}, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Percent(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://localhost:3000/media", "songs/1_a.mp3", "http://localhost:3000/media/songs/1_a.mp3"},
		{"http://localhost:3000/media/", "/songs/1_a.mp3", "http://localhost:3000/media/songs/1_a.mp3"},
		{"https://storage.googleapis.com/b", "artworks/1_my cover.jpg", "https://storage.googleapis.com/b/artworks/1_my%20cover.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := JoinURL(tt.base, tt.path); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	if got := ContentTypeFor("cover.PNG"); got != "image/png" {
		t.Errorf("expected image/png, got %q", got)
	}
	if got := ContentTypeFor("blob.unknownext"); got != "application/octet-stream" {
		t.Errorf("expected octet-stream fallback, got %q", got)
	}
}

func TestCounter(t *testing.T) {
	t.Run("read hook consumes the buffer", func(t *testing.T) {
		var events []Progress
		c := newCounter(10, func(p Progress) { events = append(events, p) })

		n, err := c.Read(make([]byte, 4))
		if err != nil || n != 4 {
			t.Fatalf("expected 4 bytes consumed, got %d (%v)", n, err)
		}
		c.Read(make([]byte, 20))

		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[1].BytesTransferred != 10 {
			t.Errorf("expected progress clamped to total, got %d", events[1].BytesTransferred)
		}
	})

	t.Run("set ignores regressions", func(t *testing.T) {
		var last Progress
		calls := 0
		c := newCounter(100, func(p Progress) { last = p; calls++ })

		c.set(40)
		c.set(20)
		c.set(40)
		c.set(90)

		if calls != 2 {
			t.Errorf("expected 2 events, got %d", calls)
		}
		if last.BytesTransferred != 90 {
			t.Errorf("expected 90, got %d", last.BytesTransferred)
		}
	})
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()

	t.Run("upload reports progress and writes the file", func(t *testing.T) {
		root := t.TempDir()
		store, err := NewLocalStore(root, "http://127.0.0.1:3000/media")
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		data := bytes.Repeat([]byte("a"), 100_000)
		var last Progress
		obj, err := store.Upload(ctx, "songs/1_track.mp3", bytes.NewReader(data), int64(len(data)), "audio/mpeg", func(p Progress) {
			if p.BytesTransferred < last.BytesTransferred {
				t.Errorf("progress went backwards: %d < %d", p.BytesTransferred, last.BytesTransferred)
			}
			last = p
		})
		if err != nil {
			t.Fatalf("upload failed: %v", err)
		}

		if obj.Size != int64(len(data)) {
			t.Errorf("expected size %d, got %d", len(data), obj.Size)
		}
		if last.Percent() != 100 {
			t.Errorf("expected final progress 100, got %v", last.Percent())
		}

		stored, err := os.ReadFile(filepath.Join(root, "songs", "1_track.mp3"))
		if err != nil {
			t.Fatalf("stored file missing: %v", err)
		}
		if !bytes.Equal(stored, data) {
			t.Error("stored content differs")
		}

		url, err := store.PublicURL(ctx, obj)
		if err != nil {
			t.Fatalf("PublicURL failed: %v", err)
		}
		if url != "http://127.0.0.1:3000/media/songs/1_track.mp3" {
			t.Errorf("unexpected url %q", url)
		}
	})

	t.Run("short reads leave no object behind", func(t *testing.T) {
		root := t.TempDir()
		store, _ := NewLocalStore(root, "")

		_, err := store.Upload(ctx, "songs/short.mp3", strings.NewReader("abc"), 10, "audio/mpeg", nil)
		if err == nil {
			t.Fatal("expected error for short write")
		}
		if _, err := os.Stat(filepath.Join(root, "songs", "short.mp3")); !os.IsNotExist(err) {
			t.Error("expected no object after failed upload")
		}
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		store, _ := NewLocalStore(t.TempDir(), "")
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := store.Upload(cctx, "songs/x.mp3", strings.NewReader("abc"), 3, "audio/mpeg", nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("rejects paths escaping the root", func(t *testing.T) {
		store, _ := NewLocalStore(t.TempDir(), "")

		_, err := store.Upload(ctx, "../outside.mp3", strings.NewReader("abc"), 3, "audio/mpeg", nil)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		store, _ := NewLocalStore(t.TempDir(), "")
		if _, err := store.Upload(ctx, "artworks/c.jpg", strings.NewReader("img"), 3, "image/jpeg", nil); err != nil {
			t.Fatalf("upload failed: %v", err)
		}

		if err := store.Delete(ctx, "artworks/c.jpg"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if err := store.Delete(ctx, "artworks/c.jpg"); !errors.Is(err, shared.ErrObjectNotFound) {
			t.Errorf("expected ErrObjectNotFound, got %v", err)
		}
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("local driver", func(t *testing.T) {
		cfg := shared.StorageConfig{Driver: shared.StorageLocal, Local: shared.LocalConfig{Root: t.TempDir()}}
		store, err := New(ctx, cfg, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := store.(*LocalStore); !ok {
			t.Errorf("expected *LocalStore, got %T", store)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := New(ctx, shared.StorageConfig{Driver: "ftp"}, nil)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestMinioStore(t *testing.T) {
	t.Run("requires credentials", func(t *testing.T) {
		_, err := NewMinioStore(shared.MinioConfig{Endpoint: "localhost:9000", Bucket: "encore"}, "", nil)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("default public url uses endpoint and bucket", func(t *testing.T) {
		store, err := NewMinioStore(shared.MinioConfig{
			Endpoint:  "localhost:9000",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Bucket:    "encore",
		}, "", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		url, _ := store.PublicURL(context.Background(), Object{Path: "songs/1_a.mp3"})
		if url != "http://localhost:9000/encore/songs/1_a.mp3" {
			t.Errorf("unexpected url %q", url)
		}
	})
}

func TestGCSStore(t *testing.T) {
	t.Run("requires bucket", func(t *testing.T) {
		_, err := NewGCSStore(context.Background(), shared.GCSConfig{}, "", nil)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("missing credentials file", func(t *testing.T) {
		_, err := NewGCSStore(context.Background(), shared.GCSConfig{
			Bucket:          "encore",
			CredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
		}, "", nil)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("emulator public url", func(t *testing.T) {
		t.Setenv("STORAGE_EMULATOR_HOST", "")

		store, err := NewGCSStore(context.Background(), shared.GCSConfig{
			Bucket:       "encore",
			EmulatorHost: "http://localhost:4443/",
		}, "", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer store.Close()

		url, _ := store.PublicURL(context.Background(), Object{Path: "videos/1-v.mp4"})
		if url != "http://localhost:4443/encore/videos/1-v.mp4" {
			t.Errorf("unexpected url %q", url)
		}
	})
}
