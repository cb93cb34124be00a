package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/repositories"
	"github.com/desertthunder/encore/internal/shared"
	tu "github.com/desertthunder/encore/internal/testing"
	"github.com/urfave/cli/v3"
)

type fakeProber struct {
	duration float64
	calls    int
}

func (f *fakeProber) ProbeDuration(_ context.Context, _ string) (float64, error) {
	f.calls++
	return f.duration, nil
}

type harness struct {
	runner *Runner
	output *bytes.Buffer
	docs   *tu.FakeDocumentStore
	blobs  *tu.FakeBlobStore
	prober *fakeProber
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		output: &bytes.Buffer{},
		docs:   tu.NewFakeDocumentStore(),
		blobs:  tu.NewFakeBlobStore(),
		prober: &fakeProber{duration: 212.5},
		dir:    t.TempDir(),
	}
	h.runner = NewRunner(RunnerOpts{
		Logger:    shared.NewLogger(&bytes.Buffer{}),
		Output:    h.output,
		Documents: h.docs,
		Blobs:     h.blobs,
		Prober:    h.prober,
	})
	return h
}

// run executes args against a root command wired like main, without a config file.
func (h *harness) run(args ...string) error {
	app := &cli.Command{
		Name: "encore",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}},
			&cli.BoolFlag{Name: "debug"},
		},
		Before:   h.runner.Before,
		Commands: h.runner.register(),
	}
	return app.Run(context.Background(), append([]string{"encore"}, args...))
}

func (h *harness) file(t *testing.T, name, content string) string {
	t.Helper()
	return tu.MustWriteFile(t, filepath.Join(h.dir, name), []byte(content))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			docs := tu.NewFakeDocumentStore()
			blobs := tu.NewFakeBlobStore()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Documents:  docs,
				Blobs:      blobs,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if got, err := runner.documents(); err != nil || got != docs {
				t.Errorf("expected injected document store, got %v (%v)", got, err)
			}
			if got, err := runner.blobStore(context.Background()); err != nil || got != blobs {
				t.Errorf("expected injected blob store, got %v (%v)", got, err)
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
			if runner.durationProber() == nil {
				t.Error("expected ffprobe to be the default prober")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("documents opens database and runs migrations", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = shared.MemoryDatabase
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(&bytes.Buffer{})})
		defer runner.Close()

		docs, err := runner.documents()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		id, err := docs.Add(context.Background(), "songs", models.Fields{"title": "Intro"})
		if err != nil {
			t.Fatalf("expected document write to succeed, got %v", err)
		}
		if _, err := docs.Get(context.Background(), "songs", id); err != nil {
			t.Errorf("expected document to be readable, got %v", err)
		}

		again, _ := runner.documents()
		if again != docs {
			t.Error("expected the store to be opened once")
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "upload", "songs", "releases", "videos", "settings", "play", "serve"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("Before", func(t *testing.T) {
		t.Run("loads config file", func(t *testing.T) {
			h := newHarness(t)
			path := h.file(t, "config.toml", "[player]\nvolume = 0.3\n")

			if err := h.run("--config", path, "settings", "fields"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if h.runner.config.Player.Volume != 0.3 {
				t.Errorf("expected volume from file, got %v", h.runner.config.Player.Volume)
			}
			if h.runner.config.Storage.Driver != shared.StorageLocal {
				t.Errorf("expected defaults for missing keys, got driver %q", h.runner.config.Storage.Driver)
			}
		})

		t.Run("missing file keeps defaults", func(t *testing.T) {
			h := newHarness(t)

			if err := h.run("--config", filepath.Join(h.dir, "absent.toml"), "settings", "fields"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if h.runner.config.Player.Volume != 1 {
				t.Errorf("expected default volume, got %v", h.runner.config.Player.Volume)
			}
		})

		t.Run("invalid config fails", func(t *testing.T) {
			h := newHarness(t)
			path := h.file(t, "config.toml", "[storage]\ndriver = \"ftp\"\n")

			err := h.run("--config", path, "settings", "fields")
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})
}

func TestParseTrack(t *testing.T) {
	dir := t.TempDir()
	song := tu.MustWriteFile(t, filepath.Join(dir, "song.mp3"), []byte("audio"))

	tests := []struct {
		name    string
		input   string
		title   string
		artist  string
		hasFile bool
		wantErr error
	}{
		{name: "full track", input: "Intro | The Band | " + song, title: "Intro", artist: "The Band", hasFile: true},
		{name: "empty path leaves file unset", input: "Intro|The Band|", title: "Intro", artist: "The Band"},
		{name: "empty fields pass through", input: "||", title: "", artist: ""},
		{name: "too few parts", input: "Intro|The Band", wantErr: shared.ErrInvalidFlag},
		{name: "missing file", input: "Intro|The Band|" + filepath.Join(dir, "nope.mp3"), wantErr: shared.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, err := parseTrack(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track.Title != tt.title || track.Artist != tt.artist {
				t.Errorf("expected %q by %q, got %q by %q", tt.title, tt.artist, track.Title, track.Artist)
			}
			if (track.File != nil) != tt.hasFile {
				t.Errorf("expected file set = %v, got %v", tt.hasFile, track.File != nil)
			}
		})
	}
}

func TestUploadCommands(t *testing.T) {
	t.Run("release uploads cover and songs then writes one record", func(t *testing.T) {
		h := newHarness(t)
		cover := h.file(t, "cover.jpg", "jpeg-bytes")
		a := h.file(t, "a.mp3", "first-song")
		b := h.file(t, "b.mp3", "second-song")

		err := h.run("upload", "release",
			"--kind", "ep", "--name", "Night Drive", "--cover", cover,
			"--track", "Opening|The Band|"+a,
			"--track", "Closing|The Band|"+b,
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := h.blobs.UploadCount(); got != 3 {
			t.Errorf("expected 3 uploads, got %d", got)
		}

		docs := h.docs.Documents("eps")
		if len(docs) != 1 {
			t.Fatalf("expected one ep record, got %d", len(docs))
		}
		var release models.Release
		if err := docs[0].Decode(&release); err != nil {
			t.Fatalf("failed to decode release: %v", err)
		}
		if release.Name != "Night Drive" || len(release.Tracks) != 2 {
			t.Errorf("unexpected release %+v", release)
		}
		if release.Tracks[0].Title != "Opening" || release.Tracks[1].Title != "Closing" {
			t.Errorf("expected track order to be kept, got %+v", release.Tracks)
		}
		if !strings.Contains(h.output.String(), "Upload complete") {
			t.Errorf("expected outcome in output, got %q", h.output.String())
		}
	})

	t.Run("release without kind fails before any upload", func(t *testing.T) {
		h := newHarness(t)
		cover := h.file(t, "cover.jpg", "jpeg-bytes")
		a := h.file(t, "a.mp3", "first-song")

		err := h.run("upload", "release", "--cover", cover, "--track", "Opening|The Band|"+a)
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if h.blobs.UploadCount() != 0 {
			t.Errorf("expected no uploads, got %d", h.blobs.UploadCount())
		}
		if h.docs.Writes != 0 {
			t.Errorf("expected no writes, got %d", h.docs.Writes)
		}
		if !strings.Contains(h.output.String(), "Please select an upload type") {
			t.Errorf("expected validation message, got %q", h.output.String())
		}
	})

	t.Run("release with unknown kind is a flag error", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("upload", "release", "--kind", "mixtape")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("song probes duration and reports JSON", func(t *testing.T) {
		h := newHarness(t)
		cover := h.file(t, "art.png", "png-bytes")
		song := h.file(t, "song.mp3", "song-bytes")

		err := h.run("upload", "song", "--title", "Glow", "--artist", "The Band",
			"--cover", cover, "--file", song, "--json")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if h.prober.calls != 1 {
			t.Errorf("expected duration to be probed once, got %d", h.prober.calls)
		}

		var report submissionReport
		if err := json.Unmarshal(h.output.Bytes(), &report); err != nil {
			t.Fatalf("expected JSON report, got %q: %v", h.output.String(), err)
		}
		if report.Collection != models.TopSongsCollection || report.RecordID == "" {
			t.Errorf("unexpected report %+v", report)
		}
		if len(report.Assets) != 2 {
			t.Errorf("expected 2 assets, got %d", len(report.Assets))
		}

		songs, err := repositories.NewSongRepository(h.docs).List(context.Background())
		if err != nil || len(songs) != 1 {
			t.Fatalf("expected one stored song, got %d (%v)", len(songs), err)
		}
		if songs[0].Duration != 212.5 {
			t.Errorf("expected probed duration, got %v", songs[0].Duration)
		}
	})

	t.Run("song with explicit duration skips probing", func(t *testing.T) {
		h := newHarness(t)
		cover := h.file(t, "art.png", "png-bytes")
		song := h.file(t, "song.mp3", "song-bytes")

		err := h.run("upload", "song", "--title", "Glow", "--artist", "The Band",
			"--cover", cover, "--file", song, "--duration", "95")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.prober.calls != 0 {
			t.Errorf("expected no probe, got %d", h.prober.calls)
		}
	})

	t.Run("failed upload with cleanup removes earlier blobs", func(t *testing.T) {
		h := newHarness(t)
		h.blobs.FailUploadAt = 2
		cover := h.file(t, "art.png", "png-bytes")
		song := h.file(t, "song.mp3", "song-bytes")

		err := h.run("upload", "song", "--title", "Glow", "--artist", "The Band", "--duration", "95",
			"--cover", cover, "--file", song, "--cleanup", "--json")
		if !errors.Is(err, shared.ErrAssetUpload) {
			t.Fatalf("expected ErrAssetUpload, got %v", err)
		}
		if h.docs.Writes != 0 {
			t.Errorf("expected no record, got %d writes", h.docs.Writes)
		}
		if len(h.blobs.Objects) != 0 {
			t.Errorf("expected cleanup to remove every blob, %d left", len(h.blobs.Objects))
		}

		var report submissionReport
		if err := json.Unmarshal(h.output.Bytes(), &report); err != nil {
			t.Fatalf("expected JSON report, got %q: %v", h.output.String(), err)
		}
		if report.Error == "" || len(report.Removed) != 2 {
			t.Errorf("expected error and two removed paths, got %+v", report)
		}
	})

	t.Run("video uploads and writes record", func(t *testing.T) {
		h := newHarness(t)
		video := h.file(t, "clip.mp4", "video-bytes")

		err := h.run("upload", "video", "--title", "Live", "--description", "At the hall", "--file", video)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := len(h.docs.Documents(models.VideosCollection)); got != 1 {
			t.Errorf("expected one video record, got %d", got)
		}
	})
}

func TestCatalogCommands(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, h *harness) {
		t.Helper()
		songs := repositories.NewSongRepository(h.docs)
		for _, s := range []models.TopSong{
			{Title: "Old", Artist: "The Band", SongURL: "https://blobs.test/songs/1-old.mp3", Duration: 61},
			{Title: "New", Artist: "The Band", SongURL: "https://blobs.test/songs/2-new.mp3", Duration: 125},
		} {
			if _, err := songs.Create(ctx, s); err != nil {
				t.Fatalf("failed to seed song: %v", err)
			}
		}

		releases := repositories.NewReleaseRepository(h.docs)
		if _, err := releases.Create(ctx, models.Release{
			Kind:     models.KindEP,
			Name:     "Night Drive",
			CoverURL: "https://blobs.test/covers/1-cover.jpg",
			Tracks:   []models.TrackEntry{{Title: "Opening", Artist: "The Band", AudioURL: "https://blobs.test/songs/3-a.mp3"}},
		}); err != nil {
			t.Fatalf("failed to seed release: %v", err)
		}

		videos := repositories.NewVideoRepository(h.docs)
		if _, err := videos.Create(ctx, models.Video{Title: "Live", Description: "At the hall", VideoURL: "https://blobs.test/videos/1-live.mp4"}); err != nil {
			t.Fatalf("failed to seed video: %v", err)
		}
	}

	t.Run("songs list renders newest first", func(t *testing.T) {
		h := newHarness(t)
		seed(t, h)

		if err := h.run("songs", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := h.output.String()
		newIdx, oldIdx := strings.Index(out, "New"), strings.Index(out, "Old")
		if newIdx < 0 || oldIdx < 0 || newIdx > oldIdx {
			t.Errorf("expected New before Old, got %q", out)
		}
		if !strings.Contains(out, "(2:05)") {
			t.Errorf("expected clock duration, got %q", out)
		}
	})

	t.Run("songs list rejects unknown format", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("songs", "list", "--format", "yaml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("songs export writes file", func(t *testing.T) {
		h := newHarness(t)
		seed(t, h)
		path := filepath.Join(h.dir, "top.csv")

		if err := h.run("songs", "export", "--format", "csv", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		content := tu.MustReadFile(t, path)
		if !strings.HasPrefix(content, "ID,Title,Artist,Duration") {
			t.Errorf("expected CSV header, got %q", content)
		}
	})

	t.Run("releases list as JSON includes ids", func(t *testing.T) {
		h := newHarness(t)
		seed(t, h)

		if err := h.run("releases", "list", "--kind", "ep", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var out []releaseOutput
		if err := json.Unmarshal(h.output.Bytes(), &out); err != nil {
			t.Fatalf("expected JSON, got %q: %v", h.output.String(), err)
		}
		if len(out) != 1 || out[0].ID == "" || out[0].Name != "Night Drive" {
			t.Errorf("unexpected releases %+v", out)
		}
	})

	t.Run("releases export without cover server still writes markdown", func(t *testing.T) {
		h := newHarness(t)
		seed(t, h)
		releases, _ := repositories.NewReleaseRepository(h.docs).List(ctx, models.KindEP)
		dir := filepath.Join(h.dir, "export")

		h.runner.httpClient = &http.Client{Transport: failingTransport{}}
		if err := h.run("releases", "export", "--kind", "ep", "--id", releases[0].ID, "--dir", dir); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		readme := tu.MustReadFile(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(readme, "# Night Drive") {
			t.Errorf("expected release title, got %q", readme)
		}
	})

	t.Run("releases export of unknown id fails", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("releases", "export", "--kind", "album", "--id", "missing", "--dir", h.dir)
		if !errors.Is(err, shared.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound, got %v", err)
		}
	})

	t.Run("export writes the whole catalog", func(t *testing.T) {
		h := newHarness(t)
		seed(t, h)
		h.runner.httpClient = &http.Client{Transport: failingTransport{}}
		dir := filepath.Join(h.dir, "catalog")

		if err := h.run("export", "--dir", dir, "--format", "json", "--rate", "100"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "songs.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "videos.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if !strings.Contains(h.output.String(), "1 exported, 0 failed") {
			t.Errorf("expected summary, got %q", h.output.String())
		}
	})

	t.Run("videos list", func(t *testing.T) {
		h := newHarness(t)
		seed(t, h)

		if err := h.run("videos", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Live: At the hall") {
			t.Errorf("expected video line, got %q", h.output.String())
		}
	})
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("offline")
}

func TestSettingsCommands(t *testing.T) {
	t.Run("set then get", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("settings", "set",
			"--field", "recordLabel=Night Owl",
			"--field", "socialLinks.spotify=https://open.spotify.com/artist/x",
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		h.output.Reset()
		if err := h.run("settings", "get", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var settings models.HomeSettings
		if err := json.Unmarshal(h.output.Bytes(), &settings); err != nil {
			t.Fatalf("expected JSON, got %q: %v", h.output.String(), err)
		}
		if settings.RecordLabel != "Night Owl" {
			t.Errorf("expected record label, got %q", settings.RecordLabel)
		}
		if settings.SocialLinks.Spotify != "https://open.spotify.com/artist/x" {
			t.Errorf("expected spotify link, got %q", settings.SocialLinks.Spotify)
		}
	})

	t.Run("values may contain equals signs", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("settings", "set", "--field", "socialLinks.youtube=https://youtube.com/watch?v=abc"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		settings, _ := repositories.NewSettingsRepository(h.docs).Load(context.Background())
		if settings.SocialLinks.YouTube != "https://youtube.com/watch?v=abc" {
			t.Errorf("expected full value, got %q", settings.SocialLinks.YouTube)
		}
	})

	t.Run("rejects invalid input without saving", func(t *testing.T) {
		tests := []struct {
			name    string
			field   string
			wantErr error
		}{
			{name: "unknown field", field: "website=https://example.com", wantErr: shared.ErrInvalidFlag},
			{name: "missing equals", field: "recordLabel", wantErr: shared.ErrInvalidFlag},
			{name: "too long", field: "latestSongTitle=" + strings.Repeat("x", 21), wantErr: shared.ErrValidation},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t)

				err := h.run("settings", "set", "--field", "recordLabel=Kept", "--field", tt.field)
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}

				settings, _ := repositories.NewSettingsRepository(h.docs).Load(context.Background())
				if settings.RecordLabel != "" {
					t.Errorf("expected nothing saved, got %q", settings.RecordLabel)
				}
			})
		}
	})

	t.Run("requires a field", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("settings", "set"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("fields lists dotted paths", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("settings", "fields"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "socialLinks.tiktok") {
			t.Errorf("expected nested field names, got %q", h.output.String())
		}
	})
}

func TestSetupDatabase(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{}), Output: &bytes.Buffer{}})
	app := &cli.Command{
		Name:     "encore",
		Flags:    []cli.Flag{&cli.StringFlag{Name: "config", Value: "config.toml"}},
		Before:   runner.Before,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), []string{"encore", "setup", "database"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
	tu.AssertFileExists(t, filepath.Join(dir, "encore.db"))

	if err := app.Run(context.Background(), []string{"encore", "setup", "database"}); err != nil {
		t.Errorf("expected setup to be repeatable, got %v", err)
	}
}

func TestAPIRouter(t *testing.T) {
	h := newHarness(t)

	router, err := h.runner.apiRouter()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
