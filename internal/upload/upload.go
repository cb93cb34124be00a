package upload

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/shared"
	"github.com/desertthunder/encore/internal/storage"
	"golang.org/x/time/rate"
)

// Destination prefixes in blob storage.
const (
	ArtworksPrefix = "artworks"
	SongsPrefix    = "songs"
	VideosPrefix   = "videos"
)

// Role distinguishes the optional cover from media files.
type Role int

const (
	RoleCover Role = iota
	RoleMedia
)

func (r Role) String() string {
	if r == RoleCover {
		return "cover"
	}
	return "media"
}

// Asset is one binary of a submission.
//
// Path is assigned when its upload starts and RemoteURL when it completes.
type Asset struct {
	ID        string
	Role      Role
	File      *File
	Path      string
	RemoteURL string

	prefix    string
	separator string
	failure   string
	stored    bool // the blob exists, even if no URL was resolved
}

// DestinationPath builds `{prefix}/{unixMillis}{sep}{name}`.
func DestinationPath(prefix, sep string, at time.Time, name string) string {
	return prefix + "/" + strconv.FormatInt(at.UnixMilli(), 10) + sep + filepath.Base(name)
}

// stamper hands out upload timestamps that never repeat within one submission.
type stamper struct {
	now  func() time.Time
	last int64
}

func (s *stamper) next() time.Time {
	ms := s.now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return time.UnixMilli(ms)
}

// DurationProber reads the duration of a local media file in seconds.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Options configure a [Pipeline].
type Options struct {
	Limits         Limits
	Cleanup        bool    // delete uploaded blobs after a failure
	CleanupWorkers int     // concurrent deletions, default 3
	CleanupRate    float64 // deletions per second, default 5
	ProgressRate   float64 // byte-progress events per second, <= 0 sends all
	Prober         DurationProber
	Now            func() time.Time
}

// OptionsFromConfig maps the [upload] config section.
func OptionsFromConfig(cfg shared.UploadConfig) Options {
	return Options{
		Limits: Limits{
			MaxTracks:            cfg.MaxTracks,
			MaxVideoBytes:        cfg.MaxVideoBytes,
			MaxTitleLength:       cfg.MaxTitleLength,
			MaxDescriptionLength: cfg.MaxDescriptionLength,
		},
		Cleanup:      cfg.CleanupOnFailure,
		ProgressRate: cfg.ProgressRate,
	}
}

// Result is returned by every submission, successful or not.
type Result struct {
	Collection string
	RecordID   string
	Assets     []Asset  // planned assets; RemoteURL is set on those that were uploaded
	Progress   float64  // final overall percentage
	Orphans    []string // blob paths left in storage without a record
	Removed    []string // blob paths deleted by cleanup
}

// Uploaded returns the assets that reached storage.
func (r *Result) Uploaded() []Asset {
	var out []Asset
	for _, a := range r.Assets {
		if a.RemoteURL != "" {
			out = append(out, a)
		}
	}
	return out
}

// Pipeline uploads assets sequentially and writes one record once all of them are stored.
type Pipeline struct {
	blobs  storage.BlobStore
	docs   models.DocumentStore
	logger *log.Logger
	opts   Options
}

// NewPipeline creates a new Pipeline with the provided collaborators.
func NewPipeline(blobs storage.BlobStore, docs models.DocumentStore, logger *log.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CleanupWorkers <= 0 {
		opts.CleanupWorkers = 3
	}
	if opts.CleanupRate <= 0 {
		opts.CleanupRate = 5
	}
	opts.Limits = opts.Limits.withDefaults()
	return &Pipeline{blobs: blobs, docs: docs, logger: shared.WithLogger(logger, "component", "upload"), opts: opts}
}

// job is one planned submission.
type job struct {
	collection string
	assets     []*Asset
	failure    string
	record     func(assets []*Asset) models.Record
}

// SubmitRelease uploads the cover and every song, then writes the release record.
//
// The form is reset only on success.
func (p *Pipeline) SubmitRelease(ctx context.Context, progress chan<- ProgressUpdate, form *ReleaseForm) (*Result, error) {
	if err := form.Validate(p.opts.Limits); err != nil {
		p.sendProgress(progress, failedUpdate(0, err))
		return &Result{Collection: form.Kind.Collection()}, err
	}

	assets := make([]*Asset, 0, len(form.Tracks)+1)
	assets = append(assets, &Asset{
		ID: "artwork", Role: RoleCover, File: form.Cover,
		prefix: ArtworksPrefix, separator: "_", failure: "Artwork upload failed. Please try again.",
	})
	for i, tr := range form.Tracks {
		assets = append(assets, &Asset{
			ID: fmt.Sprintf("song-%d", i), Role: RoleMedia, File: tr.File,
			prefix: SongsPrefix, separator: "_", failure: fmt.Sprintf("Song %d upload failed. Please try again.", i+1),
		})
	}

	kind, name, tracks := form.Kind, form.Name, form.Tracks
	res, err := p.run(ctx, progress, job{
		collection: kind.Collection(),
		assets:     assets,
		failure:    "Failed to save music details. Please try again.",
		record: func(assets []*Asset) models.Record {
			entries := make([]models.TrackEntry, len(tracks))
			for i, tr := range tracks {
				entries[i] = models.TrackEntry{Title: tr.Title, Artist: tr.Artist, AudioURL: assets[i+1].RemoteURL}
			}
			return models.Release{Kind: kind, Name: name, CoverURL: assets[0].RemoteURL, Tracks: entries}
		},
	})
	if err == nil {
		form.Reset()
	}
	return res, err
}

// SubmitTopSong uploads the artwork then the song (50/50 progress) and writes a songs record.
func (p *Pipeline) SubmitTopSong(ctx context.Context, progress chan<- ProgressUpdate, form *SongForm) (*Result, error) {
	res := &Result{Collection: models.TopSongsCollection}
	if err := form.Validate(); err != nil {
		p.sendProgress(progress, failedUpdate(0, err))
		return res, err
	}

	duration := p.resolveDuration(ctx, form)
	if duration <= 0 {
		err := invalid("duration", "Could not determine song duration.")
		p.sendProgress(progress, failedUpdate(0, err))
		return res, err
	}

	song := models.TopSong{Title: form.Title, Artist: form.Artist, Duration: duration}
	res, err := p.run(ctx, progress, job{
		collection: models.TopSongsCollection,
		assets: []*Asset{
			{ID: "artwork", Role: RoleCover, File: form.Cover, prefix: ArtworksPrefix, separator: "_", failure: "Artwork Upload Failed"},
			{ID: "song", Role: RoleMedia, File: form.Song, prefix: SongsPrefix, separator: "_", failure: "Song Upload Failed"},
		},
		failure: "Failed to save song details. Please try again.",
		record: func(assets []*Asset) models.Record {
			song.ArtworkURL = assets[0].RemoteURL
			song.SongURL = assets[1].RemoteURL
			return song
		},
	})
	if err == nil {
		form.Reset()
	}
	return res, err
}

func (p *Pipeline) resolveDuration(ctx context.Context, form *SongForm) float64 {
	if form.Duration > 0 {
		return form.Duration
	}
	if p.opts.Prober == nil || form.Song.Path == "" {
		return 0
	}

	d, err := p.opts.Prober.ProbeDuration(ctx, form.Song.Path)
	if err != nil {
		p.logger.Warn("duration probe failed", "file", form.Song.Path, "error", err)
		return 0
	}
	return d
}

// SubmitVideo uploads one video and writes a videos record.
func (p *Pipeline) SubmitVideo(ctx context.Context, progress chan<- ProgressUpdate, form *VideoForm) (*Result, error) {
	if err := form.Validate(p.opts.Limits); err != nil {
		p.sendProgress(progress, failedUpdate(0, err))
		return &Result{Collection: models.VideosCollection}, err
	}

	title, description := form.Title, form.Description
	res, err := p.run(ctx, progress, job{
		collection: models.VideosCollection,
		assets: []*Asset{
			{ID: "video", Role: RoleMedia, File: form.File, prefix: VideosPrefix, separator: "-", failure: "Video upload failed. Please try again."},
		},
		failure: "Failed to save video details. Please try again.",
		record: func(assets []*Asset) models.Record {
			return models.Video{Title: title, Description: description, VideoURL: assets[0].RemoteURL}
		},
	})
	if err == nil {
		form.Reset()
	}
	return res, err
}

// run is the sequential driver shared by every submission.
func (p *Pipeline) run(ctx context.Context, progress chan<- ProgressUpdate, j job) (*Result, error) {
	ids := make([]string, len(j.assets))
	for i, a := range j.assets {
		ids[i] = a.ID
	}

	tracker := NewTracker(ids...)
	throttle := rate.NewLimiter(rate.Inf, 0)
	if p.opts.ProgressRate > 0 {
		throttle = rate.NewLimiter(rate.Limit(p.opts.ProgressRate), 1)
	}

	res := &Result{Collection: j.collection}
	stamps := &stamper{now: p.opts.Now}
	p.sendProgress(progress, startUpdate(len(j.assets)))

	for i, a := range j.assets {
		if err := p.uploadAsset(ctx, progress, throttle, tracker, stamps.next(), i+1, len(j.assets), a); err != nil {
			res.Progress = tracker.Overall()
			return p.fail(ctx, progress, res, j.assets, a, err)
		}
	}

	rec := j.record(j.assets)
	p.sendProgress(progress, writeRecordUpdate(rec.Collection(), tracker.Overall()))

	id, err := p.docs.Add(ctx, rec.Collection(), rec.ToFields())
	if err != nil {
		res.Progress = tracker.Overall()
		werr := &RecordWriteError{Collection: rec.Collection(), Message: j.failure, Err: err}
		return p.fail(ctx, progress, res, j.assets, nil, werr)
	}

	res.RecordID = id
	res.Assets = snapshot(j.assets)
	res.Progress = tracker.Overall()

	p.logger.Info("record saved", "collection", rec.Collection(), "id", id, "assets", len(j.assets))
	p.sendProgress(progress, doneUpdate(res))
	return res, nil
}

func (p *Pipeline) uploadAsset(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	throttle *rate.Limiter,
	tracker *Tracker,
	at time.Time,
	step, total int,
	a *Asset,
) error {
	if err := ctx.Err(); err != nil {
		return &AssetUploadError{Asset: a.ID, Message: a.failure, Err: err}
	}

	a.Path = DestinationPath(a.prefix, a.separator, at, a.File.Name)
	logger := shared.WithLogger(p.logger, "asset", a.ID, "path", a.Path)
	logger.Info("uploading asset", "size", a.File.Size)
	p.sendProgress(progress, assetStartUpdate(step, total, a, tracker.Overall()))

	rc, err := a.File.Open()
	if err != nil {
		return &AssetUploadError{Asset: a.ID, Path: a.Path, Message: a.failure, Err: err}
	}
	defer rc.Close()

	onProgress := func(pr storage.Progress) {
		overall := tracker.Update(a.ID, pr.Percent())
		logger.Debug("progress", "bytes", pr.BytesTransferred, "total", pr.TotalBytes)
		if throttle.Allow() {
			p.sendProgress(progress, assetProgressUpdate(step, total, a, overall))
		}
	}

	obj, err := p.blobs.Upload(ctx, a.Path, rc, a.File.Size, storage.ContentTypeFor(a.File.Name), onProgress)
	if err != nil {
		logger.Error("upload failed", "error", err)
		return &AssetUploadError{Asset: a.ID, Path: a.Path, Message: a.failure, Err: err}
	}
	a.stored = true

	url, err := p.blobs.PublicURL(ctx, obj)
	if err != nil {
		logger.Error("public url failed", "error", err)
		return &AssetUploadError{Asset: a.ID, Path: a.Path, Message: a.failure, Err: err}
	}
	a.RemoteURL = url

	overall := tracker.Complete(a.ID)
	logger.Info("asset uploaded", "url", url)
	p.sendProgress(progress, assetDoneUpdate(step, total, a, overall))
	return nil
}

// sendProgress sends a progress update through the channel without blocking.
func (p *Pipeline) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func snapshot(assets []*Asset) []Asset {
	out := make([]Asset, len(assets))
	for i, a := range assets {
		out[i] = *a
	}
	return out
}
