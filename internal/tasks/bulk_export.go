package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/encore/internal/formatter"
	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for catalog exports.
type BulkExportOpts struct {
	Format     formatter.Format // Songs file format (default: csv)
	OutputDir  string           // Base output directory (default: encore_export_{epoch})
	NumWorkers int              // Concurrent release exports (default: 5, max: 10)
	RateLimit  float64          // Release exports started per second (default: 5)
}

// ReleaseExportResult is the outcome of exporting one release.
type ReleaseExportResult struct {
	ReleaseID string             `json:"id"`
	Kind      models.ReleaseKind `json:"kind"`
	Name      string             `json:"name"`
	Success   bool               `json:"success"`
	Files     []string           `json:"files"`
	Warnings  []string           `json:"warnings,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// BulkExportResult summarises a catalog export and is written as the manifest.
type BulkExportResult struct {
	OutputDirectory   string                `json:"outputDirectory"`
	SongsFile         string                `json:"songsFile"`
	VideosFile        string                `json:"videosFile"`
	TotalReleases     int                   `json:"totalReleases"`
	SuccessfulExports int                   `json:"successfulExports"`
	FailedExports     int                   `json:"failedExports"`
	Results           []ReleaseExportResult `json:"releases"`
	ManifestPath      string                `json:"-"`
}

type releaseJob struct {
	index   int
	release models.Release
}

// BulkExport exports songs, videos and every release below opts.OutputDir.
//
// Listing failures abort the export. Individual release failures are recorded in the result and the manifest.
func (e *CatalogExporter) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.releases == nil || e.songs == nil || e.videos == nil {
		return nil, fmt.Errorf("%w: catalog sources not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("encore_export_%d", time.Now().Unix())
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatCSV
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	e.sendProgress(prog, fetchingCatalogUpdate())

	releases, err := e.releases.List(ctx, models.KindUnset)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}
	songs, err := e.songs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	videos, err := e.videos.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		OutputDirectory: opts.OutputDir,
		TotalReleases:   len(releases),
		Results:         make([]ReleaseExportResult, 0, len(releases)),
	}

	songsPath := filepath.Join(opts.OutputDir, "songs."+opts.Format.Extension())
	if result.SongsFile, err = formatter.WriteSongsExport(songs, opts.Format, songsPath); err != nil {
		return result, err
	}
	e.sendProgress(prog, songsExportedUpdate(len(songs), result.SongsFile))

	if result.VideosFile, err = e.writeVideos(videos, opts.OutputDir); err != nil {
		return result, err
	}
	e.sendProgress(prog, videosExportedUpdate(len(videos), result.VideosFile))

	e.exportReleases(ctx, prog, releases, opts, result)

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := formatter.ToJSON(result, true)
	if err != nil {
		return result, err
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (e *CatalogExporter) writeVideos(videos []models.Video, dir string) (string, error) {
	type videoEntry struct {
		ID string `json:"id"`
		models.Video
	}

	out := make([]videoEntry, len(videos))
	for i, v := range videos {
		out[i] = videoEntry{ID: v.ID, Video: v}
	}

	data, err := formatter.ToJSON(out, true)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "videos.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write videos export: %w", err)
	}
	return path, nil
}

// exportReleases runs the worker pool and fills result in release order.
func (e *CatalogExporter) exportReleases(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	releases []models.Release,
	opts BulkExportOpts,
	result *BulkExportResult,
) {
	if len(releases) == 0 {
		return
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan releaseJob, len(releases))
	results := make(chan indexedResult, len(releases))

	var wg sync.WaitGroup
	for i := 0; i < min(opts.NumWorkers, len(releases)); i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, rel := range releases {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- releaseJob{index: i, release: rel}
			e.sendProgress(prog, exportingReleaseUpdate(i+1, len(releases), releaseName(rel)))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*ReleaseExportResult, len(releases))
	completed := 0
	for res := range results {
		completed++
		ordered[res.index] = &res.ReleaseExportResult

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(releases), res.Name, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(releases), res.Name, fmt.Errorf("%s", res.Error)))
		}
	}

	for i, res := range ordered {
		if res == nil {
			rel := releases[i]
			res = &ReleaseExportResult{
				ReleaseID: rel.ID,
				Kind:      rel.Kind,
				Name:      releaseName(rel),
				Error:     "export cancelled",
			}
			result.FailedExports++
		}
		result.Results = append(result.Results, *res)
	}

	sort.SliceStable(result.Results, func(i, j int) bool {
		return result.Results[i].Kind < result.Results[j].Kind
	})
}

type indexedResult struct {
	index int
	ReleaseExportResult
}

// exportWorker is a worker goroutine that exports releases from the jobs channel.
func (e *CatalogExporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan releaseJob,
	results chan<- indexedResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- indexedResult{index: job.index, ReleaseExportResult: e.exportSingleRelease(job.release, opts)}
	}
}

// exportSingleRelease writes {dir}/{collection}/{id}/README.md and the cover image.
func (e *CatalogExporter) exportSingleRelease(rel models.Release, opts BulkExportOpts) ReleaseExportResult {
	result := ReleaseExportResult{
		ReleaseID: rel.ID,
		Kind:      rel.Kind,
		Name:      releaseName(rel),
		Files:     []string{},
	}

	dir := filepath.Join(opts.OutputDir, rel.Collection(), rel.ID)
	res, err := formatter.WriteReleaseExport(rel, dir, e.client, func(err error) {
		e.logger.Warn("cover not exported", "release", rel.ID, "error", err)
		result.Warnings = append(result.Warnings, err.Error())
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Files = res.Files
	result.Success = true
	return result
}
