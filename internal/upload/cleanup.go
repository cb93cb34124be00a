package upload

import (
	"context"
	"errors"
	"sync"

	"github.com/desertthunder/encore/internal/shared"
	"golang.org/x/time/rate"
)

type cleanupTarget struct {
	path    string
	partial bool // the asset whose upload failed; it may not exist
}

type cleanupResult struct {
	target cleanupTarget
	err    error
}

// fail records the failure on res and, when enabled, removes the blobs the pipeline left behind.
func (p *Pipeline) fail(ctx context.Context, progress chan<- ProgressUpdate, res *Result, assets []*Asset, failed *Asset, err error) (*Result, error) {
	res.Assets = snapshot(assets)

	var targets []cleanupTarget
	for _, a := range assets {
		if a.stored {
			targets = append(targets, cleanupTarget{path: a.Path})
		}
	}

	if !p.opts.Cleanup {
		for _, t := range targets {
			res.Orphans = append(res.Orphans, t.path)
		}
		if len(res.Orphans) > 0 {
			p.logger.Warn("uploaded assets left without a record", "orphans", res.Orphans)
		}
		p.sendProgress(progress, failedUpdate(res.Progress, err))
		return res, err
	}

	if failed != nil && failed.Path != "" && !failed.stored {
		targets = append(targets, cleanupTarget{path: failed.Path, partial: true})
	}

	// deletions still run when ctx was the reason for failing
	res.Removed, res.Orphans = p.cleanup(context.WithoutCancel(ctx), progress, targets)
	p.sendProgress(progress, failedUpdate(res.Progress, err))
	return res, err
}

// cleanup deletes targets with a rate-limited worker pool and returns removed and remaining paths in target order.
func (p *Pipeline) cleanup(ctx context.Context, progress chan<- ProgressUpdate, targets []cleanupTarget) ([]string, []string) {
	if len(targets) == 0 {
		return nil, nil
	}

	limiter := rate.NewLimiter(rate.Limit(p.opts.CleanupRate), 1)
	workers := min(p.opts.CleanupWorkers, len(targets))

	jobs := make(chan cleanupTarget, len(targets))
	results := make(chan cleanupResult, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go p.cleanupWorker(ctx, &wg, limiter, jobs, results)
	}

	for _, t := range targets {
		jobs <- t
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	outcome := make(map[string]error, len(targets))
	completed := 0
	for r := range results {
		completed++
		outcome[r.target.path] = r.err
		p.sendProgress(progress, cleanupUpdate(completed, len(targets), r.target.path, r.err))
	}

	var removed, orphans []string
	for _, t := range targets {
		err := outcome[t.path]
		switch {
		case err == nil:
			removed = append(removed, t.path)
		case errors.Is(err, shared.ErrObjectNotFound):
			if !t.partial {
				removed = append(removed, t.path)
			}
		default:
			p.logger.Error("cleanup failed", "path", t.path, "error", err)
			orphans = append(orphans, t.path)
		}
	}
	return removed, orphans
}

func (p *Pipeline) cleanupWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan cleanupTarget,
	results chan<- cleanupResult,
) {
	defer wg.Done()

	for t := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- cleanupResult{target: t, err: err}
			continue
		}
		results <- cleanupResult{target: t, err: p.blobs.Delete(ctx, t.path)}
	}
}
