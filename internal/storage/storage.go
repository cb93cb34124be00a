// package storage uploads binary assets to blob storage and resolves their public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/encore/internal/shared"
)

// Progress is a byte-progress event of one upload.
type Progress struct {
	BytesTransferred int64
	TotalBytes       int64
}

// Percent returns the transferred share in [0, 100]. Unknown totals report 0.
func (p Progress) Percent() float64 {
	if p.TotalBytes <= 0 {
		return 0
	}
	pct := float64(p.BytesTransferred) / float64(p.TotalBytes) * 100
	return min(max(pct, 0), 100)
}

// ProgressFunc receives byte-progress events. It may be nil.
type ProgressFunc func(Progress)

// Object describes a stored blob.
type Object struct {
	Path        string
	Size        int64
	ContentType string
}

// BlobStore is the narrow contract over the hosted blob storage.
type BlobStore interface {
	// Upload stores size bytes from data at path, reporting progress as bytes are sent.
	Upload(ctx context.Context, path string, data io.Reader, size int64, contentType string, onProgress ProgressFunc) (Object, error)
	// PublicURL returns the locator clients use to fetch the object.
	PublicURL(ctx context.Context, obj Object) (string, error)
	// Delete removes the object; a missing object wraps shared.ErrObjectNotFound.
	Delete(ctx context.Context, path string) error
}

// New builds the [BlobStore] selected by cfg.Driver.
func New(ctx context.Context, cfg shared.StorageConfig, logger *log.Logger) (BlobStore, error) {
	switch cfg.Driver {
	case shared.StorageLocal:
		return NewLocalStore(cfg.Local.Root, cfg.PublicBaseURL)
	case shared.StorageMinio:
		store, err := NewMinioStore(cfg.Minio, cfg.PublicBaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case shared.StorageGCS:
		return NewGCSStore(ctx, cfg.GCS, cfg.PublicBaseURL, logger)
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}

// ContentTypeFor guesses a MIME type from the file extension.
func ContentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// JoinURL appends an object path to a base URL, escaping each path segment.
func JoinURL(base, objectPath string) string {
	segments := strings.Split(strings.TrimLeft(objectPath, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}

// counter accumulates transferred bytes and forwards progress events.
//
// Drivers may report from several goroutines (multipart uploads), so updates are serialised.
type counter struct {
	mu    sync.Mutex
	done  int64
	total int64
	fn    ProgressFunc
}

func newCounter(total int64, fn ProgressFunc) *counter {
	return &counter{total: total, fn: fn}
}

func (c *counter) add(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.done += n
	if c.total > 0 && c.done > c.total {
		c.done = c.total
	}
	if c.fn != nil {
		c.fn(Progress{BytesTransferred: c.done, TotalBytes: c.total})
	}
}

// set records an absolute byte count, ignoring values lower than what was already reported.
func (c *counter) set(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= c.done {
		return
	}
	c.done = n
	if c.total > 0 && c.done > c.total {
		c.done = c.total
	}
	if c.fn != nil {
		c.fn(Progress{BytesTransferred: c.done, TotalBytes: c.total})
	}
}

// Read implements the minio progress hook contract: it consumes b and reports len(b) bytes sent.
func (c *counter) Read(b []byte) (int, error) {
	c.add(int64(len(b)))
	return len(b), nil
}

// progressReader reports bytes as they are read from the wrapped reader.
type progressReader struct {
	r io.Reader
	c *counter
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.c.add(int64(n))
	}
	return n, err
}
