package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/encore/internal/shared"
)

var _ BlobStore = (*LocalStore)(nil)

// LocalStore keeps blobs as files below a root directory.
//
// Public URLs are built from the configured base URL; `encore serve` exposes the root under /media.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: local storage root is required", shared.ErrInvalidConfig)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	if baseURL == "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve storage root: %w", err)
		}
		baseURL = "file://" + filepath.ToSlash(abs)
	}
	return &LocalStore{root: root, baseURL: baseURL}, nil
}

// Root returns the directory blobs are written to.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) resolve(objectPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimLeft(objectPath, "/")))
	if clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: invalid object path %q", shared.ErrInvalidArgument, objectPath)
	}
	return filepath.Join(s.root, clean), nil
}

// Upload copies data to a temporary file and renames it into place once complete.
func (s *LocalStore) Upload(ctx context.Context, objectPath string, data io.Reader, size int64, contentType string, onProgress ProgressFunc) (Object, error) {
	dest, err := s.resolve(objectPath)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return Object{}, fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	src := &progressReader{r: &ctxReader{ctx: ctx, r: data}, c: newCounter(size, onProgress)}
	written, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Object{}, fmt.Errorf("failed to write object %s: %w", objectPath, err)
	}
	if size >= 0 && written != size {
		return Object{}, fmt.Errorf("short write for %s: %d of %d bytes", objectPath, written, size)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return Object{}, fmt.Errorf("failed to store object: %w", err)
	}

	return Object{Path: objectPath, Size: written, ContentType: contentType}, nil
}

// PublicURL joins the base URL and object path.
func (s *LocalStore) PublicURL(_ context.Context, obj Object) (string, error) {
	return JoinURL(s.baseURL, obj.Path), nil
}

// Delete removes the file.
func (s *LocalStore) Delete(_ context.Context, objectPath string) error {
	dest, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", shared.ErrObjectNotFound, objectPath)
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}
