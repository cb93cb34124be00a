package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/desertthunder/encore/internal/shared"
	"github.com/desertthunder/encore/internal/storage"
)

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("injected failure")

var _ storage.BlobStore = (*FakeBlobStore)(nil)

// FakeBlobStore is an in-memory [storage.BlobStore] with failure injection by upload index.
type FakeBlobStore struct {
	mu sync.Mutex

	BaseURL      string
	Chunk        int64             // bytes per progress event, default 4
	FailUploadAt int               // 1-based upload call that fails; 0 never fails
	FailDelete   map[string]error  // per-path delete errors
	FailURL      map[string]error  // per-path PublicURL errors
	Objects      map[string][]byte // stored and partially stored objects
	Uploads      []string          // upload paths in call order
	Deleted      []string
}

// NewFakeBlobStore creates an empty store serving from https://blobs.test.
func NewFakeBlobStore() *FakeBlobStore {
	return &FakeBlobStore{BaseURL: "https://blobs.test", Objects: map[string][]byte{}}
}

// Upload reads data in chunks, reporting progress after each one. The failing call keeps half of the object.
func (f *FakeBlobStore) Upload(ctx context.Context, path string, data io.Reader, size int64, contentType string, onProgress storage.ProgressFunc) (storage.Object, error) {
	f.mu.Lock()
	f.Uploads = append(f.Uploads, path)
	index := len(f.Uploads)
	chunk := f.Chunk
	f.mu.Unlock()

	if chunk <= 0 {
		chunk = 4
	}

	content, err := io.ReadAll(data)
	if err != nil {
		return storage.Object{}, err
	}

	limit := int64(len(content))
	failing := index == f.FailUploadAt
	if failing {
		limit /= 2
	}

	var sent int64
	for sent < limit {
		if err := ctx.Err(); err != nil {
			return storage.Object{}, err
		}
		sent = min(sent+chunk, limit)
		if onProgress != nil {
			onProgress(storage.Progress{BytesTransferred: sent, TotalBytes: size})
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Objects[path] = content[:sent]
	if failing {
		return storage.Object{}, fmt.Errorf("upload %d: %w", index, ErrInjected)
	}
	return storage.Object{Path: path, Size: sent, ContentType: contentType}, nil
}

func (f *FakeBlobStore) PublicURL(_ context.Context, obj storage.Object) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.FailURL[obj.Path]; err != nil {
		return "", err
	}
	return storage.JoinURL(f.BaseURL, obj.Path), nil
}

func (f *FakeBlobStore) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.FailDelete[path]; err != nil {
		return err
	}
	if _, ok := f.Objects[path]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrObjectNotFound, path)
	}
	delete(f.Objects, path)
	f.Deleted = append(f.Deleted, path)
	return nil
}

// UploadCount returns how many uploads were attempted.
func (f *FakeBlobStore) UploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Uploads)
}
