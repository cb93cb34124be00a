package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/encore/internal/shared"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

var _ BlobStore = (*GCSStore)(nil)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSStore stores blobs in a Google Cloud Storage bucket.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
	logger  *log.Logger
}

// NewGCSStore creates the client from a service-account file, an emulator host or application default credentials.
func NewGCSStore(ctx context.Context, cfg shared.GCSConfig, baseURL string, logger *log.Logger) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: gcs bucket is required", shared.ErrInvalidConfig)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	opts, err := gcsClientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	if baseURL == "" {
		host := gcsPublicHost
		if cfg.EmulatorHost != "" {
			host = strings.TrimRight(cfg.EmulatorHost, "/")
		}
		baseURL = host + "/" + cfg.Bucket
	}

	return &GCSStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		logger:  shared.WithLogger(logger, "component", "gcs", "bucket", cfg.Bucket),
	}, nil
}

func gcsClientOptions(ctx context.Context, cfg shared.GCSConfig) ([]option.ClientOption, error) {
	if cfg.EmulatorHost != "" {
		// the client library reads the emulator address from the environment
		if err := os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(cfg.EmulatorHost, "/")); err != nil {
			return nil, fmt.Errorf("failed to set emulator host: %w", err)
		}
		return []option.ClientOption{option.WithoutAuthentication()}, nil
	}

	if cfg.CredentialsFile == "" {
		return []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}, nil
	}

	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read gcs credentials: %v", shared.ErrMissingCredentials, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, storage.ScopeReadWrite)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse gcs credentials: %v", shared.ErrInvalidConfig, err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

// Upload streams data through an object writer; the writer reports committed bytes.
func (s *GCSStore) Upload(ctx context.Context, objectPath string, data io.Reader, size int64, contentType string, onProgress ProgressFunc) (Object, error) {
	c := newCounter(size, onProgress)

	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	w.ProgressFunc = c.set

	written, err := io.Copy(w, data)
	if err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("failed to write object %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to finalize object %s: %w", objectPath, err)
	}

	// small objects are sent in a single request and never trigger the writer callback
	c.set(written)

	s.logger.Debug("object stored", "path", objectPath, "size", written)
	return Object{Path: objectPath, Size: written, ContentType: contentType}, nil
}

// PublicURL joins the base URL (storage.googleapis.com/bucket by default) and object path.
func (s *GCSStore) PublicURL(_ context.Context, obj Object) (string, error) {
	return JoinURL(s.baseURL, obj.Path), nil
}

// Delete removes the object.
func (s *GCSStore) Delete(ctx context.Context, objectPath string) error {
	err := s.client.Bucket(s.bucket).Object(objectPath).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", shared.ErrObjectNotFound, objectPath)
	}
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", objectPath, err)
	}
	return nil
}

// Close releases the client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
