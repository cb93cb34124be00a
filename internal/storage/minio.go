package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/encore/internal/shared"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var _ BlobStore = (*MinioStore)(nil)

// MinioStore stores blobs in an S3-compatible bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	region  string
	baseURL string
	logger  *log.Logger
}

// NewMinioStore creates the client. No request is made until the first call.
func NewMinioStore(cfg shared.MinioConfig, baseURL string, logger *log.Logger) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: minio endpoint and bucket are required", shared.ErrInvalidConfig)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: minio access_key and secret_key", shared.ErrMissingCredentials)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	if baseURL == "" {
		baseURL = client.EndpointURL().String() + "/" + cfg.Bucket
	}

	return &MinioStore{
		client:  client,
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		baseURL: baseURL,
		logger:  shared.WithLogger(logger, "component", "minio", "bucket", cfg.Bucket),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: failed to check bucket: %v", shared.ErrServiceUnavailable, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("created bucket")
	return nil
}

// Upload puts the object, using the client's progress hook for byte events.
func (s *MinioStore) Upload(ctx context.Context, objectPath string, data io.Reader, size int64, contentType string, onProgress ProgressFunc) (Object, error) {
	info, err := s.client.PutObject(ctx, s.bucket, objectPath, data, size, minio.PutObjectOptions{
		ContentType: contentType,
		Progress:    newCounter(size, onProgress),
	})
	if err != nil {
		return Object{}, fmt.Errorf("failed to put object %s: %w", objectPath, err)
	}

	s.logger.Debug("object stored", "path", objectPath, "size", info.Size, "etag", info.ETag)
	return Object{Path: objectPath, Size: info.Size, ContentType: contentType}, nil
}

// PublicURL joins the base URL (endpoint/bucket by default) and object path.
func (s *MinioStore) PublicURL(_ context.Context, obj Object) (string, error) {
	return JoinURL(s.baseURL, obj.Path), nil
}

// Delete removes the object.
func (s *MinioStore) Delete(ctx context.Context, objectPath string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, objectPath, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("%w: %s", shared.ErrObjectNotFound, objectPath)
		}
		return fmt.Errorf("failed to stat object: %w", err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", objectPath, err)
	}
	return nil
}
