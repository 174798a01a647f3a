package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStorage implements Storage for Google Cloud Storage.
type GCSStorage struct {
	client    *gcs.Client
	chunkSize int
}

// GCSConfig holds configuration for GCS storage. Credentials come from the
// environment (Application Default Credentials); Endpoint is only set for
// emulators such as fake-gcs-server. ChunkSize 0 keeps the client default;
// thumbnails are far below it, so each upload is a single request.
type GCSConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	ChunkSize int    `mapstructure:"chunk_size"`
}

// NewGCSStorage creates a new GCSStorage instance.
func NewGCSStorage(ctx context.Context, cfg GCSConfig) (*GCSStorage, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{client: client, chunkSize: cfg.ChunkSize}, nil
}

// Read retrieves content for bucket/key.
func (s *GCSStorage) Read(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", ErrNotFound, bucket, key)
		}
		return nil, fmt.Errorf("failed to read object from GCS: %w", err)
	}

	return r, nil
}

// Write stores content from the reader under bucket/key. The object only
// becomes visible once the writer is closed successfully.
func (s *GCSStorage) Write(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if s.chunkSize > 0 {
		w.ChunkSize = s.chunkSize
	}

	if _, err := io.Copy(w, r); err != nil {
		// Cancelling the context aborts the upload; Close reports that error.
		cancel()
		w.Close()
		return fmt.Errorf("failed to upload to GCS: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize GCS upload: %w", err)
	}

	return nil
}

// Close releases the underlying client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
