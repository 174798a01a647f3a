package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is wrapped by Read when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Storage defines the object operations the thumbnail pipeline needs.
// Every call names its bucket, so one backend serves both the source
// bucket of a notification and the configured thumbnail bucket.
type Storage interface {
	// Read retrieves content for bucket/key.
	// The caller is responsible for closing the returned ReadCloser.
	Read(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Write stores content from the reader under bucket/key, replacing any
	// existing object. size is the expected content size (-1 if unknown).
	Write(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error

	// Close releases client resources.
	Close() error
}

// Config selects and configures a storage backend.
type Config struct {
	Type  string      `mapstructure:"type"` // "gcs", "s3", "local"
	GCS   GCSConfig   `mapstructure:"gcs"`
	S3    S3Config    `mapstructure:"s3"`
	Local LocalConfig `mapstructure:"local"`
}

// New builds the backend named by cfg.Type.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case "gcs", "":
		st, err := NewGCSStorage(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "s3":
		st, err := NewS3Storage(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "local":
		st, err := NewLocalStorage(cfg.Local)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
}
