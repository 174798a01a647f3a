package processor_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
)

// MockStorage is a mock implementation of storage.Storage.
type MockStorage struct {
	mock.Mock
	written []byte
}

func (m *MockStorage) Read(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *MockStorage) Write(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.written = data
	args := m.Called(ctx, bucket, key, size, contentType)
	return args.Error(0)
}

func (m *MockStorage) Close() error {
	return m.Called().Error(0)
}

// MockPublisher is a mock implementation of processor.EventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishThumbnailCreated(ctx context.Context, event *domain.ThumbnailCreatedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
