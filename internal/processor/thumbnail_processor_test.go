package processor_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/color"
	"image/jpeg"
	"io"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/processor"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/thumbnail"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"
)

const thumbBucket = "thumbs-bucket"

func newProcessor(t *testing.T, st storage.Storage, pub processor.EventPublisher) *processor.ThumbnailProcessor {
	t.Helper()
	resizer, err := thumbnail.NewResizer(thumbnail.Config{MaxWidth: 320, MaxHeight: 320, JPEGQuality: 75})
	require.NoError(t, err)
	return processor.NewThumbnailProcessor(st, resizer, processor.Options{
		ThumbBucket:  thumbBucket,
		OutputPrefix: domain.DefaultThumbPrefix,
		Publisher:    pub,
	})
}

func eventWith(t *testing.T, payload string) *domain.NotificationEvent {
	t.Helper()
	data := base64.StdEncoding.EncodeToString([]byte(payload))
	return &domain.NotificationEvent{Data: &data, MessageID: "m-1"}
}

func pngBody(t *testing.T, w, h int) io.ReadCloser {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.NRGBA{G: 255, A: 255}), imaging.PNG))
	return io.NopCloser(&buf)
}

func TestHandleEvent_noData(t *testing.T) {
	//Arrange
	st := new(MockStorage)
	p := newProcessor(t, st, nil)

	//Act
	res, err := p.HandleEvent(context.Background(), &domain.NotificationEvent{MessageID: "m-1"})

	//Assert
	require.NoError(t, err)
	assert.Nil(t, res)
	st.AssertNotCalled(t, "Read", mock.Anything, mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleEvent_nilEvent(t *testing.T) {
	st := new(MockStorage)
	p := newProcessor(t, st, nil)

	res, err := p.HandleEvent(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, res)
	st.AssertExpectations(t)
}

func TestHandleEvent_missingBucketOrName(t *testing.T) {
	payloads := []string{
		`{"name":"a/b/photo.png"}`,
		`{"bucket":"src"}`,
		`{"bucket":"","name":""}`,
		`{}`,
	}
	for _, payload := range payloads {
		t.Run(payload, func(t *testing.T) {
			st := new(MockStorage)
			p := newProcessor(t, st, nil)

			res, err := p.HandleEvent(context.Background(), eventWith(t, payload))

			require.NoError(t, err)
			assert.Nil(t, res)
			st.AssertNotCalled(t, "Read", mock.Anything, mock.Anything, mock.Anything)
			st.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandleEvent_malformedPayload(t *testing.T) {
	st := new(MockStorage)
	p := newProcessor(t, st, nil)
	bad := "not base64 at all!"

	res, err := p.HandleEvent(context.Background(), &domain.NotificationEvent{Data: &bad})

	require.ErrorIs(t, err, domain.ErrMalformedPayload)
	assert.Nil(t, res)
	st.AssertNotCalled(t, "Read", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleEvent_nonObjectJSONIsMalformed(t *testing.T) {
	for _, payload := range []string{"null", `[]`, `"x"`, `5`} {
		t.Run(payload, func(t *testing.T) {
			st := new(MockStorage)
			p := newProcessor(t, st, nil)

			res, err := p.HandleEvent(context.Background(), eventWith(t, payload))

			require.ErrorIs(t, err, domain.ErrMalformedPayload)
			assert.Nil(t, res)
			st.AssertNotCalled(t, "Read", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandleEvent_ok(t *testing.T) {
	//Arrange
	st := new(MockStorage)
	p := newProcessor(t, st, nil)
	st.On("Read", mock.Anything, "src", "a/b/photo.png").Return(pngBody(t, 1000, 500), nil)
	st.On("Write", mock.Anything, thumbBucket, "thumbs/photo.png", mock.AnythingOfType("int64"), "image/jpeg").Return(nil)

	//Act
	res, err := p.HandleEvent(context.Background(), eventWith(t, `{"bucket":"src","name":"a/b/photo.png"}`))

	//Assert
	require.NoError(t, err)
	st.AssertExpectations(t)
	require.NotNil(t, res)
	assert.Equal(t, domain.ObjectRef{Bucket: "src", Name: "a/b/photo.png"}, res.Source)
	assert.Equal(t, domain.ObjectRef{Bucket: thumbBucket, Name: "thumbs/photo.png"}, res.Thumbnail)
	assert.Equal(t, 320, res.Width)
	assert.Equal(t, 160, res.Height)
	assert.Equal(t, len(st.written), res.Size)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(st.written))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 160, cfg.Height)
}

func TestHandleEvent_readError(t *testing.T) {
	st := new(MockStorage)
	p := newProcessor(t, st, nil)
	st.On("Read", mock.Anything, "src", "gone.png").Return(nil, storage.ErrNotFound)

	_, err := p.HandleEvent(context.Background(), eventWith(t, `{"bucket":"src","name":"gone.png"}`))

	require.ErrorIs(t, err, storage.ErrNotFound)
	st.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleEvent_notAnImage(t *testing.T) {
	st := new(MockStorage)
	p := newProcessor(t, st, nil)
	st.On("Read", mock.Anything, "src", "notes.txt").Return(io.NopCloser(bytes.NewReader([]byte("hello"))), nil)

	_, err := p.HandleEvent(context.Background(), eventWith(t, `{"bucket":"src","name":"notes.txt"}`))

	require.ErrorIs(t, err, thumbnail.ErrDecode)
	st.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleEvent_writeError(t *testing.T) {
	st := new(MockStorage)
	p := newProcessor(t, st, nil)
	st.On("Read", mock.Anything, "src", "x.png").Return(pngBody(t, 10, 10), nil)
	st.On("Write", mock.Anything, thumbBucket, "thumbs/x.png", mock.Anything, "image/jpeg").Return(assert.AnError)

	res, err := p.HandleEvent(context.Background(), eventWith(t, `{"bucket":"src","name":"x.png"}`))

	require.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, res)
}

func TestProcess_publishesEvent(t *testing.T) {
	st := new(MockStorage)
	pub := new(MockPublisher)
	p := newProcessor(t, st, pub)
	st.On("Read", mock.Anything, "src", "folder/sub/img.jpg").Return(pngBody(t, 100, 100), nil)
	st.On("Write", mock.Anything, thumbBucket, "thumbs/img.jpg", mock.Anything, "image/jpeg").Return(nil)
	pub.On("PublishThumbnailCreated", mock.Anything, mock.MatchedBy(func(e *domain.ThumbnailCreatedEvent) bool {
		return e.Thumbnail.Name == "thumbs/img.jpg" && e.Width == 100 && e.Height == 100
	})).Return(nil)

	_, err := p.Process(context.Background(), domain.ObjectRef{Bucket: "src", Name: "folder/sub/img.jpg"})

	require.NoError(t, err)
	st.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestProcess_publishFailureIsNotFatal(t *testing.T) {
	st := new(MockStorage)
	pub := new(MockPublisher)
	p := newProcessor(t, st, pub)
	st.On("Read", mock.Anything, "src", "a.png").Return(pngBody(t, 10, 10), nil)
	st.On("Write", mock.Anything, thumbBucket, "thumbs/a.png", mock.Anything, "image/jpeg").Return(nil)
	pub.On("PublishThumbnailCreated", mock.Anything, mock.Anything).Return(assert.AnError)

	res, err := p.Process(context.Background(), domain.ObjectRef{Bucket: "src", Name: "a.png"})

	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestDestination(t *testing.T) {
	p := newProcessor(t, new(MockStorage), nil)

	dst := p.Destination(domain.ObjectRef{Bucket: "src", Name: "folder/sub/img.jpg"})

	assert.Equal(t, domain.ObjectRef{Bucket: thumbBucket, Name: "thumbs/img.jpg"}, dst)
}
