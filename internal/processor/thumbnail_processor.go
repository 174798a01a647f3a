package processor

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/thumbnail"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"
)

// Options configures a ThumbnailProcessor.
type Options struct {
	ThumbBucket  string
	OutputPrefix string
	// Publisher is optional.
	Publisher EventPublisher
}

// ThumbnailProcessor downloads the object named by a storage notification,
// fits it within the configured bounds and uploads a JPEG thumbnail to
// the thumbnail bucket. It holds no per-event state.
type ThumbnailProcessor struct {
	storage      storage.Storage
	resizer      *thumbnail.Resizer
	publisher    EventPublisher
	thumbBucket  string
	outputPrefix string
}

// NewThumbnailProcessor constructs a ThumbnailProcessor.
func NewThumbnailProcessor(st storage.Storage, resizer *thumbnail.Resizer, opts Options) *ThumbnailProcessor {
	return &ThumbnailProcessor{
		storage:      st,
		resizer:      resizer,
		publisher:    opts.Publisher,
		thumbBucket:  opts.ThumbBucket,
		outputPrefix: opts.OutputPrefix,
	}
}

// HandleEvent validates the notification and delegates to Process.
// Missing data, bucket or name are logged no-ops; a payload that cannot be
// decoded is an error.
func (p *ThumbnailProcessor) HandleEvent(ctx context.Context, event *domain.NotificationEvent) (*domain.ThumbnailResult, error) {
	l := pkglog.Ctx(ctx)

	if event == nil || event.Data == nil {
		l.Info().Msg("no data in notification; nothing to do")
		return nil, nil
	}

	payload, err := domain.DecodePayload(*event.Data)
	if err != nil {
		return nil, err
	}

	src := payload.Ref()
	if !src.Valid() {
		l.Info().
			Str(pkglog.FieldBucket, src.Bucket).
			Str(pkglog.FieldObject, src.Name).
			Msg("missing bucket or object name in payload")
		return nil, nil
	}

	return p.Process(ctx, src)
}

// Destination returns where the thumbnail for src is stored.
func (p *ThumbnailProcessor) Destination(src domain.ObjectRef) domain.ObjectRef {
	return domain.ObjectRef{
		Bucket: p.thumbBucket,
		Name:   domain.ThumbnailName(p.outputPrefix, src.Name),
	}
}

// Process creates the thumbnail for src, overwriting any previous one.
func (p *ThumbnailProcessor) Process(ctx context.Context, src domain.ObjectRef) (*domain.ThumbnailResult, error) {
	ctx, l := pkglog.WithObject(ctx, src.Bucket, src.Name)
	l.Info().Msgf("processing %s", src)

	// 1. Read source object.
	rc, err := p.storage.Read(ctx, src.Bucket, src.Name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	defer rc.Close()

	// 2-4. Decode, fit within bounds, encode JPEG.
	thumb, err := p.resizer.Thumbnail(rc)
	if err != nil {
		return nil, fmt.Errorf("thumbnail %s: %w", src, err)
	}

	// 5-6. Upload under the derived name.
	dst := p.Destination(src)
	if err := p.storage.Write(ctx, dst.Bucket, dst.Name, bytes.NewReader(thumb.Data), int64(len(thumb.Data)), thumbnail.ContentType); err != nil {
		return nil, fmt.Errorf("upload %s: %w", dst, err)
	}

	l.Info().
		Int(pkglog.FieldWidth, thumb.Width).
		Int(pkglog.FieldHeight, thumb.Height).
		Int(pkglog.FieldBytes, len(thumb.Data)).
		Msgf("uploaded thumbnail to %s", dst)

	result := &domain.ThumbnailResult{
		Source:    src,
		Thumbnail: dst,
		Width:     thumb.Width,
		Height:    thumb.Height,
		Size:      len(thumb.Data),
	}

	// Best-effort: the upload already happened.
	if p.publisher != nil {
		event := &domain.ThumbnailCreatedEvent{
			Source:    src,
			Thumbnail: dst,
			Width:     thumb.Width,
			Height:    thumb.Height,
			Timestamp: time.Now().Unix(),
		}
		if err := p.publisher.PublishThumbnailCreated(ctx, event); err != nil {
			l.Warn().Err(err).Msg("failed to publish thumbnail-created event")
		}
	}

	return result, nil
}
