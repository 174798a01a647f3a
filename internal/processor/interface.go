package processor

import (
	"context"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
)

// EventHandler turns one notification into at most one thumbnail.
// A nil result with a nil error means the event was a no-op.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *domain.NotificationEvent) (*domain.ThumbnailResult, error)
}

// EventPublisher announces completed thumbnails.
type EventPublisher interface {
	PublishThumbnailCreated(ctx context.Context, event *domain.ThumbnailCreatedEvent) error
}
