package mq

import (
	"context"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/processor"
)

// NotificationConsumer abstracts the Kafka consumer for storage notifications.
type NotificationConsumer interface {
	Start(ctx context.Context) error
	Close() error
}

// ThumbnailEventPublisher abstracts the Kafka producer for thumbnail-created events.
type ThumbnailEventPublisher interface {
	PublishThumbnailCreated(ctx context.Context, event *domain.ThumbnailCreatedEvent) error
	Close() error
}

var (
	_ NotificationConsumer     = (*KafkaConsumer)(nil)
	_ ThumbnailEventPublisher  = (*KafkaPublisher)(nil)
	_ processor.EventPublisher = (*KafkaPublisher)(nil)
)
