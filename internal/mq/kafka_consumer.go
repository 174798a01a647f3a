package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/processor"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
)

// KafkaConsumer implements NotificationConsumer using confluent-kafka-go.
// Each message value is a JSON notification event whose data field carries
// the base64-encoded object payload.
type KafkaConsumer struct {
	consumer *kafka.Consumer
	topic    string
	handler  processor.EventHandler
	filter   domain.ObjectFilter
	doneCh   chan struct{}
}

// NewKafkaConsumer creates a new Kafka consumer for storage notifications.
func NewKafkaConsumer(brokers, topic, groupID string, filter domain.ObjectFilter, handler processor.EventHandler) (*KafkaConsumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"group.id":           groupID,
		"auto.offset.reset":  "latest",
		"enable.auto.commit": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return newKafkaConsumer(c, topic, filter, handler), nil
}

func newKafkaConsumer(c *kafka.Consumer, topic string, filter domain.ObjectFilter, handler processor.EventHandler) *KafkaConsumer {
	return &KafkaConsumer{
		consumer: c,
		topic:    topic,
		handler:  handler,
		filter:   filter,
		doneCh:   make(chan struct{}),
	}
}

// Start begins consuming messages from Kafka in a background goroutine.
func (kc *KafkaConsumer) Start(ctx context.Context) error {
	if err := kc.consumer.Subscribe(kc.topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", kc.topic, err)
	}

	l := pkglog.L()
	l.Info().Str(pkglog.FieldTopic, kc.topic).Str("group", kc.consumer.String()).Msg("notification consumer started")

	go kc.consumeLoop(ctx)

	return nil
}

func (kc *KafkaConsumer) consumeLoop(ctx context.Context) {
	l := pkglog.L()
	defer close(kc.doneCh)

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("notification consumer shutting down")
			return
		default:
			msg, err := kc.consumer.ReadMessage(100 * time.Millisecond)
			if err != nil {
				var kerr kafka.Error
				if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				l.Error().Err(err).Msg("kafka consumer error")
				continue
			}
			// Detached context so in-flight processing completes even after shutdown signal.
			kc.processMessage(context.WithoutCancel(ctx), msg)
		}
	}
}

// processMessage hands one message to the handler. Failures are logged;
// redelivery is left to the consumer group offsets, there is no local retry.
func (kc *KafkaConsumer) processMessage(ctx context.Context, msg *kafka.Message) {
	l := pkglog.L().With().
		Str(pkglog.FieldTransport, "kafka").
		Int32(pkglog.FieldPartition, msg.TopicPartition.Partition).
		Str(pkglog.FieldOffset, msg.TopicPartition.Offset.String()).
		Logger()

	var event domain.NotificationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		l.Error().Err(err).Msg("failed to unmarshal notification event")
		return
	}

	if event.MessageID != "" {
		l = l.With().Str(pkglog.FieldMessageID, event.MessageID).Logger()
	}
	ctx = pkglog.WithLogger(ctx, l)

	if skip, ref := kc.filter.Skips(&event); skip {
		l.Debug().Str(pkglog.FieldBucket, ref.Bucket).Str(pkglog.FieldObject, ref.Name).Msg("object filtered out")
		return
	}

	if _, err := kc.handler.HandleEvent(ctx, &event); err != nil {
		l.Error().Err(err).Msg("failed to handle notification event")
	}
}

// Close waits for the consume loop to drain, then closes the Kafka client.
// ctx must already be cancelled before calling Close.
func (kc *KafkaConsumer) Close() error {
	<-kc.doneCh
	if err := kc.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	return nil
}
