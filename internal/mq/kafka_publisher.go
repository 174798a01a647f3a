package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
)

const (
	// EventTypeThumbnailCreated is sent in the event-type header.
	EventTypeThumbnailCreated = "thumbnail.created"

	flushTimeout = 5 * time.Second
)

// producer is the subset of *kafka.Producer the publisher drives.
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Events() chan kafka.Event
	Flush(timeoutMs int) int
	Close()
}

// KafkaPublisher announces uploaded thumbnails on a Kafka topic. Delivery is
// asynchronous; failed deliveries are only logged.
type KafkaPublisher struct {
	producer producer
	topic    string
	doneCh   chan struct{}
}

// NewKafkaPublisher connects to brokers and makes sure topic exists.
func NewKafkaPublisher(brokers, topic string) (*KafkaPublisher, error) {
	if err := ensureTopic(brokers, topic); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Str(pkglog.FieldTopic, topic).Msg("could not create topic; assuming it exists")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return newKafkaPublisher(p, topic), nil
}

func newKafkaPublisher(p producer, topic string) *KafkaPublisher {
	kp := &KafkaPublisher{
		producer: p,
		topic:    topic,
		doneCh:   make(chan struct{}),
	}
	go kp.watchDeliveries()
	return kp
}

func ensureTopic(brokers, topic string) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": brokers})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{
		{Topic: topic, NumPartitions: 1, ReplicationFactor: 1},
	})
	if err != nil {
		return err
	}

	for _, r := range results {
		switch r.Error.Code() {
		case kafka.ErrNoError, kafka.ErrTopicAlreadyExists:
		default:
			return fmt.Errorf("create topic %s: %v", r.Topic, r.Error)
		}
	}
	return nil
}

// watchDeliveries drains delivery reports until the producer is closed.
func (kp *KafkaPublisher) watchDeliveries() {
	defer close(kp.doneCh)

	l := pkglog.L()
	for e := range kp.producer.Events() {
		msg, ok := e.(*kafka.Message)
		if !ok || msg.TopicPartition.Error == nil {
			continue
		}
		l.Error().
			Err(msg.TopicPartition.Error).
			Str(pkglog.FieldTopic, kp.topic).
			Str(pkglog.FieldDestObject, string(msg.Key)).
			Msg("thumbnail-created event not delivered")
	}
}

// PublishThumbnailCreated queues event for delivery. The thumbnail object
// name is the message key, so events for one thumbnail keep their order.
func (kp *KafkaPublisher) PublishThumbnailCreated(ctx context.Context, event *domain.ThumbnailCreatedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := kp.message(event)
	if err != nil {
		return err
	}

	if err := kp.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to produce thumbnail-created event: %w", err)
	}
	return nil
}

func (kp *KafkaPublisher) message(event *domain.ThumbnailCreatedEvent) (*kafka.Message, error) {
	value, err := encodeThumbnailCreated(event)
	if err != nil {
		return nil, err
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &kp.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.Thumbnail.Name),
		Value:          value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(EventTypeThumbnailCreated)},
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "source", Value: []byte(event.Source.String())},
		},
	}, nil
}

func encodeThumbnailCreated(event *domain.ThumbnailCreatedEvent) ([]byte, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal thumbnail created event: %w", err)
	}
	return value, nil
}

// Close flushes queued events and waits for the last delivery report.
func (kp *KafkaPublisher) Close() error {
	if left := kp.producer.Flush(int(flushTimeout.Milliseconds())); left > 0 {
		l := pkglog.L()
		l.Warn().Int("pending", left).Msg("thumbnail-created events dropped on close")
	}
	kp.producer.Close()
	<-kp.doneCh
	return nil
}
