package config

import (
	"fmt"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/thumbnail"
	pkgconfig "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/config"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"
)

// Transport modes.
const (
	TransportHTTP  = "http"
	TransportKafka = "kafka"
	TransportBoth  = "both"
)

// DefaultThumbBucket is used when THUMB_BUCKET is unset.
const DefaultThumbBucket = "my-thumbnail-bucket"

// Config is built once at startup and never mutated afterwards.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Transport TransportConfig `mapstructure:"transport"`
	Server    ServerConfig    `mapstructure:"server"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Storage   storage.Config  `mapstructure:"storage"`
	Processor ProcessorConfig `mapstructure:"processor"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TransportConfig struct {
	Mode string `mapstructure:"mode"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type KafkaConfig struct {
	Brokers         string `mapstructure:"brokers"`
	ConsumerTopic   string `mapstructure:"consumer_topic"`
	ConsumerGroupID string `mapstructure:"consumer_group_id"`
	// ProducerTopic enables thumbnail-created events when non-empty.
	ProducerTopic string `mapstructure:"producer_topic"`
}

type ProcessorConfig struct {
	ThumbBucket  string           `mapstructure:"thumb_bucket"`
	OutputPrefix string           `mapstructure:"output_prefix"`
	BucketFilter string           `mapstructure:"bucket_filter"`
	PrefixFilter string           `mapstructure:"prefix_filter"`
	Thumbnail    thumbnail.Config `mapstructure:"thumbnail"`
}

// Filter returns the object filter applied by the transports.
func (p ProcessorConfig) Filter() domain.ObjectFilter {
	return domain.ObjectFilter{Bucket: p.BucketFilter, Prefix: p.PrefixFilter}
}

// Load reads config/config.yaml from configPath (if present), applies
// defaults and environment overrides, and validates the result.
func Load(configPath string) (*Config, error) {
	v, err := pkgconfig.Load(configPath, "config")
	if err != nil {
		return nil, err
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("transport.mode", TransportHTTP)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.consumer_topic", "gcs-notifications")
	v.SetDefault("kafka.consumer_group_id", "thumbnail-service")
	v.SetDefault("kafka.producer_topic", "")
	v.SetDefault("storage.type", "gcs")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.use_path_style", true)
	v.SetDefault("storage.local.base_path", "./data/storage")
	v.SetDefault("processor.thumb_bucket", DefaultThumbBucket)
	v.SetDefault("processor.output_prefix", domain.DefaultThumbPrefix)
	v.SetDefault("processor.bucket_filter", "")
	v.SetDefault("processor.prefix_filter", "")
	v.SetDefault("processor.thumbnail.max_width", thumbnail.DefaultMaxWidth)
	v.SetDefault("processor.thumbnail.max_height", thumbnail.DefaultMaxHeight)
	v.SetDefault("processor.thumbnail.jpeg_quality", thumbnail.DefaultJPEGQuality)

	// Env bindings
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("transport.mode", "TRANSPORT_MODE")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.consumer_topic", "KAFKA_CONSUMER_TOPIC")
	v.BindEnv("kafka.consumer_group_id", "KAFKA_CONSUMER_GROUP_ID")
	v.BindEnv("kafka.producer_topic", "KAFKA_PRODUCER_TOPIC")
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.gcs.endpoint", "GCS_ENDPOINT")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.region", "S3_REGION")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("storage.local.base_path", "STORAGE_LOCAL_BASE_PATH")
	v.BindEnv("processor.thumb_bucket", "THUMB_BUCKET")
	v.BindEnv("processor.output_prefix", "THUMB_PREFIX")
	v.BindEnv("processor.bucket_filter", "PROCESSOR_BUCKET_FILTER")
	v.BindEnv("processor.prefix_filter", "PROCESSOR_PREFIX_FILTER")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that would otherwise fail on the first event.
func (c *Config) Validate() error {
	if c.Processor.ThumbBucket == "" {
		return fmt.Errorf("processor.thumb_bucket must not be empty")
	}

	switch c.Transport.Mode {
	case TransportHTTP, TransportKafka, TransportBoth:
	default:
		return fmt.Errorf("unknown transport mode %q", c.Transport.Mode)
	}

	switch c.Storage.Type {
	case "gcs", "s3", "local":
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}

	if c.Transport.Mode != TransportHTTP && c.Kafka.ConsumerTopic == "" {
		return fmt.Errorf("kafka.consumer_topic is required for transport mode %q", c.Transport.Mode)
	}

	return nil
}

// UsesHTTP reports whether the push endpoint should be served.
func (c *Config) UsesHTTP() bool {
	return c.Transport.Mode == TransportHTTP || c.Transport.Mode == TransportBoth
}

// UsesKafka reports whether the Kafka consumer should run.
func (c *Config) UsesKafka() bool {
	return c.Transport.Mode == TransportKafka || c.Transport.Mode == TransportBoth
}
