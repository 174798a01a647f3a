package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/config"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/handler"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/mq"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/processor"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/thumbnail"
	pkgconfig "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/config"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
	pkgstorage "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := pflag.String("config", pkgconfig.GetEnv("CONFIG_PATH", "./config"), "directory containing config.yaml")
	pflag.Parse()

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialise structured logger.
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "thumbnail-service",
	})
	l := pkglog.L()
	l.Info().
		Str(pkglog.FieldTransport, cfg.Transport.Mode).
		Str("storage", cfg.Storage.Type).
		Str(pkglog.FieldDestBucket, cfg.Processor.ThumbBucket).
		Msg("thumbnail-service starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One storage backend serves both the notification's bucket and the thumbnail bucket.
	st, err := pkgstorage.New(ctx, cfg.Storage)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to init storage")
	}
	defer st.Close()

	resizer, err := thumbnail.NewResizer(cfg.Processor.Thumbnail)
	if err != nil {
		l.Fatal().Err(err).Msg("invalid thumbnail settings")
	}

	opts := processor.Options{
		ThumbBucket:  cfg.Processor.ThumbBucket,
		OutputPrefix: cfg.Processor.OutputPrefix,
	}

	var publisher *mq.KafkaPublisher
	if cfg.Kafka.ProducerTopic != "" {
		publisher, err = mq.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.ProducerTopic)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to init kafka publisher")
		}
		opts.Publisher = publisher
		l.Info().Str(pkglog.FieldTopic, cfg.Kafka.ProducerTopic).Msg("thumbnail-created events enabled")
	}

	proc := processor.NewThumbnailProcessor(st, resizer, opts)
	filter := cfg.Processor.Filter()

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.UsesHTTP() {
		server := newHTTPServer(cfg, handler.NewPushHandler(proc, filter))
		g.Go(func() error {
			l.Info().Str("addr", server.Addr).Msg("push endpoint listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if cfg.UsesKafka() {
		consumer, err := mq.NewKafkaConsumer(
			cfg.Kafka.Brokers,
			cfg.Kafka.ConsumerTopic,
			cfg.Kafka.ConsumerGroupID,
			filter,
			proc,
		)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to init kafka consumer")
		}
		if err := consumer.Start(gCtx); err != nil {
			l.Fatal().Err(err).Msg("failed to start consumer")
		}
		g.Go(func() error {
			<-gCtx.Done()
			// Close waits for in-flight processing to finish.
			return consumer.Close()
		})
	}

	<-gCtx.Done()
	l.Info().Msg("shutting down: waiting for in-flight processing to complete")

	shutdownDone := make(chan error, 1)
	go func() {
		err := g.Wait()
		if publisher != nil {
			publisher.Close()
		}
		shutdownDone <- err
	}()

	select {
	case err := <-shutdownDone:
		if err != nil {
			l.Error().Err(err).Msg("shutdown with error")
			os.Exit(1)
		}
		l.Info().Msg("shutdown complete")
	case <-time.After(shutdownTimeout):
		l.Warn().Msg("shutdown timed out after 30s")
	}
}

func newHTTPServer(cfg *config.Config, push *handler.PushHandler) *http.Server {
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(pkglog.GinMiddleware(pkglog.L()))
	push.RegisterRoutes(router)

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
