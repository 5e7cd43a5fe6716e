package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/couchcryptid/isar-water-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/isar-water-etl/internal/adapter/kafka"
	"github.com/couchcryptid/isar-water-etl/internal/adapter/mqtt"
	"github.com/couchcryptid/isar-water-etl/internal/adapter/scraper"
	"github.com/couchcryptid/isar-water-etl/internal/config"
	"github.com/couchcryptid/isar-water-etl/internal/observability"
	"github.com/couchcryptid/isar-water-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	extractor := scraper.NewClient(cfg.FetchTimeout, logger)
	collector := pipeline.NewCollector(extractor, pipeline.Sources{
		Level:       cfg.Level,
		Flow:        cfg.Flow,
		Temperature: cfg.Temperature,
	}, logger, metrics)

	// The long-running mode keeps one broker connection for its lifetime.
	broker := mqtt.NewBroker(mqtt.OptionsFromConfig(cfg), logger)
	mqttPublisher, err := broker.Connect()
	if err != nil {
		logger.Error("failed to connect to mqtt", "error", err)
		os.Exit(1)
	}

	sinks := []pipeline.Sink{{Name: "mqtt", Publisher: mqttPublisher}}

	// Kafka mirror (feature-flagged via KAFKA_BROKERS).
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Publisher: writer})
		logger.Info("kafka mirror enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka mirror disabled")
	}

	p := pipeline.New(collector, pipeline.NewMultiPublisher(metrics, sinks...), cfg.PollInterval, nil, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start poll loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("poller error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("poller did not stop before shutdown timeout")
	}
	if err := mqttPublisher.Close(); err != nil {
		logger.Error("mqtt disconnect error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
