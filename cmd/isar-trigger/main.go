// Command isar-trigger runs a single poll cycle for an externally scheduled
// invocation. It reads a trigger event, and for {"trigger":"cron"} fetches the
// three gauge pages, publishes the composite reading over a connection opened
// for this invocation only, and prints the reading as JSON. Any other event
// prints nothing and performs no action.
//
// Usage:
//
//	echo '{"trigger":"cron"}' | isar-trigger
//	isar-trigger -event '{"trigger":"cron"}'
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	kafkaadapter "github.com/couchcryptid/isar-water-etl/internal/adapter/kafka"
	"github.com/couchcryptid/isar-water-etl/internal/adapter/mqtt"
	"github.com/couchcryptid/isar-water-etl/internal/adapter/scraper"
	"github.com/couchcryptid/isar-water-etl/internal/config"
	"github.com/couchcryptid/isar-water-etl/internal/observability"
	"github.com/couchcryptid/isar-water-etl/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		slog.Error("trigger failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	event := flag.String("event", "", "trigger event JSON; read from stdin when empty")
	flag.Parse()

	payload := []byte(*event)
	if len(payload) == 0 {
		var err error
		if payload, err = io.ReadAll(os.Stdin); err != nil {
			return fmt.Errorf("read event: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Logs go to stderr so stdout carries only the reading.
	logger := observability.NewLoggerTo(os.Stderr, cfg)
	// Nothing scrapes a single-shot process; keep its metrics off the default registry.
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())

	collector := pipeline.NewCollector(scraper.NewClient(cfg.FetchTimeout, logger), pipeline.Sources{
		Level:       cfg.Level,
		Flow:        cfg.Flow,
		Temperature: cfg.Temperature,
	}, logger, metrics)

	// The broker connects and disconnects around each publish.
	sinks := []pipeline.Sink{{Name: "mqtt", Publisher: mqtt.NewBroker(mqtt.OptionsFromConfig(cfg), logger)}}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer closeWriter(writer, logger)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Publisher: writer})
	}

	p := pipeline.New(collector, pipeline.NewMultiPublisher(metrics, sinks...), cfg.PollInterval, nil, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reading, err := p.HandleTrigger(ctx, payload)
	if err != nil {
		return err
	}
	if reading == nil {
		return nil
	}
	return json.NewEncoder(os.Stdout).Encode(reading)
}

func closeWriter(w io.Closer, logger *slog.Logger) {
	if err := w.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
