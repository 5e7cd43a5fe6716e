package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/isar-water-etl/internal/domain"
	"github.com/couchcryptid/isar-water-etl/internal/observability"
)

// Sources are the three pages read per cycle. Level is canonical: its
// timestamp becomes the composite's time.
type Sources struct {
	Level       domain.Source
	Flow        domain.Source
	Temperature domain.Source
}

// Collector reads all sources and assembles a composite reading.
type Collector struct {
	extractor domain.Extractor
	sources   Sources
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewCollector creates a Collector over the given extractor and sources.
func NewCollector(e domain.Extractor, sources Sources, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	return &Collector{
		extractor: e,
		sources:   sources,
		logger:    logger,
		metrics:   metrics,
	}
}

// Collect extracts level, flow and temperature in sequence. Only a level
// failure is returned; flow and temperature failures are logged and leave
// their field nil.
func (c *Collector) Collect(ctx context.Context) (domain.CompositeReading, error) {
	level, err := c.extract(ctx, c.sources.Level)
	if err != nil {
		return domain.CompositeReading{}, fmt.Errorf("collect level: %w", err)
	}

	flow := c.optional(ctx, c.sources.Flow)
	temperature := c.optional(ctx, c.sources.Temperature)

	return domain.NewCompositeReading(level, flow, temperature), nil
}

// optional extracts a non-canonical source, degrading any failure to nil.
func (c *Collector) optional(ctx context.Context, src domain.Source) *float64 {
	reading, err := c.extract(ctx, src)
	if err != nil {
		c.logger.Warn("extraction failed, publishing without field",
			"source", src.Name,
			"kind", domain.ErrorKind(err),
			"error", err,
		)
		return nil
	}
	return reading.Value
}

func (c *Collector) extract(ctx context.Context, src domain.Source) (domain.Reading, error) {
	start := time.Now()
	reading, err := c.extractor.Extract(ctx, src)
	c.metrics.FetchDuration.WithLabelValues(src.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ExtractErrors.WithLabelValues(src.Name, domain.ErrorKind(err)).Inc()
		return domain.Reading{}, err
	}

	if reading.Value == nil {
		c.metrics.EmptyValues.WithLabelValues(src.Name).Inc()
		c.logger.Info("data fetched", "source", src.Name, "timestamp", domain.FormatTime(reading.Timestamp), "value", nil)
	} else {
		c.logger.Info("data fetched", "source", src.Name, "timestamp", domain.FormatTime(reading.Timestamp), "value", *reading.Value)
	}
	return reading, nil
}
