package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/isar-water-etl/internal/domain"
	"github.com/couchcryptid/isar-water-etl/internal/observability"
)

// Publisher hands a composite reading to a downstream sink.
type Publisher interface {
	Publish(ctx context.Context, reading domain.CompositeReading) error
}

// Sink is a named Publisher; the name labels metrics and errors.
type Sink struct {
	Name      string
	Publisher Publisher
}

// MultiPublisher publishes to every sink in order. A failing sink does not
// stop the others; all failures are joined into the returned error.
type MultiPublisher struct {
	sinks   []Sink
	metrics *observability.Metrics
}

// NewMultiPublisher creates a fan-out publisher.
func NewMultiPublisher(metrics *observability.Metrics, sinks ...Sink) *MultiPublisher {
	return &MultiPublisher{sinks: sinks, metrics: metrics}
}

func (m *MultiPublisher) Publish(ctx context.Context, reading domain.CompositeReading) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Publisher.Publish(ctx, reading); err != nil {
			m.metrics.PublishErrors.WithLabelValues(s.Name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		m.metrics.MessagesProduced.WithLabelValues(s.Name).Inc()
	}
	return errors.Join(errs...)
}
