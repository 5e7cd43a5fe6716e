package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/isar-water-etl/internal/domain"
	"github.com/couchcryptid/isar-water-etl/internal/observability"
)

// ReadingCollector produces one composite reading per call.
type ReadingCollector interface {
	Collect(ctx context.Context) (domain.CompositeReading, error)
}

// Poller orchestrates the collect-publish-sleep loop.
type Poller struct {
	collector ReadingCollector
	publisher Publisher
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	// cycleMu serializes cycles from the loop and from triggers.
	cycleMu sync.Mutex
}

// New creates a Poller. A nil clock uses the real clock.
func New(c ReadingCollector, p Publisher, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Poller{
		collector: c,
		publisher: p,
		interval:  interval,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a composite reading has been published,
// or an error describing why the service is not yet ready.
func (p *Poller) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no reading has been published yet")
	}
	return nil
}

// Run executes a cycle immediately and then once per interval until the
// context is cancelled. Failed cycles are logged; the next cycle is the retry.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", "interval", p.interval.String())
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	for {
		if _, err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("poller stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("cycle failed", "error", err)
		}

		p.logger.Info("waiting for next cycle", "minutes", p.interval.Minutes())
		if !sleepWithContext(ctx, p.clock, p.interval) {
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunOnce performs one collect and publish cycle. When publishing fails the
// collected reading is returned along with the error and is not retried.
func (p *Poller) RunOnce(ctx context.Context) (domain.CompositeReading, error) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	start := p.clock.Now()

	reading, err := p.collector.Collect(ctx)
	if err != nil {
		p.metrics.CyclesTotal.WithLabelValues("extract_failed").Inc()
		return domain.CompositeReading{}, err
	}

	if err := p.publisher.Publish(ctx, reading); err != nil {
		p.metrics.CyclesTotal.WithLabelValues("publish_failed").Inc()
		return reading, fmt.Errorf("publish reading %s: %w", reading.Time, err)
	}

	p.metrics.CyclesTotal.WithLabelValues("published").Inc()
	p.metrics.CycleDuration.Observe(p.clock.Since(start).Seconds())
	p.metrics.LastPublished.Set(float64(p.clock.Now().Unix()))
	p.ready.Store(true)
	p.logger.Info("reading published", "time", reading.Time)
	return reading, nil
}

// HandleTrigger runs exactly one cycle when payload is a cron trigger and
// returns the published reading. Any other payload is ignored: no cycle runs
// and both results are nil.
func (p *Poller) HandleTrigger(ctx context.Context, payload []byte) (*domain.CompositeReading, error) {
	if !domain.IsCronTrigger(payload) {
		p.logger.Info("ignoring trigger", "payload", string(payload))
		return nil, nil
	}
	reading, err := p.RunOnce(ctx)
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
