package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the poller.
type Metrics struct {
	CyclesTotal      *prometheus.CounterVec // labels: outcome={published,extract_failed,publish_failed}
	CycleDuration    prometheus.Histogram
	LastPublished    prometheus.Gauge
	PollerRunning    prometheus.Gauge
	ExtractErrors    *prometheus.CounterVec // labels: source, kind={fetch,parse,structure,timestamp,other}
	EmptyValues      *prometheus.CounterVec // labels: source
	FetchDuration    *prometheus.HistogramVec
	PublishErrors    *prometheus.CounterVec // labels: sink={mqtt,kafka}
	MessagesProduced *prometheus.CounterVec // labels: sink
}

// NewMetrics creates and registers all poller metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all poller metrics and registers them with reg.
// Single-shot commands pass a private registry since nothing scrapes them.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.LastPublished,
		m.PollerRunning,
		m.ExtractErrors,
		m.EmptyValues,
		m.FetchDuration,
		m.PublishErrors,
		m.MessagesProduced,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "isar_water",
			Name:      "cycles_total",
			Help:      "Poll cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "isar_water",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch and publish cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastPublished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isar_water",
			Name:      "last_published_timestamp_seconds",
			Help:      "Unix time of the last successfully published composite reading.",
		}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isar_water",
			Name:      "poller_running",
			Help:      "1 when the poll loop is active, 0 when shut down.",
		}),
		ExtractErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "isar_water",
			Name:      "extract_errors_total",
			Help:      "Hard extraction failures by source and kind.",
		}, []string{"source", "kind"}),
		EmptyValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "isar_water",
			Name:      "empty_values_total",
			Help:      "Readings whose value cell held no number.",
		}, []string{"source"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "isar_water",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream page extraction duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "isar_water",
			Name:      "publish_errors_total",
			Help:      "Failed composite publishes by sink.",
		}, []string{"sink"}),
		MessagesProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "isar_water",
			Name:      "messages_produced_total",
			Help:      "Messages written by sink.",
		}, []string{"sink"}),
	}
}
