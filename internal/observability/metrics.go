package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// fetch-normalize pipeline.
type Metrics struct {
	FetchRequests     *prometheus.CounterVec // labels: outcome={success,transport,status,decode}
	FetchDuration     prometheus.Histogram
	RecordsNormalized prometheus.Counter
	NormalizeWarnings *prometheus.CounterVec // labels: kind
	RefreshesSkipped  prometheus.Counter

	// Snapshot gauges.
	SnapshotRecords    prometheus.Gauge
	SnapshotIncomplete prometheus.Gauge
	SnapshotAvailable  prometheus.Gauge

	// Kafka sink metrics.
	RecordsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
	PublishEnabled   prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.RecordsNormalized,
		m.NormalizeWarnings,
		m.RefreshesSkipped,
		m.SnapshotRecords,
		m.SnapshotIncomplete,
		m.SnapshotAvailable,
		m.RecordsPublished,
		m.PublishErrors,
		m.PublishEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "event_impact",
			Name:      "fetch_requests_total",
			Help:      "Upstream event-impact fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "event_impact",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream event-impact request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RecordsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "event_impact",
			Name:      "records_normalized_total",
			Help:      "Total aligned results normalized into event-impact records.",
		}),
		NormalizeWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "event_impact",
			Name:      "normalize_warnings_total",
			Help:      "Fields the normalizer had to fall back on, by warning kind.",
		}, []string{"kind"}),
		RefreshesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "event_impact",
			Name:      "refreshes_skipped_total",
			Help:      "Refresh requests dropped because a fetch was already in flight.",
		}),
		SnapshotRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "event_impact",
			Name:      "snapshot_records",
			Help:      "Number of records in the current snapshot.",
		}),
		SnapshotIncomplete: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "event_impact",
			Name:      "snapshot_incomplete_records",
			Help:      "Records in the current snapshot still waiting on market data.",
		}),
		SnapshotAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "event_impact",
			Name:      "snapshot_available",
			Help:      "1 when the last fetch succeeded, 0 otherwise.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "event_impact",
			Name:      "records_published_total",
			Help:      "Total records written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "event_impact",
			Name:      "publish_errors_total",
			Help:      "Failed batch writes to the sink topic.",
		}),
		PublishEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "event_impact",
			Name:      "publish_enabled",
			Help:      "1 when the Kafka sink is enabled, 0 otherwise.",
		}),
	}
}
