// internal/metrics/metrics.go

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace prefixes every trendboard metric
	Namespace = "trendboard"

	// Subsystem groups the ingestion metrics
	Subsystem = "ingest"
)

// Metrics holds the ingestion pipeline collectors
type Metrics struct {
	PagesIngestedTotal   *prometheus.CounterVec
	TrendsStoredTotal    *prometheus.CounterVec
	ProductsStoredTotal  *prometheus.CounterVec
	UpstreamErrorsTotal  *prometheus.CounterVec
	MalformedFieldsTotal *prometheus.CounterVec
	RunsTotal            *prometheus.CounterVec
	RunDurationSeconds   *prometheus.HistogramVec
	RunsInProgress       prometheus.Gauge
}

// NewMetrics registers the ingestion collectors on reg, or on the default
// registerer when reg is nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		PagesIngestedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "pages_total",
				Help:      "Total number of trend pages stored",
			},
			[]string{"gender"},
		),
		TrendsStoredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "unique_trends_total",
				Help:      "Total number of unique trend entries stored",
			},
			[]string{"gender"},
		),
		ProductsStoredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "products_total",
				Help:      "Total number of product details stored",
			},
			[]string{"category"},
		),
		UpstreamErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "upstream_errors_total",
				Help:      "Total number of failed upstream calls",
			},
			[]string{"operation"},
		),
		MalformedFieldsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "malformed_fields_total",
				Help:      "Total number of malformed fields nulled or skipped",
			},
			[]string{"field"},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "runs_total",
				Help:      "Total number of finished ingestion runs",
			},
			[]string{"kind", "status"},
		),
		RunDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of ingestion runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17min
			},
			[]string{"kind"},
		),
		RunsInProgress: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "runs_in_progress",
				Help:      "Number of ingestion runs currently executing",
			},
		),
	}
}

// RunStarted marks a run as in progress
func (m *Metrics) RunStarted() {
	m.RunsInProgress.Inc()
}

// RunFinished records the outcome and duration of a run
func (m *Metrics) RunFinished(kind, status string, elapsed time.Duration) {
	m.RunsInProgress.Dec()
	m.RunsTotal.WithLabelValues(kind, status).Inc()
	m.RunDurationSeconds.WithLabelValues(kind).Observe(elapsed.Seconds())
}
