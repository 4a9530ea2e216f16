package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type IndexerMetrics struct {
	registry *prometheus.Registry

	recordsTotal  *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	runsInFlight  prometheus.Gauge
}

func NewIndexerMetrics(service string) *IndexerMetrics {
	registry := prometheus.NewRegistry()

	recordsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retrieval",
			Subsystem: "indexer",
			Name:      "records_total",
			Help:      "Indexed source records by collection and outcome.",
		},
		[]string{"service", "collection", "outcome"},
	)
	batchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "retrieval",
			Subsystem: "indexer",
			Name:      "batch_duration_seconds",
			Help:      "Embed+upsert duration per batch by collection.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "collection"},
	)
	runsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "retrieval",
			Subsystem: "indexer",
			Name:      "runs_in_flight",
			Help:      "Number of in-flight indexing runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(recordsTotal, batchDuration, runsInFlight)

	return &IndexerMetrics{
		registry:      registry,
		recordsTotal:  recordsTotal,
		batchDuration: batchDuration,
		runsInFlight:  runsInFlight,
	}
}

func (m *IndexerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IndexerMetrics) StartRun() {
	m.runsInFlight.Inc()
}

func (m *IndexerMetrics) FinishRun() {
	m.runsInFlight.Dec()
}

// Recorder binds the registry to one service label so the indexing pipeline
// stays unaware of prometheus.
type Recorder struct {
	metrics *IndexerMetrics
	service string
}

func (m *IndexerMetrics) Recorder(service string) *Recorder {
	return &Recorder{metrics: m, service: service}
}

func (r *Recorder) BatchIndexed(collection string, duration time.Duration) {
	r.metrics.batchDuration.WithLabelValues(r.service, collection).Observe(duration.Seconds())
}

func (r *Recorder) RecordsIndexed(collection string, processed, skipped int) {
	if processed > 0 {
		r.metrics.recordsTotal.WithLabelValues(r.service, collection, "processed").Add(float64(processed))
	}
	if skipped > 0 {
		r.metrics.recordsTotal.WithLabelValues(r.service, collection, "skipped").Add(float64(skipped))
	}
}
