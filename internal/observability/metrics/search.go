package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SearchMetrics struct {
	registry *prometheus.Registry

	partitionDuration *prometheus.HistogramVec
	mergedResults     *prometheus.HistogramVec
}

func NewSearchMetrics() *SearchMetrics {
	registry := prometheus.NewRegistry()

	partitionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "retrieval",
			Subsystem: "search",
			Name:      "partition_query_duration_seconds",
			Help:      "Vector query duration per partition by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "partition", "outcome"},
	)
	mergedResults := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "retrieval",
			Subsystem: "search",
			Name:      "merged_results",
			Help:      "Result count after merging, by search mode.",
			Buckets:   prometheus.LinearBuckets(0, 2, 6),
		},
		[]string{"service", "mode"},
	)

	registry.MustRegister(partitionDuration, mergedResults)

	return &SearchMetrics{
		registry:          registry,
		partitionDuration: partitionDuration,
		mergedResults:     mergedResults,
	}
}

func (m *SearchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SearchRecorder binds the registry to one service label so the search path
// stays unaware of prometheus.
type SearchRecorder struct {
	metrics *SearchMetrics
	service string
}

func (m *SearchMetrics) Recorder(service string) *SearchRecorder {
	return &SearchRecorder{metrics: m, service: service}
}

func (r *SearchRecorder) PartitionQueried(partition string, duration time.Duration, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	r.metrics.partitionDuration.WithLabelValues(r.service, partition, outcome).Observe(duration.Seconds())
}

func (r *SearchRecorder) ResultsMerged(mode string, results int) {
	r.metrics.mergedResults.WithLabelValues(r.service, mode).Observe(float64(results))
}
