package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type IndexerMetrics struct {
	registry *prometheus.Registry

	reindexTotal     *prometheus.CounterVec
	reindexDuration  *prometheus.HistogramVec
	reindexInFlight  prometheus.Gauge
	documentsIndexed *prometheus.CounterVec
}

func NewIndexerMetrics(service string) *IndexerMetrics {
	registry := prometheus.NewRegistry()

	reindexTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "srag",
			Subsystem: "indexer",
			Name:      "reindex_total",
			Help:      "Total corpus reindex runs by status.",
		},
		[]string{"service", "status"},
	)
	reindexDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "srag",
			Subsystem: "indexer",
			Name:      "reindex_duration_seconds",
			Help:      "Corpus reindex duration in seconds by status.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	reindexInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "srag",
			Subsystem: "indexer",
			Name:      "reindex_in_flight",
			Help:      "Number of in-flight reindex runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	documentsIndexed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "srag",
			Subsystem: "indexer",
			Name:      "documents_indexed_total",
			Help:      "Total documents embedded and indexed by document type.",
		},
		[]string{"service", "doc_type"},
	)

	registry.MustRegister(reindexTotal, reindexDuration, reindexInFlight, documentsIndexed)

	return &IndexerMetrics{
		registry:         registry,
		reindexTotal:     reindexTotal,
		reindexDuration:  reindexDuration,
		reindexInFlight:  reindexInFlight,
		documentsIndexed: documentsIndexed,
	}
}

func (m *IndexerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IndexerMetrics) StartReindex() {
	m.reindexInFlight.Inc()
}

func (m *IndexerMetrics) FinishReindex(service string, duration time.Duration, err error) {
	m.reindexInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.reindexTotal.WithLabelValues(service, status).Inc()
	m.reindexDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *IndexerMetrics) AddDocumentsIndexed(service, docType string, count int) {
	if count <= 0 {
		return
	}
	m.documentsIndexed.WithLabelValues(service, docType).Add(float64(count))
}
