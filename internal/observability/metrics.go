package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "energy_atlas"

// Metrics holds the Prometheus counters, histograms, and gauges for the atlas service.
type Metrics struct {
	// Dataset loading.
	DatasetLoads        *prometheus.CounterVec // labels: outcome={success,error}
	DatasetFetches      prometheus.Counter
	DatasetLoadDuration prometheus.Histogram
	IndexedDepartments  prometheus.Gauge
	IndexedMunicipios   prometheus.Gauge

	// Queries.
	LookupMisses *prometheus.CounterVec // labels: operation

	// Aggregate export.
	ExportMessages *prometheus.CounterVec // labels: outcome={success,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Completed dataset load flights by outcome.",
		}, []string{"outcome"}),
		DatasetFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_fetches_total",
			Help:      "Times the dataset source was opened.",
		}),
		DatasetLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of a successful fetch, decode, and index cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		IndexedDepartments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_departments",
			Help:      "Department aggregates in the current snapshot.",
		}),
		IndexedMunicipios: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_municipios",
			Help:      "Municipality records in the current snapshot.",
		}),
		LookupMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_misses_total",
			Help:      "Queries whose department or municipality key was not indexed.",
		}, []string{"operation"}),
		ExportMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_messages_total",
			Help:      "Department aggregate messages written to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.DatasetLoads,
		m.DatasetFetches,
		m.DatasetLoadDuration,
		m.IndexedDepartments,
		m.IndexedMunicipios,
		m.LookupMisses,
		m.ExportMessages,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
