package authors

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	authors       prometheus.Gauge
	tenants       prometheus.Gauge
	operations    *prometheus.CounterVec
	prefixResults prometheus.Histogram
}

func newMetrics() *metrics {
	return &metrics{
		authors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quotekeeper",
			Subsystem: "author_cache",
			Name:      "authors",
			Help:      "Distinct authors held in the cache across all tenants.",
		}),
		tenants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quotekeeper",
			Subsystem: "author_cache",
			Name:      "tenants",
			Help:      "Tenants with an author set in the cache.",
		}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quotekeeper",
			Subsystem: "author_cache",
			Name:      "operations_total",
			Help:      "Author cache operations by kind.",
		}, []string{"op"}),
		prefixResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quotekeeper",
			Subsystem: "author_cache",
			Name:      "prefix_results",
			Help:      "Number of authors returned per prefix lookup.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}),
	}
}

func (m *metrics) register(reg prometheus.Registerer) error {
	var errs []error

	for _, c := range []prometheus.Collector{m.authors, m.tenants, m.operations, m.prefixResults} {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
