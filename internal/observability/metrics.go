package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "coldstorage"

// Metrics holds the Prometheus collectors for report generation.
type Metrics struct {
	ReportRequests *prometheus.CounterVec // labels: outcome={success,error}
	ReportRows     prometheus.Counter
	ReportDuration prometheus.Histogram

	// Decoding metrics.
	FieldDefaults *prometheus.CounterVec // labels: field, reason={absent,null,unconvertible}
	FacetValues   *prometheus.GaugeVec   // labels: facet={state,city}
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_requests_total",
			Help:      "Report generations by outcome.",
		}, []string{"outcome"}),
		ReportRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_rows_total",
			Help:      "Total rows decoded into report records.",
		}),
		ReportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Duration of a complete build, query and decode pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}),
		FieldDefaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_defaults_total",
			Help:      "Fields that fell back to their default value, by field and reason.",
		}, []string{"field", "reason"}),
		FacetValues: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "facet_values",
			Help:      "Distinct values in the most recent report's facets.",
		}, []string{"facet"}),
	}
}

// NewMetrics creates and registers all report metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportRequests,
		m.ReportRows,
		m.ReportDuration,
		m.FieldDefaults,
		m.FacetValues,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
