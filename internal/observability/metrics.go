package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// evaluation service.
type Metrics struct {
	EvaluationsTotal   prometheus.Counter
	EvaluationDuration prometheus.Histogram
	OfflineEvaluations prometheus.Counter

	// External source metrics.
	SourceRequests *prometheus.CounterVec   // labels: source, outcome={success,error}
	SourceDuration *prometheus.HistogramVec // labels: source

	// Cache metrics.
	ParcelCacheLookups *prometheus.CounterVec // labels: result={hit,miss}
	MemoLookups        *prometheus.CounterVec // labels: engine={risk,confidence}, result={hit,miss}
	PurgedParcels      prometheus.Counter

	// Interpretation metrics.
	InterpretRequests *prometheus.CounterVec // labels: outcome={external,fallback}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "landrisk",
			Name:      "evaluations_total",
			Help:      "Total parcel evaluations served.",
		}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "landrisk",
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of a complete evaluate call.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		OfflineEvaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "landrisk",
			Name:      "offline_evaluations_total",
			Help:      "Evaluations that substituted defaults for failed sources.",
		}),
		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landrisk",
			Name:      "source_requests_total",
			Help:      "External source fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		SourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "landrisk",
			Name:      "source_duration_seconds",
			Help:      "External source fetch duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
		ParcelCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landrisk",
			Name:      "parcel_cache_lookups_total",
			Help:      "Geospatial parcel cache lookups by result.",
		}, []string{"result"}),
		MemoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landrisk",
			Name:      "memo_lookups_total",
			Help:      "Engine memoization lookups by engine and result.",
		}, []string{"engine", "result"}),
		PurgedParcels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "landrisk",
			Name:      "purged_parcels_total",
			Help:      "Expired shared cache rows removed by the purge loop.",
		}),
		InterpretRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landrisk",
			Name:      "interpret_requests_total",
			Help:      "Interpretation outcomes by source.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.EvaluationsTotal,
		m.EvaluationDuration,
		m.OfflineEvaluations,
		m.SourceRequests,
		m.SourceDuration,
		m.ParcelCacheLookups,
		m.MemoLookups,
		m.PurgedParcels,
		m.InterpretRequests,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		EvaluationsTotal:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "landrisk", Name: "evaluations_total"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "landrisk", Name: "evaluation_duration_seconds"}),
		OfflineEvaluations: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "landrisk", Name: "offline_evaluations_total"}),
		SourceRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "landrisk", Name: "source_requests_total"}, []string{"source", "outcome"}),
		SourceDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "landrisk", Name: "source_duration_seconds"}, []string{"source"}),
		ParcelCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "landrisk", Name: "parcel_cache_lookups_total"}, []string{"result"}),
		MemoLookups:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "landrisk", Name: "memo_lookups_total"}, []string{"engine", "result"}),
		PurgedParcels:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "landrisk", Name: "purged_parcels_total"}),
		InterpretRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "landrisk", Name: "interpret_requests_total"}, []string{"outcome"}),
	}
}
