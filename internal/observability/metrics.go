package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// depth-fusion pipeline.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	RowsFused       prometheus.Counter
	DepthsMissing   prometheus.Counter
	RowsDropped     *prometheus.CounterVec // labels: granularity={daily,monthly}

	// Fetch metrics.
	FetchRequests    *prometheus.CounterVec   // labels: product={daily_mean,monthly_mean}, outcome={success,error}
	FetchCache       *prometheus.CounterVec   // labels: result={hit,miss}
	FetchDuration    *prometheus.HistogramVec // labels: product={daily_mean,monthly_mean}
	ReadingsFetched  prometheus.Counter
	UnmappedReadings prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "depthfuse",
			Name:      "pipeline_running",
			Help:      "1 while a fusion run is active, 0 otherwise.",
		}),
		RowsFused: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "depthfuse",
			Name:      "rows_fused_total",
			Help:      "Output rows written with computed depths.",
		}),
		DepthsMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "depthfuse",
			Name:      "depths_missing_total",
			Help:      "Output rows with at least one missing depth statistic.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depthfuse",
			Name:      "rows_dropped_total",
			Help:      "Observations dropped by an inner join, by granularity.",
		}, []string{"granularity"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depthfuse",
			Name:      "fetch_requests_total",
			Help:      "Water-level fetch units by product and outcome.",
		}, []string{"product", "outcome"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depthfuse",
			Name:      "fetch_cache_total",
			Help:      "Series cache lookups by result.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "depthfuse",
			Name:      "fetch_duration_seconds",
			Help:      "CO-OPS request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"product"}),
		ReadingsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "depthfuse",
			Name:      "readings_fetched_total",
			Help:      "Normalized reading rows produced by the fetch stage.",
		}),
		UnmappedReadings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "depthfuse",
			Name:      "unmapped_readings_total",
			Help:      "Reading rows excluded for lacking a station id mapping.",
		}),
	}

	prometheus.MustRegister(
		m.PipelineRunning,
		m.RowsFused,
		m.DepthsMissing,
		m.RowsDropped,
		m.FetchRequests,
		m.FetchCache,
		m.FetchDuration,
		m.ReadingsFetched,
		m.UnmappedReadings,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PipelineRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "depthfuse", Name: "pipeline_running"}),
		RowsFused:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "depthfuse", Name: "rows_fused_total"}),
		DepthsMissing:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "depthfuse", Name: "depths_missing_total"}),
		RowsDropped:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "depthfuse", Name: "rows_dropped_total"}, []string{"granularity"}),
		FetchRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "depthfuse", Name: "fetch_requests_total"}, []string{"product", "outcome"}),
		FetchCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "depthfuse", Name: "fetch_cache_total"}, []string{"result"}),
		FetchDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "depthfuse", Name: "fetch_duration_seconds"}, []string{"product"}),
		ReadingsFetched:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "depthfuse", Name: "readings_fetched_total"}),
		UnmappedReadings: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "depthfuse", Name: "unmapped_readings_total"}),
	}
}
