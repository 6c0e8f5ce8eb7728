package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics of the analysis service
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Analysis metrics
	AnalysisRuns     *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec

	// Store metrics
	Datasets   prometheus.Gauge
	ActiveJobs prometheus.Gauge
}

// NewCollector creates a collector with its own registry under the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	analysisRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Total number of algorithm runs",
		},
		[]string{"algorithm", "status"},
	)

	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Algorithm run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"algorithm"},
	)

	datasets := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "datasets_stored",
			Help:      "Number of datasets held in memory",
		},
	)

	activeJobs := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_active",
			Help:      "Number of queued or running jobs",
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		analysisRuns,
		analysisDuration,
		datasets,
		activeJobs,
	)

	return &Collector{
		registry:         registry,
		HTTPRequests:     httpRequests,
		HTTPDuration:     httpDuration,
		AnalysisRuns:     analysisRuns,
		AnalysisDuration: analysisDuration,
		Datasets:         datasets,
		ActiveJobs:       activeJobs,
	}
}

// RecordRequest records one HTTP request against its route template
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAnalysis records one algorithm run; status is "success" or "error"
func (c *Collector) RecordAnalysis(algorithm string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.AnalysisRuns.WithLabelValues(algorithm, status).Inc()
	c.AnalysisDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
