package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API metrics
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantfolio_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"route", "method", "status"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quantfolio_api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Optimizer metrics
	optimizerDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quantfolio_optimizer_duration_seconds",
			Help:    "Max-Sharpe optimization latency including Monte Carlo sampling",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	optimizerFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quantfolio_optimizer_fallbacks_total",
			Help: "Optimizations that fell back to the best Monte Carlo sample",
		},
	)

	// Market data metrics
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantfolio_price_cache_lookups_total",
			Help: "Price cache lookups by result",
		},
		[]string{"result"},
	)

	fetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantfolio_price_fetch_errors_total",
			Help: "Failed per-ticker price downloads",
		},
		[]string{"ticker"},
	)

	// Job metrics
	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantfolio_job_runs_total",
			Help: "Scheduled job runs by outcome",
		},
		[]string{"job", "status"},
	)
)

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(optimizerDuration)
	prometheus.MustRegister(optimizerFallbacks)
	prometheus.MustRegister(cacheLookups)
	prometheus.MustRegister(fetchErrors)
	prometheus.MustRegister(jobRuns)
}

// MetricsHandler handles the Prometheus metrics endpoint
type MetricsHandler struct {
	next http.Handler
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{next: promhttp.Handler()}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.next.ServeHTTP(w, r)
}

// RecordRequest records one API request
func RecordRequest(route, method string, status int, duration time.Duration) {
	apiRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	apiRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordOptimization records optimizer latency and whether it fell back
func RecordOptimization(duration time.Duration, approximate bool) {
	optimizerDuration.Observe(duration.Seconds())
	if approximate {
		optimizerFallbacks.Inc()
	}
}

// RecordCacheHit records a price cache hit
func RecordCacheHit() {
	cacheLookups.WithLabelValues("hit").Inc()
}

// RecordCacheMiss records a price cache miss
func RecordCacheMiss() {
	cacheLookups.WithLabelValues("miss").Inc()
}

// RecordFetchError records a failed ticker download
func RecordFetchError(ticker string) {
	fetchErrors.WithLabelValues(ticker).Inc()
}

// RecordJobRun records a scheduled job outcome
func RecordJobRun(job string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	jobRuns.WithLabelValues(job, status).Inc()
}
