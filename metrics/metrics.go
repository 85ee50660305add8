package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Domain metrics, extended beyond the teacher's HTTP-only pair to
	// cover the cache, circuit breakers, job scheduler, and pub/sub bus.
	cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "readability_cache_hit_ratio",
		Help: "Fraction of cache lookups that were hits, in [0,1].",
	})
	circuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "readability_circuit_breaker_state",
		Help: "Circuit breaker state per dependency: 0=closed, 1=half_open, 2=open.",
	}, []string{"dependency"})
	jobQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "readability_job_queue_depth",
		Help: "Number of batch jobs currently queued or processing.",
	})
	analysesServedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "readability_analyses_served_total",
		Help: "Total number of completed readability analyses.",
	})
	pubsubMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "readability_pubsub_messages_total",
		Help: "Total pub/sub messages by direction (published/consumed).",
	}, []string{"direction"})
)

var initMetricsOnce sync.Once
var registry *prometheus.Registry

// InitMetrics initializes and registers Prometheus metrics.
func InitMetrics() *prometheus.Registry {
	initMetricsOnce.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(httpRequestsTotal)
		registry.MustRegister(httpRequestDurationSeconds)
		registry.MustRegister(cacheHitRatio)
		registry.MustRegister(circuitBreakerState)
		registry.MustRegister(jobQueueDepth)
		registry.MustRegister(analysesServedTotal)
		registry.MustRegister(pubsubMessagesTotal)

		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		log.Info().Msg("Prometheus metrics initialized.")
	})
	return registry
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// HTTPMetricsMiddleware collects HTTP request metrics.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lw, r)

		duration := time.Since(start).Seconds()
		method := r.Method
		path := r.URL.Path
		status := strconv.Itoa(lw.statusCode)

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(method, path).Observe(duration)
	})
}

// loggingResponseWriter is a wrapper to capture the HTTP status code.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// SetCacheHitRatio records the cache layer's current hit ratio.
func SetCacheHitRatio(ratio float64) {
	cacheHitRatio.Set(ratio)
}

// CircuitState enumerates the gauge values SetCircuitBreakerState accepts.
type CircuitState int

const (
	CircuitClosed   CircuitState = 0
	CircuitHalfOpen CircuitState = 1
	CircuitOpen     CircuitState = 2
)

// SetCircuitBreakerState records one dependency's breaker state.
func SetCircuitBreakerState(dependency string, state CircuitState) {
	circuitBreakerState.WithLabelValues(dependency).Set(float64(state))
}

// SetJobQueueDepth records the scheduler's current queue depth.
func SetJobQueueDepth(depth int) {
	jobQueueDepth.Set(float64(depth))
}

// IncAnalysesServed increments the completed-analysis counter.
func IncAnalysesServed() {
	analysesServedTotal.Inc()
}

// IncPubSubPublished increments the pub/sub published-message counter.
func IncPubSubPublished() {
	pubsubMessagesTotal.WithLabelValues("published").Inc()
}

// IncPubSubConsumed increments the pub/sub consumed-message counter.
func IncPubSubConsumed() {
	pubsubMessagesTotal.WithLabelValues("consumed").Inc()
}

