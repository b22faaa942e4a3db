// Package metrics provides Prometheus metrics for the recommendation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Ranking - the core of every recommendation request
	rankingRequests   prometheus.Counter
	rankingLatency    prometheus.Histogram
	rankingCandidates prometheus.Histogram
	rankingErrors     *prometheus.CounterVec

	// Catalog snapshot
	catalogItems        prometheus.Gauge
	catalogSalesRecords prometheus.Gauge

	// Explanations - language model calls decorating rankings
	explanationRequests  *prometheus.CounterVec
	explanationFailures  *prometheus.CounterVec
	explanationFallbacks *prometheus.CounterVec
	explanationLatency   *prometheus.HistogramVec
	explanationCache     *prometheus.CounterVec

	// Circuit breaker around the language model provider
	circuitBreakerState       *prometheus.GaugeVec
	circuitBreakerTransitions *prometheus.CounterVec
	circuitBreakerRejected    *prometheus.CounterVec

	// Warm-up queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Warm-up workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	warmupCompleted         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "reco",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics on the configured registry.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.rankingRequests = m.counter("ranking_requests_total", "Total number of ranking requests")
	m.rankingLatency = m.histogram("ranking_latency_milliseconds", "Ranking latency in milliseconds, excluding explanations", m.histogramBuckets)
	m.rankingCandidates = m.histogram("ranking_candidates", "Number of candidates scored per ranking",
		prometheus.ExponentialBuckets(1, 4, 8))
	m.rankingErrors = m.counterVec("ranking_errors_total", "Ranking failures by kind", "kind")

	m.catalogItems = m.gauge("catalog_items", "Number of items in the loaded catalog")
	m.catalogSalesRecords = m.gauge("catalog_sales_records", "Number of items with a sales history")

	m.explanationRequests = m.counterVec("explanation_requests_total", "Explanation requests by kind", "kind")
	m.explanationFailures = m.counterVec("explanation_failures_total", "Failed explanation requests by kind and reason", "kind", "reason")
	m.explanationFallbacks = m.counterVec("explanation_fallbacks_total", "Explanations replaced by fallback text", "kind")
	m.explanationLatency = m.histogramVec("explanation_latency_milliseconds", "Explanation latency in milliseconds",
		[]float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000}, "kind")
	m.explanationCache = m.counterVec("explanation_cache_total", "Explanation cache lookups by result", "result")

	m.circuitBreakerState = m.gaugeVec("circuit_breaker_state", "Circuit breaker state (0=closed, 1=half-open, 2=open)", "name")
	m.circuitBreakerTransitions = m.counterVec("circuit_breaker_transitions_total", "Circuit breaker state transitions", "name", "from", "to")
	m.circuitBreakerRejected = m.counterVec("circuit_breaker_rejected_total", "Calls rejected by an open circuit breaker", "name")

	m.queueSize = m.gauge("warmup_queue_size", "Current number of queued warm-up jobs")
	m.queueCapacity = m.gauge("warmup_queue_capacity", "Maximum number of queued warm-up jobs")
	m.queueUtilization = m.gauge("warmup_queue_utilization_ratio", "Warm-up queue size / capacity")
	m.queueEnqueued = m.counter("warmup_queue_enqueued_total", "Total warm-up jobs enqueued")
	m.queueDequeued = m.counter("warmup_queue_dequeued_total", "Total warm-up jobs dequeued")
	m.queueEnqueueErrors = m.counter("warmup_queue_enqueue_errors_total", "Warm-up jobs rejected by the queue")

	m.workerCount = m.gauge("warmup_worker_count", "Number of warm-up workers")
	m.workerProcessingLatency = m.histogram("warmup_worker_processing_latency_milliseconds", "Warm-up job processing latency in milliseconds",
		[]float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000})
	m.workerErrors = m.counter("warmup_worker_errors_total", "Warm-up jobs that failed")
	m.warmupCompleted = m.counter("warmup_completed_total", "Warm-up jobs completed")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of failed operations in milliseconds",
		m.histogramBuckets, "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Ranking.

// RecordRankingRequest increments the ranking request counter.
func RecordRankingRequest() {
	globalManager.rankingRequests.Inc()
}

// RecordRankingLatency records ranking latency in milliseconds.
func RecordRankingLatency(latencyMs float64) {
	globalManager.rankingLatency.Observe(latencyMs)
}

// RecordRankingCandidates records how many candidates one ranking scored.
func RecordRankingCandidates(n int) {
	globalManager.rankingCandidates.Observe(float64(n))
}

// RecordRankingError counts a failed ranking, e.g. kind "not_found".
func RecordRankingError(kind string) {
	globalManager.rankingErrors.WithLabelValues(kind).Inc()
}

// Catalog.

// UpdateCatalogSize sets the catalog item and sales record gauges.
func UpdateCatalogSize(items, salesRecords int) {
	globalManager.catalogItems.Set(float64(items))
	globalManager.catalogSalesRecords.Set(float64(salesRecords))
}

// Explanations.

// RecordExplanationRequest counts an explanation request of the given kind.
func RecordExplanationRequest(kind string) {
	globalManager.explanationRequests.WithLabelValues(kind).Inc()
}

// RecordExplanationFailure counts a failed explanation.
func RecordExplanationFailure(kind, reason string) {
	globalManager.explanationFailures.WithLabelValues(kind, reason).Inc()
}

// RecordExplanationFallback counts an explanation replaced by fallback text.
func RecordExplanationFallback(kind string) {
	globalManager.explanationFallbacks.WithLabelValues(kind).Inc()
}

// RecordExplanationLatency records explanation latency in milliseconds.
func RecordExplanationLatency(kind string, latencyMs float64) {
	globalManager.explanationLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordExplanationCache counts a cache lookup: "hit", "miss" or "error".
func RecordExplanationCache(result string) {
	globalManager.explanationCache.WithLabelValues(result).Inc()
}

// Circuit breaker.

// UpdateCircuitBreakerState sets the state gauge of a breaker.
func UpdateCircuitBreakerState(name string, state float64) {
	globalManager.circuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordCircuitBreakerTransition counts a breaker state change.
func RecordCircuitBreakerTransition(name, from, to string) {
	globalManager.circuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordCircuitBreakerRejected counts a call short-circuited by a breaker.
func RecordCircuitBreakerRejected(name string) {
	globalManager.circuitBreakerRejected.WithLabelValues(name).Inc()
}

// Warm-up queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueued counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeued counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Warm-up workers.

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records job processing latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordWarmupCompleted increments the completed warm-up job counter.
func RecordWarmupCompleted() {
	globalManager.warmupCompleted.Inc()
}

// HTTP.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint counts an error returned by an HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System.

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
