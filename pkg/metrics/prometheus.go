// Package metrics provides Prometheus metrics for the tracksense assessment service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// matchScoreBuckets spans the 0..100 match score range in steps of ten.
var matchScoreBuckets = prometheus.LinearBuckets(10, 10, 10) //nolint:gochecknoglobals // constant bucket layout

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Assessment flow
	sessionsStarted   prometheus.Counter
	sessionsCompleted prometheus.Counter
	turnsProcessed    prometheus.Counter
	turnsDuplicate    prometheus.Counter
	turnsRejected     *prometheus.CounterVec
	stageTransitions  *prometheus.CounterVec

	// Recommendations
	recommendationsComputed prometheus.Counter
	matchScore              prometheus.Histogram
	resultCacheHits         prometheus.Counter
	resultLatency           prometheus.Histogram

	// Session store
	sessionsActive  prometheus.Gauge
	sessionsEvicted *prometheus.CounterVec
	storeOpLatency  *prometheus.HistogramVec
	dedupeEntries   prometheus.Gauge
	catalogTracks   prometheus.Gauge

	// Finalize queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueued           prometheus.Counter
	queueDequeued           prometheus.Counter
	queueEnqueueErrors      *prometheus.CounterVec
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps the default Go collectors out of the exposition.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tracksense",
		subsystem:        "assessment",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.sessionsStarted = m.counter("sessions_started_total", "Total number of assessment sessions started")
	m.sessionsCompleted = m.counter("sessions_completed_total", "Total number of assessment sessions that reached the complete stage")
	m.turnsProcessed = m.counter("turns_processed_total", "Total number of conversation turns merged into session state")
	m.turnsDuplicate = m.counter("turns_duplicate_total", "Total number of replayed turns ignored by idempotency checks")
	m.turnsRejected = m.counterVec("turns_rejected_total", "Total number of turns rejected by reason", "reason")
	m.stageTransitions = m.counterVec("stage_transitions_total", "Total number of turns landing on each stage", "stage")

	m.recommendationsComputed = m.counter("recommendations_computed_total", "Total number of recommendation results computed")
	m.matchScore = m.histogram("match_score", "Distribution of rounded match scores of recommended tracks", matchScoreBuckets)
	m.resultCacheHits = m.counter("result_cache_hits_total", "Total number of result reads served from the write-once cache")
	m.resultLatency = m.histogram("result_latency_milliseconds", "Time spent computing a recommendation result in milliseconds", m.histogramBuckets)

	m.sessionsActive = m.gauge("sessions_active", "Number of sessions currently held by the session store")
	m.sessionsEvicted = m.counterVec("sessions_evicted_total", "Total number of sessions dropped from the store", "cause")
	m.storeOpLatency = m.histogramVec("store_operation_latency_milliseconds", "Session store operation latency in milliseconds", "op")
	m.dedupeEntries = m.gauge("dedupe_entries", "Number of turn ids remembered for idempotency")
	m.catalogTracks = m.gauge("catalog_tracks", "Number of tracks in the loaded catalog")

	m.queueSize = m.gauge("finalize_queue_size", "Current number of queued finalize jobs")
	m.queueCapacity = m.gauge("finalize_queue_capacity", "Maximum number of queued finalize jobs")
	m.queueEnqueued = m.counter("finalize_queue_enqueue_total", "Total number of finalize jobs enqueued")
	m.queueDequeued = m.counter("finalize_queue_dequeue_total", "Total number of finalize jobs dequeued")
	m.queueEnqueueErrors = m.counterVec("finalize_queue_enqueue_errors_total", "Total number of rejected finalize jobs by reason", "reason")
	m.workerCount = m.gauge("worker_count", "Number of finalize workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Finalize job processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of failed finalize jobs")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.rateLimited = m.counterVec("rate_limited_total", "Total number of requests rejected by the rate limiter", "endpoint")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordSessionStarted increments the sessions started counter.
func RecordSessionStarted() { globalManager.sessionsStarted.Inc() }

// RecordSessionCompleted increments the sessions completed counter.
func RecordSessionCompleted() { globalManager.sessionsCompleted.Inc() }

// RecordTurnProcessed counts a merged turn and the stage it landed on.
func RecordTurnProcessed(stage string) {
	globalManager.turnsProcessed.Inc()
	globalManager.stageTransitions.WithLabelValues(stage).Inc()
}

// RecordTurnDuplicate increments the duplicate turn counter.
func RecordTurnDuplicate() { globalManager.turnsDuplicate.Inc() }

// RecordTurnRejected counts a rejected turn.
func RecordTurnRejected(reason string) { globalManager.turnsRejected.WithLabelValues(reason).Inc() }

// RecordRecommendations records a computed result and the scores it produced.
func RecordRecommendations(latencyMs float64, matchScores ...int) {
	globalManager.recommendationsComputed.Inc()
	globalManager.resultLatency.Observe(latencyMs)
	for _, s := range matchScores {
		globalManager.matchScore.Observe(float64(s))
	}
}

// RecordResultCacheHit increments the result cache hit counter.
func RecordResultCacheHit() { globalManager.resultCacheHits.Inc() }

// UpdateSessionsActive sets the number of stored sessions.
func UpdateSessionsActive(n int) { globalManager.sessionsActive.Set(float64(n)) }

// RecordSessionEvicted counts a session dropped for the given cause (ttl, capacity).
func RecordSessionEvicted(cause string) { globalManager.sessionsEvicted.WithLabelValues(cause).Inc() }

// RecordStoreOperation records a session store operation latency.
func RecordStoreOperation(op string, latencyMs float64) {
	globalManager.storeOpLatency.WithLabelValues(op).Observe(latencyMs)
}

// UpdateDedupeEntries sets the number of remembered turn ids.
func UpdateDedupeEntries(n int64) { globalManager.dedupeEntries.Set(float64(n)) }

// UpdateCatalogTracks sets the catalog size.
func UpdateCatalogTracks(n int) { globalManager.catalogTracks.Set(float64(n)) }

// UpdateQueueSize sets the current finalize queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the finalize queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of finalize workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records a finalize job latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(endpoint string) { globalManager.rateLimited.WithLabelValues(endpoint).Inc() }

// UpdateSystemMemoryUsage sets the heap memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
