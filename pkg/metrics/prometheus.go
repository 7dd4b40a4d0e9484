// Package metrics provides Prometheus metrics for the NOVA readiness service.
package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// readinessBuckets split the 0..100 percentage range into deciles.
var readinessBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 85, 90, 100} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the NOVA service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ingestion
	workoutsIngested  prometheus.Counter
	workoutsDuplicate prometheus.Counter
	workoutsRejected  *prometheus.CounterVec

	// Readiness
	computations      *prometheus.CounterVec
	computeLatency    prometheus.Histogram
	zoneReadiness     *prometheus.HistogramVec
	tiers             *prometheus.CounterVec
	recommendations   *prometheus.CounterVec
	athletesTracked   prometheus.Gauge
	computationErrors prometheus.Counter

	// Workout history store
	storeWorkouts prometheus.Gauge
	storeLatency  *prometheus.HistogramVec
	storePruned   prometheus.Counter

	// Queue
	queueCapacity          prometheus.Gauge
	queueSize              prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueue           prometheus.Counter
	queueDequeue           prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "nova",
		subsystem:        "readiness",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.workoutsIngested = auto.NewCounter(m.counterOpts("workouts_ingested_total", "Workouts accepted into the history store"))
	m.workoutsDuplicate = auto.NewCounter(m.counterOpts("workouts_duplicate_total", "Workout submissions dropped as duplicates"))
	m.workoutsRejected = auto.NewCounterVec(m.counterOpts("workouts_rejected_total", "Workout submissions rejected before ingestion"),
		[]string{"reason"})

	m.computations = auto.NewCounterVec(m.counterOpts("computations_total", "Readiness computations by trigger"),
		[]string{"source"})
	m.computeLatency = auto.NewHistogram(m.histogramOpts("compute_latency_milliseconds",
		"Time spent computing a readiness result", m.histogramBuckets))
	m.zoneReadiness = auto.NewHistogramVec(m.histogramOpts("zone_readiness_percent",
		"Distribution of computed readiness per zone, overall included", readinessBuckets), []string{"zone"})
	m.tiers = auto.NewCounterVec(m.counterOpts("tier_total", "Computed results by readiness tier"), []string{"tier"})
	m.recommendations = auto.NewCounterVec(m.counterOpts("recommendations_total", "Recommendations emitted by rule"),
		[]string{"rule", "priority"})
	m.athletesTracked = auto.NewGauge(m.gaugeOpts("athletes_tracked", "Athletes with at least one stored workout"))
	m.computationErrors = auto.NewCounter(m.counterOpts("computation_errors_total", "Readiness computations that failed"))

	m.storeWorkouts = auto.NewGauge(m.gaugeOpts("store_workouts", "Workouts currently held by the history store"))
	m.storeLatency = auto.NewHistogramVec(m.histogramOpts("store_operation_latency_milliseconds",
		"History store latency by operation", m.histogramBuckets), []string{"operation"})
	m.storePruned = auto.NewCounter(m.counterOpts("store_pruned_total", "Workouts removed by retention pruning"))

	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum capacity of the ingestion queue"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Workouts waiting in the ingestion queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue size divided by capacity"))
	m.queueEnqueue = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Workouts enqueued"))
	m.queueDequeue = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Workouts dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Enqueue attempts that failed"))
	m.queueProcessingLatency = auto.NewHistogram(m.histogramOpts("queue_processing_latency_milliseconds",
		"Enqueue latency in milliseconds", m.histogramBuckets))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured worker goroutines"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Workers currently processing a workout"))
	m.workerIdleCount = auto.NewGauge(m.gaugeOpts("worker_idle_count", "Workers waiting for a workout"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Time a worker spends on one workout", m.histogramBuckets))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Workouts a worker failed to process"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component"),
		[]string{"component", "error_type"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordWorkoutIngested increments the ingested workouts counter.
func RecordWorkoutIngested() {
	globalManager.workoutsIngested.Inc()
}

// RecordWorkoutDuplicate increments the duplicate workouts counter.
func RecordWorkoutDuplicate() {
	globalManager.workoutsDuplicate.Inc()
}

// RecordWorkoutRejected counts a submission rejected for reason (invalid, backpressure).
func RecordWorkoutRejected(reason string) {
	globalManager.workoutsRejected.WithLabelValues(reason).Inc()
}

// RecordComputation counts one readiness computation triggered by source
// (ingest, query, calculate).
func RecordComputation(source string) {
	globalManager.computations.WithLabelValues(source).Inc()
}

// RecordComputeLatency records readiness computation latency in milliseconds.
func RecordComputeLatency(latencyMs float64) {
	globalManager.computeLatency.Observe(latencyMs)
}

// ObserveZoneReadiness records one computed readiness percentage for zone.
func ObserveZoneReadiness(zone string, percent float64) {
	globalManager.zoneReadiness.WithLabelValues(zone).Observe(percent)
}

// RecordTier counts a result classified into tier.
func RecordTier(tier string) {
	globalManager.tiers.WithLabelValues(tier).Inc()
}

// RecordRecommendation counts a recommendation emitted by rule.
func RecordRecommendation(rule, priority string) {
	globalManager.recommendations.WithLabelValues(rule, priority).Inc()
}

// UpdateAthletesTracked sets the number of athletes with stored history.
func UpdateAthletesTracked(count int) {
	globalManager.athletesTracked.Set(float64(count))
}

// RecordComputationError increments the failed computations counter.
func RecordComputationError() {
	globalManager.computationErrors.Inc()
}

// UpdateStoreWorkouts sets the number of workouts held by the store.
func UpdateStoreWorkouts(count int) {
	globalManager.storeWorkouts.Set(float64(count))
}

// RecordStoreLatency records the latency of a store operation (append, recent, prune).
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStorePruned adds n to the pruned workouts counter.
func RecordStorePruned(n int) {
	if n > 0 {
		globalManager.storePruned.Add(float64(n))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records enqueue latency in milliseconds.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records per-workout processing latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error attributed to a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error attributed to an HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// CollectSystem samples runtime memory, goroutine and last GC pause figures.
func CollectSystem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	UpdateSystemMemoryUsage(ms.HeapAlloc)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if ms.NumGC > 0 {
		last := ms.PauseNs[(ms.NumGC+255)%256]
		RecordSystemGCPauseTime(float64(last) / 1e6)
	}
}

// GetRegistry returns the custom registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
