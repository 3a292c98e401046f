// Package metrics provides Prometheus metrics for the Lumina engagement service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Manager owns every Prometheus collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Ingestion pipeline
	activitiesProcessed prometheus.Counter
	activitiesDuplicate prometheus.Counter
	activitiesRejected  prometheus.Counter
	valuationLatency    prometheus.Histogram
	valuationErrors     prometheus.Counter

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueEnqueueErrs prometheus.Counter

	// Workers
	workerCount   prometheus.Gauge
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter

	// Ledger store
	ledgerWallets       prometheus.Gauge
	ledgerUpdates       prometheus.Counter
	ledgerUpdateLatency prometheus.Histogram
	ledgerQueryLatency  prometheus.Histogram
	ledgerSnapshotCount prometheus.Counter
	ledgerSnapshotUnix  prometheus.Gauge

	// Upstream API clients
	upstreamRequests *prometheus.CounterVec
	upstreamErrors   *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	// Read-model engines (signals, reputation, personalization, feed)
	engineComputations *prometheus.CounterVec
	engineErrors       *prometheus.CounterVec
	engineLatency      *prometheus.HistogramVec

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Runtime health
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "lumina",
		subsystem:        "engagement",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
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

func (m *Manager) counterVec(name, help string, labels []string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels []string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.activitiesProcessed = m.counter("activities_processed_total",
		"Total number of supporter activities successfully recorded")
	m.activitiesDuplicate = m.counter("activities_duplicate_total",
		"Total number of duplicate activity submissions detected")
	m.activitiesRejected = m.counter("activities_rejected_total",
		"Total number of activity submissions rejected by validation")
	m.valuationLatency = m.histogram("valuation_latency_milliseconds",
		"Histogram of activity valuation latency in milliseconds")
	m.valuationErrors = m.counter("valuation_errors_total",
		"Total number of activity valuation errors")

	m.queueSize = m.gauge("queue_size",
		"Current size of the activity queue")
	m.queueCapacity = m.gauge("queue_capacity",
		"Maximum activity queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio",
		"Queue utilization ratio (current size / capacity)")
	m.queueEnqueued = m.counter("queue_enqueue_total",
		"Total number of activities enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total",
		"Total number of activities dequeued")
	m.queueEnqueueErrs = m.counter("queue_enqueue_errors_total",
		"Total number of enqueue errors (backpressure)")

	m.workerCount = m.gauge("worker_count",
		"Current number of activity workers")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds",
		"Worker processing latency in milliseconds")
	m.workerErrors = m.counter("worker_errors_total",
		"Total number of worker processing errors")

	m.ledgerWallets = m.gauge("ledger_wallets_total",
		"Total number of wallets tracked in the ledger")
	m.ledgerUpdates = m.counter("ledger_updates_total",
		"Total number of ledger append operations")
	m.ledgerUpdateLatency = m.histogram("ledger_update_latency_milliseconds",
		"Ledger append operation latency in milliseconds")
	m.ledgerQueryLatency = m.histogram("ledger_query_latency_milliseconds",
		"Ledger query operation latency in milliseconds")
	m.ledgerSnapshotCount = m.counter("ledger_snapshot_count_total",
		"Total number of ledger snapshots published")
	m.ledgerSnapshotUnix = m.gauge("ledger_snapshot_last_unix",
		"Unix timestamp of the last ledger snapshot publish")

	m.upstreamRequests = m.counterVec("upstream_requests_total",
		"Total number of upstream API requests by service and operation",
		[]string{"service", "operation"})
	m.upstreamErrors = m.counterVec("upstream_errors_total",
		"Total number of upstream API errors by service and operation",
		[]string{"service", "operation"})
	m.upstreamLatency = m.histogramVec("upstream_latency_milliseconds",
		"Upstream API request latency in milliseconds",
		[]string{"service", "operation"})

	m.engineComputations = m.counterVec("engine_computations_total",
		"Total number of read-model computations by engine",
		[]string{"engine"})
	m.engineErrors = m.counterVec("engine_errors_total",
		"Total number of read-model computation errors by engine",
		[]string{"engine"})
	m.engineLatency = m.histogramVec("engine_latency_milliseconds",
		"Read-model computation latency in milliseconds",
		[]string{"engine"})

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method",
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds",
		[]string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes",
		"System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count",
		"Number of goroutines")
}

// RecordActivityProcessed increments the processed activities counter.
func RecordActivityProcessed() {
	globalManager.activitiesProcessed.Inc()
}

// RecordActivityDuplicate increments the duplicate activities counter.
func RecordActivityDuplicate() {
	globalManager.activitiesDuplicate.Inc()
}

// RecordActivityRejected increments the rejected activities counter.
func RecordActivityRejected() {
	globalManager.activitiesRejected.Inc()
}

// RecordValuationLatency records activity valuation latency in milliseconds.
func RecordValuationLatency(latencyMs float64) {
	globalManager.valuationLatency.Observe(latencyMs)
}

// RecordValuationError increments the valuation errors counter.
func RecordValuationError() {
	globalManager.valuationErrors.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrs.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// UpdateLedgerWallets sets the number of wallets in the ledger.
func UpdateLedgerWallets(count int) {
	globalManager.ledgerWallets.Set(float64(count))
}

// RecordLedgerUpdate increments the ledger updates counter.
func RecordLedgerUpdate() {
	globalManager.ledgerUpdates.Inc()
}

// RecordLedgerUpdateLatency records ledger append latency.
func RecordLedgerUpdateLatency(latencyMs float64) {
	globalManager.ledgerUpdateLatency.Observe(latencyMs)
}

// RecordLedgerQueryLatency records ledger query latency.
func RecordLedgerQueryLatency(latencyMs float64) {
	globalManager.ledgerQueryLatency.Observe(latencyMs)
}

// RecordLedgerSnapshot marks a published ledger snapshot.
func RecordLedgerSnapshot() {
	globalManager.ledgerSnapshotCount.Inc()
	globalManager.ledgerSnapshotUnix.Set(float64(time.Now().Unix()))
}

// RecordUpstreamRequest records an upstream API call.
func RecordUpstreamRequest(service, operation string) {
	globalManager.upstreamRequests.WithLabelValues(service, operation).Inc()
}

// RecordUpstreamError records an upstream API error.
func RecordUpstreamError(service, operation string) {
	globalManager.upstreamErrors.WithLabelValues(service, operation).Inc()
}

// RecordUpstreamLatency records upstream API latency.
func RecordUpstreamLatency(service, operation string, latencyMs float64) {
	globalManager.upstreamLatency.WithLabelValues(service, operation).Observe(latencyMs)
}

// RecordEngineComputation records a completed read-model computation.
func RecordEngineComputation(engine string) {
	globalManager.engineComputations.WithLabelValues(engine).Inc()
}

// RecordEngineError records a failed read-model computation.
func RecordEngineError(engine string) {
	globalManager.engineErrors.WithLabelValues(engine).Inc()
}

// RecordEngineLatency records read-model computation latency.
func RecordEngineLatency(engine string, latencyMs float64) {
	globalManager.engineLatency.WithLabelValues(engine).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
