// Package metrics provides Prometheus metrics for the stadium admission service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// distanceBuckets cover the intra (10), adjacent (60) and opposite (110) routes.
var distanceBuckets = []float64{10, 60, 110} //nolint:gochecknoglobals // fixed bucket layout

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Admission decisions
	eventsProcessed    *prometheus.CounterVec
	admissions         *prometheus.CounterVec
	assignmentDistance prometheus.Histogram
	averageDistance    prometheus.Gauge
	decisionLatency    prometheus.Histogram

	// Occupancy
	blockOccupants   *prometheus.GaugeVec
	blockLocked      *prometheus.GaugeVec
	stadiumOccupancy prometheus.Gauge

	// Queues
	queueSize     *prometheus.GaugeVec
	queueCapacity *prometheus.GaugeVec
	queueEnqueued *prometheus.CounterVec
	queueDequeued *prometheus.CounterVec
	queueDropped  *prometheus.CounterVec

	// Ingestion
	connectionState       prometheus.Gauge
	connectionTransitions *prometheus.CounterVec
	reconnectAttempts     prometheus.Counter
	backoffDelay          prometheus.Histogram
	messagesReceived      prometheus.Counter
	decodeErrors          prometheus.Counter

	// Workers and log
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	eventLogSize            prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

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

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "stadu",
		subsystem:        "admission",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
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

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.eventsProcessed = m.counterVec("events_processed_total", "Entry events processed by outcome", "outcome")
	m.admissions = m.counterVec("admissions_total", "Admissions by sector and block", "sector", "block")
	m.assignmentDistance = m.histogram("assignment_distance", "Routing distance of each admission", distanceBuckets)
	m.averageDistance = m.gauge("average_distance", "Running mean distance over all admissions")
	m.decisionLatency = m.histogram("decision_latency_milliseconds", "Time spent holding the engine lock", m.histogramBuckets)

	m.blockOccupants = m.gaugeVec("block_occupants", "Current occupants per block", "sector", "block")
	m.blockLocked = m.gaugeVec("block_locked", "1 when the block reached the lock threshold", "sector", "block")
	m.stadiumOccupancy = m.gauge("stadium_occupancy_ratio", "Occupants over capacity for the whole stadium")

	m.queueSize = m.gaugeVec("queue_size", "Current number of buffered elements", "queue")
	m.queueCapacity = m.gaugeVec("queue_capacity", "Maximum number of buffered elements", "queue")
	m.queueEnqueued = m.counterVec("queue_enqueue_total", "Elements pushed into the queue", "queue")
	m.queueDequeued = m.counterVec("queue_dequeue_total", "Elements taken out of the queue", "queue")
	m.queueDropped = m.counterVec("queue_dropped_total", "Oldest elements discarded on overflow", "queue")

	m.connectionState = m.gauge("connection_state", "Current feed connection state code")
	m.connectionTransitions = m.counterVec("connection_transitions_total", "Feed connection state transitions", "state")
	m.reconnectAttempts = m.counter("reconnect_attempts_total", "Scheduled reconnect attempts")
	m.backoffDelay = m.histogram("backoff_delay_milliseconds", "Reconnect backoff delays",
		[]float64{1000, 2000, 4000, 8000, 16000, 30000})
	m.messagesReceived = m.counter("messages_received_total", "Raw messages read from the feed")
	m.decodeErrors = m.counter("decode_errors_total", "Feed messages dropped because they failed to decode")

	m.workerActiveCount = m.gauge("worker_active_count", "Number of running consumers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-event consumer latency", m.histogramBuckets)
	m.eventLogSize = m.gauge("event_log_size", "Processed events retained in the recent log")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordEventProcessed counts one decision with the given outcome label.
func (m *Manager) RecordEventProcessed(outcome string) { m.eventsProcessed.WithLabelValues(outcome).Inc() }

// RecordAdmission counts an admission and observes its distance.
func (m *Manager) RecordAdmission(sector, block string, distance int) {
	m.admissions.WithLabelValues(sector, block).Inc()
	m.assignmentDistance.Observe(float64(distance))
}

// UpdateAverageDistance sets the running mean distance.
func (m *Manager) UpdateAverageDistance(avg float64) { m.averageDistance.Set(avg) }

// RecordDecisionLatency observes time spent in one engine transition.
func (m *Manager) RecordDecisionLatency(ms float64) { m.decisionLatency.Observe(ms) }

// UpdateBlock publishes the occupancy and lock flag of one block.
func (m *Manager) UpdateBlock(sector, block string, occupants int, locked bool) {
	m.blockOccupants.WithLabelValues(sector, block).Set(float64(occupants))
	v := 0.0
	if locked {
		v = 1
	}
	m.blockLocked.WithLabelValues(sector, block).Set(v)
}

// UpdateStadiumOccupancy sets the stadium fill ratio.
func (m *Manager) UpdateStadiumOccupancy(ratio float64) { m.stadiumOccupancy.Set(ratio) }

// UpdateQueueSize sets the current size of a named queue.
func (m *Manager) UpdateQueueSize(queue string, size int) {
	m.queueSize.WithLabelValues(queue).Set(float64(size))
}

// UpdateQueueCapacity sets the capacity of a named queue.
func (m *Manager) UpdateQueueCapacity(queue string, capacity int) {
	m.queueCapacity.WithLabelValues(queue).Set(float64(capacity))
}

// RecordQueueEnqueue counts a push.
func (m *Manager) RecordQueueEnqueue(queue string) { m.queueEnqueued.WithLabelValues(queue).Inc() }

// RecordQueueDequeue counts a pop.
func (m *Manager) RecordQueueDequeue(queue string) { m.queueDequeued.WithLabelValues(queue).Inc() }

// RecordQueueDrop counts an overflow eviction.
func (m *Manager) RecordQueueDrop(queue string) { m.queueDropped.WithLabelValues(queue).Inc() }

// UpdateConnectionState records the new state code and counts the transition.
func (m *Manager) UpdateConnectionState(code int, state string) {
	m.connectionState.Set(float64(code))
	m.connectionTransitions.WithLabelValues(state).Inc()
}

// RecordReconnect counts a scheduled reconnect and observes its delay.
func (m *Manager) RecordReconnect(delayMs float64) {
	m.reconnectAttempts.Inc()
	m.backoffDelay.Observe(delayMs)
}

// RecordMessageReceived counts a raw feed message.
func (m *Manager) RecordMessageReceived() { m.messagesReceived.Inc() }

// RecordDecodeError counts a malformed feed message.
func (m *Manager) RecordDecodeError() { m.decodeErrors.Inc() }

// UpdateWorkerActiveCount sets the number of running consumers.
func (m *Manager) UpdateWorkerActiveCount(n int) { m.workerActiveCount.Set(float64(n)) }

// RecordWorkerProcessingLatency observes one consumer iteration.
func (m *Manager) RecordWorkerProcessingLatency(ms float64) { m.workerProcessingLatency.Observe(ms) }

// UpdateEventLogSize sets the number of retained processed events.
func (m *Manager) UpdateEventLogSize(n int) { m.eventLogSize.Set(float64(n)) }

// RecordHTTPRequest counts a request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error with component and type labels.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	m.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystem publishes runtime statistics.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int, avgGCPauseMs float64) {
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
	if avgGCPauseMs > 0 {
		m.systemGCPauseTime.Observe(avgGCPauseMs)
	}
}

// Package-level helpers delegate to the global manager.

// RecordEventProcessed counts one decision on the global manager.
func RecordEventProcessed(outcome string) { globalManager.RecordEventProcessed(outcome) }

// RecordAdmission counts an admission on the global manager.
func RecordAdmission(sector, block string, distance int) {
	globalManager.RecordAdmission(sector, block, distance)
}

// UpdateAverageDistance sets the running mean distance on the global manager.
func UpdateAverageDistance(avg float64) { globalManager.UpdateAverageDistance(avg) }

// RecordDecisionLatency observes engine latency on the global manager.
func RecordDecisionLatency(ms float64) { globalManager.RecordDecisionLatency(ms) }

// UpdateBlock publishes one block on the global manager.
func UpdateBlock(sector, block string, occupants int, locked bool) {
	globalManager.UpdateBlock(sector, block, occupants, locked)
}

// UpdateStadiumOccupancy sets the fill ratio on the global manager.
func UpdateStadiumOccupancy(ratio float64) { globalManager.UpdateStadiumOccupancy(ratio) }

// UpdateQueueSize sets a queue size on the global manager.
func UpdateQueueSize(queue string, size int) { globalManager.UpdateQueueSize(queue, size) }

// UpdateQueueCapacity sets a queue capacity on the global manager.
func UpdateQueueCapacity(queue string, capacity int) {
	globalManager.UpdateQueueCapacity(queue, capacity)
}

// RecordQueueEnqueue counts a push on the global manager.
func RecordQueueEnqueue(queue string) { globalManager.RecordQueueEnqueue(queue) }

// RecordQueueDequeue counts a pop on the global manager.
func RecordQueueDequeue(queue string) { globalManager.RecordQueueDequeue(queue) }

// RecordQueueDrop counts an eviction on the global manager.
func RecordQueueDrop(queue string) { globalManager.RecordQueueDrop(queue) }

// UpdateConnectionState records a transition on the global manager.
func UpdateConnectionState(code int, state string) { globalManager.UpdateConnectionState(code, state) }

// RecordReconnect counts a reconnect on the global manager.
func RecordReconnect(delayMs float64) { globalManager.RecordReconnect(delayMs) }

// RecordMessageReceived counts a feed message on the global manager.
func RecordMessageReceived() { globalManager.RecordMessageReceived() }

// RecordDecodeError counts a decode failure on the global manager.
func RecordDecodeError() { globalManager.RecordDecodeError() }

// UpdateWorkerActiveCount sets the consumer count on the global manager.
func UpdateWorkerActiveCount(n int) { globalManager.UpdateWorkerActiveCount(n) }

// RecordWorkerProcessingLatency observes consumer latency on the global manager.
func RecordWorkerProcessingLatency(ms float64) { globalManager.RecordWorkerProcessingLatency(ms) }

// UpdateEventLogSize sets the log size on the global manager.
func UpdateEventLogSize(n int) { globalManager.UpdateEventLogSize(n) }

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByComponent counts an error on the global manager.
func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

// UpdateSystem publishes runtime statistics on the global manager.
func UpdateSystem(memBytes uint64, goroutines int, avgGCPauseMs float64) {
	globalManager.UpdateSystem(memBytes, goroutines, avgGCPauseMs)
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
