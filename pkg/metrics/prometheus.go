// Package metrics provides Prometheus metrics for the event intelligence service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Engine metrics
	clusteringRuns      *prometheus.CounterVec
	clustersProduced    *prometheus.GaugeVec
	engineDuration      *prometheus.HistogramVec
	eventsDropped       *prometheus.CounterVec
	recommendationsSent prometheus.Counter
	impactEstimates     prometheus.Counter

	// Snapshot and cache metrics
	snapshotVersion      prometheus.Gauge
	snapshotEvents       prometheus.Gauge
	snapshotsReplaced    prometheus.Counter
	snapshotsDeduplicate prometheus.Counter
	clusterCacheLookups  *prometheus.CounterVec

	// Leaderboard metrics
	boardEntries         prometheus.Gauge
	boardRebuilds        prometheus.Counter
	repositoryUpdateMs   prometheus.Histogram
	repositoryQueryMs    prometheus.Histogram
	repositoryStaleDrops prometheus.Counter

	// Queue metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    prometheus.Counter

	// Worker metrics
	workerCount        prometheus.Gauge
	workerActive       prometheus.Gauge
	jobsProcessed      *prometheus.CounterVec
	jobProcessingMs    prometheus.Histogram
	workerMessagesRate prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "eventmap",
		subsystem:        "intel",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		enabled:          true,
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

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.clusteringRuns = m.counterVec("clustering_runs_total", "Clustering passes by zoom band and index kind", "band", "index")
	m.clustersProduced = m.gaugeVec("clusters_current", "Clusters in the latest pass per zoom band", "band")
	m.engineDuration = m.histogramVec("engine_duration_milliseconds", "Engine call duration in milliseconds", "engine")
	m.eventsDropped = m.counterVec("events_dropped_total", "Events dropped at the boundary by warning kind", "kind")
	m.recommendationsSent = m.counter("recommendations_total", "Recommended events returned to callers")
	m.impactEstimates = m.counter("impact_estimates_total", "Impact estimates computed")

	m.snapshotVersion = m.gauge("snapshot_version", "Version of the current event snapshot")
	m.snapshotEvents = m.gauge("snapshot_events", "Valid events in the current snapshot")
	m.snapshotsReplaced = m.counter("snapshots_replaced_total", "Event snapshots accepted")
	m.snapshotsDeduplicate = m.counter("snapshots_duplicate_total", "Snapshots skipped because an identical one was already processed")
	m.clusterCacheLookups = m.counterVec("cluster_cache_lookups_total", "Cluster cache lookups by result", "result")

	m.boardEntries = m.gauge("leaderboard_entries", "Events ranked on the impact leaderboard")
	m.boardRebuilds = m.counter("leaderboard_rebuilds_total", "Impact leaderboard rebuilds")
	m.repositoryUpdateMs = m.histogram("repository_update_latency_milliseconds", "Leaderboard write latency in milliseconds")
	m.repositoryQueryMs = m.histogram("repository_query_latency_milliseconds", "Leaderboard read latency in milliseconds")
	m.repositoryStaleDrops = m.counter("repository_stale_writes_total", "Writes rejected because a newer snapshot was already stored")

	m.queueSize = m.gauge("queue_size", "Jobs waiting in the recompute queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the recompute queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size over capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Jobs dequeued")
	m.queueRejected = m.counter("queue_enqueue_errors_total", "Jobs rejected by a full or closed queue")

	m.workerCount = m.gauge("worker_count", "Workers in the pool")
	m.workerActive = m.gauge("worker_active_count", "Workers currently running a job")
	m.jobsProcessed = m.counterVec("jobs_processed_total", "Recompute jobs by outcome", "outcome")
	m.jobProcessingMs = m.histogram("job_processing_latency_milliseconds", "Recompute job duration in milliseconds")
	m.workerMessagesRate = m.gauge("worker_jobs_per_second", "Jobs processed per second over the last interval")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by route, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
}

// Engine metrics.

// RecordClustering records one clustering pass.
func RecordClustering(band, index string, clusters int, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.clusteringRuns.WithLabelValues(band, index).Inc()
	globalManager.clustersProduced.WithLabelValues(band).Set(float64(clusters))
	globalManager.engineDuration.WithLabelValues("cluster").Observe(durationMs)
}

// RecordRecommendation records one recommendation call and the number of items returned.
func RecordRecommendation(items int, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.recommendationsSent.Add(float64(items))
	globalManager.engineDuration.WithLabelValues("recommend").Observe(durationMs)
}

// RecordImpactEstimates records n impact estimates computed in one call.
func RecordImpactEstimates(n int, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.impactEstimates.Add(float64(n))
	globalManager.engineDuration.WithLabelValues("impact").Observe(durationMs)
}

// RecordEventsDropped adds n dropped events of a warning kind.
func RecordEventsDropped(kind string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.eventsDropped.WithLabelValues(kind).Add(float64(n))
}

// Snapshot metrics.

// RecordSnapshotReplaced records a newly accepted snapshot.
func RecordSnapshotReplaced(version uint64, events int) {
	if !globalManager.enabled {
		return
	}
	globalManager.snapshotsReplaced.Inc()
	globalManager.snapshotVersion.Set(float64(version))
	globalManager.snapshotEvents.Set(float64(events))
}

// RecordSnapshotDuplicate counts a snapshot that needed no recompute.
func RecordSnapshotDuplicate() {
	if !globalManager.enabled {
		return
	}
	globalManager.snapshotsDeduplicate.Inc()
}

// RecordClusterCache counts a cache lookup; hit reports the outcome.
func RecordClusterCache(hit bool) {
	if !globalManager.enabled {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.clusterCacheLookups.WithLabelValues(result).Inc()
}

// Repository metrics.

// UpdateLeaderboardEntries sets the number of ranked events.
func UpdateLeaderboardEntries(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.boardEntries.Set(float64(count))
}

// RecordLeaderboardRebuild counts a full leaderboard rebuild.
func RecordLeaderboardRebuild() {
	if !globalManager.enabled {
		return
	}
	globalManager.boardRebuilds.Inc()
}

// RecordRepositoryUpdateLatency records leaderboard write latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.repositoryUpdateMs.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records leaderboard read latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.repositoryQueryMs.Observe(latencyMs)
}

// RecordRepositoryStaleWrite counts a write rejected for carrying an old version.
func RecordRepositoryStaleWrite() {
	if !globalManager.enabled {
		return
	}
	globalManager.repositoryStaleDrops.Inc()
}

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueRejected.Inc()
}

// Worker metrics.

// UpdateWorkerCount sets the pool size.
func UpdateWorkerCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerActive.Set(float64(count))
}

// RecordJobProcessed records a finished job with its outcome
// (done, stale, failed).
func RecordJobProcessed(outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.jobsProcessed.WithLabelValues(outcome).Inc()
	globalManager.jobProcessingMs.Observe(latencyMs)
}

// UpdateWorkerJobsPerSecond sets the recent processing rate.
func UpdateWorkerJobsPerSecond(rate float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerMessagesRate.Set(rate)
}

// HTTP metrics.

// RecordHTTPRequest records one served HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry the global manager registers on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// SetEnabled turns recording through the global functions on or off.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}
