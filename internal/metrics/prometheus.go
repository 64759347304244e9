// ABOUTME: Prometheus instruments for the relay
// ABOUTME: Counts chunks, listeners, snapshots and HTTP requests
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the relay. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Producer metrics
	ProducerSessions prometheus.Counter
	ProducerRejected prometheus.Counter
	ProducerActive   prometheus.Gauge
	ChunksReceived   prometheus.Counter
	BytesReceived    prometheus.Counter
	ChunksIgnored    prometheus.Counter
	BufferedBytes    prometheus.Gauge

	// Listener metrics
	Listeners       prometheus.Gauge
	ListenerDrops   prometheus.Counter
	ListenersPruned prometheus.Counter

	// Snapshot metrics
	SnapshotsWritten prometheus.Counter
	SnapshotErrors   prometheus.Counter
	SnapshotBytes    prometheus.Gauge
	SnapshotDuration prometheus.Histogram

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the relay metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ProducerSessions: f.NewCounter(prometheus.CounterOpts{
			Name: "pcm_relay_producer_sessions_total",
			Help: "Total number of accepted producer sessions",
		}),
		ProducerRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "pcm_relay_producer_rejected_total",
			Help: "Total number of producer connections rejected because one was already live",
		}),
		ProducerActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "pcm_relay_producer_active",
			Help: "1 while a producer session is live",
		}),
		ChunksReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "pcm_relay_chunks_received_total",
			Help: "Total number of audio chunks received from producers",
		}),
		BytesReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "pcm_relay_bytes_received_total",
			Help: "Total number of PCM bytes received from producers",
		}),
		ChunksIgnored: f.NewCounter(prometheus.CounterOpts{
			Name: "pcm_relay_chunks_ignored_total",
			Help: "Total number of producer messages ignored (empty or non-binary)",
		}),
		BufferedBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "pcm_relay_buffered_bytes",
			Help: "Bytes currently held in the rolling window",
		}),
		Listeners: f.NewGauge(prometheus.GaugeOpts{
			Name: "pcm_relay_listeners",
			Help: "Current number of registered listeners",
		}),
		ListenerDrops: f.NewCounter(prometheus.CounterOpts{
			Name: "pcm_relay_listener_drops_total",
			Help: "Total number of chunks skipped for a busy listener",
		}),
		ListenersPruned: f.NewCounter(prometheus.CounterOpts{
			Name: "pcm_relay_listeners_pruned_total",
			Help: "Total number of listeners removed during broadcast because they were closed",
		}),
		SnapshotsWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "pcm_relay_snapshots_written_total",
			Help: "Total number of snapshots persisted",
		}),
		SnapshotErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "pcm_relay_snapshot_errors_total",
			Help: "Total number of snapshot persistence failures",
		}),
		SnapshotBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "pcm_relay_snapshot_bytes",
			Help: "Size of the last persisted snapshot including header",
		}),
		SnapshotDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pcm_relay_snapshot_write_duration_seconds",
			Help:    "Time spent encoding and persisting a snapshot",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pcm_relay_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pcm_relay_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordProducerConnect records an accepted or rejected producer
func (m *Metrics) RecordProducerConnect(accepted bool) {
	if m == nil {
		return
	}
	if !accepted {
		m.ProducerRejected.Inc()
		return
	}
	m.ProducerSessions.Inc()
	m.ProducerActive.Set(1)
}

// RecordProducerDisconnect clears the active producer gauge
func (m *Metrics) RecordProducerDisconnect() {
	if m == nil {
		return
	}
	m.ProducerActive.Set(0)
}

// RecordChunk records one relayed chunk and the resulting window size
func (m *Metrics) RecordChunk(size, buffered int) {
	if m == nil {
		return
	}
	m.ChunksReceived.Inc()
	m.BytesReceived.Add(float64(size))
	m.BufferedBytes.Set(float64(buffered))
}

// RecordIgnored records a producer message that caused no state change
func (m *Metrics) RecordIgnored() {
	if m == nil {
		return
	}
	m.ChunksIgnored.Inc()
}

// RecordBroadcast records the outcome of one fan-out
func (m *Metrics) RecordBroadcast(busy, pruned, remaining int) {
	if m == nil {
		return
	}
	m.ListenerDrops.Add(float64(busy))
	m.ListenersPruned.Add(float64(pruned))
	m.Listeners.Set(float64(remaining))
}

// SetListeners sets the current listener count
func (m *Metrics) SetListeners(count int) {
	if m == nil {
		return
	}
	m.Listeners.Set(float64(count))
}

// RecordSnapshot records a persistence attempt
func (m *Metrics) RecordSnapshot(size int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.SnapshotDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.SnapshotErrors.Inc()
		return
	}
	m.SnapshotsWritten.Inc()
	m.SnapshotBytes.Set(float64(size))
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
