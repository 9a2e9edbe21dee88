package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nilm987521/gofep/pkg/metrics"
)

// serverMetrics is the Prometheus implementation of metrics.ServerMetrics.
type serverMetrics struct {
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	inflight          *prometheus.GaugeVec
	dropped           prometheus.Counter
	workflowExpired   prometheus.Counter
	activeConnections prometheus.Gauge
	connAccepted      prometheus.Counter
	connClosed        prometheus.Counter
	connForceClosed   prometheus.Counter
}

// NewServerMetrics creates a new Prometheus-backed ServerMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewServerMetrics() metrics.ServerMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &serverMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofep_server_requests_total",
				Help: "Total number of inbound requests by MTI and response code",
			},
			[]string{"mti", "response_code"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "gofep_server_request_duration_milliseconds",
				Help: "Time from decode to response write in milliseconds",
				Buckets: []float64{
					1,    // 1ms
					5,    // 5ms
					10,   // 10ms
					25,   // 25ms
					50,   // 50ms
					100,  // 100ms
					250,  // 250ms
					500,  // 500ms
					1000, // 1s
					5000, // 5s - workflow TTL territory
				},
			},
			[]string{"mti"},
		),
		inflight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gofep_server_inflight_requests",
				Help: "Current number of requests being processed by MTI",
			},
			[]string{"mti"},
		),
		dropped: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "gofep_server_dropped_messages_total",
				Help: "Total number of inbound messages dropped after a field decode failure",
			},
		),
		workflowExpired: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "gofep_server_workflow_expired_total",
				Help: "Total number of deferred responses that timed out waiting on the workflow engine",
			},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "gofep_server_active_connections",
				Help: "Current number of active channel connections",
			},
		),
		connAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "gofep_server_connections_accepted_total",
				Help: "Total number of accepted channel connections",
			},
		),
		connClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "gofep_server_connections_closed_total",
				Help: "Total number of closed channel connections",
			},
		),
		connForceClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "gofep_server_connections_force_closed_total",
				Help: "Total number of connections force-closed after shutdown timeout",
			},
		),
	}
}

func (m *serverMetrics) RecordRequest(mti string, duration time.Duration, responseCode string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(mti, responseCode).Inc()
	m.requestDuration.WithLabelValues(mti).Observe(duration.Seconds() * 1000)
}

func (m *serverMetrics) RecordRequestStart(mti string) {
	if m == nil {
		return
	}
	m.inflight.WithLabelValues(mti).Inc()
}

func (m *serverMetrics) RecordRequestEnd(mti string) {
	if m == nil {
		return
	}
	m.inflight.WithLabelValues(mti).Dec()
}

func (m *serverMetrics) RecordDroppedMessage() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *serverMetrics) RecordWorkflowExpired() {
	if m == nil {
		return
	}
	m.workflowExpired.Inc()
}

func (m *serverMetrics) SetActiveConnections(count int32) {
	if m == nil {
		return
	}
	m.activeConnections.Set(float64(count))
}

func (m *serverMetrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.connAccepted.Inc()
}

func (m *serverMetrics) RecordConnectionClosed() {
	if m == nil {
		return
	}
	m.connClosed.Inc()
}

func (m *serverMetrics) RecordConnectionForceClosed() {
	if m == nil {
		return
	}
	m.connForceClosed.Inc()
}
