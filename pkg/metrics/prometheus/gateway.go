package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nilm987521/gofep/pkg/metrics"
)

// gatewayMetrics is the Prometheus implementation of metrics.GatewayMetrics.
type gatewayMetrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	framesSent      *prometheus.CounterVec
	framesReceived  *prometheus.CounterVec
	unsolicited     prometheus.Counter
	pending         prometheus.Gauge
	pairState       *prometheus.GaugeVec
	reconnects      *prometheus.CounterVec
	heartbeats      *prometheus.CounterVec
}

// NewGatewayMetrics creates a new Prometheus-backed GatewayMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewGatewayMetrics() metrics.GatewayMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &gatewayMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofep_gateway_requests_total",
				Help: "Total number of SendAndReceive round trips by MTI and outcome",
			},
			[]string{"mti", "outcome"}, // outcome: "matched", "timeout", "cancelled", "failed"
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "gofep_gateway_request_duration_milliseconds",
				Help: "Round-trip duration from write to completion in milliseconds",
				Buckets: []float64{
					1,    // 1ms - loopback simulators
					5,    // 5ms
					10,   // 10ms
					25,   // 25ms
					50,   // 50ms - typical interbank latency
					100,  // 100ms
					250,  // 250ms
					500,  // 500ms
					1000, // 1s - approaching timeout territory
					5000, // 5s
				},
			},
			[]string{"mti"},
		),
		framesSent: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofep_gateway_frames_sent_total",
				Help: "Total number of frames written to the send channel by MTI",
			},
			[]string{"mti"},
		),
		framesReceived: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofep_gateway_frames_received_total",
				Help: "Total number of frames read from the receive channel by MTI",
			},
			[]string{"mti"},
		),
		unsolicited: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "gofep_gateway_unsolicited_total",
				Help: "Total number of received messages matching no pending request",
			},
		),
		pending: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "gofep_gateway_pending_requests",
				Help: "Current number of outstanding requests in the pending registry",
			},
		),
		pairState: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gofep_gateway_pair_state",
				Help: "Dual-channel pair state (1 for the active state, 0 otherwise)",
			},
			[]string{"state"},
		),
		reconnects: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofep_gateway_reconnects_total",
				Help: "Total number of reconnect attempts by channel",
			},
			[]string{"channel"}, // "send", "receive"
		),
		heartbeats: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofep_gateway_heartbeats_total",
				Help: "Total number of echo round trips by result",
			},
			[]string{"result"}, // "ok", "missed"
		),
	}
}

func (m *gatewayMetrics) RecordRequest(mti string, duration time.Duration, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(mti, outcome).Inc()
	m.requestDuration.WithLabelValues(mti).Observe(duration.Seconds() * 1000)
}

func (m *gatewayMetrics) RecordSent(mti string) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(mti).Inc()
}

func (m *gatewayMetrics) RecordReceived(mti string) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(mti).Inc()
}

func (m *gatewayMetrics) RecordUnsolicited() {
	if m == nil {
		return
	}
	m.unsolicited.Inc()
}

func (m *gatewayMetrics) SetPending(count int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(count))
}

// pairStates enumerates the states tracked by SetPairState so stale states
// can be zeroed when the pair transitions.
var pairStates = []string{
	"DISCONNECTED",
	"SEND_ONLY",
	"RECEIVE_ONLY",
	"BOTH_CONNECTED",
	"SIGNED_ON",
	"DEGRADED",
	"FAILED",
}

func (m *gatewayMetrics) SetPairState(state string) {
	if m == nil {
		return
	}
	for _, s := range pairStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		m.pairState.WithLabelValues(s).Set(v)
	}
}

func (m *gatewayMetrics) RecordReconnect(channel string) {
	if m == nil {
		return
	}
	m.reconnects.WithLabelValues(channel).Inc()
}

func (m *gatewayMetrics) RecordHeartbeat(success bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !success {
		result = "missed"
	}
	m.heartbeats.WithLabelValues(result).Inc()
}
