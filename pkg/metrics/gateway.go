package metrics

import (
	"time"
)

// GatewayMetrics provides observability for the dual-channel gateway.
//
// Implementations collect metrics about outbound requests, correlation
// outcomes, channel health, and the sign-on session. This interface is
// optional - pass nil to disable metrics collection with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	gm := prometheus.NewGatewayMetrics()
//	gw := gateway.New(cfg, codec, gateway.WithMetrics(gm))
//
//	// Without metrics (pass nil for zero overhead)
//	gw := gateway.New(cfg, codec)
type GatewayMetrics interface {
	// RecordRequest records a completed SendAndReceive round trip.
	//
	// Parameters:
	//   - mti: request message type indicator (e.g., "0200", "0800")
	//   - duration: time from write to completion
	//   - outcome: "matched", "timeout", "cancelled", or "failed"
	RecordRequest(mti string, duration time.Duration, outcome string)

	// RecordSent increments the counter of frames written to the send channel.
	RecordSent(mti string)

	// RecordReceived increments the counter of frames read from the receive
	// channel.
	RecordReceived(mti string)

	// RecordUnsolicited increments the counter of received messages that
	// matched no pending request.
	RecordUnsolicited()

	// SetPending updates the gauge of outstanding requests in the registry.
	SetPending(count int)

	// SetPairState records the current dual-channel pair state.
	SetPairState(state string)

	// RecordReconnect increments the reconnect counter for a channel
	// ("send" or "receive").
	RecordReconnect(channel string)

	// RecordHeartbeat records an echo round trip and whether it succeeded.
	RecordHeartbeat(success bool)
}

// RecordGatewayRequest records a round trip on an optional metrics sink.
func RecordGatewayRequest(m GatewayMetrics, mti string, duration time.Duration, outcome string) {
	if m != nil {
		m.RecordRequest(mti, duration, outcome)
	}
}
