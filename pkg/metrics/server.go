package metrics

import (
	"time"
)

// ServerMetrics provides observability for the inbound ISO 8583 server.
//
// The connection lifecycle methods match what the shared TCP adapter
// expects, so a ServerMetrics value can be plugged straight into it.
// This interface is optional - pass nil to disable metrics collection
// with zero overhead.
type ServerMetrics interface {
	// RecordRequest records a completed inbound request.
	//
	// Parameters:
	//   - mti: request message type indicator
	//   - duration: time from decode to response write
	//   - responseCode: field 39 of the reply (e.g., "00", "96")
	RecordRequest(mti string, duration time.Duration, responseCode string)

	// RecordRequestStart increments the in-flight request counter.
	RecordRequestStart(mti string)

	// RecordRequestEnd decrements the in-flight request counter.
	RecordRequestEnd(mti string)

	// RecordDroppedMessage increments the counter of inbound messages
	// dropped because they failed field decode.
	RecordDroppedMessage()

	// RecordWorkflowExpired increments the counter of deferred responses
	// that timed out waiting on the workflow engine.
	RecordWorkflowExpired()

	// SetActiveConnections updates the current connection count.
	SetActiveConnections(count int32)

	// RecordConnectionAccepted increments the total accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the total closed connections counter.
	RecordConnectionClosed()

	// RecordConnectionForceClosed increments the force-closed connections counter.
	// Called when connections are forcibly closed after shutdown timeout.
	RecordConnectionForceClosed()
}
