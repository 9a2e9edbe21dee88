package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for ISO 8583 processing.
// These follow OpenTelemetry semantic conventions where applicable.
// Message-level keys use the "iso." prefix, transport-level keys use
// "channel." and "gateway.".
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"
	AttrClientPort = "client.port"

	// ========================================================================
	// ISO 8583 message attributes
	// ========================================================================
	AttrMTI          = "iso.mti"           // Message type indicator
	AttrStan         = "iso.stan"          // System trace audit number (field 11)
	AttrProvider     = "iso.provider"      // Field table provider
	AttrResponseCode = "iso.response_code" // Field 39
	AttrNetMgmtCode  = "iso.netmgmt_code"  // Field 70
	AttrAuthCode     = "iso.auth_code"     // Field 38
	AttrFieldCount   = "iso.field_count"   // Number of fields present
	AttrFrameBytes   = "iso.frame_bytes"   // Encoded frame size including the length header

	// ========================================================================
	// Channel and gateway attributes
	// ========================================================================
	AttrChannel      = "channel.name"     // send, receive, or inbound channel id
	AttrChannelState = "channel.state"    // CONNECTED, DISCONNECTED, ...
	AttrPairState    = "gateway.state"    // Connection pair state
	AttrPending      = "gateway.pending"  // Outstanding requests at span start
	AttrAttempt      = "gateway.attempt"  // Reconnect attempt number
	AttrRemoteHost   = "gateway.remote"   // Remote endpoint host:port
	AttrSessionID    = "server.session"   // Inbound session identifier
	AttrWorkflowID   = "server.workflow"  // Deferred response workflow id
	AttrEventType    = "event.type"       // Event bus event type
)

// Span names for operations.
// Format: <component>.<operation>
const (
	// Gateway spans
	SpanGatewaySend      = "gateway.send_receive"
	SpanGatewaySignOn    = "gateway.sign_on"
	SpanGatewaySignOff   = "gateway.sign_off"
	SpanGatewayEcho      = "gateway.echo"
	SpanGatewayKeyXchg   = "gateway.key_exchange"
	SpanGatewayConnect   = "gateway.connect"
	SpanGatewayReconnect = "gateway.reconnect"

	// Inbound server spans
	SpanServerRequest  = "server.request"
	SpanServerRespond  = "server.respond"
	SpanServerWorkflow = "server.workflow"

	// Codec spans
	SpanCodecEncode = "codec.encode"
	SpanCodecDecode = "codec.decode"

	// Field table spans
	SpanTableLoad   = "table.load"
	SpanTableReload = "table.reload"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// MTI returns an attribute for the message type indicator
func MTI(mti string) attribute.KeyValue {
	return attribute.String(AttrMTI, mti)
}

// Stan returns an attribute for the system trace audit number
func Stan(stan string) attribute.KeyValue {
	return attribute.String(AttrStan, stan)
}

// Provider returns an attribute for the field table provider
func Provider(name string) attribute.KeyValue {
	return attribute.String(AttrProvider, name)
}

// ResponseCode returns an attribute for field 39
func ResponseCode(code string) attribute.KeyValue {
	return attribute.String(AttrResponseCode, code)
}

// NetMgmtCode returns an attribute for field 70
func NetMgmtCode(code string) attribute.KeyValue {
	return attribute.String(AttrNetMgmtCode, code)
}

// FieldCount returns an attribute for the number of fields in a message
func FieldCount(n int) attribute.KeyValue {
	return attribute.Int(AttrFieldCount, n)
}

// FrameBytes returns an attribute for the encoded frame size
func FrameBytes(n int) attribute.KeyValue {
	return attribute.Int(AttrFrameBytes, n)
}

// Channel returns an attribute for the channel name
func Channel(name string) attribute.KeyValue {
	return attribute.String(AttrChannel, name)
}

// ChannelState returns an attribute for a channel state
func ChannelState(state string) attribute.KeyValue {
	return attribute.String(AttrChannelState, state)
}

// PairState returns an attribute for the connection pair state
func PairState(state string) attribute.KeyValue {
	return attribute.String(AttrPairState, state)
}

// Pending returns an attribute for the outstanding request count
func Pending(n int) attribute.KeyValue {
	return attribute.Int(AttrPending, n)
}

// Attempt returns an attribute for a reconnect attempt number
func Attempt(n int) attribute.KeyValue {
	return attribute.Int(AttrAttempt, n)
}

// RemoteHost returns an attribute for the remote endpoint
func RemoteHost(addr string) attribute.KeyValue {
	return attribute.String(AttrRemoteHost, addr)
}

// SessionID returns an attribute for an inbound session identifier
func SessionID(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

// WorkflowID returns an attribute for a deferred-response workflow id
func WorkflowID(id string) attribute.KeyValue {
	return attribute.String(AttrWorkflowID, id)
}

// EventType returns an attribute for an event bus event type
func EventType(t string) attribute.KeyValue {
	return attribute.String(AttrEventType, t)
}

// StartMessageSpan starts a span for processing a single ISO 8583 message.
// The MTI and STAN are attached so traces can be joined with log lines.
func StartMessageSpan(ctx context.Context, name, mti, stan string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		MTI(mti),
	}
	if stan != "" {
		allAttrs = append(allAttrs, Stan(stan))
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartGatewaySpan starts a span for a gateway operation against the remote
// institution.
func StartGatewaySpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "gateway."+operation, trace.WithAttributes(attrs...))
}

// StartCodecSpan starts a span for an encode or decode of a wire frame.
func StartCodecSpan(ctx context.Context, operation, provider string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Provider(provider),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "codec."+operation, trace.WithAttributes(allAttrs...))
}
