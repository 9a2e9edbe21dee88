package logger

import "log/slog"

// Standard field keys for structured logging. Use these keys consistently
// across all log statements so the gateway, the inbound server and the admin
// plane stay queryable with the same filters.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// ISO 8583 Message
	// ========================================================================
	KeyMTI          = "mti"           // Message type indicator
	KeyStan         = "stan"          // System trace audit number (field 11)
	KeyField        = "field"         // Field number inside a message
	KeyProvider     = "provider"      // Field table provider name
	KeyNetMgmtCode  = "netmgmt_code"  // Network management code (field 70)
	KeyResponseCode = "response_code" // Response code (field 39)

	// ========================================================================
	// Connection & Session
	// ========================================================================
	KeyChannel      = "channel"       // Channel name: send, receive, inbound channel id
	KeySessionID    = "session_id"    // Inbound session identifier
	KeyClientIP     = "client_ip"     // Peer IP address
	KeyRemoteAddr   = "remote_addr"   // Full remote address host:port
	KeyState        = "state"         // Connection or pair state
	KeyFromState    = "from_state"    // Previous state in a transition
	KeyToState      = "to_state"      // Next state in a transition

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs  = "duration_ms"  // Operation duration in milliseconds
	KeyError       = "error"        // Error message
	KeyAttempt     = "attempt"      // Retry attempt number
	KeyMaxAttempts = "max_attempts" // Retry budget
	KeyPending     = "pending"      // Outstanding requests
	KeyTimeoutMs   = "timeout_ms"   // Deadline for the operation
	KeyEventType   = "event_type"   // Event bus event type
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// MTI returns a slog.Attr for the message type indicator
func MTI(mti string) slog.Attr {
	return slog.String(KeyMTI, mti)
}

// Stan returns a slog.Attr for the system trace audit number
func Stan(stan string) slog.Attr {
	return slog.String(KeyStan, stan)
}

// Field returns a slog.Attr for an ISO 8583 field number
func Field(n int) slog.Attr {
	return slog.Int(KeyField, n)
}

// Provider returns a slog.Attr for a field table provider
func Provider(name string) slog.Attr {
	return slog.String(KeyProvider, name)
}

// ResponseCode returns a slog.Attr for field 39
func ResponseCode(code string) slog.Attr {
	return slog.String(KeyResponseCode, code)
}

// Channel returns a slog.Attr for the channel name
func Channel(name string) slog.Attr {
	return slog.String(KeyChannel, name)
}

// SessionID returns a slog.Attr for an inbound session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// ClientIP returns a slog.Attr for the peer IP
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// RemoteAddr returns a slog.Attr for the full remote address
func RemoteAddr(addr string) slog.Attr {
	return slog.String(KeyRemoteAddr, addr)
}

// State returns a slog.Attr for a connection or pair state
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Attempt returns a slog.Attr for a retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// Pending returns a slog.Attr for the outstanding request count
func Pending(n int) slog.Attr {
	return slog.Int(KeyPending, n)
}
