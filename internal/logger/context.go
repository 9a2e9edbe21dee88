package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	Channel   string    // Channel name (send, receive, or inbound channel id)
	Session   string    // Inbound session identifier
	ClientIP  string    // Peer IP address (without port)
	MTI       string    // Message type indicator of the message in flight
	Stan      string    // System trace audit number (field 11)
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext with the given peer IP
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	cp := *lc
	return &cp
}

// WithChannel returns a copy with the channel name set
func (lc *LogContext) WithChannel(channel string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Channel = channel
	}
	return clone
}

// WithSession returns a copy with the session id set
func (lc *LogContext) WithSession(session string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Session = session
	}
	return clone
}

// WithMessage returns a copy annotated with the message in flight
func (lc *LogContext) WithMessage(mti, stan string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.MTI = mti
		clone.Stan = stan
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
