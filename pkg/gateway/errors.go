package gateway

import "errors"

// Sentinel errors returned by the gateway. Callers distinguish them with
// errors.Is; protocol-level failures surface as iso8583.ProtocolError or
// iso8583.FieldError and are matched with errors.As.
var (
	// ErrTimeout resolves a pending call whose deadline expired before a
	// response arrived. The request may still be processed by the host; a
	// late response is counted as unsolicited.
	ErrTimeout = errors.New("gateway: response timeout")

	// ErrConnectionDown rejects a send while the channel pair cannot carry
	// traffic under the configured failure policy.
	ErrConnectionDown = errors.New("gateway: connection down")

	// ErrOverloaded rejects a send while the in-flight window is full.
	ErrOverloaded = errors.New("gateway: in-flight window full")

	// ErrDuplicateKey rejects a registration whose trace collides with a
	// pending call, or a send whose explicit field 11 does.
	ErrDuplicateKey = errors.New("gateway: duplicate trace")

	// ErrShutdown resolves pending calls cancelled by Close and rejects
	// operations on a closed gateway.
	ErrShutdown = errors.New("gateway: shut down")
)
