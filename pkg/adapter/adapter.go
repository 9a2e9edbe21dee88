// Package adapter owns the transport side of inbound channel traffic.
//
// BaseAdapter runs the shared TCP lifecycle: listener, per-connection
// goroutines, bounded concurrent sessions, connection tracking and graceful
// shutdown. Protocol sessions plug in through ConnectionFactory; the ISO
// 8583 session lives in the iso subpackage.
package adapter

import "context"

// Adapter is one inbound listener as the daemon manages it.
//
// Lifecycle: create with protocol-specific configuration, Serve blocks
// until the context is cancelled or startup fails, Stop forces shutdown
// from another goroutine. Stop may be called concurrently with Serve and
// more than once.
type Adapter interface {
	// Serve starts the listener and blocks. On context cancellation it
	// stops accepting, drains active sessions up to the configured
	// timeout, then force-closes what remains.
	//
	// Returns nil on graceful shutdown, an error when startup fails or
	// sessions had to be force-closed.
	Serve(ctx context.Context) error

	// Stop initiates graceful shutdown and waits for active sessions up
	// to the context deadline.
	Stop(ctx context.Context) error

	// Protocol names the channel protocol for logs and metrics.
	Protocol() string

	// Port returns the listening TCP port.
	Port() int
}
