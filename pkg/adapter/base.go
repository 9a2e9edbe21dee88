package adapter

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nilm987521/gofep/internal/events"
	"github.com/nilm987521/gofep/internal/logger"
)

// ConnectionHandler is one protocol session on an accepted connection.
// Serve blocks until the peer disconnects or the context is cancelled.
type ConnectionHandler interface {
	Serve(ctx context.Context)
}

// ConnectionFactory builds protocol sessions for accepted connections.
// Protocol packages implement this and hand themselves to
// BaseAdapter.ServeWithFactory.
type ConnectionFactory interface {
	NewConnection(conn net.Conn) ConnectionHandler
}

// BaseConfig holds the transport settings shared by every channel listener.
type BaseConfig struct {
	// BindAddress is the interface to bind; empty or "0.0.0.0" means all.
	BindAddress string

	// Port is the TCP port to listen on.
	Port int

	// MaxConnections bounds concurrent sessions. Zero means unlimited.
	MaxConnections int

	// ShutdownTimeout is how long graceful shutdown waits for active
	// sessions before force-closing them.
	ShutdownTimeout time.Duration

	// MetricsLogInterval is the period for the session-count log line.
	// Zero disables it.
	MetricsLogInterval time.Duration
}

// MetricsRecorder receives connection lifecycle counts. ServerMetrics from
// pkg/metrics satisfies it; nil disables collection.
type MetricsRecorder interface {
	RecordConnectionAccepted()
	RecordConnectionClosed()
	RecordConnectionForceClosed()
	SetActiveConnections(count int32)
}

// OnConnectionClose runs when a session goroutine finishes, before the
// WaitGroup and semaphore are released. Protocol packages use it to drop
// per-session state.
type OnConnectionClose func(addr string)

// BaseAdapter is the shared TCP lifecycle under every channel listener.
//
// Protocol adapters embed it and delegate listener management, session
// tracking, bounded concurrency and shutdown. All exported methods are safe
// for concurrent use; shutdown is idempotent.
type BaseAdapter struct {
	// Config holds the shared transport settings.
	Config BaseConfig

	// protocolName labels log lines and events, e.g. "ISO8583".
	protocolName string

	// Metrics optionally counts connection lifecycle events.
	Metrics MetricsRecorder

	// Events optionally publishes session open/close events.
	Events *events.Bus

	// listener accepts inbound connections; closed on shutdown.
	listener   net.Listener
	listenerMu sync.RWMutex

	// activeConns tracks session goroutines for graceful drain.
	activeConns sync.WaitGroup

	shutdownOnce sync.Once

	// Shutdown is closed when shutdown starts; the accept loop watches it.
	Shutdown chan struct{}

	// ConnCount is the live session count.
	ConnCount atomic.Int32

	// connSemaphore bounds concurrent sessions when MaxConnections > 0.
	connSemaphore chan struct{}

	// ShutdownCtx is cancelled on shutdown so in-flight requests abort.
	ShutdownCtx    context.Context
	CancelRequests context.CancelFunc

	// ActiveConnections maps remote address to net.Conn for forced close.
	ActiveConnections sync.Map

	// ListenerReady is closed once the listener accepts; tests block on it.
	ListenerReady chan struct{}
}

// NewBaseAdapter builds a stopped adapter. Call ServeWithFactory to start.
func NewBaseAdapter(config BaseConfig, protocol string) *BaseAdapter {
	var connSemaphore chan struct{}
	if config.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, config.MaxConnections)
	}
	logger.Debug(protocol+" session limit", "max_connections", config.MaxConnections)

	shutdownCtx, cancelRequests := context.WithCancel(context.Background())
	return &BaseAdapter{
		Config:         config,
		protocolName:   protocol,
		Shutdown:       make(chan struct{}),
		connSemaphore:  connSemaphore,
		ShutdownCtx:    shutdownCtx,
		CancelRequests: cancelRequests,
		ListenerReady:  make(chan struct{}),
	}
}

// ServeWithFactory runs the accept loop, building one session per
// connection through factory.
//
// preAccept, when non-nil, runs after the TCP accept and may veto the
// connection. onClose, when non-nil, runs as each session goroutine exits.
// Returns nil on graceful shutdown, an error when the listener cannot start
// or sessions had to be force-closed.
func (b *BaseAdapter) ServeWithFactory(
	ctx context.Context,
	factory ConnectionFactory,
	preAccept func(net.Conn) bool,
	onClose OnConnectionClose,
) error {
	listenAddr := fmt.Sprintf("%s:%d", b.Config.BindAddress, b.Config.Port)
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen %s on %s: %w", b.protocolName, listenAddr, err)
	}

	b.listenerMu.Lock()
	b.listener = listener
	b.listenerMu.Unlock()
	close(b.ListenerReady)

	logger.Info(b.protocolName+" server listening", "address", listener.Addr().String())

	go func() {
		<-ctx.Done()
		logger.Info(b.protocolName+" shutdown signal received", "error", ctx.Err())
		b.initiateShutdown()
	}()

	if b.Config.MetricsLogInterval > 0 {
		go b.logMetrics(ctx)
	}

	for {
		if b.connSemaphore != nil {
			select {
			case b.connSemaphore <- struct{}{}:
			case <-b.Shutdown:
				return b.gracefulShutdown()
			}
		}

		tcpConn, err := b.listener.Accept()
		if err != nil {
			if b.connSemaphore != nil {
				<-b.connSemaphore
			}
			select {
			case <-b.Shutdown:
				return b.gracefulShutdown()
			default:
				logger.Debug("accept failed on "+b.protocolName+" listener", "error", err)
				continue
			}
		}

		if tcp, ok := tcpConn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				logger.Debug("failed to set TCP_NODELAY", "error", err)
			}
		}

		if preAccept != nil && !preAccept(tcpConn) {
			_ = tcpConn.Close()
			if b.connSemaphore != nil {
				<-b.connSemaphore
			}
			continue
		}

		b.activeConns.Add(1)
		active := b.ConnCount.Add(1)

		connAddr := tcpConn.RemoteAddr().String()
		b.ActiveConnections.Store(connAddr, tcpConn)

		if b.Metrics != nil {
			b.Metrics.RecordConnectionAccepted()
			b.Metrics.SetActiveConnections(active)
		}
		b.emitSession(connAddr, "open", active)
		logger.Debug(b.protocolName+" connection accepted", "client", connAddr, "active", active)

		conn := factory.NewConnection(tcpConn)

		go func(addr string) {
			defer func() {
				if onClose != nil {
					onClose(addr)
				}
				b.ActiveConnections.Delete(addr)
				b.activeConns.Done()
				remaining := b.ConnCount.Add(-1)
				if b.connSemaphore != nil {
					<-b.connSemaphore
				}
				if b.Metrics != nil {
					b.Metrics.RecordConnectionClosed()
					b.Metrics.SetActiveConnections(remaining)
				}
				b.emitSession(addr, "close", remaining)
				logger.Debug(b.protocolName+" connection closed", "client", addr, "active", remaining)
			}()

			conn.Serve(b.ShutdownCtx)
		}(connAddr)
	}
}

func (b *BaseAdapter) emitSession(addr, phase string, active int32) {
	if b.Events == nil {
		return
	}
	b.Events.Emit(events.TypeServerSession, "adapter", map[string]any{
		"protocol": b.protocolName,
		"client":   addr,
		"phase":    phase,
		"active":   active,
	})
}

// initiateShutdown stops the accept loop, closes the listener, unblocks
// pending reads and cancels in-flight requests. Safe to call repeatedly.
func (b *BaseAdapter) initiateShutdown() {
	b.shutdownOnce.Do(func() {
		logger.Debug(b.protocolName + " shutdown initiated")

		close(b.Shutdown)

		b.listenerMu.Lock()
		if b.listener != nil {
			if err := b.listener.Close(); err != nil {
				logger.Debug("error closing "+b.protocolName+" listener", "error", err)
			}
		}
		b.listenerMu.Unlock()

		b.interruptBlockingReads()
		b.CancelRequests()
	})
}

// interruptBlockingReads puts a near-term read deadline on every session so
// reads parked on idle connections notice the shutdown.
func (b *BaseAdapter) interruptBlockingReads() {
	deadline := time.Now().Add(100 * time.Millisecond)
	b.ActiveConnections.Range(func(key, value any) bool {
		if conn, ok := value.(net.Conn); ok {
			if err := conn.SetReadDeadline(deadline); err != nil {
				logger.Debug("error setting shutdown deadline", "client", key, "error", err)
			}
		}
		return true
	})
}

// gracefulShutdown waits for sessions up to ShutdownTimeout, then
// force-closes the rest.
func (b *BaseAdapter) gracefulShutdown() error {
	active := b.ConnCount.Load()
	logger.Info(b.protocolName+" graceful shutdown: draining sessions",
		"active", active, "timeout", b.Config.ShutdownTimeout)

	done := make(chan struct{})
	go func() {
		b.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info(b.protocolName + " graceful shutdown complete")
		return nil

	case <-time.After(b.Config.ShutdownTimeout):
		remaining := b.ConnCount.Load()
		logger.Warn(b.protocolName+" shutdown timeout exceeded, forcing closure",
			"active", remaining, "timeout", b.Config.ShutdownTimeout)
		b.forceCloseConnections()
		return fmt.Errorf("%s shutdown timeout: %d sessions force-closed", b.protocolName, remaining)
	}
}

func (b *BaseAdapter) forceCloseConnections() {
	closed := 0
	b.ActiveConnections.Range(func(key, value any) bool {
		addr := key.(string)
		conn := value.(net.Conn)
		if err := conn.Close(); err != nil {
			logger.Debug("error force-closing session", "client", addr, "error", err)
		} else {
			closed++
			if b.Metrics != nil {
				b.Metrics.RecordConnectionForceClosed()
			}
		}
		return true
	})
	if closed > 0 {
		logger.Info("force-closed sessions", "count", closed)
	}
}

// Stop initiates shutdown and waits for active sessions. With a nil ctx the
// configured ShutdownTimeout applies; otherwise the context bounds the wait.
func (b *BaseAdapter) Stop(ctx context.Context) error {
	b.initiateShutdown()

	if ctx == nil {
		return b.gracefulShutdown()
	}

	done := make(chan struct{})
	go func() {
		b.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info(b.protocolName + " graceful shutdown complete")
		return nil
	case <-ctx.Done():
		remaining := b.ConnCount.Load()
		logger.Warn(b.protocolName+" shutdown context expired",
			"active", remaining, "error", ctx.Err())
		b.forceCloseConnections()
		return ctx.Err()
	}
}

func (b *BaseAdapter) logMetrics(ctx context.Context) {
	ticker := time.NewTicker(b.Config.MetricsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info(b.protocolName+" sessions", "active", b.ConnCount.Load())
		}
	}
}

// GetActiveConnections returns the live session count.
func (b *BaseAdapter) GetActiveConnections() int32 {
	return b.ConnCount.Load()
}

// GetListenerAddr returns the bound address, blocking until the listener is
// up. Tests use it to learn the ephemeral port.
func (b *BaseAdapter) GetListenerAddr() string {
	<-b.ListenerReady

	b.listenerMu.RLock()
	defer b.listenerMu.RUnlock()
	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}

// Port returns the configured TCP port.
func (b *BaseAdapter) Port() int {
	return b.Config.Port
}

// Protocol returns the channel protocol label.
func (b *BaseAdapter) Protocol() string {
	return b.protocolName
}
