// Package gateway maintains the dual-channel link to the clearing host: a
// Send connection carrying requests one way and a Receive connection
// carrying responses back, correlated by the trace in field 11. The
// supervisor owns connection lifecycle, sign-on, heartbeats and reconnects;
// callers see one blocking SendAndReceive call.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/nilm987521/gofep/internal/events"
	"github.com/nilm987521/gofep/internal/logger"
	"github.com/nilm987521/gofep/internal/protocol/iso8583"
	"github.com/nilm987521/gofep/pkg/metrics"
)

const (
	defaultResponseTimeout = 30 * time.Second
	netMgmtTimeout         = 10 * time.Second
	echoTimeout            = 5 * time.Second
	closeSignOffTimeout    = 3 * time.Second
)

// Registry origins, for logs and pending-call diagnostics.
const (
	originAPI       = "api"
	originNetMgmt   = "netmgmt"
	originHeartbeat = "heartbeat"
)

// Config holds the dial and session parameters for one host link.
type Config struct {
	SendHost    string
	SendPort    int
	ReceiveHost string
	ReceivePort int

	// ConnectTimeout bounds each dial attempt.
	ConnectTimeout time.Duration

	// ReadTimeout is the Receive-leg staleness window: silence past it is
	// logged and surfaced in statistics without touching the connection.
	ReadTimeout time.Duration

	// HeartbeatInterval is the echo cadence on a quiet line; zero disables
	// heartbeats.
	HeartbeatInterval time.Duration

	// AutoReconnect enables the redial loop after a leg drops.
	AutoReconnect bool

	// ReconnectMaxAttempts caps dial attempts per outage; zero means
	// unlimited.
	ReconnectMaxAttempts int

	// FailureStrategy picks the pair behavior while one leg is down.
	FailureStrategy FailurePolicy

	// InstitutionID, when set, rides in field 32 of network management
	// messages.
	InstitutionID string

	// MaxInFlight bounds the pending-response window.
	MaxInFlight int
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = 1024
	}
	return c
}

// DialFunc opens one leg. Tests substitute in-memory pipes.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Option customizes a Gateway.
type Option func(*Gateway)

// WithMetrics attaches a metrics sink; nil disables collection.
func WithMetrics(m metrics.GatewayMetrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithEvents attaches the bus state changes and unsolicited messages are
// published on.
func WithEvents(bus *events.Bus) Option {
	return func(g *Gateway) { g.bus = bus }
}

// WithUnsolicitedHandler routes messages that matched no pending request.
func WithUnsolicitedHandler(h UnsolicitedHandler) Option {
	return func(g *Gateway) { g.unsolicited = h }
}

// WithDialer replaces the TCP dialer.
func WithDialer(dial DialFunc) Option {
	return func(g *Gateway) { g.dial = dial }
}

// Statistics is the point-in-time view served by the admin API.
type Statistics struct {
	State              string        `json:"state"`
	SignedOn           bool          `json:"signedOn"`
	MessagesSent       uint64        `json:"messagesSent"`
	MessagesReceived   uint64        `json:"messagesReceived"`
	Matched            uint64        `json:"matched"`
	Unsolicited        uint64        `json:"unsolicited"`
	SendConnected      bool          `json:"sendConnected"`
	ReceiveConnected   bool          `json:"receiveConnected"`
	SendReconnects     uint64        `json:"sendReconnects"`
	ReceiveReconnects  uint64        `json:"receiveReconnects"`
	ReceiveStaleEvents uint64        `json:"receiveStaleEvents"`
	Registry           RegistryStats `json:"registry"`
}

// Gateway supervises the channel pair. All methods are safe for concurrent
// use.
type Gateway struct {
	cfg     Config
	codec   *iso8583.Codec
	backoff backoffPolicy
	dial    DialFunc

	registry *Registry
	seq      traceSequence

	metrics     metrics.GatewayMetrics
	bus         *events.Bus
	unsolicited UnsolicitedHandler

	// runCtx scopes background work: reconnect loops and the heartbeat
	// runner. Close cancels it.
	runCtx    context.Context
	runCancel context.CancelFunc

	// signOnMu serializes sign-on and sign-off exchanges so a double
	// sign-on never produces a second wire exchange.
	signOnMu sync.Mutex

	mu         sync.Mutex
	send       *sendChannel
	receive    *receiveChannel
	state      PairState
	signedOn   bool
	hbDegraded bool
	failed     bool
	closed     bool
	hbCancel   context.CancelFunc
	listeners  []func(PairState)

	// Counter bases accumulate totals from replaced legs.
	sentBase          uint64
	recvBase          receiveStats
	sendReconnects    uint64
	receiveReconnects uint64
	staleEvents       uint64

	closeOnce sync.Once
}

// New builds a gateway over the given codec. Connect must be called before
// any traffic flows.
func New(cfg Config, codec *iso8583.Codec, opts ...Option) *Gateway {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Gateway{
		cfg:       cfg.withDefaults(),
		codec:     codec,
		backoff:   defaultBackoff,
		dial:      (&net.Dialer{}).DialContext,
		runCtx:    ctx,
		runCancel: cancel,
		state:     PairDisconnected,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.registry = NewRegistry(g.cfg.MaxInFlight, g.metrics)
	return g
}

// ============================================================================
// Connection lifecycle
// ============================================================================

// Connect opens both legs concurrently, each with backoff-limited retries.
// It returns nil once the pair can carry sends under the failure policy; a
// leg that missed its budget without being required keeps retrying in the
// background. Permanent failure of a required leg marks the gateway FAILED.
func (g *Gateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrShutdown
	}
	if g.failed {
		g.mu.Unlock()
		return fmt.Errorf("%w: gateway failed", ErrConnectionDown)
	}
	needSend, needRecv := g.send == nil, g.receive == nil
	g.mu.Unlock()

	if !needSend && !needRecv {
		return nil
	}

	logger.Info("connecting channel pair",
		"send", net.JoinHostPort(g.cfg.SendHost, strconv.Itoa(g.cfg.SendPort)),
		"receive", net.JoinHostPort(g.cfg.ReceiveHost, strconv.Itoa(g.cfg.ReceivePort)),
		"policy", g.cfg.FailureStrategy.String())

	var wg sync.WaitGroup
	var sendErr, recvErr error
	if needSend {
		wg.Add(1)
		go func() { defer wg.Done(); sendErr = g.connectLeg(ctx, ChannelSend) }()
	}
	if needRecv {
		wg.Add(1)
		go func() { defer wg.Done(); recvErr = g.connectLeg(ctx, ChannelReceive) }()
	}
	wg.Wait()

	g.mu.Lock()
	usable := !g.closed && !g.failed &&
		g.cfg.FailureStrategy.SendAllowed(g.sendStateLocked(), g.receiveStateLocked())
	g.mu.Unlock()

	if usable {
		if sendErr != nil {
			g.scheduleReconnect(ChannelSend)
		}
		if recvErr != nil {
			g.scheduleReconnect(ChannelReceive)
		}
		return nil
	}

	var cause error
	switch {
	case sendErr != nil && recvErr != nil:
		cause = fmt.Errorf("send: %v; receive: %v", sendErr, recvErr)
	case sendErr != nil:
		cause = sendErr
	case recvErr != nil:
		cause = recvErr
	default:
		cause = ErrShutdown
	}
	g.markFailed(cause, "connect failed")
	return fmt.Errorf("connect: %w", cause)
}

// connectLeg dials one leg until it is up, the attempt budget runs out or
// ctx is done.
func (g *Gateway) connectLeg(ctx context.Context, channel string) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if g.cfg.ReconnectMaxAttempts > 0 && attempt >= g.cfg.ReconnectMaxAttempts {
			return lastErr
		}
		if attempt > 0 {
			if err := g.backoff.wait(ctx, attempt-1); err != nil {
				if lastErr != nil {
					return lastErr
				}
				return err
			}
		}
		conn, err := g.dialLeg(ctx, channel)
		if err != nil {
			lastErr = err
			logger.Warn("dial failed", "channel", channel, "attempt", attempt+1, "error", err)
			if ctx.Err() != nil {
				return lastErr
			}
			continue
		}
		if !g.installLeg(channel, conn) {
			return ErrShutdown
		}
		logger.Info("channel connected", "channel", channel, "remote", conn.RemoteAddr().String())
		return nil
	}
}

func (g *Gateway) dialLeg(ctx context.Context, channel string) (net.Conn, error) {
	host, port := g.cfg.SendHost, g.cfg.SendPort
	if channel == ChannelReceive {
		host, port = g.cfg.ReceiveHost, g.cfg.ReceivePort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dialCtx, cancel := context.WithTimeout(ctx, g.cfg.ConnectTimeout)
	defer cancel()

	conn, err := g.dial(dialCtx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s channel %s: %w", channel, addr, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
		_ = tcp.SetKeepAlive(true)
	}
	return conn, nil
}

// installLeg wires a fresh connection into the pair. Returns false when the
// gateway closed or failed while the dial was in flight; the connection is
// closed in that case. A leg somehow still present is replaced and closed.
func (g *Gateway) installLeg(channel string, conn net.Conn) bool {
	var oldSend *sendChannel
	var oldReceive *receiveChannel

	g.mu.Lock()
	if g.closed || g.failed {
		g.mu.Unlock()
		_ = conn.Close()
		return false
	}

	switch channel {
	case ChannelSend:
		if oldSend = g.send; oldSend != nil {
			g.sentBase += oldSend.messagesSent()
		}
		var s *sendChannel
		s = newSendChannel(conn, g.codec, g.metrics, func(err error) { g.sendDown(s, err) })
		g.send = s
		s.start()

	case ChannelReceive:
		if oldReceive = g.receive; oldReceive != nil {
			g.accumulateReceiveLocked(oldReceive)
		}
		var r *receiveChannel
		r = newReceiveChannel(conn, g.codec, g.registry, g.routeUnsolicited,
			g.cfg.ReadTimeout, g.receiveStale, g.metrics,
			func(err error) { g.receiveDown(r, err) })
		g.receive = r
		r.start()
	}

	g.maintainHeartbeatLocked()
	g.mu.Unlock()

	if oldSend != nil {
		_ = oldSend.close()
	}
	if oldReceive != nil {
		_ = oldReceive.close()
	}
	g.refreshState(channel + " channel up")
	return true
}

// sendDown handles loss of the Send leg. Stale callbacks from a replaced
// channel are ignored by identity.
func (g *Gateway) sendDown(s *sendChannel, cause error) {
	g.mu.Lock()
	if g.send != s {
		g.mu.Unlock()
		return
	}
	g.send = nil
	g.sentBase += s.messagesSent()
	keep := g.cfg.FailureStrategy.KeepPending(ConnDown, g.receiveStateLocked())
	g.maintainHeartbeatLocked()
	g.mu.Unlock()

	logger.Warn("send channel down", "channel", ChannelSend, "error", cause)
	if !keep {
		if n := g.registry.CancelAll(ErrConnectionDown); n > 0 {
			logger.Warn("cancelled pending calls on disconnect",
				"count", n, "policy", g.cfg.FailureStrategy.String())
		}
	}
	g.refreshState("send channel down")
	g.scheduleReconnect(ChannelSend)
}

// receiveDown handles loss of the Receive leg. Responses for in-flight
// requests can no longer arrive, so pending calls are always cancelled.
func (g *Gateway) receiveDown(r *receiveChannel, cause error) {
	g.mu.Lock()
	if g.receive != r {
		g.mu.Unlock()
		return
	}
	g.receive = nil
	g.accumulateReceiveLocked(r)
	keep := g.cfg.FailureStrategy.KeepPending(g.sendStateLocked(), ConnDown)
	g.maintainHeartbeatLocked()
	g.mu.Unlock()

	logger.Warn("receive channel down", "channel", ChannelReceive, "error", cause)
	if !keep {
		if n := g.registry.CancelAll(ErrConnectionDown); n > 0 {
			logger.Warn("cancelled pending calls on disconnect",
				"count", n, "policy", g.cfg.FailureStrategy.String())
		}
	}
	g.refreshState("receive channel down")
	g.scheduleReconnect(ChannelReceive)
}

func (g *Gateway) scheduleReconnect(channel string) {
	g.mu.Lock()
	skip := g.closed || g.failed || !g.cfg.AutoReconnect
	g.mu.Unlock()
	if skip {
		return
	}
	go g.reconnectLoop(channel)
}

func (g *Gateway) reconnectLoop(channel string) {
	ctx := g.runCtx
	var lastErr error
	for attempt := 0; ; attempt++ {
		if g.cfg.ReconnectMaxAttempts > 0 && attempt >= g.cfg.ReconnectMaxAttempts {
			g.markFailed(lastErr, "reconnect budget exhausted on "+channel)
			return
		}
		if err := g.backoff.wait(ctx, attempt); err != nil {
			return
		}
		conn, err := g.dialLeg(ctx, channel)
		if err != nil {
			lastErr = err
			logger.Warn("reconnect attempt failed",
				"channel", channel, "attempt", attempt+1, "error", err)
			continue
		}
		if !g.installLeg(channel, conn) {
			return
		}
		g.noteReconnect(channel, attempt+1)
		return
	}
}

func (g *Gateway) noteReconnect(channel string, attempts int) {
	g.mu.Lock()
	if channel == ChannelSend {
		g.sendReconnects++
	} else {
		g.receiveReconnects++
	}
	g.mu.Unlock()

	if g.metrics != nil {
		g.metrics.RecordReconnect(channel)
	}
	logger.Info("channel reconnected", "channel", channel, "attempts", attempts)
}

// markFailed is the terminal path: a required leg is gone for good.
func (g *Gateway) markFailed(cause error, reason string) {
	g.mu.Lock()
	if g.closed || g.failed {
		g.mu.Unlock()
		return
	}
	g.failed = true
	send, receive := g.send, g.receive
	g.send, g.receive = nil, nil
	g.maintainHeartbeatLocked()
	g.mu.Unlock()

	logger.Error("gateway failed", "reason", reason, "error", cause)
	if send != nil {
		_ = send.close()
	}
	if receive != nil {
		_ = receive.close()
	}
	g.registry.CancelAll(ErrConnectionDown)
	g.refreshState(reason)
}

// Close signs off best-effort, cancels all pending calls with ErrShutdown
// and closes both legs. Idempotent; always returns nil.
func (g *Gateway) Close() error {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		canSignOff := g.signedOn && g.send != nil && g.receive != nil && !g.failed
		g.mu.Unlock()

		if canSignOff {
			ctx, cancel := context.WithTimeout(context.Background(), closeSignOffTimeout)
			if err := g.SignOff(ctx); err != nil {
				logger.Warn("sign-off on close failed", "error", err)
			}
			cancel()
		}

		g.mu.Lock()
		g.closed = true
		g.failed = false
		g.signedOn = false
		send, receive := g.send, g.receive
		g.send, g.receive = nil, nil
		if send != nil {
			g.sentBase += send.messagesSent()
		}
		if receive != nil {
			g.accumulateReceiveLocked(receive)
		}
		g.maintainHeartbeatLocked()
		g.mu.Unlock()

		g.runCancel()
		g.registry.Close(ErrShutdown)
		if send != nil {
			_ = send.close()
		}
		if receive != nil {
			_ = receive.close()
		}
		g.refreshState("closed")
		logger.Info("gateway closed")
	})
	return nil
}

// ============================================================================
// Traffic
// ============================================================================

// SendAndReceive writes msg on the Send leg and blocks until the matching
// response arrives on the Receive leg, the timeout expires or ctx is done.
// Field 11 is assigned from the trace sequence when absent; the assignment
// is visible to the caller for reversal correlation. A non-positive timeout
// uses the 30s default.
func (g *Gateway) SendAndReceive(ctx context.Context, msg *iso8583.Message, timeout time.Duration) (*iso8583.Message, error) {
	return g.exchange(ctx, msg, timeout, originAPI)
}

func (g *Gateway) exchange(ctx context.Context, msg *iso8583.Message, timeout time.Duration, origin string) (*iso8583.Message, error) {
	if timeout <= 0 {
		timeout = defaultResponseTimeout
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, ErrShutdown
	}
	if g.failed {
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: gateway failed", ErrConnectionDown)
	}
	send := g.send
	if !g.cfg.FailureStrategy.SendAllowed(g.sendStateLocked(), g.receiveStateLocked()) {
		state := g.state
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: pair %s under policy %s",
			ErrConnectionDown, state, g.cfg.FailureStrategy)
	}
	g.mu.Unlock()

	call, err := g.register(msg, timeout, origin)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := send.write(msg); err != nil {
		g.registry.Cancel(call.Key, err)
		g.recordRequest(msg.MTI(), start, "failed")
		return nil, err
	}

	resp, err := call.Wait(ctx)
	switch {
	case err == nil:
		g.recordRequest(msg.MTI(), start, "matched")
	case errors.Is(err, ErrTimeout):
		g.recordRequest(msg.MTI(), start, "timeout")
		logger.Warn("response timeout",
			"mti", msg.MTI(), "trace", call.Key, "timeout", timeout, "origin", origin)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		g.recordRequest(msg.MTI(), start, "cancelled")
	default:
		g.recordRequest(msg.MTI(), start, "failed")
	}
	return resp, err
}

// register creates the pending entry, assigning field 11 when absent. The
// collision scan after a sequence wrap is bounded by the window size: past
// that every candidate is a live trace and the caller must back off.
func (g *Gateway) register(msg *iso8583.Message, timeout time.Duration, origin string) (*PendingCall, error) {
	if trace, ok := msg.Field(iso8583.FieldTrace); ok {
		return g.registry.Register(trace, timeout, origin)
	}

	limit := g.cfg.MaxInFlight + 1
	var lastErr error
	for i := 0; i < limit; i++ {
		trace := g.seq.next()
		call, err := g.registry.Register(trace, timeout, origin)
		if err == nil {
			msg.SetField(iso8583.FieldTrace, trace)
			return call, nil
		}
		if !errors.Is(err, ErrDuplicateKey) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (g *Gateway) recordRequest(mti string, start time.Time, outcome string) {
	metrics.RecordGatewayRequest(g.metrics, mti, time.Since(start), outcome)
}

// routeUnsolicited publishes the event and forwards to the injected
// handler. Runs on the receive loop.
func (g *Gateway) routeUnsolicited(channel string, msg *iso8583.Message) {
	if g.bus != nil {
		g.bus.Emit(events.TypeGatewayUnsolicited, "gateway", map[string]any{
			"channel": channel,
			"mti":     msg.MTI(),
			"trace":   msg.FieldOr(iso8583.FieldTrace, ""),
		})
	}
	if g.unsolicited != nil {
		g.unsolicited(channel, msg)
		return
	}
	logger.Warn("dropping unsolicited message",
		"channel", channel, "mti", msg.MTI(),
		"trace", msg.FieldOr(iso8583.FieldTrace, ""))
}

func (g *Gateway) receiveStale(idle time.Duration) {
	g.mu.Lock()
	g.staleEvents++
	g.mu.Unlock()
}

// ============================================================================
// Network management
// ============================================================================

// SignOn performs the 0800/001 exchange and unlocks financial traffic.
// Idempotent: a second call while signed on returns without touching the
// wire.
func (g *Gateway) SignOn(ctx context.Context) error {
	g.signOnMu.Lock()
	defer g.signOnMu.Unlock()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrShutdown
	}
	if g.signedOn {
		g.mu.Unlock()
		logger.Debug("sign-on skipped, session already signed on")
		return nil
	}
	g.mu.Unlock()

	resp, err := g.netExchange(ctx, iso8583.NetMgmtSignOn, netMgmtTimeout)
	if err != nil {
		return err
	}
	if rc := resp.FieldOr(iso8583.FieldResponseCode, ""); rc != iso8583.RespApproved {
		return fmt.Errorf("sign-on declined with response code %q", rc)
	}

	g.mu.Lock()
	g.signedOn = true
	g.hbDegraded = false
	g.mu.Unlock()
	g.refreshState("signed on")
	logger.Info("signed on", "institution", g.cfg.InstitutionID)
	return nil
}

// SignOff performs the 0800/002 exchange. The pair stays connected.
func (g *Gateway) SignOff(ctx context.Context) error {
	g.signOnMu.Lock()
	defer g.signOnMu.Unlock()

	g.mu.Lock()
	if !g.signedOn {
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	resp, err := g.netExchange(ctx, iso8583.NetMgmtSignOff, netMgmtTimeout)
	if err != nil {
		return err
	}
	if rc := resp.FieldOr(iso8583.FieldResponseCode, ""); rc != iso8583.RespApproved {
		return fmt.Errorf("sign-off declined with response code %q", rc)
	}

	g.mu.Lock()
	g.signedOn = false
	g.hbDegraded = false
	g.mu.Unlock()
	g.refreshState("signed off")
	logger.Info("signed off")
	return nil
}

// Echo performs one 0800/301 round trip and returns its latency.
func (g *Gateway) Echo(ctx context.Context) (time.Duration, error) {
	return g.echoExchange(ctx, originNetMgmt)
}

// KeyExchange performs the 0800/101 exchange and returns the response for
// the crypto layer to consume.
func (g *Gateway) KeyExchange(ctx context.Context) (*iso8583.Message, error) {
	resp, err := g.netExchange(ctx, iso8583.NetMgmtKeyExchange, netMgmtTimeout)
	if err != nil {
		return nil, err
	}
	if rc := resp.FieldOr(iso8583.FieldResponseCode, ""); rc != iso8583.RespApproved {
		return nil, fmt.Errorf("key exchange declined with response code %q", rc)
	}
	return resp, nil
}

func (g *Gateway) echoExchange(ctx context.Context, origin string) (time.Duration, error) {
	req := iso8583.NewEchoRequest()
	if g.cfg.InstitutionID != "" {
		req.SetField(iso8583.FieldInstitutionID, g.cfg.InstitutionID)
	}
	start := time.Now()
	resp, err := g.exchange(ctx, req, echoTimeout, origin)
	if err != nil {
		return 0, fmt.Errorf("echo: %w", err)
	}
	if rc := resp.FieldOr(iso8583.FieldResponseCode, ""); rc != iso8583.RespApproved {
		return 0, fmt.Errorf("echo declined with response code %q", rc)
	}
	return time.Since(start), nil
}

func (g *Gateway) netExchange(ctx context.Context, code string, timeout time.Duration) (*iso8583.Message, error) {
	req := iso8583.NewNetworkRequest(code)
	if g.cfg.InstitutionID != "" {
		req.SetField(iso8583.FieldInstitutionID, g.cfg.InstitutionID)
	}
	resp, err := g.exchange(ctx, req, timeout, originNetMgmt)
	if err != nil {
		return nil, fmt.Errorf("network management %s: %w", code, err)
	}
	return resp, nil
}

// ============================================================================
// Heartbeat and state
// ============================================================================

// maintainHeartbeatLocked starts the runner when both legs are up and stops
// it otherwise. Callers hold g.mu.
func (g *Gateway) maintainHeartbeatLocked() {
	bothUp := g.send != nil && g.receive != nil && !g.closed && !g.failed
	hbTimeout := echoTimeout
	if g.cfg.HeartbeatInterval > 0 && g.cfg.HeartbeatInterval < hbTimeout {
		hbTimeout = g.cfg.HeartbeatInterval
	}

	switch {
	case bothUp && g.hbCancel == nil && g.cfg.HeartbeatInterval > 0:
		ctx, cancel := context.WithCancel(g.runCtx)
		g.hbCancel = cancel
		runner := &heartbeatRunner{
			interval: g.cfg.HeartbeatInterval,
			timeout:  hbTimeout,
			beat: func(ctx context.Context) error {
				_, err := g.echoExchange(ctx, originHeartbeat)
				return err
			},
			idle:     g.sendIdle,
			onResult: g.heartbeatResult,
		}
		go runner.run(ctx)

	case !bothUp && g.hbCancel != nil:
		g.hbCancel()
		g.hbCancel = nil
	}
}

func (g *Gateway) sendIdle() time.Duration {
	g.mu.Lock()
	s := g.send
	g.mu.Unlock()
	if s == nil {
		return 0
	}
	return s.idle()
}

// heartbeatResult applies the two-miss rule: the pair degrades and the send
// leg is recycled through the normal disconnect path.
func (g *Gateway) heartbeatResult(ok bool, misses int) {
	if g.metrics != nil {
		g.metrics.RecordHeartbeat(ok)
	}

	if ok {
		g.mu.Lock()
		recovered := g.hbDegraded
		g.hbDegraded = false
		g.mu.Unlock()
		if recovered {
			g.refreshState("heartbeat recovered")
		}
		return
	}

	if misses < degradeAfterMisses {
		return
	}
	g.mu.Lock()
	g.hbDegraded = true
	send := g.send
	g.mu.Unlock()

	g.refreshState("consecutive heartbeats missed")
	if send != nil {
		send.reportDown(fmt.Errorf("%d consecutive heartbeats missed", misses))
	}
}

// State returns the current pair state.
func (g *Gateway) State() PairState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// OnStateChange registers a listener invoked after every transition, off
// the supervisor's locks.
func (g *Gateway) OnStateChange(fn func(PairState)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// Statistics returns the snapshot served by the admin API.
func (g *Gateway) Statistics() Statistics {
	g.mu.Lock()
	defer g.mu.Unlock()

	stats := Statistics{
		State:              g.state.String(),
		SignedOn:           g.signedOn,
		MessagesSent:       g.sentBase,
		MessagesReceived:   g.recvBase.Received,
		Matched:            g.recvBase.Matched,
		Unsolicited:        g.recvBase.Unsolicited,
		SendConnected:      g.send != nil,
		ReceiveConnected:   g.receive != nil,
		SendReconnects:     g.sendReconnects,
		ReceiveReconnects:  g.receiveReconnects,
		ReceiveStaleEvents: g.staleEvents,
		Registry:           g.registry.Statistics(),
	}
	if g.send != nil {
		stats.MessagesSent += g.send.messagesSent()
	}
	if g.receive != nil {
		rs := g.receive.stats()
		stats.MessagesReceived += rs.Received
		stats.Matched += rs.Matched
		stats.Unsolicited += rs.Unsolicited
	}
	return stats
}

func (g *Gateway) sendStateLocked() ConnState {
	if g.send != nil {
		return ConnUp
	}
	return ConnDown
}

func (g *Gateway) receiveStateLocked() ConnState {
	if g.receive != nil {
		return ConnUp
	}
	return ConnDown
}

func (g *Gateway) accumulateReceiveLocked(r *receiveChannel) {
	rs := r.stats()
	g.recvBase.Received += rs.Received
	g.recvBase.Matched += rs.Matched
	g.recvBase.Unsolicited += rs.Unsolicited
}

// computeStateLocked derives the pair state. Losing both legs ends the
// session: sign-on does not survive a full disconnect.
func (g *Gateway) computeStateLocked() PairState {
	if g.failed {
		return PairFailed
	}
	base := combinedState(g.sendStateLocked(), g.receiveStateLocked())
	if base == PairDisconnected {
		g.signedOn = false
		g.hbDegraded = false
		return PairDisconnected
	}
	if !g.signedOn {
		return base
	}
	if base == PairBothConnected && !g.hbDegraded {
		return PairSignedOn
	}
	return PairDegraded
}

// refreshState recomputes the pair state and, on a transition, logs it,
// updates metrics, publishes the event and notifies listeners.
func (g *Gateway) refreshState(reason string) {
	g.mu.Lock()
	old := g.state
	next := g.computeStateLocked()
	g.state = next
	var listeners []func(PairState)
	if next != old {
		listeners = append(listeners, g.listeners...)
	}
	g.mu.Unlock()

	if next == old {
		return
	}
	logger.Info("gateway state changed",
		"from", old.String(), "to", next.String(), "reason", reason)
	if g.metrics != nil {
		g.metrics.SetPairState(next.String())
	}
	if g.bus != nil {
		g.bus.Emit(events.TypeGatewayState, "gateway", map[string]any{
			"from":   old.String(),
			"to":     next.String(),
			"reason": reason,
		})
	}
	for _, fn := range listeners {
		fn(next)
	}
}
