//go:build e2e

// Package e2e exercises the processor over real TCP: an ISO 8583 client
// talking to the inbound listener, the gateway pair dialed out to a
// simulated clearing host, and the forwarding handler between them.
package e2e

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nilm987521/gofep/internal/protocol/iso8583"
	"github.com/nilm987521/gofep/pkg/adapter/iso"
	"github.com/nilm987521/gofep/pkg/gateway"
)

// hostAuthCode marks host-issued approvals so tests can tell them apart
// from locally generated authorization codes.
const hostAuthCode = "ABC123"

// ============================================================================
// Host simulator
// ============================================================================

// hostSim plays the clearing host. The gateway dials its two listeners:
// requests arrive on the send listener and are answered out of band on the
// connection accepted by the receive listener, the way the real host runs
// its channel pair.
type hostSim struct {
	t     *testing.T
	codec *iso8583.Codec

	sendLn net.Listener
	recvLn net.Listener

	mu        sync.Mutex
	recvConn  net.Conn
	sendConns []net.Conn

	recvOnce sync.Once
	recvUp   chan struct{}

	// wmu serializes frames onto the receive leg; pumps and test
	// injections share it.
	wmu sync.Mutex

	swallow  atomic.Bool
	signOns  atomic.Int32
	echoes   atomic.Int32
	requests chan *iso8583.Message
}

func startHostSim(t *testing.T) *hostSim {
	t.Helper()

	sendLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	recvLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	h := &hostSim{
		t:        t,
		codec:    iso8583.NewCodec(iso8583.DefaultTable()),
		sendLn:   sendLn,
		recvLn:   recvLn,
		recvUp:   make(chan struct{}),
		requests: make(chan *iso8583.Message, 64),
	}
	go h.acceptSend()
	go h.acceptReceive()
	t.Cleanup(h.close)
	return h
}

func (h *hostSim) sendPort() int { return h.sendLn.Addr().(*net.TCPAddr).Port }
func (h *hostSim) recvPort() int { return h.recvLn.Addr().(*net.TCPAddr).Port }

func (h *hostSim) acceptSend() {
	for {
		conn, err := h.sendLn.Accept()
		if err != nil {
			return
		}
		h.mu.Lock()
		h.sendConns = append(h.sendConns, conn)
		h.mu.Unlock()
		go h.pump(conn)
	}
}

func (h *hostSim) acceptReceive() {
	for {
		conn, err := h.recvLn.Accept()
		if err != nil {
			return
		}
		h.mu.Lock()
		if h.recvConn != nil {
			_ = h.recvConn.Close()
		}
		h.recvConn = conn
		h.mu.Unlock()
		h.recvOnce.Do(func() { close(h.recvUp) })
	}
}

// pump reads requests off one send-leg connection until it dies.
func (h *hostSim) pump(conn net.Conn) {
	for {
		req, err := h.codec.ReadFrame(conn)
		if err != nil {
			return
		}
		if req.MTI() == iso8583.MTINetworkRequest {
			switch req.FieldOr(iso8583.FieldNetMgmtCode, "") {
			case iso8583.NetMgmtSignOn:
				h.signOns.Add(1)
			case iso8583.NetMgmtEcho:
				h.echoes.Add(1)
			}
		}
		select {
		case h.requests <- req:
		default:
		}
		if h.swallow.Load() {
			continue
		}
		h.respond(req)
	}
}

// respond approves req on the receive leg. Financial requests carry the
// fixed host authorization code.
func (h *hostSim) respond(req *iso8583.Message) {
	mti, err := iso8583.ResponseMTI(req.MTI())
	if err != nil {
		h.t.Errorf("host simulator: %v", err)
		return
	}
	resp := iso8583.NewMessage(mti)
	resp.EchoFrom(req, iso8583.FieldPAN, iso8583.FieldProcessingCode,
		iso8583.FieldAmount, iso8583.FieldTransmissionTime, iso8583.FieldTrace,
		iso8583.FieldInstitutionID, iso8583.FieldNetMgmtCode)
	resp.SetField(iso8583.FieldResponseCode, iso8583.RespApproved)
	if req.MTI() == iso8583.MTIFinancialRequest {
		resp.SetField(iso8583.FieldAuthCode, hostAuthCode)
	}
	h.inject(resp)
}

// inject writes one frame on the receive leg, waiting briefly for the leg
// so responses never race the connect handshake.
func (h *hostSim) inject(msg *iso8583.Message) {
	select {
	case <-h.recvUp:
	case <-time.After(2 * time.Second):
		h.t.Error("host simulator: receive leg never connected")
		return
	}

	h.mu.Lock()
	w := h.recvConn
	h.mu.Unlock()
	if w == nil {
		return
	}

	h.wmu.Lock()
	defer h.wmu.Unlock()
	_ = w.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := h.codec.WriteFrame(w, msg); err != nil {
		h.t.Logf("host simulator: write response: %v", err)
	}
}

// nextRequest returns the next request the host saw on its send leg.
func (h *hostSim) nextRequest(t *testing.T) *iso8583.Message {
	t.Helper()
	select {
	case req := <-h.requests:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("host simulator: no request arrived")
		return nil
	}
}

// noRequest asserts the host sees nothing within the window.
func (h *hostSim) noRequest(t *testing.T, window time.Duration) {
	t.Helper()
	select {
	case req := <-h.requests:
		t.Fatalf("host simulator: unexpected %s request", req.MTI())
	case <-time.After(window):
	}
}

func (h *hostSim) close() {
	_ = h.sendLn.Close()
	_ = h.recvLn.Close()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.recvConn != nil {
		_ = h.recvConn.Close()
	}
	for _, conn := range h.sendConns {
		_ = conn.Close()
	}
}

// ============================================================================
// Processor under test
// ============================================================================

// frontEnd is the assembled unit under test: a gateway signed on to the
// simulator plus an inbound listener forwarding financial traffic through
// it, wired the way the start command wires them.
type frontEnd struct {
	gw      *gateway.Gateway
	adapter *iso.Adapter
}

func startFrontEnd(t *testing.T, sim *hostSim, forwardTimeout time.Duration) *frontEnd {
	t.Helper()

	codec := iso8583.NewCodec(iso8583.DefaultTable())
	g := gateway.New(gateway.Config{
		SendHost:        "127.0.0.1",
		SendPort:        sim.sendPort(),
		ReceiveHost:     "127.0.0.1",
		ReceivePort:     sim.recvPort(),
		ConnectTimeout:  2 * time.Second,
		ReadTimeout:     time.Minute,
		AutoReconnect:   true,
		FailureStrategy: gateway.FailWhenEitherDown,
		InstitutionID:   "00000021",
		MaxInFlight:     64,
	}, codec)
	t.Cleanup(func() { _ = g.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, g.Connect(ctx))
	require.NoError(t, g.SignOn(ctx))
	require.Equal(t, gateway.PairSignedOn, g.State())

	// Sign-on rides the same legs as traffic; drain it so tests see only
	// their own requests.
	signOn := sim.nextRequest(t)
	require.Equal(t, iso8583.MTINetworkRequest, signOn.MTI())
	require.Equal(t, iso8583.NetMgmtSignOn, signOn.FieldOr(iso8583.FieldNetMgmtCode, ""))

	a := iso.New(iso.Config{
		BindAddress:     "127.0.0.1",
		Channel:         "pos",
		ResponseTimeout: forwardTimeout + 2*time.Second,
		ShutdownTimeout: time.Second,
	}, codec, iso.NewForwardHandler(g, forwardTimeout))

	serveCtx, serveCancel := context.WithCancel(context.Background())
	go func() { _ = a.Serve(serveCtx) }()
	t.Cleanup(func() {
		serveCancel()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		_ = a.Stop(stopCtx)
	})
	require.NotEmpty(t, a.GetListenerAddr())

	return &frontEnd{gw: g, adapter: a}
}

// ============================================================================
// Client
// ============================================================================

// terminal is one ISO 8583 client connection to the inbound listener.
type terminal struct {
	t     *testing.T
	conn  net.Conn
	codec *iso8583.Codec
}

func dialFrontEnd(t *testing.T, fe *frontEnd) *terminal {
	t.Helper()
	conn, err := net.Dial("tcp", fe.adapter.GetListenerAddr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &terminal{t: t, conn: conn, codec: iso8583.NewCodec(iso8583.DefaultTable())}
}

func (c *terminal) send(msg *iso8583.Message) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	require.NoError(c.t, c.codec.WriteFrame(c.conn, msg))
}

func (c *terminal) recv() *iso8583.Message {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	msg, err := c.codec.ReadFrame(c.conn)
	require.NoError(c.t, err)
	return msg
}

// exchange sends one request and returns its reply.
func (c *terminal) exchange(msg *iso8583.Message) *iso8583.Message {
	c.t.Helper()
	c.send(msg)
	return c.recv()
}

// tryExchange is exchange without test assertions, safe off the test
// goroutine.
func (c *terminal) tryExchange(msg *iso8583.Message) (*iso8583.Message, error) {
	if err := c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second)); err != nil {
		return nil, err
	}
	if err := c.codec.WriteFrame(c.conn, msg); err != nil {
		return nil, err
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		return nil, err
	}
	return c.codec.ReadFrame(c.conn)
}

func withdrawal(trace string) *iso8583.Message {
	m := iso8583.NewMessage(iso8583.MTIFinancialRequest)
	m.SetField(iso8583.FieldPAN, "4000123412341234")
	m.SetField(iso8583.FieldProcessingCode, "010000")
	m.SetField(iso8583.FieldAmount, "000000025000")
	m.SetField(iso8583.FieldTrace, trace)
	m.SetField(iso8583.FieldTerminalID, "ATM00001")
	m.SetField(iso8583.FieldMerchantID, "MERCHANT0000001")
	return m
}

func reversal(trace string) *iso8583.Message {
	m := iso8583.NewMessage(iso8583.MTIReversalRequest)
	m.SetField(iso8583.FieldPAN, "4000123412341234")
	m.SetField(iso8583.FieldProcessingCode, "010000")
	m.SetField(iso8583.FieldAmount, "000000025000")
	m.SetField(iso8583.FieldTrace, trace)
	m.SetField(iso8583.FieldTerminalID, "ATM00001")
	m.SetField(iso8583.FieldMerchantID, "MERCHANT0000001")
	return m
}
