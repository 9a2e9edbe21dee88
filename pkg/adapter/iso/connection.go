package iso

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nilm987521/gofep/internal/logger"
	"github.com/nilm987521/gofep/internal/protocol/iso8583"
	"github.com/nilm987521/gofep/pkg/services"
)

// session is one ISO 8583 channel connection. A dedicated goroutine reads
// frames in order; each decoded request is processed on its own goroutine,
// bounded by requestSem, and replies are serialized through writeMu.
type session struct {
	adapter  *Adapter
	conn     net.Conn
	id       string
	clientID string

	writeMu    sync.Mutex
	wg         sync.WaitGroup
	requestSem chan struct{}
	signedOn   atomic.Bool
}

func newSession(a *Adapter, conn net.Conn) *session {
	return &session{
		adapter:    a,
		conn:       conn,
		id:         uuid.NewString(),
		clientID:   conn.RemoteAddr().String(),
		requestSem: make(chan struct{}, a.config.MaxRequestsPerSession),
	}
}

// Serve reads frames until the peer disconnects, the idle timeout fires or
// the context is cancelled. A field-level decode failure drops that message
// only; anything protocol-level closes the session without a reply.
func (c *session) Serve(ctx context.Context) {
	defer c.closeSession()
	logger.Debug("channel session open",
		"channel", c.adapter.config.Channel, "client", c.clientID, "session", c.id)

	for {
		select {
		case <-ctx.Done():
			logger.Debug("session closed on shutdown", "client", c.clientID)
			return
		default:
		}

		msg, err := c.readRequest()
		if err != nil {
			c.logReadEnd(err)
			var fieldErr *iso8583.FieldError
			if errors.As(err, &fieldErr) {
				// The frame was fully consumed; only its content is bad.
				if c.adapter.metrics != nil {
					c.adapter.metrics.RecordDroppedMessage()
				}
				continue
			}
			return
		}

		select {
		case c.requestSem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		c.wg.Add(1)
		go c.process(ctx, msg)
	}
}

func (c *session) readRequest() (*iso8583.Message, error) {
	if t := c.adapter.config.IdleTimeout; t > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(t)); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}
	}
	return c.adapter.codec.ReadFrame(c.conn)
}

func (c *session) logReadEnd(err error) {
	switch {
	case errors.Is(err, io.EOF):
		logger.Debug("session closed by client", "client", c.clientID)
	case isTimeout(err):
		logger.Debug("session idle timeout", "client", c.clientID)
	default:
		var fieldErr *iso8583.FieldError
		if errors.As(err, &fieldErr) {
			logger.Warn("dropping undecodable message",
				"client", c.clientID, "field", fieldErr.Field, "error", err)
			return
		}
		logger.Warn("closing session on protocol error", "client", c.clientID, "error", err)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// process answers one decoded request. Network management is handled
// internally; financial traffic goes to the installed Handler with the
// default-reply timer armed.
func (c *session) process(ctx context.Context, msg *iso8583.Message) {
	mti := msg.MTI()
	start := time.Now()
	if c.adapter.metrics != nil {
		c.adapter.metrics.RecordRequestStart(mti)
	}
	defer c.finishRequest(mti)

	logger.Debug("inbound request", "channel", c.adapter.config.Channel,
		"client", c.clientID, "mti", mti,
		"trace", msg.FieldOr(iso8583.FieldTrace, ""))

	r := &responder{session: c, req: msg, start: start}

	if msg.Has(iso8583.FieldMAC) {
		if err := c.adapter.crypto.VerifyMAC(ctx, msg); err != nil {
			logger.Warn("MAC verification failed",
				"client", c.clientID, "mti", mti,
				"trace", msg.FieldOr(iso8583.FieldTrace, ""), "error", err)
			_, _ = r.RespondCode(iso8583.RespSystemMalfunction)
			return
		}
	}

	switch {
	case mti == iso8583.MTINetworkRequest:
		c.handleNetMgmt(ctx, msg, r)

	case iso8583.IsResponseMTI(mti):
		// A response has no response; there is nothing to send back.
		logger.Warn("dropping inbound response-role message",
			"client", c.clientID, "mti", mti,
			"trace", msg.FieldOr(iso8583.FieldTrace, ""))

	case c.adapter.handler != nil && isFinancialRequest(mti):
		c.dispatch(ctx, msg, r)

	default:
		_, _ = r.RespondCode(iso8583.RespInvalidTransaction)
	}
}

func isFinancialRequest(mti string) bool {
	return mti == iso8583.MTIFinancialRequest || mti == iso8583.MTIReversalRequest
}

// dispatch runs the Handler with the default-reply timer armed. Whoever
// answers first wins: the handler, a deferred workflow completion, or the
// timer with the system-malfunction code.
func (c *session) dispatch(ctx context.Context, msg *iso8583.Message, r *responder) {
	req := &Request{
		Channel:   c.adapter.config.Channel,
		ClientID:  c.clientID,
		SessionID: c.id,
		Message:   msg,
	}

	timer := time.AfterFunc(c.adapter.config.ResponseTimeout, func() {
		if sent, _ := r.RespondCode(iso8583.RespSystemMalfunction); sent {
			logger.Warn("request unanswered within deadline",
				"client", c.clientID, "mti", msg.MTI(),
				"trace", msg.FieldOr(iso8583.FieldTrace, ""),
				"timeout", c.adapter.config.ResponseTimeout)
		}
	})

	if err := c.adapter.handler.Handle(ctx, req, r); err != nil {
		timer.Stop()
		logger.Error("handler failed",
			"client", c.clientID, "mti", msg.MTI(),
			"trace", msg.FieldOr(iso8583.FieldTrace, ""), "error", err)
		_, _ = r.RespondCode(iso8583.RespSystemMalfunction)
		return
	}
	if r.responded() {
		timer.Stop()
	}
}

// finishRequest releases the per-session slot and recovers handler panics
// so one bad request cannot take the whole listener down.
func (c *session) finishRequest(mti string) {
	<-c.requestSem
	c.wg.Done()
	if c.adapter.metrics != nil {
		c.adapter.metrics.RecordRequestEnd(mti)
	}

	if rec := recover(); rec != nil {
		logger.Error("panic in request handler",
			"client", c.clientID, "mti", mti,
			"error", rec, "stack", string(debug.Stack()))
	}
}

// closeSession waits out in-flight requests and closes the connection.
// Deferred from Serve; also the panic barrier for the read loop.
func (c *session) closeSession() {
	if rec := recover(); rec != nil {
		logger.Error("panic in session handler",
			"client", c.clientID, "error", rec, "stack", string(debug.Stack()))
	}
	c.wg.Wait()
	_ = c.conn.Close()
	logger.Debug("channel session closed",
		"channel", c.adapter.config.Channel, "client", c.clientID, "session", c.id)
}

// writeMessage serializes reply writes onto the connection.
func (c *session) writeMessage(msg *iso8583.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if t := c.adapter.config.WriteTimeout; t > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(t)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	if err := c.adapter.codec.WriteFrame(c.conn, msg); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	logger.Debug("sent reply", "client", c.clientID, "mti", msg.MTI(),
		"trace", msg.FieldOr(iso8583.FieldTrace, ""),
		"response_code", msg.FieldOr(iso8583.FieldResponseCode, ""))
	return nil
}

// journalReply records the answered request. Journal failures are logged
// and never affect the reply.
func (c *session) journalReply(req, reply *iso8583.Message) {
	e := services.NewEntry(services.DirectionInbound, c.adapter.config.Channel, c.clientID, req)
	e.ResponseCode = reply.FieldOr(iso8583.FieldResponseCode, "")
	if err := c.adapter.journal.Record(context.Background(), e); err != nil {
		logger.Warn("journal write failed", "client", c.clientID,
			"mti", req.MTI(), "trace", e.Trace, "error", err)
	}
}
