package gateway

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nilm987521/gofep/internal/logger"
	"github.com/nilm987521/gofep/internal/protocol/iso8583"
	"github.com/nilm987521/gofep/pkg/metrics"
)

// Channel labels used in logs and metrics.
const (
	ChannelSend    = "send"
	ChannelReceive = "receive"
)

// sendChannel owns the Send leg. Writes are serialized under a mutex so
// frames from concurrent submitters never interleave; the peer must not
// write on this leg, so a small drain goroutine discards and logs anything
// that arrives until the connection drops.
type sendChannel struct {
	conn  net.Conn
	codec *iso8583.Codec

	mu        sync.Mutex
	lastWrite atomic.Int64
	sent      atomic.Uint64
	closed    atomic.Bool

	downOnce sync.Once
	onDown   func(err error)

	metrics metrics.GatewayMetrics
}

func newSendChannel(conn net.Conn, codec *iso8583.Codec, m metrics.GatewayMetrics, onDown func(error)) *sendChannel {
	s := &sendChannel{
		conn:    conn,
		codec:   codec,
		onDown:  onDown,
		metrics: m,
	}
	s.lastWrite.Store(time.Now().UnixNano())
	return s
}

// start launches the drain goroutine. Separate from construction so the
// caller can finish wiring before the first callback can fire.
func (s *sendChannel) start() {
	go s.drain()
}

// write encodes and writes one frame. Encode failures leave the connection
// intact; write failures report the leg down.
func (s *sendChannel) write(m *iso8583.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrConnectionDown
	}
	frame, err := s.codec.EncodeFrame(m)
	if err != nil {
		return err
	}
	if _, err := s.conn.Write(frame); err != nil {
		s.reportDown(err)
		return err
	}
	s.lastWrite.Store(time.Now().UnixNano())
	s.sent.Add(1)
	if s.metrics != nil {
		s.metrics.RecordSent(m.MTI())
	}
	return nil
}

// drain consumes inbound frames on the send-only leg. The host side never
// writes here in a healthy deployment, so every frame is a warning sign,
// but dropping it is safer than letting the socket buffer fill.
func (s *sendChannel) drain() {
	for {
		msg, err := s.codec.ReadFrame(s.conn)
		if err != nil {
			s.reportDown(err)
			return
		}
		logger.Warn("discarding frame received on send channel",
			"channel", ChannelSend,
			"mti", msg.MTI(),
			"trace", msg.FieldOr(iso8583.FieldTrace, ""))
	}
}

// idle returns the time since the last successful write.
func (s *sendChannel) idle() time.Duration {
	return time.Since(time.Unix(0, s.lastWrite.Load()))
}

// messagesSent returns the count of frames written.
func (s *sendChannel) messagesSent() uint64 { return s.sent.Load() }

// close tears the leg down without routing through onDown, for orderly
// shutdown and recycling.
func (s *sendChannel) close() error {
	var err error
	s.downOnce.Do(func() {
		s.closed.Store(true)
		err = s.conn.Close()
	})
	return err
}

func (s *sendChannel) reportDown(cause error) {
	s.downOnce.Do(func() {
		s.closed.Store(true)
		_ = s.conn.Close()
		if s.onDown != nil {
			s.onDown(cause)
		}
	})
}
