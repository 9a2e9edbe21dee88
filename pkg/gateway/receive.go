package gateway

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nilm987521/gofep/internal/logger"
	"github.com/nilm987521/gofep/internal/protocol/iso8583"
	"github.com/nilm987521/gofep/pkg/metrics"
)

// UnsolicitedHandler receives host-initiated messages and responses that
// matched no pending request: late replies, host notifications, network
// management the host pushes down. The handler runs on the read loop, so it
// must not block; hand off to a goroutine for slow work.
type UnsolicitedHandler func(channel string, msg *iso8583.Message)

// errReceiveReadOnly rejects writes on the Receive leg; in dual-channel
// mode all outbound traffic goes through the Send leg.
var errReceiveReadOnly = errors.New("gateway: receive channel is read-only")

// receiveStats is a snapshot of the receive loop counters.
type receiveStats struct {
	Received    uint64
	Matched     uint64
	Unsolicited uint64
}

// receiveChannel owns the Receive leg: a single read loop that decodes
// frames, matches them to pending calls by trace and hands the rest to the
// unsolicited handler. A staleness ticker watches for silence longer than
// the configured window and reports it without touching the connection, so
// a quiet but healthy leg is never torn down by a false positive.
type receiveChannel struct {
	conn        net.Conn
	codec       *iso8583.Codec
	registry    *Registry
	unsolicited UnsolicitedHandler

	staleAfter time.Duration
	onStale    func(idle time.Duration)

	lastRead    atomic.Int64
	received    atomic.Uint64
	matched     atomic.Uint64
	unmatched   atomic.Uint64
	closed      atomic.Bool
	staleerStop chan struct{}

	downOnce sync.Once
	onDown   func(err error)

	metrics metrics.GatewayMetrics
}

func newReceiveChannel(
	conn net.Conn,
	codec *iso8583.Codec,
	registry *Registry,
	unsolicited UnsolicitedHandler,
	staleAfter time.Duration,
	onStale func(time.Duration),
	m metrics.GatewayMetrics,
	onDown func(error),
) *receiveChannel {
	r := &receiveChannel{
		conn:        conn,
		codec:       codec,
		registry:    registry,
		unsolicited: unsolicited,
		staleAfter:  staleAfter,
		onStale:     onStale,
		staleerStop: make(chan struct{}),
		onDown:      onDown,
		metrics:     m,
	}
	r.lastRead.Store(time.Now().UnixNano())
	return r
}

// start launches the read loop and the staleness watcher. Separate from
// construction so the caller can finish wiring before the first callback
// can fire.
func (r *receiveChannel) start() {
	go r.run()
	if r.staleAfter > 0 {
		go r.watchStaleness()
	}
}

// run is the read loop. It exits when the connection drops or is closed.
func (r *receiveChannel) run() {
	for {
		msg, err := r.codec.ReadFrame(r.conn)
		if err != nil {
			r.reportDown(err)
			return
		}
		r.lastRead.Store(time.Now().UnixNano())
		r.received.Add(1)
		if r.metrics != nil {
			r.metrics.RecordReceived(msg.MTI())
		}
		r.dispatch(msg)
	}
}

// dispatch routes one inbound message: by trace to the registry first,
// everything else to the unsolicited handler.
func (r *receiveChannel) dispatch(msg *iso8583.Message) {
	trace, ok := msg.Field(iso8583.FieldTrace)
	if ok && r.registry.Complete(trace, msg) {
		r.matched.Add(1)
		return
	}

	r.unmatched.Add(1)
	if r.metrics != nil {
		r.metrics.RecordUnsolicited()
	}
	if !ok {
		logger.Warn("inbound message carries no trace",
			"channel", ChannelReceive, "mti", msg.MTI())
	}
	if r.unsolicited != nil {
		r.unsolicited(ChannelReceive, msg)
		return
	}
	logger.Warn("dropping unsolicited message",
		"channel", ChannelReceive,
		"mti", msg.MTI(),
		"trace", msg.FieldOr(iso8583.FieldTrace, ""))
}

// watchStaleness pings onStale while the leg is silent past the window.
// Silence is not an error: the loop keeps reading and the supervisor
// decides what the signal means alongside heartbeat results.
func (r *receiveChannel) watchStaleness() {
	interval := r.staleAfter / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.staleerStop:
			return
		case <-ticker.C:
		}
		idle := time.Since(time.Unix(0, r.lastRead.Load()))
		if idle < r.staleAfter {
			continue
		}
		logger.Warn("receive channel idle past staleness window",
			"channel", ChannelReceive,
			"idle", idle.Round(time.Millisecond),
			"window", r.staleAfter)
		if r.onStale != nil {
			r.onStale(idle)
		}
	}
}

// write always fails: the Receive leg never carries outbound traffic.
func (r *receiveChannel) write(m *iso8583.Message) error {
	logger.Warn("write attempted on receive channel",
		"channel", ChannelReceive, "mti", m.MTI())
	return errReceiveReadOnly
}

// stats returns the loop counters.
func (r *receiveChannel) stats() receiveStats {
	return receiveStats{
		Received:    r.received.Load(),
		Matched:     r.matched.Load(),
		Unsolicited: r.unmatched.Load(),
	}
}

// idle returns the time since the last inbound frame.
func (r *receiveChannel) idle() time.Duration {
	return time.Since(time.Unix(0, r.lastRead.Load()))
}

// close tears the leg down without routing through onDown.
func (r *receiveChannel) close() error {
	var err error
	r.downOnce.Do(func() {
		r.closed.Store(true)
		close(r.staleerStop)
		err = r.conn.Close()
	})
	return err
}

func (r *receiveChannel) reportDown(cause error) {
	r.downOnce.Do(func() {
		r.closed.Store(true)
		close(r.staleerStop)
		_ = r.conn.Close()
		if r.onDown != nil {
			r.onDown(cause)
		}
	})
}
