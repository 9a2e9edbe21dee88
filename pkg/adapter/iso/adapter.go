package iso

import (
	"context"
	"net"
	"time"

	"github.com/nilm987521/gofep/internal/events"
	"github.com/nilm987521/gofep/internal/protocol/iso8583"
	"github.com/nilm987521/gofep/pkg/adapter"
	"github.com/nilm987521/gofep/pkg/metrics"
	"github.com/nilm987521/gofep/pkg/services"
)

// Config holds the settings for one ISO 8583 channel listener.
type Config struct {
	// BindAddress is the interface to bind; empty means all.
	BindAddress string

	// Port is the TCP port to listen on.
	Port int

	// Channel labels this listener in requests, logs and journal entries,
	// e.g. "pos" or "atm".
	Channel string

	// MaxConnections bounds concurrent sessions. Zero means unlimited.
	MaxConnections int

	// MaxRequestsPerSession bounds requests processed concurrently on one
	// session. Further frames wait in the kernel buffer.
	MaxRequestsPerSession int

	// ResponseTimeout is how long a request may stay unanswered before
	// the session sends the system-malfunction default reply.
	ResponseTimeout time.Duration

	// IdleTimeout closes sessions with no inbound traffic. Zero keeps
	// them open indefinitely.
	IdleTimeout time.Duration

	// WriteTimeout bounds each reply write.
	WriteTimeout time.Duration

	// ShutdownTimeout is how long graceful shutdown waits for active
	// sessions.
	ShutdownTimeout time.Duration

	// MetricsLogInterval is the period of the session-count log line.
	MetricsLogInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Channel == "" {
		c.Channel = "iso8583"
	}
	if c.MaxRequestsPerSession <= 0 {
		c.MaxRequestsPerSession = 32
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	return c
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithCrypto installs the HSM seam used for key exchange and MAC checks.
func WithCrypto(c services.Crypto) Option {
	return func(a *Adapter) { a.crypto = c }
}

// WithJournal installs the journal receiving one entry per answered request.
func WithJournal(j services.Journal) Option {
	return func(a *Adapter) { a.journal = j }
}

// WithMetrics installs the request and connection recorder.
func WithMetrics(m metrics.ServerMetrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// WithEvents installs the bus receiving session lifecycle events.
func WithEvents(bus *events.Bus) Option {
	return func(a *Adapter) { a.bus = bus }
}

// Adapter is the ISO 8583 inbound listener: the shared TCP lifecycle from
// pkg/adapter plus the frame codec, the built-in network management handler
// and the injected financial Handler.
type Adapter struct {
	*adapter.BaseAdapter

	config  Config
	codec   *iso8583.Codec
	handler Handler
	crypto  services.Crypto
	journal services.Journal
	metrics metrics.ServerMetrics
	bus     *events.Bus
}

var _ adapter.Adapter = (*Adapter)(nil)

// New builds the listener. handler receives financial traffic; nil means
// every financial request gets the invalid-transaction reply.
func New(cfg Config, codec *iso8583.Codec, handler Handler, opts ...Option) *Adapter {
	cfg = cfg.withDefaults()

	a := &Adapter{
		BaseAdapter: adapter.NewBaseAdapter(adapter.BaseConfig{
			BindAddress:        cfg.BindAddress,
			Port:               cfg.Port,
			MaxConnections:     cfg.MaxConnections,
			ShutdownTimeout:    cfg.ShutdownTimeout,
			MetricsLogInterval: cfg.MetricsLogInterval,
		}, "ISO8583"),
		config:  cfg,
		codec:   codec,
		handler: handler,
		crypto:  services.NoopCrypto{},
		journal: services.NoopJournal{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics != nil {
		a.BaseAdapter.Metrics = a.metrics
	}
	if a.bus != nil {
		a.BaseAdapter.Events = a.bus
	}
	return a
}

// Serve implements adapter.Adapter.
func (a *Adapter) Serve(ctx context.Context) error {
	return a.ServeWithFactory(ctx, a, nil, nil)
}

// NewConnection implements adapter.ConnectionFactory.
func (a *Adapter) NewConnection(conn net.Conn) adapter.ConnectionHandler {
	return newSession(a, conn)
}
