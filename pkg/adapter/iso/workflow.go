package iso

import (
	"context"
	"sync"
	"time"

	"github.com/nilm987521/gofep/internal/events"
	"github.com/nilm987521/gofep/internal/logger"
	"github.com/nilm987521/gofep/internal/protocol/iso8583"
	"github.com/nilm987521/gofep/pkg/metrics"
	"github.com/nilm987521/gofep/pkg/services"
)

// WorkflowConfig tunes the event-routed handler.
type WorkflowConfig struct {
	// TTL is how long a parked responder waits for a result before its
	// sender gets the late-response code. Keep it below the session's
	// ResponseTimeout so expiries answer with 68, not 96.
	TTL time.Duration

	// MaxPending bounds the callback map. Requests arriving beyond it
	// are answered with the system-malfunction code immediately.
	MaxPending int

	// SweepInterval is the period of the background expiry pass. Expired
	// entries are also evicted whenever a new request is parked.
	SweepInterval time.Duration
}

func (c WorkflowConfig) withDefaults() WorkflowConfig {
	if c.TTL <= 0 {
		c.TTL = 5 * time.Second
	}
	if c.MaxPending <= 0 {
		c.MaxPending = 1024
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Second
	}
	return c
}

// WorkflowOption configures a WorkflowHandler.
type WorkflowOption func(*WorkflowHandler)

// WithWorkflowMetrics installs the recorder for expiry counts.
func WithWorkflowMetrics(m metrics.ServerMetrics) WorkflowOption {
	return func(w *WorkflowHandler) { w.metrics = m }
}

type workflowEntry struct {
	responder Responder
	deadline  time.Time
	mti       string
}

// WorkflowHandler routes financial traffic through the event bus so an
// external decision process answers asynchronously. Each request is
// published as a transaction-request event and its responder parked in a
// bounded TTL map keyed by trace; a bus subscription on transaction-result
// events completes entries. Entries nobody answers within the TTL are
// evicted on write and by a low-rate sweeper, and their senders receive the
// late-response code.
type WorkflowHandler struct {
	cfg     WorkflowConfig
	bus     *events.Bus
	metrics metrics.ServerMetrics

	mu      sync.Mutex
	pending map[string]*workflowEntry

	results   chan events.Event
	stop      chan struct{}
	closeOnce sync.Once
	done      sync.WaitGroup
}

var _ Handler = (*WorkflowHandler)(nil)

// NewWorkflowHandler builds the handler and starts its result pump and
// sweeper. Call Close to release them.
func NewWorkflowHandler(cfg WorkflowConfig, bus *events.Bus, opts ...WorkflowOption) *WorkflowHandler {
	w := &WorkflowHandler{
		cfg:     cfg.withDefaults(),
		bus:     bus,
		pending: make(map[string]*workflowEntry),
		results: bus.Subscribe(events.TypeTxnResult),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.done.Add(2)
	go w.pump()
	go w.sweep()
	return w
}

// Handle implements Handler: publish the request, park the responder.
func (w *WorkflowHandler) Handle(ctx context.Context, req *Request, responder Responder) error {
	msg := req.Message
	trace, ok := msg.Field(iso8583.FieldTrace)
	if !ok || trace == "" {
		// Nothing to correlate the result by.
		_, _ = responder.RespondCode(iso8583.RespInvalidTransaction)
		return nil
	}

	now := time.Now()
	w.mu.Lock()
	expired := w.evictExpiredLocked(now)
	var rejected string
	switch {
	case len(w.pending) >= w.cfg.MaxPending:
		rejected = iso8583.RespSystemMalfunction
	case w.pending[trace] != nil:
		rejected = iso8583.RespInvalidTransaction
	default:
		w.pending[trace] = &workflowEntry{
			responder: responder,
			deadline:  now.Add(w.cfg.TTL),
			mti:       msg.MTI(),
		}
	}
	w.mu.Unlock()

	w.expire(expired)
	if rejected != "" {
		logger.Warn("workflow rejecting request",
			"trace", trace, "mti", msg.MTI(), "code", rejected,
			"pending", w.Pending())
		_, _ = responder.RespondCode(rejected)
		return nil
	}

	w.bus.Emit(events.TypeTxnRequest, "workflow", map[string]any{
		"channel":        req.Channel,
		"client":         req.ClientID,
		"session":        req.SessionID,
		"mti":            msg.MTI(),
		"trace":          trace,
		"pan":            services.MaskPAN(msg.FieldOr(iso8583.FieldPAN, "")),
		"processingCode": msg.FieldOr(iso8583.FieldProcessingCode, ""),
		"amount":         msg.FieldOr(iso8583.FieldAmount, ""),
		"terminal":       msg.FieldOr(iso8583.FieldTerminalID, ""),
		"merchant":       msg.FieldOr(iso8583.FieldMerchantID, ""),
	})
	return nil
}

// pump completes parked responders from transaction-result events.
func (w *WorkflowHandler) pump() {
	defer w.done.Done()
	for e := range w.results {
		trace, _ := e.Data["trace"].(string)
		if trace == "" {
			logger.Warn("transaction result without trace", "source", e.Source)
			continue
		}

		w.mu.Lock()
		entry := w.pending[trace]
		delete(w.pending, trace)
		w.mu.Unlock()

		if entry == nil {
			logger.Warn("dropping result for unknown trace", "trace", trace, "source", e.Source)
			continue
		}

		reply := iso8583.NewMessage(entry.mti)
		code, _ := e.Data["responseCode"].(string)
		if code == "" {
			code = iso8583.RespSystemMalfunction
		}
		reply.SetField(iso8583.FieldResponseCode, code)
		if auth, _ := e.Data["authCode"].(string); auth != "" {
			reply.SetField(iso8583.FieldAuthCode, auth)
		}
		if _, err := entry.responder.Respond(reply); err != nil {
			logger.Warn("workflow reply failed", "trace", trace, "error", err)
		}
	}
}

// sweep expires parked responders the result pump never completed.
func (w *WorkflowHandler) sweep() {
	defer w.done.Done()
	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.mu.Lock()
			expired := w.evictExpiredLocked(time.Now())
			w.mu.Unlock()
			w.expire(expired)
		}
	}
}

// evictExpiredLocked removes entries past their deadline and returns them.
// Callers hold w.mu and answer the senders after unlocking.
func (w *WorkflowHandler) evictExpiredLocked(now time.Time) []*workflowEntry {
	var out []*workflowEntry
	for trace, entry := range w.pending {
		if now.After(entry.deadline) {
			delete(w.pending, trace)
			out = append(out, entry)
		}
	}
	return out
}

func (w *WorkflowHandler) expire(entries []*workflowEntry) {
	for _, entry := range entries {
		if w.metrics != nil {
			w.metrics.RecordWorkflowExpired()
		}
		if sent, _ := entry.responder.RespondCode(iso8583.RespLateResponse); sent {
			logger.Warn("workflow entry expired", "mti", entry.mti, "ttl", w.cfg.TTL)
		}
	}
}

// Pending returns the number of parked responders.
func (w *WorkflowHandler) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Close stops the pump and the sweeper. Still-parked responders are left to
// the session's own default-reply timer.
func (w *WorkflowHandler) Close() {
	w.closeOnce.Do(func() {
		close(w.stop)
		w.bus.Unsubscribe(w.results)
		w.done.Wait()
	})
}
