package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/nilm987521/gofep/internal/protocol/iso8583"
	"github.com/nilm987521/gofep/pkg/metrics"
)

// outcome is the single resolution of a pending call: a matched response or
// a terminal error, never both.
type outcome struct {
	msg *iso8583.Message
	err error
}

// PendingCall is one outstanding request awaiting its response. Exactly one
// of Complete, Cancel or deadline expiry resolves it; the buffered channel
// holds the outcome until the submitter collects it, so resolution never
// blocks on a slow or absent waiter.
type PendingCall struct {
	// Key is the trace (field 11) the response must carry.
	Key string

	// Origin labels the component that registered the call, for logs and
	// statistics ("api", "heartbeat", "admin").
	Origin string

	registered time.Time
	done       chan outcome
	timer      *time.Timer
	reg        *Registry
}

// Wait blocks until the call resolves or ctx is done. Abandoning the wait
// cancels the registry entry, so a response arriving afterwards counts as
// unsolicited. When cancellation races an in-flight resolution the resolution
// wins and Wait returns it.
func (c *PendingCall) Wait(ctx context.Context) (*iso8583.Message, error) {
	select {
	case out := <-c.done:
		return out.msg, out.err
	case <-ctx.Done():
		if c.reg.Cancel(c.Key, ctx.Err()) {
			return nil, ctx.Err()
		}
		// Already resolved; the outcome is sitting in the buffer.
		out := <-c.done
		return out.msg, out.err
	}
}

// Age returns how long the call has been outstanding.
func (c *PendingCall) Age() time.Duration { return time.Since(c.registered) }

// RegistryStats is a point-in-time snapshot of registry activity.
type RegistryStats struct {
	Registered     uint64 `json:"registered"`
	Completed      uint64 `json:"completed"`
	TimedOut       uint64 `json:"timedOut"`
	Cancelled      uint64 `json:"cancelled"`
	CurrentPending int    `json:"currentPending"`
}

// Registry correlates responses to requests by trace. It is the only
// structure shared between the send path, the receive loop and the timeout
// timers, and it is safe for concurrent use.
//
// The map entry is the unit of exclusivity: whichever path removes the
// entry delivers the outcome, so a call resolves exactly once. A timer
// firing after its entry was replaced by a reused trace compares pointers
// and leaves the newcomer alone.
type Registry struct {
	mu       sync.Mutex
	calls    map[string]*PendingCall
	capacity int
	closed   bool
	closeErr error

	registered uint64
	completed  uint64
	timedOut   uint64
	cancelled  uint64

	metrics metrics.GatewayMetrics
}

// NewRegistry builds a registry bounded at capacity in-flight calls.
// Capacity must be positive. The metrics sink may be nil.
func NewRegistry(capacity int, m metrics.GatewayMetrics) *Registry {
	if capacity <= 0 {
		capacity = 1
	}
	return &Registry{
		calls:    make(map[string]*PendingCall, capacity),
		capacity: capacity,
		metrics:  m,
	}
}

// Register creates a pending entry for key with the given deadline. The
// timer runs whether or not anybody ever waits, so entries cannot leak when
// a submitter gives up between Register and Wait.
func (r *Registry) Register(key string, timeout time.Duration, origin string) (*PendingCall, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, r.closeErr
	}
	if _, exists := r.calls[key]; exists {
		return nil, ErrDuplicateKey
	}
	if len(r.calls) >= r.capacity {
		return nil, ErrOverloaded
	}

	call := &PendingCall{
		Key:        key,
		Origin:     origin,
		registered: time.Now(),
		done:       make(chan outcome, 1),
		reg:        r,
	}
	call.timer = time.AfterFunc(timeout, func() { r.expire(key, call) })
	r.calls[key] = call
	r.registered++
	r.setPendingLocked()
	return call, nil
}

// Complete resolves the entry for key with a matched response. It reports
// false when no entry exists, in which case the caller treats the message
// as unsolicited.
func (r *Registry) Complete(key string, msg *iso8583.Message) bool {
	call := r.remove(key, nil, &r.completed)
	if call == nil {
		return false
	}
	call.timer.Stop()
	call.done <- outcome{msg: msg}
	return true
}

// Cancel resolves the entry for key with cause. Idempotent: cancelling a
// missing or already-resolved key reports false.
func (r *Registry) Cancel(key string, cause error) bool {
	call := r.remove(key, nil, &r.cancelled)
	if call == nil {
		return false
	}
	call.timer.Stop()
	call.done <- outcome{err: cause}
	return true
}

// CancelAll resolves every pending entry with cause and returns how many
// were cancelled. Used on connection teardown and shutdown.
func (r *Registry) CancelAll(cause error) int {
	r.mu.Lock()
	taken := make([]*PendingCall, 0, len(r.calls))
	for key, call := range r.calls {
		delete(r.calls, key)
		taken = append(taken, call)
	}
	r.cancelled += uint64(len(taken))
	r.setPendingLocked()
	r.mu.Unlock()

	for _, call := range taken {
		call.timer.Stop()
		call.done <- outcome{err: cause}
	}
	return len(taken)
}

// Close cancels everything and rejects further registrations with cause.
func (r *Registry) Close(cause error) int {
	r.mu.Lock()
	r.closed = true
	r.closeErr = cause
	r.mu.Unlock()
	return r.CancelAll(cause)
}

// Pending reports whether key has an outstanding entry.
func (r *Registry) Pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.calls[key]
	return ok
}

// Len returns the number of outstanding entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Statistics returns a snapshot of registry counters.
func (r *Registry) Statistics() RegistryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RegistryStats{
		Registered:     r.registered,
		Completed:      r.completed,
		TimedOut:       r.timedOut,
		Cancelled:      r.cancelled,
		CurrentPending: len(r.calls),
	}
}

// expire is the deadline path. The pointer comparison keeps a stale timer
// from touching a newer entry that reused the key after this one resolved.
func (r *Registry) expire(key string, call *PendingCall) {
	if r.remove(key, call, &r.timedOut) == nil {
		return
	}
	call.done <- outcome{err: ErrTimeout}
}

// remove takes the entry for key out of the map under the lock and bumps
// the given counter. When expect is non-nil the entry must be that exact
// call. Returns nil when there was nothing to remove.
func (r *Registry) remove(key string, expect *PendingCall, counter *uint64) *PendingCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	call, ok := r.calls[key]
	if !ok || (expect != nil && call != expect) {
		return nil
	}
	delete(r.calls, key)
	*counter++
	r.setPendingLocked()
	return call
}

func (r *Registry) setPendingLocked() {
	if r.metrics != nil {
		r.metrics.SetPending(len(r.calls))
	}
}
