package events

import (
	"sync"
	"sync/atomic"

	"github.com/nilm987521/gofep/internal/logger"
)

// defaultBuffer is the per-subscriber channel capacity.
const defaultBuffer = 100

// Bus is an in-process pub/sub event bus. Publish never blocks: a
// subscriber whose buffer is full misses the event and the drop counter
// advances. Suitable for observability fan-out, not for delivery
// guarantees.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
	allSubs     []chan Event
	buffer      int
	closed      bool

	dropped atomic.Uint64
}

// NewBus builds a bus with the given per-subscriber buffer; zero or
// negative means the default.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Bus{
		subscribers: make(map[string][]chan Event),
		buffer:      buffer,
	}
}

// Subscribe returns a channel receiving events of the given types, or all
// events when no type is named. The channel is closed by Unsubscribe or
// Close.
func (b *Bus) Subscribe(types ...string) chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch
	}

	if len(types) == 0 {
		b.allSubs = append(b.allSubs, ch)
		return ch
	}
	for _, t := range types {
		b.subscribers[t] = append(b.subscribers[t], ch)
	}
	return ch
}

// Unsubscribe detaches and closes a channel returned by Subscribe.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	found := false
	for t, subs := range b.subscribers {
		b.subscribers[t], found = without(subs, ch, found)
	}
	b.allSubs, found = without(b.allSubs, ch, found)
	if found {
		close(ch)
	}
}

// Publish delivers the event to every matching subscriber without blocking.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subscribers[e.Type] {
		b.deliver(ch, e)
	}
	for _, ch := range b.allSubs {
		b.deliver(ch, e)
	}
}

// Emit builds and publishes an event in one call.
func (b *Bus) Emit(eventType, source string, data map[string]any) {
	b.Publish(New(eventType, source, data))
}

// Close detaches and closes every subscriber. Publish after Close is a
// no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	closed := make(map[chan Event]bool)
	for _, subs := range b.subscribers {
		for _, ch := range subs {
			if !closed[ch] {
				closed[ch] = true
				close(ch)
			}
		}
	}
	for _, ch := range b.allSubs {
		if !closed[ch] {
			closed[ch] = true
			close(ch)
		}
	}
	b.subscribers = make(map[string][]chan Event)
	b.allSubs = nil
}

// SubscriberCount returns the number of attached channels, counting a
// multi-type subscription once.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[chan Event]bool)
	for _, subs := range b.subscribers {
		for _, ch := range subs {
			seen[ch] = true
		}
	}
	for _, ch := range b.allSubs {
		seen[ch] = true
	}
	return len(seen)
}

// Dropped returns how many deliveries were skipped on full buffers.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

func (b *Bus) deliver(ch chan Event, e Event) {
	select {
	case ch <- e:
	default:
		if b.dropped.Add(1)%1000 == 1 {
			logger.Warn("event bus dropping on full subscriber buffer",
				"type", e.Type, "dropped", b.dropped.Load())
		}
	}
}

// without filters ch out of subs, reporting whether it was seen here or
// earlier.
func without(subs []chan Event, ch chan Event, already bool) ([]chan Event, bool) {
	out := subs[:0]
	found := already
	for _, s := range subs {
		if s == ch {
			found = true
			continue
		}
		out = append(out, s)
	}
	return out, found
}
