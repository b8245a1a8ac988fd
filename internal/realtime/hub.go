// Package realtime implements the in-process broadcast hub behind the
// order.Broadcaster interface. Delivery is fan-out and fire-and-forget:
// there is no acknowledgement and no persistence of missed events.
package realtime

import (
	"sync"
)

// Event is one broadcast message.
type Event struct {
	Name    string
	Payload any
}

// Hub fans events out to subscriber channels. A subscriber that cannot keep
// up has events dropped rather than blocking the emitting request.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}

	// buffer is the per-subscriber channel capacity.
	buffer int
}

// NewHub creates a Hub with the given per-subscriber buffer size.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[chan Event]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a listener and returns its event channel plus an
// unsubscribe function. The channel is closed on unsubscribe.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Emit delivers the event to every subscriber without blocking. Slow
// subscribers with full buffers miss the event.
func (h *Hub) Emit(name string, payload any) {
	ev := Event{Name: name, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
