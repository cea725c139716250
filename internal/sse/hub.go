package sse

import (
	"sync"
)

// Event represents a server-sent event.
type Event struct {
	Type string // e.g. "change", "refresh"
	Data string // JSON payload
}

// Hub is an in-memory pub/sub hub. It carries the row change feed from the
// gateway to the snapshot cache and to SSE clients.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[chan Event]struct{}
	closed  bool
}

// New creates a new SSE Hub.
func New() *Hub {
	return &Hub{
		clients: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a listener on the given topic.
// Returns a receive-only channel and an unsubscribe function. The channel is
// closed on unsubscribe or when the hub is closed; subscribing to a closed hub
// yields an already closed channel.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[chan Event]struct{})
	}
	h.clients[topic][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.clients[topic][ch]; !ok {
				return
			}
			delete(h.clients[topic], ch)
			if len(h.clients[topic]) == 0 {
				delete(h.clients, topic)
			}
			close(ch)
		})
	}

	return ch, unsub
}

// Publish sends an event to all subscribers on the given topic.
// Non-blocking: slow clients are skipped.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients[topic] {
		select {
		case ch <- event:
		default:
			// skip slow client
		}
	}
}

// Subscribers returns the number of listeners across all topics.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, subs := range h.clients {
		n += len(subs)
	}
	return n
}

// Close closes every subscriber channel. Later publishes are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for topic, subs := range h.clients {
		for ch := range subs {
			close(ch)
		}
		delete(h.clients, topic)
	}
}
