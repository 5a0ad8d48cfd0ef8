// Package hub fans accepted dots and control messages out to every connected
// event-stream subscriber.
//
// Each subscriber owns a buffered channel drained by its own delivery
// context. Broadcasts are best-effort: a full queue means that subscriber
// misses the message, never that other subscribers stall behind it. The hub
// performs no filtering of its own.
package hub

import (
	"sync"
	"sync/atomic"

	"pskprop/spot"
)

// Message types delivered to subscribers.
const (
	TypeSnapshot = "snapshot" // full replacement list: on connect and after a reset
	TypeAdd      = "add"      // one newly accepted dot
	TypeCount    = "count"    // new store size after an age sweep
)

// DefaultQueueSize bounds each subscriber queue. A subscriber that falls
// this far behind starts losing messages instead of growing without bound.
const DefaultQueueSize = 256

// Message is one tagged delivery to a subscriber.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// SnapshotPayload carries the full dot list for a snapshot message.
type SnapshotPayload struct {
	Dots []*spot.Dot `json:"dots"`
}

// CountPayload carries the store size for a count message.
type CountPayload struct {
	Count int `json:"count"`
}

// Subscriber is one registered consumer. The delivery context reads from C
// until it disconnects, then calls Hub.Unregister.
type Subscriber struct {
	ch chan Message
}

// C returns the subscriber's delivery channel.
func (s *Subscriber) C() <-chan Message {
	return s.ch
}

// Hub manages the subscriber set. Safe to call from the ingest and sweep
// goroutines while subscribers are served elsewhere; the per-subscriber
// channel is the cross-goroutine handoff.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	queueSize   int
	dropped     atomic.Uint64
}

// New creates a hub with the given per-subscriber queue size (non-positive
// falls back to DefaultQueueSize).
func New(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		queueSize:   queueSize,
	}
}

// Register adds a new subscriber and seeds its queue with a snapshot before
// any later broadcast can be observed. The snapshot function runs under the
// hub lock: a dot appended concurrently lands in the snapshot, the queue, or
// both, never neither. snapshot may be nil.
func (h *Hub) Register(snapshot func() []*spot.Dot) *Subscriber {
	sub := &Subscriber{ch: make(chan Message, h.queueSize)}
	h.mu.Lock()
	defer h.mu.Unlock()
	var dots []*spot.Dot
	if snapshot != nil {
		dots = snapshot()
	}
	if dots == nil {
		dots = []*spot.Dot{}
	}
	sub.ch <- Message{Type: TypeSnapshot, Payload: SnapshotPayload{Dots: dots}}
	h.subscribers[sub] = struct{}{}
	return sub
}

// Unregister removes a subscriber. Idempotent; safe after disconnect races.
func (h *Hub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
}

// Broadcast enqueues a tagged message onto every current subscriber queue.
// Full queues drop the message for that subscriber only.
func (h *Hub) Broadcast(msgType string, payload any) {
	msg := Message{Type: msgType, Payload: payload}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers {
		select {
		case sub.ch <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

// SubscriberCount returns the number of registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped returns the cumulative number of messages lost to full queues.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
