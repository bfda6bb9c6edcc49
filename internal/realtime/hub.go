// AngelaMos | 2026
// hub.go

package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const DefaultSendBuffer = 64

// Hub fans every published event out to all connected subscribers. Each
// subscriber owns a bounded queue; one that cannot keep up is dropped
// instead of slowing the publisher down.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscription
	bufferSize  int
	logger      *slog.Logger
}

func NewHub(bufferSize int, logger *slog.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultSendBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscribers: make(map[string]*Subscription),
		bufferSize:  bufferSize,
		logger:      logger,
	}
}

type Subscription struct {
	ID string

	hub    *Hub
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

// Events yields encoded frames in publish order. The channel is closed when
// the subscription is closed or dropped for falling behind.
func (s *Subscription) Events() <-chan []byte {
	return s.ch
}

func (s *Subscription) Close() {
	s.hub.remove(s.ID)
	s.shutdown()
}

// deliver reports whether the frame was queued and whether the
// subscription was still open.
func (s *Subscription) deliver(frame []byte) (queued, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, false
	}

	select {
	case s.ch <- frame:
		return true, true
	default:
		return false, true
	}
}

func (s *Subscription) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		ID:  uuid.New().String(),
		hub: h,
		ch:  make(chan []byte, h.bufferSize),
	}

	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	h.mu.Unlock()

	return sub
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.subscribers, id)
	h.mu.Unlock()
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers)
}

// Publish encodes payload once and enqueues it for every subscriber present
// when the call starts. It returns the number of subscribers that accepted
// the event.
func (h *Hub) Publish(topic Topic, payload any) int {
	event, err := NewEvent(string(topic), payload)
	if err != nil {
		h.logger.Error("encode realtime event",
			"topic", topic,
			"error", err,
		)
		return 0
	}

	frame, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode realtime frame",
			"topic", topic,
			"error", err,
		)
		return 0
	}

	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		queued, open := sub.deliver(frame)
		if queued {
			delivered++
			continue
		}
		if !open {
			continue
		}

		h.remove(sub.ID)
		sub.shutdown()
		h.logger.Warn("dropped slow realtime subscriber",
			"subscriber", sub.ID,
			"topic", topic,
		)
	}

	return delivered
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[string]*Subscription)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
}
