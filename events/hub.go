package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Hub is the in-process pub/sub used by the kitchen SSE stream.
type Hub struct {
	log *log.Entry

	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{} // topic -> set(ch)
}

func NewHub(lg *log.Logger) *Hub {
	if lg == nil {
		lg = log.StandardLogger()
	}
	return &Hub{
		log:  lg.WithField("component", "event-hub"),
		subs: map[string]map[chan Event]struct{}{},
	}
}

// Subscribe registers a buffered channel on topics. The returned cancel
// func unregisters and closes the channel; it must be called exactly once.
func (h *Hub) Subscribe(topics []string, buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan Event, buf)

	h.mu.Lock()
	for _, t := range topics {
		if h.subs[t] == nil {
			h.subs[t] = map[chan Event]struct{}{}
		}
		h.subs[t][ch] = struct{}{}
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		for _, t := range topics {
			if set, ok := h.subs[t]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, t)
				}
			}
		}
		h.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber of ev.Topic without blocking.
func (h *Hub) Publish(_ context.Context, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[ev.Topic] {
		select {
		case ch <- ev:
		default:
			// slow consumer; it will catch up on its next fetch
			h.log.WithField("topic", ev.Topic).Debug("dropped event for slow subscriber")
		}
	}
}

// Subscribers returns the number of channels listening on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}
