// Package notify fans out mode completion events to per-user subscribers.
package notify

import (
	"sync"

	"campus/companion/internal/model"
)

const subscriberBuffer = 8

type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan model.ModeEvent
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan model.ModeEvent)}
}

// Subscribe returns a channel of events for userID and a cancel func that
// must be called once the subscriber is done. Cancel closes the channel.
func (h *Hub) Subscribe(userID string) (<-chan model.ModeEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan model.ModeEvent, subscriberBuffer)
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan model.ModeEvent)
	}
	h.subs[userID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers event to every subscriber of event.UserID without
// blocking. It returns how many subscribers dropped the event because their
// buffer was full.
func (h *Hub) Publish(event model.ModeEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for _, ch := range h.subs[event.UserID] {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}
	return dropped
}

func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
