package stream

import (
	"sync"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
)

const subscriberBuffer = 256

// Hub fans committed events out to the subscribers of each session.
// Publishing never blocks: a subscriber whose buffer is full is dropped and
// must resync from the event log.
type Hub struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]chan game.ActionEvent
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan game.ActionEvent)}
}

// Subscribe registers a listener for sessionID. The returned cancel func
// unregisters it and closes the channel; calling it twice is safe.
func (h *Hub) Subscribe(sessionID string) (<-chan game.ActionEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	ch := make(chan game.ActionEvent, subscriberBuffer)
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[int]chan game.ActionEvent)
	}
	h.subs[sessionID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.remove(sessionID, id) })
	}
}

func (h *Hub) remove(sessionID string, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[sessionID][id]; ok {
		close(ch)
		delete(h.subs[sessionID], id)
		if len(h.subs[sessionID]) == 0 {
			delete(h.subs, sessionID)
		}
	}
}

// Publish delivers events, in order, to every subscriber of sessionID.
func (h *Hub) Publish(sessionID string, events []game.ActionEvent) {
	if len(events) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs[sessionID] {
		for _, ev := range events {
			select {
			case ch <- ev:
				continue
			default:
			}
			// slow consumer
			close(ch)
			delete(h.subs[sessionID], id)
			break
		}
	}
	if len(h.subs[sessionID]) == 0 {
		delete(h.subs, sessionID)
	}
}

// SubscriberCount returns the number of listeners of sessionID.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
