package bridge

import (
	"sync"
	"time"

	"heatzy_bridge/internal/logger"
	"heatzy_bridge/internal/models"
)

// ChangeKind tells subscribers what happened to an endpoint.
type ChangeKind string

const (
	ChangeState   ChangeKind = "state"
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
)

// Change is a notification pushed to the hosts.
type Change struct {
	Kind       ChangeKind  `json:"kind"`
	EndpointID string      `json:"endpoint_id"`
	DeviceID   string      `json:"device_id"`
	Name       string      `json:"name"`
	Mode       models.Mode `json:"mode"`
	On         bool        `json:"on"`
	At         time.Time   `json:"at"`
}

// Hub fans out endpoint changes to any number of subscribers. A slow
// subscriber loses notifications instead of blocking the publisher.
type Hub struct {
	log *logger.Logger

	mu   sync.RWMutex
	subs map[uint64]chan Change
	next uint64
}

// NewHub returns a hub with no subscribers.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:  logger.OrNop(log),
		subs: make(map[uint64]chan Change),
	}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// function unsubscribes and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers c to every subscriber without blocking.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- c:
		default:
			h.log.Warnw("hub_subscriber_lagging", "subscriber", id, "endpoint_id", c.EndpointID)
		}
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
