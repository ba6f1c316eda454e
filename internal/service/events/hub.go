package events

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/staffbook/backend/internal/model/employee"
)

// Type names the kind of change carried by an Event.
type Type string

const (
	TypeCreated  Type = "created"
	TypeUpdated  Type = "updated"
	TypeDeleted  Type = "deleted"
	TypeReloaded Type = "reloaded"
)

// DefaultBuffer is the per-subscriber queue length used when none is configured.
const DefaultBuffer = 16

// Event describes one change to the collection.
type Event struct {
	ID         string             `json:"id"`
	Type       Type               `json:"type"`
	EmployeeID *int               `json:"employeeId,omitempty"`
	Employee   *employee.Employee `json:"employee,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Hub fans events out to live subscribers. Publish never blocks: a
// subscriber whose queue is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	next   uint64
	buffer int
}

// NewHub returns a hub whose subscriber queues hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[uint64]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers a new listener. The returned func unsubscribes and
// closes the channel; calling it more than once is safe.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

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

// Publish delivers evt to every subscriber with room in its queue.
func (h *Hub) Publish(evt Event) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- evt:
		default:
			log.Printf("[events] subscriber %d queue full, dropping %s event", id, evt.Type)
		}
	}
}

// Subscribers reports the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
