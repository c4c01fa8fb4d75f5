// Package events provides in-process event distribution so dependent
// views can refresh when journal data changes. It is an explicit
// observer list: subscribers register callbacks, publishers fan out
// synchronously, and nothing couples the core to a UI event system.
package events

import (
	"sync"
	"time"
)

// Type identifies an event kind.
type Type string

const (
	// DataChanged signals that trades or reflections were modified.
	DataChanged Type = "data_changed"
	// ReflectionsGenerated signals a completed batch generation pass.
	ReflectionsGenerated Type = "reflections_generated"
	// ReflectionsDeduped signals a completed deduplication pass.
	ReflectionsDeduped Type = "reflections_deduped"
)

// Event carries a type, an optional payload, and a timestamp.
type Event struct {
	Type      Type
	Payload   map[string]interface{}
	Timestamp time.Time
}

// Handler is a subscriber callback.
type Handler func(Event)

// Bus fans events out to registered handlers. Handlers run synchronously
// on the publisher's goroutine; long-running work belongs elsewhere.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[Type]map[int]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Type]map[int]Handler)}
}

// Subscribe registers a handler for an event type and returns an
// unsubscribe function.
func (b *Bus) Subscribe(t Type, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[t] == nil {
		b.handlers[t] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.handlers[t][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[t], id)
	}
}

// Publish delivers the event to every handler subscribed to its type.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[e.Type]))
	for _, h := range b.handlers[e.Type] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// SubscriberCount returns the number of handlers for a type.
func (b *Bus) SubscriberCount(t Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[t])
}
