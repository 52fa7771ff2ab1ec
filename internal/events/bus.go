// Package events provides the in-process event bus that connects modules
// to the SSE stream and the WebSocket hub.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	AllocationUpdated   EventType = "ALLOCATION_UPDATED"
	SnapshotIngested    EventType = "SNAPSHOT_INGESTED"
	EvaluationCompleted EventType = "EVALUATION_COMPLETED"
	DriftStatusChanged  EventType = "DRIFT_STATUS_CHANGED"
	SettingsChanged     EventType = "SETTINGS_CHANGED"
	BackupCompleted     EventType = "BACKUP_COMPLETED"
	ErrorOccurred       EventType = "ERROR_OCCURRED"
)

// AllTypes returns every event type the bus can carry, used by stream
// endpoints that subscribe to everything.
func AllTypes() []EventType {
	return []EventType{
		AllocationUpdated,
		SnapshotIngested,
		EvaluationCompleted,
		DriftStatusChanged,
		SettingsChanged,
		BackupCompleted,
		ErrorOccurred,
	}
}

// Event represents a system event
type Event struct {
	Type      EventType   `json:"type"`
	Module    string      `json:"module"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Handler receives published events. Handlers run on the publisher's
// goroutine and must not block; stream endpoints buffer internally.
type Handler func(*Event)

// Bus fans events out to subscribers and logs every publication.
type Bus struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[EventType]map[int]Handler
	log         zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[EventType]map[int]Handler),
		log:         log.With().Str("service", "events").Logger(),
	}
}

// Subscribe registers a handler for an event type and returns a
// subscription ID for Unsubscribe.
func (b *Bus) Subscribe(eventType EventType, handler Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	if b.subscribers[eventType] == nil {
		b.subscribers[eventType] = make(map[int]Handler)
	}
	b.subscribers[eventType][b.nextID] = handler

	return b.nextID
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (b *Bus) Unsubscribe(eventType EventType, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if handlers, ok := b.subscribers[eventType]; ok {
		delete(handlers, id)
	}
}

// Publish emits a typed event to all subscribers of its type.
func (b *Bus) Publish(module string, data EventData) {
	event := &Event{
		Type:      data.EventType(),
		Module:    module,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.log.Debug().
		Str("event_type", string(event.Type)).
		Str("module", module).
		Msg("Event published")

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers[event.Type]))
	for _, h := range b.subscribers[event.Type] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// PublishError emits an ErrorOccurred event.
func (b *Bus) PublishError(module string, err error, context map[string]interface{}) {
	b.Publish(module, &ErrorData{
		Error:   err.Error(),
		Context: context,
	})
}
