// Package analytics defines the fire-and-forget event stream the engine emits
// and the bounded asynchronous pipeline that delivers it. Sinks are external
// collaborators: their failures are logged by the caller and never abort the
// operation that produced the event.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the engine.
const (
	EventDocumentAdded   = "document_added"
	EventDocumentDeleted = "document_deleted"
	EventBatchAdded      = "documents_batch_added"
	EventSearchPerformed = "search_performed"
	EventIndexOptimized  = "index_optimized"
)

// Event is a single analytics record.
type Event struct {
	ID         string
	Type       string
	EntityID   string
	EntityType string
	Data       map[string]any
	Timestamp  time.Time
}

// NewEvent builds an event with a fresh id and the current timestamp.
func NewEvent(eventType, entityID, entityType string, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		EntityID:   entityID,
		EntityType: entityType,
		Data:       data,
		Timestamp:  time.Now().UTC(),
	}
}

// Sink receives engine events.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event Event) error

// Record calls f.
func (f SinkFunc) Record(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Noop discards every event.
type Noop struct{}

// Record implements Sink.
func (Noop) Record(context.Context, Event) error { return nil }

// Memory collects events in order for inspection in tests.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// Record implements Sink.
func (m *Memory) Record(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Len returns the number of recorded events.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

var (
	_ Sink = (SinkFunc)(nil)
	_ Sink = Noop{}
	_ Sink = (*Memory)(nil)
)
