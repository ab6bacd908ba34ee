package memory

import (
	"context"
	"sync"

	"ontology-backend/application/ports"
	"ontology-backend/domain/events"
)

// EventLog records published events instead of sending them.
type EventLog struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

// NewEventLog creates an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Publish records one event.
func (l *EventLog) Publish(ctx context.Context, event events.DomainEvent) error {
	return l.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch records events in order.
func (l *EventLog) PublishBatch(ctx context.Context, evs []events.DomainEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evs...)
	return nil
}

// Events returns the recorded events.
func (l *EventLog) Events() []events.DomainEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]events.DomainEvent(nil), l.events...)
}

// Types returns the event type of every recorded event.
func (l *EventLog) Types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.GetEventType()
	}
	return out
}

// SearchIndex records indexed documents.
type SearchIndex struct {
	mu   sync.Mutex
	docs map[string]ports.SearchDocument
}

// NewSearchIndex creates an empty index.
func NewSearchIndex() *SearchIndex {
	return &SearchIndex{docs: map[string]ports.SearchDocument{}}
}

// Upsert stores docs by ID.
func (i *SearchIndex) Upsert(ctx context.Context, docs []ports.SearchDocument) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, d := range docs {
		i.docs[d.ID] = d
	}
	return nil
}

// Remove drops ids.
func (i *SearchIndex) Remove(ctx context.Context, collection string, ids []string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, id := range ids {
		delete(i.docs, id)
	}
	return nil
}

// Document returns the stored document of id.
func (i *SearchIndex) Document(id string) (ports.SearchDocument, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	d, ok := i.docs[id]
	return d, ok
}
