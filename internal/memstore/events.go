package memstore

import (
	"context"
	"sync"
)

type Event struct {
	OwnerID string
	PhotoID string
	Name    string
	Payload map[string]interface{}
}

// EventLog records published photo events in order.
type EventLog struct {
	mu     sync.Mutex
	events []Event

	FailWith error
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

func (l *EventLog) PublishPhotoEvent(ctx context.Context, ownerID, photoID, event string, payload map[string]interface{}) error {
	if l.FailWith != nil {
		return l.FailWith
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, Event{OwnerID: ownerID, PhotoID: photoID, Name: event, Payload: payload})
	return nil
}

func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// Names returns the event names in publish order.
func (l *EventLog) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, len(l.events))
	for i, e := range l.events {
		names[i] = e.Name
	}
	return names
}
