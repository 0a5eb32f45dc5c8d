package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"
)

const photoEventsTable = "photo_events"

// RealtimeClient publishes photo events by inserting rows into photo_events.
// Supabase Realtime fans inserts out to subscribed clients, scoped by the
// table's row level security policy.
type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

// NewPhotoEventRow builds the row inserted for an event. Payload is never nil.
func NewPhotoEventRow(ownerID, photoID, event string, payload map[string]interface{}, at time.Time) map[string]interface{} {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return map[string]interface{}{
		"photo_id":   photoID,
		"user_id":    ownerID,
		"event":      event,
		"payload":    payload,
		"created_at": at.UTC().Format(time.RFC3339Nano),
	}
}

func (r *RealtimeClient) PublishPhotoEvent(ctx context.Context, ownerID, photoID, event string, payload map[string]interface{}) error {
	row := NewPhotoEventRow(ownerID, photoID, event, payload, time.Now())
	_, _, err := r.client.From(photoEventsTable).Insert(row, false, "", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to insert photo event: %w", err)
	}
	return nil
}
