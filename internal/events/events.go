// Package events describes record lifecycle events and publishes them.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
)

// Type names a lifecycle event.
type Type string

// Event types
const (
	DishCreated  Type = "dish.created"
	DishUpdated  Type = "dish.updated"
	DishDeleted  Type = "dish.deleted"
	OrderCreated Type = "order.created"
	OrderUpdated Type = "order.updated"
	OrderDeleted Type = "order.deleted"
)

// Event is the message body sent for every successful mutation.
type Event struct {
	Type       Type            `json:"type"`
	EntityID   string          `json:"entity_id"`
	RequestID  string          `json:"request_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// New builds an event carrying a JSON snapshot of record.
func New(typ Type, entityID, requestID string, record any) (Event, error) {
	ev := Event{
		Type:       typ,
		EntityID:   entityID,
		RequestID:  requestID,
		OccurredAt: time.Now().UTC(),
	}
	if record != nil {
		data, err := json.Marshal(record)
		if err != nil {
			return Event{}, errors.Wrap(err, "marshal record")
		}
		ev.Data = data
	}
	return ev, nil
}

// Encode renders ev as a message body.
func Encode(ev Event) (string, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return "", errors.Wrap(err, "encode event")
	}
	return string(b), nil
}

// Attributes are the message attributes routed on by consumers. Empty
// values are omitted.
func (ev Event) Attributes() map[string]string {
	attrs := map[string]string{
		"event_type": string(ev.Type),
		"entity_id":  ev.EntityID,
	}
	if ev.RequestID != "" {
		attrs["request_id"] = ev.RequestID
	}
	return attrs
}

// Decode parses a message body produced by Encode.
func Decode(body string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(body), &ev); err != nil {
		return Event{}, errors.Wrap(err, "decode event")
	}
	if ev.Type == "" || ev.EntityID == "" {
		return Event{}, errors.New("event type and entity id are required")
	}
	return ev, nil
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) error { return nil }
