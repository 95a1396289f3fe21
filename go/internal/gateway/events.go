package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/racedash/go/internal/roster"
	"github.com/mcdev12/racedash/go/internal/timer"
)

// Event is the envelope of every message pushed to websocket clients
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType represents the type of a pushed event
type EventType string

const (
	EventTypeTimer    EventType = "timer"
	EventTypeRoster   EventType = "roster"
	EventTypeSnapshot EventType = "snapshot"
)

// RosterPayload is the rendered roster for one surface mode
type RosterPayload struct {
	Mode  roster.Mode `json:"mode"`
	HTML  string      `json:"html"`
	Count int         `json:"count"`
}

// SnapshotPayload carries a raw store value for clients that reconcile
// on their own. Value is null when the path is empty.
type SnapshotPayload struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
	Error string          `json:"error,omitempty"`
}

// NewEvent wraps payload in an envelope.
func NewEvent(eventType EventType, payload any, now time.Time) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: now,
		Data:      data,
	}, nil
}

// ParseEventPayload parses event data into the payload struct for its type
func ParseEventPayload(event *Event) (interface{}, error) {
	switch event.Type {
	case EventTypeTimer:
		var payload timer.View
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeRoster:
		var payload RosterPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeSnapshot:
		var payload SnapshotPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, nil // Unknown event type
	}
}
