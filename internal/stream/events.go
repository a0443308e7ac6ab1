package stream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/brandoncintron/power-projects-sub000/internal/models"
)

// Event type constants for the stream wire protocol
const (
	EventTypeConnection  = "connection"   // Liveness ping
	EventTypeInitialData = "initial_data" // One-time snapshot, sent before any new_activity
	EventTypeNewActivity = "new_activity" // One freshly ingested record
)

// Event is one JSON message on the activity stream, discriminated by Type.
// Exactly one of Message, Activities, or Activity is populated.
type Event struct {
	Type       string            `json:"type"`
	Message    string            `json:"message,omitempty"`
	Activities []models.Activity `json:"activities"`
	Activity   *models.Activity  `json:"activity,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewConnectionEvent builds a liveness ping
func NewConnectionEvent(message string) Event {
	return Event{
		Type:      EventTypeConnection,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// NewInitialDataEvent builds the once-per-connection snapshot message.
// An empty slice (not null) is sent when the project has no activity yet.
func NewInitialDataEvent(activities []models.Activity) Event {
	if activities == nil {
		activities = []models.Activity{}
	}
	return Event{
		Type:       EventTypeInitialData,
		Activities: activities,
		Timestamp:  time.Now().UTC(),
	}
}

// NewActivityEvent builds the per-record broadcast message
func NewActivityEvent(activity models.Activity) Event {
	return Event{
		Type:      EventTypeNewActivity,
		Activity:  &activity,
		Timestamp: time.Now().UTC(),
	}
}

// Encode serializes the event as a single SSE data frame
func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode stream event: %w", err)
	}
	return []byte(fmt.Sprintf("data: %s\n\n", data)), nil
}
