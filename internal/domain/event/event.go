package event

import (
	"time"

	"github.com/google/uuid"

	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
)

// Payload keys shared by publishers and handlers
const (
	KeyFromStatus = "from_status"
	KeyToStatus   = "to_status"
	KeyTrigger    = "trigger"
	KeyReason     = "reason"
	KeyFileName   = "file_name"
)

// Event represents a domain event about one conference request
type Event struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	RequestID int64                  `json:"request_id"`
	Actor     string                 `json:"actor"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent creates a new domain event with a random ID and the current time
func NewEvent(eventType Type, requestID int64, actor string, payload map[string]interface{}) *Event {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Actor:     actor,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewStatusChanged records a workflow transition
func NewStatusChanged(requestID int64, actor string, from, to domainwf.State, trigger domainwf.Trigger) *Event {
	return NewEvent(TypeStatusChanged, requestID, actor, map[string]interface{}{
		KeyFromStatus: string(from),
		KeyToStatus:   string(to),
		KeyTrigger:    string(trigger),
	})
}

// WithPayload returns a copy of the event with key set to value
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	clone := *e
	clone.Payload = payload
	return &clone
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// ToStatus returns the destination status of a status_changed event
func (e *Event) ToStatus() domainwf.State {
	return domainwf.State(e.GetPayloadString(KeyToStatus))
}

// FromStatus returns the source status of a status_changed event
func (e *Event) FromStatus() domainwf.State {
	return domainwf.State(e.GetPayloadString(KeyFromStatus))
}
