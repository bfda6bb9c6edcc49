// AngelaMos | 2026
// event.go

package realtime

import (
	"encoding/json"
)

type Topic string

const (
	TopicMessageNew       Topic = "message-new"
	TopicMeetupCreated    Topic = "meetup-created"
	TopicBusinessApproved Topic = "business-approved"
	TopicPostApproved     Topic = "post-approved"
	TopicSettingsChanged  Topic = "settings-changed"
	TopicPlansChanged     Topic = "plans-changed"
)

// Client frame types that are not broadcast topics.
const (
	FrameMessageSend = "message-send"
	FrameError       = "error"
)

// Event is the wire frame for both directions of the realtime channel.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: raw}, nil
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SendPayload struct {
	Author string `json:"author,omitempty"`
	Text   string `json:"text"`
}

// Publisher is what services depend on to announce state changes.
type Publisher interface {
	Publish(topic Topic, payload any) int
}
