package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// SessionEventMessage announces a session lifecycle change
type SessionEventMessage struct {
	Event     string    `json:"event"`
	UserID    string    `json:"userId,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSessionEventMessage creates a message stamped with the current time
func NewSessionEventMessage(event, userID, reason string) *SessionEventMessage {
	return &SessionEventMessage{
		Event:     event,
		UserID:    userID,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SessionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SessionEventMessageFromJSON decodes a message; the event name is required
func SessionEventMessageFromJSON(data []byte) (*SessionEventMessage, error) {
	var msg SessionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Event == "" {
		return nil, fmt.Errorf("session event message without event name")
	}
	return &msg, nil
}
