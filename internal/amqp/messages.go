package amqp

import (
	"encoding/json"
	"time"
)

// SubmissionRecordedMessage announces a stored submission. It carries
// only identifiers; consumers fetch the full payload from the database.
type SubmissionRecordedMessage struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	EventID   string    `json:"eventId"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSubmissionRecordedMessage creates a message stamped with the current time.
func NewSubmissionRecordedMessage(id, kind, eventID string, version int64) *SubmissionRecordedMessage {
	return &SubmissionRecordedMessage{
		ID:        id,
		Kind:      kind,
		EventID:   eventID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SubmissionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SubmissionRecordedMessageFromJSON decodes a message body.
func SubmissionRecordedMessageFromJSON(data []byte) (*SubmissionRecordedMessage, error) {
	var msg SubmissionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
