package protocol

import (
	"encoding/json"
	"time"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/notify"
)

// EventKind distinguishes the two client events the gateway forwards.
type EventKind string

const (
	EventKindObservation EventKind = "observation"
	EventKindAction      EventKind = "action"
)

// EventMessage is the internal message format for the observations
// topic. Messages are keyed by SessionID so one engine partition owns
// each session.
type EventMessage struct {
	SessionID   string           `json:"session_id"`
	UserID      string           `json:"user_id"`
	ReceivedAt  time.Time        `json:"received_at"`
	Kind        EventKind        `json:"kind"`
	Observation *ObservationData `json:"observation,omitempty"`
	Action      string           `json:"action,omitempty"`
}

// ParsedObservation contains the observation data with parsed timestamp
type ParsedObservation struct {
	Timestamp time.Time
	Data      ObservationData
}

// Parse converts ObservationData to ParsedObservation
func (o *ObservationData) Parse() (*ParsedObservation, error) {
	ts, err := time.Parse(time.RFC3339, o.Timestamp)
	if err != nil {
		return nil, err
	}

	return &ParsedObservation{
		Timestamp: ts,
		Data:      *o,
	}, nil
}

// NotificationEnvelope is the message format for the notifications
// topic. It pairs a notification with the session that produced it so
// downstream consumers can route and record it.
type NotificationEnvelope struct {
	SessionID    string                    `json:"session_id"`
	UserID       string                    `json:"user_id"`
	EmittedAt    time.Time                 `json:"emitted_at"`
	Notification *notify.SmartNotification `json:"notification"`
}

// EncodeEventMessage encodes an EventMessage to JSON
func EncodeEventMessage(msg *EventMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeEventMessage decodes JSON to EventMessage
func DecodeEventMessage(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EncodeNotificationEnvelope encodes a NotificationEnvelope to JSON
func EncodeNotificationEnvelope(env *NotificationEnvelope) ([]byte, error) {
	return json.Marshal(env)
}

// DecodeNotificationEnvelope decodes JSON to NotificationEnvelope
func DecodeNotificationEnvelope(data []byte) (*NotificationEnvelope, error) {
	var env NotificationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
