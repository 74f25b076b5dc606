// Package protocol defines the newline-delimited JSON messages spoken
// by companion clients and the internal Kafka message formats.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType represents the type of message
type MessageType string

const (
	// Client to Server
	MsgTypeIdentify    MessageType = "identify"
	MsgTypeObservation MessageType = "observation"
	MsgTypeAction      MessageType = "action"
	MsgTypeKeepalive   MessageType = "keepalive"

	// Server to Client
	MsgTypeAck MessageType = "ack"
)

// BaseMessage is the common structure for all messages
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// IdentifyMessage is sent by the client on connection. SessionID may be
// empty; the gateway assigns one and returns it in the ack.
type IdentifyMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	UserID    string      `json:"user_id"`
}

// ObservationData carries one resolved UV reading plus the
// environmental attributes the collaborator resolved for the fix.
// The engine never fetches weather itself.
type ObservationData struct {
	Timestamp      string  `json:"timestamp"`
	UVIndex        int     `json:"uv_index"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AltitudeMeters float64 `json:"altitude_meters"`
	CloudCoverPct  float64 `json:"cloud_cover_pct"`

	SnowType        string  `json:"snow_type,omitempty"`
	SnowCoveragePct float64 `json:"snow_coverage_pct,omitempty"`
	SnowDepthCm     float64 `json:"snow_depth_cm,omitempty"`
	SnowAgeDays     int     `json:"snow_age_days,omitempty"`
	SnowRecentFall  bool    `json:"snow_recent_fall,omitempty"`

	WaterBodyType       string  `json:"water_body_type,omitempty"`
	WaterSize           string  `json:"water_size,omitempty"`
	WaterDistanceMeters float64 `json:"water_distance_meters,omitempty"`

	Terrain string `json:"terrain,omitempty"`
}

// ObservationMessage is sent by the client whenever its weather
// collaborator resolves a fresh UV reading.
type ObservationMessage struct {
	Type MessageType     `json:"type"`
	Data ObservationData `json:"data"`
}

// Timer actions a client can request.
const (
	ActionStart           = "start"
	ActionPause           = "pause"
	ActionResume          = "resume"
	ActionReset           = "reset"
	ActionApplySunscreen  = "apply_sunscreen"
	ActionCancelSunscreen = "cancel_sunscreen"
)

// ActionMessage is sent by the client for a user timer action.
type ActionMessage struct {
	Type   MessageType `json:"type"`
	Action string      `json:"action"`
}

// KeepaliveMessage is sent by the client every 30-60 seconds
type KeepaliveMessage struct {
	Type MessageType `json:"type"`
}

// AckMessage is sent by the server in response to messages
type AckMessage struct {
	Type      MessageType `json:"type"`
	Status    string      `json:"status"`
	SessionID string      `json:"session_id,omitempty"`
}

// AckStatus constants
const (
	AckStatusIdentified = "identified"
	AckStatusAccepted   = "accepted"
	AckStatusAlive      = "alive"
	AckStatusError      = "error"
)

// ParseMessage parses a JSON line into the appropriate message type
func ParseMessage(data []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch base.Type {
	case MsgTypeIdentify:
		var msg IdentifyMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("invalid identify message: %w", err)
		}
		if err := validateIdentify(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MsgTypeObservation:
		var msg ObservationMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("invalid observation message: %w", err)
		}
		if err := validateObservation(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MsgTypeAction:
		var msg ActionMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("invalid action message: %w", err)
		}
		if err := validateAction(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MsgTypeKeepalive:
		var msg KeepaliveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("invalid keepalive message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unknown message type: %s", base.Type)
	}
}

// validateIdentify validates an identify message
func validateIdentify(msg *IdentifyMessage) error {
	if msg.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	return nil
}

// validateObservation validates an observation message. The UV index is
// not range-checked here; the engine clamps out-of-range values rather
// than rejecting readings.
func validateObservation(msg *ObservationMessage) error {
	if msg.Data.Timestamp == "" {
		return fmt.Errorf("timestamp is required")
	}
	// Validate timestamp format
	if _, err := time.Parse(time.RFC3339, msg.Data.Timestamp); err != nil {
		return fmt.Errorf("invalid timestamp format (must be RFC3339): %w", err)
	}
	return nil
}

// validateAction validates an action message
func validateAction(msg *ActionMessage) error {
	switch msg.Action {
	case ActionStart, ActionPause, ActionResume, ActionReset, ActionApplySunscreen, ActionCancelSunscreen:
		return nil
	}
	return fmt.Errorf("unknown action: %s", msg.Action)
}

// EncodeMessage encodes a message to JSON
func EncodeMessage(msg interface{}) ([]byte, error) {
	return json.Marshal(msg)
}

// NewAckMessage creates a new acknowledgment message
func NewAckMessage(status string) *AckMessage {
	return &AckMessage{
		Type:   MsgTypeAck,
		Status: status,
	}
}
