package network

import (
	"encoding/json"

	"github.com/gravitas-games/cargoyard/internal/events"
	"github.com/gravitas-games/cargoyard/internal/world"
)

// Message types - Client → Server
const (
	MsgTypeWatch    = "watch"
	MsgTypeSnapshot = "snapshot"
	MsgTypePing     = "ping"
)

// Message types - Server → Client
const (
	MsgTypeWelcome    = "welcome"
	MsgTypeState      = "state"
	MsgTypeCargoEvent = "cargo_event"
	MsgTypeError      = "error"
	MsgTypePong       = "pong"
)

// ClientMessage represents any message from client to server
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage represents any message from server to client
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// --- Client Message Payloads ---

// WatchPayload narrows the event stream to some owners.
// An empty list means every carrier and station.
type WatchPayload struct {
	Owners []string `json:"owners"`
}

// --- Server Message Payloads ---

// WelcomePayload is sent to client after successful connection
type WelcomePayload struct {
	ObserverID string         `json:"observer_id"`
	Username   string         `json:"username"`
	Snapshot   world.Snapshot `json:"snapshot"`
}

// CargoEventPayload relays one occupancy, full or sale event
type CargoEventPayload struct {
	Event events.Event `json:"event"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
