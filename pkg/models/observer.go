package models

import "time"

// Observer is an authenticated client watching the cargo simulation
type Observer struct {
	// From JWT claims
	ID          string `json:"id"`          // Converted from int64 user_id
	Username    string `json:"username"`    // JWT claim
	Permissions int64  `json:"permissions"` // JWT claim: bitwise permission flags
	Activated   int64  `json:"activated"`   // JWT claim: activation timestamp or ban status

	// Connection state
	ConnectionID string    `json:"connection_id"`
	Connected    bool      `json:"connected"`
	ConnectedAt  time.Time `json:"connected_at"`

	// Owners this observer filters events to; empty means all
	Watching []string `json:"watching,omitempty"`
}

// Anonymous builds an observer for servers running without authentication
func Anonymous(connectionID string) *Observer {
	return &Observer{ID: "anonymous", Username: "anonymous", Activated: 1, ConnectionID: connectionID}
}

// IsActive checks if the account is activated and not banned
func (o *Observer) IsActive() bool {
	// activated > 0 means activated
	// activated == 0 means not activated
	// activated == -1 means banned
	return o.Activated > 0
}

// IsBanned checks if the account is banned
func (o *Observer) IsBanned() bool {
	return o.Activated == -1
}

// Watches reports whether events of owner should be delivered
func (o *Observer) Watches(owner string) bool {
	if len(o.Watching) == 0 {
		return true
	}
	for _, w := range o.Watching {
		if w == owner {
			return true
		}
	}
	return false
}
