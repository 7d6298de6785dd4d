package model

import (
	"time"
)

// SessionContext is the last-known conversational state for a session.
// It is overwritten whole on every successful dispatch.
type SessionContext struct {
	LastIntent   *Intent   `json:"last_intent,omitempty"`
	LastResponse string    `json:"last_response,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}
