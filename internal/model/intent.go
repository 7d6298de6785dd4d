package model

import (
	"time"
)

// IntentType tags the structured interpretation of an utterance.
type IntentType string

const (
	IntentCheckAvailability IntentType = "check_availability"
	IntentBookAppointment   IntentType = "book_appointment"
	IntentCreateTask        IntentType = "create_task"
	IntentCancelAppointment IntentType = "cancel_appointment"
	IntentUnknown           IntentType = "unknown"
)

// IntentSource identifies which resolution path produced an intent.
type IntentSource string

const (
	SourceLocal    IntentSource = "local"
	SourceRemote   IntentSource = "remote"
	SourceFallback IntentSource = "fallback"
)

// Intent is the tagged interpretation of an utterance. Confidence values
// are fixed per source: 0.8 for a structured parse, 0.5 for a keyword
// fallback match, 0.3 for an unmatched fallback. No calibration is
// attempted.
type Intent struct {
	Type            IntentType   `json:"intent"`
	Datetime        *time.Time   `json:"datetime,omitempty"`
	DurationMinutes int          `json:"duration_minutes,omitempty"`
	Title           string       `json:"title,omitempty"`
	Description     string       `json:"description,omitempty"`
	DueDate         *time.Time   `json:"due_date,omitempty"`
	Attendees       []string     `json:"attendees,omitempty"`
	AppointmentID   int64        `json:"appointment_id,omitempty"`
	Confidence      float64      `json:"confidence"`
	Source          IntentSource `json:"source"`
}

// DispatchResult is the terminal reply of the dispatch loop. Execution
// outcomes always report Success=true; only infrastructure failures set
// Success=false with an error string.
type DispatchResult struct {
	Success  bool    `json:"success"`
	Response string  `json:"response,omitempty"`
	Intent   *Intent `json:"intent,omitempty"`
	Error    string  `json:"error,omitempty"`
}
