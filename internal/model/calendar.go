// Package model defines data structures for the assistant core.
package model

import (
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval builds an interval from a start time and a duration in minutes.
func NewInterval(start time.Time, durationMinutes int) (Interval, error) {
	iv := Interval{Start: start, End: start.Add(time.Duration(durationMinutes) * time.Minute)}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate rejects empty or inverted intervals.
func (iv Interval) Validate() error {
	if !iv.Start.Before(iv.End) {
		return ErrInvalidInterval
	}
	return nil
}

// Overlaps reports whether two half-open intervals intersect.
// Touching endpoints ([a,b) and [b,c)) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a committed calendar interval. Identity is the ID,
// assigned at creation and immutable. Cancelled appointments are retained
// and excluded from conflict checks.
type Appointment struct {
	ID           int64             `json:"id"`
	Title        string            `json:"title"`
	Interval     Interval          `json:"interval"`
	Attendees    []string          `json:"attendees,omitempty"`
	Status       AppointmentStatus `json:"status"`
	SourceCallID string            `json:"source_call_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// AppointmentSummary identifies a conflicting appointment in results.
type AppointmentSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// AvailabilityWindow defines recurring weekly working hours. Read by the
// engine; suggestion probing does not consult it in this version.
type AvailabilityWindow struct {
	DayOfWeek     int    `json:"day_of_week"` // 0 = Sunday .. 6 = Saturday
	Open          string `json:"open"`        // "09:00"
	Close         string `json:"close"`       // "17:00"
	BufferMinutes int    `json:"buffer_minutes"`
}

// AvailabilityResult is the outcome of a conflict check.
type AvailabilityResult struct {
	Available   bool                 `json:"available"`
	Conflicts   []AppointmentSummary `json:"conflicts"`
	Suggestions []Interval           `json:"suggestions"`
}

// BookingResult is the outcome of a booking attempt. A conflict is a
// structured non-success, not an error.
type BookingResult struct {
	Success       bool                 `json:"success"`
	AppointmentID int64                `json:"appointment_id,omitempty"`
	Message       string               `json:"message"`
	Conflicts     []AppointmentSummary `json:"conflicts,omitempty"`
}
