package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/localfirst-ai/hybrid-assistant/internal/events"
	"github.com/localfirst-ai/hybrid-assistant/internal/model"
	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
	"github.com/localfirst-ai/hybrid-assistant/pkg/metrics"
)

const (
	// suggestionLimit caps the number of alternatives returned.
	suggestionLimit = 3
	// suggestionStep is the probe interval when searching for alternatives.
	suggestionStep = time.Hour
	// suggestionHorizon bounds how far ahead alternatives are probed.
	suggestionHorizon = 7 * 24 * time.Hour
)

// Engine answers availability queries and performs race-safe bookings on
// top of the Store.
type Engine struct {
	store  *Store
	pub    events.Publisher
	logger *logger.Logger
}

// NewEngine creates an availability engine over the given store.
func NewEngine(store *Store, pub events.Publisher, log *logger.Logger) *Engine {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Engine{store: store, pub: pub, logger: log}
}

// CheckAvailability reports whether the proposed slot is free. On conflict
// it returns the colliding confirmed appointments and up to three
// alternative slots. Probing starts one hour after the proposed start and
// advances in one-hour steps over a seven-day horizon; probes do not
// consult availability windows.
func (e *Engine) CheckAvailability(ctx context.Context, start time.Time, durationMinutes int) (model.AvailabilityResult, error) {
	iv, err := model.NewInterval(start, durationMinutes)
	if err != nil {
		return model.AvailabilityResult{}, err
	}

	conflicts := e.store.ConflictsWith(iv)
	if len(conflicts) == 0 {
		return model.AvailabilityResult{
			Available:   true,
			Conflicts:   []model.AppointmentSummary{},
			Suggestions: []model.Interval{},
		}, nil
	}

	return model.AvailabilityResult{
		Available:   false,
		Conflicts:   conflicts,
		Suggestions: e.suggestAlternatives(start, durationMinutes),
	}, nil
}

// suggestAlternatives collects conflict-free probe slots. Each accepted
// suggestion is itself checked against the store at suggestion time.
func (e *Engine) suggestAlternatives(preferred time.Time, durationMinutes int) []model.Interval {
	suggestions := make([]model.Interval, 0, suggestionLimit)
	horizon := preferred.Add(suggestionHorizon)

	for probe := preferred.Add(suggestionStep); len(suggestions) < suggestionLimit && probe.Before(horizon); probe = probe.Add(suggestionStep) {
		iv, err := model.NewInterval(probe, durationMinutes)
		if err != nil {
			break
		}
		if len(e.store.ConflictsWith(iv)) == 0 {
			suggestions = append(suggestions, iv)
		}
	}
	return suggestions
}

// Book attempts to commit the proposed slot. A collision yields a
// non-success result carrying the conflicts, shaped like a failed
// availability check; it is not an error. Storage failures are.
func (e *Engine) Book(ctx context.Context, title string, start time.Time, durationMinutes int, attendees []string, meta BookingMeta) (model.BookingResult, error) {
	iv, err := model.NewInterval(start, durationMinutes)
	if err != nil {
		return model.BookingResult{}, err
	}

	if title == "" {
		title = "Appointment"
	}

	appt, conflicts, err := e.store.Book(title, iv, attendees, meta)
	if err != nil {
		metrics.BookingsTotal.WithLabelValues("error").Inc()
		return model.BookingResult{}, err
	}
	if appt == nil {
		metrics.BookingsTotal.WithLabelValues("conflict").Inc()
		metrics.BookingConflictsTotal.Inc()
		return model.BookingResult{
			Success:   false,
			Message:   "Slot not available",
			Conflicts: conflicts,
		}, nil
	}

	metrics.BookingsTotal.WithLabelValues("booked").Inc()

	// Journal entry is best-effort; the booking is already committed.
	if err := e.pub.Publish(ctx, events.SubjectBookingCreated, appt); err != nil {
		e.logger.Warn("failed to journal booking", zap.Int64("appointment_id", appt.ID), zap.Error(err))
	}

	return model.BookingResult{
		Success:       true,
		AppointmentID: appt.ID,
		Message:       fmt.Sprintf("Booked for %s", start.Format("January 02 at 03:04 PM")),
	}, nil
}

// Cancel soft-deletes an appointment and journals the cancellation.
func (e *Engine) Cancel(ctx context.Context, id int64) error {
	if err := e.store.Cancel(id); err != nil {
		return err
	}
	if err := e.pub.Publish(ctx, events.SubjectBookingCancelled, map[string]int64{"appointment_id": id}); err != nil {
		e.logger.Warn("failed to journal cancellation", zap.Int64("appointment_id", id), zap.Error(err))
	}
	return nil
}

// Windows exposes the configured availability windows.
func (e *Engine) Windows() []model.AvailabilityWindow {
	return e.store.Windows()
}
