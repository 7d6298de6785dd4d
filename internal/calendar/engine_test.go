package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localfirst-ai/hybrid-assistant/internal/events"
	"github.com/localfirst-ai/hybrid-assistant/internal/model"
	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
)

func newTestEngine() *Engine {
	return NewEngine(NewMemoryStore(), events.Noop{}, logger.NewNop())
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestCheckAvailabilityEmptyStore(t *testing.T) {
	e := newTestEngine()

	res, err := e.CheckAvailability(context.Background(), at(t, "2025-03-01T15:00:00Z"), 60)
	require.NoError(t, err)

	assert.True(t, res.Available)
	assert.Empty(t, res.Conflicts)
	assert.Empty(t, res.Suggestions)
}

func TestCheckAvailabilityDetectsOverlap(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	booked, err := e.Book(ctx, "Standup", at(t, "2025-03-01T15:00:00Z"), 60, nil, BookingMeta{})
	require.NoError(t, err)
	require.True(t, booked.Success)

	res, err := e.CheckAvailability(ctx, at(t, "2025-03-01T15:30:00Z"), 30)
	require.NoError(t, err)

	assert.False(t, res.Available)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "Standup", res.Conflicts[0].Title)
}

func TestSuggestionsAreConflictFreeAndForward(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	standup := at(t, "2025-03-01T15:00:00Z")
	_, err := e.Book(ctx, "Standup", standup, 60, nil, BookingMeta{})
	require.NoError(t, err)

	res, err := e.CheckAvailability(ctx, at(t, "2025-03-01T15:30:00Z"), 30)
	require.NoError(t, err)
	require.False(t, res.Available)
	require.NotEmpty(t, res.Suggestions)
	assert.LessOrEqual(t, len(res.Suggestions), 3)

	standupEnd := standup.Add(time.Hour)
	foundAfterStandup := false
	for _, s := range res.Suggestions {
		// Property 5: every suggestion is conflict-free against the store.
		check, err := e.CheckAvailability(ctx, s.Start, int(s.Duration().Minutes()))
		require.NoError(t, err)
		assert.True(t, check.Available, "suggestion %v conflicts with the store", s)

		if !s.Start.Before(standupEnd) {
			foundAfterStandup = true
		}
	}
	assert.True(t, foundAfterStandup, "at least one suggestion must start at or after the booked slot ends")
}

func TestSuggestionProbingSkipsBusyHours(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	// Fill 15:00-19:00 so the first probes all collide.
	for _, start := range []string{
		"2025-03-01T15:00:00Z",
		"2025-03-01T16:00:00Z",
		"2025-03-01T17:00:00Z",
		"2025-03-01T18:00:00Z",
	} {
		res, err := e.Book(ctx, "Busy", at(t, start), 60, nil, BookingMeta{})
		require.NoError(t, err)
		require.True(t, res.Success)
	}

	res, err := e.CheckAvailability(ctx, at(t, "2025-03-01T15:00:00Z"), 60)
	require.NoError(t, err)
	require.False(t, res.Available)
	require.Len(t, res.Suggestions, 3)

	// First free probe is 19:00, then 20:00, 21:00.
	assert.Equal(t, at(t, "2025-03-01T19:00:00Z"), res.Suggestions[0].Start)
	assert.Equal(t, at(t, "2025-03-01T20:00:00Z"), res.Suggestions[1].Start)
	assert.Equal(t, at(t, "2025-03-01T21:00:00Z"), res.Suggestions[2].Start)
}

func TestBookConflictResultShape(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	first, err := e.Book(ctx, "Standup", at(t, "2025-03-01T15:00:00Z"), 60, nil, BookingMeta{})
	require.NoError(t, err)
	require.True(t, first.Success)
	assert.Equal(t, int64(1), first.AppointmentID)
	assert.Equal(t, "Booked for March 01 at 03:00 PM", first.Message)

	second, err := e.Book(ctx, "Retro", at(t, "2025-03-01T15:30:00Z"), 60, nil, BookingMeta{})
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, "Slot not available", second.Message)
	require.Len(t, second.Conflicts, 1)
	assert.Equal(t, first.AppointmentID, second.Conflicts[0].ID)
}

func TestBookRejectsInvalidInterval(t *testing.T) {
	e := newTestEngine()

	_, err := e.Book(context.Background(), "Nothing", at(t, "2025-03-01T15:00:00Z"), 0, nil, BookingMeta{})
	assert.ErrorIs(t, err, model.ErrInvalidInterval)
}

func TestBookAcceptsPastDates(t *testing.T) {
	e := newTestEngine()

	res, err := e.Book(context.Background(), "Backfilled call", at(t, "2001-01-01T10:00:00Z"), 30, nil, BookingMeta{SourceCallID: "CA123"})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestCancelledAppointmentsDoNotConflict(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	res, err := e.Book(ctx, "Standup", at(t, "2025-03-01T15:00:00Z"), 60, nil, BookingMeta{})
	require.NoError(t, err)
	require.NoError(t, e.Cancel(ctx, res.AppointmentID))

	check, err := e.CheckAvailability(ctx, at(t, "2025-03-01T15:00:00Z"), 60)
	require.NoError(t, err)
	assert.True(t, check.Available)
}

func TestIdentifiersAreMonotonic(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		start := at(t, "2025-03-03T09:00:00Z").Add(time.Duration(i) * 2 * time.Hour)
		res, err := e.Book(ctx, "Slot", start, 60, nil, BookingMeta{})
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Greater(t, res.AppointmentID, last)
		last = res.AppointmentID
	}
}
