package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localfirst-ai/hybrid-assistant/internal/model"
)

func TestGetUnknownSessionReturnsZeroContext(t *testing.T) {
	s := NewStore()

	ctx := s.Get("nope")
	assert.Nil(t, ctx.LastIntent)
	assert.Empty(t, ctx.LastResponse)
	assert.True(t, ctx.UpdatedAt.IsZero())
}

func TestUpdateOverwritesWhole(t *testing.T) {
	s := NewStore()

	s.Update("s1", &model.Intent{Type: model.IntentCheckAvailability}, "Yes, that works.")
	s.Update("s1", nil, "Anything else?")

	ctx := s.Get("s1")
	assert.Nil(t, ctx.LastIntent, "stale intent must not survive an overwrite")
	assert.Equal(t, "Anything else?", ctx.LastResponse)
	assert.False(t, ctx.UpdatedAt.IsZero())
	assert.Equal(t, 1, s.Len())
}

func TestSessionsAreIsolated(t *testing.T) {
	s := NewStore()

	s.Update("alice", &model.Intent{Type: model.IntentCreateTask}, "Task created with ID 1.")
	s.Update("bob", &model.Intent{Type: model.IntentBookAppointment}, "Booked for March 01 at 03:00 PM")

	require.NotNil(t, s.Get("alice").LastIntent)
	assert.Equal(t, model.IntentCreateTask, s.Get("alice").LastIntent.Type)
	assert.Equal(t, model.IntentBookAppointment, s.Get("bob").LastIntent.Type)
}

func TestDelete(t *testing.T) {
	s := NewStore()

	s.Update("s1", nil, "hi")
	s.Delete("s1")
	s.Delete("s1")

	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Get("s1").UpdatedAt.IsZero())
}

func TestConcurrentUpdatesLastWriterWins(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Update("shared", nil, fmt.Sprintf("response-%d", i))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, s.Len())
	assert.NotEmpty(t, s.Get("shared").LastResponse)
}
