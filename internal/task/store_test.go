package task

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localfirst-ai/hybrid-assistant/internal/events"
	"github.com/localfirst-ai/hybrid-assistant/internal/model"
	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
)

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.Create(ctx, "Fix the fence", "", nil)
	require.NoError(t, err)
	second, err := s.Create(ctx, "Paint the shed", "two coats", nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, StatusOpen, first.Status)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestCreateRequiresTitle(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Create(context.Background(), "", "desc", nil)
	assert.Error(t, err)
	assert.Empty(t, s.List())
}

func TestCreateAcceptsPastDueDate(t *testing.T) {
	s := NewMemoryStore()

	due := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	created, err := s.Create(context.Background(), "Overdue already", "", &due)
	require.NoError(t, err)
	require.NotNil(t, created.DueDate)
	assert.True(t, created.DueDate.Equal(due))
}

func TestProgressTimelineOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, err := s.Create(ctx, "Fix the fence", "", nil)
	require.NoError(t, err)

	require.NoError(t, s.UpdateProgress(ctx, created.ID, model.MediaAnalysis{
		Description:      "fence posts set",
		TaskType:         "repair",
		CompletionStatus: "in_progress",
	}))
	require.NoError(t, s.UpdateProgress(ctx, created.ID, model.MediaAnalysis{
		Description:      "panels attached",
		TaskType:         "repair",
		CompletionStatus: "complete",
	}))

	timeline, err := s.Timeline(created.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, "fence posts set", timeline[0].Description)
	assert.Equal(t, "panels attached", timeline[1].Description)
	assert.Equal(t, "complete", timeline[1].CompletionStatus)
}

func TestProgressOnUnknownTask(t *testing.T) {
	s := NewMemoryStore()

	err := s.UpdateProgress(context.Background(), 42, model.MediaAnalysis{Description: "x"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	ctx := context.Background()

	s, err := Open(path, events.Noop{}, logger.NewNop())
	require.NoError(t, err)

	created, err := s.Create(ctx, "Fix the fence", "north side", nil)
	require.NoError(t, err)
	require.NoError(t, s.UpdateProgress(ctx, created.ID, model.MediaAnalysis{
		Description: "posts set", CompletionStatus: "in_progress",
	}))

	reopened, err := Open(path, events.Noop{}, logger.NewNop())
	require.NoError(t, err)

	loaded, err := reopened.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fix the fence", loaded.Title)
	assert.Equal(t, "north side", loaded.Description)
	require.Len(t, loaded.Progress, 1)

	next, err := reopened.Create(ctx, "Another", "", nil)
	require.NoError(t, err)
	assert.Greater(t, next.ID, created.ID)
}

func TestPersistFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	s := NewMemoryStore()
	s.path = dir

	_, err := s.Create(context.Background(), "Doomed", "", nil)
	require.Error(t, err)
	assert.True(t, model.IsStorageError(err))
	assert.Empty(t, s.List())

	s.path = ""
	created, err := s.Create(context.Background(), "Retry", "", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}
