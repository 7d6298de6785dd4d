// Package task implements the persistent task ledger and its progress
// timeline.
package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/localfirst-ai/hybrid-assistant/internal/events"
	"github.com/localfirst-ai/hybrid-assistant/internal/model"
	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
	"github.com/localfirst-ai/hybrid-assistant/pkg/metrics"
)

const StatusOpen = "open"

// snapshot is the on-disk layout of the store.
type snapshot struct {
	NextID int64        `json:"next_id"`
	Tasks  []model.Task `json:"tasks"`
}

// Store persists tasks the same way the calendar does: an atomically
// replaced JSON snapshot written under the store lock, with rollback when
// the write fails.
type Store struct {
	mu     sync.RWMutex
	path   string // empty means memory-only (tests)
	nextID int64

	tasks map[int64]*model.Task

	pub    events.Publisher
	logger *logger.Logger
}

// Open loads (or initializes) a store backed by the snapshot at path.
func Open(path string, pub events.Publisher, log *logger.Logger) (*Store, error) {
	if pub == nil {
		pub = events.Noop{}
	}
	s := &Store{
		path:   path,
		nextID: 1,
		tasks:  make(map[int64]*model.Task),
		pub:    pub,
		logger: log,
	}

	if path != "" {
		if err := s.load(); err != nil {
			return nil, &model.StorageError{Op: "load task snapshot", Err: err}
		}
	}
	return s, nil
}

// NewMemoryStore returns a store with no snapshot file. Used by tests.
func NewMemoryStore() *Store {
	s, _ := Open("", events.Noop{}, logger.NewNop())
	return s
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("corrupt snapshot %s: %w", s.path, err)
	}

	s.nextID = snap.NextID
	if s.nextID < 1 {
		s.nextID = 1
	}
	for i := range snap.Tasks {
		t := snap.Tasks[i]
		s.tasks[t.ID] = &t
	}
	return nil
}

func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}

	snap := snapshot{
		NextID: s.nextID,
		Tasks:  make([]model.Task, 0, len(s.tasks)),
	}
	for _, t := range s.tasks {
		snap.Tasks = append(snap.Tasks, *t)
	}
	sort.Slice(snap.Tasks, func(i, j int) bool { return snap.Tasks[i].ID < snap.Tasks[j].ID })

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return &model.StorageError{Op: "encode task snapshot", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &model.StorageError{Op: "create data directory", Err: err}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &model.StorageError{Op: "write task snapshot", Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return &model.StorageError{Op: "replace task snapshot", Err: err}
	}
	return nil
}

// Create inserts a new task and returns it. Title is required; due dates
// are optional and may lie in the past.
func (s *Store) Create(ctx context.Context, title, description string, dueDate *time.Time) (*model.Task, error) {
	if title == "" {
		return nil, errors.New("task title is required")
	}

	s.mu.Lock()
	t := &model.Task{
		ID:          s.nextID,
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Status:      StatusOpen,
		CreatedAt:   time.Now(),
	}
	s.tasks[t.ID] = t
	s.nextID++

	if err := s.persistLocked(); err != nil {
		delete(s.tasks, t.ID)
		s.nextID--
		s.mu.Unlock()
		return nil, err
	}
	copied := *t
	s.mu.Unlock()

	metrics.TasksCreatedTotal.Inc()
	s.logger.Info("task created", zap.Int64("task_id", copied.ID), zap.String("title", title))

	if err := s.pub.Publish(ctx, events.SubjectTaskCreated, copied); err != nil {
		s.logger.Warn("task journal publish failed", zap.Error(err))
	}
	return &copied, nil
}

// UpdateProgress appends a progress entry derived from a media analysis to
// the task's timeline.
func (s *Store) UpdateProgress(ctx context.Context, id int64, analysis model.MediaAnalysis) error {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("task %d: %w", id, model.ErrNotFound)
	}

	entry := model.ProgressEntry{
		At:               time.Now(),
		Description:      analysis.Description,
		TaskType:         analysis.TaskType,
		CompletionStatus: analysis.CompletionStatus,
	}
	t.Progress = append(t.Progress, entry)

	if err := s.persistLocked(); err != nil {
		t.Progress = t.Progress[:len(t.Progress)-1]
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.logger.Info("task progress recorded",
		zap.Int64("task_id", id),
		zap.String("completion_status", analysis.CompletionStatus),
	)

	if err := s.pub.Publish(ctx, events.SubjectTaskProgress, struct {
		TaskID int64               `json:"task_id"`
		Entry  model.ProgressEntry `json:"entry"`
	}{TaskID: id, Entry: entry}); err != nil {
		s.logger.Warn("task journal publish failed", zap.Error(err))
	}
	return nil
}

// Get returns a task by ID.
func (s *Store) Get(id int64) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, model.ErrNotFound)
	}
	copied := *t
	copied.Progress = append([]model.ProgressEntry(nil), t.Progress...)
	return &copied, nil
}

// Timeline returns the progress entries for a task in insertion order.
func (s *Store) Timeline(id int64) ([]model.ProgressEntry, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return t.Progress, nil
}

// List returns all tasks sorted by ID.
func (s *Store) List() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
