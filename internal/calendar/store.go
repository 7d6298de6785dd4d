// Package calendar implements the booking store and availability engine.
package calendar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/localfirst-ai/hybrid-assistant/internal/model"
	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
)

// BookingMeta carries optional booking attributes.
type BookingMeta struct {
	Description  string
	SourceCallID string
}

// snapshot is the on-disk layout of the store.
type snapshot struct {
	NextID       int64                      `json:"next_id"`
	Appointments []model.Appointment        `json:"appointments"`
	Windows      []model.AvailabilityWindow `json:"windows"`
}

// Store is the persistent record of committed intervals and availability
// windows. All mutation runs under a single store-scoped lock so that
// check-then-insert is atomic relative to other booking attempts. State is
// persisted as an atomically replaced JSON snapshot; a failed write aborts
// the mutation with no partial state.
type Store struct {
	mu     sync.RWMutex
	path   string // empty means memory-only (tests)
	nextID int64

	appointments map[int64]*model.Appointment
	windows      []model.AvailabilityWindow

	logger *logger.Logger
}

// Open loads (or initializes) a store backed by the snapshot at path.
// Availability windows are seeded with Monday-Friday 09:00-17:00 and a
// 15-minute buffer when none exist.
func Open(path string, log *logger.Logger) (*Store, error) {
	s := &Store{
		path:         path,
		nextID:       1,
		appointments: make(map[int64]*model.Appointment),
		logger:       log,
	}

	if path != "" {
		if err := s.load(); err != nil {
			return nil, &model.StorageError{Op: "load calendar snapshot", Err: err}
		}
	}

	if len(s.windows) == 0 {
		s.windows = defaultWindows()
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// NewMemoryStore returns a store with no snapshot file. Used by tests.
func NewMemoryStore() *Store {
	s, _ := Open("", logger.NewNop())
	return s
}

func defaultWindows() []model.AvailabilityWindow {
	windows := make([]model.AvailabilityWindow, 0, 5)
	for day := int(time.Monday); day <= int(time.Friday); day++ {
		windows = append(windows, model.AvailabilityWindow{
			DayOfWeek:     day,
			Open:          "09:00",
			Close:         "17:00",
			BufferMinutes: 15,
		})
	}
	return windows
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
	for i := range snap.Appointments {
		appt := snap.Appointments[i]
		s.appointments[appt.ID] = &appt
	}
	s.windows = snap.Windows
	return nil
}

// persistLocked writes the snapshot via a temp file and rename so readers
// never observe a partial write. Callers must hold the write lock.
func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}

	snap := snapshot{
		NextID:       s.nextID,
		Appointments: make([]model.Appointment, 0, len(s.appointments)),
		Windows:      s.windows,
	}
	for _, appt := range s.appointments {
		snap.Appointments = append(snap.Appointments, *appt)
	}
	sort.Slice(snap.Appointments, func(i, j int) bool {
		return snap.Appointments[i].ID < snap.Appointments[j].ID
	})

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return &model.StorageError{Op: "encode calendar snapshot", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &model.StorageError{Op: "create data directory", Err: err}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &model.StorageError{Op: "write calendar snapshot", Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return &model.StorageError{Op: "replace calendar snapshot", Err: err}
	}
	return nil
}

// conflictsLocked returns confirmed appointments overlapping iv. Callers
// must hold at least the read lock.
func (s *Store) conflictsLocked(iv model.Interval) []model.AppointmentSummary {
	var conflicts []model.AppointmentSummary
	for _, appt := range s.appointments {
		if appt.Status != model.StatusConfirmed {
			continue
		}
		if appt.Interval.Overlaps(iv) {
			conflicts = append(conflicts, model.AppointmentSummary{ID: appt.ID, Title: appt.Title})
		}
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].ID < conflicts[j].ID })
	return conflicts
}

// ConflictsWith returns the confirmed appointments overlapping iv.
func (s *Store) ConflictsWith(iv model.Interval) []model.AppointmentSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conflictsLocked(iv)
}

// Book performs the atomic check-then-insert. If iv collides with a
// confirmed appointment the returned conflict list is non-empty and
// nothing is written. On success the new appointment carries a fresh,
// monotonically increasing ID and status confirmed. Past-dated intervals
// are accepted: logged calls may be backfilled.
func (s *Store) Book(title string, iv model.Interval, attendees []string, meta BookingMeta) (*model.Appointment, []model.AppointmentSummary, error) {
	if err := iv.Validate(); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if conflicts := s.conflictsLocked(iv); len(conflicts) > 0 {
		return nil, conflicts, nil
	}

	appt := &model.Appointment{
		ID:           s.nextID,
		Title:        title,
		Interval:     iv,
		Attendees:    attendees,
		Status:       model.StatusConfirmed,
		SourceCallID: meta.SourceCallID,
		CreatedAt:    time.Now(),
	}
	s.appointments[appt.ID] = appt
	s.nextID++

	if err := s.persistLocked(); err != nil {
		// All-or-nothing: roll the insert back before surfacing the failure.
		delete(s.appointments, appt.ID)
		s.nextID--
		return nil, nil, err
	}

	s.logger.Info("appointment booked",
		zap.Int64("appointment_id", appt.ID),
		zap.Time("start", iv.Start),
		zap.Time("end", iv.End),
	)
	return appt, nil, nil
}

// Get returns an appointment by ID.
func (s *Store) Get(id int64) (*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appt, ok := s.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment %d: %w", id, model.ErrNotFound)
	}
	copied := *appt
	return &copied, nil
}

// Cancel soft-deletes an appointment. The record is retained with status
// cancelled and stops participating in conflict checks.
func (s *Store) Cancel(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appointments[id]
	if !ok {
		return fmt.Errorf("appointment %d: %w", id, model.ErrNotFound)
	}
	if appt.Status == model.StatusCancelled {
		return nil
	}

	appt.Status = model.StatusCancelled
	if err := s.persistLocked(); err != nil {
		appt.Status = model.StatusConfirmed
		return err
	}

	s.logger.Info("appointment cancelled", zap.Int64("appointment_id", id))
	return nil
}

// Windows returns the configured availability windows.
func (s *Store) Windows() []model.AvailabilityWindow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AvailabilityWindow, len(s.windows))
	copy(out, s.windows)
	return out
}

// Count returns the number of stored appointments, cancelled included.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.appointments)
}
