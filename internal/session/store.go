// Package session holds per-session conversational context in memory.
package session

import (
	"sync"
	"time"

	"github.com/localfirst-ai/hybrid-assistant/internal/model"
	"github.com/localfirst-ai/hybrid-assistant/pkg/metrics"
)

// Store is an in-memory session store. Context is small and rebuilt on
// every exchange, so sessions survive only for the process lifetime and
// are never evicted.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]model.SessionContext
}

// NewStore creates a new session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]model.SessionContext),
	}
}

// Get returns the context for a session. Unknown sessions yield a zero
// context, never an error.
func (s *Store) Get(sessionID string) model.SessionContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}

// Update overwrites the session context whole. Concurrent updates to the
// same session resolve last-writer-wins.
func (s *Store) Update(sessionID string, intent *model.Intent, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; !exists {
		metrics.ActiveSessions.Inc()
	}
	s.sessions[sessionID] = model.SessionContext{
		LastIntent:   intent,
		LastResponse: response,
		UpdatedAt:    time.Now(),
	}
}

// Delete removes a session.
func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; exists {
		delete(s.sessions, sessionID)
		metrics.ActiveSessions.Dec()
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
