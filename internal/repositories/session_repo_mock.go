package repositories

import (
	"fmt"
	"sync"
	"time"

	"warung/internal/models"
)

// MockSessionRepository is an in-memory implementation of SessionRepository.
type MockSessionRepository struct {
	sessions map[string]models.Session
	mu       sync.RWMutex
}

// NewMockSessionRepository creates a new instance of MockSessionRepository.
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		sessions: make(map[string]models.Session),
	}
}

// Create stores a new session.
func (r *MockSessionRepository) Create(session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.SessionID] = *session
	return nil
}

// GetByID retrieves a session by its id.
func (r *MockSessionRepository) GetByID(sessionID string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return &session, nil
}

// Update overwrites a stored session.
func (r *MockSessionRepository) Update(session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.SessionID]; !ok {
		return fmt.Errorf("session %s not found for update", session.SessionID)
	}
	r.sessions[session.SessionID] = *session
	return nil
}

// Delete removes a session by its id. Missing sessions are not an error.
func (r *MockSessionRepository) Delete(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

// DeleteInactiveSince removes sessions whose last activity predates the cutoff.
func (r *MockSessionRepository) DeleteInactiveSince(cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, session := range r.sessions {
		if session.LastActivity.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}
