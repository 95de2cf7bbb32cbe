package repositories

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"warung/internal/models"
)

// GORMSessionRepository is a GORM implementation of SessionRepository.
type GORMSessionRepository struct {
	db *gorm.DB
}

// NewGORMSessionRepository creates a new instance of GORMSessionRepository.
func NewGORMSessionRepository(db *gorm.DB) *GORMSessionRepository {
	return &GORMSessionRepository{
		db: db,
	}
}

// Create stores a new session.
func (r *GORMSessionRepository) Create(session *models.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by its id.
func (r *GORMSessionRepository) GetByID(sessionID string) (*models.Session, error) {
	var session models.Session
	if err := r.db.First(&session, "session_id = ?", sessionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("session %s not found", sessionID)
		}
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return &session, nil
}

// Update overwrites a stored session.
func (r *GORMSessionRepository) Update(session *models.Session) error {
	res := r.db.Save(session)
	if res.Error != nil {
		return fmt.Errorf("failed to update session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s not found for update", session.SessionID)
	}
	return nil
}

// Delete removes a session by its id. Deleting a session that does not
// exist is not an error, so logout stays idempotent.
func (r *GORMSessionRepository) Delete(sessionID string) error {
	if err := r.db.Delete(&models.Session{}, "session_id = ?", sessionID).Error; err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// DeleteInactiveSince removes every session whose last activity predates the
// cutoff, returning the number removed.
func (r *GORMSessionRepository) DeleteInactiveSince(cutoff time.Time) (int64, error) {
	res := r.db.Delete(&models.Session{}, "last_activity < ?", cutoff)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete inactive sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
