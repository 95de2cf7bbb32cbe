package repositories

import (
	"time"

	"warung/internal/models"
)

// SessionRepository defines the interface for session persistence. Sessions
// are stored so a signed-in user survives a service restart.
type SessionRepository interface {
	Create(session *models.Session) error
	GetByID(sessionID string) (*models.Session, error)
	Update(session *models.Session) error
	Delete(sessionID string) error
	DeleteInactiveSince(cutoff time.Time) (int64, error)
}
