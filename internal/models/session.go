package models

import "time"

// Session is a signed-in user's live session. It is persisted so a session
// survives a service restart; liveness is judged from LastActivity.
type Session struct {
	SessionID    string    `json:"sessionId" gorm:"primaryKey;type:varchar(36)"`
	Username     string    `json:"user" gorm:"index;type:varchar(100)"`
	LoginTime    time.Time `json:"loginTime"`
	LastActivity time.Time `json:"lastActivity"`
}
