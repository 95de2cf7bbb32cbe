package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"warung/internal/models"
	"warung/internal/repositories"
)

// AuthConfig carries the tunable policy of the access guard.
type AuthConfig struct {
	JWTSecret        string
	TokenDuration    time.Duration // Duration for which the JWT is valid
	MaxLoginAttempts int           // Failed attempts before lockout
	LockoutDuration  time.Duration // How long a locked account stays locked
	SessionTimeout   time.Duration // Inactivity window before auto-logout
	ActivityDebounce time.Duration // Minimum gap between persisted activity touches
}

// DefaultAuthConfig returns the standard policy: 3 attempts, 15 minute
// lockout, 30 minute inactivity timeout.
func DefaultAuthConfig(jwtSecret string) AuthConfig {
	return AuthConfig{
		JWTSecret:        jwtSecret,
		TokenDuration:    24 * time.Hour,
		MaxLoginAttempts: 3,
		LockoutDuration:  15 * time.Minute,
		SessionTimeout:   30 * time.Minute,
		ActivityDebounce: time.Minute,
	}
}

// AuthResult is the typed outcome of an authentication attempt. A failed
// attempt is a result, not an error.
type AuthResult struct {
	Success           bool        `json:"success"`
	Message           string      `json:"message"`
	Token             string      `json:"token,omitempty"`
	User              string      `json:"user,omitempty"`
	Role              models.Role `json:"role,omitempty"`
	IsLockedOut       bool        `json:"isLockedOut,omitempty"`
	LockedUntil       *time.Time  `json:"lockedUntil,omitempty"`
	RemainingAttempts int         `json:"remainingAttempts,omitempty"`
}

// SessionInfo describes a live session for the UI.
type SessionInfo struct {
	User         string    `json:"user"`
	LoginTime    time.Time `json:"loginTime"`
	LastActivity time.Time `json:"lastActivity"`
	TimeLeft     int64     `json:"timeLeft"` // seconds until auto-logout
	SessionID    string    `json:"sessionId"`
}

type lockoutState struct {
	failedAttempts int
	lockedUntil    time.Time
}

// AuthService is the access guard: it owns authentication, per-username
// failed-attempt counting with time-boxed lockout, and session liveness.
type AuthService struct {
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
	cfg         AuthConfig
	jwtSecret   []byte

	mu       sync.Mutex
	lockouts map[string]*lockoutState
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, sessionRepo repositories.SessionRepository, cfg AuthConfig) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		cfg:         cfg,
		jwtSecret:   []byte(cfg.JWTSecret),
		lockouts:    make(map[string]*lockoutState),
	}
}

// Authenticate checks the credentials and returns a typed result. While an
// account is locked out no credential check is performed and no further
// attempt is consumed; an expired lockout self-clears.
func (s *AuthService) Authenticate(username, password string) (*AuthResult, error) {
	now := time.Now()

	s.mu.Lock()
	if state, ok := s.lockouts[username]; ok && !state.lockedUntil.IsZero() {
		if now.Before(state.lockedUntil) {
			until := state.lockedUntil
			s.mu.Unlock()
			return &AuthResult{
				Success:     false,
				Message:     fmt.Sprintf("account is locked, try again at %s", until.Format(time.Kitchen)),
				IsLockedOut: true,
				LockedUntil: &until,
			}, nil
		}
		// Lockout window elapsed: clear it and treat this call as a fresh
		// attempt from the logged-out state.
		delete(s.lockouts, username)
	}
	s.mu.Unlock()

	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		// Unknown usernames consume attempts too, so the counter cannot be
		// used to probe which usernames exist.
		return s.recordFailure(username, now), nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return s.recordFailure(username, now), nil
	}

	s.mu.Lock()
	delete(s.lockouts, username)
	s.mu.Unlock()

	session := &models.Session{
		SessionID:    uuid.New().String(),
		Username:     user.Username,
		LoginTime:    now,
		LastActivity: now,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"session_id": session.SessionID,
		"username":   user.Username,
		"role":       string(user.Role),
		"exp":        now.Add(s.cfg.TokenDuration).Unix(), // Token expiration time
		"iat":        now.Unix(),                          // Issued at time
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	logrus.Infof("User %s logged in (session %s)", user.Username, session.SessionID)
	return &AuthResult{
		Success: true,
		Message: "login successful",
		Token:   tokenString,
		User:    user.Username,
		Role:    user.Role,
	}, nil
}

// recordFailure bumps the per-username failure counter and flips the account
// into lockout when the configured maximum is reached.
func (s *AuthService) recordFailure(username string, now time.Time) *AuthResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.lockouts[username]
	if !ok {
		state = &lockoutState{}
		s.lockouts[username] = state
	}
	state.failedAttempts++

	if state.failedAttempts >= s.cfg.MaxLoginAttempts {
		state.lockedUntil = now.Add(s.cfg.LockoutDuration)
		until := state.lockedUntil
		logrus.Warnf("Account %s locked out until %s after %d failed attempts", username, until.Format(time.RFC3339), state.failedAttempts)
		return &AuthResult{
			Success:     false,
			Message:     fmt.Sprintf("too many failed attempts, account locked for %s", s.cfg.LockoutDuration),
			IsLockedOut: true,
			LockedUntil: &until,
		}
	}

	remaining := s.cfg.MaxLoginAttempts - state.failedAttempts
	return &AuthResult{
		Success:           false,
		Message:           "invalid credentials",
		RemainingAttempts: remaining,
	}
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// IsUserAuthenticated reports whether the session exists and is still live.
// An expired session is logged out automatically on the way.
func (s *AuthService) IsUserAuthenticated(sessionID string) bool {
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return false
	}
	if s.sessionExpired(session) {
		s.Logout(sessionID, true)
		return false
	}
	return true
}

// GetCurrentUser returns the username of the live session, or "".
func (s *AuthService) GetCurrentUser(sessionID string) string {
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil || s.sessionExpired(session) {
		return ""
	}
	return session.Username
}

// GetSessionInfo returns the live session's details, or nil when the session
// is unknown or has expired from inactivity.
func (s *AuthService) GetSessionInfo(sessionID string) *SessionInfo {
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return nil
	}
	if s.sessionExpired(session) {
		s.Logout(sessionID, true)
		return nil
	}
	timeLeft := s.cfg.SessionTimeout - time.Since(session.LastActivity)
	return &SessionInfo{
		User:         session.Username,
		LoginTime:    session.LoginTime,
		LastActivity: session.LastActivity,
		TimeLeft:     int64(timeLeft.Seconds()),
		SessionID:    session.SessionID,
	}
}

// TouchActivity refreshes the session's last-activity timestamp. Touches are
// debounced: the write is skipped when the previous one is recent enough.
func (s *AuthService) TouchActivity(sessionID string) {
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil || s.sessionExpired(session) {
		return
	}
	if time.Since(session.LastActivity) < s.cfg.ActivityDebounce {
		return
	}
	session.LastActivity = time.Now()
	if err := s.sessionRepo.Update(session); err != nil {
		logrus.Warnf("Failed to persist session activity: %v", err)
	}
}

// GetUserPermissions returns the fixed permission set for the session's user
// role.
func (s *AuthService) GetUserPermissions(role models.Role) models.PermissionSet {
	return role.Permissions()
}

// Logout ends the session. It is idempotent: logging out an unknown or
// already-ended session is a no-op. auto distinguishes inactivity logout
// from a manual one for UI messaging.
func (s *AuthService) Logout(sessionID string, auto bool) {
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return
	}
	if err := s.sessionRepo.Delete(sessionID); err != nil {
		logrus.Warnf("Failed to delete session %s: %v", sessionID, err)
		return
	}
	if auto {
		logrus.Infof("User %s logged out automatically after inactivity", session.Username)
	} else {
		logrus.Infof("User %s logged out", session.Username)
	}
}

// CleanupExpiredSessions drops every session past the inactivity timeout.
// Called at boot so stale sessions from before a restart do not linger.
func (s *AuthService) CleanupExpiredSessions() {
	cutoff := time.Now().Add(-s.cfg.SessionTimeout)
	removed, err := s.sessionRepo.DeleteInactiveSince(cutoff)
	if err != nil {
		logrus.Warnf("Failed to clean up expired sessions: %v", err)
		return
	}
	if removed > 0 {
		logrus.Infof("Removed %d expired sessions", removed)
	}
}

func (s *AuthService) sessionExpired(session *models.Session) bool {
	return time.Since(session.LastActivity) >= s.cfg.SessionTimeout
}
