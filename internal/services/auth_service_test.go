package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"warung/internal/models"
	"warung/internal/repositories"
	"warung/internal/services"
)

func testAuthConfig() services.AuthConfig {
	cfg := services.DefaultAuthConfig("test_jwt_secret")
	cfg.ActivityDebounce = 0
	return cfg
}

func newTestAuth(t *testing.T, cfg services.AuthConfig) (*services.AuthService, *repositories.MockSessionRepository) {
	t.Helper()

	userRepo := repositories.NewMockUserRepository()
	// MinCost keeps the hashing fast; the tests exercise the guard, not bcrypt.
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	assert.NoError(t, err)
	assert.NoError(t, userRepo.Create(&models.User{
		Username: "admin",
		Password: string(hash),
		Role:     models.RoleAdmin,
	}))

	sessionRepo := repositories.NewMockSessionRepository()
	return services.NewAuthService(userRepo, sessionRepo, cfg), sessionRepo
}

func sessionIDFromToken(t *testing.T, service *services.AuthService, token string) string {
	t.Helper()
	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	sessionID, _ := claims["session_id"].(string)
	assert.NotEmpty(t, sessionID)
	return sessionID
}

func TestAuthenticate_Success(t *testing.T) {
	service, _ := newTestAuth(t, testAuthConfig())

	result, err := service.Authenticate("admin", "secret123")
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "admin", result.User)
	assert.Equal(t, models.RoleAdmin, result.Role)

	sessionID := sessionIDFromToken(t, service, result.Token)
	assert.True(t, service.IsUserAuthenticated(sessionID))
	assert.Equal(t, "admin", service.GetCurrentUser(sessionID))

	info := service.GetSessionInfo(sessionID)
	assert.NotNil(t, info)
	assert.Equal(t, "admin", info.User)
	assert.Greater(t, info.TimeLeft, int64(0))
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	service, _ := newTestAuth(t, testAuthConfig())

	result, err := service.Authenticate("admin", "wrong")
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.False(t, result.IsLockedOut)
	assert.Equal(t, 2, result.RemainingAttempts)
	assert.Empty(t, result.Token)
}

func TestAuthenticate_UnknownUsernameConsumesAttempt(t *testing.T) {
	service, _ := newTestAuth(t, testAuthConfig())

	result, err := service.Authenticate("ghost", "whatever")
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.RemainingAttempts)
}

func TestLockout_AfterMaxAttempts(t *testing.T) {
	service, _ := newTestAuth(t, testAuthConfig())

	first, _ := service.Authenticate("admin", "wrong")
	assert.Equal(t, 2, first.RemainingAttempts)
	second, _ := service.Authenticate("admin", "wrong")
	assert.Equal(t, 1, second.RemainingAttempts)

	third, _ := service.Authenticate("admin", "wrong")
	assert.True(t, third.IsLockedOut)
	assert.NotNil(t, third.LockedUntil)

	// While locked no credential check happens: even the correct password
	// is rejected, and no further attempt is consumed.
	fourth, _ := service.Authenticate("admin", "secret123")
	assert.False(t, fourth.Success)
	assert.True(t, fourth.IsLockedOut)
	assert.Zero(t, fourth.RemainingAttempts)
}

func TestLockout_DoesNotAffectOtherUsers(t *testing.T) {
	service, _ := newTestAuth(t, testAuthConfig())

	for i := 0; i < 3; i++ {
		service.Authenticate("ghost", "wrong")
	}

	result, err := service.Authenticate("admin", "secret123")
	assert.NoError(t, err)
	assert.True(t, result.Success)
}

func TestLockout_SelfClearsAfterWindow(t *testing.T) {
	cfg := testAuthConfig()
	cfg.LockoutDuration = 40 * time.Millisecond
	service, _ := newTestAuth(t, cfg)

	for i := 0; i < 3; i++ {
		service.Authenticate("admin", "wrong")
	}
	locked, _ := service.Authenticate("admin", "secret123")
	assert.True(t, locked.IsLockedOut)

	time.Sleep(60 * time.Millisecond)

	result, err := service.Authenticate("admin", "secret123")
	assert.NoError(t, err)
	assert.True(t, result.Success, "expired lockout must self-clear")

	// The failure counter was reset along with the lockout.
	failed, _ := service.Authenticate("admin", "wrong")
	assert.Equal(t, 2, failed.RemainingAttempts)
}

func TestLogout_Idempotent(t *testing.T) {
	service, _ := newTestAuth(t, testAuthConfig())

	result, _ := service.Authenticate("admin", "secret123")
	sessionID := sessionIDFromToken(t, service, result.Token)

	service.Logout(sessionID, false)
	assert.False(t, service.IsUserAuthenticated(sessionID))

	// Logging out again is a no-op, not an error.
	service.Logout(sessionID, false)
	service.Logout("never-existed", true)
}

func TestSessionExpiry_AutoLogout(t *testing.T) {
	cfg := testAuthConfig()
	cfg.SessionTimeout = 30 * time.Millisecond
	service, sessionRepo := newTestAuth(t, cfg)

	result, _ := service.Authenticate("admin", "secret123")
	sessionID := sessionIDFromToken(t, service, result.Token)
	assert.True(t, service.IsUserAuthenticated(sessionID))

	time.Sleep(50 * time.Millisecond)

	assert.Nil(t, service.GetSessionInfo(sessionID))
	assert.False(t, service.IsUserAuthenticated(sessionID))
	assert.Equal(t, "", service.GetCurrentUser(sessionID))

	// Auto-logout removed the persisted session.
	_, err := sessionRepo.GetByID(sessionID)
	assert.Error(t, err)
}

func TestTouchActivity_KeepsSessionAlive(t *testing.T) {
	cfg := testAuthConfig()
	cfg.SessionTimeout = 80 * time.Millisecond
	service, sessionRepo := newTestAuth(t, cfg)

	result, _ := service.Authenticate("admin", "secret123")
	sessionID := sessionIDFromToken(t, service, result.Token)

	before, err := sessionRepo.GetByID(sessionID)
	assert.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	service.TouchActivity(sessionID)

	after, err := sessionRepo.GetByID(sessionID)
	assert.NoError(t, err)
	assert.True(t, after.LastActivity.After(before.LastActivity))

	time.Sleep(50 * time.Millisecond)
	assert.True(t, service.IsUserAuthenticated(sessionID), "activity pushed the expiry out")
}

func TestTouchActivity_Debounced(t *testing.T) {
	cfg := testAuthConfig()
	cfg.ActivityDebounce = time.Hour
	service, sessionRepo := newTestAuth(t, cfg)

	result, _ := service.Authenticate("admin", "secret123")
	sessionID := sessionIDFromToken(t, service, result.Token)

	before, _ := sessionRepo.GetByID(sessionID)
	service.TouchActivity(sessionID)
	after, _ := sessionRepo.GetByID(sessionID)

	assert.Equal(t, before.LastActivity, after.LastActivity, "a recent touch must not be persisted again")
}

func TestCleanupExpiredSessions(t *testing.T) {
	cfg := testAuthConfig()
	cfg.SessionTimeout = 10 * time.Millisecond
	service, sessionRepo := newTestAuth(t, cfg)

	result, _ := service.Authenticate("admin", "secret123")
	sessionID := sessionIDFromToken(t, service, result.Token)

	time.Sleep(20 * time.Millisecond)
	service.CleanupExpiredSessions()

	_, err := sessionRepo.GetByID(sessionID)
	assert.Error(t, err)
}

func TestGetUserPermissions(t *testing.T) {
	service, _ := newTestAuth(t, testAuthConfig())

	admin := service.GetUserPermissions(models.RoleAdmin)
	assert.True(t, admin.CanDelete)
	assert.True(t, admin.CanImport)

	manager := service.GetUserPermissions(models.RoleManager)
	assert.True(t, manager.CanAdd)
	assert.True(t, manager.CanRestock)
	assert.True(t, manager.CanExport)
	assert.False(t, manager.CanDelete)

	clerk := service.GetUserPermissions(models.RoleClerk)
	assert.True(t, clerk.CanView)
	assert.True(t, clerk.CanSell)
	assert.False(t, clerk.CanAdd)
	assert.False(t, clerk.CanExport)

	// Unknown roles degrade to the clerk permissions.
	unknown := service.GetUserPermissions(models.Role("intern"))
	assert.Equal(t, clerk, unknown)
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	service, _ := newTestAuth(t, testAuthConfig())

	_, err := service.ValidateToken("not-a-token")
	assert.Error(t, err)

	other := services.NewAuthService(
		repositories.NewMockUserRepository(),
		repositories.NewMockSessionRepository(),
		services.DefaultAuthConfig("a-different-secret"),
	)
	result, _ := service.Authenticate("admin", "secret123")
	_, err = other.ValidateToken(result.Token)
	assert.Error(t, err, "tokens signed with another secret must be rejected")
}
