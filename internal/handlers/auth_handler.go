package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"warung/internal/models"
	"warung/internal/services"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRoutes registers the public authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/login", h.HandleLogin)
}

// RegisterProtectedRoutes registers the session routes that require a live
// session.
func (h *AuthHandler) RegisterProtectedRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/logout", h.HandleLogout)
	authRoutes.Get("/session", h.HandleGetSession)
	authRoutes.Get("/permissions", h.HandleGetPermissions)
}

// HandleLogin authenticates the user. Failure is a typed result: wrong
// credentials come back as 401, a locked-out account as 423.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logrus.Warnf("Error parsing login request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	result, err := h.authService.Authenticate(req.Username, req.Password)
	if err != nil {
		logrus.Errorf("Error during login for user %s: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not process login",
			"error":   err.Error(),
		})
	}

	switch {
	case result.Success:
		return c.JSON(result)
	case result.IsLockedOut:
		return c.Status(fiber.StatusLocked).JSON(result)
	default:
		return c.Status(fiber.StatusUnauthorized).JSON(result)
	}
}

// HandleLogout ends the current session. Logging out twice is a no-op.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	sessionID, _ := c.Locals("session_id").(string)
	h.authService.Logout(sessionID, false)
	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}

// HandleGetSession returns the live session's details.
func (h *AuthHandler) HandleGetSession(c *fiber.Ctx) error {
	sessionID, _ := c.Locals("session_id").(string)
	info := h.authService.GetSessionInfo(sessionID)
	if info == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Session expired, please log in again",
		})
	}
	return c.JSON(info)
}

// HandleGetPermissions returns the permission set of the signed-in user's role.
func (h *AuthHandler) HandleGetPermissions(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	return c.JSON(h.authService.GetUserPermissions(models.Role(role)))
}
