package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"warung/internal/models"
	"warung/internal/services"
)

// AuthRequired is a Fiber middleware that checks for a valid JWT token and a
// live session behind it. A session past its inactivity timeout is logged
// out automatically and the request is rejected with a distinct message.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			logrus.Warnf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		sessionID, _ := claims["session_id"].(string)
		if sessionID == "" || !authService.IsUserAuthenticated(sessionID) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Session expired, please log in again",
			})
		}
		authService.TouchActivity(sessionID)

		// Store claims in Fiber context for subsequent handlers
		c.Locals("session_id", sessionID)
		c.Locals("username", claims["username"])
		c.Locals("role", claims["role"])

		// Continue to the next handler
		return c.Next()
	}
}

// RequirePermission gates a route on the signed-in user's role permissions.
// Must run after AuthRequired.
func RequirePermission(selector func(models.PermissionSet) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if !selector(models.Role(role).Permissions()) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Your role does not permit this operation",
			})
		}
		return c.Next()
	}
}
