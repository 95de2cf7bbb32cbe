package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	apperrors "warung/internal/errors"
)

// respondError maps a domain error onto its HTTP status and standard body.
func respondError(c *fiber.Ctx, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return c.Status(httpErr.StatusCode).JSON(httpErr.ToErrorResponse())
}

// respondValidation renders go-playground validation failures as a
// field-to-message map, shared by every handler that validates a body.
func respondValidation(c *fiber.Ctx, err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}
