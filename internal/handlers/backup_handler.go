package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"warung/internal/middleware"
	"warung/internal/models"
	"warung/internal/services"
)

// BackupHandler handles JSON export and import of the full ledger.
type BackupHandler struct {
	service *services.BackupService
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(service *services.BackupService) *BackupHandler {
	return &BackupHandler{
		service: service,
	}
}

// RegisterRoutes registers the backup routes with the Fiber app.
func (h *BackupHandler) RegisterRoutes(router fiber.Router) {
	backup := router.Group("/backup")
	backup.Get("/export",
		middleware.RequirePermission(func(p models.PermissionSet) bool { return p.CanExport }),
		h.HandleExport)
	backup.Post("/import",
		middleware.RequirePermission(func(p models.PermissionSet) bool { return p.CanImport }),
		h.HandleImport)
}

// HandleExport returns the full catalog and sale ledger as a backup document.
func (h *BackupHandler) HandleExport(c *fiber.Ctx) error {
	doc, err := h.service.Export()
	if err != nil {
		logrus.Errorf("Error exporting backup: %v", err)
		return respondError(c, err)
	}
	c.Set("Content-Disposition", `attachment; filename="warung-backup.json"`)
	return c.JSON(doc)
}

// HandleImport validates a backup document and replaces the current data
// with its contents.
func (h *BackupHandler) HandleImport(c *fiber.Ctx) error {
	var doc services.BackupDocument
	if err := c.BodyParser(&doc); err != nil {
		logrus.Warnf("Error parsing backup document: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid backup document",
			"error":   err.Error(),
		})
	}

	if err := h.service.Import(&doc); err != nil {
		logrus.Warnf("Backup import rejected: %v", err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Backup imported",
		"products": len(doc.Products),
		"sales":    len(doc.Sales),
	})
}
