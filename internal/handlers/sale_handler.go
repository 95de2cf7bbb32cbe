package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"warung/internal/middleware"
	"warung/internal/models"
	"warung/internal/services"
)

// SaleHandler handles HTTP requests for the sale ledger.
type SaleHandler struct {
	service  *services.InventoryService
	validate *validator.Validate
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(service *services.InventoryService) *SaleHandler {
	return &SaleHandler{
		service:  service,
		validate: validator.New(),
	}
}

// SaleRequest is the request body for processing a sale. The identifier is a
// SKU or a scanned barcode; the quantity must be a positive integer.
type SaleRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Quantity   *int   `json:"quantity" validate:"required,gt=0"`
}

// RegisterRoutes registers the sale routes with the Fiber app.
func (h *SaleHandler) RegisterRoutes(router fiber.Router) {
	sales := router.Group("/sales")
	sales.Get("/", h.HandleGetSales)
	sales.Post("/",
		middleware.RequirePermission(func(p models.PermissionSet) bool { return p.CanSell }),
		h.HandleProcessSale)
}

// HandleGetSales returns the full sale ledger.
func (h *SaleHandler) HandleGetSales(c *fiber.Ctx) error {
	sales, err := h.service.ListSales()
	if err != nil {
		logrus.Errorf("Error listing sales: %v", err)
		return respondError(c, err)
	}
	return c.JSON(sales)
}

// HandleProcessSale sells units of the identified product and returns the
// receipt: the recorded sale and the product as it stands afterwards.
func (h *SaleHandler) HandleProcessSale(c *fiber.Ctx) error {
	var req SaleRequest
	if err := c.BodyParser(&req); err != nil {
		logrus.Warnf("Error parsing sale request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	receipt, err := h.service.ProcessSale(req.Identifier, *req.Quantity)
	if err != nil {
		logrus.Warnf("Error processing sale of %d x %s: %v", *req.Quantity, req.Identifier, err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(receipt)
}
