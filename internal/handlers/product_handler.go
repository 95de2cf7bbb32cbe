package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"warung/internal/middleware"
	"warung/internal/models"
	"warung/internal/services"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service  *services.InventoryService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.InventoryService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// ProductRequest is the request body for adding or updating a product.
// Numeric fields are pointers so a missing field is distinguishable from a
// legitimate zero.
type ProductRequest struct {
	SKU      string   `json:"sku" validate:"required"`
	Name     string   `json:"name" validate:"required"`
	Category string   `json:"category" validate:"required"`
	Price    *float64 `json:"price" validate:"required,gte=0"`
	Quantity *int     `json:"quantity" validate:"required,gte=0"`
	MinStock *int     `json:"minStock" validate:"required,gte=0"`
	Barcode  string   `json:"barcode"`
	Supplier string   `json:"supplier"`
}

// AdjustRequest is the request body for a manual stock adjustment.
type AdjustRequest struct {
	Delta *int `json:"delta" validate:"required"`
}

// RestockRequest is the request body for a restock.
type RestockRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Quantity   *int   `json:"quantity" validate:"required,gt=0"`
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Get("/", h.HandleGetProducts)
	products.Get("/search", h.HandleSearchProducts)
	products.Get("/statistics", h.HandleGetStatistics)
	products.Get("/lookup/:identifier", h.HandleFindProduct)
	products.Post("/restock",
		middleware.RequirePermission(func(p models.PermissionSet) bool { return p.CanRestock }),
		h.HandleRestockProduct)
	products.Post("/",
		middleware.RequirePermission(func(p models.PermissionSet) bool { return p.CanAdd }),
		h.HandleAddProduct)
	products.Get("/:id", h.HandleGetProduct)
	products.Put("/:id",
		middleware.RequirePermission(func(p models.PermissionSet) bool { return p.CanEdit }),
		h.HandleUpdateProduct)
	products.Delete("/:id",
		middleware.RequirePermission(func(p models.PermissionSet) bool { return p.CanDelete }),
		h.HandleDeleteProduct)
	products.Post("/:id/adjust",
		middleware.RequirePermission(func(p models.PermissionSet) bool { return p.CanEdit }),
		h.HandleAdjustStock)
}

// HandleGetProducts returns the full catalog.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	return c.JSON(h.service.GetAllProducts())
}

// HandleGetProduct returns one product by id.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Product id must be a non-negative integer",
		})
	}
	product, err := h.service.GetProduct(uint(id))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleFindProduct resolves an identifier as SKU first, then barcode. Used
// by the barcode scanner surface.
func (h *ProductHandler) HandleFindProduct(c *fiber.Ctx) error {
	product, err := h.service.FindProduct(c.Params("identifier"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleSearchProducts filters the catalog by a free-text term (?q=) and an
// optional exact category (?category=).
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	return c.JSON(h.service.SearchProducts(c.Query("q"), c.Query("category")))
}

// HandleGetStatistics returns the catalog summary.
func (h *ProductHandler) HandleGetStatistics(c *fiber.Ctx) error {
	return c.JSON(h.service.GetStatistics())
}

// HandleAddProduct creates a new product in the catalog.
func (h *ProductHandler) HandleAddProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		logrus.Warnf("Error parsing add product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	product, err := h.service.NewProduct(productInput(&req))
	if err != nil {
		return respondError(c, err)
	}
	created, err := h.service.AddProduct(product)
	if err != nil {
		logrus.Warnf("Error adding product %s: %v", product.SKU, err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleUpdateProduct overwrites the product with the given id.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Product id must be a non-negative integer",
		})
	}

	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		logrus.Warnf("Error parsing update product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	product, err := h.service.NewProduct(productInput(&req))
	if err != nil {
		return respondError(c, err)
	}
	product.ID = uint(id)

	updated, err := h.service.UpdateProduct(product)
	if err != nil {
		logrus.Warnf("Error updating product %d: %v", id, err)
		return respondError(c, err)
	}
	return c.JSON(updated)
}

// HandleDeleteProduct removes the product with the given id.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Product id must be a non-negative integer",
		})
	}
	if err := h.service.DeleteProduct(uint(id)); err != nil {
		logrus.Warnf("Error deleting product %d: %v", id, err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted",
	})
}

// HandleAdjustStock applies a manual stock delta to the product with the
// given id.
func (h *ProductHandler) HandleAdjustStock(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Product id must be a non-negative integer",
		})
	}

	var req AdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	product, err := h.service.AdjustStock(uint(id), *req.Delta)
	if err != nil {
		logrus.Warnf("Error adjusting stock for product %d: %v", id, err)
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleRestockProduct adds stock to the product resolved from an identifier
// (SKU or barcode).
func (h *ProductHandler) HandleRestockProduct(c *fiber.Ctx) error {
	var req RestockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	product, err := h.service.RestockProduct(req.Identifier, *req.Quantity)
	if err != nil {
		logrus.Warnf("Error restocking %s: %v", req.Identifier, err)
		return respondError(c, err)
	}
	return c.JSON(product)
}

func productInput(req *ProductRequest) services.ProductInput {
	return services.ProductInput{
		SKU:      req.SKU,
		Name:     req.Name,
		Category: req.Category,
		Price:    *req.Price,
		Quantity: *req.Quantity,
		MinStock: *req.MinStock,
		Barcode:  req.Barcode,
		Supplier: req.Supplier,
	}
}
