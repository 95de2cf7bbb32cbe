package services

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	apperrors "warung/internal/errors"
	"warung/internal/models"
	"warung/internal/repositories"
	"warung/pkg/events"
)

var (
	skuPattern     = regexp.MustCompile(`^[A-Z0-9_-]+$`)
	barcodePattern = regexp.MustCompile(`^[0-9]+$`)
)

// ProductInput is the raw input for constructing a product.
type ProductInput struct {
	SKU      string
	Name     string
	Category string
	Price    float64
	Quantity int
	MinStock int
	Barcode  string
	Supplier string
}

// SaleReceipt is the result of a processed sale: the immutable sale record
// and the product as it stands after the sale.
type SaleReceipt struct {
	Sale    models.Sale    `json:"sale"`
	Product models.Product `json:"product"`
}

// CategoryBreakdown summarizes one category for the statistics view.
type CategoryBreakdown struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// Statistics is a point-in-time summary of the catalog.
type Statistics struct {
	TotalProducts    int                          `json:"totalProducts"`
	LowStockCount    int                          `json:"lowStockCount"`
	LowStockProducts []models.Product             `json:"lowStockProducts"`
	TotalValue       float64                      `json:"totalValue"`
	CategoryCount    int                          `json:"categoryCount"`
	Categories       map[string]CategoryBreakdown `json:"categories"`
	AverageValue     float64                      `json:"averageValue"`
}

// InventoryService owns the product catalog and the append-only sale ledger.
// It keeps an in-memory copy of the catalog that mirrors the store: every
// mutation persists first and only touches memory once the store confirms,
// so a storage failure never leaves the two diverged.
type InventoryService struct {
	productRepo repositories.ProductRepository
	saleRepo    repositories.SaleRepository
	notifier    events.Notifier
	validate    *validator.Validate

	mu       sync.RWMutex
	products []models.Product
}

// NewInventoryService creates a new InventoryService. A nil notifier is
// replaced with a no-op one.
func NewInventoryService(productRepo repositories.ProductRepository, saleRepo repositories.SaleRepository, notifier events.Notifier) *InventoryService {
	if notifier == nil {
		notifier = events.NotifierFunc(func(events.Event) {})
	}

	validate := validator.New()
	// Report field names as their json names so validation errors match the
	// wire format.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &InventoryService{
		productRepo: productRepo,
		saleRepo:    saleRepo,
		notifier:    notifier,
		validate:    validate,
	}
}

// Load reads the full catalog from the store into memory and emits
// inventoryLoaded. Call it once before serving requests.
func (s *InventoryService) Load() error {
	products, err := s.productRepo.GetAll()
	if err != nil {
		return &apperrors.StorageError{Op: "load inventory", Err: err}
	}

	s.mu.Lock()
	s.products = products
	s.mu.Unlock()

	logrus.Infof("Inventory loaded: %d products", len(products))
	s.notify(events.InventoryLoaded, map[string]interface{}{"count": len(products)})
	return nil
}

// NewProduct normalizes and validates raw input into a Product. It is pure
// construction: no uniqueness check, no persistence. The id is assigned by
// the store when the product is added.
func (s *InventoryService) NewProduct(input ProductInput) (models.Product, error) {
	now := time.Now()
	product := models.Product{
		SKU:       strings.ToUpper(strings.TrimSpace(input.SKU)),
		Name:      strings.TrimSpace(input.Name),
		Category:  strings.TrimSpace(input.Category),
		Price:     round2(input.Price),
		Quantity:  input.Quantity,
		MinStock:  input.MinStock,
		Barcode:   strings.TrimSpace(input.Barcode),
		Supplier:  strings.TrimSpace(input.Supplier),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.validateProduct(&product); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

// AddProduct validates the product, rejects SKU/barcode collisions, persists
// it and appends it to the in-memory catalog. Emits productAdded.
func (s *InventoryService) AddProduct(product models.Product) (*models.Product, error) {
	if err := s.validateProduct(&product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dup := s.findConflictLocked(&product); dup != nil {
		return nil, dup
	}

	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	if err := s.productRepo.Create(&product); err != nil {
		return nil, &apperrors.StorageError{Op: "add product", Err: err}
	}
	s.products = append(s.products, product)

	s.notify(events.ProductAdded, map[string]interface{}{"id": product.ID, "sku": product.SKU})
	return &product, nil
}

// UpdateProduct overwrites the stored product with the same id. Uniqueness of
// SKU and barcode is re-checked against the rest of the catalog, so a rename
// cannot introduce a collision. Emits productUpdated.
func (s *InventoryService) UpdateProduct(product models.Product) (*models.Product, error) {
	if err := s.validateProduct(&product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByIDLocked(product.ID)
	if idx < 0 {
		return nil, &apperrors.NotFoundError{Resource: "product", Key: fmt.Sprintf("%d", product.ID)}
	}
	if dup := s.findConflictLocked(&product); dup != nil {
		return nil, dup
	}

	product.CreatedAt = s.products[idx].CreatedAt
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(&product); err != nil {
		return nil, &apperrors.StorageError{Op: "update product", Err: err}
	}
	s.products[idx] = product

	s.notify(events.ProductUpdated, map[string]interface{}{"id": product.ID, "sku": product.SKU})
	return &product, nil
}

// DeleteProduct removes the product with the given id from store and memory.
// Emits productDeleted.
func (s *InventoryService) DeleteProduct(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByIDLocked(id)
	if idx < 0 {
		return &apperrors.NotFoundError{Resource: "product", Key: fmt.Sprintf("%d", id)}
	}
	sku := s.products[idx].SKU

	if err := s.productRepo.Delete(id); err != nil {
		return &apperrors.StorageError{Op: "delete product", Err: err}
	}
	s.products = append(s.products[:idx], s.products[idx+1:]...)

	s.notify(events.ProductDeleted, map[string]interface{}{"id": id, "sku": sku})
	return nil
}

// GetProduct returns the product with the given id.
func (s *InventoryService) GetProduct(id uint) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexByIDLocked(id)
	if idx < 0 {
		return nil, &apperrors.NotFoundError{Resource: "product", Key: fmt.Sprintf("%d", id)}
	}
	product := s.products[idx]
	return &product, nil
}

// FindProduct resolves an identifier as a SKU first (case-insensitive), then
// as a barcode. Both lookups run against the in-memory catalog; a barcode
// that is in the store but not yet in memory is pulled in on the way.
func (s *InventoryService) FindProduct(identifier string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.resolveLocked(identifier)
	if err != nil {
		return nil, err
	}
	product := s.products[idx]
	return &product, nil
}

// ProcessSale sells quantity units of the product resolved from identifier,
// appending an immutable sale record snapshotted from the product at the
// moment of sale. Emits saleProcessed.
func (s *InventoryService) ProcessSale(identifier string, quantity int) (*SaleReceipt, error) {
	if quantity <= 0 {
		return nil, &apperrors.ValidationError{Field: "quantity", Message: "must be a positive integer"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.resolveLocked(identifier)
	if err != nil {
		return nil, err
	}
	product := s.products[idx]
	if product.Quantity < quantity {
		return nil, &apperrors.InsufficientStockError{
			SKU:       product.SKU,
			Requested: quantity,
			Available: product.Quantity,
		}
	}

	now := time.Now()
	updated := product
	updated.Quantity -= quantity
	updated.UpdatedAt = now

	if err := s.productRepo.Update(&updated); err != nil {
		return nil, &apperrors.StorageError{Op: "process sale", Err: err}
	}
	s.products[idx] = updated

	sale := models.Sale{
		ProductID: product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		Quantity:  quantity,
		UnitPrice: product.Price,
		Total:     round2(product.Price * float64(quantity)),
		Date:      now,
	}
	if err := s.saleRepo.Create(&sale); err != nil {
		// Stock has already moved; the sale record is the only casualty.
		logrus.Errorf("Sale of %d x %s decremented stock but could not be recorded: %v", quantity, product.SKU, err)
		return nil, &apperrors.StorageError{Op: "record sale", Err: err}
	}

	s.notify(events.SaleProcessed, map[string]interface{}{
		"saleId":   sale.ID,
		"sku":      sale.SKU,
		"quantity": sale.Quantity,
		"total":    sale.Total,
	})
	return &SaleReceipt{Sale: sale, Product: updated}, nil
}

// RestockProduct adds quantity units to the product resolved from identifier.
// There is no upper bound. Emits productRestocked.
func (s *InventoryService) RestockProduct(identifier string, quantity int) (*models.Product, error) {
	if quantity <= 0 {
		return nil, &apperrors.ValidationError{Field: "quantity", Message: "must be a positive integer"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.resolveLocked(identifier)
	if err != nil {
		return nil, err
	}

	updated := s.products[idx]
	updated.Quantity += quantity
	updated.UpdatedAt = time.Now()

	if err := s.productRepo.Update(&updated); err != nil {
		return nil, &apperrors.StorageError{Op: "restock product", Err: err}
	}
	s.products[idx] = updated

	s.notify(events.ProductRestocked, map[string]interface{}{
		"id":       updated.ID,
		"sku":      updated.SKU,
		"quantity": quantity,
	})
	return &updated, nil
}

// AdjustStock applies a manual delta to the product with the given id. The
// delta may be negative as long as it does not drive the quantity below
// zero; a failed adjustment leaves the product untouched. Emits stockAdjusted.
func (s *InventoryService) AdjustStock(id uint, delta int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByIDLocked(id)
	if idx < 0 {
		return nil, &apperrors.NotFoundError{Resource: "product", Key: fmt.Sprintf("%d", id)}
	}

	product := s.products[idx]
	if product.Quantity+delta < 0 {
		return nil, &apperrors.NegativeStockError{
			SKU:      product.SKU,
			Quantity: product.Quantity,
			Delta:    delta,
		}
	}

	updated := product
	updated.Quantity += delta
	updated.UpdatedAt = time.Now()

	if err := s.productRepo.Update(&updated); err != nil {
		return nil, &apperrors.StorageError{Op: "adjust stock", Err: err}
	}
	s.products[idx] = updated

	s.notify(events.StockAdjusted, map[string]interface{}{
		"id":    updated.ID,
		"sku":   updated.SKU,
		"delta": delta,
	})
	return &updated, nil
}

// SearchProducts returns products whose sku, name, category, barcode or
// supplier contains term (case-insensitive). An optional category narrows
// the result to an exact category match. Results keep catalog insertion order.
func (s *InventoryService) SearchProducts(term, category string) []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(term))
	var results []models.Product
	for _, p := range s.products {
		if needle != "" && !matchesTerm(&p, needle) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		results = append(results, p)
	}
	return results
}

// GetAllProducts returns a defensive copy of the in-memory catalog.
func (s *InventoryService) GetAllProducts() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]models.Product, len(s.products))
	copy(products, s.products)
	return products
}

// ListSales returns the full sale ledger in the order sales happened.
func (s *InventoryService) ListSales() ([]models.Sale, error) {
	sales, err := s.saleRepo.GetAll()
	if err != nil {
		return nil, &apperrors.StorageError{Op: "list sales", Err: err}
	}
	return sales, nil
}

// GetStatistics computes a summary of the current catalog.
func (s *InventoryService) GetStatistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Statistics{
		LowStockProducts: []models.Product{},
		Categories:       make(map[string]CategoryBreakdown),
	}
	stats.TotalProducts = len(s.products)

	for _, p := range s.products {
		value := p.Price * float64(p.Quantity)
		stats.TotalValue += value
		if p.IsLowStock() {
			stats.LowStockCount++
			stats.LowStockProducts = append(stats.LowStockProducts, p)
		}
		breakdown := stats.Categories[p.Category]
		breakdown.Count++
		breakdown.Value = round2(breakdown.Value + value)
		stats.Categories[p.Category] = breakdown
	}

	stats.CategoryCount = len(stats.Categories)
	stats.TotalValue = round2(stats.TotalValue)
	if stats.TotalProducts > 0 {
		stats.AverageValue = round2(stats.TotalValue / float64(stats.TotalProducts))
	}
	return stats
}

// validateProduct checks a normalized product, returning a ValidationError
// describing the first offending field.
func (s *InventoryService) validateProduct(product *models.Product) error {
	if err := s.validate.Struct(product); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok || len(validationErrors) == 0 {
			return &apperrors.ValidationError{Field: "product", Message: err.Error()}
		}
		e := validationErrors[0]
		return &apperrors.ValidationError{Field: e.Field(), Message: validationMessage(e)}
	}
	if !skuPattern.MatchString(product.SKU) {
		return &apperrors.ValidationError{Field: "sku", Message: "may only contain letters, digits, '-' and '_'"}
	}
	if product.Barcode != "" && !barcodePattern.MatchString(product.Barcode) {
		return &apperrors.ValidationError{Field: "barcode", Message: "must contain digits only"}
	}
	return nil
}

// findConflictLocked returns a DuplicateError when another product already
// uses the same SKU (case-insensitive) or barcode. Caller must hold s.mu.
func (s *InventoryService) findConflictLocked(product *models.Product) *apperrors.DuplicateError {
	for i := range s.products {
		other := &s.products[i]
		if other.ID == product.ID && product.ID != 0 {
			continue
		}
		if strings.EqualFold(other.SKU, product.SKU) {
			return &apperrors.DuplicateError{Field: "sku", Value: product.SKU}
		}
		if product.Barcode != "" && other.Barcode == product.Barcode {
			return &apperrors.DuplicateError{Field: "barcode", Value: product.Barcode}
		}
	}
	return nil
}

// indexByIDLocked returns the catalog index of the product with the given id,
// or -1. Caller must hold s.mu.
func (s *InventoryService) indexByIDLocked(id uint) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

// resolveLocked resolves an identifier as SKU first, then barcode, against
// the in-memory catalog. A barcode present in the store but missing from
// memory is fetched and appended, so both lookups end up answering from the
// same set. Caller must hold s.mu for writing.
func (s *InventoryService) resolveLocked(identifier string) (int, error) {
	trimmed := strings.TrimSpace(identifier)
	upper := strings.ToUpper(trimmed)
	for i := range s.products {
		if s.products[i].SKU == upper {
			return i, nil
		}
	}
	for i := range s.products {
		if s.products[i].Barcode != "" && s.products[i].Barcode == trimmed {
			return i, nil
		}
	}
	if product, err := s.productRepo.GetByBarcode(trimmed); err == nil && product != nil {
		s.products = append(s.products, *product)
		return len(s.products) - 1, nil
	}
	return -1, &apperrors.NotFoundError{Resource: "product", Key: identifier}
}

func (s *InventoryService) notify(eventType string, payload map[string]interface{}) {
	s.notifier.Publish(events.Event{Type: eventType, Payload: payload})
}

func matchesTerm(p *models.Product, needle string) bool {
	for _, field := range []string{p.SKU, p.Name, p.Category, p.Barcode, p.Supplier} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", e.Param())
	default:
		return fmt.Sprintf("failed on the '%s' rule", e.Tag())
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
