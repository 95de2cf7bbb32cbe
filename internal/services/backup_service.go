package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "warung/internal/errors"
	"warung/internal/models"
	"warung/internal/repositories"
	"warung/pkg/events"
)

// BackupVersion is the format version written into exported documents.
const BackupVersion = "1.0"

// BackupMetadata summarizes a backup document.
type BackupMetadata struct {
	TotalProducts int `json:"totalProducts"`
	TotalSales    int `json:"totalSales"`
}

// BackupDocument is the JSON backup format: the full catalog plus the sale
// ledger. Import accepts the same shape that Export produces.
type BackupDocument struct {
	Version    string           `json:"version"`
	ExportDate time.Time        `json:"exportDate"`
	Products   []models.Product `json:"products"`
	Sales      []models.Sale    `json:"sales"`
	Metadata   BackupMetadata   `json:"metadata"`
}

// BackupService exports the ledger to a backup document and restores it from
// one. Import clears and replaces existing data.
type BackupService struct {
	inventory   *InventoryService
	productRepo repositories.ProductRepository
	saleRepo    repositories.SaleRepository
	notifier    events.Notifier
}

// NewBackupService creates a new BackupService. A nil notifier is replaced
// with a no-op one.
func NewBackupService(inventory *InventoryService, productRepo repositories.ProductRepository, saleRepo repositories.SaleRepository, notifier events.Notifier) *BackupService {
	if notifier == nil {
		notifier = events.NotifierFunc(func(events.Event) {})
	}
	return &BackupService{
		inventory:   inventory,
		productRepo: productRepo,
		saleRepo:    saleRepo,
		notifier:    notifier,
	}
}

// Export captures the current catalog and sale ledger as a backup document.
func (s *BackupService) Export() (*BackupDocument, error) {
	products := s.inventory.GetAllProducts()
	sales, err := s.inventory.ListSales()
	if err != nil {
		return nil, err
	}

	return &BackupDocument{
		Version:    BackupVersion,
		ExportDate: time.Now(),
		Products:   products,
		Sales:      sales,
		Metadata: BackupMetadata{
			TotalProducts: len(products),
			TotalSales:    len(sales),
		},
	}, nil
}

// Import validates the document and replaces the catalog and sale ledger
// with its contents. Field-level problems are collected per row and reported
// together; nothing is replaced unless the whole document is valid.
// Emits dataImported on success.
func (s *BackupService) Import(doc *BackupDocument) error {
	if doc == nil || doc.Products == nil {
		return &apperrors.ImportValidationError{Message: "document must contain a products list"}
	}

	products := make([]models.Product, 0, len(doc.Products))
	var rowErrors []apperrors.RowError
	seenSKU := make(map[string]int)
	seenBarcode := make(map[string]int)

	for i, raw := range doc.Products {
		product := raw
		product.SKU = strings.ToUpper(strings.TrimSpace(product.SKU))
		product.Name = strings.TrimSpace(product.Name)
		product.Category = strings.TrimSpace(product.Category)
		product.Barcode = strings.TrimSpace(product.Barcode)
		product.Supplier = strings.TrimSpace(product.Supplier)

		if err := s.inventory.validateProduct(&product); err != nil {
			field, message := "product", err.Error()
			if validationErr, ok := err.(*apperrors.ValidationError); ok {
				field, message = validationErr.Field, validationErr.Message
			}
			rowErrors = append(rowErrors, apperrors.RowError{Row: i, Field: field, Message: message})
			continue
		}
		if prev, ok := seenSKU[product.SKU]; ok {
			rowErrors = append(rowErrors, apperrors.RowError{
				Row:     i,
				Field:   "sku",
				Message: fmt.Sprintf("duplicates row %d", prev),
			})
			continue
		}
		if product.Barcode != "" {
			if prev, ok := seenBarcode[product.Barcode]; ok {
				rowErrors = append(rowErrors, apperrors.RowError{
					Row:     i,
					Field:   "barcode",
					Message: fmt.Sprintf("duplicates row %d", prev),
				})
				continue
			}
			seenBarcode[product.Barcode] = i
		}
		seenSKU[product.SKU] = i
		products = append(products, product)
	}

	if len(rowErrors) > 0 {
		return &apperrors.ImportValidationError{Message: "invalid product rows", Rows: rowErrors}
	}

	if err := s.productRepo.ReplaceAll(products); err != nil {
		return &apperrors.StorageError{Op: "import products", Err: err}
	}
	if err := s.saleRepo.ReplaceAll(doc.Sales); err != nil {
		return &apperrors.StorageError{Op: "import sales", Err: err}
	}
	if err := s.inventory.Load(); err != nil {
		return err
	}

	logrus.Infof("Backup imported: %d products, %d sales", len(products), len(doc.Sales))
	s.notifier.Publish(events.Event{
		Type: events.DataImported,
		Payload: map[string]interface{}{
			"products": len(products),
			"sales":    len(doc.Sales),
		},
	})
	return nil
}
