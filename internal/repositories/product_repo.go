package repositories

import (
	"warung/internal/models"
)

// ProductRepository defines the interface for product persistence.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByBarcode(barcode string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
	ReplaceAll(products []models.Product) error
}
