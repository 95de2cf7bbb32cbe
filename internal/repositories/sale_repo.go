package repositories

import (
	"warung/internal/models"
)

// SaleRepository defines the interface for the append-only sale ledger.
// Sales are only ever created or bulk-replaced (by backup import), never
// updated or deleted individually.
type SaleRepository interface {
	GetAll() ([]models.Sale, error)
	Create(sale *models.Sale) error
	ReplaceAll(sales []models.Sale) error
}
