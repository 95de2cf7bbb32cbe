package repositories

import (
	"fmt"

	"gorm.io/gorm"

	"warung/internal/models"
)

// GORMSaleRepository is a GORM implementation of SaleRepository.
type GORMSaleRepository struct {
	db *gorm.DB
}

// NewGORMSaleRepository creates a new instance of GORMSaleRepository.
func NewGORMSaleRepository(db *gorm.DB) *GORMSaleRepository {
	return &GORMSaleRepository{
		db: db,
	}
}

// GetAll retrieves all sales from the database in the order they happened.
func (r *GORMSaleRepository) GetAll() ([]models.Sale, error) {
	var sales []models.Sale
	if err := r.db.Order("id").Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to get all sales: %w", err)
	}
	return sales, nil
}

// Create appends a new sale record.
func (r *GORMSaleRepository) Create(sale *models.Sale) error {
	if err := r.db.Create(sale).Error; err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

// ReplaceAll wipes the sale table and inserts the given sales in a single
// transaction. Used by backup import.
func (r *GORMSaleRepository) ReplaceAll(sales []models.Sale) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Sale{}).Error; err != nil {
			return err
		}
		if len(sales) == 0 {
			return nil
		}
		return tx.Create(&sales).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace sales: %w", err)
	}
	return nil
}
