package repositories

import (
	"sync"

	"warung/internal/models"
)

// MockSaleRepository is an in-memory implementation of SaleRepository.
type MockSaleRepository struct {
	sales  []models.Sale
	nextID uint
	mu     sync.RWMutex
}

// NewMockSaleRepository creates a new instance of MockSaleRepository.
func NewMockSaleRepository() *MockSaleRepository {
	return &MockSaleRepository{
		nextID: 1,
	}
}

// GetAll returns all recorded sales in order.
func (r *MockSaleRepository) GetAll() ([]models.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	saleList := make([]models.Sale, len(r.sales))
	copy(saleList, r.sales)
	return saleList, nil
}

// Create appends a new sale, assigning the next id when none is set.
func (r *MockSaleRepository) Create(sale *models.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sale.ID == 0 {
		sale.ID = r.nextID
	}
	if sale.ID >= r.nextID {
		r.nextID = sale.ID + 1
	}
	r.sales = append(r.sales, *sale)
	return nil
}

// ReplaceAll wipes the recorded sales and inserts the given ones.
func (r *MockSaleRepository) ReplaceAll(sales []models.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sales = make([]models.Sale, len(sales))
	copy(r.sales, sales)
	for _, s := range sales {
		if s.ID >= r.nextID {
			r.nextID = s.ID + 1
		}
	}
	return nil
}
