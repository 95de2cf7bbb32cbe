package models

import "time"

// Product represents a stocked item in the shop catalog.
type Product struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SKU       string    `json:"sku" gorm:"uniqueIndex;type:varchar(20)" validate:"required,min=3,max=20"`
	Name      string    `json:"name" validate:"required,min=3,max=100"`
	Category  string    `json:"category" validate:"required"`
	Price     float64   `json:"price" validate:"gte=0,lte=999999.99"`
	Quantity  int       `json:"quantity" validate:"gte=0"`
	MinStock  int       `json:"minStock" validate:"gte=0"`
	Barcode   string    `json:"barcode,omitempty" gorm:"index;type:varchar(20)" validate:"omitempty,min=8,max=20"`
	Supplier  string    `json:"supplier,omitempty" validate:"omitempty,max=100"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsLowStock reports whether the product is at or below its reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.MinStock
}
