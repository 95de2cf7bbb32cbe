package models

import "time"

// Sale is an append-only record of a completed sale. SKU, Name and UnitPrice
// are snapshots of the product at the moment of sale; the record is never
// updated or deleted afterwards.
type Sale struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID uint      `json:"productId" gorm:"index"`
	SKU       string    `json:"sku" gorm:"index;type:varchar(20)"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unitPrice"`
	Total     float64   `json:"total"`
	Date      time.Time `json:"date" gorm:"index"`
}
