package model

import (
	"time"

	"github.com/google/uuid"
)

// Sale is an immutable record of a completed checkout.
type Sale struct {
	ID        uuid.UUID  `json:"id"`
	Items     []SaleItem `json:"items"`
	Total     float64    `json:"total"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// SaleItem captures one sold line with the unit price at the moment of sale.
type SaleItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
}
