package model

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Sku         string    `json:"sku"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	StockMinimo int       `json:"stock_minimo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BelowThreshold reports whether the product is at or below its reorder threshold.
func (p Product) BelowThreshold() bool {
	return p.Stock <= p.StockMinimo
}
