package model

import (
	"time"

	"github.com/google/uuid"
)

// Alert records a low-stock condition observed by the scanner. At most one
// open (unreviewed) alert exists per product; resolving it sets IsReviewed.
type Alert struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	Stock       int       `json:"stock"`
	StockMinimo int       `json:"stock_minimo"`
	IsReviewed  bool      `json:"is_reviewed"`
	CreatedAt   time.Time `json:"created_at"`
}
