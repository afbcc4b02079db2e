package model

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one intended purchase line. It is a snapshot, not a reservation:
// stock is re-validated at checkout.
type CartLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// Cart is the uncommitted purchase list of one session. Lines keep their
// insertion order.
type Cart struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Line returns the line for the given product, if present.
func (c Cart) Line(productID uuid.UUID) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}

// CartLineView is a cart line joined with current product data for display.
type CartLineView struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Subtotal  float64   `json:"subtotal"`
}

// CartView is the cart snapshot returned to callers: lines in insertion order
// priced at each product's current price.
type CartView struct {
	SessionID string         `json:"session_id"`
	Lines     []CartLineView `json:"lines"`
	Total     float64        `json:"total"`
}
