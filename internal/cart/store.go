// Package cart holds the in-memory, session-scoped cart staging area. Carts
// are advisory: nothing here touches authoritative stock, and a cart dies
// with its session. Each session owns exactly one cart, so no cross-session
// locking is needed beyond the store map itself.
package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/novasalud/inventory/internal/model"
)

type Store struct {
	mu    sync.RWMutex
	carts map[string]model.Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[string]model.Cart)}
}

// Get returns a copy of the session's cart. A session without a cart gets an
// empty one; the cart is materialized on first mutation.
func (s *Store) Get(sessionID string) model.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[sessionID]
	if !ok {
		return model.Cart{SessionID: sessionID}
	}
	return cloneCart(c)
}

// SetLine creates or replaces the line for the given product, preserving the
// insertion order of existing lines.
func (s *Store) SetLine(sessionID string, productID uuid.UUID, qty int) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[sessionID]
	if !ok {
		c = model.Cart{SessionID: sessionID, CreatedAt: now}
	}

	replaced := false
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = qty
			replaced = true
			break
		}
	}
	if !replaced {
		c.Lines = append(c.Lines, model.CartLine{
			ProductID: productID,
			Quantity:  qty,
			AddedAt:   now,
		})
	}

	c.UpdatedAt = now
	s.carts[sessionID] = c
}

// RemoveLine drops the line for the given product; no-op if absent.
func (s *Store) RemoveLine(sessionID string, productID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[sessionID]
	if !ok {
		return
	}

	lines := c.Lines[:0]
	for _, line := range c.Lines {
		if line.ProductID != productID {
			lines = append(lines, line)
		}
	}
	c.Lines = lines
	c.UpdatedAt = time.Now()
	s.carts[sessionID] = c
}

// Clear discards the session's cart entirely.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

func cloneCart(c model.Cart) model.Cart {
	clone := c
	clone.Lines = make([]model.CartLine, len(c.Lines))
	copy(clone.Lines, c.Lines)
	return clone
}
