package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/novasalud/inventory/internal/apperr"
	"github.com/novasalud/inventory/internal/cart"
	"github.com/novasalud/inventory/internal/model"
	"github.com/novasalud/inventory/internal/repository"
)

// CartService manages the per-session staging cart. Every mutation validates
// against current stock, but nothing is reserved: the check is optimistic and
// point-in-time, and only checkout is authoritative.
type CartService interface {
	Add(ctx context.Context, sessionID string, productID uuid.UUID, qty int) error
	Remove(ctx context.Context, sessionID string, productID uuid.UUID) error
	UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) error
	Clear(ctx context.Context, sessionID string) error
	Snapshot(ctx context.Context, sessionID string) (model.CartView, error)
}

type cartService struct {
	carts       *cart.Store
	productRepo repository.ProductRepository
}

func NewCartService(carts *cart.Store, productRepo repository.ProductRepository) CartService {
	return &cartService{
		carts:       carts,
		productRepo: productRepo,
	}
}

func (s *cartService) Add(ctx context.Context, sessionID string, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return apperr.ValidationErr.WrapParent(fmt.Errorf("quantity must be at least 1, got %d", qty))
	}

	requested := qty
	if line, ok := s.carts.Get(sessionID).Line(productID); ok {
		requested += line.Quantity
	}

	if err := s.validateStock(ctx, productID, requested); err != nil {
		return err
	}

	s.carts.SetLine(sessionID, productID, requested)
	return nil
}

func (s *cartService) Remove(_ context.Context, sessionID string, productID uuid.UUID) error {
	s.carts.RemoveLine(sessionID, productID)
	return nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) error {
	// Zero and negative quantities remove the line; a cart never holds a
	// non-positive line.
	if qty <= 0 {
		s.carts.RemoveLine(sessionID, productID)
		return nil
	}

	if err := s.validateStock(ctx, productID, qty); err != nil {
		return err
	}

	s.carts.SetLine(sessionID, productID, qty)
	return nil
}

func (s *cartService) Clear(_ context.Context, sessionID string) error {
	s.carts.Clear(sessionID)
	return nil
}

func (s *cartService) Snapshot(ctx context.Context, sessionID string) (model.CartView, error) {
	c := s.carts.Get(sessionID)

	view := model.CartView{
		SessionID: sessionID,
		Lines:     make([]model.CartLineView, 0, len(c.Lines)),
	}

	for _, line := range c.Lines {
		product, err := s.productRepo.GetProduct(ctx, line.ProductID)
		if err != nil {
			// A product deleted after it was added leaves a stale line; it is
			// omitted from the view and will surface as NotFound at checkout.
			if apperr.IsCode(err, apperr.ProductNotFoundCode) {
				continue
			}
			return model.CartView{}, fmt.Errorf("product repository get product: %w", err)
		}

		subtotal := product.Price * float64(line.Quantity)
		view.Lines = append(view.Lines, model.CartLineView{
			ProductID: line.ProductID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			Subtotal:  subtotal,
		})
		view.Total += subtotal
	}

	return view, nil
}

func (s *cartService) validateStock(ctx context.Context, productID uuid.UUID, requested int) error {
	product, err := s.productRepo.GetProduct(ctx, productID)
	if err != nil {
		if apperr.IsCode(err, apperr.ProductNotFoundCode) {
			return err
		}
		return fmt.Errorf("product repository get product: %w", err)
	}

	if product.Stock < requested {
		return apperr.InsufficientStockErr.WrapParent(
			fmt.Errorf("product %s: requested %d, available %d", productID, requested, product.Stock))
	}

	return nil
}
