package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/novasalud/inventory/internal/apperr"
	"github.com/novasalud/inventory/internal/cart"
	"github.com/novasalud/inventory/internal/event"
	"github.com/novasalud/inventory/internal/model"
	"github.com/novasalud/inventory/internal/repository"
	"github.com/novasalud/inventory/internal/storage/db"
	"github.com/novasalud/inventory/pkg/outbox"
	"github.com/novasalud/inventory/pkg/ptr"
)

// CheckoutFailure reports which cart line stopped a checkout. The cart is
// left untouched so the caller can adjust and retry.
type CheckoutFailure struct {
	ProductID uuid.UUID
	Err       error
}

func (f *CheckoutFailure) Error() string {
	return fmt.Sprintf("checkout failed on product %s: %v", f.ProductID, f.Err)
}

func (f *CheckoutFailure) Unwrap() error {
	return f.Err
}

// CheckoutService converts a validated cart into a persisted sale.
//
// The store offers no transaction spanning the stock rows and the sale, so
// checkout runs as a saga: one atomic conditional decrement per line, unwound
// in reverse on the first failure. Decrements run BEFORE sale persistence;
// on a persistence failure the decrements are compensated, trading the
// "sale persisted but stock untouched" window for the recoverable "sale lost
// but stock correct" one. Only a failed compensation leaves real damage, and
// that is logged under its own fatal-class code.
type CheckoutService interface {
	Checkout(ctx context.Context, sessionID, actorID string) (model.Sale, error)
}

type checkoutService struct {
	logger      *slog.Logger
	db          db.DB
	carts       *cart.Store
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	outboxRepo  repository.OutboxMsgRepository
}

func NewCheckoutService(
	logger *slog.Logger,
	db db.DB,
	carts *cart.Store,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	outboxRepo repository.OutboxMsgRepository,
) CheckoutService {
	return &checkoutService{
		logger:      logger.With(slog.String("service", "checkout")),
		db:          db,
		carts:       carts,
		productRepo: productRepo,
		saleRepo:    saleRepo,
		outboxRepo:  outboxRepo,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, sessionID, actorID string) (model.Sale, error) {
	c := s.carts.Get(sessionID)
	if c.IsEmpty() {
		return model.Sale{}, apperr.CartEmptyErr
	}

	// Fixed deterministic order avoids lock-ordering deadlocks between
	// concurrent checkouts sharing products.
	lines := make([]model.CartLine, len(c.Lines))
	copy(lines, c.Lines)
	slices.SortFunc(lines, func(a, b model.CartLine) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})

	decremented, err := s.decrementAll(ctx, lines)
	if err != nil {
		return model.Sale{}, err
	}

	sale, err := s.buildSale(ctx, lines, actorID)
	if err != nil {
		s.compensate(ctx, decremented)
		return model.Sale{}, err
	}

	if err := s.persistSale(ctx, sale); err != nil {
		s.compensate(ctx, decremented)
		return model.Sale{}, err
	}

	s.carts.Clear(sessionID)
	return sale, nil
}

// decrementAll applies one conditional decrement per line. On the first
// failure it compensates every line already decremented, in reverse order,
// and returns a CheckoutFailure.
func (s *checkoutService) decrementAll(ctx context.Context, lines []model.CartLine) ([]model.CartLine, error) {
	decremented := make([]model.CartLine, 0, len(lines))
	for _, line := range lines {
		if err := s.productRepo.TryDecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.compensate(ctx, decremented)
			return nil, &CheckoutFailure{ProductID: line.ProductID, Err: err}
		}
		decremented = append(decremented, line)
	}

	return decremented, nil
}

// compensate restores stock for already-decremented lines in reverse order.
// Failures are logged under the partial-inconsistency code and compensation
// continues with the remaining lines; a skipped line means stock is now lower
// than reality and needs manual reconciliation.
func (s *checkoutService) compensate(ctx context.Context, decremented []model.CartLine) {
	for i := len(decremented) - 1; i >= 0; i-- {
		line := decremented[i]
		if err := s.productRepo.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.logger.ErrorContext(ctx, "checkout compensation failed",
				slog.String("code", apperr.PartialCheckoutInconsistencyCode),
				slog.String("product_id", line.ProductID.String()),
				slog.Int("quantity", line.Quantity),
				slog.Any("error", err),
			)
		}
	}
}

func (s *checkoutService) buildSale(ctx context.Context, lines []model.CartLine, actorID string) (model.Sale, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return model.Sale{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	sale := model.Sale{
		ID:        id,
		Items:     make([]model.SaleItem, 0, len(lines)),
		CreatedBy: actorID,
		CreatedAt: time.Now(),
	}

	for _, line := range lines {
		product, err := s.productRepo.GetProduct(ctx, line.ProductID)
		if err != nil {
			return model.Sale{}, fmt.Errorf("product repository get product: %w", err)
		}

		sale.Items = append(sale.Items, model.SaleItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		sale.Total += product.Price * float64(line.Quantity)
	}

	return sale, nil
}

// persistSale writes the sale, its items, and the sale.completed outbox
// message in one database transaction.
func (s *checkoutService) persistSale(ctx context.Context, sale model.Sale) error {
	items := make([]event.SaleCompletedItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, event.SaleCompletedItem{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	ev := event.SaleCompletedEvent{
		SaleID:    sale.ID.String(),
		Total:     sale.Total,
		CreatedBy: sale.CreatedBy,
		Items:     items,
	}
	evBytes, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := s.saleRepo.
			WithDB(db).
			CreateSale(ctx, sale); err != nil {
			return fmt.Errorf("sale repository create sale: %w", err)
		}

		if err := s.outboxRepo.
			WithDB(db).
			CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
				Topic:        event.TopicSaleCompleted,
				Headers:      outbox.BuildHeaders(ctx),
				Payload:      evBytes,
				PartitionKey: ptr.New(sale.ID.String()),
			}); err != nil {
			return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
		}

		return nil
	}); err != nil {
		s.logger.ErrorContext(ctx, "sale persistence failed after stock decrement, compensating",
			slog.String("sale_id", sale.ID.String()),
			slog.Any("error", err),
		)
		return apperr.StorageUnavailableErr.WrapParent(fmt.Errorf("persist sale: %w", err))
	}

	return nil
}
