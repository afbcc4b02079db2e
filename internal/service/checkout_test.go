package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novasalud/inventory/internal/apperr"
	"github.com/novasalud/inventory/internal/cart"
	"github.com/novasalud/inventory/internal/event"
	"github.com/novasalud/inventory/internal/model"
	"github.com/novasalud/inventory/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type checkoutFixture struct {
	db          *dbMock
	store       *cart.Store
	productRepo *productRepoMock
	saleRepo    *saleRepoMock
	outboxRepo  *outboxRepoMock
	svc         service.CheckoutService
}

func newCheckoutFixture(products ...model.Product) *checkoutFixture {
	f := &checkoutFixture{
		db:          &dbMock{},
		store:       cart.NewStore(),
		productRepo: newProductRepoMock(products...),
		saleRepo:    &saleRepoMock{},
		outboxRepo:  &outboxRepoMock{},
	}
	f.svc = service.NewCheckoutService(discardLogger(), f.db, f.store, f.productRepo, f.saleRepo, f.outboxRepo)
	return f
}

func TestCheckoutEmptyCart(t *testing.T) {
	t.Run("Should reject checkout of an empty cart", func(t *testing.T) {
		f := newCheckoutFixture()

		_, err := f.svc.Checkout(context.Background(), "session-1", "user-1")

		assert.True(t, apperr.IsCode(err, apperr.CartEmptyCode))
	})
}

func TestCheckoutSuccess(t *testing.T) {
	ctx := context.Background()

	t.Run("Should decrement stock, persist sale and clear the cart", func(t *testing.T) {
		first := newTestProduct("Paracetamol", 2.5, 10)
		second := newTestProduct("Ibuprofen", 4.0, 3)
		f := newCheckoutFixture(first, second)
		f.store.SetLine("session-1", first.ID, 2)
		f.store.SetLine("session-1", second.ID, 1)

		sale, err := f.svc.Checkout(ctx, "session-1", "user-1")

		require.NoError(t, err)
		assert.Equal(t, 8, f.productRepo.stock(first.ID))
		assert.Equal(t, 2, f.productRepo.stock(second.ID))
		assert.InDelta(t, 9.0, sale.Total, 1e-9)
		assert.Equal(t, "user-1", sale.CreatedBy)
		assert.Len(t, sale.Items, 2)

		require.Len(t, f.saleRepo.sales, 1)
		assert.Equal(t, sale.ID, f.saleRepo.sales[0].ID)
		assert.Equal(t, []string{event.TopicSaleCompleted}, f.outboxRepo.topics())
		assert.True(t, f.store.Get("session-1").IsEmpty())
	})

	t.Run("Should capture unit price at the moment of sale", func(t *testing.T) {
		product := newTestProduct("Amoxicillin", 8.0, 10)
		f := newCheckoutFixture(product)
		f.store.SetLine("session-1", product.ID, 3)

		sale, err := f.svc.Checkout(ctx, "session-1", "user-1")

		require.NoError(t, err)
		require.Len(t, sale.Items, 1)
		assert.InDelta(t, 8.0, sale.Items[0].UnitPrice, 1e-9)
		assert.InDelta(t, 24.0, sale.Total, 1e-9)
	})
}

func TestCheckoutInsufficientStock(t *testing.T) {
	ctx := context.Background()

	// Fixed IDs pin the processing order, which sorts by ID bytes.
	lowID := uuid.MustParse("00000000-0000-7000-8000-000000000001")
	midID := uuid.MustParse("00000000-0000-7000-8000-000000000002")
	highID := uuid.MustParse("00000000-0000-7000-8000-000000000003")

	t.Run("Should compensate decremented lines in reverse order", func(t *testing.T) {
		low := newTestProduct("Low", 1.0, 10)
		low.ID = lowID
		mid := newTestProduct("Mid", 1.0, 10)
		mid.ID = midID
		high := newTestProduct("High", 1.0, 0)
		high.ID = highID

		f := newCheckoutFixture(low, mid, high)
		f.store.SetLine("session-1", low.ID, 2)
		f.store.SetLine("session-1", mid.ID, 3)
		f.store.SetLine("session-1", high.ID, 1)

		_, err := f.svc.Checkout(ctx, "session-1", "user-1")

		var failure *service.CheckoutFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, high.ID, failure.ProductID)
		assert.True(t, apperr.IsCode(failure.Err, apperr.InsufficientStockCode))

		assert.Equal(t, []uuid.UUID{lowID, midID}, f.productRepo.decrements)
		assert.Equal(t, []uuid.UUID{midID, lowID}, f.productRepo.increments)
		assert.Equal(t, 10, f.productRepo.stock(low.ID))
		assert.Equal(t, 10, f.productRepo.stock(mid.ID))
	})

	t.Run("Should leave the cart untouched on failure", func(t *testing.T) {
		inStock := newTestProduct("InStock", 1.0, 10)
		soldOut := newTestProduct("SoldOut", 1.0, 0)
		f := newCheckoutFixture(inStock, soldOut)
		f.store.SetLine("session-1", inStock.ID, 1)
		f.store.SetLine("session-1", soldOut.ID, 1)

		_, err := f.svc.Checkout(ctx, "session-1", "user-1")

		require.Error(t, err)
		assert.Len(t, f.store.Get("session-1").Lines, 2)
		assert.Empty(t, f.saleRepo.sales)
		assert.Empty(t, f.outboxRepo.msgs)
	})

	t.Run("Should report the deleted product on checkout", func(t *testing.T) {
		product := newTestProduct("Paracetamol", 2.5, 10)
		f := newCheckoutFixture(product)
		ghostID := uuid.New()
		f.store.SetLine("session-1", product.ID, 1)
		f.store.SetLine("session-1", ghostID, 1)

		_, err := f.svc.Checkout(ctx, "session-1", "user-1")

		var failure *service.CheckoutFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, ghostID, failure.ProductID)
		assert.True(t, apperr.IsCode(failure.Err, apperr.ProductNotFoundCode))
		assert.Equal(t, 10, f.productRepo.stock(product.ID))
	})
}

func TestCheckoutPersistenceFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("Should restore stock when sale persistence fails", func(t *testing.T) {
		product := newTestProduct("Paracetamol", 2.5, 10)
		f := newCheckoutFixture(product)
		f.db.txErr = errors.New("connection refused")
		f.store.SetLine("session-1", product.ID, 2)

		_, err := f.svc.Checkout(ctx, "session-1", "user-1")

		assert.True(t, apperr.IsCode(err, apperr.StorageUnavailableCode))
		assert.Equal(t, 10, f.productRepo.stock(product.ID))
		assert.Empty(t, f.saleRepo.sales)
		assert.Len(t, f.store.Get("session-1").Lines, 1)
	})
}

func TestCheckoutAdvisoryCart(t *testing.T) {
	ctx := context.Background()

	t.Run("Should let both carts validate but only one checkout win", func(t *testing.T) {
		product := newTestProduct("Paracetamol", 2.5, 1)
		f := newCheckoutFixture(product)
		cartSvc := service.NewCartService(f.store, f.productRepo)

		require.NoError(t, cartSvc.Add(ctx, "session-1", product.ID, 1))
		require.NoError(t, cartSvc.Add(ctx, "session-2", product.ID, 1))

		_, err := f.svc.Checkout(ctx, "session-1", "user-1")
		require.NoError(t, err)

		_, err = f.svc.Checkout(ctx, "session-2", "user-2")
		var failure *service.CheckoutFailure
		require.ErrorAs(t, err, &failure)
		assert.True(t, apperr.IsCode(failure.Err, apperr.InsufficientStockCode))
		assert.Len(t, f.store.Get("session-2").Lines, 1, "losing cart stays intact")
		assert.Equal(t, 0, f.productRepo.stock(product.ID))
	})
}

func TestCheckoutConcurrent(t *testing.T) {
	t.Run("Should never oversell under concurrent checkouts", func(t *testing.T) {
		const stock = 5
		const sessions = 10

		product := newTestProduct("Paracetamol", 2.5, stock)
		f := newCheckoutFixture(product)
		for i := range sessions {
			f.store.SetLine(sessionID(i), product.ID, 1)
		}

		var succeeded atomic.Int32
		var wg sync.WaitGroup
		for i := range sessions {
			wg.Go(func() {
				if _, err := f.svc.Checkout(context.Background(), sessionID(i), "user-1"); err == nil {
					succeeded.Add(1)
				}
			})
		}
		wg.Wait()

		assert.Equal(t, int32(stock), succeeded.Load())
		assert.Equal(t, 0, f.productRepo.stock(product.ID))
		assert.Len(t, f.saleRepo.sales, stock)
	})
}

func sessionID(i int) string {
	return "session-" + strconv.Itoa(i)
}
