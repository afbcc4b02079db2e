package scanner_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novasalud/inventory/internal/config"
	"github.com/novasalud/inventory/internal/event"
	"github.com/novasalud/inventory/internal/model"
	"github.com/novasalud/inventory/internal/scanner"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lowStockProduct(name string, stock, stockMinimo int) model.Product {
	return model.Product{
		ID:          uuid.New(),
		Name:        name,
		Sku:         "SKU-" + name,
		Price:       1.0,
		Stock:       stock,
		StockMinimo: stockMinimo,
	}
}

type scannerFixture struct {
	productRepo *productRepoMock
	alertRepo   *alertRepoMock
	outboxRepo  *outboxRepoMock
	svc         *scanner.Service
}

func newScannerFixture(interval time.Duration, products ...model.Product) *scannerFixture {
	f := &scannerFixture{
		productRepo: newProductRepoMock(products...),
		alertRepo:   newAlertRepoMock(),
		outboxRepo:  &outboxRepoMock{},
	}
	f.svc = scanner.NewService(
		config.Scanner{Interval: interval},
		discardLogger(),
		&dbMock{},
		f.productRepo,
		f.alertRepo,
		f.outboxRepo,
	)
	return f
}

func TestSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("Should open alerts for products at or below threshold", func(t *testing.T) {
		atThreshold := lowStockProduct("AtThreshold", 5, 5)
		below := lowStockProduct("Below", 0, 3)
		healthy := lowStockProduct("Healthy", 50, 5)
		f := newScannerFixture(time.Minute, atThreshold, below, healthy)

		require.NoError(t, f.svc.Sweep(ctx))

		open := f.alertRepo.openAlerts()
		require.Len(t, open, 2)
		productIDs := []uuid.UUID{open[0].ProductID, open[1].ProductID}
		assert.Contains(t, productIDs, atThreshold.ID)
		assert.Contains(t, productIDs, below.ID)
	})

	t.Run("Should emit one alert created event per opened alert", func(t *testing.T) {
		product := lowStockProduct("Paracetamol", 1, 5)
		f := newScannerFixture(time.Minute, product)

		require.NoError(t, f.svc.Sweep(ctx))

		require.Equal(t, 1, f.outboxRepo.count())
		msg := f.outboxRepo.msgs[0]
		assert.Equal(t, event.TopicAlertCreated, msg.Topic)

		var ev event.AlertCreatedEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &ev))
		assert.Equal(t, product.ID.String(), ev.ProductID)
		assert.Equal(t, 1, ev.Stock)
		assert.Equal(t, 5, ev.StockMinimo)
	})

	t.Run("Should not duplicate an open alert across sweeps", func(t *testing.T) {
		product := lowStockProduct("Paracetamol", 1, 5)
		f := newScannerFixture(time.Minute, product)

		require.NoError(t, f.svc.Sweep(ctx))
		require.NoError(t, f.svc.Sweep(ctx))

		assert.Len(t, f.alertRepo.openAlerts(), 1)
		assert.Equal(t, 1, f.outboxRepo.count())
	})

	t.Run("Should keep the alert open when stock recovers", func(t *testing.T) {
		product := lowStockProduct("Paracetamol", 1, 5)
		f := newScannerFixture(time.Minute, product)
		require.NoError(t, f.svc.Sweep(ctx))

		f.productRepo.setStock(product.ID, 100)
		require.NoError(t, f.svc.Sweep(ctx))

		assert.Len(t, f.alertRepo.openAlerts(), 1, "recovery never auto-resolves an alert")
	})

	t.Run("Should open a fresh alert after the previous one is resolved", func(t *testing.T) {
		product := lowStockProduct("Paracetamol", 1, 5)
		f := newScannerFixture(time.Minute, product)
		require.NoError(t, f.svc.Sweep(ctx))

		open := f.alertRepo.openAlerts()
		require.Len(t, open, 1)
		require.NoError(t, f.alertRepo.ResolveAlert(ctx, open[0].ID, time.Now()))

		require.NoError(t, f.svc.Sweep(ctx))

		assert.Len(t, f.alertRepo.openAlerts(), 1)
		assert.Equal(t, 2, f.outboxRepo.count())
	})

	t.Run("Should surface repository errors and recover on the next sweep", func(t *testing.T) {
		product := lowStockProduct("Paracetamol", 1, 5)
		f := newScannerFixture(time.Minute, product)

		f.productRepo.listErr = assert.AnError
		require.Error(t, f.svc.Sweep(ctx))
		assert.Empty(t, f.alertRepo.openAlerts())

		f.productRepo.listErr = nil
		require.NoError(t, f.svc.Sweep(ctx))
		assert.Len(t, f.alertRepo.openAlerts(), 1)
	})
}

func TestRun(t *testing.T) {
	t.Run("Should sweep on the configured interval and stop cleanly", func(t *testing.T) {
		product := lowStockProduct("Paracetamol", 1, 5)
		f := newScannerFixture(5*time.Millisecond, product)

		cleanup := f.svc.Run(context.Background())

		assert.Eventually(t, func() bool {
			return len(f.alertRepo.openAlerts()) == 1
		}, time.Second, 5*time.Millisecond)

		cleanup()
	})
}
