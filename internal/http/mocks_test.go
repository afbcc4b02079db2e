package http_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/novasalud/inventory/internal/config"
	apphttp "github.com/novasalud/inventory/internal/http"
	"github.com/novasalud/inventory/internal/http/middleware"
	"github.com/novasalud/inventory/internal/model"
	"github.com/novasalud/inventory/internal/service"
	"github.com/novasalud/inventory/pkg/validator"
)

type productSvcMock struct {
	createFn       func(ctx context.Context, params service.CreateProductParams) (model.Product, error)
	getFn          func(ctx context.Context, id uuid.UUID) (model.Product, error)
	listFn         func(ctx context.Context) ([]model.Product, error)
	getStockInfoFn func(ctx context.Context, id uuid.UUID) (service.StockInfo, error)
}

func (m *productSvcMock) CreateProduct(ctx context.Context, params service.CreateProductParams) (model.Product, error) {
	return m.createFn(ctx, params)
}

func (m *productSvcMock) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return m.getFn(ctx, id)
}

func (m *productSvcMock) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	return m.listFn(ctx)
}

func (m *productSvcMock) GetStockInfo(ctx context.Context, id uuid.UUID) (service.StockInfo, error) {
	return m.getStockInfoFn(ctx, id)
}

type cartSvcMock struct {
	addFn      func(ctx context.Context, sessionID string, productID uuid.UUID, qty int) error
	removeFn   func(ctx context.Context, sessionID string, productID uuid.UUID) error
	updateFn   func(ctx context.Context, sessionID string, productID uuid.UUID, qty int) error
	clearFn    func(ctx context.Context, sessionID string) error
	snapshotFn func(ctx context.Context, sessionID string) (model.CartView, error)
}

func (m *cartSvcMock) Add(ctx context.Context, sessionID string, productID uuid.UUID, qty int) error {
	return m.addFn(ctx, sessionID, productID, qty)
}

func (m *cartSvcMock) Remove(ctx context.Context, sessionID string, productID uuid.UUID) error {
	return m.removeFn(ctx, sessionID, productID)
}

func (m *cartSvcMock) UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) error {
	return m.updateFn(ctx, sessionID, productID, qty)
}

func (m *cartSvcMock) Clear(ctx context.Context, sessionID string) error {
	return m.clearFn(ctx, sessionID)
}

func (m *cartSvcMock) Snapshot(ctx context.Context, sessionID string) (model.CartView, error) {
	return m.snapshotFn(ctx, sessionID)
}

type checkoutSvcMock struct {
	checkoutFn func(ctx context.Context, sessionID, actorID string) (model.Sale, error)
}

func (m *checkoutSvcMock) Checkout(ctx context.Context, sessionID, actorID string) (model.Sale, error) {
	return m.checkoutFn(ctx, sessionID, actorID)
}

type alertSvcMock struct {
	listFn    func(ctx context.Context) ([]model.Alert, error)
	resolveFn func(ctx context.Context, id uuid.UUID) error
}

func (m *alertSvcMock) ListOpenAlerts(ctx context.Context) ([]model.Alert, error) {
	return m.listFn(ctx)
}

func (m *alertSvcMock) ResolveAlert(ctx context.Context, id uuid.UUID) error {
	return m.resolveFn(ctx, id)
}

// The metrics registered by the service live on the default prometheus
// registry, so the router is built once and the mocks are re-pointed per test.
var fixture struct {
	once sync.Once

	router      *chi.Mux
	productSvc  *productSvcMock
	cartSvc     *cartSvcMock
	checkoutSvc *checkoutSvcMock
	alertSvc    *alertSvcMock
}

func testRouter(t *testing.T) (*chi.Mux, *productSvcMock, *cartSvcMock, *checkoutSvcMock, *alertSvcMock) {
	t.Helper()

	fixture.once.Do(func() {
		validate, err := validator.NewDefaultValidator()
		if err != nil {
			panic(err)
		}

		fixture.productSvc = &productSvcMock{}
		fixture.cartSvc = &cartSvcMock{}
		fixture.checkoutSvc = &checkoutSvcMock{}
		fixture.alertSvc = &alertSvcMock{}

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc := apphttp.New(
			config.HTTP{},
			logger,
			validate,
			fixture.productSvc,
			fixture.cartSvc,
			fixture.checkoutSvc,
			fixture.alertSvc,
		)

		fixture.router = chi.NewRouter()
		fixture.router.Use(middleware.Session())
		svc.RegisterHandlers(fixture.router)
	})

	// Fresh behavior per test.
	*fixture.productSvc = productSvcMock{}
	*fixture.cartSvc = cartSvcMock{}
	*fixture.checkoutSvc = checkoutSvcMock{}
	*fixture.alertSvc = alertSvcMock{}

	return fixture.router, fixture.productSvc, fixture.cartSvc, fixture.checkoutSvc, fixture.alertSvc
}
