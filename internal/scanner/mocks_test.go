package scanner_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/novasalud/inventory/internal/apperr"
	"github.com/novasalud/inventory/internal/model"
	"github.com/novasalud/inventory/internal/repository"
	"github.com/novasalud/inventory/internal/storage/db"
)

type dbMock struct{}

func (d *dbMock) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (d *dbMock) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

func (d *dbMock) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func (d *dbMock) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (d *dbMock) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	return nil
}

func (d *dbMock) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	return txFunc(d)
}

type productRepoMock struct {
	mu       sync.Mutex
	products map[uuid.UUID]model.Product
	listErr  error
}

func newProductRepoMock(products ...model.Product) *productRepoMock {
	m := &productRepoMock{products: make(map[uuid.UUID]model.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *productRepoMock) WithDB(db.DB) repository.ProductRepository { return m }

func (m *productRepoMock) CreateProduct(_ context.Context, product model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
	return nil
}

func (m *productRepoMock) GetProduct(_ context.Context, id uuid.UUID) (model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.products[id]
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	return product, nil
}

func (m *productRepoMock) ListAllProducts(context.Context) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	products := make([]model.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}
	return products, nil
}

func (m *productRepoMock) ListBelowThreshold(context.Context) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}

	products := []model.Product{}
	for _, p := range m.products {
		if p.BelowThreshold() {
			products = append(products, p)
		}
	}
	return products, nil
}

func (m *productRepoMock) TryDecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.products[id]
	if !ok {
		return apperr.ProductNotFoundErr
	}
	if product.Stock < qty {
		return apperr.InsufficientStockErr
	}
	product.Stock -= qty
	m.products[id] = product
	return nil
}

func (m *productRepoMock) IncrementStock(_ context.Context, id uuid.UUID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.products[id]
	if !ok {
		return apperr.ProductNotFoundErr
	}
	product.Stock += qty
	m.products[id] = product
	return nil
}

func (m *productRepoMock) setStock(id uuid.UUID, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	product := m.products[id]
	product.Stock = stock
	m.products[id] = product
}

type alertRepoMock struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]model.Alert
}

func newAlertRepoMock() *alertRepoMock {
	return &alertRepoMock{alerts: make(map[uuid.UUID]model.Alert)}
}

func (m *alertRepoMock) WithDB(db.DB) repository.AlertRepository { return m }

func (m *alertRepoMock) CreateAlertIfNoneOpen(_ context.Context, alert model.Alert) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.alerts {
		if existing.ProductID == alert.ProductID && !existing.IsReviewed {
			return false, nil
		}
	}
	m.alerts[alert.ID] = alert
	return true, nil
}

func (m *alertRepoMock) GetAlert(_ context.Context, id uuid.UUID) (model.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[id]
	if !ok {
		return model.Alert{}, apperr.AlertNotFoundErr
	}
	return alert, nil
}

func (m *alertRepoMock) ListOpenAlerts(context.Context) ([]model.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alerts := []model.Alert{}
	for _, alert := range m.alerts {
		if !alert.IsReviewed {
			alerts = append(alerts, alert)
		}
	}
	return alerts, nil
}

func (m *alertRepoMock) ResolveAlert(_ context.Context, id uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[id]
	if !ok || alert.IsReviewed {
		return apperr.AlertNotFoundErr
	}
	alert.IsReviewed = true
	m.alerts[id] = alert
	return nil
}

func (m *alertRepoMock) openAlerts() []model.Alert {
	alerts, _ := m.ListOpenAlerts(context.Background())
	return alerts
}

type outboxRepoMock struct {
	mu   sync.Mutex
	msgs []repository.CreateOutboxMsgParams
}

func (m *outboxRepoMock) WithDB(db.DB) repository.OutboxMsgRepository { return m }

func (m *outboxRepoMock) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, params)
	return nil
}

func (m *outboxRepoMock) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, nil
}

func (m *outboxRepoMock) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}

func (m *outboxRepoMock) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}
