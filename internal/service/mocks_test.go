package service_test

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

// dbMock satisfies db.DB for services that only use WithTx. The transaction
// closure runs against the mock itself, mirroring txWrapper.
type dbMock struct {
	txErr error
}

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
	if d.txErr != nil {
		return d.txErr
	}
	return txFunc(d)
}

// productRepoMock keeps products in memory and applies the same conditional
// decrement semantics as the real repository.
type productRepoMock struct {
	mu       sync.Mutex
	products map[uuid.UUID]model.Product

	getErr       error
	decrementErr map[uuid.UUID]error
	incrementErr map[uuid.UUID]error

	decrements []uuid.UUID
	increments []uuid.UUID
}

func newProductRepoMock(products ...model.Product) *productRepoMock {
	m := &productRepoMock{
		products:     make(map[uuid.UUID]model.Product),
		decrementErr: make(map[uuid.UUID]error),
		incrementErr: make(map[uuid.UUID]error),
	}
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

	if m.getErr != nil {
		return model.Product{}, m.getErr
	}

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

	if err := m.decrementErr[id]; err != nil {
		return err
	}

	product, ok := m.products[id]
	if !ok {
		return apperr.ProductNotFoundErr
	}
	if product.Stock < qty {
		return apperr.InsufficientStockErr
	}

	product.Stock -= qty
	m.products[id] = product
	m.decrements = append(m.decrements, id)
	return nil
}

func (m *productRepoMock) IncrementStock(_ context.Context, id uuid.UUID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.incrementErr[id]; err != nil {
		return err
	}

	product, ok := m.products[id]
	if !ok {
		return apperr.ProductNotFoundErr
	}

	product.Stock += qty
	m.products[id] = product
	m.increments = append(m.increments, id)
	return nil
}

func (m *productRepoMock) stock(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

type saleRepoMock struct {
	mu        sync.Mutex
	sales     []model.Sale
	createErr error
}

func (m *saleRepoMock) WithDB(db.DB) repository.SaleRepository { return m }

func (m *saleRepoMock) CreateSale(_ context.Context, sale model.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	m.sales = append(m.sales, sale)
	return nil
}

func (m *saleRepoMock) GetSale(_ context.Context, id uuid.UUID) (model.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sale := range m.sales {
		if sale.ID == id {
			return sale, nil
		}
	}
	return model.Sale{}, pgx.ErrNoRows
}

func (m *saleRepoMock) ListSales(context.Context) ([]model.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Sale{}, m.sales...), nil
}

type outboxRepoMock struct {
	mu        sync.Mutex
	msgs      []repository.CreateOutboxMsgParams
	createErr error
}

func (m *outboxRepoMock) WithDB(db.DB) repository.OutboxMsgRepository { return m }

func (m *outboxRepoMock) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	m.msgs = append(m.msgs, params)
	return nil
}

func (m *outboxRepoMock) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, nil
}

func (m *outboxRepoMock) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}

func (m *outboxRepoMock) topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	topics := make([]string, 0, len(m.msgs))
	for _, msg := range m.msgs {
		topics = append(topics, msg.Topic)
	}
	return topics
}

func alertForProduct(p model.Product) model.Alert {
	return model.Alert{
		ID:          uuid.New(),
		ProductID:   p.ID,
		Stock:       p.Stock,
		StockMinimo: p.StockMinimo,
		CreatedAt:   time.Now(),
	}
}

type alertRepoMock struct {
	mu         sync.Mutex
	alerts     map[uuid.UUID]model.Alert
	resolveErr error
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

	if m.resolveErr != nil {
		return m.resolveErr
	}

	alert, ok := m.alerts[id]
	if !ok || alert.IsReviewed {
		return apperr.AlertNotFoundErr
	}
	alert.IsReviewed = true
	m.alerts[id] = alert
	return nil
}
