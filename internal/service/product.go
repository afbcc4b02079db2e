package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/novasalud/inventory/internal/event"
	"github.com/novasalud/inventory/internal/model"
	"github.com/novasalud/inventory/internal/repository"
	"github.com/novasalud/inventory/internal/storage/db"
	"github.com/novasalud/inventory/pkg/outbox"
	"github.com/novasalud/inventory/pkg/ptr"
)

type CreateProductParams struct {
	Name        string
	Sku         string
	Price       float64
	Stock       int
	StockMinimo int
}

// StockInfo is the live stock view exposed to the point-of-sale UI.
type StockInfo struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Stock int       `json:"stock"`
	Price float64   `json:"price"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	GetStockInfo(ctx context.Context, id uuid.UUID) (StockInfo, error)
}

type productService struct {
	db            db.DB
	productRepo   repository.ProductRepository
	outboxMsgRepo repository.OutboxMsgRepository
}

func NewProductService(
	db db.DB,
	productRepo repository.ProductRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) ProductService {
	return &productService{
		db:            db,
		productRepo:   productRepo,
		outboxMsgRepo: outboxMsgRepo,
	}
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now()
	product := model.Product{
		ID:          id,
		Name:        params.Name,
		Sku:         params.Sku,
		Price:       params.Price,
		Stock:       params.Stock,
		StockMinimo: params.StockMinimo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ev := event.ProductCreatedEvent{
		ProductID:   product.ID.String(),
		Name:        product.Name,
		Sku:         product.Sku,
		Price:       product.Price,
		Stock:       product.Stock,
		StockMinimo: product.StockMinimo,
	}

	evBytes, err := json.Marshal(ev)
	if err != nil {
		return model.Product{}, fmt.Errorf("marshal event: %w", err)
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := s.productRepo.
			WithDB(db).
			CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		if err := s.outboxMsgRepo.
			WithDB(db).
			CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
				Topic:        event.TopicProductCreated,
				Headers:      outbox.BuildHeaders(ctx),
				Payload:      evBytes,
				PartitionKey: ptr.New(product.ID.String()),
			}); err != nil {
			return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
		}

		return nil
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	product, err := s.productRepo.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository get product: %w", err)
	}

	return product, nil
}

func (s *productService) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository list all products: %w", err)
	}

	return products, nil
}

func (s *productService) GetStockInfo(ctx context.Context, id uuid.UUID) (StockInfo, error) {
	product, err := s.productRepo.GetProduct(ctx, id)
	if err != nil {
		return StockInfo{}, fmt.Errorf("product repository get product: %w", err)
	}

	return StockInfo{
		ID:    product.ID,
		Name:  product.Name,
		Stock: product.Stock,
		Price: product.Price,
	}, nil
}
