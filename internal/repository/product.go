package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/novasalud/inventory/internal/apperr"
	"github.com/novasalud/inventory/internal/model"
	"github.com/novasalud/inventory/internal/storage/db"
)

// ProductRepository is the authoritative store for product stock. Stock is
// mutated only through TryDecrementStock and IncrementStock; both are single
// conditional statements so the check-and-mutate window is invisible to
// concurrent callers.
type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	CreateProduct(ctx context.Context, product model.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	ListBelowThreshold(ctx context.Context) ([]model.Product, error)

	// TryDecrementStock decrements stock by qty only if current stock >= qty.
	// Returns apperr.InsufficientStockErr without mutating anything when the
	// precondition fails, apperr.ProductNotFoundErr for an unknown product.
	TryDecrementStock(ctx context.Context, id uuid.UUID, qty int) error

	// IncrementStock adds qty back to stock. Used for checkout compensation
	// and stock intake; succeeds whenever the product exists.
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	price, err := numericFromFloat(product.Price)
	if err != nil {
		return fmt.Errorf("scan price: %w", err)
	}

	if product.Stock > math.MaxInt32 || product.StockMinimo > math.MaxInt32 {
		return fmt.Errorf("stock out of range: %d", product.Stock)
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, sku, price, stock, stock_minimo, created_at, updated_at)
		VALUES (@id, @name, @sku, @price, @stock, @stock_minimo, @created_at, @updated_at)
	`, pgx.NamedArgs{
		"id":           product.ID,
		"name":         product.Name,
		"sku":          product.Sku,
		"price":        price,
		"stock":        product.Stock,
		"stock_minimo": product.StockMinimo,
		"created_at":   product.CreatedAt,
		"updated_at":   product.UpdatedAt,
	}); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r productRepository) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, sku, price, stock, stock_minimo, created_at, updated_at
		FROM products
		WHERE id = @id
	`, pgx.NamedArgs{"id": id})

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, apperr.ProductNotFoundErr
		}
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (r productRepository) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, sku, price, stock, stock_minimo, created_at, updated_at
		FROM products
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r productRepository) ListBelowThreshold(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, sku, price, stock, stock_minimo, created_at, updated_at
		FROM products
		WHERE stock <= stock_minimo
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list below threshold: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r productRepository) TryDecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET stock = stock - @qty, updated_at = NOW()
		WHERE id = @id AND stock >= @qty
	`, pgx.NamedArgs{"id": id, "qty": qty})
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Nothing mutated. Distinguish a missing product from insufficient
		// stock with a point read; the decrement itself stays one statement.
		if _, err := r.GetProduct(ctx, id); err != nil {
			return err
		}
		return apperr.InsufficientStockErr
	}

	return nil
}

func (r productRepository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET stock = stock + @qty, updated_at = NOW()
		WHERE id = @id
	`, pgx.NamedArgs{"id": id, "qty": qty})
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.ProductNotFoundErr
	}

	return nil
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		product model.Product
		price   pgtype.Numeric
	)
	if err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Sku,
		&price,
		&product.Stock,
		&product.StockMinimo,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return model.Product{}, err
	}

	priceValue, err := price.Float64Value()
	if err != nil {
		return model.Product{}, fmt.Errorf("convert price to float64: %w", err)
	}
	product.Price = priceValue.Float64

	return product, nil
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	products := []model.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func numericFromFloat(v float64) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(fmt.Sprintf("%f", v)); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}
