package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/novasalud/inventory/internal/model"
	"github.com/novasalud/inventory/internal/storage/db"
)

// SaleRepository persists completed checkouts. Sales are immutable once
// written; there is no update path.
type SaleRepository interface {
	WithDB(db db.DB) SaleRepository
	CreateSale(ctx context.Context, sale model.Sale) error
	GetSale(ctx context.Context, id uuid.UUID) (model.Sale, error)
	ListSales(ctx context.Context) ([]model.Sale, error)
}

type saleRepository struct {
	db db.DB
}

func NewSaleRepository(db db.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r saleRepository) WithDB(db db.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r saleRepository) CreateSale(ctx context.Context, sale model.Sale) error {
	total, err := numericFromFloat(sale.Total)
	if err != nil {
		return fmt.Errorf("scan total: %w", err)
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO sales (id, total, created_by, created_at)
		VALUES (@id, @total, @created_by, @created_at)
	`, pgx.NamedArgs{
		"id":         sale.ID,
		"total":      total,
		"created_by": sale.CreatedBy,
		"created_at": sale.CreatedAt,
	}); err != nil {
		return fmt.Errorf("create sale: %w", err)
	}

	batch := &pgx.Batch{}
	for _, item := range sale.Items {
		unitPrice, err := numericFromFloat(item.UnitPrice)
		if err != nil {
			return fmt.Errorf("scan unit price: %w", err)
		}
		batch.Queue(`
			INSERT INTO sale_items (sale_id, product_id, quantity, unit_price)
			VALUES (@sale_id, @product_id, @quantity, @unit_price)
		`, pgx.NamedArgs{
			"sale_id":    sale.ID,
			"product_id": item.ProductID,
			"quantity":   item.Quantity,
			"unit_price": unitPrice,
		})
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()
	for range sale.Items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("create sale item: %w", err)
		}
	}

	return nil
}

func (r saleRepository) GetSale(ctx context.Context, id uuid.UUID) (model.Sale, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, total, created_by, created_at
		FROM sales
		WHERE id = @id
	`, pgx.NamedArgs{"id": id})

	sale, err := scanSale(row)
	if err != nil {
		return model.Sale{}, fmt.Errorf("get sale: %w", err)
	}

	items, err := r.listSaleItems(ctx, id)
	if err != nil {
		return model.Sale{}, err
	}
	sale.Items = items

	return sale, nil
}

func (r saleRepository) ListSales(ctx context.Context) ([]model.Sale, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, total, created_by, created_at
		FROM sales
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := []model.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}

	for i := range sales {
		items, err := r.listSaleItems(ctx, sales[i].ID)
		if err != nil {
			return nil, err
		}
		sales[i].Items = items
	}

	return sales, nil
}

func (r saleRepository) listSaleItems(ctx context.Context, saleID uuid.UUID) ([]model.SaleItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT product_id, quantity, unit_price
		FROM sale_items
		WHERE sale_id = @sale_id
		ORDER BY product_id ASC
	`, pgx.NamedArgs{"sale_id": saleID})
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()

	items := []model.SaleItem{}
	for rows.Next() {
		var (
			item      model.SaleItem
			unitPrice pgtype.Numeric
		)
		if err := rows.Scan(&item.ProductID, &item.Quantity, &unitPrice); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		priceValue, err := unitPrice.Float64Value()
		if err != nil {
			return nil, fmt.Errorf("convert unit price to float64: %w", err)
		}
		item.UnitPrice = priceValue.Float64
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale items: %w", err)
	}

	return items, nil
}

func scanSale(row pgx.Row) (model.Sale, error) {
	var (
		sale  model.Sale
		total pgtype.Numeric
	)
	if err := row.Scan(&sale.ID, &total, &sale.CreatedBy, &sale.CreatedAt); err != nil {
		return model.Sale{}, err
	}

	totalValue, err := total.Float64Value()
	if err != nil {
		return model.Sale{}, fmt.Errorf("convert total to float64: %w", err)
	}
	sale.Total = totalValue.Float64

	return sale, nil
}
