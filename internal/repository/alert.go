package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/novasalud/inventory/internal/apperr"
	"github.com/novasalud/inventory/internal/model"
	"github.com/novasalud/inventory/internal/storage/db"
)

// AlertRepository stores low-stock alerts. The "one open alert per product"
// invariant is enforced by a partial unique index on
// alerts(product_id) WHERE NOT is_reviewed, so CreateAlertIfNoneOpen is safe
// to call from concurrent sweeps.
type AlertRepository interface {
	WithDB(db db.DB) AlertRepository

	// CreateAlertIfNoneOpen inserts the alert unless the product already has an
	// open one. Returns (true, nil) when a new alert was created.
	CreateAlertIfNoneOpen(ctx context.Context, alert model.Alert) (bool, error)

	GetAlert(ctx context.Context, id uuid.UUID) (model.Alert, error)
	ListOpenAlerts(ctx context.Context) ([]model.Alert, error)

	// ResolveAlert marks an open alert as reviewed. Resolving an already
	// reviewed or unknown alert returns apperr.AlertNotFoundErr.
	ResolveAlert(ctx context.Context, id uuid.UUID, resolvedAt time.Time) error
}

type alertRepository struct {
	db db.DB
}

func NewAlertRepository(db db.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r alertRepository) WithDB(db db.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r alertRepository) CreateAlertIfNoneOpen(ctx context.Context, alert model.Alert) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO alerts (id, product_id, stock, stock_minimo, is_reviewed, created_at)
		VALUES (@id, @product_id, @stock, @stock_minimo, FALSE, @created_at)
		ON CONFLICT (product_id) WHERE NOT is_reviewed DO NOTHING
	`, pgx.NamedArgs{
		"id":           alert.ID,
		"product_id":   alert.ProductID,
		"stock":        alert.Stock,
		"stock_minimo": alert.StockMinimo,
		"created_at":   alert.CreatedAt,
	})
	if err != nil {
		return false, fmt.Errorf("create alert: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r alertRepository) GetAlert(ctx context.Context, id uuid.UUID) (model.Alert, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, product_id, stock, stock_minimo, is_reviewed, created_at
		FROM alerts
		WHERE id = @id
	`, pgx.NamedArgs{"id": id})

	var alert model.Alert
	if err := row.Scan(
		&alert.ID,
		&alert.ProductID,
		&alert.Stock,
		&alert.StockMinimo,
		&alert.IsReviewed,
		&alert.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Alert{}, apperr.AlertNotFoundErr
		}
		return model.Alert{}, fmt.Errorf("get alert: %w", err)
	}

	return alert, nil
}

func (r alertRepository) ListOpenAlerts(ctx context.Context) ([]model.Alert, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, stock, stock_minimo, is_reviewed, created_at
		FROM alerts
		WHERE NOT is_reviewed
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list open alerts: %w", err)
	}
	defer rows.Close()

	alerts := []model.Alert{}
	for rows.Next() {
		var alert model.Alert
		if err := rows.Scan(
			&alert.ID,
			&alert.ProductID,
			&alert.Stock,
			&alert.StockMinimo,
			&alert.IsReviewed,
			&alert.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}

	return alerts, nil
}

func (r alertRepository) ResolveAlert(ctx context.Context, id uuid.UUID, resolvedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE alerts
		SET is_reviewed = TRUE, resolved_at = @resolved_at
		WHERE id = @id AND NOT is_reviewed
	`, pgx.NamedArgs{"id": id, "resolved_at": resolvedAt})
	if err != nil {
		return fmt.Errorf("resolve alert: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.AlertNotFoundErr
	}

	return nil
}
