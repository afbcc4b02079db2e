package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/novasalud/inventory/internal/config"
	"github.com/novasalud/inventory/internal/event"
	"github.com/novasalud/inventory/internal/model"
	"github.com/novasalud/inventory/internal/repository"
	"github.com/novasalud/inventory/internal/storage/db"
	"github.com/novasalud/inventory/pkg/outbox"
	"github.com/novasalud/inventory/pkg/ptr"
)

// Service is the low-stock alert scanner. On a fixed interval it snapshots
// the products at or below their reorder threshold and opens an alert for
// each one that has none open. It only ever opens alerts: a product whose
// stock recovers keeps its open alert until someone resolves it explicitly.
type Service struct {
	cfg         config.Scanner
	logger      *slog.Logger
	db          db.DB
	productRepo repository.ProductRepository
	alertRepo   repository.AlertRepository
	outboxRepo  repository.OutboxMsgRepository

	stopChan chan struct{}
}

func NewService(
	cfg config.Scanner,
	logger *slog.Logger,
	db db.DB,
	productRepo repository.ProductRepository,
	alertRepo repository.AlertRepository,
	outboxRepo repository.OutboxMsgRepository,
) *Service {
	return &Service{
		cfg:         cfg,
		logger:      logger.With(slog.String("service", "scanner")),
		db:          db,
		productRepo: productRepo,
		alertRepo:   alertRepo,
		outboxRepo:  outboxRepo,
		stopChan:    make(chan struct{}),
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		s.run(ctx)
	}()

	return func() {
		close(s.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
			cancel()
		}
	}
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			// A failed sweep never stops the schedule; the next tick retries.
			if err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "error sweeping low stock products", slog.Any("error", err))
			}
		}
	}
}

// Sweep runs one scan. It is idempotent: without stock changes a second run
// creates nothing, because every insert is conditional on no open alert
// existing for that product.
func (s *Service) Sweep(ctx context.Context) error {
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		products, err := s.productRepo.
			WithDB(db).
			ListBelowThreshold(ctx)
		if err != nil {
			return fmt.Errorf("list below threshold: %w", err)
		}

		created := 0
		for _, product := range products {
			ok, err := s.openAlert(ctx, db, product)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}

		if created > 0 {
			s.logger.InfoContext(ctx, "opened low stock alerts",
				slog.Int("created", created),
				slog.Int("below_threshold", len(products)),
			)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("db with tx: %w", err)
	}

	return nil
}

func (s *Service) openAlert(ctx context.Context, db db.DB, product model.Product) (bool, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return false, fmt.Errorf("generate uuid v7: %w", err)
	}

	alert := model.Alert{
		ID:          id,
		ProductID:   product.ID,
		Stock:       product.Stock,
		StockMinimo: product.StockMinimo,
		CreatedAt:   time.Now(),
	}

	created, err := s.alertRepo.
		WithDB(db).
		CreateAlertIfNoneOpen(ctx, alert)
	if err != nil {
		return false, fmt.Errorf("create alert if none open: %w", err)
	}
	if !created {
		return false, nil
	}

	ev := event.AlertCreatedEvent{
		AlertID:     alert.ID.String(),
		ProductID:   product.ID.String(),
		ProductName: product.Name,
		Stock:       product.Stock,
		StockMinimo: product.StockMinimo,
	}
	evBytes, err := json.Marshal(ev)
	if err != nil {
		return false, fmt.Errorf("marshal event: %w", err)
	}

	if err := s.outboxRepo.
		WithDB(db).
		CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
			Topic:        event.TopicAlertCreated,
			Headers:      outbox.BuildHeaders(ctx),
			Payload:      evBytes,
			PartitionKey: ptr.New(product.ID.String()),
		}); err != nil {
		return false, fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return true, nil
}
