package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/novasalud/inventory/internal/storage/mq"
)

// Service consumes inventory events from the broker. It is the hand-off point
// to the notification side: alert events arriving here are what the
// (externally owned) notification UI reacts to.
type Service struct {
	logger     *slog.Logger
	mqConsumer mq.Consumer
}

// New creates a new event service.
func New(
	logger *slog.Logger,
	mqConsumer mq.Consumer,
) *Service {
	return &Service{
		logger:     logger,
		mqConsumer: mqConsumer,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	if err := s.mqConsumer.RegisterHandler(
		TopicAlertCreated,
		func(ctx context.Context, topic string, payload []byte) error {
			var ev AlertCreatedEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				return fmt.Errorf("unmarshal alert created event: %w", err)
			}

			if err := s.handleAlertCreatedEvent(ctx, ev); err != nil {
				return fmt.Errorf("handle alert created event: %w", err)
			}

			return nil
		},
	); err != nil {
		return nil, fmt.Errorf("register alert created event handler: %w", err)
	}

	if err := s.mqConsumer.RegisterHandler(
		TopicSaleCompleted,
		func(ctx context.Context, topic string, payload []byte) error {
			var ev SaleCompletedEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				return fmt.Errorf("unmarshal sale completed event: %w", err)
			}

			if err := s.handleSaleCompletedEvent(ctx, ev); err != nil {
				return fmt.Errorf("handle sale completed event: %w", err)
			}

			return nil
		},
	); err != nil {
		return nil, fmt.Errorf("register sale completed event handler: %w", err)
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	cleanup := func() {
		mqCleanup()
	}

	return cleanup, nil
}

func (s *Service) handleAlertCreatedEvent(ctx context.Context, ev AlertCreatedEvent) error {
	s.logger.InfoContext(ctx, "low stock alert raised",
		slog.String("alert_id", ev.AlertID),
		slog.String("product_id", ev.ProductID),
		slog.String("product_name", ev.ProductName),
		slog.Int("stock", ev.Stock),
		slog.Int("stock_minimo", ev.StockMinimo),
	)
	return nil
}

func (s *Service) handleSaleCompletedEvent(ctx context.Context, ev SaleCompletedEvent) error {
	s.logger.InfoContext(ctx, "sale completed",
		slog.String("sale_id", ev.SaleID),
		slog.String("created_by", ev.CreatedBy),
		slog.Float64("total", ev.Total),
		slog.Int("line_count", len(ev.Items)),
	)
	return nil
}
