package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/novasalud/inventory/internal/model"
	"github.com/novasalud/inventory/internal/repository"
)

// AlertService exposes the alert surface to the API: listing open alerts and
// resolving them. Opening alerts is the scanner's job alone; resolution is
// always an explicit action, never automatic.
type AlertService interface {
	ListOpenAlerts(ctx context.Context) ([]model.Alert, error)
	ResolveAlert(ctx context.Context, id uuid.UUID) error
}

type alertService struct {
	alertRepo repository.AlertRepository
}

func NewAlertService(alertRepo repository.AlertRepository) AlertService {
	return &alertService{alertRepo: alertRepo}
}

func (s *alertService) ListOpenAlerts(ctx context.Context) ([]model.Alert, error) {
	alerts, err := s.alertRepo.ListOpenAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("alert repository list open alerts: %w", err)
	}

	return alerts, nil
}

func (s *alertService) ResolveAlert(ctx context.Context, id uuid.UUID) error {
	if err := s.alertRepo.ResolveAlert(ctx, id, time.Now()); err != nil {
		return fmt.Errorf("alert repository resolve alert: %w", err)
	}

	return nil
}
