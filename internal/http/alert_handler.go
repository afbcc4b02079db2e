package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/novasalud/inventory/internal/apperr"
	"github.com/novasalud/inventory/internal/service"
)

type alertHandler struct {
	svc      *Service
	alertSvc service.AlertService
}

func newAlertHandler(svc *Service, alertSvc service.AlertService) *alertHandler {
	return &alertHandler{
		svc:      svc,
		alertSvc: alertSvc,
	}
}

func (h *alertHandler) ListOpenAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alertSvc.ListOpenAlerts(r.Context())
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.svc.respondJSON(w, r, http.StatusOK, alerts)
}

func (h *alertHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "alertID"))
	if err != nil {
		h.svc.respondError(w, r, apperr.ValidationErr.WrapParent(err))
		return
	}

	if err := h.alertSvc.ResolveAlert(r.Context(), id); err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.svc.respondJSON(w, r, http.StatusNoContent, nil)
}
