package http

import (
	"errors"
	"net/http"

	"github.com/novasalud/inventory/internal/apperr"
	"github.com/novasalud/inventory/internal/http/apierr"
	"github.com/novasalud/inventory/internal/http/middleware"
	"github.com/novasalud/inventory/internal/service"
)

type checkoutHandler struct {
	svc         *Service
	checkoutSvc service.CheckoutService
}

func newCheckoutHandler(svc *Service, checkoutSvc service.CheckoutService) *checkoutHandler {
	return &checkoutHandler{
		svc:         svc,
		checkoutSvc: checkoutSvc,
	}
}

func (h *checkoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		h.svc.respondError(w, r, apperr.SessionRequiredErr)
		return
	}

	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		actorID = sessionID
	}

	sale, err := h.checkoutSvc.Checkout(r.Context(), sessionID, actorID)
	if err != nil {
		var failure *service.CheckoutFailure
		if errors.As(err, &failure) {
			res := apierr.New(failure.Err)
			res.Details = []apierr.FieldError{{
				Field:   "product_id",
				Message: failure.ProductID.String(),
			}}
			h.svc.respondJSONError(w, r, res, err)
			return
		}

		h.svc.respondError(w, r, err)
		return
	}

	h.svc.respondJSON(w, r, http.StatusCreated, sale)
}
