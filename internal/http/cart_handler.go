package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/novasalud/inventory/internal/apperr"
	"github.com/novasalud/inventory/internal/http/middleware"
	"github.com/novasalud/inventory/internal/service"
)

type cartHandler struct {
	svc     *Service
	cartSvc service.CartService
}

func newCartHandler(svc *Service, cartSvc service.CartService) *cartHandler {
	return &cartHandler{
		svc:     svc,
		cartSvc: cartSvc,
	}
}

type addCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

func (h *cartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		h.svc.respondError(w, r, apperr.SessionRequiredErr)
		return
	}

	var req addCartItemRequest
	if err := h.svc.decodeBody(r, &req); err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	if err := h.cartSvc.Add(r.Context(), sessionID, req.ProductID, req.Quantity); err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.getCart(w, r, sessionID)
}

type updateCartItemRequest struct {
	// Zero or negative removes the line.
	Quantity int `json:"quantity"`
}

func (h *cartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		h.svc.respondError(w, r, apperr.SessionRequiredErr)
		return
	}

	productID, err := productIDFromURL(r)
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	var req updateCartItemRequest
	if err := h.svc.decodeBody(r, &req); err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	if err := h.cartSvc.UpdateQuantity(r.Context(), sessionID, productID, req.Quantity); err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.getCart(w, r, sessionID)
}

func (h *cartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		h.svc.respondError(w, r, apperr.SessionRequiredErr)
		return
	}

	productID, err := productIDFromURL(r)
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	if err := h.cartSvc.Remove(r.Context(), sessionID, productID); err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.getCart(w, r, sessionID)
}

func (h *cartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		h.svc.respondError(w, r, apperr.SessionRequiredErr)
		return
	}

	h.getCart(w, r, sessionID)
}

func (h *cartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		h.svc.respondError(w, r, apperr.SessionRequiredErr)
		return
	}

	if err := h.cartSvc.Clear(r.Context(), sessionID); err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.svc.respondJSON(w, r, http.StatusNoContent, nil)
}

func (h *cartHandler) getCart(w http.ResponseWriter, r *http.Request, sessionID string) {
	view, err := h.cartSvc.Snapshot(r.Context(), sessionID)
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.svc.respondJSON(w, r, http.StatusOK, view)
}
