package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/novasalud/inventory/internal/apperr"
	"github.com/novasalud/inventory/internal/service"
)

type productHandler struct {
	svc        *Service
	productSvc service.ProductService
}

func newProductHandler(svc *Service, productSvc service.ProductService) *productHandler {
	return &productHandler{
		svc:        svc,
		productSvc: productSvc,
	}
}

type createProductRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Sku         string  `json:"sku" validate:"required,max=64"`
	Price       float64 `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	StockMinimo int     `json:"stock_minimo" validate:"gte=0"`
}

func (h *productHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := h.svc.decodeBody(r, &req); err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	product, err := h.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		Name:        req.Name,
		Sku:         req.Sku,
		Price:       req.Price,
		Stock:       req.Stock,
		StockMinimo: req.StockMinimo,
	})
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.svc.respondJSON(w, r, http.StatusCreated, product)
}

func (h *productHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productSvc.ListAllProducts(r.Context())
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.svc.respondJSON(w, r, http.StatusOK, products)
}

func (h *productHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productIDFromURL(r)
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	product, err := h.productSvc.GetProduct(r.Context(), id)
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.svc.respondJSON(w, r, http.StatusOK, product)
}

func (h *productHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	id, err := productIDFromURL(r)
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	info, err := h.productSvc.GetStockInfo(r.Context(), id)
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.svc.respondJSON(w, r, http.StatusOK, info)
}

func productIDFromURL(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		return uuid.Nil, apperr.ValidationErr.WrapParent(err)
	}
	return id, nil
}
