package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/gomarketplace/internal/domain"
	"github.com/fjod/go_cart/gomarketplace/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type CartHandler struct {
	timeout  time.Duration
	validate *validator.Validate
	log      logrus.FieldLogger
}

func NewCartHandler(timeout time.Duration, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		timeout:  timeout,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

type AddItemRequestDTO struct {
	ID       string  `json:"id" validate:"required,max=128"`
	Title    string  `json:"title" validate:"max=512"`
	ImageURL string  `json:"image_url" validate:"max=2048"`
	Price    float64 `json:"price" validate:"gte=0"`
}

type CartResponseDTO struct {
	Items []domain.CartItem `json:"items"`
	Count int               `json:"count"`
	Total float64           `json:"total"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store, err := service.FromContext(r.Context())
	if err != nil {
		h.handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(store.Products()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, err := service.FromContext(ctx)
	if err != nil {
		h.handleCartError(w, err)
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid product",
			Code:    "invalid_product",
			Details: err.Error(),
		})
		return
	}

	items, err := store.AddToCart(ctx, domain.Product{
		ID:       req.ID,
		Title:    req.Title,
		ImageURL: req.ImageURL,
		Price:    req.Price,
	})
	if err != nil {
		h.handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(items))
}

func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.changeQuantity(w, r, (*service.CartStore).Increment)
}

func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.changeQuantity(w, r, (*service.CartStore).Decrement)
}

func (h *CartHandler) changeQuantity(
	w http.ResponseWriter,
	r *http.Request,
	op func(*service.CartStore, context.Context, string) ([]domain.CartItem, error)) {

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, err := service.FromContext(ctx)
	if err != nil {
		h.handleCartError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item id is required")
		return
	}

	items, err := op(store, ctx, id)
	if err != nil {
		h.handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(items))
}

func (h *CartHandler) handleCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrInvalidProduct):
		respondError(w, http.StatusBadRequest, "invalid_product", err.Error())
	case errors.Is(err, service.ErrNotLoaded):
		respondError(w, http.StatusServiceUnavailable, "not_loaded", "cart is still loading")
	case errors.Is(err, service.ErrStorageWrite):
		// the cart changed in memory; the client should refetch and may retry later
		h.log.WithError(err).Warn("cart mutation not persisted")
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "cart changed but could not be saved")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	case errors.Is(err, service.ErrNotInitialized):
		h.log.WithError(err).Error("cart handler mounted without a store")
		respondError(w, http.StatusInternalServerError, "not_initialized", "cart is not available")
	default:
		h.log.WithError(err).Error("unexpected cart error")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func cartResponse(items []domain.CartItem) CartResponseDTO {
	resp := CartResponseDTO{Items: items}
	if resp.Items == nil {
		resp.Items = []domain.CartItem{}
	}
	resp.Count, resp.Total = domain.Totals(items)
	return resp
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
