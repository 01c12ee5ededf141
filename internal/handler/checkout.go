package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rasoi-app/api/internal/service"
)

// CheckoutServicer defines the service methods needed by the checkout handler.
// Satisfied by *service.CheckoutService; narrow interface for testability.
type CheckoutServicer interface {
	CreateOrder(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

// CheckoutHandler handles customer checkout. Public like the menu: customers
// place orders without an account.
type CheckoutHandler struct {
	svc CheckoutServicer
	hub OrderBroadcaster
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(svc CheckoutServicer, hub OrderBroadcaster) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, hub: hub}
}

// RegisterRoutes registers the checkout endpoint on the given Chi router.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
}

type checkoutRequest struct {
	CustomerName    string                `json:"customer_name"`
	CustomerPhone   string                `json:"customer_phone"`
	CustomerAddress string                `json:"customer_address"`
	Items           []checkoutItemRequest `json:"items"`
}

type checkoutItemRequest struct {
	ProductID    string `json:"product_id"`
	SelectedSize string `json:"selected_size"`
	Quantity     int32  `json:"quantity"`
}

// Create handles POST /orders.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.CheckoutItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CheckoutItemRequest{
			ProductID:    item.ProductID,
			SelectedSize: item.SelectedSize,
			Quantity:     item.Quantity,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CheckoutRequest{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		Items:           items,
	})
	if err != nil {
		if isCheckoutValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: checkout: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbOrderToResponse(result.Order)
	itemResps := make([]orderItemResponse, len(result.Items))
	for i, item := range result.Items {
		itemResps[i] = dbOrderItemToResponse(item)
	}
	resp.Items = itemResps

	if h.hub != nil {
		h.hub.BroadcastOrder("order_created", resp)
	}

	writeJSON(w, http.StatusCreated, resp)
}

// isCheckoutValidationError reports whether err is a cart problem the client
// can fix, as opposed to an infrastructure failure.
func isCheckoutValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrCustomerName) ||
		errors.Is(err, service.ErrCustomerPhone) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidProductID) ||
		errors.Is(err, service.ErrProductNotFound) ||
		errors.Is(err, service.ErrProductUnavailable) ||
		errors.Is(err, service.ErrSizeRequired) ||
		errors.Is(err, service.ErrSizeUnknown)
}
