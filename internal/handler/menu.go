package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rasoi-app/api/internal/database"
)

// MenuStore defines the database methods needed by the public menu handler.
type MenuStore interface {
	ListVisibleProducts(ctx context.Context) ([]database.Product, error)
}

// MenuHandler serves the customer-facing catalog. No auth; cost fields are
// never included in its responses.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type menuItemResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Category    *string           `json:"category"`
	ImageUrl    *string           `json:"image_url"`
	Price       string            `json:"price"`
	Unit        string            `json:"unit"`
	Variants    map[string]string `json:"variants"`
}

// List handles GET /menu.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListVisibleProducts(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(products))
	for i, p := range products {
		resp[i] = menuItemResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: pgTextPtr(p.Description),
			Category:    pgTextPtr(p.Category),
			ImageUrl:    pgTextPtr(p.ImageUrl),
			Price:       numericToString(p.Price),
			Unit:        p.Unit,
			Variants:    moneyMapToStrings(p.Variants),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
