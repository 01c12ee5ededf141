// Package handler implements the invested-items inventory endpoints:
// category and item master data plus per-item purchase history.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rasoi-app/api/internal/database"
)

// --- Store interfaces ---

// CategoryStore defines the database methods needed by category handlers.
type CategoryStore interface {
	ListInvestedCategories(ctx context.Context) ([]database.InvestedCategory, error)
	GetInvestedCategory(ctx context.Context, id uuid.UUID) (database.InvestedCategory, error)
	CreateInvestedCategory(ctx context.Context, arg database.CreateInvestedCategoryParams) (database.InvestedCategory, error)
	UpdateInvestedCategory(ctx context.Context, arg database.UpdateInvestedCategoryParams) (database.InvestedCategory, error)
	CountInvestedCategoryChildren(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteInvestedCategory(ctx context.Context, id uuid.UUID) error
}

// ItemStore defines the database methods needed by item handlers.
type ItemStore interface {
	ListInvestedItemsByCategory(ctx context.Context, categoryID uuid.UUID) ([]database.InvestedItem, error)
	GetInvestedItem(ctx context.Context, id uuid.UUID) (database.InvestedItem, error)
	CreateInvestedItem(ctx context.Context, arg database.CreateInvestedItemParams) (database.InvestedItem, error)
	UpdateInvestedItem(ctx context.Context, arg database.UpdateInvestedItemParams) (database.InvestedItem, error)
	DeleteInvestedItem(ctx context.Context, id uuid.UUID) error
}

// --- MasterHandler ---

// MasterHandler handles CRUD endpoints for inventory master data.
type MasterHandler struct {
	categoryStore CategoryStore
	itemStore     ItemStore
}

// NewMasterHandler creates a new MasterHandler.
func NewMasterHandler(categoryStore CategoryStore, itemStore ItemStore) *MasterHandler {
	return &MasterHandler{
		categoryStore: categoryStore,
		itemStore:     itemStore,
	}
}

// RegisterRoutes registers inventory master-data endpoints on the given Chi
// router. Expected to be mounted at /admin/inventory behind auth.
func (h *MasterHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)
	r.Put("/categories/{id}", h.UpdateCategory)
	r.Delete("/categories/{id}", h.DeleteCategory)

	r.Get("/categories/{id}/items", h.ListItems)
	r.Post("/categories/{id}/items", h.CreateItem)
	r.Put("/items/{id}", h.UpdateItem)
	r.Delete("/items/{id}", h.DeleteItem)
}

// --- Request / Response types ---

type categoryRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

type categoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
}

type itemRequest struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

type itemResponse struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

// --- Category handlers ---

// ListCategories handles GET /admin/inventory/categories.
func (h *MasterHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryStore.ListInvestedCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = dbCategoryToResponse(c)
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateCategory handles POST /admin/inventory/categories.
func (h *MasterHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	var parentID pgtype.UUID
	if req.ParentID != "" {
		parsed, err := uuid.Parse(req.ParentID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid parent_id"})
			return
		}
		if _, err := h.categoryStore.GetInvestedCategory(r.Context(), parsed); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "parent category not found"})
				return
			}
			log.Printf("ERROR: check parent category: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		parentID = pgtype.UUID{Bytes: parsed, Valid: true}
	}

	category, err := h.categoryStore.CreateInvestedCategory(r.Context(), database.CreateInvestedCategoryParams{
		Name:     req.Name,
		ParentID: parentID,
	})
	if err != nil {
		log.Printf("ERROR: create category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbCategoryToResponse(category))
}

// UpdateCategory handles PUT /admin/inventory/categories/{id}.
func (h *MasterHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	category, err := h.categoryStore.UpdateInvestedCategory(r.Context(), database.UpdateInvestedCategoryParams{
		ID:   id,
		Name: req.Name,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: update category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbCategoryToResponse(category))
}

// DeleteCategory handles DELETE /admin/inventory/categories/{id}.
// Refused while subcategories or items still reference it.
func (h *MasterHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	children, err := h.categoryStore.CountInvestedCategoryChildren(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: count category children: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if children > 0 {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "category still has subcategories or items"})
		return
	}

	if err := h.categoryStore.DeleteInvestedCategory(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// Someone added a child between our count and the delete.
			writeJSON(w, http.StatusConflict, map[string]string{"error": "category still has subcategories or items"})
			return
		}
		log.Printf("ERROR: delete category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// --- Item handlers ---

// ListItems handles GET /admin/inventory/categories/{id}/items.
func (h *MasterHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	items, err := h.itemStore.ListInvestedItemsByCategory(r.Context(), categoryID)
	if err != nil {
		log.Printf("ERROR: list items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]itemResponse, len(items))
	for i, item := range items {
		resp[i] = dbItemToResponse(item)
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateItem handles POST /admin/inventory/categories/{id}/items.
func (h *MasterHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	if _, err := h.categoryStore.GetInvestedCategory(r.Context(), categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: check category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	item, err := h.itemStore.CreateInvestedItem(r.Context(), database.CreateInvestedItemParams{
		CategoryID: categoryID,
		Name:       req.Name,
		Notes:      req.Notes,
	})
	if err != nil {
		log.Printf("ERROR: create item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbItemToResponse(item))
}

// UpdateItem handles PUT /admin/inventory/items/{id}.
func (h *MasterHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	item, err := h.itemStore.UpdateInvestedItem(r.Context(), database.UpdateInvestedItemParams{
		ID:    id,
		Name:  req.Name,
		Notes: req.Notes,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: update item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbItemToResponse(item))
}

// DeleteItem handles DELETE /admin/inventory/items/{id}.
// Purchases under the item are removed with it.
func (h *MasterHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	if err := h.itemStore.DeleteInvestedItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: delete item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// --- Converters ---

func dbCategoryToResponse(c database.InvestedCategory) categoryResponse {
	resp := categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	}
	if c.ParentID.Valid {
		s := uuid.UUID(c.ParentID.Bytes).String()
		resp.ParentID = &s
	}
	return resp
}

func dbItemToResponse(i database.InvestedItem) itemResponse {
	return itemResponse{
		ID:         i.ID,
		CategoryID: i.CategoryID,
		Name:       i.Name,
		Notes:      i.Notes,
		CreatedAt:  i.CreatedAt,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: encoding response: %v", err)
	}
}
