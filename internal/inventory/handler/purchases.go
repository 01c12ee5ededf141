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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/rasoi-app/api/internal/database"
)

// PurchaseStore defines the database methods needed by purchase handlers.
type PurchaseStore interface {
	GetInvestedItem(ctx context.Context, id uuid.UUID) (database.InvestedItem, error)
	CreateInvestedPurchase(ctx context.Context, arg database.CreateInvestedPurchaseParams) (database.InvestedPurchase, error)
	ListInvestedPurchasesByItem(ctx context.Context, itemID uuid.UUID) ([]database.InvestedPurchase, error)
	DeleteInvestedPurchase(ctx context.Context, arg database.DeleteInvestedPurchaseParams) error
}

// PurchaseHandler handles the purchase log under each inventory item.
type PurchaseHandler struct {
	store PurchaseStore
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(store PurchaseStore) *PurchaseHandler {
	return &PurchaseHandler{store: store}
}

// RegisterRoutes registers purchase endpoints on the given Chi router.
// Expected to be mounted at /admin/inventory behind auth.
func (h *PurchaseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/items/{id}/purchases", h.List)
	r.Post("/items/{id}/purchases", h.Create)
	r.Delete("/items/{id}/purchases/{pid}", h.Delete)
}

type purchaseRequest struct {
	PurchaseDate string `json:"purchase_date"`
	Price        string `json:"price"`
	Quantity     string `json:"quantity"`
	Weight       string `json:"weight"`
	Vendor       string `json:"vendor"`
	ExpiryDate   string `json:"expiry_date"`
}

type purchaseResponse struct {
	ID           uuid.UUID `json:"id"`
	ItemID       uuid.UUID `json:"item_id"`
	PurchaseDate string    `json:"purchase_date"`
	Price        string    `json:"price"`
	Quantity     string    `json:"quantity"`
	Weight       *string   `json:"weight"`
	Vendor       *string   `json:"vendor"`
	ExpiryDate   *string   `json:"expiry_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// List handles GET /admin/inventory/items/{id}/purchases, newest first.
func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	if _, err := h.store.GetInvestedItem(r.Context(), itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: check item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	purchases, err := h.store.ListInvestedPurchasesByItem(r.Context(), itemID)
	if err != nil {
		log.Printf("ERROR: list purchases: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]purchaseResponse, len(purchases))
	for i, p := range purchases {
		resp[i] = dbPurchaseToResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /admin/inventory/items/{id}/purchases.
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if _, err := h.store.GetInvestedItem(r.Context(), itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: check item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	purchaseDate := time.Now()
	if req.PurchaseDate != "" {
		purchaseDate, err = time.Parse("2006-01-02", req.PurchaseDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid purchase_date, use YYYY-MM-DD"})
			return
		}
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	quantity := decimal.NewFromInt(1)
	if req.Quantity != "" {
		quantity, err = decimal.NewFromString(req.Quantity)
		if err != nil || !quantity.IsPositive() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quantity"})
			return
		}
	}

	var expiry pgtype.Date
	if req.ExpiryDate != "" {
		t, err := time.Parse("2006-01-02", req.ExpiryDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expiry_date, use YYYY-MM-DD"})
			return
		}
		expiry = pgtype.Date{Time: t, Valid: true}
	}

	purchase, err := h.store.CreateInvestedPurchase(r.Context(), database.CreateInvestedPurchaseParams{
		ItemID:       itemID,
		PurchaseDate: pgtype.Date{Time: purchaseDate, Valid: true},
		Price:        purchaseNumeric(price),
		Quantity:     purchaseNumeric(quantity),
		Weight:       purchaseText(req.Weight),
		Vendor:       purchaseText(req.Vendor),
		ExpiryDate:   expiry,
	})
	if err != nil {
		log.Printf("ERROR: create purchase: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbPurchaseToResponse(purchase))
}

// Delete handles DELETE /admin/inventory/items/{id}/purchases/{pid}.
// Rows are addressed by their own ID, so deleting from a stale list view
// removes exactly the row the admin clicked.
func (h *PurchaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	purchaseID, err := uuid.Parse(chi.URLParam(r, "pid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid purchase ID"})
		return
	}

	if err := h.store.DeleteInvestedPurchase(r.Context(), database.DeleteInvestedPurchaseParams{
		ID:     purchaseID,
		ItemID: itemID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "purchase not found"})
			return
		}
		log.Printf("ERROR: delete purchase: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// --- Converters ---

func dbPurchaseToResponse(p database.InvestedPurchase) purchaseResponse {
	resp := purchaseResponse{
		ID:           p.ID,
		ItemID:       p.ItemID,
		PurchaseDate: p.PurchaseDate.Time.Format("2006-01-02"),
		Price:        purchaseNumericString(p.Price),
		Quantity:     purchaseNumericString(p.Quantity),
		CreatedAt:    p.CreatedAt,
	}
	if p.Weight.Valid {
		resp.Weight = &p.Weight.String
	}
	if p.Vendor.Valid {
		resp.Vendor = &p.Vendor.String
	}
	if p.ExpiryDate.Valid {
		s := p.ExpiryDate.Time.Format("2006-01-02")
		resp.ExpiryDate = &s
	}
	return resp
}

func purchaseText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func purchaseNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}
	}
	return n
}

func purchaseNumericString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0"
	}
	v, err := n.Value()
	if err != nil {
		return "0"
	}
	s, ok := v.(string)
	if !ok {
		return "0"
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "0"
	}
	return d.String()
}
