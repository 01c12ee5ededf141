package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/rasoi-app/api/internal/database"
)

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]database.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	CountOrderItemsByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	HardDeleteProduct(ctx context.Context, id uuid.UUID) error
	SoftDeleteProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
}

// ProductHandler handles the admin catalog endpoints.
type ProductHandler struct {
	store ProductStore
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

// RegisterRoutes registers product endpoints on the given Chi router.
// Expected to be mounted at /admin/products behind auth.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

// productRequest covers create and update. Variant maps accept any JSON
// value; non-numeric and non-positive entries are silently dropped.
type productRequest struct {
	Name             string                     `json:"name"`
	Description      *string                    `json:"description"`
	Category         *string                    `json:"category"`
	ImageUrl         *string                    `json:"image_url"`
	Price            *string                    `json:"price"`
	Unit             *string                    `json:"unit"`
	Variants         map[string]json.RawMessage `json:"variants"`
	Spending         *string                    `json:"spending"`
	SpendingVariants map[string]json.RawMessage `json:"spending_variants"`
	IsHidden         *bool                      `json:"is_hidden"`
	IsAvailable      *bool                      `json:"is_available"`
}

type productResponse struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	Description      *string           `json:"description"`
	Category         *string           `json:"category"`
	ImageUrl         *string           `json:"image_url"`
	Price            string            `json:"price"`
	Unit             string            `json:"unit"`
	Variants         map[string]string `json:"variants"`
	Spending         string            `json:"spending"`
	SpendingVariants map[string]string `json:"spending_variants"`
	IsHidden         bool              `json:"is_hidden"`
	IsAvailable      bool              `json:"is_available"`
}

// --- Handlers ---

// List handles GET /admin/products. Unlike the public menu it includes
// hidden products and cost fields.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		log.Printf("ERROR: list products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = dbProductToResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /admin/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: get product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbProductToResponse(product))
}

// Create handles POST /admin/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	price := decimal.Zero
	if req.Price != nil {
		var err error
		price, err = decimal.NewFromString(*req.Price)
		if err != nil || price.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
			return
		}
	}

	spending := decimal.Zero
	if req.Spending != nil {
		var err error
		spending, err = decimal.NewFromString(*req.Spending)
		if err != nil || spending.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid spending"})
			return
		}
	}

	unit := "each"
	if req.Unit != nil && *req.Unit != "" {
		unit = *req.Unit
	}

	isHidden := false
	if req.IsHidden != nil {
		isHidden = *req.IsHidden
	}
	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}

	product, err := h.store.CreateProduct(r.Context(), database.CreateProductParams{
		Name:             req.Name,
		Description:      textFromPtr(req.Description),
		Category:         textFromPtr(req.Category),
		ImageUrl:         textFromPtr(req.ImageUrl),
		Price:            decimalToNumeric(price),
		Unit:             unit,
		Variants:         sanitizeMoneyMap(req.Variants),
		Spending:         decimalToNumeric(spending),
		SpendingVariants: sanitizeMoneyMap(req.SpendingVariants),
		IsHidden:         isHidden,
		IsAvailable:      isAvailable,
	})
	if err != nil {
		log.Printf("ERROR: create product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbProductToResponse(product))
}

// Update handles PUT /admin/products/{id}. Omitted fields keep their
// current values.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	current, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: get product for update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	params := database.UpdateProductParams{
		ID:               id,
		Name:             current.Name,
		Description:      current.Description,
		Category:         current.Category,
		ImageUrl:         current.ImageUrl,
		Price:            current.Price,
		Unit:             current.Unit,
		Variants:         current.Variants,
		Spending:         current.Spending,
		SpendingVariants: current.SpendingVariants,
		IsHidden:         current.IsHidden,
		IsAvailable:      current.IsAvailable,
	}

	if req.Name != "" {
		params.Name = req.Name
	}
	if req.Description != nil {
		params.Description = textFromPtr(req.Description)
	}
	if req.Category != nil {
		params.Category = textFromPtr(req.Category)
	}
	if req.ImageUrl != nil {
		params.ImageUrl = textFromPtr(req.ImageUrl)
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil || price.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
			return
		}
		params.Price = decimalToNumeric(price)
	}
	if req.Unit != nil && *req.Unit != "" {
		params.Unit = *req.Unit
	}
	if req.Variants != nil {
		params.Variants = sanitizeMoneyMap(req.Variants)
	}
	if req.Spending != nil {
		spending, err := decimal.NewFromString(*req.Spending)
		if err != nil || spending.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid spending"})
			return
		}
		params.Spending = decimalToNumeric(spending)
	}
	if req.SpendingVariants != nil {
		params.SpendingVariants = sanitizeMoneyMap(req.SpendingVariants)
	}
	if req.IsHidden != nil {
		params.IsHidden = *req.IsHidden
	}
	if req.IsAvailable != nil {
		params.IsAvailable = *req.IsAvailable
	}

	product, err := h.store.UpdateProduct(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: update product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbProductToResponse(product))
}

// Delete handles DELETE /admin/products/{id}.
//
// Products never referenced by an order are removed outright. Referenced
// products are hidden and made unavailable instead, so order history keeps
// pointing at a real row.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	refs, err := h.store.CountOrderItemsByProduct(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: count product references: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if refs == 0 {
		if err := h.store.HardDeleteProduct(r.Context(), id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
				return
			}
			log.Printf("ERROR: delete product: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
		return
	}

	product, err := h.store.SoftDeleteProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: hide product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": false,
		"hidden":  true,
		"product": dbProductToResponse(product),
	})
}

// --- Converters ---

func dbProductToResponse(p database.Product) productResponse {
	return productResponse{
		ID:               p.ID,
		Name:             p.Name,
		Description:      pgTextPtr(p.Description),
		Category:         pgTextPtr(p.Category),
		ImageUrl:         pgTextPtr(p.ImageUrl),
		Price:            numericToString(p.Price),
		Unit:             p.Unit,
		Variants:         moneyMapToStrings(p.Variants),
		Spending:         numericToString(p.Spending),
		SpendingVariants: moneyMapToStrings(p.SpendingVariants),
		IsHidden:         p.IsHidden,
		IsAvailable:      p.IsAvailable,
	}
}

func textFromPtr(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// sanitizeMoneyMap keeps only entries that parse as a positive amount.
// Clients send variant maps straight from a form, so junk values show up.
func sanitizeMoneyMap(raw map[string]json.RawMessage) []byte {
	clean := map[string]string{}
	for size, val := range raw {
		var num json.Number
		if err := json.Unmarshal(val, &num); err != nil {
			// Amounts may also arrive as quoted strings.
			var s string
			if err := json.Unmarshal(val, &s); err != nil {
				continue
			}
			num = json.Number(s)
		}
		d, err := decimal.NewFromString(num.String())
		if err != nil || !d.IsPositive() {
			continue
		}
		clean[size] = d.StringFixed(2)
	}
	out, err := json.Marshal(clean)
	if err != nil {
		return []byte("{}")
	}
	return out
}
