package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rasoi-app/api/internal/database"
	"github.com/rasoi-app/api/internal/handler"
)

// --- Mock ProductStore ---

type mockProductStore struct {
	listProductsFn      func(ctx context.Context) ([]database.Product, error)
	getProductFn        func(ctx context.Context, id uuid.UUID) (database.Product, error)
	createProductFn     func(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	updateProductFn     func(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	countReferencesFn   func(ctx context.Context, productID uuid.UUID) (int64, error)
	hardDeleteProductFn func(ctx context.Context, id uuid.UUID) error
	softDeleteProductFn func(ctx context.Context, id uuid.UUID) (database.Product, error)
}

func (m *mockProductStore) ListProducts(ctx context.Context) ([]database.Product, error) {
	if m.listProductsFn != nil {
		return m.listProductsFn(ctx)
	}
	return []database.Product{}, nil
}

func (m *mockProductStore) GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error) {
	if m.getProductFn != nil {
		return m.getProductFn(ctx, id)
	}
	return database.Product{}, pgx.ErrNoRows
}

func (m *mockProductStore) CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error) {
	if m.createProductFn != nil {
		return m.createProductFn(ctx, arg)
	}
	return database.Product{}, pgx.ErrNoRows
}

func (m *mockProductStore) UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error) {
	if m.updateProductFn != nil {
		return m.updateProductFn(ctx, arg)
	}
	return database.Product{}, pgx.ErrNoRows
}

func (m *mockProductStore) CountOrderItemsByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	if m.countReferencesFn != nil {
		return m.countReferencesFn(ctx, productID)
	}
	return 0, nil
}

func (m *mockProductStore) HardDeleteProduct(ctx context.Context, id uuid.UUID) error {
	if m.hardDeleteProductFn != nil {
		return m.hardDeleteProductFn(ctx, id)
	}
	return pgx.ErrNoRows
}

func (m *mockProductStore) SoftDeleteProduct(ctx context.Context, id uuid.UUID) (database.Product, error) {
	if m.softDeleteProductFn != nil {
		return m.softDeleteProductFn(ctx, id)
	}
	return database.Product{}, pgx.ErrNoRows
}

// --- Helpers ---

func setupProductRouter(store *mockProductStore) *chi.Mux {
	h := handler.NewProductHandler(store)
	r := chi.NewRouter()
	r.Route("/admin/products", h.RegisterRoutes)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func makeProduct(t *testing.T, name string) database.Product {
	t.Helper()
	return database.Product{
		ID:               uuid.New(),
		Name:             name,
		Price:            makeNumeric(t, "250.00"),
		Unit:             "plate",
		Variants:         []byte(`{}`),
		Spending:         makeNumeric(t, "80.00"),
		SpendingVariants: []byte(`{}`),
		IsAvailable:      true,
	}
}

// --- Create tests ---

func TestCreateProduct_Defaults(t *testing.T) {
	var params database.CreateProductParams
	store := &mockProductStore{
		createProductFn: func(_ context.Context, arg database.CreateProductParams) (database.Product, error) {
			params = arg
			return database.Product{
				ID:               uuid.New(),
				Name:             arg.Name,
				Price:            arg.Price,
				Unit:             arg.Unit,
				Variants:         arg.Variants,
				Spending:         arg.Spending,
				SpendingVariants: arg.SpendingVariants,
				IsHidden:         arg.IsHidden,
				IsAvailable:      arg.IsAvailable,
			}, nil
		},
	}
	r := setupProductRouter(store)

	rr := doJSON(t, r, "POST", "/admin/products", map[string]interface{}{
		"name": "Masala Chai",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201; body: %s", rr.Code, rr.Body.String())
	}
	if params.Unit != "each" {
		t.Errorf("unit default: got %q, want each", params.Unit)
	}
	if !params.IsAvailable || params.IsHidden {
		t.Errorf("visibility defaults: available=%v hidden=%v", params.IsAvailable, params.IsHidden)
	}

	resp := decodeBody(t, rr)
	if resp["price"] != "0.00" {
		t.Errorf("price default: got %v, want 0.00", resp["price"])
	}
}

func TestCreateProduct_MissingName(t *testing.T) {
	store := &mockProductStore{}
	r := setupProductRouter(store)

	rr := doJSON(t, r, "POST", "/admin/products", map[string]string{"price": "100.00"})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestCreateProduct_NegativePrice(t *testing.T) {
	store := &mockProductStore{}
	r := setupProductRouter(store)

	rr := doJSON(t, r, "POST", "/admin/products", map[string]string{
		"name":  "Ghee",
		"price": "-10.00",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestCreateProduct_SanitizesVariants(t *testing.T) {
	var params database.CreateProductParams
	store := &mockProductStore{
		createProductFn: func(_ context.Context, arg database.CreateProductParams) (database.Product, error) {
			params = arg
			return database.Product{ID: uuid.New(), Name: arg.Name, Variants: arg.Variants}, nil
		},
	}
	r := setupProductRouter(store)

	rr := doJSON(t, r, "POST", "/admin/products", map[string]interface{}{
		"name": "Ghee",
		"variants": map[string]interface{}{
			"250gm": 210,
			"500gm": "400.5",
			"junk":  "not a number",
			"free":  0,
		},
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201; body: %s", rr.Code, rr.Body.String())
	}

	var stored map[string]string
	if err := json.Unmarshal(params.Variants, &stored); err != nil {
		t.Fatalf("unmarshal stored variants: %v", err)
	}
	want := map[string]string{"250gm": "210.00", "500gm": "400.50"}
	if len(stored) != len(want) {
		t.Fatalf("stored variants: got %v, want %v", stored, want)
	}
	for size, price := range want {
		if stored[size] != price {
			t.Errorf("variant %s: got %q, want %q", size, stored[size], price)
		}
	}
}

// --- Update tests ---

func TestUpdateProduct_PartialKeepsFields(t *testing.T) {
	current := makeProduct(t, "Butter Chicken")

	var params database.UpdateProductParams
	store := &mockProductStore{
		getProductFn: func(_ context.Context, id uuid.UUID) (database.Product, error) {
			if id != current.ID {
				return database.Product{}, pgx.ErrNoRows
			}
			return current, nil
		},
		updateProductFn: func(_ context.Context, arg database.UpdateProductParams) (database.Product, error) {
			params = arg
			updated := current
			updated.Name = arg.Name
			return updated, nil
		},
	}
	r := setupProductRouter(store)

	rr := doJSON(t, r, "PUT", "/admin/products/"+current.ID.String(), map[string]string{
		"name": "Butter Chicken (Boneless)",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	if params.Name != "Butter Chicken (Boneless)" {
		t.Errorf("name: got %q", params.Name)
	}
	if params.Unit != "plate" {
		t.Errorf("unit must carry over: got %q", params.Unit)
	}
	if numericsDiffer(t, params.Price, current.Price) {
		t.Error("price must carry over unchanged")
	}
}

func TestUpdateProduct_NotFound(t *testing.T) {
	store := &mockProductStore{}
	r := setupProductRouter(store)

	rr := doJSON(t, r, "PUT", "/admin/products/"+uuid.New().String(), map[string]string{
		"name": "Anything",
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

// --- Delete tests ---

func TestDeleteProduct_Unreferenced(t *testing.T) {
	id := uuid.New()
	hardDeleted := false
	store := &mockProductStore{
		countReferencesFn: func(_ context.Context, _ uuid.UUID) (int64, error) {
			return 0, nil
		},
		hardDeleteProductFn: func(_ context.Context, _ uuid.UUID) error {
			hardDeleted = true
			return nil
		},
	}
	r := setupProductRouter(store)

	rr := doJSON(t, r, "DELETE", "/admin/products/"+id.String(), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	if !hardDeleted {
		t.Error("expected a hard delete for an unreferenced product")
	}

	resp := decodeBody(t, rr)
	if resp["deleted"] != true {
		t.Errorf("deleted: got %v, want true", resp["deleted"])
	}
}

func TestDeleteProduct_ReferencedGetsHidden(t *testing.T) {
	product := makeProduct(t, "Dal Makhani")
	softDeleted := false
	store := &mockProductStore{
		countReferencesFn: func(_ context.Context, _ uuid.UUID) (int64, error) {
			return 7, nil
		},
		softDeleteProductFn: func(_ context.Context, id uuid.UUID) (database.Product, error) {
			softDeleted = true
			hidden := product
			hidden.IsHidden = true
			hidden.IsAvailable = false
			return hidden, nil
		},
	}
	r := setupProductRouter(store)

	rr := doJSON(t, r, "DELETE", "/admin/products/"+product.ID.String(), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	if !softDeleted {
		t.Error("expected a soft delete for a referenced product")
	}

	resp := decodeBody(t, rr)
	if resp["deleted"] != false {
		t.Errorf("deleted: got %v, want false", resp["deleted"])
	}
	if resp["hidden"] != true {
		t.Errorf("hidden: got %v, want true", resp["hidden"])
	}
	productResp, ok := resp["product"].(map[string]interface{})
	if !ok {
		t.Fatal("expected the hidden product in the response")
	}
	if productResp["is_hidden"] != true || productResp["is_available"] != false {
		t.Errorf("product visibility: got hidden=%v available=%v", productResp["is_hidden"], productResp["is_available"])
	}
}

func numericsDiffer(t *testing.T, a, b pgtype.Numeric) bool {
	t.Helper()
	av, err := a.Value()
	if err != nil {
		t.Fatalf("numeric value: %v", err)
	}
	bv, err := b.Value()
	if err != nil {
		t.Fatalf("numeric value: %v", err)
	}
	return av != bv
}
