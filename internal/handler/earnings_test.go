package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rasoi-app/api/internal/database"
	"github.com/rasoi-app/api/internal/handler"
)

type mockEarningsStore struct {
	listRowsFn func(ctx context.Context, arg database.ListEarningsRowsParams) ([]database.EarningsRow, error)
}

func (m *mockEarningsStore) ListEarningsRows(ctx context.Context, arg database.ListEarningsRowsParams) ([]database.EarningsRow, error) {
	return m.listRowsFn(ctx, arg)
}

func setupEarningsRouter(store *mockEarningsStore) *chi.Mux {
	h := handler.NewEarningsHandler(store)
	r := chi.NewRouter()
	r.Route("/admin/earnings", h.RegisterRoutes)
	return r
}

func TestEarnings_Report(t *testing.T) {
	var params database.ListEarningsRowsParams
	gheeID := uuid.New()
	store := &mockEarningsStore{
		listRowsFn: func(_ context.Context, arg database.ListEarningsRowsParams) ([]database.EarningsRow, error) {
			params = arg
			return []database.EarningsRow{
				{
					ProductID:        gheeID,
					ProductName:      "Ghee",
					Unit:             "jar",
					Variants:         []byte(`{"250gm": "210.00", "500gm": "400.00"}`),
					Spending:         makeNumeric(t, "0.00"),
					SpendingVariants: []byte(`{"250gm": "110.00", "500gm": "200.00"}`),
					SelectedSize:     pgtype.Text{String: "500gm", Valid: true},
					Quantity:         2,
					Subtotal:         makeNumeric(t, "800.00"),
				},
			}, nil
		},
	}
	r := setupEarningsRouter(store)

	rr := doJSON(t, r, "GET", "/admin/earnings?date_range=all&date_filter=payment", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	if params.DateFilter != "payment" {
		t.Errorf("date_filter param: got %q, want payment", params.DateFilter)
	}
	if params.StartDate.Valid || params.EndDate.Valid {
		t.Error("date_range=all must not bound the query window")
	}

	resp := decodeBody(t, rr)
	products, ok := resp["products"].([]interface{})
	if !ok || len(products) != 1 {
		t.Fatalf("products: got %v", resp["products"])
	}
	product := products[0].(map[string]interface{})
	if product["product_name"] != "Ghee" {
		t.Errorf("product_name: got %v", product["product_name"])
	}
	if product["total_earnings"] != "800.00" {
		t.Errorf("total_earnings: got %v", product["total_earnings"])
	}
	// 2 jars at a 200.00 unit cost.
	if product["total_spending"] != "400.00" {
		t.Errorf("total_spending: got %v", product["total_spending"])
	}
	if product["profit"] != "400.00" {
		t.Errorf("profit: got %v", product["profit"])
	}

	breakdown, ok := product["size_breakdown"].(map[string]interface{})
	if !ok {
		t.Fatalf("size_breakdown: got %v", product["size_breakdown"])
	}
	// Both variant sizes appear even though only one sold.
	if _, exists := breakdown["250gm"]; !exists {
		t.Error("expected a zero-seeded 250gm bucket")
	}
	sold, ok := breakdown["500gm"].(map[string]interface{})
	if !ok || sold["quantity"] != float64(2) {
		t.Errorf("500gm bucket: got %v", breakdown["500gm"])
	}

	summary, ok := resp["summary"].(map[string]interface{})
	if !ok || summary["total_profit"] != "400.00" {
		t.Errorf("summary: got %v", resp["summary"])
	}
}

func TestEarnings_InvalidDateRange(t *testing.T) {
	store := &mockEarningsStore{
		listRowsFn: func(_ context.Context, _ database.ListEarningsRowsParams) ([]database.EarningsRow, error) {
			t.Fatal("store must not be queried for an invalid range")
			return nil, nil
		},
	}
	r := setupEarningsRouter(store)

	rr := doJSON(t, r, "GET", "/admin/earnings?date_range=yesterday", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400; body: %s", rr.Code, rr.Body.String())
	}
}

func TestEarnings_CustomRangeRequiresDates(t *testing.T) {
	store := &mockEarningsStore{
		listRowsFn: func(_ context.Context, _ database.ListEarningsRowsParams) ([]database.EarningsRow, error) {
			t.Fatal("store must not be queried without a complete window")
			return nil, nil
		},
	}
	r := setupEarningsRouter(store)

	rr := doJSON(t, r, "GET", "/admin/earnings?date_range=custom&start_date=2026-05-01", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400; body: %s", rr.Code, rr.Body.String())
	}
}

func TestEarnings_InvalidDateFilter(t *testing.T) {
	store := &mockEarningsStore{
		listRowsFn: func(_ context.Context, _ database.ListEarningsRowsParams) ([]database.EarningsRow, error) {
			t.Fatal("store must not be queried for an invalid filter")
			return nil, nil
		},
	}
	r := setupEarningsRouter(store)

	rr := doJSON(t, r, "GET", "/admin/earnings?date_filter=delivery", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400; body: %s", rr.Code, rr.Body.String())
	}
}
