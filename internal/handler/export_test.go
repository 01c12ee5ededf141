package handler_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/rasoi-app/api/internal/database"
	"github.com/rasoi-app/api/internal/handler"
)

type mockExportStore struct {
	listOrdersFn       func(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	listEarningsRowsFn func(ctx context.Context, arg database.ListEarningsRowsParams) ([]database.EarningsRow, error)
}

func (m *mockExportStore) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(ctx, arg)
	}
	return []database.Order{}, nil
}

func (m *mockExportStore) ListEarningsRows(ctx context.Context, arg database.ListEarningsRowsParams) ([]database.EarningsRow, error) {
	if m.listEarningsRowsFn != nil {
		return m.listEarningsRowsFn(ctx, arg)
	}
	return []database.EarningsRow{}, nil
}

func setupExportRouter(store *mockExportStore) *chi.Mux {
	r := chi.NewRouter()
	h := handler.NewExportHandler(store)
	r.Route("/admin/export", h.RegisterRoutes)
	return r
}

func TestExportOrders_Workbook(t *testing.T) {
	order := makeOrder(t, "completed", "payment_completed")
	order.CreatedAt = time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)

	var gotParams database.ListOrdersParams
	store := &mockExportStore{
		listOrdersFn: func(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
			gotParams = arg
			return []database.Order{order}, nil
		},
	}
	router := setupExportRouter(store)

	req := httptest.NewRequest("GET", "/admin/export/orders?status=completed", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !gotParams.Status.Valid || gotParams.Status.String != "completed" {
		t.Errorf("expected status filter passed to store, got %+v", gotParams.Status)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("expected xlsx content type, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
		t.Errorf("expected xlsx filename in disposition, got %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a readable workbook: %v", err)
	}
	defer f.Close()

	orderNumber, err := f.GetCellValue("Orders", "A2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if orderNumber != order.OrderNumber {
		t.Errorf("expected order number %q in first data row, got %q", order.OrderNumber, orderNumber)
	}
	total, _ := f.GetCellValue("Orders", "F2")
	if total != "25.00" {
		t.Errorf("expected total 25.00, got %q", total)
	}
}

func TestExportOrders_InvalidStatusFilter(t *testing.T) {
	router := setupExportRouter(&mockExportStore{
		listOrdersFn: func(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
			t.Fatal("store should not be called for an invalid filter")
			return nil, nil
		},
	})

	req := httptest.NewRequest("GET", "/admin/export/orders?status=shipped", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestExportEarnings_InvalidDateRange(t *testing.T) {
	router := setupExportRouter(&mockExportStore{})

	req := httptest.NewRequest("GET", "/admin/export/earnings?date_range=yesteryear", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}
