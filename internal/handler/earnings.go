package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rasoi-app/api/internal/database"
	"github.com/rasoi-app/api/internal/service"
)

// EarningsStore defines the database methods needed by the earnings handler.
type EarningsStore interface {
	ListEarningsRows(ctx context.Context, arg database.ListEarningsRowsParams) ([]database.EarningsRow, error)
}

// EarningsHandler serves the aggregated earnings report.
type EarningsHandler struct {
	store EarningsStore
}

// NewEarningsHandler creates a new EarningsHandler.
func NewEarningsHandler(store EarningsStore) *EarningsHandler {
	return &EarningsHandler{store: store}
}

// RegisterRoutes registers earnings endpoints on the given Chi router.
// Expected to be mounted at /admin/earnings behind auth.
func (h *EarningsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Report)
}

type sizeBucketResponse struct {
	Quantity int64  `json:"quantity"`
	Earnings string `json:"earnings"`
	Spending string `json:"spending"`
	Profit   string `json:"profit"`
}

type productEarningsResponse struct {
	ProductID     uuid.UUID                     `json:"product_id"`
	ProductName   string                        `json:"product_name"`
	TotalQuantity int64                         `json:"total_quantity"`
	TotalEarnings string                        `json:"total_earnings"`
	TotalSpending string                        `json:"total_spending"`
	Profit        string                        `json:"profit"`
	SizeBreakdown map[string]sizeBucketResponse `json:"size_breakdown"`
}

type earningsReportResponse struct {
	Products []productEarningsResponse `json:"products"`
	Summary  earningsSummaryResponse   `json:"summary"`
}

type earningsSummaryResponse struct {
	TotalEarnings string `json:"total_earnings"`
	TotalSpending string `json:"total_spending"`
	TotalProfit   string `json:"total_profit"`
}

// Report handles GET /admin/earnings.
//
// Query parameters: date_range (all|today|7days|month|quarter|custom),
// start_date/end_date (custom only, YYYY-MM-DD) and date_filter
// (order|payment) picking which date the window applies to.
func (h *EarningsHandler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, end, err := service.ResolveDateWindow(
		q.Get("date_range"), q.Get("start_date"), q.Get("end_date"), time.Now(),
	)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	dateFilter, err := service.ValidateDateFilter(q.Get("date_filter"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.ListEarningsRows(r.Context(), database.ListEarningsRowsParams{
		StartDate:  start,
		EndDate:    end,
		DateFilter: dateFilter,
	})
	if err != nil {
		log.Printf("ERROR: list earnings rows: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	report, err := service.AggregateEarnings(rows)
	if err != nil {
		log.Printf("ERROR: aggregate earnings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, earningsReportToResponse(report))
}

func earningsReportToResponse(report *service.EarningsReport) earningsReportResponse {
	products := make([]productEarningsResponse, len(report.Products))
	for i, p := range report.Products {
		breakdown := make(map[string]sizeBucketResponse, len(p.SizeBreakdown))
		for size, b := range p.SizeBreakdown {
			breakdown[size] = sizeBucketResponse{
				Quantity: b.Quantity,
				Earnings: b.Earnings.StringFixed(2),
				Spending: b.Spending.StringFixed(2),
				Profit:   b.Profit.StringFixed(2),
			}
		}
		products[i] = productEarningsResponse{
			ProductID:     p.ProductID,
			ProductName:   p.ProductName,
			TotalQuantity: p.TotalQuantity,
			TotalEarnings: p.TotalEarnings.StringFixed(2),
			TotalSpending: p.TotalSpending.StringFixed(2),
			Profit:        p.Profit.StringFixed(2),
			SizeBreakdown: breakdown,
		}
	}
	return earningsReportResponse{
		Products: products,
		Summary: earningsSummaryResponse{
			TotalEarnings: report.Summary.TotalEarnings.StringFixed(2),
			TotalSpending: report.Summary.TotalSpending.StringFixed(2),
			TotalProfit:   report.Summary.TotalProfit.StringFixed(2),
		},
	}
}
