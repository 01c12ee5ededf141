package handler

import (
	"context"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"

	"github.com/rasoi-app/api/internal/database"
	"github.com/rasoi-app/api/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportOrderLimit caps a single export. Well beyond what a single
// restaurant accumulates between purges.
const exportOrderLimit = 10000

// ExportStore defines the database methods needed by export handlers.
type ExportStore interface {
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListEarningsRows(ctx context.Context, arg database.ListEarningsRowsParams) ([]database.EarningsRow, error)
}

// ExportHandler produces .xlsx downloads of orders and earnings.
type ExportHandler struct {
	store ExportStore
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(store ExportStore) *ExportHandler {
	return &ExportHandler{store: store}
}

// RegisterRoutes registers export endpoints on the given Chi router.
// Expected to be mounted at /admin/export behind auth.
func (h *ExportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.Orders)
	r.Get("/earnings", h.Earnings)
}

// Orders handles GET /admin/export/orders. Accepts the same status and date
// filters as the order list.
func (h *ExportHandler) Orders(w http.ResponseWriter, r *http.Request) {
	params := database.ListOrdersParams{Limit: exportOrderLimit}

	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		if !service.IsValidOrderStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
			return
		}
		params.Status = textParam(s)
	}
	if s := q.Get("payment_status"); s != "" {
		if !service.IsValidPaymentStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_status filter"})
			return
		}
		params.PaymentStatus = textParam(s)
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: export orders query: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Orders"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Order #", "Customer", "Phone", "Status", "Payment", "Total", "Payment Received", "Created"}
	for i, name := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, name)
	}

	for row, o := range orders {
		received := ""
		if o.PaymentReceivedDate.Valid {
			received = o.PaymentReceivedDate.Time.Format("02 Jan 2006 15:04")
		}
		values := []interface{}{
			o.OrderNumber,
			o.CustomerName,
			o.CustomerPhone,
			o.Status,
			o.PaymentStatus,
			numericToString(o.TotalAmount),
			received,
			o.CreatedAt.Format("02 Jan 2006 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	writeWorkbook(w, f, "orders-"+time.Now().Format("2006-01-02")+".xlsx")
}

// Earnings handles GET /admin/export/earnings. Accepts the same date-range
// parameters as the earnings report; each row is one product size bucket.
func (h *ExportHandler) Earnings(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("ERROR: export earnings query: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	report, err := service.AggregateEarnings(rows)
	if err != nil {
		log.Printf("ERROR: export earnings aggregate: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Earnings"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Product", "Size", "Quantity", "Earnings", "Spending", "Profit"}
	for i, name := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, name)
	}

	row := 2
	for _, p := range report.Products {
		sizes := make([]string, 0, len(p.SizeBreakdown))
		for size := range p.SizeBreakdown {
			sizes = append(sizes, size)
		}
		sort.Strings(sizes)

		for _, size := range sizes {
			b := p.SizeBreakdown[size]
			values := []interface{}{
				p.ProductName,
				size,
				b.Quantity,
				b.Earnings.StringFixed(2),
				b.Spending.StringFixed(2),
				b.Profit.StringFixed(2),
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				f.SetCellValue(sheet, cell, v)
			}
			row++
		}
	}

	summaryRow := row + 1
	for col, v := range []interface{}{
		"TOTAL", "",
		"",
		report.Summary.TotalEarnings.StringFixed(2),
		report.Summary.TotalSpending.StringFixed(2),
		report.Summary.TotalProfit.StringFixed(2),
	} {
		cell, _ := excelize.CoordinatesToCellName(col+1, summaryRow)
		f.SetCellValue(sheet, cell, v)
	}

	writeWorkbook(w, f, "earnings-"+time.Now().Format("2006-01-02")+".xlsx")
}

func writeWorkbook(w http.ResponseWriter, f *excelize.File, filename string) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(w); err != nil {
		log.Printf("ERROR: write workbook: %v", err)
	}
}

func textParam(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}
