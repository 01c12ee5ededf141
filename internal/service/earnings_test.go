package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/rasoi-app/api/internal/database"
	"github.com/rasoi-app/api/internal/enum"
)

func decEquals(d decimal.Decimal, expected string) bool {
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

// =====================
// Date window resolution
// =====================

func TestResolveDateWindow_All(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	for _, rangeName := range []string{"", enum.DateRangeAll} {
		start, end, err := ResolveDateWindow(rangeName, "", "", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if start.Valid || end.Valid {
			t.Errorf("%q range should be unbounded", rangeName)
		}
	}
}

func TestResolveDateWindow_Today(t *testing.T) {
	now := time.Date(2025, time.June, 15, 18, 45, 0, 0, time.UTC)

	start, end, err := ResolveDateWindow(enum.DateRangeToday, "", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Valid || !start.Time.Equal(time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected start of day, got %v", start.Time)
	}
	if !end.Valid || !end.Time.Equal(now) {
		t.Errorf("expected end at now, got %v", end.Time)
	}
}

func TestResolveDateWindow_Quarter(t *testing.T) {
	now := time.Date(2025, time.August, 20, 9, 0, 0, 0, time.UTC)

	start, _, err := ResolveDateWindow(enum.DateRangeQuarter, "", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Time.Equal(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected quarter start July 1, got %v", start.Time)
	}
}

func TestResolveDateWindow_CustomInclusiveEnd(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	start, end, err := ResolveDateWindow(enum.DateRangeCustom, "2025-05-01", "2025-05-31", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Time.Equal(time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start: %v", start.Time)
	}
	// The whole of May 31 must fall inside the window.
	lastInstant := time.Date(2025, time.May, 31, 23, 59, 59, 0, time.UTC)
	if end.Time.Before(lastInstant) {
		t.Errorf("end %v should cover the last day", end.Time)
	}
	if !end.Time.Before(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end %v should not leak into June", end.Time)
	}
}

func TestResolveDateWindow_CustomMissingDates(t *testing.T) {
	now := time.Now()
	if _, _, err := ResolveDateWindow(enum.DateRangeCustom, "2025-05-01", "", now); !errors.Is(err, ErrCustomDates) {
		t.Errorf("expected ErrCustomDates, got %v", err)
	}
}

func TestResolveDateWindow_UnknownRange(t *testing.T) {
	if _, _, err := ResolveDateWindow("fortnight", "", "", time.Now()); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestValidateDateFilter(t *testing.T) {
	if got, err := ValidateDateFilter(""); err != nil || got != enum.DateFilterOrder {
		t.Errorf("empty filter should default to order axis, got %q, %v", got, err)
	}
	if got, err := ValidateDateFilter("payment"); err != nil || got != enum.DateFilterPayment {
		t.Errorf("payment filter should pass through, got %q, %v", got, err)
	}
	if _, err := ValidateDateFilter("delivery"); !errors.Is(err, ErrInvalidDateFilter) {
		t.Errorf("expected ErrInvalidDateFilter, got %v", err)
	}
}

// =====================
// Aggregation
// =====================

func TestAggregateEarnings_VariantBuckets(t *testing.T) {
	gheeID := uuid.New()

	// Three 500gm jars at 9.00 each, variant cost 2.00 per jar.
	rows := []database.EarningsRow{
		{
			ProductID:        gheeID,
			ProductName:      "Ghee",
			Unit:             "each",
			Variants:         []byte(`{"250gm": "5.00", "500gm": "9.00"}`),
			Spending:         makeNumeric("0.00"),
			SpendingVariants: []byte(`{"250gm": "1.00", "500gm": "2.00"}`),
			SelectedSize:     pgtype.Text{String: "500gm", Valid: true},
			Quantity:         3,
			Subtotal:         makeNumeric("27.00"),
		},
	}

	report, err := AggregateEarnings(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(report.Products))
	}

	ghee := report.Products[0]
	bucket, ok := ghee.SizeBreakdown["500gm"]
	if !ok {
		t.Fatal("expected a 500gm bucket")
	}
	if bucket.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", bucket.Quantity)
	}
	if !decEquals(bucket.Earnings, "27.00") {
		t.Errorf("expected earnings 27.00, got %s", bucket.Earnings)
	}
	if !decEquals(bucket.Spending, "6.00") {
		t.Errorf("expected spending 6.00, got %s", bucket.Spending)
	}
	if !decEquals(bucket.Profit, "21.00") {
		t.Errorf("expected profit 21.00, got %s", bucket.Profit)
	}

	// The unsold 250gm size still shows up, zeroed.
	idle, ok := ghee.SizeBreakdown["250gm"]
	if !ok {
		t.Fatal("expected a zero bucket for the unsold 250gm size")
	}
	if idle.Quantity != 0 || !idle.Earnings.IsZero() || !idle.Profit.IsZero() {
		t.Errorf("expected zeroed 250gm bucket, got %+v", idle)
	}
}

func TestAggregateEarnings_PlainProductUsesUnitBucket(t *testing.T) {
	chaiID := uuid.New()

	rows := []database.EarningsRow{
		{
			ProductID:   chaiID,
			ProductName: "Masala Chai",
			Unit:        "cup",
			Variants:    []byte(`{}`),
			Spending:    makeNumeric("8.00"),
			Quantity:    4,
			Subtotal:    makeNumeric("120.00"),
		},
	}

	report, err := AggregateEarnings(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chai := report.Products[0]
	bucket, ok := chai.SizeBreakdown["cup"]
	if !ok {
		t.Fatalf("expected the unit to name the bucket, got %v", chai.SizeBreakdown)
	}
	if !decEquals(bucket.Spending, "32.00") {
		t.Errorf("expected base spending 8.00 x 4 = 32.00, got %s", bucket.Spending)
	}
	if !decEquals(bucket.Profit, "88.00") {
		t.Errorf("expected profit 88.00, got %s", bucket.Profit)
	}
}

func TestAggregateEarnings_SortsByEarningsDesc(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	rows := []database.EarningsRow{
		{ProductID: a, ProductName: "Dal", Unit: "bowl", Quantity: 1, Subtotal: makeNumeric("160.00")},
		{ProductID: b, ProductName: "Butter Chicken", Unit: "each", Quantity: 2, Subtotal: makeNumeric("840.00")},
	}

	report, err := AggregateEarnings(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Products[0].ProductName != "Butter Chicken" {
		t.Errorf("expected highest earner first, got %s", report.Products[0].ProductName)
	}
}

func TestAggregateEarnings_Summary(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	rows := []database.EarningsRow{
		{ProductID: a, ProductName: "Dal", Unit: "bowl", Spending: makeNumeric("55.00"), Quantity: 2, Subtotal: makeNumeric("320.00")},
		{ProductID: b, ProductName: "Chai", Unit: "cup", Spending: makeNumeric("8.00"), Quantity: 5, Subtotal: makeNumeric("150.00")},
	}

	report, err := AggregateEarnings(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decEquals(report.Summary.TotalEarnings, "470.00") {
		t.Errorf("expected total earnings 470.00, got %s", report.Summary.TotalEarnings)
	}
	if !decEquals(report.Summary.TotalSpending, "150.00") {
		t.Errorf("expected total spending 150.00, got %s", report.Summary.TotalSpending)
	}
	if !decEquals(report.Summary.TotalProfit, "320.00") {
		t.Errorf("expected total profit 320.00, got %s", report.Summary.TotalProfit)
	}
}

func TestAggregateEarnings_Empty(t *testing.T) {
	report, err := AggregateEarnings(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Products) != 0 {
		t.Errorf("expected no products, got %d", len(report.Products))
	}
	if !report.Summary.TotalEarnings.IsZero() {
		t.Errorf("expected zero summary, got %s", report.Summary.TotalEarnings)
	}
}
