package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rasoi-app/api/internal/database"
	"github.com/rasoi-app/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by report-window parsing.
var (
	ErrInvalidDateRange  = errors.New("invalid date_range")
	ErrInvalidDateFilter = errors.New("invalid date_filter")
	ErrCustomDates       = errors.New("start_date and end_date are required for a custom range")
)

// SizeBucket accumulates one size variant of one product.
type SizeBucket struct {
	Quantity int64
	Earnings decimal.Decimal
	Spending decimal.Decimal
	Profit   decimal.Decimal
}

// ProductEarnings is one report row: a product with its per-size breakdown.
type ProductEarnings struct {
	ProductID     uuid.UUID
	ProductName   string
	TotalQuantity int64
	TotalEarnings decimal.Decimal
	TotalSpending decimal.Decimal
	Profit        decimal.Decimal
	SizeBreakdown map[string]*SizeBucket
}

// EarningsSummary totals the whole report.
type EarningsSummary struct {
	TotalEarnings decimal.Decimal
	TotalSpending decimal.Decimal
	TotalProfit   decimal.Decimal
}

// EarningsReport is the aggregated earnings view.
type EarningsReport struct {
	Products []*ProductEarnings
	Summary  EarningsSummary
}

// ResolveDateWindow turns a named range (or custom start/end dates) into an
// inclusive [start, end] window. The zero pgtype values mean "unbounded",
// which is how the all-time range skips filtering entirely.
func ResolveDateWindow(dateRange, startStr, endStr string, now time.Time) (start, end pgtype.Timestamptz, err error) {
	switch dateRange {
	case "", enum.DateRangeAll:
		return start, end, nil
	case enum.DateRangeToday:
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return pgtype.Timestamptz{Time: dayStart, Valid: true}, pgtype.Timestamptz{Time: now, Valid: true}, nil
	case enum.DateRange7Days:
		return pgtype.Timestamptz{Time: now.AddDate(0, 0, -7), Valid: true}, pgtype.Timestamptz{Time: now, Valid: true}, nil
	case enum.DateRangeMonth:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return pgtype.Timestamptz{Time: monthStart, Valid: true}, pgtype.Timestamptz{Time: now, Valid: true}, nil
	case enum.DateRangeQuarter:
		quarterMonth := time.Month((int(now.Month())-1)/3*3 + 1)
		quarterStart := time.Date(now.Year(), quarterMonth, 1, 0, 0, 0, 0, now.Location())
		return pgtype.Timestamptz{Time: quarterStart, Valid: true}, pgtype.Timestamptz{Time: now, Valid: true}, nil
	case enum.DateRangeCustom:
		if startStr == "" || endStr == "" {
			return start, end, ErrCustomDates
		}
		s, err := time.ParseInLocation("2006-01-02", startStr, now.Location())
		if err != nil {
			return start, end, fmt.Errorf("%w: invalid start_date", ErrCustomDates)
		}
		e, err := time.ParseInLocation("2006-01-02", endStr, now.Location())
		if err != nil {
			return start, end, fmt.Errorf("%w: invalid end_date", ErrCustomDates)
		}
		// End date is inclusive: extend to the last instant of that day.
		e = e.AddDate(0, 0, 1).Add(-time.Nanosecond)
		return pgtype.Timestamptz{Time: s, Valid: true}, pgtype.Timestamptz{Time: e, Valid: true}, nil
	}
	return start, end, ErrInvalidDateRange
}

// ValidateDateFilter normalises the date axis: empty means the order axis.
func ValidateDateFilter(s string) (string, error) {
	switch s {
	case "":
		return enum.DateFilterOrder, nil
	case enum.DateFilterOrder, enum.DateFilterPayment:
		return s, nil
	}
	return "", ErrInvalidDateFilter
}

// AggregateEarnings buckets qualifying order items by product and size
// variant and computes earnings − spending = profit per bucket, per product,
// and overall. Products with no qualifying items never appear; products that
// do appear list every configured variant size, sold or not, so the admin
// sees zero rows for slow movers.
func AggregateEarnings(rows []database.EarningsRow) (*EarningsReport, error) {
	byProduct := make(map[uuid.UUID]*ProductEarnings)
	baseSpending := make(map[uuid.UUID]decimal.Decimal)
	spendingBySize := make(map[uuid.UUID]map[string]decimal.Decimal)

	for _, row := range rows {
		product, ok := byProduct[row.ProductID]
		if !ok {
			product = &ProductEarnings{
				ProductID:     row.ProductID,
				ProductName:   row.ProductName,
				SizeBreakdown: map[string]*SizeBucket{},
			}

			// Pre-seed a zero bucket for every configured variant so unsold
			// sizes still show up in the breakdown.
			variants, err := decodeMoneyMap(row.Variants)
			if err != nil {
				return nil, fmt.Errorf("product %s: decode variants: %w", row.ProductID, err)
			}
			for size := range variants {
				product.SizeBreakdown[size] = &SizeBucket{}
			}

			spendingVariants, err := decodeMoneyMap(row.SpendingVariants)
			if err != nil {
				return nil, fmt.Errorf("product %s: decode spending variants: %w", row.ProductID, err)
			}
			spendingBySize[row.ProductID] = spendingVariants
			baseSpending[row.ProductID] = numericToDecimal(row.Spending)

			byProduct[row.ProductID] = product
		}

		size := row.Unit
		if row.SelectedSize.Valid && row.SelectedSize.String != "" {
			size = row.SelectedSize.String
		}

		bucket, ok := product.SizeBreakdown[size]
		if !ok {
			bucket = &SizeBucket{}
			product.SizeBreakdown[size] = bucket
		}

		unitCost, ok := spendingBySize[row.ProductID][size]
		if !ok {
			unitCost = baseSpending[row.ProductID]
		}

		quantity := int64(row.Quantity)
		earnings := numericToDecimal(row.Subtotal)
		spending := unitCost.Mul(decimal.NewFromInt(quantity))

		bucket.Quantity += quantity
		bucket.Earnings = bucket.Earnings.Add(earnings)
		bucket.Spending = bucket.Spending.Add(spending)

		product.TotalQuantity += quantity
		product.TotalEarnings = product.TotalEarnings.Add(earnings)
		product.TotalSpending = product.TotalSpending.Add(spending)
	}

	report := &EarningsReport{}
	for _, product := range byProduct {
		for _, bucket := range product.SizeBreakdown {
			bucket.Profit = bucket.Earnings.Sub(bucket.Spending)
		}
		product.Profit = product.TotalEarnings.Sub(product.TotalSpending)

		report.Summary.TotalEarnings = report.Summary.TotalEarnings.Add(product.TotalEarnings)
		report.Summary.TotalSpending = report.Summary.TotalSpending.Add(product.TotalSpending)
		report.Summary.TotalProfit = report.Summary.TotalProfit.Add(product.Profit)

		report.Products = append(report.Products, product)
	}

	sort.Slice(report.Products, func(i, j int) bool {
		a, b := report.Products[i], report.Products[j]
		if !a.TotalEarnings.Equal(b.TotalEarnings) {
			return a.TotalEarnings.GreaterThan(b.TotalEarnings)
		}
		return a.ProductName < b.ProductName
	})

	return report, nil
}
