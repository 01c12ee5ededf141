package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listEarningsRows = `
SELECT p.id, p.name, p.unit, p.variants, p.spending, p.spending_variants,
       oi.selected_size, oi.quantity, oi.subtotal
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
JOIN products p ON p.id = oi.product_id
WHERE o.status != 'cancelled'
  AND o.payment_status = 'payment_completed'
  AND ($1::timestamptz IS NULL OR
       (CASE WHEN $3::text = 'payment'
             THEN COALESCE(o.payment_received_date, o.created_at)
             ELSE o.created_at END) >= $1)
  AND ($2::timestamptz IS NULL OR
       (CASE WHEN $3::text = 'payment'
             THEN COALESCE(o.payment_received_date, o.created_at)
             ELSE o.created_at END) <= $2)
`

type ListEarningsRowsParams struct {
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
	DateFilter string
}

type EarningsRow struct {
	ProductID        uuid.UUID
	ProductName      string
	Unit             string
	Variants         []byte
	Spending         pgtype.Numeric
	SpendingVariants []byte
	SelectedSize     pgtype.Text
	Quantity         int32
	Subtotal         pgtype.Numeric
}

// ListEarningsRows returns one row per qualifying order item: the item must
// belong to a paid, non-cancelled order whose date (order or payment axis,
// payment falling back to created_at for rows that predate the column) is in
// the window. Hidden products still qualify; their sales history is retained.
func (q *Queries) ListEarningsRows(ctx context.Context, arg ListEarningsRowsParams) ([]EarningsRow, error) {
	rows, err := q.db.Query(ctx, listEarningsRows, arg.StartDate, arg.EndDate, arg.DateFilter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EarningsRow
	for rows.Next() {
		var r EarningsRow
		if err := rows.Scan(
			&r.ProductID, &r.ProductName, &r.Unit, &r.Variants, &r.Spending,
			&r.SpendingVariants, &r.SelectedSize, &r.Quantity, &r.Subtotal,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
