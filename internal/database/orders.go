package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, customer_name, customer_phone, customer_address,
	status, payment_status, total_amount, admin_timeline, admin_notes,
	payment_received_date, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerPhone, &o.CustomerAddress,
		&o.Status, &o.PaymentStatus, &o.TotalAmount, &o.AdminTimeline, &o.AdminNotes,
		&o.PaymentReceivedDate, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

const orderItemColumns = `id, order_id, product_id, product_name, selected_size,
	quantity, price, subtotal, created_at`

func scanOrderItem(row pgx.Row) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(
		&i.ID, &i.OrderID, &i.ProductID, &i.ProductName, &i.SelectedSize,
		&i.Quantity, &i.Price, &i.Subtotal, &i.CreatedAt,
	)
	return i, err
}

const getNextOrderNumber = `
SELECT COALESCE(MAX(CAST(SUBSTRING(order_number FROM 5) AS INTEGER)), 0) + 1
FROM orders
`

// GetNextOrderNumber returns the next sequential order number. Order numbers
// look like "RSO-042"; callers must retry on unique violations since two
// concurrent checkouts can read the same MAX.
func (q *Queries) GetNextOrderNumber(ctx context.Context) (int32, error) {
	var n int32
	err := q.db.QueryRow(ctx, getNextOrderNumber).Scan(&n)
	return n, err
}

const createOrder = `
INSERT INTO orders (order_number, customer_name, customer_phone, customer_address,
	status, payment_status, total_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	OrderNumber     string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress pgtype.Text
	Status          string
	PaymentStatus   string
	TotalAmount     pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber, arg.CustomerName, arg.CustomerPhone, arg.CustomerAddress,
		arg.Status, arg.PaymentStatus, arg.TotalAmount,
	))
}

const createOrderItem = `
INSERT INTO order_items (order_id, product_id, product_name, selected_size, quantity, price, subtotal)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + orderItemColumns

type CreateOrderItemParams struct {
	OrderID      uuid.UUID
	ProductID    pgtype.UUID
	ProductName  string
	SelectedSize pgtype.Text
	Quantity     int32
	Price        pgtype.Numeric
	Subtotal     pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.ProductID, arg.ProductName, arg.SelectedSize,
		arg.Quantity, arg.Price, arg.Subtotal,
	))
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const listOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::text IS NULL OR payment_status = $2)
  AND ($3::timestamptz IS NULL OR created_at >= $3)
  AND ($4::timestamptz IS NULL OR created_at <= $4)
ORDER BY updated_at DESC
LIMIT $5 OFFSET $6
`

type ListOrdersParams struct {
	Status        pgtype.Text
	PaymentStatus pgtype.Text
	StartDate     pgtype.Timestamptz
	EndDate       pgtype.Timestamptz
	Limit         int32
	Offset        int32
}

// ListOrders returns orders sorted by most recently touched first.
func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.Status, arg.PaymentStatus, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrderItemsByOrder = `
SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getOrderItem = `
SELECT ` + orderItemColumns + `
FROM order_items
WHERE id = $1 AND order_id = $2
`

type GetOrderItemParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) GetOrderItem(ctx context.Context, arg GetOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, getOrderItem, arg.ID, arg.OrderID))
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	FromStatus string
}

// UpdateOrderStatus moves the order to a new status only if it still holds
// the expected current status; pgx.ErrNoRows signals a concurrent change.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.FromStatus))
}

const updateOrderPayment = `
UPDATE orders
SET payment_status = $2,
    payment_received_date = COALESCE($3, payment_received_date),
    updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderPaymentParams struct {
	ID                  uuid.UUID
	PaymentStatus       string
	PaymentReceivedDate pgtype.Timestamptz
}

// UpdateOrderPayment flips the payment flag. A NULL received date leaves any
// previously recorded date untouched, so reverting to payment_pending does
// not erase when the money actually arrived.
func (q *Queries) UpdateOrderPayment(ctx context.Context, arg UpdateOrderPaymentParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderPayment, arg.ID, arg.PaymentStatus, arg.PaymentReceivedDate))
}

const appendAdminNotes = `
UPDATE orders
SET admin_notes = CASE WHEN admin_notes = '' THEN $2 ELSE admin_notes || E'\n' || $2 END,
    updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type AppendAdminNotesParams struct {
	ID   uuid.UUID
	Line string
}

// AppendAdminNotes adds one line to the audit blob. The concatenation happens
// in SQL so the field is append-only even under concurrent edits.
func (q *Queries) AppendAdminNotes(ctx context.Context, arg AppendAdminNotesParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, appendAdminNotes, arg.ID, arg.Line))
}

const updateOrderTimeline = `
UPDATE orders
SET admin_timeline = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderTimelineParams struct {
	ID       uuid.UUID
	Timeline string
}

func (q *Queries) UpdateOrderTimeline(ctx context.Context, arg UpdateOrderTimelineParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderTimeline, arg.ID, arg.Timeline))
}

const overrideOrderTotal = `
UPDATE orders
SET total_amount = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type OverrideOrderTotalParams struct {
	ID          uuid.UUID
	TotalAmount pgtype.Numeric
}

// OverrideOrderTotal sets total_amount without reconciling against item
// subtotals. Deliberate escape hatch for manual discounts and adjustments.
func (q *Queries) OverrideOrderTotal(ctx context.Context, arg OverrideOrderTotalParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, overrideOrderTotal, arg.ID, arg.TotalAmount))
}

const updateOrderItemPrice = `
UPDATE order_items
SET price = $3, subtotal = $3 * quantity
WHERE id = $1 AND order_id = $2
RETURNING ` + orderItemColumns

type UpdateOrderItemPriceParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	Price   pgtype.Numeric
}

// UpdateOrderItemPrice corrects an item's unit price and recomputes its
// subtotal in the same statement.
func (q *Queries) UpdateOrderItemPrice(ctx context.Context, arg UpdateOrderItemPriceParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, updateOrderItemPrice, arg.ID, arg.OrderID, arg.Price))
}

const recomputeOrderTotal = `
UPDATE orders
SET total_amount = COALESCE((SELECT SUM(subtotal) FROM order_items WHERE order_id = $1), 0),
    updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

// RecomputeOrderTotal resets total_amount to the sum of the remaining item
// subtotals. Used after item price edits and item deletions.
func (q *Queries) RecomputeOrderTotal(ctx context.Context, orderID uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, recomputeOrderTotal, orderID))
}

const deleteOrderItem = `
DELETE FROM order_items
WHERE id = $1 AND order_id = $2
`

type DeleteOrderItemParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) DeleteOrderItem(ctx context.Context, arg DeleteOrderItemParams) error {
	tag, err := q.db.Exec(ctx, deleteOrderItem, arg.ID, arg.OrderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const countOrderItems = `
SELECT COUNT(*) FROM order_items WHERE order_id = $1
`

func (q *Queries) CountOrderItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countOrderItems, orderID).Scan(&count)
	return count, err
}

const deleteOrder = `
DELETE FROM orders WHERE id = $1
`

func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, deleteOrder, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const deleteAllOrders = `
DELETE FROM orders
`

// DeleteAllOrders purges every order; items and events go with them via
// ON DELETE CASCADE. Returns the number of orders removed.
func (q *Queries) DeleteAllOrders(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteAllOrders)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const createOrderEvent = `
INSERT INTO order_events (order_id, actor, action, note)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, actor, action, note, created_at
`

type CreateOrderEventParams struct {
	OrderID uuid.UUID
	Actor   pgtype.UUID
	Action  string
	Note    string
}

func (q *Queries) CreateOrderEvent(ctx context.Context, arg CreateOrderEventParams) (OrderEvent, error) {
	row := q.db.QueryRow(ctx, createOrderEvent, arg.OrderID, arg.Actor, arg.Action, arg.Note)
	var e OrderEvent
	err := row.Scan(&e.ID, &e.OrderID, &e.Actor, &e.Action, &e.Note, &e.CreatedAt)
	return e, err
}

const listOrderEventsByOrder = `
SELECT id, order_id, actor, action, note, created_at
FROM order_events
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) ListOrderEventsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderEvent, error) {
	rows, err := q.db.Query(ctx, listOrderEventsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []OrderEvent
	for rows.Next() {
		var e OrderEvent
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Actor, &e.Action, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
