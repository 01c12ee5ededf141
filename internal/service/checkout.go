package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rasoi-app/api/internal/database"
	"github.com/rasoi-app/api/internal/enum"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// Errors returned by the checkout service.
var (
	ErrEmptyItems         = errors.New("items are required")
	ErrCustomerName       = errors.New("customer_name is required")
	ErrCustomerPhone      = errors.New("customer_phone is required")
	ErrInvalidQuantity    = errors.New("quantity must be > 0")
	ErrInvalidProductID   = errors.New("invalid product_id")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrSizeRequired       = errors.New("selected_size is required for this product")
	ErrSizeUnknown        = errors.New("selected_size is not offered for this product")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CheckoutStore defines the DB methods needed to create orders.
// Satisfied by *database.Queries (and its WithTx variant).
type CheckoutStore interface {
	GetNextOrderNumber(ctx context.Context) (int32, error)
	GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	CreateOrderEvent(ctx context.Context, arg database.CreateOrderEventParams) (database.OrderEvent, error)
}

// NewCheckoutStore creates a CheckoutStore from a DBTX (pool or tx), letting
// the service bind store instances to transactions.
type NewCheckoutStore func(db database.DBTX) CheckoutStore

// CheckoutRequest is the validated input for a customer checkout.
type CheckoutRequest struct {
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Items           []CheckoutItemRequest
}

// CheckoutItemRequest is a single cart line.
type CheckoutItemRequest struct {
	ProductID    string
	SelectedSize string
	Quantity     int32
}

// CheckoutResult is the created order with its items.
type CheckoutResult struct {
	Order database.Order
	Items []database.OrderItem
}

// CheckoutService turns a client-side cart into a persisted order.
type CheckoutService struct {
	pool     TxBeginner
	newStore NewCheckoutStore
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(pool TxBeginner, newStore NewCheckoutStore) *CheckoutService {
	return &CheckoutService{pool: pool, newStore: newStore}
}

// CreateOrder validates the cart, snapshots unit prices server-side, and
// creates the order atomically in pending/payment_pending. Retries up to
// maxOrderNumberRetries times on order_number unique violations (concurrent
// checkouts can read the same MAX).
func (s *CheckoutService) CreateOrder(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.CustomerName == "" {
		return nil, ErrCustomerName
	}
	if req.CustomerPhone == "" {
		return nil, ErrCustomerPhone
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks for a unique constraint violation on the
// order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

// createOrderTx executes the full checkout in a single transaction.
func (s *CheckoutService) createOrderTx(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	nextNum, err := store.GetNextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("RSO-%03d", nextNum)

	// --- Process items: validate + snapshot prices ---
	totalAmount := decimal.Zero
	var itemParams []database.CreateOrderItemParams

	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}

		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidProductID)
		}

		product, err := store.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrProductNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get product: %w", i, err)
		}
		if product.IsHidden || !product.IsAvailable {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrProductUnavailable)
		}

		// Variant products require a size choice; the chosen variant's price
		// becomes the unit-price snapshot. Plain products use the base price.
		variants, err := decodeMoneyMap(product.Variants)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: decode variants: %w", i, err)
		}

		unitPrice := numericToDecimal(product.Price)
		selectedSize := pgtype.Text{}
		if len(variants) > 0 {
			if item.SelectedSize == "" {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrSizeRequired)
			}
			variantPrice, ok := variants[item.SelectedSize]
			if !ok {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrSizeUnknown)
			}
			unitPrice = variantPrice
			selectedSize = pgtype.Text{String: item.SelectedSize, Valid: true}
		}

		subtotal := unitPrice.Mul(decimal.NewFromInt32(item.Quantity))
		totalAmount = totalAmount.Add(subtotal)

		itemParams = append(itemParams, database.CreateOrderItemParams{
			ProductID:    pgtype.UUID{Bytes: productID, Valid: true},
			ProductName:  product.Name,
			SelectedSize: selectedSize,
			Quantity:     item.Quantity,
			Price:        decimalToNumeric(unitPrice),
			Subtotal:     decimalToNumeric(subtotal),
		})
	}

	customerAddress := pgtype.Text{}
	if req.CustomerAddress != "" {
		customerAddress = pgtype.Text{String: req.CustomerAddress, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:     orderNumber,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: customerAddress,
		Status:          enum.OrderStatusPending,
		PaymentStatus:   enum.PaymentStatusPending,
		TotalAmount:     decimalToNumeric(totalAmount),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []database.OrderItem
	for _, params := range itemParams {
		params.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if _, err := store.CreateOrderEvent(ctx, database.CreateOrderEventParams{
		OrderID: order.ID,
		Action:  "order_placed",
		Note:    fmt.Sprintf("%d item(s), total %s", len(items), totalAmount.StringFixed(2)),
	}); err != nil {
		return nil, fmt.Errorf("create order event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CheckoutResult{Order: order, Items: items}, nil
}

// --- Helpers shared across the service package ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

// decodeMoneyMap decodes a jsonb size→amount column. Empty or NULL columns
// decode to an empty map.
func decodeMoneyMap(raw []byte) (map[string]decimal.Decimal, error) {
	if len(raw) == 0 {
		return map[string]decimal.Decimal{}, nil
	}
	m := map[string]decimal.Decimal{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
