package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/rasoi-app/api/internal/database"
	"github.com/rasoi-app/api/internal/enum"
	"github.com/rasoi-app/api/internal/middleware"
	"github.com/rasoi-app/api/internal/service"
)

// OrderBroadcaster pushes order events to connected back-office clients.
// Satisfied by *ws.Hub; may be nil when no feed is wired.
type OrderBroadcaster interface {
	BroadcastOrder(eventType string, payload interface{})
}

// OrderStore defines the database methods needed by the admin order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListOrderEventsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderEvent, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderPayment(ctx context.Context, arg database.UpdateOrderPaymentParams) (database.Order, error)
	AppendAdminNotes(ctx context.Context, arg database.AppendAdminNotesParams) (database.Order, error)
	UpdateOrderTimeline(ctx context.Context, arg database.UpdateOrderTimelineParams) (database.Order, error)
	OverrideOrderTotal(ctx context.Context, arg database.OverrideOrderTotalParams) (database.Order, error)
	UpdateOrderItemPrice(ctx context.Context, arg database.UpdateOrderItemPriceParams) (database.OrderItem, error)
	RecomputeOrderTotal(ctx context.Context, orderID uuid.UUID) (database.Order, error)
	GetOrderItem(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, arg database.DeleteOrderItemParams) error
	CountOrderItems(ctx context.Context, orderID uuid.UUID) (int64, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	DeleteAllOrders(ctx context.Context) (int64, error)
	CreateOrderEvent(ctx context.Context, arg database.CreateOrderEventParams) (database.OrderEvent, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx), letting the
// handler bind store instances to transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderHandler handles the admin order endpoints.
type OrderHandler struct {
	store     OrderStore
	pool      service.TxBeginner
	newStore  NewOrderStore
	purgeCode string
	hub       OrderBroadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderStore, pool service.TxBeginner, newStore NewOrderStore, purgeCode string, hub OrderBroadcaster) *OrderHandler {
	return &OrderHandler{
		store:     store,
		pool:      pool,
		newStore:  newStore,
		purgeCode: purgeCode,
		hub:       hub,
	}
}

// RegisterRoutes registers admin order endpoints on the given Chi router.
// Expected to be mounted at /admin/orders behind auth.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Delete("/", h.PurgeAll)
	r.Delete("/items", h.DeleteItem)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
}

// --- Request / Response types ---

type itemPriceUpdate struct {
	ItemID string `json:"item_id"`
	Price  string `json:"price"`
}

type updateOrderRequest struct {
	Status              *string           `json:"status"`
	Reason              string            `json:"reason"`
	Note                string            `json:"note"`
	PaymentStatus       *string           `json:"payment_status"`
	PaymentReceivedDate *string           `json:"payment_received_date"`
	AdminTimeline       *string           `json:"admin_timeline"`
	AdminNotes          *string           `json:"admin_notes"`
	ItemPrices          []itemPriceUpdate `json:"item_prices"`
	TotalAmount         *string           `json:"total_amount"`
}

type orderResponse struct {
	ID                  uuid.UUID           `json:"id"`
	OrderNumber         string              `json:"order_number"`
	CustomerName        string              `json:"customer_name"`
	CustomerPhone       string              `json:"customer_phone"`
	CustomerAddress     *string             `json:"customer_address"`
	Status              string              `json:"status"`
	PaymentStatus       string              `json:"payment_status"`
	PaymentReceivedDate *time.Time          `json:"payment_received_date"`
	TotalAmount         string              `json:"total_amount"`
	AdminTimeline       string              `json:"admin_timeline"`
	AdminNotes          string              `json:"admin_notes"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
	Items               []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID           uuid.UUID `json:"id"`
	ProductID    *string   `json:"product_id"`
	ProductName  string    `json:"product_name"`
	SelectedSize *string   `json:"selected_size"`
	Quantity     int32     `json:"quantity"`
	Price        string    `json:"price"`
	Subtotal     string    `json:"subtotal"`
}

type orderEventResponse struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"`
	Note      string    `json:"note"`
	Actor     *string   `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// orderDetailResponse extends orderResponse with the audit trail for the GET
// detail endpoint.
type orderDetailResponse struct {
	orderResponse
	Events []orderEventResponse `json:"events"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// --- Handlers ---

// List handles GET /admin/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 200 {
		limit = 200
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		if !service.IsValidOrderStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("payment_status"); s != "" {
		if !service.IsValidPaymentStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_status filter"})
			return
		}
		params.PaymentStatus = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		// Make the end date inclusive.
		params.EndDate = pgtype.Timestamptz{Time: t.AddDate(0, 0, 1), Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /admin/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	events, err := h.store.ListOrderEventsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order events: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := orderDetailResponse{orderResponse: dbOrderToResponse(order)}
	resp.Items = make([]orderItemResponse, len(items))
	for i, item := range items {
		resp.Items[i] = dbOrderItemToResponse(item)
	}
	resp.Events = make([]orderEventResponse, len(events))
	for i, e := range events {
		resp.Events[i] = dbOrderEventToResponse(e)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Update handles PATCH /admin/orders/{id}.
//
// A single PATCH may carry any combination of: a status transition, a payment
// toggle, item price edits, a total override, a timeline update, and a note.
// All of it is applied in one transaction so readers never observe a
// half-applied update.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status == nil && req.PaymentStatus == nil && req.AdminTimeline == nil &&
		req.AdminNotes == nil && len(req.ItemPrices) == 0 && req.TotalAmount == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no updatable fields in request"})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		log.Printf("ERROR: begin update tx: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(r.Context())

	store := h.newStore(tx)
	ctx := r.Context()
	actor := pgtype.UUID{Bytes: claims.UserID, Valid: true}
	now := time.Now()

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	// 1. Status transition.
	if req.Status != nil {
		next := *req.Status
		if !service.IsValidOrderStatus(next) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		if err := service.ValidateTransition(order.Status, next); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		text := req.Reason
		if text == "" {
			text = req.Note
		}
		if service.TransitionRequiresReason(order.Status, next) && req.Reason == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": service.ErrReasonRequired.Error()})
			return
		}

		prev := order.Status
		order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:         orderID,
			Status:     next,
			FromStatus: prev,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Someone else moved the order between our read and our write.
				writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, please retry"})
				return
			}
			log.Printf("ERROR: update order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		if text != "" {
			order, err = store.AppendAdminNotes(ctx, database.AppendAdminNotesParams{
				ID:   orderID,
				Line: service.NoteLine(now, service.TransitionTag(prev, next), text),
			})
			if err != nil {
				log.Printf("ERROR: append status note: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
		}

		if _, err := store.CreateOrderEvent(ctx, database.CreateOrderEventParams{
			OrderID: orderID,
			Actor:   actor,
			Action:  service.TransitionAction(prev, next),
			Note:    text,
		}); err != nil {
			log.Printf("ERROR: record status event: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	// 2. Payment toggle.
	if req.PaymentStatus != nil {
		next := *req.PaymentStatus
		if !service.IsValidPaymentStatus(next) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_status"})
			return
		}
		if !service.CanTogglePayment(order.Status) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": service.ErrPaymentNotReady.Error()})
			return
		}

		params := database.UpdateOrderPaymentParams{ID: orderID, PaymentStatus: next}
		action := "payment_pending"
		if next == enum.PaymentStatusCompleted {
			action = "payment_received"
			received := now
			if req.PaymentReceivedDate != nil {
				received, err = time.Parse(time.RFC3339, *req.PaymentReceivedDate)
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_received_date, use RFC 3339"})
					return
				}
			}
			params.PaymentReceivedDate = pgtype.Timestamptz{Time: received, Valid: true}
		}
		// Reverting to payment_pending keeps the recorded date.

		order, err = store.UpdateOrderPayment(ctx, params)
		if err != nil {
			log.Printf("ERROR: update order payment: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		if action == "payment_received" && req.Note != "" {
			order, err = store.AppendAdminNotes(ctx, database.AppendAdminNotesParams{
				ID:   orderID,
				Line: service.NoteLine(now, "PAYMENT", req.Note),
			})
			if err != nil {
				log.Printf("ERROR: append payment note: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
		}

		if _, err := store.CreateOrderEvent(ctx, database.CreateOrderEventParams{
			OrderID: orderID,
			Actor:   actor,
			Action:  action,
			Note:    req.Note,
		}); err != nil {
			log.Printf("ERROR: record payment event: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	// 3. Item price edits, then a single total recompute.
	if len(req.ItemPrices) > 0 {
		for _, edit := range req.ItemPrices {
			itemID, err := uuid.Parse(edit.ItemID)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item_id"})
				return
			}
			price, err := decimal.NewFromString(edit.Price)
			if err != nil || price.IsNegative() {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item price"})
				return
			}
			if _, err := store.UpdateOrderItemPrice(ctx, database.UpdateOrderItemPriceParams{
				ID:      itemID,
				OrderID: orderID,
				Price:   decimalToNumeric(price),
			}); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					writeJSON(w, http.StatusNotFound, map[string]string{"error": "order item not found"})
					return
				}
				log.Printf("ERROR: update item price: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
		}

		order, err = store.RecomputeOrderTotal(ctx, orderID)
		if err != nil {
			log.Printf("ERROR: recompute total: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		if _, err := store.CreateOrderEvent(ctx, database.CreateOrderEventParams{
			OrderID: orderID,
			Actor:   actor,
			Action:  "prices_updated",
			Note:    req.Note,
		}); err != nil {
			log.Printf("ERROR: record price event: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	// 4. Total override wins over the recomputed sum when both are sent.
	if req.TotalAmount != nil {
		total, err := decimal.NewFromString(*req.TotalAmount)
		if err != nil || total.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid total_amount"})
			return
		}
		order, err = store.OverrideOrderTotal(ctx, database.OverrideOrderTotalParams{
			ID:          orderID,
			TotalAmount: decimalToNumeric(total),
		})
		if err != nil {
			log.Printf("ERROR: override total: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		if _, err := store.CreateOrderEvent(ctx, database.CreateOrderEventParams{
			OrderID: orderID,
			Actor:   actor,
			Action:  "total_overridden",
			Note:    req.Note,
		}); err != nil {
			log.Printf("ERROR: record total event: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	// 5. Timeline is a free-form replace; notes are append-only.
	if req.AdminTimeline != nil {
		order, err = store.UpdateOrderTimeline(ctx, database.UpdateOrderTimelineParams{
			ID:       orderID,
			Timeline: *req.AdminTimeline,
		})
		if err != nil {
			log.Printf("ERROR: update timeline: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	if req.AdminNotes != nil && *req.AdminNotes != "" {
		order, err = store.AppendAdminNotes(ctx, database.AppendAdminNotesParams{
			ID:   orderID,
			Line: service.NoteLine(now, "NOTE", *req.AdminNotes),
		})
		if err != nil {
			log.Printf("ERROR: append admin note: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("ERROR: commit update tx: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbOrderToResponse(order)
	if h.hub != nil {
		h.hub.BroadcastOrder("order_updated", resp)
	}

	writeJSON(w, http.StatusOK, resp)
}

// DeleteItem handles DELETE /admin/orders/items?id=&order_id=&reason=.
//
// Removing the last item deletes the whole order; otherwise the order total
// is recomputed in the same transaction.
func (h *OrderHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}
	orderID, err := uuid.Parse(r.URL.Query().Get("order_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
		return
	}
	reason := r.URL.Query().Get("reason")

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		log.Printf("ERROR: begin delete-item tx: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(r.Context())

	store := h.newStore(tx)
	ctx := r.Context()

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for item delete: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if order.Status != enum.OrderStatusPending && order.Status != enum.OrderStatusProcessing {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "items can only be removed from pending or processing orders"})
		return
	}

	item, err := store.GetOrderItem(ctx, database.GetOrderItemParams{ID: itemID, OrderID: orderID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order item not found"})
			return
		}
		log.Printf("ERROR: get order item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	count, err := store.CountOrderItems(ctx, orderID)
	if err != nil {
		log.Printf("ERROR: count order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if count <= 1 {
		if err := store.DeleteOrder(ctx, orderID); err != nil {
			log.Printf("ERROR: delete emptied order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if err := tx.Commit(ctx); err != nil {
			log.Printf("ERROR: commit delete-item tx: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if h.hub != nil {
			h.hub.BroadcastOrder("order_deleted", map[string]string{"id": orderID.String()})
		}
		writeJSON(w, http.StatusOK, map[string]bool{"order_deleted": true})
		return
	}

	if err := store.DeleteOrderItem(ctx, database.DeleteOrderItemParams{ID: itemID, OrderID: orderID}); err != nil {
		log.Printf("ERROR: delete order item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	order, err = store.RecomputeOrderTotal(ctx, orderID)
	if err != nil {
		log.Printf("ERROR: recompute total after item delete: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if reason != "" {
		if _, err := store.AppendAdminNotes(ctx, database.AppendAdminNotesParams{
			ID:   orderID,
			Line: service.NoteLine(time.Now(), "ITEM REMOVED", reason+" ("+item.ProductName+")"),
		}); err != nil {
			log.Printf("ERROR: append item-removed note: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	if _, err := store.CreateOrderEvent(ctx, database.CreateOrderEventParams{
		OrderID: orderID,
		Actor:   pgtype.UUID{Bytes: claims.UserID, Valid: true},
		Action:  "item_removed",
		Note:    reason,
	}); err != nil {
		log.Printf("ERROR: record item-removed event: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("ERROR: commit delete-item tx: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if h.hub != nil {
		h.hub.BroadcastOrder("order_updated", dbOrderToResponse(order))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order_deleted": false,
		"new_total":     numericToString(order.TotalAmount),
	})
}

// PurgeAll handles DELETE /admin/orders?confirm=CODE.
// The confirmation code lives in server config, never in the client.
func (h *OrderHandler) PurgeAll(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != h.purgeCode {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid confirmation code"})
		return
	}

	deleted, err := h.store.DeleteAllOrders(r.Context())
	if err != nil {
		log.Printf("ERROR: purge orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	log.Printf("order history purged: %d orders deleted", deleted)
	if h.hub != nil {
		h.hub.BroadcastOrder("orders_purged", map[string]int64{"deleted": deleted})
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// --- Converters ---

func dbOrderToResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		CustomerName:        o.CustomerName,
		CustomerPhone:       o.CustomerPhone,
		CustomerAddress:     pgTextPtr(o.CustomerAddress),
		Status:              o.Status,
		PaymentStatus:       o.PaymentStatus,
		PaymentReceivedDate: pgTimePtr(o.PaymentReceivedDate),
		TotalAmount:         numericToString(o.TotalAmount),
		AdminTimeline:       o.AdminTimeline,
		AdminNotes:          o.AdminNotes,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

func dbOrderItemToResponse(i database.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:           i.ID,
		ProductID:    pgUUIDPtr(i.ProductID),
		ProductName:  i.ProductName,
		SelectedSize: pgTextPtr(i.SelectedSize),
		Quantity:     i.Quantity,
		Price:        numericToString(i.Price),
		Subtotal:     numericToString(i.Subtotal),
	}
}

func dbOrderEventToResponse(e database.OrderEvent) orderEventResponse {
	return orderEventResponse{
		ID:        e.ID,
		Action:    e.Action,
		Note:      e.Note,
		Actor:     pgUUIDPtr(e.Actor),
		CreatedAt: e.CreatedAt,
	}
}

// --- pgtype helpers shared across the handler package ---

func pgTextPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func pgUUIDPtr(u pgtype.UUID) *string {
	if !u.Valid {
		return nil
	}
	s := uuid.UUID(u.Bytes).String()
	return &s
}

func pgTimePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

// numericToString renders a numeric column as a fixed two-decimal string,
// the money format used in every response.
func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	v, err := n.Value()
	if err != nil {
		return "0.00"
	}
	s, ok := v.(string)
	if !ok {
		return "0.00"
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

// moneyMapToStrings decodes a JSONB size→price map into fixed two-decimal
// strings. Undecodable entries are dropped rather than failing the response.
func moneyMapToStrings(raw []byte) map[string]string {
	out := map[string]string{}
	if len(raw) == 0 {
		return out
	}
	var m map[string]json.Number
	if err := json.Unmarshal(raw, &m); err != nil {
		return out
	}
	for size, num := range m {
		d, err := decimal.NewFromString(num.String())
		if err != nil {
			continue
		}
		out[size] = d.StringFixed(2)
	}
	return out
}

// decimalToNumeric converts a decimal into a pgtype.Numeric parameter.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(d.StringFixed(2)); err != nil {
		return pgtype.Numeric{}
	}
	return n
}
