package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

const (
	PaymentStatusPending   = "payment_pending"
	PaymentStatusCompleted = "payment_completed"
)

// ── Roles (CHECK constrained in DB) ──

const (
	UserRoleAdmin = "ADMIN"
	UserRoleStaff = "STAFF"
)

// ── Report filters (query-string values, no DB constraint) ──

const (
	DateRangeAll     = "all"
	DateRangeToday   = "today"
	DateRange7Days   = "7days"
	DateRangeMonth   = "month"
	DateRangeQuarter = "quarter"
	DateRangeCustom  = "custom"
)

const (
	DateFilterOrder   = "order"
	DateFilterPayment = "payment"
)
