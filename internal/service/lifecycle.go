package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/rasoi-app/api/internal/enum"
)

// Errors returned by lifecycle validation.
var (
	ErrReasonRequired  = errors.New("a reason is required for this transition")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrPaymentStatus   = errors.New("invalid payment_status")
	ErrPaymentNotReady = errors.New("payment can only be toggled while the order is processing or completed")
)

// allowedTransitions defines valid status transitions. Key is current status,
// value is the set of statuses it can move to. cancelled has no entry: it is
// terminal.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPending:    {enum.OrderStatusProcessing, enum.OrderStatusCancelled},
	enum.OrderStatusProcessing: {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusCompleted:  {enum.OrderStatusProcessing, enum.OrderStatusCancelled},
}

// IsValidOrderStatus reports whether s is one of the four order statuses.
func IsValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusProcessing,
		enum.OrderStatusCompleted, enum.OrderStatusCancelled:
		return true
	}
	return false
}

// IsValidPaymentStatus reports whether s is a payment status value.
func IsValidPaymentStatus(s string) bool {
	return s == enum.PaymentStatusPending || s == enum.PaymentStatusCompleted
}

// ValidateTransition checks the status transition against the table.
// The admin UI only renders legal buttons, but the table is authoritative:
// a hand-crafted request cannot move cancelled orders anywhere.
func ValidateTransition(current, next string) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("cannot transition from %s", current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("cannot transition from %s to %s", current, next)
}

// TransitionRequiresReason reports whether the transition demands a non-empty
// reason: every cancellation, and reverting a completed order to processing.
func TransitionRequiresReason(current, next string) bool {
	if next == enum.OrderStatusCancelled {
		return true
	}
	return current == enum.OrderStatusCompleted && next == enum.OrderStatusProcessing
}

// CanTogglePayment reports whether the payment flag may be changed in the
// given order status. Pending orders are not yet confirmed and cancelled
// orders are closed, so neither accepts payment updates.
func CanTogglePayment(status string) bool {
	return status == enum.OrderStatusProcessing || status == enum.OrderStatusCompleted
}

// TransitionTag returns the bracketed tag written into admin_notes for a
// status transition.
func TransitionTag(current, next string) string {
	switch next {
	case enum.OrderStatusCancelled:
		return "ORDER CANCELLED"
	case enum.OrderStatusProcessing:
		if current == enum.OrderStatusCompleted {
			return "STATUS REVERTED: Completed → Processing"
		}
		return "ORDER CONFIRMED"
	case enum.OrderStatusCompleted:
		return "ORDER COMPLETED"
	}
	return "STATUS CHANGED"
}

// TransitionAction returns the structured order_events action name for a
// status transition.
func TransitionAction(current, next string) string {
	switch next {
	case enum.OrderStatusCancelled:
		return "order_cancelled"
	case enum.OrderStatusProcessing:
		if current == enum.OrderStatusCompleted {
			return "status_reverted"
		}
		return "order_confirmed"
	case enum.OrderStatusCompleted:
		return "order_completed"
	}
	return "status_changed"
}

// NoteLine formats one admin_notes line: a bracketed local timestamp, an
// action tag, and optional free text. Lines are only ever appended.
func NoteLine(at time.Time, tag, text string) string {
	stamp := at.Format("02 Jan 2006, 3:04 PM")
	if text == "" {
		return fmt.Sprintf("[%s] %s", stamp, tag)
	}
	return fmt.Sprintf("[%s] %s: %s", stamp, tag, text)
}
