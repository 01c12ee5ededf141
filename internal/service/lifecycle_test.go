package service

import (
	"strings"
	"testing"
	"time"

	"github.com/rasoi-app/api/internal/enum"
)

func TestValidateTransition_Allowed(t *testing.T) {
	cases := []struct{ from, to string }{
		{enum.OrderStatusPending, enum.OrderStatusProcessing},
		{enum.OrderStatusPending, enum.OrderStatusCancelled},
		{enum.OrderStatusProcessing, enum.OrderStatusCompleted},
		{enum.OrderStatusProcessing, enum.OrderStatusCancelled},
		{enum.OrderStatusCompleted, enum.OrderStatusProcessing},
		{enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	}
	for _, c := range cases {
		if err := ValidateTransition(c.from, c.to); err != nil {
			t.Errorf("%s -> %s should be allowed, got %v", c.from, c.to, err)
		}
	}
}

func TestValidateTransition_Rejected(t *testing.T) {
	cases := []struct{ from, to string }{
		{enum.OrderStatusPending, enum.OrderStatusCompleted},
		{enum.OrderStatusPending, enum.OrderStatusPending},
		{enum.OrderStatusProcessing, enum.OrderStatusPending},
		{enum.OrderStatusCompleted, enum.OrderStatusPending},
		{enum.OrderStatusCompleted, enum.OrderStatusCompleted},
		{enum.OrderStatusCancelled, enum.OrderStatusPending},
		{enum.OrderStatusCancelled, enum.OrderStatusProcessing},
		{enum.OrderStatusCancelled, enum.OrderStatusCompleted},
	}
	for _, c := range cases {
		if err := ValidateTransition(c.from, c.to); err == nil {
			t.Errorf("%s -> %s should be rejected", c.from, c.to)
		}
	}
}

func TestTransitionRequiresReason(t *testing.T) {
	if !TransitionRequiresReason(enum.OrderStatusPending, enum.OrderStatusCancelled) {
		t.Error("cancelling should require a reason")
	}
	if !TransitionRequiresReason(enum.OrderStatusCompleted, enum.OrderStatusProcessing) {
		t.Error("reverting a completed order should require a reason")
	}
	if TransitionRequiresReason(enum.OrderStatusPending, enum.OrderStatusProcessing) {
		t.Error("confirming should not require a reason")
	}
	if TransitionRequiresReason(enum.OrderStatusProcessing, enum.OrderStatusCompleted) {
		t.Error("completing should not require a reason")
	}
}

func TestCanTogglePayment(t *testing.T) {
	if CanTogglePayment(enum.OrderStatusPending) {
		t.Error("pending orders should not accept payment updates")
	}
	if CanTogglePayment(enum.OrderStatusCancelled) {
		t.Error("cancelled orders should not accept payment updates")
	}
	if !CanTogglePayment(enum.OrderStatusProcessing) {
		t.Error("processing orders should accept payment updates")
	}
	if !CanTogglePayment(enum.OrderStatusCompleted) {
		t.Error("completed orders should accept payment updates")
	}
}

func TestTransitionTag(t *testing.T) {
	cases := []struct {
		from, to string
		want     string
	}{
		{enum.OrderStatusPending, enum.OrderStatusCancelled, "ORDER CANCELLED"},
		{enum.OrderStatusPending, enum.OrderStatusProcessing, "ORDER CONFIRMED"},
		{enum.OrderStatusProcessing, enum.OrderStatusCompleted, "ORDER COMPLETED"},
		{enum.OrderStatusCompleted, enum.OrderStatusProcessing, "STATUS REVERTED: Completed → Processing"},
	}
	for _, c := range cases {
		if got := TransitionTag(c.from, c.to); got != c.want {
			t.Errorf("TransitionTag(%s, %s) = %q, want %q", c.from, c.to, got, c.want)
		}
	}
}

func TestTransitionAction(t *testing.T) {
	cases := []struct {
		from, to string
		want     string
	}{
		{enum.OrderStatusProcessing, enum.OrderStatusCancelled, "order_cancelled"},
		{enum.OrderStatusPending, enum.OrderStatusProcessing, "order_confirmed"},
		{enum.OrderStatusProcessing, enum.OrderStatusCompleted, "order_completed"},
		{enum.OrderStatusCompleted, enum.OrderStatusProcessing, "status_reverted"},
	}
	for _, c := range cases {
		if got := TransitionAction(c.from, c.to); got != c.want {
			t.Errorf("TransitionAction(%s, %s) = %q, want %q", c.from, c.to, got, c.want)
		}
	}
}

func TestNoteLine(t *testing.T) {
	at := time.Date(2025, time.March, 7, 14, 30, 0, 0, time.UTC)

	line := NoteLine(at, "ORDER CANCELLED", "customer no-show")
	if line != "[07 Mar 2025, 2:30 PM] ORDER CANCELLED: customer no-show" {
		t.Errorf("unexpected note line: %q", line)
	}

	bare := NoteLine(at, "ORDER COMPLETED", "")
	if bare != "[07 Mar 2025, 2:30 PM] ORDER COMPLETED" {
		t.Errorf("unexpected bare note line: %q", bare)
	}
	if strings.HasSuffix(bare, ":") {
		t.Error("bare line should not end with a colon")
	}
}

func TestIsValidOrderStatus(t *testing.T) {
	for _, s := range []string{"pending", "processing", "completed", "cancelled"} {
		if !IsValidOrderStatus(s) {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []string{"", "PENDING", "done", "new"} {
		if IsValidOrderStatus(s) {
			t.Errorf("%s should be invalid", s)
		}
	}
}

func TestIsValidPaymentStatus(t *testing.T) {
	if !IsValidPaymentStatus("payment_pending") || !IsValidPaymentStatus("payment_completed") {
		t.Error("known payment statuses should be valid")
	}
	if IsValidPaymentStatus("paid") || IsValidPaymentStatus("") {
		t.Error("unknown payment statuses should be invalid")
	}
}
