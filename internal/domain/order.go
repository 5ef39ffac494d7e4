package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderFailed    OrderStatus = "failed"
	OrderCancelled OrderStatus = "cancelled"
)

// statusTransitions encodes the order lifecycle. failed -> paid is the
// late-callback edge: an initiation that timed out locally may still be
// settled by the gateway afterwards.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderPaid, OrderFailed, OrderCancelled},
	OrderFailed:    {OrderPending, OrderPaid},
	OrderPaid:      {OrderCancelled},
	OrderCancelled: {},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Settled reports whether the payment attempt has reached a state the
// reconciliation path must not touch again.
func (s OrderStatus) Settled() bool {
	return s == OrderPaid || s == OrderCancelled
}

// Order records one checkout attempt. Retries never reuse an order; a new
// one is created per attempt.
type Order struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"-"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	PhoneNumber        string          `json:"phone_number"`
	Status             OrderStatus     `json:"status"`
	CheckoutRequestID  string          `json:"checkout_request_id,omitempty"`
	MpesaReceiptNumber string          `json:"mpesa_receipt_number,omitempty"`
	MpesaResponse      string          `json:"-"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PaymentAnalytics is the per-order metrics row behind the staff dashboard.
type PaymentAnalytics struct {
	OrderID         string          `json:"order_id"`
	Amount          decimal.Decimal `json:"amount"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   string          `json:"payment_method"`
	MpesaReceipt    string          `json:"mpesa_receipt,omitempty"`
	PhoneNumber     string          `json:"phone_number"`
	InitiatedAt     time.Time       `json:"initiated_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	DurationSeconds *int            `json:"duration_seconds,omitempty"`
}
