package order

import (
	"context"

	"zaoconnect/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateInput opens a new order in pending state. One order exists per
// checkout attempt; retries create fresh orders.
type CreateInput struct {
	UserID      string
	TotalAmount decimal.Decimal
	PhoneNumber string
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByCheckoutRequestID returns the earliest order carrying the
	// correlation id, along with how many orders matched. The provider
	// should never hand out duplicate ids, but reconciliation must stay
	// deterministic if it does.
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Order, int, error)
	GetByCheckoutRequestIDForUser(ctx context.Context, checkoutRequestID, userID string) (*domain.Order, error)

	SetCheckoutRequestID(ctx context.Context, orderID, checkoutRequestID string) error

	// MarkPaid and MarkFailed update status, receipt, audit payload and
	// timestamp as one statement so readers never see a half-written
	// transition. They report false when no row was eligible.
	MarkPaid(ctx context.Context, orderID, receipt, rawResponse string) (bool, error)
	MarkFailed(ctx context.Context, orderID, rawResponse string) (bool, error)

	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)

	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
	PaidRevenue(ctx context.Context) (decimal.Decimal, error)
}
