package analytics

import (
	"context"
	"time"

	"zaoconnect/internal/domain"
	"github.com/shopspring/decimal"
)

// Stats aggregates payment outcomes for the dashboard.
type Stats struct {
	TotalPayments   int             `json:"total_payments"`
	PaidCount       int             `json:"paid"`
	FailedCount     int             `json:"failed"`
	PendingCount    int             `json:"pending"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	AvgDurationSecs float64         `json:"avg_duration_seconds"`
}

type Repository interface {
	// Start records that a payment attempt began for an order. Calling it
	// twice for the same order is a no-op.
	Start(ctx context.Context, orderID string, amount decimal.Decimal, phoneNumber string) error
	// Complete closes the attempt with its terminal status and derives the
	// initiation-to-completion duration.
	Complete(ctx context.Context, orderID, status, receipt string) error
	StatsSince(ctx context.Context, since time.Time) (*Stats, error)
	Recent(ctx context.Context, limit int) ([]domain.PaymentAnalytics, error)
}
