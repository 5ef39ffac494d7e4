package analytics

import (
	"context"
	"fmt"
	"time"

	"zaoconnect/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Start(ctx context.Context, orderID string, amount decimal.Decimal, phoneNumber string) error {
	const q = `
INSERT INTO payment_analytics (order_id, amount, status, phone_number)
VALUES ($1, $2::numeric, 'pending', $3)
ON CONFLICT (order_id) DO NOTHING
`
	_, err := r.pool.Exec(ctx, q, orderID, amount.String(), phoneNumber)
	return err
}

func (r *postgresRepo) Complete(ctx context.Context, orderID, status, receipt string) error {
	const q = `
UPDATE payment_analytics
SET status = $2,
    mpesa_receipt = $3,
    completed_at = now(),
    duration_seconds = EXTRACT(EPOCH FROM (now() - initiated_at))::int
WHERE order_id = $1
`
	cmd, err := r.pool.Exec(ctx, q, orderID, status, receipt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) StatsSince(ctx context.Context, since time.Time) (*Stats, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status = 'paid'),
       COUNT(*) FILTER (WHERE status = 'failed'),
       COUNT(*) FILTER (WHERE status = 'pending'),
       COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0)::text,
       COALESCE(AVG(duration_seconds), 0)
FROM payment_analytics
WHERE initiated_at >= $1
`
	var stats Stats
	var revenue string
	if err := r.pool.QueryRow(ctx, q, since).Scan(
		&stats.TotalPayments,
		&stats.PaidCount,
		&stats.FailedCount,
		&stats.PendingCount,
		&revenue,
		&stats.AvgDurationSecs,
	); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(revenue)
	if err != nil {
		return nil, fmt.Errorf("parse revenue %q: %w", revenue, err)
	}
	stats.TotalRevenue = parsed
	return &stats, nil
}

func (r *postgresRepo) Recent(ctx context.Context, limit int) ([]domain.PaymentAnalytics, error) {
	const q = `
SELECT order_id::text, amount::text, status, payment_method, mpesa_receipt, phone_number,
       initiated_at, completed_at, duration_seconds
FROM payment_analytics
ORDER BY initiated_at DESC
LIMIT $1
`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PaymentAnalytics
	for rows.Next() {
		var p domain.PaymentAnalytics
		var amount, status string
		if err := rows.Scan(
			&p.OrderID,
			&amount,
			&status,
			&p.PaymentMethod,
			&p.MpesaReceipt,
			&p.PhoneNumber,
			&p.InitiatedAt,
			&p.CompletedAt,
			&p.DurationSeconds,
		); err != nil {
			return nil, err
		}
		p.Status = domain.OrderStatus(status)
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse payment amount %q: %w", amount, err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
