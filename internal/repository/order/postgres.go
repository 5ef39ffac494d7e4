package order

import (
	"context"
	"errors"
	"fmt"

	"zaoconnect/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const orderColumns = `id::text, user_id::text, total_amount::text, phone_number, status, checkout_request_id, mpesa_receipt_number, mpesa_response, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	const q = `
INSERT INTO orders (user_id, total_amount, phone_number, status)
VALUES ($1, $2::numeric, $3, 'pending')
RETURNING ` + orderColumns
	return scanOrder(r.pool.QueryRow(ctx, q, in.UserID, in.TotalAmount.String(), in.PhoneNumber))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.fetchOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Order, int, error) {
	if checkoutRequestID == "" {
		return nil, 0, domain.ErrNotFound
	}

	var matches int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE checkout_request_id = $1`, checkoutRequestID,
	).Scan(&matches); err != nil {
		return nil, 0, err
	}
	if matches == 0 {
		return nil, 0, domain.ErrNotFound
	}

	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE checkout_request_id = $1
ORDER BY created_at ASC
LIMIT 1
`
	order, err := r.fetchOrder(ctx, q, checkoutRequestID)
	if err != nil {
		return nil, 0, err
	}
	return order, matches, nil
}

func (r *postgresRepo) GetByCheckoutRequestIDForUser(ctx context.Context, checkoutRequestID, userID string) (*domain.Order, error) {
	if checkoutRequestID == "" {
		return nil, domain.ErrNotFound
	}
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE checkout_request_id = $1 AND user_id = $2
ORDER BY created_at ASC
LIMIT 1
`
	return r.fetchOrder(ctx, q, checkoutRequestID, userID)
}

func (r *postgresRepo) SetCheckoutRequestID(ctx context.Context, orderID, checkoutRequestID string) error {
	const q = `
UPDATE orders
SET checkout_request_id = $2, updated_at = now()
WHERE id = $1 AND status = 'pending'
`
	cmd, err := r.pool.Exec(ctx, q, orderID, checkoutRequestID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) MarkPaid(ctx context.Context, orderID, receipt, rawResponse string) (bool, error) {
	const q = `
UPDATE orders
SET status = 'paid', mpesa_receipt_number = $2, mpesa_response = $3, updated_at = now()
WHERE id = $1 AND status IN ('pending', 'failed')
`
	cmd, err := r.pool.Exec(ctx, q, orderID, receipt, rawResponse)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) MarkFailed(ctx context.Context, orderID, rawResponse string) (bool, error) {
	const q = `
UPDATE orders
SET status = 'failed', mpesa_response = $2, updated_at = now()
WHERE id = $1 AND status = 'pending'
`
	cmd, err := r.pool.Exec(ctx, q, orderID, rawResponse)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.OrderStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *postgresRepo) PaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total string
	const q = `SELECT COALESCE(SUM(total_amount), 0)::text FROM orders WHERE status = 'paid'`
	if err := r.pool.QueryRow(ctx, q).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	parsed, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse paid revenue %q: %w", total, err)
	}
	return parsed, nil
}

func (r *postgresRepo) fetchOrder(ctx context.Context, q string, args ...interface{}) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var total, status string
	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&total,
		&o.PhoneNumber,
		&status,
		&o.CheckoutRequestID,
		&o.MpesaReceiptNumber,
		&o.MpesaResponse,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parse order total %q: %w", total, err)
	}
	o.TotalAmount = parsed
	o.Status = domain.OrderStatus(status)
	return &o, nil
}
