package cart

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

func (r *postgresRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	const cartQ = `
SELECT id::text, user_id::text, created_at, updated_at
FROM carts
WHERE user_id = $1
`
	var cart domain.Cart
	if err := r.pool.QueryRow(ctx, cartQ, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const itemsQ = `
SELECT ci.id::text, ci.cart_id::text, ci.product_id::text, p.name, p.price::text, ci.quantity,
       (p.price * ci.quantity)::text, ci.created_at, ci.updated_at
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $1
ORDER BY ci.created_at ASC
`
	rows, err := r.pool.Query(ctx, itemsQ, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Total = decimal.Zero
	for rows.Next() {
		var item domain.CartItem
		var unitPrice, subtotal string
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.ProductName,
			&unitPrice,
			&item.Quantity,
			&subtotal,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("parse unit price %q: %w", unitPrice, err)
		}
		if item.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, fmt.Errorf("parse subtotal %q: %w", subtotal, err)
		}
		cart.Total = cart.Total.Add(item.Subtotal)
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *postgresRepo) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cartID, err := cartIDForUser(ctx, tx, userID)
	if err != nil {
		return err
	}

	// Adding an item the cart already holds bumps the quantity, capped so
	// repeated adds cannot run away.
	const q = `
INSERT INTO cart_items (cart_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (cart_id, product_id) DO UPDATE
SET quantity = LEAST(cart_items.quantity + EXCLUDED.quantity, $4), updated_at = now()
`
	if _, err := tx.Exec(ctx, q, cartID, productID, quantity, domain.MaxCartItemQuantity); err != nil {
		return err
	}
	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) SetItemQuantity(ctx context.Context, userID, productID string, quantity int) error {
	if quantity <= 0 {
		return r.RemoveItem(ctx, userID, productID)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cartID, err := cartIDForUser(ctx, tx, userID)
	if err != nil {
		return err
	}

	cmd, err := tx.Exec(ctx, `
UPDATE cart_items
SET quantity = $3, updated_at = now()
WHERE cart_id = $1 AND product_id = $2
`, cartID, productID, quantity)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) RemoveItem(ctx context.Context, userID, productID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cartID, err := cartIDForUser(ctx, tx, userID)
	if err != nil {
		return err
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) Clear(ctx context.Context, userID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cartID, err := cartIDForUser(ctx, tx, userID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) Total(ctx context.Context, userID string) (decimal.Decimal, error) {
	const q = `
SELECT COALESCE(SUM(p.price * ci.quantity), 0)::text
FROM carts c
LEFT JOIN cart_items ci ON ci.cart_id = c.id
LEFT JOIN products p ON p.id = ci.product_id
WHERE c.user_id = $1
`
	var total string
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	parsed, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse cart total %q: %w", total, err)
	}
	return parsed, nil
}

func cartIDForUser(ctx context.Context, tx pgx.Tx, userID string) (string, error) {
	var cartID string
	err := tx.QueryRow(ctx, `SELECT id::text FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return cartID, nil
}

func touchCart(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}
