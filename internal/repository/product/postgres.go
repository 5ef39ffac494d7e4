package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"zaoconnect/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `id::text, owner_id::text, name, COALESCE(description, ''), price::text, stock, is_active, COALESCE(image, ''), created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	const q = `
INSERT INTO products (owner_id, name, description, price, stock, image)
VALUES ($1, $2, $3, $4::numeric, $5, $6)
RETURNING ` + productColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q, in.OwnerID, in.Name, in.Description, in.Price.String(), in.Stock, in.Image))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("product repo: create name=%q error=%v", in.Name, err)
		return nil, err
	}
	r.logger.Printf("product repo: created id=%s name=%q", p.ID, p.Name)
	return p, nil
}

// Upsert inserts a product or, when the name is already taken, refreshes
// the existing row in place. The existing row keeps its owner.
func (r *postgresRepo) Upsert(ctx context.Context, in CreateInput) (*domain.Product, error) {
	const q = `
INSERT INTO products (owner_id, name, description, price, stock, image)
VALUES ($1, $2, $3, $4::numeric, $5, $6)
ON CONFLICT (name) DO UPDATE
SET description = EXCLUDED.description,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock,
    image = EXCLUDED.image,
    updated_at = now()
RETURNING ` + productColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q, in.OwnerID, in.Name, in.Description, in.Price.String(), in.Stock, in.Image))
	if err != nil {
		r.logger.Printf("product repo: upsert name=%q error=%v", in.Name, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Update(ctx context.Context, id string, in UpdateInput) (*domain.Product, error) {
	const q = `
UPDATE products
SET name = $2, description = $3, price = $4::numeric, stock = $5, is_active = $6, image = $7, updated_at = now()
WHERE id = $1
RETURNING ` + productColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id, in.Name, in.Description, in.Price.String(), in.Stock, in.IsActive, in.Image))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("product repo: update id=%s error=%v", id, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Printf("product repo: delete id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("product repo: deleted id=%s", id)
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	var conds []string
	var args []interface{}
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if f.ActiveOnly {
		conds = append(conds, "is_active")
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var price string
	if err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Description,
		&price,
		&p.Stock,
		&p.IsActive,
		&p.Image,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse product price %q: %w", price, err)
	}
	p.Price = parsed
	return &p, nil
}
