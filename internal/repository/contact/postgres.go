package contact

import (
	"context"

	"zaoconnect/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, name, email, message string) (*domain.ContactMessage, error) {
	const q = `
INSERT INTO contact_messages (name, email, message)
VALUES ($1, $2, $3)
RETURNING id::text, created_at
`
	msg := domain.ContactMessage{Name: name, Email: email, Message: message}
	if err := r.pool.QueryRow(ctx, q, name, email, message).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *postgresRepo) List(ctx context.Context, limit, offset int) ([]domain.ContactMessage, error) {
	const q = `
SELECT id::text, name, email, message, created_at
FROM contact_messages
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ContactMessage
	for rows.Next() {
		var m domain.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
