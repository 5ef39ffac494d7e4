package contact

import (
	"context"

	"zaoconnect/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, name, email, message string) (*domain.ContactMessage, error)
	List(ctx context.Context, limit, offset int) ([]domain.ContactMessage, error)
}
