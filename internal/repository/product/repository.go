package product

import (
	"context"

	"zaoconnect/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateInput carries a new catalog entry. OwnerID is nil for house
// products seeded without a seller.
type CreateInput struct {
	OwnerID     *string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Image       string
}

// UpdateInput replaces the mutable fields of an existing product.
type UpdateInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	IsActive    bool
	Image       string
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	OwnerID    string
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*domain.Product, error)
	Upsert(ctx context.Context, in CreateInput) (*domain.Product, error)
	Update(ctx context.Context, id string, in UpdateInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, f ListFilter) ([]domain.Product, error)
	Count(ctx context.Context) (int, error)
}
