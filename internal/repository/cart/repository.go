package cart

import (
	"context"

	"zaoconnect/internal/domain"
	"github.com/shopspring/decimal"
)

// Repository manages the one cart each user owns. Carts are created by the
// user repository at registration time; every method here addresses the
// cart through its owner.
type Repository interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	SetItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
	Total(ctx context.Context, userID string) (decimal.Decimal, error)
}
