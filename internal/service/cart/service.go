package cart

import (
	"context"
	"errors"
	"fmt"

	"zaoconnect/internal/domain"
)

type cartRepo interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	SetItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service guards what goes into a cart. The cart row itself always exists;
// it is created together with the account.
type Service struct {
	repo     cartRepo
	products productRepo
}

func New(repo cartRepo, products productRepo) *Service {
	return &Service{repo: repo, products: products}
}

// Get returns the caller's cart with product names, per line subtotals and
// the running total.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.repo.GetByUser(ctx, userID)
}

// SetItem pins a product line to the given quantity. Zero removes the line.
// The product must be live and hold enough stock.
func (s *Service) SetItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, errors.New("quantity must not be negative")
	}
	if quantity > domain.MaxCartItemQuantity {
		return nil, fmt.Errorf("quantity must be at most %d", domain.MaxCartItemQuantity)
	}
	if quantity == 0 {
		if err := s.repo.RemoveItem(ctx, userID, productID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return s.repo.GetByUser(ctx, userID)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, errors.New("product is not available")
	}
	if product.Stock < quantity {
		return nil, fmt.Errorf("only %d in stock", product.Stock)
	}

	if err := s.repo.SetItemQuantity(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}
	return s.repo.GetByUser(ctx, userID)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}
