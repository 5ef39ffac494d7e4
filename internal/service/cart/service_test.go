package cart

import (
	"context"
	"strings"
	"testing"

	"zaoconnect/internal/domain"
	"github.com/shopspring/decimal"
)

type memCartRepo struct {
	items map[string]int // productID -> quantity, single test user
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{items: map[string]int{}}
}

func (m *memCartRepo) GetByUser(_ context.Context, userID string) (*domain.Cart, error) {
	cart := &domain.Cart{ID: "cart-1", UserID: userID, Total: decimal.Zero}
	for productID, qty := range m.items {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: productID,
			Quantity:  qty,
		})
	}
	return cart, nil
}

func (m *memCartRepo) SetItemQuantity(_ context.Context, _, productID string, quantity int) error {
	m.items[productID] = quantity
	return nil
}

func (m *memCartRepo) RemoveItem(_ context.Context, _, productID string) error {
	if _, ok := m.items[productID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, productID)
	return nil
}

func (m *memCartRepo) Clear(_ context.Context, _ string) error {
	m.items = map[string]int{}
	return nil
}

type stubProducts struct {
	byID map[string]*domain.Product
}

func (s *stubProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func newTestService() (*Service, *memCartRepo) {
	repo := newMemCartRepo()
	products := &stubProducts{byID: map[string]*domain.Product{
		"maize": {ID: "maize", Name: "Maize 90kg", Price: decimal.RequireFromString("100.50"), Stock: 40, IsActive: true},
		"beans": {ID: "beans", Name: "Beans 50kg", Price: decimal.RequireFromString("200.25"), Stock: 3, IsActive: true},
		"retired": {ID: "retired", Name: "Old stock", Price: decimal.NewFromInt(10), Stock: 100},
	}}
	return New(repo, products), repo
}

func TestSetItem(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	cart, err := svc.SetItem(ctx, "user-1", "maize", 2)
	if err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	if len(cart.Items) != 1 || repo.items["maize"] != 2 {
		t.Fatalf("unexpected cart %+v", cart.Items)
	}

	// Setting again replaces the quantity instead of adding to it.
	if _, err := svc.SetItem(ctx, "user-1", "maize", 5); err != nil {
		t.Fatalf("SetItem replace: %v", err)
	}
	if repo.items["maize"] != 5 {
		t.Fatalf("expected quantity 5, got %d", repo.items["maize"])
	}

	// Zero removes the line, even when it never existed.
	if _, err := svc.SetItem(ctx, "user-1", "maize", 0); err != nil {
		t.Fatalf("SetItem zero: %v", err)
	}
	if _, ok := repo.items["maize"]; ok {
		t.Fatalf("line should be removed")
	}
	if _, err := svc.SetItem(ctx, "user-1", "beans", 0); err != nil {
		t.Fatalf("zeroing an absent line must succeed: %v", err)
	}
}

func TestSetItemValidation(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	if _, err := svc.SetItem(ctx, "user-1", "maize", -1); err == nil {
		t.Fatalf("expected error for negative quantity")
	}
	if _, err := svc.SetItem(ctx, "user-1", "maize", domain.MaxCartItemQuantity+1); err == nil {
		t.Fatalf("expected error above the quantity cap")
	}
	if _, err := svc.SetItem(ctx, "user-1", "ghost", 1); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected product not found, got %v", err)
	}
	if _, err := svc.SetItem(ctx, "user-1", "retired", 1); err == nil || !strings.Contains(err.Error(), "not available") {
		t.Fatalf("expected inactive product rejection, got %v", err)
	}
	if _, err := svc.SetItem(ctx, "user-1", "beans", 4); err == nil || !strings.Contains(err.Error(), "in stock") {
		t.Fatalf("expected stock rejection, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatalf("rejected updates must not touch the cart")
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	if _, err := svc.SetItem(ctx, "user-1", "maize", 2); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	if err := svc.Clear(ctx, "user-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatalf("cart should be empty")
	}
}
