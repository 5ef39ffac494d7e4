package product

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"zaoconnect/internal/domain"
	productrepo "zaoconnect/internal/repository/product"
	"github.com/shopspring/decimal"
)

type fakeProductRepo struct {
	byID map[string]*domain.Product
	seq  int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{byID: map[string]*domain.Product{}}
}

func (f *fakeProductRepo) Create(_ context.Context, in productrepo.CreateInput) (*domain.Product, error) {
	for _, p := range f.byID {
		if p.Name == in.Name {
			return nil, domain.ErrAlreadyExists
		}
	}
	f.seq++
	p := &domain.Product{
		ID:          fmt.Sprintf("prod-%d", f.seq),
		OwnerID:     in.OwnerID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    true,
		Image:       in.Image,
		CreatedAt:   time.Unix(int64(f.seq), 0),
	}
	f.byID[p.ID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) Update(_ context.Context, id string, in productrepo.UpdateInput) (*domain.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.IsActive = in.IsActive
	p.Image = in.Image
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) List(_ context.Context, filter productrepo.ListFilter) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range f.byID {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.OwnerID != "" && (p.OwnerID == nil || *p.OwnerID != filter.OwnerID) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func seller(id string) *domain.User {
	return &domain.User{ID: id, Role: domain.RoleSeller}
}

func staff() *domain.User {
	return &domain.User{ID: "staff-1", Role: domain.RoleBuyer, IsStaff: true}
}

func validInput(name string) Input {
	return Input{
		Name:  name,
		Price: decimal.RequireFromString("100.50"),
		Stock: 10,
	}
}

func TestCreateAndPublicList(t *testing.T) {
	ctx := context.Background()
	repo := newFakeProductRepo()
	svc := New(repo)

	created, err := svc.Create(ctx, seller("seller-1"), validInput("Maize 90kg"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.OwnerID == nil || *created.OwnerID != "seller-1" {
		t.Fatalf("owner not set: %+v", created)
	}
	if !created.IsActive {
		t.Fatalf("new products should be active")
	}

	inactive := false
	hidden, err := svc.Create(ctx, seller("seller-1"), Input{
		Name:     "Hidden Beans",
		Price:    decimal.NewFromInt(50),
		Stock:    5,
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("Create hidden: %v", err)
	}
	if hidden.IsActive {
		t.Fatalf("expected inactive product")
	}

	list, err := svc.PublicList(ctx, "", 1, 0)
	if err != nil {
		t.Fatalf("PublicList: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("public list must hide inactive products, got %+v", list)
	}

	list, err = svc.PublicList(ctx, "maize", 1, 12)
	if err != nil {
		t.Fatalf("PublicList search: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected search hit, got %d", len(list))
	}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := New(newFakeProductRepo())

	cases := map[string]Input{
		"empty name":     {Price: decimal.NewFromInt(1), Stock: 1},
		"long name":      validInput(strings.Repeat("x", maxNameLength+1)),
		"negative price": {Name: "ok", Price: decimal.NewFromInt(-1)},
		"negative stock": {Name: "ok", Price: decimal.NewFromInt(1), Stock: -1},
	}
	for name, in := range cases {
		if _, err := svc.Create(ctx, seller("seller-1"), in); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestGetHidesInactiveFromPublic(t *testing.T) {
	ctx := context.Background()
	repo := newFakeProductRepo()
	svc := New(repo)

	owner := seller("seller-1")
	inactive := false
	p, err := svc.Create(ctx, owner, Input{Name: "Beans", Price: decimal.NewFromInt(50), Stock: 5, IsActive: &inactive})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(ctx, p.ID, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("anonymous viewer must not see inactive product, got %v", err)
	}
	if _, err := svc.Get(ctx, p.ID, seller("other")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("other seller must not see inactive product, got %v", err)
	}
	if _, err := svc.Get(ctx, p.ID, owner); err != nil {
		t.Fatalf("owner should see own inactive product: %v", err)
	}
	if _, err := svc.Get(ctx, p.ID, staff()); err != nil {
		t.Fatalf("staff should see inactive product: %v", err)
	}
}

func TestUpdateOwnership(t *testing.T) {
	ctx := context.Background()
	repo := newFakeProductRepo()
	svc := New(repo)

	owner := seller("seller-1")
	p, err := svc.Create(ctx, owner, validInput("Maize 90kg"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	in := validInput("Maize 90kg bag")
	if _, err := svc.Update(ctx, seller("intruder"), p.ID, in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign seller must not update, got %v", err)
	}

	updated, err := svc.Update(ctx, owner, p.ID, in)
	if err != nil {
		t.Fatalf("Update by owner: %v", err)
	}
	if updated.Name != "Maize 90kg bag" {
		t.Fatalf("unexpected name %q", updated.Name)
	}
	if !updated.IsActive {
		t.Fatalf("omitted is_active must keep the current flag")
	}

	if _, err := svc.Update(ctx, staff(), p.ID, validInput("Staff edit")); err != nil {
		t.Fatalf("staff update: %v", err)
	}
}

func TestDeleteOwnership(t *testing.T) {
	ctx := context.Background()
	repo := newFakeProductRepo()
	svc := New(repo)

	owner := seller("seller-1")
	p, err := svc.Create(ctx, owner, validInput("Maize 90kg"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, seller("intruder"), p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign seller must not delete, got %v", err)
	}
	if err := svc.Delete(ctx, owner, p.ID); err != nil {
		t.Fatalf("Delete by owner: %v", err)
	}
	if _, err := repo.GetByID(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("product still present after delete")
	}
}

func TestListForSeller(t *testing.T) {
	ctx := context.Background()
	repo := newFakeProductRepo()
	svc := New(repo)

	mine := seller("seller-1")
	if _, err := svc.Create(ctx, mine, validInput("Maize 90kg")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	inactive := false
	if _, err := svc.Create(ctx, mine, Input{Name: "Old stock", Price: decimal.NewFromInt(10), Stock: 0, IsActive: &inactive}); err != nil {
		t.Fatalf("Create inactive: %v", err)
	}
	if _, err := svc.Create(ctx, seller("seller-2"), validInput("Beans 50kg")); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	list, err := svc.ListForSeller(ctx, "seller-1", 0, 0)
	if err != nil {
		t.Fatalf("ListForSeller: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected both own products including inactive, got %d", len(list))
	}
}
