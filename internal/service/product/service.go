package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zaoconnect/internal/domain"
	productrepo "zaoconnect/internal/repository/product"
	"github.com/shopspring/decimal"
)

const (
	maxNameLength        = 150
	maxDescriptionLength = 5000

	// DefaultPageSize matches the storefront grid.
	DefaultPageSize = 12
	maxPageSize     = 100
)

type productRepo interface {
	Create(ctx context.Context, in productrepo.CreateInput) (*domain.Product, error)
	Update(ctx context.Context, id string, in productrepo.UpdateInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, error)
}

// Service owns catalog rules: what the public sees and what sellers may
// touch. Role gating happens at the HTTP layer; ownership is enforced here.
type Service struct {
	repo productRepo
}

func New(repo productRepo) *Service {
	return &Service{repo: repo}
}

// Input carries the seller-editable fields of a product.
type Input struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    *bool           `json:"is_active,omitempty"`
	Image       string          `json:"image"`
}

func (in Input) validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return errors.New("name required")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("name must be at most %d characters", maxNameLength)
	}
	if len(in.Description) > maxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", maxDescriptionLength)
	}
	if in.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	if in.Stock < 0 {
		return errors.New("stock must not be negative")
	}
	return nil
}

// PublicList returns one storefront catalog page: active products, newest
// first, optionally filtered by a name search.
func (s *Service) PublicList(ctx context.Context, search string, page, limit int) ([]domain.Product, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	return s.repo.List(ctx, productrepo.ListFilter{
		Search:     strings.TrimSpace(search),
		ActiveOnly: true,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
}

// Get returns one product. Inactive products stay hidden unless the viewer
// owns them or is staff.
func (s *Service) Get(ctx context.Context, id string, viewer *domain.User) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive && !canManage(viewer, p) {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// ListForSeller returns the seller's own catalog including inactive entries.
func (s *Service) ListForSeller(ctx context.Context, ownerID string, limit, offset int) ([]domain.Product, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, productrepo.ListFilter{
		OwnerID: ownerID,
		Limit:   limit,
		Offset:  offset,
	})
}

// Create adds a product owned by the acting seller. New products go live
// immediately unless the input says otherwise.
func (s *Service) Create(ctx context.Context, owner *domain.User, in Input) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	ownerID := owner.ID
	p, err := s.repo.Create(ctx, productrepo.CreateInput{
		OwnerID:     &ownerID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Image:       strings.TrimSpace(in.Image),
	})
	if err != nil {
		return nil, err
	}
	if in.IsActive != nil && !*in.IsActive {
		return s.repo.Update(ctx, p.ID, productrepo.UpdateInput{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			IsActive:    false,
			Image:       p.Image,
		})
	}
	return p, nil
}

// Update replaces a product's fields. Sellers can only touch their own
// products; staff can touch any. A missing IsActive keeps the current flag.
func (s *Service) Update(ctx context.Context, actor *domain.User, id string, in Input) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, existing) {
		return nil, domain.ErrNotFound
	}
	active := existing.IsActive
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return s.repo.Update(ctx, id, productrepo.UpdateInput{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    active,
		Image:       strings.TrimSpace(in.Image),
	})
}

// Delete removes a product under the same ownership rules as Update.
func (s *Service) Delete(ctx context.Context, actor *domain.User, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, existing) {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func canManage(u *domain.User, p *domain.Product) bool {
	if u == nil {
		return false
	}
	if u.IsStaff {
		return true
	}
	return p.OwnerID != nil && *p.OwnerID == u.ID
}
