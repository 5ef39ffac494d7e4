package admin

import (
	"context"
	"fmt"
	"time"

	"zaoconnect/internal/domain"
	analyticsrepo "zaoconnect/internal/repository/analytics"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	recentTransactionLimit = 20
	recentOrderLimit       = 20
)

type userRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
}

type productRepo interface {
	Count(ctx context.Context) (int, error)
}

type orderRepo interface {
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
	PaidRevenue(ctx context.Context) (decimal.Decimal, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
}

type cartRepo interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
}

type analyticsRepo interface {
	StatsSince(ctx context.Context, since time.Time) (*analyticsrepo.Stats, error)
	Recent(ctx context.Context, limit int) ([]domain.PaymentAnalytics, error)
}

// Service assembles the staff views. It holds no rules of its own beyond
// pagination; access control lives in the HTTP layer.
type Service struct {
	users     userRepo
	products  productRepo
	orders    orderRepo
	carts     cartRepo
	analytics analyticsRepo
}

func New(users userRepo, products productRepo, orders orderRepo, carts cartRepo, analytics analyticsRepo) *Service {
	return &Service{
		users:     users,
		products:  products,
		orders:    orders,
		carts:     carts,
		analytics: analytics,
	}
}

// Dashboard is the staff landing view: live table counts plus payment
// performance over the trailing week, month and quarter.
type Dashboard struct {
	TotalUsers     int                        `json:"total_users"`
	TotalProducts  int                        `json:"total_products"`
	TotalOrders    int                        `json:"total_orders"`
	PaidRevenue    decimal.Decimal            `json:"paid_revenue"`
	OrdersByStatus map[domain.OrderStatus]int `json:"orders_by_status"`

	Week    analyticsrepo.Stats `json:"last_7_days"`
	Month   analyticsrepo.Stats `json:"last_30_days"`
	Quarter analyticsrepo.Stats `json:"last_90_days"`

	RecentTransactions []domain.PaymentAnalytics `json:"recent_transactions"`
}

// UserDetail is the per-account staff view.
type UserDetail struct {
	User   domain.User    `json:"user"`
	Orders []domain.Order `json:"orders"`
	Cart   *domain.Cart   `json:"cart"`
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	products, err := s.products.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	byStatus, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	revenue, err := s.orders.PaidRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum paid revenue: %w", err)
	}

	d := &Dashboard{
		TotalUsers:     users,
		TotalProducts:  products,
		PaidRevenue:    revenue,
		OrdersByStatus: byStatus,
	}
	for _, n := range byStatus {
		d.TotalOrders += n
	}

	now := time.Now()
	windows := []struct {
		days int
		dst  *analyticsrepo.Stats
	}{
		{7, &d.Week},
		{30, &d.Month},
		{90, &d.Quarter},
	}
	for _, w := range windows {
		stats, err := s.analytics.StatsSince(ctx, now.AddDate(0, 0, -w.days))
		if err != nil {
			return nil, fmt.Errorf("payment stats for last %d days: %w", w.days, err)
		}
		*w.dst = *stats
	}

	recent, err := s.analytics.Recent(ctx, recentTransactionLimit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	d.RecentTransactions = recent
	return d, nil
}

func (s *Service) Users(ctx context.Context, page, limit int) ([]domain.User, error) {
	page, limit = normalizePage(page, limit)
	return s.users.List(ctx, limit, (page-1)*limit)
}

// UserDetail loads one account with its recent orders and current cart.
// Unknown ids surface as domain.ErrNotFound.
func (s *Service) UserDetail(ctx context.Context, id string) (*UserDetail, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, id, recentOrderLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("orders for user %s: %w", id, err)
	}
	cart, err := s.carts.GetByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cart for user %s: %w", id, err)
	}
	return &UserDetail{User: *u, Orders: orders, Cart: cart}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
