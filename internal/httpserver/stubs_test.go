package httpserver

import (
	"context"
	"io"
	"log"
	"testing"

	"zaoconnect/internal/domain"
	adminsvc "zaoconnect/internal/service/admin"
	checkoutsvc "zaoconnect/internal/service/checkout"
	contactsvc "zaoconnect/internal/service/contact"
	productsvc "zaoconnect/internal/service/product"
	usersvc "zaoconnect/internal/service/user"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubUserService struct {
	user        *domain.User
	registerErr error
	loginErr    error
	lookupErr   error
	updateErr   error
	resetErr    error
	confirmErr  error

	logoutCount    int
	resetRequested []string
}

func (s *stubUserService) Register(_ context.Context, _ usersvc.RegisterInput) (*domain.User, error) {
	return s.user, s.registerErr
}

func (s *stubUserService) Login(_ context.Context, _, _ string) (*domain.User, string, string, error) {
	return s.user, "access", "refresh", s.loginErr
}

func (s *stubUserService) LookupByToken(_ context.Context, _ string) (*domain.User, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	if s.user == nil {
		return nil, usersvc.ErrInvalidToken
	}
	return s.user, nil
}

func (s *stubUserService) Logout(_ context.Context, _ string) error {
	s.logoutCount++
	return nil
}

func (s *stubUserService) UpdateProfile(_ context.Context, _, _, _ string) (*domain.User, error) {
	return s.user, s.updateErr
}

func (s *stubUserService) RequestPasswordReset(_ context.Context, email string) error {
	s.resetRequested = append(s.resetRequested, email)
	return s.resetErr
}

func (s *stubUserService) ConfirmPasswordReset(_ context.Context, _, _, _ string) error {
	return s.confirmErr
}

func (s *stubUserService) AccessTTLSeconds() int { return 172800 }

type stubProductService struct {
	product *domain.Product
	list    []domain.Product
	err     error

	created []productsvc.Input
	deleted []string
}

func (s *stubProductService) PublicList(_ context.Context, _ string, _, _ int) ([]domain.Product, error) {
	return s.list, s.err
}

func (s *stubProductService) Get(_ context.Context, _ string, _ *domain.User) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.product == nil {
		return nil, domain.ErrNotFound
	}
	return s.product, nil
}

func (s *stubProductService) ListForSeller(_ context.Context, _ string, _, _ int) ([]domain.Product, error) {
	return s.list, s.err
}

func (s *stubProductService) Create(_ context.Context, _ *domain.User, in productsvc.Input) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, in)
	return s.product, nil
}

func (s *stubProductService) Update(_ context.Context, _ *domain.User, _ string, _ productsvc.Input) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func (s *stubProductService) Delete(_ context.Context, _ *domain.User, id string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type stubCartService struct {
	cart *domain.Cart
	err  error

	setCalls  []int
	cleared   int
	lastPID   string
	lastOwner string
}

func (s *stubCartService) Get(_ context.Context, _ string) (*domain.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) SetItem(_ context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastOwner, s.lastPID = userID, productID
	s.setCalls = append(s.setCalls, quantity)
	return s.cart, nil
}

func (s *stubCartService) Clear(_ context.Context, _ string) error {
	s.cleared++
	return s.err
}

type stubCheckoutService struct {
	result *checkoutsvc.InitiateResult
	order  *domain.Order
	orders []domain.Order
	err    error

	reconciled [][]byte
}

func (s *stubCheckoutService) Initiate(_ context.Context, _, _ string, _ decimal.Decimal) (*checkoutsvc.InitiateResult, error) {
	return s.result, s.err
}

func (s *stubCheckoutService) Reconcile(_ context.Context, payload []byte) {
	s.reconciled = append(s.reconciled, payload)
}

func (s *stubCheckoutService) Status(_ context.Context, _, _ string) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.order == nil {
		return nil, domain.ErrNotFound
	}
	return s.order, nil
}

func (s *stubCheckoutService) Orders(_ context.Context, _ string, _, _ int) ([]domain.Order, error) {
	return s.orders, s.err
}

type stubAdminService struct {
	dashboard *adminsvc.Dashboard
	users     []domain.User
	detail    *adminsvc.UserDetail
	err       error
}

func (s *stubAdminService) Dashboard(context.Context) (*adminsvc.Dashboard, error) {
	return s.dashboard, s.err
}

func (s *stubAdminService) Users(_ context.Context, _, _ int) ([]domain.User, error) {
	return s.users, s.err
}

func (s *stubAdminService) UserDetail(_ context.Context, _ string) (*adminsvc.UserDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.detail == nil {
		return nil, domain.ErrNotFound
	}
	return s.detail, nil
}

type stubContactService struct {
	message  *domain.ContactMessage
	messages []domain.ContactMessage
	err      error
}

func (s *stubContactService) Submit(_ context.Context, _ contactsvc.Input) (*domain.ContactMessage, error) {
	return s.message, s.err
}

func (s *stubContactService) Recent(_ context.Context, _, _ int) ([]domain.ContactMessage, error) {
	return s.messages, s.err
}

// defaultDeps returns a Deps where every service is a fresh zero stub.
// Tests overwrite the fields they care about.
func defaultDeps() Deps {
	return Deps{
		Users:    &stubUserService{},
		Products: &stubProductService{},
		Carts:    &stubCartService{},
		Checkout: &stubCheckoutService{},
		Admin:    &stubAdminService{},
		Contact:  &stubContactService{},
	}
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), nil, deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func buyer() *domain.User {
	return &domain.User{ID: "buyer-id", Email: "buyer@example.com", Role: domain.RoleBuyer}
}

func seller() *domain.User {
	return &domain.User{ID: "seller-id", Email: "seller@example.com", Role: domain.RoleSeller}
}

func staff() *domain.User {
	return &domain.User{ID: "staff-id", Email: "admin@zaoconnect.com", Role: domain.RoleBuyer, IsStaff: true}
}
