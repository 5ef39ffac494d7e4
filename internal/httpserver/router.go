package httpserver

import (
	"context"
	"errors"
	"log"
	"strconv"

	"zaoconnect/internal/cache"
	"zaoconnect/internal/domain"
	adminsvc "zaoconnect/internal/service/admin"
	checkoutsvc "zaoconnect/internal/service/checkout"
	contactsvc "zaoconnect/internal/service/contact"
	productsvc "zaoconnect/internal/service/product"
	usersvc "zaoconnect/internal/service/user"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type userService interface {
	Register(ctx context.Context, in usersvc.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, userID, farmName, phoneNumber string) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error
	AccessTTLSeconds() int
}

type productService interface {
	PublicList(ctx context.Context, search string, page, limit int) ([]domain.Product, error)
	Get(ctx context.Context, id string, viewer *domain.User) (*domain.Product, error)
	ListForSeller(ctx context.Context, ownerID string, limit, offset int) ([]domain.Product, error)
	Create(ctx context.Context, owner *domain.User, in productsvc.Input) (*domain.Product, error)
	Update(ctx context.Context, actor *domain.User, id string, in productsvc.Input) (*domain.Product, error)
	Delete(ctx context.Context, actor *domain.User, id string) error
}

type cartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	SetItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type checkoutService interface {
	Initiate(ctx context.Context, userID, phone string, amount decimal.Decimal) (*checkoutsvc.InitiateResult, error)
	Reconcile(ctx context.Context, payload []byte)
	Status(ctx context.Context, userID, checkoutRequestID string) (*domain.Order, error)
	Orders(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
}

type adminService interface {
	Dashboard(ctx context.Context) (*adminsvc.Dashboard, error)
	Users(ctx context.Context, page, limit int) ([]domain.User, error)
	UserDetail(ctx context.Context, id string) (*adminsvc.UserDetail, error)
}

type contactService interface {
	Submit(ctx context.Context, in contactsvc.Input) (*domain.ContactMessage, error)
	Recent(ctx context.Context, limit, offset int) ([]domain.ContactMessage, error)
}

// Deps carries the service layer into the router. Limiter may stay nil;
// checkout initiation then runs unthrottled.
type Deps struct {
	Users    userService
	Products productService
	Carts    cartService
	Checkout checkoutService
	Admin    adminService
	Contact  contactService

	Limiter     *cache.RateLimiter
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.Users == nil:
		return errors.New("users service is required")
	case d.Products == nil:
		return errors.New("products service is required")
	case d.Carts == nil:
		return errors.New("carts service is required")
	case d.Checkout == nil:
		return errors.New("checkout service is required")
	case d.Admin == nil:
		return errors.New("admin service is required")
	case d.Contact == nil:
		return errors.New("contact service is required")
	}
	return nil
}

type handlers struct {
	users    userService
	products productService
	carts    cartService
	checkout checkoutService
	admin    adminService
	contact  contactService
	logger   *log.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(requestID(), cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{
		users:    deps.Users,
		products: deps.Products,
		carts:    deps.Carts,
		checkout: deps.Checkout,
		admin:    deps.Admin,
		contact:  deps.Contact,
		logger:   logger,
	}

	api := router.Group("/api")
	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)
	api.POST("/auth/forgot-password", h.forgotPassword)
	api.POST("/auth/reset-password", h.resetPassword)
	api.POST("/contact", h.submitContact)

	// The provider posts here; it never carries our bearer tokens.
	api.POST("/payments/callback", h.paymentCallback)

	public := api.Group("", optionalAuth(deps.Users))
	public.GET("/products", h.listProducts)
	public.GET("/products/:id", h.getProduct)

	authed := api.Group("", requireAuth(deps.Users))
	authed.POST("/auth/logout", h.logout)
	authed.GET("/me", h.me)
	authed.PUT("/me", h.updateMe)

	authed.GET("/seller/products", h.sellerProducts)
	authed.POST("/seller/products", h.createProduct)
	authed.PUT("/seller/products/:id", h.updateProduct)
	authed.DELETE("/seller/products/:id", h.deleteProduct)

	authed.GET("/cart", h.getCart)
	authed.POST("/cart/items", h.setCartItem)
	authed.POST("/cart/clear", h.clearCart)

	authed.POST("/checkout/initiate", rateLimit(deps.Limiter), h.initiateCheckout)
	authed.GET("/checkout/status/:checkout_request_id", h.checkoutStatus)
	authed.GET("/orders", h.listOrders)

	authed.GET("/admin/dashboard", h.adminDashboard)
	authed.GET("/admin/users", h.adminUsers)
	authed.GET("/admin/users/:id", h.adminUserDetail)
	authed.GET("/admin/messages", h.adminMessages)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-ID")
	return cfg
}

// pageQuery reads page/limit query parameters. Bad values fall through to
// the service-level defaults.
func pageQuery(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page"))
	limit, _ = strconv.Atoi(c.Query("limit"))
	if page < 1 {
		page = 1
	}
	return page, limit
}
