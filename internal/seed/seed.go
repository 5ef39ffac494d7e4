package seed

import (
	"context"
	"errors"
	"fmt"

	"zaoconnect/internal/domain"
	cartrepo "zaoconnect/internal/repository/cart"
	productrepo "zaoconnect/internal/repository/product"
	userrepo "zaoconnect/internal/repository/user"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// demoPassword is shared by every seeded account.
const demoPassword = "password123"

type productSeed struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Image       string
}

// Apply inserts demo accounts and a starter catalog for manual testing.
// It is idempotent: accounts are matched by email, products by name, and
// the demo cart is rebuilt from scratch on every run.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	users := userrepo.NewPostgres(pool)
	products := productrepo.NewPostgres(pool, nil)
	carts := cartrepo.NewPostgres(pool)

	admin, err := ensureUser(ctx, users, userrepo.CreateInput{
		Email:     "admin@zaoconnect.com",
		FirstName: "Admin",
		LastName:  "User",
		Role:      domain.RoleBuyer,
	})
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if _, err := pool.Exec(ctx, `UPDATE users SET is_staff = TRUE WHERE id = $1`, admin.ID); err != nil {
		return fmt.Errorf("promote admin: %w", err)
	}

	seller, err := ensureUser(ctx, users, userrepo.CreateInput{
		Email:       "seller@zaoconnect.com",
		FirstName:   "Wanjiku",
		LastName:    "Kamau",
		Role:        domain.RoleSeller,
		FarmName:    "Green Valley Farm",
		PhoneNumber: "254712345678",
	})
	if err != nil {
		return fmt.Errorf("ensure seller: %w", err)
	}

	buyer, err := ensureUser(ctx, users, userrepo.CreateInput{
		Email:       "buyer@zaoconnect.com",
		FirstName:   "Otieno",
		LastName:    "Odhiambo",
		Role:        domain.RoleBuyer,
		PhoneNumber: "254723456789",
	})
	if err != nil {
		return fmt.Errorf("ensure buyer: %w", err)
	}

	catalog := []productSeed{
		{
			Name:        "Maize 90kg Bag",
			Description: "Dry long-rain maize, cleaned and graded",
			Price:       decimal.RequireFromString("4500.00"),
			Stock:       120,
			Image:       "products/maize-90kg.jpg",
		},
		{
			Name:        "Beans 50kg Bag",
			Description: "Rosecoco beans sorted by hand",
			Price:       decimal.RequireFromString("7200.00"),
			Stock:       80,
			Image:       "products/beans-50kg.jpg",
		},
		{
			Name:        "Fresh Tomatoes Crate",
			Description: "Field-ripened tomatoes, roughly 60kg per crate",
			Price:       decimal.RequireFromString("1800.50"),
			Stock:       45,
			Image:       "products/tomatoes-crate.jpg",
		},
		{
			Name:        "Irish Potatoes 110kg Bag",
			Description: "Shangi potatoes straight from Nyandarua",
			Price:       decimal.RequireFromString("3200.00"),
			Stock:       60,
			Image:       "products/potatoes-110kg.jpg",
		},
		{
			Name:        "Hass Avocado Crate",
			Description: "Export-grade Hass, 90 count per crate",
			Price:       decimal.RequireFromString("2300.00"),
			Stock:       35,
			Image:       "products/avocado-crate.jpg",
		},
		{
			Name:        "Free Range Eggs Tray",
			Description: "Tray of 30 kienyeji eggs",
			Price:       decimal.RequireFromString("420.00"),
			Stock:       150,
			Image:       "products/eggs-tray.jpg",
		},
	}

	byName := make(map[string]string, len(catalog))
	for _, p := range catalog {
		created, err := products.Upsert(ctx, productrepo.CreateInput{
			OwnerID:     &seller.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			Image:       p.Image,
		})
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
		byName[created.Name] = created.ID
	}

	// The buyer starts with a small cart so checkout can be tried
	// immediately after seeding.
	if err := carts.Clear(ctx, buyer.ID); err != nil {
		return fmt.Errorf("clear demo cart: %w", err)
	}
	if err := carts.AddItem(ctx, buyer.ID, byName["Maize 90kg Bag"], 2); err != nil {
		return fmt.Errorf("seed cart maize: %w", err)
	}
	if err := carts.AddItem(ctx, buyer.ID, byName["Free Range Eggs Tray"], 1); err != nil {
		return fmt.Errorf("seed cart eggs: %w", err)
	}

	return nil
}

// ensureUser registers an account or, if the email is taken, loads the
// existing one. Registration creates the profile and cart alongside the
// user row.
func ensureUser(ctx context.Context, users userrepo.Repository, in userrepo.CreateInput) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	in.PasswordHash = string(hash)

	u, err := users.Create(ctx, in)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, domain.ErrAlreadyExists) {
		return users.GetByEmail(ctx, in.Email)
	}
	return nil, err
}
