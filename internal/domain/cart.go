package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxCartItemQuantity caps a single cart line.
const MaxCartItemQuantity = 1000

// Cart belongs to exactly one user and is created alongside the account.
type Cart struct {
	ID        string          `json:"id"`
	UserID    string          `json:"-"`
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CartItem is one (cart, product) line. Quantity is always >= 1 in storage;
// setting it to zero removes the row.
type CartItem struct {
	ID          string          `json:"id"`
	CartID      string          `json:"-"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
