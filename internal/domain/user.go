package domain

import "time"

// Role distinguishes buyers from sellers. Staff is an orthogonal flag so a
// seller account can also carry staff rights.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// User is a registered account. Email doubles as the login name.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Role         Role      `json:"role"`
	IsStaff      bool      `json:"is_staff"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile stores the per-user fields that are not part of the credential
// record: the seller's farm name and the M-Pesa phone number. It is created
// in the same transaction as the User and Cart.
type Profile struct {
	UserID      string    `json:"-"`
	FarmName    string    `json:"farm_name,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	UpdatedAt   time.Time `json:"-"`
}
