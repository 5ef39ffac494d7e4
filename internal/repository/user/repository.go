package user

import (
	"context"
	"time"

	"zaoconnect/internal/domain"
)

// CreateInput collects everything needed to register an account. The
// repository creates the user, profile and cart as one transaction.
type CreateInput struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         domain.Role
	FarmName     string
	PhoneNumber  string
}

// PasswordReset is a short-lived verification code for the reset flow.
type PasswordReset struct {
	ID        string
	UserID    string
	Code      string
	Verified  bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
	UpdateProfile(ctx context.Context, userID, farmName, phoneNumber string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	CreatePasswordReset(ctx context.Context, userID, code string, expiresAt time.Time) (*PasswordReset, error)
	GetPasswordReset(ctx context.Context, userID, code string) (*PasswordReset, error)
	MarkPasswordResetVerified(ctx context.Context, id string) error
	DeletePasswordResets(ctx context.Context, userID string) error
}
