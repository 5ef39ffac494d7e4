package user

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"zaoconnect/internal/domain"
	"zaoconnect/internal/mpesa"
	"zaoconnect/internal/notify"
	userrepo "zaoconnect/internal/repository/user"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidResetCode covers unknown, expired and already-used codes so
	// the caller cannot probe which one it was.
	ErrInvalidResetCode = errors.New("invalid or expired reset code")
)

const (
	resetCodeTTL    = 15 * time.Minute
	resetCodeDigits = 1000000
)

type userRepo interface {
	Create(ctx context.Context, in userrepo.CreateInput) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID, farmName, phoneNumber string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	CreatePasswordReset(ctx context.Context, userID, code string, expiresAt time.Time) (*userrepo.PasswordReset, error)
	GetPasswordReset(ctx context.Context, userID, code string) (*userrepo.PasswordReset, error)
	MarkPasswordResetVerified(ctx context.Context, id string) error
	DeletePasswordResets(ctx context.Context, userID string) error
}

// Service handles registration, login and the password reset flow.
type Service struct {
	repo        userRepo
	tokens      *tokenManager
	notifier    notify.Notifier
	accessTTL   time.Duration
	refreshTTL  time.Duration
	passwordMin int
	logger      *log.Logger
}

func New(repo userRepo, tokens tokenStore, notifier notify.Notifier, logger *log.Logger) *Service {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		notifier:    notifier,
		accessTTL:   48 * time.Hour,
		refreshTTL:  30 * 24 * time.Hour,
		passwordMin: 6,
		logger:      logger,
	}
}

// RegisterInput captures fields expected by the registration endpoint.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Role        string `json:"role"`
	FarmName    string `json:"farm_name"`
	PhoneNumber string `json:"phone_number"`
}

// Register creates the account. The user, profile and cart rows come into
// existence together or not at all.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("valid email required")
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, err
	}
	role := domain.Role(strings.TrimSpace(strings.ToLower(in.Role)))
	if role == "" {
		role = domain.RoleBuyer
	}
	if !role.Valid() {
		return nil, errors.New("role must be buyer or seller")
	}
	phone := strings.TrimSpace(in.PhoneNumber)
	if phone != "" {
		normalized, err := mpesa.NormalizePhone(phone)
		if err != nil {
			return nil, err
		}
		phone = normalized
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, userrepo.CreateInput{
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         role,
		FarmName:     strings.TrimSpace(in.FarmName),
		PhoneNumber:  phone,
	})
}

// Login validates credentials and returns issued tokens plus the user.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	access, err := s.tokens.Issue(ctx, u.ID, "access", s.accessTTL)
	if err != nil {
		return nil, "", "", err
	}
	refresh, err := s.tokens.Issue(ctx, u.ID, "refresh", s.refreshTTL)
	if err != nil {
		return nil, "", "", err
	}
	return u, access, refresh, nil
}

// LookupByToken returns the user bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.User, error) {
	userID, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// Logout revokes the access token. Revoking a token that is already gone is
// not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// UpdateProfile stores the seller's farm name and the default M-Pesa phone
// number, then returns the fresh user.
func (s *Service) UpdateProfile(ctx context.Context, userID, farmName, phoneNumber string) (*domain.User, error) {
	phone := strings.TrimSpace(phoneNumber)
	if phone != "" {
		normalized, err := mpesa.NormalizePhone(phone)
		if err != nil {
			return nil, err
		}
		phone = normalized
	}
	if err := s.repo.UpdateProfile(ctx, userID, strings.TrimSpace(farmName), phone); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID)
}

// RequestPasswordReset emails a fresh 6 digit code to the account, replacing
// any earlier codes. Unknown emails complete silently so the endpoint does
// not reveal which accounts exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Printf("user: password reset requested for unknown email")
			return nil
		}
		return err
	}

	code, err := resetCode()
	if err != nil {
		return err
	}
	if err := s.repo.DeletePasswordResets(ctx, u.ID); err != nil {
		return err
	}
	if _, err := s.repo.CreatePasswordReset(ctx, u.ID, code, time.Now().Add(resetCodeTTL)); err != nil {
		return err
	}
	if err := s.notifier.PasswordResetCode(ctx, u, code); err != nil {
		return fmt.Errorf("send reset code: %w", err)
	}
	return nil
}

// ConfirmPasswordReset consumes a code and sets the new password. All tokens
// for the account are revoked on success.
func (s *Service) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if err := validatePassword(strings.TrimSpace(newPassword), s.passwordMin); err != nil {
		return err
	}
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return err
	}

	pr, err := s.repo.GetPasswordReset(ctx, u.ID, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return err
	}
	if pr.Verified || time.Now().After(pr.ExpiresAt) {
		return ErrInvalidResetCode
	}
	if err := s.repo.MarkPasswordResetVerified(ctx, pr.ID); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(newPassword)), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, u.ID, string(hashed)); err != nil {
		return err
	}
	if err := s.tokens.RevokeAll(ctx, u.ID); err != nil {
		s.logger.Printf("user: revoking tokens for %s after password reset: %v", u.ID, err)
	}
	return nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func validatePassword(p string, min int) error {
	if len(strings.TrimSpace(p)) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	return nil
}

func resetCode() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", binary.BigEndian.Uint32(buf[:])%resetCodeDigits), nil
}
