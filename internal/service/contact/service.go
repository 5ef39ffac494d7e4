package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zaoconnect/internal/domain"
)

const (
	maxNameLength    = 100
	maxMessageLength = 2000
	defaultPageSize  = 20
)

type contactRepo interface {
	Create(ctx context.Context, name, email, message string) (*domain.ContactMessage, error)
	List(ctx context.Context, limit, offset int) ([]domain.ContactMessage, error)
}

// Service accepts contact form submissions and lets staff read them back.
type Service struct {
	repo contactRepo
}

func New(repo contactRepo) *Service {
	return &Service{repo: repo}
}

// Input mirrors the contact form payload.
type Input struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (s *Service) Submit(ctx context.Context, in Input) (*domain.ContactMessage, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.New("name required")
	}
	if len(name) > maxNameLength {
		return nil, fmt.Errorf("name must be at most %d characters", maxNameLength)
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("valid email required")
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, errors.New("message required")
	}
	if len(message) > maxMessageLength {
		return nil, fmt.Errorf("message must be at most %d characters", maxMessageLength)
	}
	return s.repo.Create(ctx, name, email, message)
}

// Recent lists stored messages for staff, newest first.
func (s *Service) Recent(ctx context.Context, limit, offset int) ([]domain.ContactMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}
