package notify

import (
	"context"

	"zaoconnect/internal/domain"
)

// Notifier delivers the customer-facing messages the payment and account
// flows produce. Failures must never block the flow that triggered them;
// callers treat every method as best effort.
type Notifier interface {
	PaymentSucceeded(ctx context.Context, user *domain.User, order *domain.Order) error
	PaymentFailed(ctx context.Context, user *domain.User, order *domain.Order) error
	PasswordResetCode(ctx context.Context, user *domain.User, code string) error
}

// Noop discards every notification. Used when SMTP is not configured.
type Noop struct{}

func (Noop) PaymentSucceeded(ctx context.Context, user *domain.User, order *domain.Order) error {
	return nil
}

func (Noop) PaymentFailed(ctx context.Context, user *domain.User, order *domain.Order) error {
	return nil
}

func (Noop) PasswordResetCode(ctx context.Context, user *domain.User, code string) error {
	return nil
}
