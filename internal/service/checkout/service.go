package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"zaoconnect/internal/domain"
	"zaoconnect/internal/mpesa"
	"zaoconnect/internal/notify"
	orderrepo "zaoconnect/internal/repository/order"
	"github.com/shopspring/decimal"
)

// accountReferencePrefix is what customers see on their M-Pesa statement,
// followed by the order id. The gateway client truncates the whole reference
// to the provider's 12 character limit.
const accountReferencePrefix = "ZAO-"

const callbackPath = "/api/payments/callback"

// minOrderAmount is the smallest charge the provider accepts, in KES.
const minOrderAmount = 1

var (
	// ErrEmptyCart rejects checkout attempts with nothing to pay for.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrAmountMismatch means the submitted amount does not equal the cart
	// total computed server-side.
	ErrAmountMismatch = errors.New("amount does not match cart total")
)

// GatewayError reports that the payment provider rejected or failed an
// initiation attempt after the order was already opened. The order has been
// marked failed by the time the caller sees this.
type GatewayError struct {
	OrderID string
	Err     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment initiation failed for order %s: %v", e.OrderID, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

type orderRepo interface {
	Create(ctx context.Context, in orderrepo.CreateInput) (*domain.Order, error)
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Order, int, error)
	GetByCheckoutRequestIDForUser(ctx context.Context, checkoutRequestID, userID string) (*domain.Order, error)
	SetCheckoutRequestID(ctx context.Context, orderID, checkoutRequestID string) error
	MarkPaid(ctx context.Context, orderID, receipt, rawResponse string) (bool, error)
	MarkFailed(ctx context.Context, orderID, rawResponse string) (bool, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
}

type cartRepo interface {
	Total(ctx context.Context, userID string) (decimal.Decimal, error)
	Clear(ctx context.Context, userID string) error
}

type userRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type analyticsRepo interface {
	Start(ctx context.Context, orderID string, amount decimal.Decimal, phoneNumber string) error
	Complete(ctx context.Context, orderID, status, receipt string) error
}

type paymentGateway interface {
	InitiateSTKPush(ctx context.Context, in mpesa.STKPushInput) (*mpesa.STKPushResult, error)
}

// Service drives the payment flow: it opens orders, submits STK pushes and
// reconciles the asynchronous callbacks against the order ledger.
type Service struct {
	orders      orderRepo
	carts       cartRepo
	users       userRepo
	analytics   analyticsRepo
	gateway     paymentGateway
	notifier    notify.Notifier
	callbackURL string
	logger      *log.Logger
}

func New(orders orderRepo, carts cartRepo, users userRepo, analytics analyticsRepo, gateway paymentGateway, notifier notify.Notifier, publicBaseURL string, logger *log.Logger) *Service {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		orders:      orders,
		carts:       carts,
		users:       users,
		analytics:   analytics,
		gateway:     gateway,
		notifier:    notifier,
		callbackURL: strings.TrimRight(publicBaseURL, "/") + callbackPath,
		logger:      logger,
	}
}

// InitiateResult is what the customer polls against after a push went out.
type InitiateResult struct {
	OrderID           string `json:"order_id"`
	CheckoutRequestID string `json:"checkout_request_id"`
	CustomerMessage   string `json:"customer_message"`
}

// Initiate opens an order for the caller's cart and submits an STK push for
// it. The submitted amount must equal the cart total exactly; nothing is
// persisted when it does not. A gateway failure leaves a failed order behind
// and is reported as *GatewayError.
func (s *Service) Initiate(ctx context.Context, userID, phone string, amount decimal.Decimal) (*InitiateResult, error) {
	normalized, err := mpesa.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if amount.LessThan(decimal.NewFromInt(minOrderAmount)) {
		return nil, mpesa.ErrInvalidAmount
	}

	total, err := s.carts.Total(ctx, userID)
	if err != nil {
		return nil, err
	}
	if total.IsZero() {
		return nil, ErrEmptyCart
	}
	if !amount.Equal(total) {
		return nil, ErrAmountMismatch
	}

	ord, err := s.orders.Create(ctx, orderrepo.CreateInput{
		UserID:      userID,
		TotalAmount: total,
		PhoneNumber: normalized,
	})
	if err != nil {
		return nil, err
	}
	if err := s.analytics.Start(ctx, ord.ID, ord.TotalAmount, normalized); err != nil {
		s.logger.Printf("checkout: analytics start failed for order %s: %v", ord.ID, err)
	}

	res, err := s.gateway.InitiateSTKPush(ctx, mpesa.STKPushInput{
		Phone:       normalized,
		Amount:      total.Round(0).IntPart(),
		Reference:   accountReferencePrefix + ord.ID,
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		msg := gatewayMessage(err)
		if _, markErr := s.orders.MarkFailed(ctx, ord.ID, msg); markErr != nil {
			s.logger.Printf("checkout: marking order %s failed: %v", ord.ID, markErr)
		}
		if aErr := s.analytics.Complete(ctx, ord.ID, string(domain.OrderFailed), ""); aErr != nil {
			s.logger.Printf("checkout: analytics complete failed for order %s: %v", ord.ID, aErr)
		}
		return nil, &GatewayError{OrderID: ord.ID, Err: err}
	}

	if err := s.orders.SetCheckoutRequestID(ctx, ord.ID, res.CheckoutRequestID); err != nil {
		// The push is out but we lost the correlation id, so the callback
		// will never match. Surface it; the customer can retry safely since
		// retries open fresh orders.
		return nil, fmt.Errorf("store checkout request id for order %s: %w", ord.ID, err)
	}

	s.logger.Printf("checkout: order %s initiated, checkout request id %s", ord.ID, res.CheckoutRequestID)
	return &InitiateResult{
		OrderID:           ord.ID,
		CheckoutRequestID: res.CheckoutRequestID,
		CustomerMessage:   res.CustomerMessage,
	}, nil
}

// Reconcile settles an order against a provider callback. It never returns
// an error: the HTTP layer must acknowledge the provider no matter what, so
// every anomaly ends up in the log instead.
func (s *Service) Reconcile(ctx context.Context, payload []byte) {
	var env mpesa.CallbackEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.logger.Printf("reconcile: malformed callback payload: %v", err)
		return
	}
	cb := env.Body.STKCallback
	if cb.CheckoutRequestID == "" {
		s.logger.Printf("reconcile: callback without a checkout request id")
		return
	}

	ord, matches, err := s.orders.GetByCheckoutRequestID(ctx, cb.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Printf("reconcile: no order for checkout request id %s", cb.CheckoutRequestID)
		} else {
			s.logger.Printf("reconcile: looking up checkout request id %s: %v", cb.CheckoutRequestID, err)
		}
		return
	}
	if matches > 1 {
		s.logger.Printf("reconcile: %d orders share checkout request id %s, settling earliest %s", matches, cb.CheckoutRequestID, ord.ID)
	}
	if ord.Status.Settled() {
		s.logger.Printf("reconcile: order %s already %s, ignoring callback", ord.ID, ord.Status)
		return
	}

	if cb.Success() {
		s.settlePaid(ctx, ord, cb, payload)
		return
	}
	s.settleFailed(ctx, ord, cb, payload)
}

func (s *Service) settlePaid(ctx context.Context, ord *domain.Order, cb mpesa.STKCallback, payload []byte) {
	receipt := cb.ReceiptNumber()
	updated, err := s.orders.MarkPaid(ctx, ord.ID, receipt, string(payload))
	if err != nil {
		s.logger.Printf("reconcile: marking order %s paid: %v", ord.ID, err)
		return
	}
	if !updated {
		s.logger.Printf("reconcile: order %s settled concurrently, skipping", ord.ID)
		return
	}
	s.logger.Printf("reconcile: order %s paid, receipt %s", ord.ID, receipt)

	if err := s.analytics.Complete(ctx, ord.ID, string(domain.OrderPaid), receipt); err != nil {
		s.logger.Printf("reconcile: analytics complete failed for order %s: %v", ord.ID, err)
	}
	if err := s.carts.Clear(ctx, ord.UserID); err != nil {
		s.logger.Printf("reconcile: clearing cart for user %s: %v", ord.UserID, err)
	}

	paid := *ord
	paid.Status = domain.OrderPaid
	paid.MpesaReceiptNumber = receipt
	s.notifyOutcome(ctx, &paid)
}

func (s *Service) settleFailed(ctx context.Context, ord *domain.Order, cb mpesa.STKCallback, payload []byte) {
	updated, err := s.orders.MarkFailed(ctx, ord.ID, string(payload))
	if err != nil {
		s.logger.Printf("reconcile: marking order %s failed: %v", ord.ID, err)
		return
	}
	if !updated {
		s.logger.Printf("reconcile: order %s not pending, ignoring failure callback", ord.ID)
		return
	}
	s.logger.Printf("reconcile: order %s failed: %s (code %d)", ord.ID, cb.ResultDesc, cb.ResultCode)

	if err := s.analytics.Complete(ctx, ord.ID, string(domain.OrderFailed), ""); err != nil {
		s.logger.Printf("reconcile: analytics complete failed for order %s: %v", ord.ID, err)
	}

	failed := *ord
	failed.Status = domain.OrderFailed
	s.notifyOutcome(ctx, &failed)
}

func (s *Service) notifyOutcome(ctx context.Context, ord *domain.Order) {
	user, err := s.users.GetByID(ctx, ord.UserID)
	if err != nil {
		s.logger.Printf("reconcile: loading user %s for notification: %v", ord.UserID, err)
		return
	}
	if ord.Status == domain.OrderPaid {
		err = s.notifier.PaymentSucceeded(ctx, user, ord)
	} else {
		err = s.notifier.PaymentFailed(ctx, user, ord)
	}
	if err != nil {
		s.logger.Printf("reconcile: notifying %s about order %s: %v", user.Email, ord.ID, err)
	}
}

// Status returns the caller's order for a checkout request id. Orders
// belonging to other users are indistinguishable from missing ones.
func (s *Service) Status(ctx context.Context, userID, checkoutRequestID string) (*domain.Order, error) {
	if strings.TrimSpace(checkoutRequestID) == "" {
		return nil, domain.ErrNotFound
	}
	return s.orders.GetByCheckoutRequestIDForUser(ctx, checkoutRequestID, userID)
}

// Orders lists the caller's orders, newest first.
func (s *Service) Orders(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.orders.ListByUser(ctx, userID, limit, offset)
}

// gatewayMessage converts an initiation error into the short audit string
// persisted on the failed order.
func gatewayMessage(err error) string {
	var netErr *mpesa.NetworkError
	if errors.As(err, &netErr) && netErr.Kind == mpesa.NetworkTimeout {
		return "Request timeout - please try again"
	}
	var declined *mpesa.DeclinedError
	if errors.As(err, &declined) {
		return fmt.Sprintf("Error %s: %s", declined.Code, declined.Description)
	}
	var httpErr *mpesa.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("HTTP %d: %s", httpErr.Status, httpErr.Body)
	}
	return err.Error()
}
