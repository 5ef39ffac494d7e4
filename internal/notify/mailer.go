package notify

import (
	"context"
	"fmt"
	"html"
	"io"
	"log"

	"zaoconnect/internal/domain"
	"github.com/wneessen/go-mail"
)

const siteName = "ZaoConnect"

// Config carries the SMTP settings for Mailer.
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	AdminEmail string
}

// Mailer sends notifications over SMTP. Successful payments also produce a
// copy for the shop admin when AdminEmail is set.
type Mailer struct {
	client *mail.Client
	from   string
	admin  string
	logger *log.Logger
}

func NewMailer(cfg Config, logger *log.Logger) (*Mailer, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Mailer{client: client, from: cfg.From, admin: cfg.AdminEmail, logger: logger}, nil
}

func (m *Mailer) PaymentSucceeded(ctx context.Context, user *domain.User, order *domain.Order) error {
	subject, plain, htmlBody := paymentSuccessEmail(user, order)
	if err := m.send(ctx, user.Email, subject, plain, htmlBody); err != nil {
		return fmt.Errorf("payment success email: %w", err)
	}
	m.logger.Printf("mailer: payment success email sent to %s for order %s", user.Email, order.ID)

	if m.admin != "" {
		subject, plain, htmlBody = adminPaymentEmail(user, order)
		// The buyer's receipt already went out; an admin copy failure is
		// only worth a log line.
		if err := m.send(ctx, m.admin, subject, plain, htmlBody); err != nil {
			m.logger.Printf("mailer: admin payment email failed for order %s: %v", order.ID, err)
		}
	}
	return nil
}

func (m *Mailer) PaymentFailed(ctx context.Context, user *domain.User, order *domain.Order) error {
	subject, plain, htmlBody := paymentFailedEmail(user, order)
	if err := m.send(ctx, user.Email, subject, plain, htmlBody); err != nil {
		return fmt.Errorf("payment failed email: %w", err)
	}
	m.logger.Printf("mailer: payment failed email sent to %s for order %s", user.Email, order.ID)
	return nil
}

func (m *Mailer) PasswordResetCode(ctx context.Context, user *domain.User, code string) error {
	subject, plain, htmlBody := passwordResetEmail(user, code)
	if err := m.send(ctx, user.Email, subject, plain, htmlBody); err != nil {
		return fmt.Errorf("password reset email: %w", err)
	}
	m.logger.Printf("mailer: password reset email sent to %s", user.Email)
	return nil
}

func (m *Mailer) send(ctx context.Context, to, subject, plain, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, plain)
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)
	return m.client.DialAndSendWithContext(ctx, msg)
}

func paymentSuccessEmail(user *domain.User, order *domain.Order) (subject, plain, htmlBody string) {
	name := displayName(user)
	id := shortID(order.ID)
	amount := order.TotalAmount.StringFixed(2)

	subject = fmt.Sprintf("Payment Successful - Order #%s", id)
	plain = fmt.Sprintf(`Hello %s,

Your payment for order #%s has been received.

Amount: KES %s
M-Pesa receipt: %s
Phone: %s

Thank you for shopping with %s.`, name, id, amount, order.MpesaReceiptNumber, order.PhoneNumber, siteName)
	htmlBody = emailLayout(fmt.Sprintf(`<h2 style="color: #2e7d32;">Payment received</h2>
		<p>Hello %s,</p>
		<p>Your payment for order #%s has been received.</p>
		%s
		<p style="color: #555;">Thank you for shopping with %s.</p>`,
		html.EscapeString(name), id,
		detailTable([][2]string{
			{"Amount", "KES " + amount},
			{"M-Pesa receipt", order.MpesaReceiptNumber},
			{"Phone", order.PhoneNumber},
		}),
		siteName))
	return subject, plain, htmlBody
}

func paymentFailedEmail(user *domain.User, order *domain.Order) (subject, plain, htmlBody string) {
	name := displayName(user)
	id := shortID(order.ID)
	amount := order.TotalAmount.StringFixed(2)

	subject = fmt.Sprintf("Payment Failed - Order #%s", id)
	plain = fmt.Sprintf(`Hello %s,

Your payment of KES %s for order #%s was not completed. Your cart is
unchanged, so you can try again whenever you are ready.

If you keep running into trouble, reply to this email and we will help.`, name, amount, id)
	htmlBody = emailLayout(fmt.Sprintf(`<h2 style="color: #c62828;">Payment not completed</h2>
		<p>Hello %s,</p>
		<p>Your payment of KES %s for order #%s was not completed. Your cart is unchanged, so you can try again whenever you are ready.</p>
		<p style="color: #555;">If you keep running into trouble, reply to this email and we will help.</p>`,
		html.EscapeString(name), amount, id))
	return subject, plain, htmlBody
}

func adminPaymentEmail(user *domain.User, order *domain.Order) (subject, plain, htmlBody string) {
	id := shortID(order.ID)
	amount := order.TotalAmount.StringFixed(2)

	subject = fmt.Sprintf("New Payment Received - Order #%s", id)
	plain = fmt.Sprintf(`Order #%s has been paid.

Customer: %s (%s)
Amount: KES %s
M-Pesa receipt: %s
Phone: %s`, id, displayName(user), user.Email, amount, order.MpesaReceiptNumber, order.PhoneNumber)
	htmlBody = emailLayout(fmt.Sprintf(`<h2 style="color: #2e7d32;">New payment received</h2>
		<p>Order #%s has been paid.</p>
		%s`,
		id,
		detailTable([][2]string{
			{"Customer", displayName(user) + " (" + user.Email + ")"},
			{"Amount", "KES " + amount},
			{"M-Pesa receipt", order.MpesaReceiptNumber},
			{"Phone", order.PhoneNumber},
		})))
	return subject, plain, htmlBody
}

func passwordResetEmail(user *domain.User, code string) (subject, plain, htmlBody string) {
	name := displayName(user)

	subject = "Password Reset Code - " + siteName
	plain = fmt.Sprintf(`Hello %s,

Your password reset code is %s. It expires in 15 minutes.

If you did not request a reset, you can ignore this email.`, name, code)
	htmlBody = emailLayout(fmt.Sprintf(`<h2 style="color: #333;">Password reset</h2>
		<p>Hello %s,</p>
		<p>Your password reset code is:</p>
		<p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</p>
		<p style="color: #555;">It expires in 15 minutes. If you did not request a reset, you can ignore this email.</p>`,
		html.EscapeString(name), html.EscapeString(code)))
	return subject, plain, htmlBody
}

func emailLayout(body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		%s
	</div>
</body>
</html>`, body)
}

func detailTable(rows [][2]string) string {
	out := `<table style="border-collapse: collapse; margin: 20px 0;">`
	for _, row := range rows {
		out += fmt.Sprintf(`<tr><td style="padding: 8px; border: 1px solid #ddd;">%s</td><td style="padding: 8px; border: 1px solid #ddd;">%s</td></tr>`,
			html.EscapeString(row[0]), html.EscapeString(row[1]))
	}
	return out + `</table>`
}

func displayName(user *domain.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	return user.Email
}

// shortID keeps email subjects readable; the full UUID stays in the account.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
