package notify

import (
	"strings"
	"testing"

	"zaoconnect/internal/domain"
	"github.com/shopspring/decimal"
)

func testOrder() *domain.Order {
	return &domain.Order{
		ID:                 "a1b2c3d4-0000-0000-0000-000000000000",
		TotalAmount:        decimal.RequireFromString("500.5"),
		PhoneNumber:        "254712345678",
		Status:             domain.OrderPaid,
		MpesaReceiptNumber: "NLJ7RT61SV",
	}
}

func testUser() *domain.User {
	return &domain.User{
		ID:        "u-1",
		Email:     "jane@example.com",
		FirstName: "Jane",
	}
}

func TestPaymentSuccessEmail(t *testing.T) {
	subject, plain, htmlBody := paymentSuccessEmail(testUser(), testOrder())

	if subject != "Payment Successful - Order #a1b2c3d4" {
		t.Fatalf("unexpected subject %q", subject)
	}
	for _, want := range []string{"Jane", "KES 500.50", "NLJ7RT61SV", "254712345678"} {
		if !strings.Contains(plain, want) {
			t.Fatalf("plain body missing %q:\n%s", want, plain)
		}
		if !strings.Contains(htmlBody, want) {
			t.Fatalf("html body missing %q", want)
		}
	}
}

func TestPaymentFailedEmail(t *testing.T) {
	subject, plain, _ := paymentFailedEmail(testUser(), testOrder())

	if subject != "Payment Failed - Order #a1b2c3d4" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(plain, "cart is\nunchanged") {
		t.Fatalf("plain body should mention the untouched cart:\n%s", plain)
	}
}

func TestAdminPaymentEmail(t *testing.T) {
	subject, plain, _ := adminPaymentEmail(testUser(), testOrder())

	if subject != "New Payment Received - Order #a1b2c3d4" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(plain, "jane@example.com") {
		t.Fatalf("admin body missing customer email:\n%s", plain)
	}
}

func TestPasswordResetEmail(t *testing.T) {
	subject, plain, htmlBody := passwordResetEmail(testUser(), "482913")

	if subject != "Password Reset Code - ZaoConnect" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(plain, "482913") || !strings.Contains(htmlBody, "482913") {
		t.Fatalf("reset code missing from body")
	}
	if !strings.Contains(plain, "15 minutes") {
		t.Fatalf("expiry missing from body:\n%s", plain)
	}
}

func TestDisplayNameFallsBackToEmail(t *testing.T) {
	u := testUser()
	u.FirstName = ""
	if got := displayName(u); got != "jane@example.com" {
		t.Fatalf("expected email fallback, got %q", got)
	}
}

func TestHTMLBodiesEscapeNames(t *testing.T) {
	u := testUser()
	u.FirstName = "<script>alert(1)</script>"
	_, _, htmlBody := paymentSuccessEmail(u, testOrder())
	if strings.Contains(htmlBody, "<script>") {
		t.Fatalf("html body must escape the user name")
	}
}
