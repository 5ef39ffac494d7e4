package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"zaoconnect/internal/domain"
	"github.com/shopspring/decimal"
)

func TestGetCartHandler(t *testing.T) {
	deps := defaultDeps()
	deps.Users = &stubUserService{user: buyer()}
	deps.Carts = &stubCartService{cart: &domain.Cart{
		ID:    "cart-1",
		Items: []domain.CartItem{{ProductID: "p1", ProductName: "Maize 90kg", Quantity: 2}},
		Total: decimal.RequireFromString("201.00"),
	}}
	router := newTestRouter(t, deps)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"product_name":"Maize 90kg"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestSetCartItemHandler(t *testing.T) {
	carts := &stubCartService{cart: &domain.Cart{ID: "cart-1"}}
	deps := defaultDeps()
	deps.Users = &stubUserService{user: buyer()}
	deps.Carts = carts
	router := newTestRouter(t, deps)

	body := `{"product_id":"p1","quantity":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if carts.lastPID != "p1" || len(carts.setCalls) != 1 || carts.setCalls[0] != 3 {
		t.Fatalf("expected SetItem(p1, 3), got pid=%s calls=%v", carts.lastPID, carts.setCalls)
	}
}

func TestSetCartItemHandler_ZeroRemovesLine(t *testing.T) {
	carts := &stubCartService{cart: &domain.Cart{ID: "cart-1"}}
	deps := defaultDeps()
	deps.Users = &stubUserService{user: buyer()}
	deps.Carts = carts
	router := newTestRouter(t, deps)

	body := `{"product_id":"p1","quantity":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for explicit zero, got %d body=%s", rec.Code, rec.Body.String())
	}
	if len(carts.setCalls) != 1 || carts.setCalls[0] != 0 {
		t.Fatalf("expected SetItem with quantity 0, got %v", carts.setCalls)
	}
}

func TestSetCartItemHandler_MissingQuantity(t *testing.T) {
	carts := &stubCartService{cart: &domain.Cart{ID: "cart-1"}}
	deps := defaultDeps()
	deps.Users = &stubUserService{user: buyer()}
	deps.Carts = carts
	router := newTestRouter(t, deps)

	body := `{"product_id":"p1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without quantity, got %d body=%s", rec.Code, rec.Body.String())
	}
	if len(carts.setCalls) != 0 {
		t.Fatalf("expected no SetItem call, got %v", carts.setCalls)
	}
}

func TestClearCartHandler(t *testing.T) {
	carts := &stubCartService{}
	deps := defaultDeps()
	deps.Users = &stubUserService{user: buyer()}
	deps.Carts = carts
	router := newTestRouter(t, deps)

	req := httptest.NewRequest(http.MethodPost, "/api/cart/clear", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if carts.cleared != 1 {
		t.Fatalf("expected one clear call, got %d", carts.cleared)
	}
}
