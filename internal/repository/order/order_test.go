package order

import (
	"context"
	"errors"
	"os"
	"testing"

	"zaoconnect/internal/domain"
	"zaoconnect/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func setupOrders(ctx context.Context, t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE payment_analytics, orders, cart_items, carts, products, profiles, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	var userID string
	if err := pool.QueryRow(ctx, `INSERT INTO users (email, password_hash) VALUES ('buyer@example.com', 'x') RETURNING id::text`).Scan(&userID); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return userID
}

func TestPostgres_OrderLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	userID := setupOrders(ctx, t, pool)

	repo := NewPostgres(pool)
	created, err := repo.Create(ctx, CreateInput{
		UserID:      userID,
		TotalAmount: decimal.RequireFromString("500.00"),
		PhoneNumber: "254712345678",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != domain.OrderPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}
	if !created.TotalAmount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected total %s", created.TotalAmount)
	}

	if err := repo.SetCheckoutRequestID(ctx, created.ID, "ws_CO_1"); err != nil {
		t.Fatalf("SetCheckoutRequestID: %v", err)
	}

	found, matches, err := repo.GetByCheckoutRequestID(ctx, "ws_CO_1")
	if err != nil {
		t.Fatalf("GetByCheckoutRequestID: %v", err)
	}
	if matches != 1 || found.ID != created.ID {
		t.Fatalf("expected 1 match for %s, got %d (%s)", created.ID, matches, found.ID)
	}

	if _, _, err := repo.GetByCheckoutRequestID(ctx, "ws_CO_unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}

	updated, err := repo.MarkPaid(ctx, created.ID, "NLJ7RT61SV", `{"ResultCode":0}`)
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if !updated {
		t.Fatalf("expected MarkPaid to transition the order")
	}

	paid, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if paid.Status != domain.OrderPaid || paid.MpesaReceiptNumber != "NLJ7RT61SV" || paid.MpesaResponse == "" {
		t.Fatalf("unexpected paid order %+v", paid)
	}

	// Settled orders must not be rewritten by duplicate callbacks.
	updated, err = repo.MarkPaid(ctx, created.ID, "OTHER", `{"ResultCode":0,"dup":true}`)
	if err != nil {
		t.Fatalf("second MarkPaid: %v", err)
	}
	if updated {
		t.Fatalf("expected second MarkPaid to be a no-op")
	}
	if updated, err := repo.MarkFailed(ctx, created.ID, `{"ResultCode":1}`); err != nil || updated {
		t.Fatalf("expected MarkFailed on paid order to be a no-op, got %v %v", updated, err)
	}

	again, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID after no-ops: %v", err)
	}
	if again.MpesaReceiptNumber != "NLJ7RT61SV" {
		t.Fatalf("receipt changed to %q", again.MpesaReceiptNumber)
	}
}

func TestPostgres_FailedOrderCanStillBePaid(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	userID := setupOrders(ctx, t, pool)

	repo := NewPostgres(pool)
	created, err := repo.Create(ctx, CreateInput{
		UserID:      userID,
		TotalAmount: decimal.NewFromInt(250),
		PhoneNumber: "254712345678",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if updated, err := repo.MarkFailed(ctx, created.ID, "Request timeout - please try again"); err != nil || !updated {
		t.Fatalf("MarkFailed: %v %v", updated, err)
	}

	// A late success callback after a timeout still settles the order.
	updated, err := repo.MarkPaid(ctx, created.ID, "NLJ7RT61SV", `{"ResultCode":0}`)
	if err != nil {
		t.Fatalf("MarkPaid after failure: %v", err)
	}
	if !updated {
		t.Fatalf("expected failed order to accept a late paid transition")
	}

	paid, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if paid.Status != domain.OrderPaid {
		t.Fatalf("expected paid, got %s", paid.Status)
	}
}

func TestPostgres_CorrelationAndOwnership(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	userID := setupOrders(ctx, t, pool)

	var otherID string
	if err := pool.QueryRow(ctx, `INSERT INTO users (email, password_hash) VALUES ('other@example.com', 'x') RETURNING id::text`).Scan(&otherID); err != nil {
		t.Fatalf("insert other user: %v", err)
	}

	repo := NewPostgres(pool)
	first, err := repo.Create(ctx, CreateInput{UserID: userID, TotalAmount: decimal.NewFromInt(100), PhoneNumber: "254712345678"})
	if err != nil {
		t.Fatalf("Create first: %v", err)
	}
	second, err := repo.Create(ctx, CreateInput{UserID: userID, TotalAmount: decimal.NewFromInt(100), PhoneNumber: "254712345678"})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}

	// Force a duplicate correlation id with a clear creation order.
	if _, err := pool.Exec(ctx, `UPDATE orders SET checkout_request_id = 'ws_CO_dup', created_at = now() - interval '1 minute' WHERE id = $1`, first.ID); err != nil {
		t.Fatalf("assign first id: %v", err)
	}
	if _, err := pool.Exec(ctx, `UPDATE orders SET checkout_request_id = 'ws_CO_dup' WHERE id = $1`, second.ID); err != nil {
		t.Fatalf("assign second id: %v", err)
	}

	found, matches, err := repo.GetByCheckoutRequestID(ctx, "ws_CO_dup")
	if err != nil {
		t.Fatalf("GetByCheckoutRequestID: %v", err)
	}
	if matches != 2 {
		t.Fatalf("expected 2 matches, got %d", matches)
	}
	if found.ID != first.ID {
		t.Fatalf("expected earliest order %s, got %s", first.ID, found.ID)
	}

	// Ownership scoping: another user cannot see the order at all.
	if _, err := repo.GetByCheckoutRequestIDForUser(ctx, "ws_CO_dup", otherID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign poll, got %v", err)
	}
	mine, err := repo.GetByCheckoutRequestIDForUser(ctx, "ws_CO_dup", userID)
	if err != nil {
		t.Fatalf("GetByCheckoutRequestIDForUser: %v", err)
	}
	if mine.ID != first.ID {
		t.Fatalf("expected earliest own order, got %s", mine.ID)
	}
}
