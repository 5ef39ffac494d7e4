package user

import (
	"context"
	"errors"
	"time"

	"zaoconnect/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, in CreateInput) (*domain.User, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const userQ = `
INSERT INTO users (email, password_hash, first_name, last_name, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text, created_at
`
	var u domain.User
	if err := tx.QueryRow(ctx, userQ, in.Email, in.PasswordHash, in.FirstName, in.LastName, string(in.Role)).Scan(&u.ID, &u.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}

	const profileQ = `
INSERT INTO profiles (user_id, farm_name, phone_number)
VALUES ($1, $2, $3)
RETURNING updated_at
`
	var profileUpdated time.Time
	if err := tx.QueryRow(ctx, profileQ, u.ID, in.FarmName, in.PhoneNumber).Scan(&profileUpdated); err != nil {
		return nil, err
	}

	// Every account owns exactly one cart from the moment it exists.
	if _, err := tx.Exec(ctx, `INSERT INTO carts (user_id) VALUES ($1)`, u.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	u.Email = in.Email
	u.PasswordHash = in.PasswordHash
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Role = in.Role
	u.Profile = domain.Profile{
		UserID:      u.ID,
		FarmName:    in.FarmName,
		PhoneNumber: in.PhoneNumber,
		UpdatedAt:   profileUpdated,
	}
	return &u, nil
}

const userSelect = `
SELECT u.id::text, u.email, u.password_hash, u.first_name, u.last_name, u.role, u.is_staff, u.created_at,
       p.farm_name, p.phone_number, p.updated_at
FROM users u
LEFT JOIN profiles p ON p.user_id = u.id
`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchUser(ctx, userSelect+`WHERE u.id = $1`, id)
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchUser(ctx, userSelect+`WHERE u.email = $1`, email)
}

func (r *postgresRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, userSelect+`ORDER BY u.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *postgresRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *postgresRepo) UpdateProfile(ctx context.Context, userID, farmName, phoneNumber string) error {
	const q = `
UPDATE profiles
SET farm_name = $2, phone_number = $3, updated_at = now()
WHERE user_id = $1
`
	cmd, err := r.pool.Exec(ctx, q, userID, farmName, phoneNumber)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) CreatePasswordReset(ctx context.Context, userID, code string, expiresAt time.Time) (*PasswordReset, error) {
	const q = `
INSERT INTO password_resets (user_id, code, expires_at)
VALUES ($1, $2, $3)
RETURNING id::text, created_at
`
	reset := PasswordReset{UserID: userID, Code: code, ExpiresAt: expiresAt}
	if err := r.pool.QueryRow(ctx, q, userID, code, expiresAt).Scan(&reset.ID, &reset.CreatedAt); err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *postgresRepo) GetPasswordReset(ctx context.Context, userID, code string) (*PasswordReset, error) {
	const q = `
SELECT id::text, user_id::text, code, verified, created_at, expires_at
FROM password_resets
WHERE user_id = $1 AND code = $2
ORDER BY created_at DESC
LIMIT 1
`
	var reset PasswordReset
	if err := r.pool.QueryRow(ctx, q, userID, code).Scan(
		&reset.ID,
		&reset.UserID,
		&reset.Code,
		&reset.Verified,
		&reset.CreatedAt,
		&reset.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &reset, nil
}

func (r *postgresRepo) MarkPasswordResetVerified(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE password_resets SET verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeletePasswordResets(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM password_resets WHERE user_id = $1`, userID)
	return err
}

func (r *postgresRepo) fetchUser(ctx context.Context, q string, args ...interface{}) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	var farmName, phoneNumber *string
	var profileUpdated *time.Time
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&role,
		&u.IsStaff,
		&u.CreatedAt,
		&farmName,
		&phoneNumber,
		&profileUpdated,
	); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.Profile.UserID = u.ID
	if farmName != nil {
		u.Profile.FarmName = *farmName
	}
	if phoneNumber != nil {
		u.Profile.PhoneNumber = *phoneNumber
	}
	if profileUpdated != nil {
		u.Profile.UpdatedAt = *profileUpdated
	}
	return &u, nil
}
