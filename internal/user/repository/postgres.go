package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shelfguard/backend/internal/user/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a user repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const userColumns = `id, email, password_hash, role, tenant_id, active, last_login_at, reset_token, reset_token_expires_at, created_at, updated_at`

// GetByID returns the user for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user for email (case-insensitive), or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

// GetByResetToken returns the user holding the given reset token, or nil.
// Expiry is checked by the caller, not here.
func (r *PostgresRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE reset_token = $1`, token)
	return scanUser(row)
}

// Create persists the user. The user must have ID set and Validate cleanly.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, tenant_id, active, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, NULLIF($5, '')::uuid, $6, $7, $8)
	`, u.ID, u.Email, u.PasswordHash, u.Role, u.TenantID, u.Active, u.CreatedAt, u.UpdatedAt)
	return err
}

// UpdatePassword replaces the stored hash, bumps updated_at, and clears the
// reset token fields so a pending reset cannot be replayed against the new
// credential.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, userID, passwordHash string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = $3, reset_token = NULL, reset_token_expires_at = NULL
		WHERE id = $1
	`, userID, passwordHash, at)
	return err
}

// UpdateLastLogin records a successful authentication time.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, userID, at)
	return err
}

// SetResetToken stores a fresh single-use reset token and its expiry,
// replacing any prior token.
func (r *PostgresRepository) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET reset_token = $2, reset_token_expires_at = $3, updated_at = now() WHERE id = $1
	`, userID, token, expiresAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var tenantID *string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &tenantID, &u.Active,
		&u.LastLoginAt, &u.ResetToken, &u.ResetTokenExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if tenantID != nil {
		u.TenantID = *tenantID
	}
	return &u, nil
}
