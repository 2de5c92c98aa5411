package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"shelfguard/backend/internal/loginattempt/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a login attempt repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create appends one attempt row.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Attempt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO login_attempts (email, ip_address, user_agent, success, failure_reason, user_id, blocked_until, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, '')::uuid, $7, $8)
	`, a.Email, a.IPAddress, a.UserAgent, a.Success, string(a.FailureReason), a.UserID, a.BlockedUntil, a.CreatedAt)
	return err
}

// CountEmailFailuresSince counts window-qualifying failures for the email.
func (r *PostgresRepository) CountEmailFailuresSince(ctx context.Context, email string, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM login_attempts
		WHERE email = $1 AND NOT success AND created_at >= $2
		  AND (failure_reason IS NULL OR failure_reason <> $3)
	`, email, since, string(domain.ReasonBlocked)).Scan(&n)
	return n, err
}

// CountIPFailuresSince counts window-qualifying failures for the IP.
func (r *PostgresRepository) CountIPFailuresSince(ctx context.Context, ip string, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM login_attempts
		WHERE ip_address = $1 AND NOT success AND created_at >= $2
		  AND (failure_reason IS NULL OR failure_reason <> $3)
	`, ip, since, string(domain.ReasonBlocked)).Scan(&n)
	return n, err
}

// DeleteCreatedBefore removes attempts past the retention window.
func (r *PostgresRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM login_attempts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
