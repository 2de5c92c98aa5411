package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shelfguard/backend/internal/session/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a session repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const sessionColumns = `id, user_id, access_token_hash, refresh_token_hash, ip_address, user_agent, device,
	issued_at, access_expires_at, refresh_expires_at, active, last_accessed_at, revoked_at, revoke_reason`

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, access_token_hash, refresh_token_hash, ip_address, user_agent, device,
			issued_at, access_expires_at, refresh_expires_at, active, last_accessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, s.ID, s.UserID, s.AccessTokenDigest, s.RefreshTokenDigest, s.IPAddress, s.UserAgent, s.Device,
		s.IssuedAt, s.AccessExpiresAt, s.RefreshExpiresAt, s.Active, s.LastAccessedAt)
	return err
}

// ListActiveByUser returns the user's active sessions, most recently used first.
func (r *PostgresRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = $1 AND active
		ORDER BY last_accessed_at DESC NULLS LAST, issued_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RevokeIfActive is the compare-and-swap for refresh rotation: the WHERE
// guard on active means at most one concurrent caller wins the transition.
func (r *PostgresRepository) RevokeIfActive(ctx context.Context, id string, reason domain.RevokeReason, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions SET active = FALSE, revoked_at = $2, revoke_reason = $3
		WHERE id = $1 AND active
	`, id, at, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RevokeAllByUser revokes every active session of the user except exceptID.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, userID, exceptID string, reason domain.RevokeReason, at time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions SET active = FALSE, revoked_at = $2, revoke_reason = $3
		WHERE user_id = $1 AND active AND ($4 = '' OR id <> $4::uuid)
	`, userID, at, reason, exceptID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Touch refreshes the session's last-accessed timestamp.
func (r *PostgresRepository) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE sessions SET last_accessed_at = $2 WHERE id = $1`, id, at)
	return err
}

// MarkExpired soft-expires active sessions whose access window has passed.
// The predicate is time-bounded only, so repeated runs are no-ops.
func (r *PostgresRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions SET active = FALSE, revoked_at = $1, revoke_reason = $2
		WHERE active AND access_expires_at < $1
	`, now, domain.ReasonExpired)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteIssuedBefore hard-deletes sessions past the retention window.
func (r *PostgresRepository) DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE issued_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	var ip, ua, device, reason *string
	err := row.Scan(&s.ID, &s.UserID, &s.AccessTokenDigest, &s.RefreshTokenDigest, &ip, &ua, &device,
		&s.IssuedAt, &s.AccessExpiresAt, &s.RefreshExpiresAt, &s.Active, &s.LastAccessedAt, &s.RevokedAt, &reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if ip != nil {
		s.IPAddress = *ip
	}
	if ua != nil {
		s.UserAgent = *ua
	}
	if device != nil {
		s.Device = *device
	}
	if reason != nil {
		s.RevokeReason = domain.RevokeReason(*reason)
	}
	return &s, nil
}
