package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"shelfguard/backend/internal/audit/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns an audit repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create appends one audit event.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_events (id, tenant_id, user_id, action, category, level, old_data, new_data, ip_address, user_agent, created_at)
		VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11)
	`, e.ID, e.TenantID, e.UserID, e.Action, e.Category, e.Level, e.OldData, e.NewData, e.IPAddress, e.UserAgent, e.CreatedAt)
	return err
}

// ListByUser returns the user's most recent events, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int32) ([]*domain.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, coalesce(tenant_id::text, ''), coalesce(user_id::text, ''), action, category, level,
			old_data, new_data, coalesce(ip_address, ''), coalesce(user_agent, ''), created_at
		FROM audit_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TenantID, &e.UserID, &e.Action, &e.Category, &e.Level,
			&e.OldData, &e.NewData, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// DeleteCreatedBefore removes events past the retention window.
func (r *PostgresRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
