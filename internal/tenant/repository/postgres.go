package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shelfguard/backend/internal/tenant/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a tenant repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a tenant row. Used by seeding; tenant lifecycle is
// otherwise owned by collaborators.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Tenant) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, active, subscription_expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.Name, t.Active, t.SubscriptionExpiresAt, t.CreatedAt)
	return err
}

// GetByID returns the tenant for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, active, subscription_expires_at, created_at FROM tenants WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.Active, &t.SubscriptionExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}
