package repository

import (
	"context"

	"shelfguard/backend/internal/tenant/domain"
)

// Repository reads tenant status for the auth core. Tenant lifecycle is
// owned by collaborators; only lookups live here.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
}
