package repository

import (
	"context"
	"time"

	"shelfguard/backend/internal/user/domain"
)

// Repository is the persistence interface for users. Lookups return
// (nil, nil) when no row matches; errors are reserved for storage failures.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// UpdatePassword replaces the stored hash and clears any pending reset
	// token in the same statement.
	UpdatePassword(ctx context.Context, userID, passwordHash string, at time.Time) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error
}
