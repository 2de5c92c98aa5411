package repository

import (
	"context"
	"time"

	"shelfguard/backend/internal/loginattempt/domain"
)

// Repository is the persistence interface for the login attempt log.
// Attempts are append-only and only ever aggregated, never updated.
type Repository interface {
	Create(ctx context.Context, a *domain.Attempt) error
	// CountEmailFailuresSince counts failed attempts for the email created
	// at or after since, excluding attempts that were themselves rejected
	// for being blocked (so probing a locked account cannot extend the lock).
	CountEmailFailuresSince(ctx context.Context, email string, since time.Time) (int, error)
	// CountIPFailuresSince is the IP-keyed counterpart of CountEmailFailuresSince.
	CountIPFailuresSince(ctx context.Context, ip string, since time.Time) (int, error)
	// DeleteCreatedBefore removes attempts past the retention window.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
