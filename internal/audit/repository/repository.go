package repository

import (
	"context"
	"time"

	"shelfguard/backend/internal/audit/domain"
)

// Repository is the persistence interface for audit events. Events are
// append-only; reads exist only for forensic review.
type Repository interface {
	Create(ctx context.Context, e *domain.Event) error
	ListByUser(ctx context.Context, userID string, limit int32) ([]*domain.Event, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
