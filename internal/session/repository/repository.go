package repository

import (
	"context"
	"time"

	"shelfguard/backend/internal/session/domain"
)

// Repository is the persistence interface for the session registry.
// Lookups return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	// RevokeIfActive flips the session to revoked only if it is still
	// active, and reports whether this call performed the transition. The
	// conditional update is what serializes concurrent refresh rotation:
	// exactly one caller observes true.
	RevokeIfActive(ctx context.Context, id string, reason domain.RevokeReason, at time.Time) (bool, error)
	// RevokeAllByUser revokes every active session of the user except
	// exceptID (pass "" to revoke all). Returns the number revoked.
	RevokeAllByUser(ctx context.Context, userID, exceptID string, reason domain.RevokeReason, at time.Time) (int64, error)
	// Touch refreshes the session's last-accessed timestamp.
	Touch(ctx context.Context, id string, at time.Time) error
	// MarkExpired flips every active session whose access window has passed
	// to revoked with reason expired. Returns the number marked.
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
	// DeleteIssuedBefore hard-deletes sessions issued before the cutoff,
	// regardless of state. Returns the number deleted.
	DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
