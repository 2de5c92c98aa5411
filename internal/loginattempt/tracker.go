// Package loginattempt tracks authentication attempts and makes sliding-window
// lockout decisions over them.
package loginattempt

import (
	"context"
	"time"

	"shelfguard/backend/internal/loginattempt/domain"
	"shelfguard/backend/internal/loginattempt/repository"
)

// Tracker appends attempts and answers lockout queries. Email and IP are
// independent key spaces; either reaching the threshold within the window
// blocks the attempt. The window slides: a key unblocks as soon as the
// oldest qualifying failure ages out.
type Tracker struct {
	repo        repository.Repository
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// NewTracker returns a Tracker with the given threshold and window.
func NewTracker(repo repository.Repository, maxAttempts int, window time.Duration) *Tracker {
	return &Tracker{
		repo:        repo,
		maxAttempts: maxAttempts,
		window:      window,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the tracker's clock. For tests.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Blocked reports whether email or ip has reached the failure threshold
// within the window. Blocked-path attempts themselves are excluded from the
// count by the repository, so sustained probing cannot extend a lockout.
func (t *Tracker) Blocked(ctx context.Context, email, ip string) (bool, error) {
	since := t.now().Add(-t.window)
	if email != "" {
		n, err := t.repo.CountEmailFailuresSince(ctx, email, since)
		if err != nil {
			return false, err
		}
		if n >= t.maxAttempts {
			return true, nil
		}
	}
	if ip != "" {
		n, err := t.repo.CountIPFailuresSince(ctx, ip, since)
		if err != nil {
			return false, err
		}
		if n >= t.maxAttempts {
			return true, nil
		}
	}
	return false, nil
}

// RecordFailure appends a failed attempt with the given reason.
func (t *Tracker) RecordFailure(ctx context.Context, email, ip, userAgent string, reason domain.FailureReason, userID string) error {
	return t.repo.Create(ctx, &domain.Attempt{
		Email:         email,
		IPAddress:     ip,
		UserAgent:     userAgent,
		Success:       false,
		FailureReason: reason,
		UserID:        userID,
		CreatedAt:     t.now(),
	})
}

// DeleteCreatedBefore prunes attempts past the retention window.
func (t *Tracker) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return t.repo.DeleteCreatedBefore(ctx, cutoff)
}

// RecordSuccess appends a successful attempt so the window count stays accurate.
func (t *Tracker) RecordSuccess(ctx context.Context, email, ip, userAgent, userID string) error {
	return t.repo.Create(ctx, &domain.Attempt{
		Email:     email,
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   true,
		UserID:    userID,
		CreatedAt: t.now(),
	})
}
