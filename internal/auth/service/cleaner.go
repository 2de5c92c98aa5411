package service

import (
	"context"
	"time"

	sessionrepo "shelfguard/backend/internal/session/repository"
)

type attemptPruner interface {
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type eventPruner interface {
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cleaner runs the retention sweep. It is the only part of the core the
// sweeper binary needs, so it stands alone from the full service.
type Cleaner struct {
	sessions  sessionrepo.Repository
	attempts  attemptPruner
	events    eventPruner
	retention Retention
	now       func() time.Time
}

// NewCleaner returns a Cleaner over the given stores and retention windows.
func NewCleaner(sessions sessionrepo.Repository, attempts attemptPruner, events eventPruner, retention Retention) *Cleaner {
	return &Cleaner{
		sessions:  sessions,
		attempts:  attempts,
		events:    events,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the cleaner's clock. For tests.
func (c *Cleaner) WithClock(now func() time.Time) *Cleaner {
	c.now = now
	return c
}

// Run performs one sweep: soft-expire sessions past their access window,
// then hard-delete sessions, attempts and audit events past retention. All
// predicates are time-bounded, so repeated and concurrent runs are safe.
func (c *Cleaner) Run(ctx context.Context) (*CleanupReport, error) {
	now := c.now()
	var report CleanupReport
	var err error

	if report.SessionsExpired, err = c.sessions.MarkExpired(ctx, now); err != nil {
		return nil, err
	}
	if report.SessionsDeleted, err = c.sessions.DeleteIssuedBefore(ctx, now.Add(-c.retention.Sessions)); err != nil {
		return nil, err
	}
	if report.AttemptsDeleted, err = c.attempts.DeleteCreatedBefore(ctx, now.Add(-c.retention.Attempts)); err != nil {
		return nil, err
	}
	if report.EventsDeleted, err = c.events.DeleteCreatedBefore(ctx, now.Add(-c.retention.Events)); err != nil {
		return nil, err
	}
	return &report, nil
}
