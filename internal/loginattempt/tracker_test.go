package loginattempt

import (
	"context"
	"sync"
	"testing"
	"time"

	"shelfguard/backend/internal/loginattempt/domain"
)

type memAttemptRepo struct {
	mu       sync.Mutex
	attempts []*domain.Attempt
}

func (r *memAttemptRepo) Create(ctx context.Context, a *domain.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a2 := *a
	r.attempts = append(r.attempts, &a2)
	return nil
}

func (r *memAttemptRepo) CountEmailFailuresSince(ctx context.Context, email string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.attempts {
		if a.Email == email && !a.Success && a.FailureReason != domain.ReasonBlocked && !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *memAttemptRepo) CountIPFailuresSince(ctx context.Context, ip string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.attempts {
		if a.IPAddress == ip && !a.Success && a.FailureReason != domain.ReasonBlocked && !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *memAttemptRepo) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*domain.Attempt
	var deleted int64
	for _, a := range r.attempts {
		if a.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, a)
	}
	r.attempts = kept
	return deleted, nil
}

func TestTracker_BlocksAfterThreshold(t *testing.T) {
	ctx := context.Background()
	repo := &memAttemptRepo{}
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(repo, 5, time.Hour).WithClock(func() time.Time { return now })

	for i := 0; i < 4; i++ {
		if err := tr.RecordFailure(ctx, "b@y.com", "1.2.3.4", "ua", domain.ReasonWrongPassword, ""); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	blocked, err := tr.Blocked(ctx, "b@y.com", "1.2.3.4")
	if err != nil {
		t.Fatalf("Blocked: %v", err)
	}
	if blocked {
		t.Fatal("4 failures should not block with threshold 5")
	}

	if err := tr.RecordFailure(ctx, "b@y.com", "1.2.3.4", "ua", domain.ReasonWrongPassword, ""); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	blocked, _ = tr.Blocked(ctx, "b@y.com", "1.2.3.4")
	if !blocked {
		t.Fatal("5 failures within the window should block")
	}
}

func TestTracker_IPAndEmailAreIndependentKeys(t *testing.T) {
	ctx := context.Background()
	repo := &memAttemptRepo{}
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(repo, 3, time.Hour).WithClock(func() time.Time { return now })

	// Same IP, different emails: the IP key accumulates.
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_ = tr.RecordFailure(ctx, email, "9.9.9.9", "ua", domain.ReasonWrongPassword, "")
	}
	blocked, _ := tr.Blocked(ctx, "fresh@x.com", "9.9.9.9")
	if !blocked {
		t.Error("IP at threshold should block even a fresh email")
	}
	blocked, _ = tr.Blocked(ctx, "a@x.com", "8.8.8.8")
	if blocked {
		t.Error("one failure on the email key should not block from a fresh IP")
	}
}

func TestTracker_WindowSlides(t *testing.T) {
	ctx := context.Background()
	repo := &memAttemptRepo{}
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(repo, 5, time.Hour).WithClock(func() time.Time { return now })

	for i := 0; i < 5; i++ {
		_ = tr.RecordFailure(ctx, "b@y.com", "1.2.3.4", "ua", domain.ReasonWrongPassword, "")
	}
	if blocked, _ := tr.Blocked(ctx, "b@y.com", ""); !blocked {
		t.Fatal("should be blocked right after the 5th failure")
	}

	// Advance past the window: the failures age out and the key unblocks.
	now = now.Add(time.Hour + time.Minute)
	if blocked, _ := tr.Blocked(ctx, "b@y.com", ""); blocked {
		t.Fatal("block should lapse once the failures leave the window")
	}
}

func TestTracker_BlockedAttemptsDoNotExtendLockout(t *testing.T) {
	ctx := context.Background()
	repo := &memAttemptRepo{}
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(repo, 5, time.Hour).WithClock(func() time.Time { return now })

	for i := 0; i < 5; i++ {
		_ = tr.RecordFailure(ctx, "b@y.com", "1.2.3.4", "ua", domain.ReasonWrongPassword, "")
	}

	// Sustained probing against the locked key, recorded with reason blocked.
	now = now.Add(30 * time.Minute)
	for i := 0; i < 50; i++ {
		_ = tr.RecordFailure(ctx, "b@y.com", "1.2.3.4", "ua", domain.ReasonBlocked, "")
	}

	// 61 minutes after the original failures the lock must have lapsed,
	// regardless of the probing in between.
	now = now.Add(31 * time.Minute)
	if blocked, _ := tr.Blocked(ctx, "b@y.com", "1.2.3.4"); blocked {
		t.Fatal("blocked-path attempts must not extend the lockout window")
	}
}

func TestTracker_SuccessesDoNotCount(t *testing.T) {
	ctx := context.Background()
	repo := &memAttemptRepo{}
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(repo, 2, time.Hour).WithClock(func() time.Time { return now })

	_ = tr.RecordSuccess(ctx, "a@x.com", "1.2.3.4", "ua", "u1")
	_ = tr.RecordSuccess(ctx, "a@x.com", "1.2.3.4", "ua", "u1")
	if blocked, _ := tr.Blocked(ctx, "a@x.com", "1.2.3.4"); blocked {
		t.Fatal("successful attempts must not count toward lockout")
	}
}
