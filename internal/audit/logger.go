// Package audit records append-only audit events for security review.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"shelfguard/backend/internal/audit/domain"
	auditrepo "shelfguard/backend/internal/audit/repository"
)

// Auth actions recorded by the authentication flows.
const (
	ActionLoginSuccess           = "login_success"
	ActionTokenRefresh           = "token_refresh"
	ActionLogout                 = "logout"
	ActionLogoutAllSessions      = "logout_all_sessions"
	ActionSessionRevoked         = "session_revoked"
	ActionPasswordChangeSuccess  = "password_change_success"
	ActionPasswordChangeFailed   = "password_change_failed"
	ActionPasswordResetRequested = "password_reset_requested"
	ActionPasswordResetSuccess   = "password_reset_success"
)

// AuthLogger writes a single audit event for an authentication flow.
// LogAuth is best-effort: failures are logged and do not affect the caller.
type AuthLogger interface {
	LogAuth(ctx context.Context, tenantID, userID, action string, success bool, ip, userAgent string, payload any)
}

// Logger implements AuthLogger using the audit repository.
type Logger struct {
	repo auditrepo.Repository
	now  func() time.Time
}

// NewLogger returns an AuthLogger that persists to repo.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the logger's clock. For tests.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

// LogAuth writes one auth-category audit entry. Failed operations are recorded
// at warning level. Best-effort: errors are logged and not returned, an audit
// write must never fail the operation it describes.
func (l *Logger) LogAuth(ctx context.Context, tenantID, userID, action string, success bool, ip, userAgent string, payload any) {
	if l.repo == nil {
		return
	}
	level := domain.LevelInfo
	if !success {
		level = domain.LevelWarning
	}
	var newData []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Printf("audit: failed to encode payload for %s: %v", action, err)
		} else {
			newData = b
		}
	}
	entry := &domain.Event{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		UserID:    userID,
		Action:    action,
		Category:  domain.CategoryAuth,
		Level:     level,
		NewData:   newData,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: l.now(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s: %v", action, err)
	}
}
