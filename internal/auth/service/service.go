// Package service orchestrates credential verification, session lifecycle,
// lockout accounting, password management and the audit trail.
package service

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"shelfguard/backend/internal/audit"
	auditrepo "shelfguard/backend/internal/audit/repository"
	"shelfguard/backend/internal/auth/password"
	"shelfguard/backend/internal/autherr"
	"shelfguard/backend/internal/loginattempt"
	attemptdomain "shelfguard/backend/internal/loginattempt/domain"
	"shelfguard/backend/internal/security"
	sessiondomain "shelfguard/backend/internal/session/domain"
	sessionrepo "shelfguard/backend/internal/session/repository"
	tenantrepo "shelfguard/backend/internal/tenant/repository"
	userdomain "shelfguard/backend/internal/user/domain"
	userrepo "shelfguard/backend/internal/user/repository"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// TokenPair is the bearer credential pair returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResult is the success payload of Authenticate.
type LoginResult struct {
	Tokens           TokenPair             `json:"tokens"`
	User             userdomain.Projection `json:"user"`
	SessionExpiresAt time.Time             `json:"session_expires_at"`
}

// RefreshResult is the success payload of Refresh.
type RefreshResult struct {
	Tokens           TokenPair `json:"tokens"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

// ValidationResult is the success payload of ValidateSession.
type ValidationResult struct {
	User    userdomain.Projection    `json:"user"`
	Session sessiondomain.Descriptor `json:"session"`
}

// CleanupReport counts the rows touched by one cleanup sweep.
type CleanupReport struct {
	SessionsExpired int64 `json:"sessions_expired"`
	SessionsDeleted int64 `json:"sessions_deleted"`
	AttemptsDeleted int64 `json:"attempts_deleted"`
	EventsDeleted   int64 `json:"events_deleted"`
}

// Retention holds the hard-delete windows applied by CleanupExpired.
type Retention struct {
	Sessions time.Duration
	Attempts time.Duration
	Events   time.Duration
}

// AuthService is the single stateful service object of the auth core. All
// dependencies are injected at construction; there is no package-level state.
type AuthService struct {
	users    userrepo.Repository
	tenants  tenantrepo.Repository
	sessions sessionrepo.Repository
	tracker  *loginattempt.Tracker
	auditor  audit.AuthLogger
	cleaner  *Cleaner
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	resetTTL time.Duration
	now      func() time.Time
}

// NewAuthService wires the auth core together.
func NewAuthService(
	users userrepo.Repository,
	tenants tenantrepo.Repository,
	sessions sessionrepo.Repository,
	tracker *loginattempt.Tracker,
	auditor audit.AuthLogger,
	events auditrepo.Repository,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	resetTTL time.Duration,
	retention Retention,
) *AuthService {
	return &AuthService{
		users:    users,
		tenants:  tenants,
		sessions: sessions,
		tracker:  tracker,
		auditor:  auditor,
		cleaner:  NewCleaner(sessions, tracker, events, retention),
		hasher:   hasher,
		tokens:   tokens,
		resetTTL: resetTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock (the cleaner included). For tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	s.cleaner.WithClock(now)
	return s
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate verifies credentials and mints a new session. Every failure is
// recorded in the attempt tracker exactly once, atomically with the decision
// that produced it, so lockout accounting never undercounts.
func (s *AuthService) Authenticate(ctx context.Context, email, plaintext, ip, userAgent string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	now := s.now()

	if !emailPattern.MatchString(email) {
		s.recordFailure(ctx, email, ip, userAgent, attemptdomain.ReasonInvalidEmail, "")
		return nil, autherr.New(autherr.CodeInvalidEmail, "invalid email format")
	}

	blocked, err := s.tracker.Blocked(ctx, email, ip)
	if err != nil {
		return nil, autherr.Internal()
	}
	if blocked {
		// The credential store is deliberately not consulted on this path.
		s.recordFailure(ctx, email, ip, userAgent, attemptdomain.ReasonBlocked, "")
		return nil, autherr.New(autherr.CodeAccountBlocked, "too many failed attempts, try again later")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, autherr.Internal()
	}
	if u == nil {
		s.recordFailure(ctx, email, ip, userAgent, attemptdomain.ReasonUserNotFound, "")
		return nil, invalidCredentials()
	}
	if !u.Active {
		s.recordFailure(ctx, email, ip, userAgent, attemptdomain.ReasonUserInactive, u.ID)
		return nil, autherr.New(autherr.CodeAccountInactive, "account is inactive")
	}
	if !s.hasher.Verify(u.PasswordHash, plaintext) {
		s.recordFailure(ctx, email, ip, userAgent, attemptdomain.ReasonWrongPassword, u.ID)
		return nil, invalidCredentials()
	}

	if u.TenantID != "" {
		t, err := s.tenants.GetByID(ctx, u.TenantID)
		if err != nil {
			return nil, autherr.Internal()
		}
		if t == nil || !t.Active {
			s.recordFailure(ctx, email, ip, userAgent, attemptdomain.ReasonCompanyInactive, u.ID)
			return nil, autherr.New(autherr.CodeCompanyInactive, "company account is inactive")
		}
		if !t.SubscriptionValid(now) {
			s.recordFailure(ctx, email, ip, userAgent, attemptdomain.ReasonSubscriptionExpired, u.ID)
			return nil, autherr.New(autherr.CodeSubscriptionExpired, "company subscription has expired")
		}
	}

	sess, pair, err := s.mintSession(ctx, u, ip, userAgent, now)
	if err != nil {
		return nil, autherr.Internal()
	}

	if err := s.tracker.RecordSuccess(ctx, email, ip, userAgent, u.ID); err != nil {
		log.Printf("auth: failed to record successful attempt for %s: %v", u.ID, err)
	}
	if err := s.users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		log.Printf("auth: failed to update last login for %s: %v", u.ID, err)
	}
	s.auditor.LogAuth(ctx, u.TenantID, u.ID, audit.ActionLoginSuccess, true, ip, userAgent,
		map[string]string{"session_id": sess.ID, "device": sess.Device})

	return &LoginResult{
		Tokens:           pair,
		User:             u.Project(),
		SessionExpiresAt: sess.AccessExpiresAt,
	}, nil
}

// Refresh rotates a token pair. The old session is revoked with a conditional
// update so that of two concurrent calls presenting the same refresh token,
// exactly one wins; the loser observes the already-revoked row.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*RefreshResult, error) {
	sessionID, userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, autherr.New(autherr.CodeInvalidToken, "invalid or expired token")
	}
	now := s.now()

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, autherr.Internal()
	}
	if sess == nil || sess.UserID != userID || !sess.ValidForRefresh(now) {
		return nil, invalidSession()
	}
	if !security.TokenDigestEqual(refreshToken, sess.RefreshTokenDigest) {
		return nil, invalidSession()
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, autherr.Internal()
	}
	if u == nil || !u.Active {
		return nil, invalidSession()
	}

	won, err := s.sessions.RevokeIfActive(ctx, sess.ID, sessiondomain.ReasonTokenRefresh, now)
	if err != nil {
		return nil, autherr.Internal()
	}
	if !won {
		return nil, invalidSession()
	}

	next, pair, err := s.mintSession(ctx, u, ip, userAgent, now)
	if err != nil {
		return nil, autherr.Internal()
	}
	s.auditor.LogAuth(ctx, u.TenantID, u.ID, audit.ActionTokenRefresh, true, ip, userAgent,
		map[string]string{"old_session_id": sess.ID, "new_session_id": next.ID})

	return &RefreshResult{Tokens: pair, SessionExpiresAt: next.AccessExpiresAt}, nil
}

// Logout revokes the session behind an access token. Idempotent: logging out
// an already-revoked or unknown session is not an error.
func (s *AuthService) Logout(ctx context.Context, accessToken, ip string) error {
	claims, err := s.tokens.ValidateAccess(accessToken)
	if err != nil {
		return nil
	}
	sess, err := s.sessions.GetByID(ctx, claims.ID)
	if err != nil {
		return autherr.Internal()
	}
	if sess == nil {
		return nil
	}
	revoked, err := s.sessions.RevokeIfActive(ctx, sess.ID, sessiondomain.ReasonLogout, s.now())
	if err != nil {
		return autherr.Internal()
	}
	if revoked {
		s.auditor.LogAuth(ctx, claims.TenantID, claims.Subject, audit.ActionLogout, true, ip, sess.UserAgent,
			map[string]string{"session_id": sess.ID})
	}
	return nil
}

// LogoutAll revokes every active session of the user except exceptSessionID
// (pass "" to revoke all). Returns the number revoked.
func (s *AuthService) LogoutAll(ctx context.Context, userID, exceptSessionID, ip string) (int64, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, autherr.Internal()
	}
	if u == nil {
		return 0, autherr.New(autherr.CodeUserNotFound, "user not found")
	}
	n, err := s.sessions.RevokeAllByUser(ctx, userID, exceptSessionID, sessiondomain.ReasonLogoutAll, s.now())
	if err != nil {
		return 0, autherr.Internal()
	}
	s.auditor.LogAuth(ctx, u.TenantID, userID, audit.ActionLogoutAllSessions, true, ip, "",
		map[string]int64{"revoked_count": n})
	return n, nil
}

// ChangePassword replaces the user's password after verifying the current one,
// then revokes every other session so stolen tokens stop working immediately.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, currentSessionID, ip string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return autherr.Internal()
	}
	if u == nil {
		return autherr.New(autherr.CodeUserNotFound, "user not found")
	}

	if !s.hasher.Verify(u.PasswordHash, currentPassword) {
		s.auditor.LogAuth(ctx, u.TenantID, u.ID, audit.ActionPasswordChangeFailed, false, ip, "",
			map[string]string{"reason": "wrong_password"})
		return autherr.New(autherr.CodeWrongPassword, "current password is incorrect")
	}
	if r := password.Evaluate(newPassword); !r.Valid {
		return autherr.WeakPassword(r.Feedback)
	}
	if s.hasher.Verify(u.PasswordHash, newPassword) {
		return autherr.New(autherr.CodeSamePassword, "new password must differ from the current one")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return autherr.Internal()
	}
	now := s.now()
	if err := s.users.UpdatePassword(ctx, u.ID, hash, now); err != nil {
		return autherr.Internal()
	}
	revoked, err := s.sessions.RevokeAllByUser(ctx, u.ID, currentSessionID, sessiondomain.ReasonPasswordChange, now)
	if err != nil {
		return autherr.Internal()
	}
	s.auditor.LogAuth(ctx, u.TenantID, u.ID, audit.ActionPasswordChangeSuccess, true, ip, "",
		map[string]int64{"sessions_revoked": revoked})
	return nil
}

// RequestPasswordReset issues a single-use reset token if the email exists.
// The return is identical either way so account existence is never revealed;
// delivering the token is a collaborator's job.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, ip string) error {
	email = NormalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return autherr.Internal()
	}
	if u == nil || !u.Active {
		return nil
	}

	token, err := security.NewResetToken()
	if err != nil {
		return autherr.Internal()
	}
	if err := s.users.SetResetToken(ctx, u.ID, token, s.now().Add(s.resetTTL)); err != nil {
		return autherr.Internal()
	}
	s.auditor.LogAuth(ctx, u.TenantID, u.ID, audit.ActionPasswordResetRequested, true, ip, "", nil)
	return nil
}

// ResetPassword consumes a reset token, replaces the password and revokes
// every session of the user. The token is single-use: UpdatePassword clears
// it, so a second call with the same token fails the lookup.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, ip string) error {
	if token == "" {
		return invalidResetToken()
	}
	u, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		return autherr.Internal()
	}
	now := s.now()
	if u == nil || u.ResetTokenExpiresAt == nil || !now.Before(*u.ResetTokenExpiresAt) {
		return invalidResetToken()
	}
	if r := password.Evaluate(newPassword); !r.Valid {
		return autherr.WeakPassword(r.Feedback)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return autherr.Internal()
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash, now); err != nil {
		return autherr.Internal()
	}
	if _, err := s.sessions.RevokeAllByUser(ctx, u.ID, "", sessiondomain.ReasonPasswordReset, now); err != nil {
		return autherr.Internal()
	}
	s.auditor.LogAuth(ctx, u.TenantID, u.ID, audit.ActionPasswordResetSuccess, true, ip, "", nil)
	return nil
}

// ValidateSession authorizes an access token against the session registry.
// Tokens are self-verifying but revocation only exists in the registry, so
// the registry is always consulted. The only side effect is the
// last-accessed touch.
func (s *AuthService) ValidateSession(ctx context.Context, accessToken string) (*ValidationResult, error) {
	claims, err := s.tokens.ValidateAccess(accessToken)
	if err != nil {
		return nil, autherr.New(autherr.CodeInvalidToken, "invalid or expired token")
	}
	now := s.now()

	sess, err := s.sessions.GetByID(ctx, claims.ID)
	if err != nil {
		return nil, autherr.Internal()
	}
	if sess == nil || sess.UserID != claims.Subject || !sess.ValidForAccess(now) {
		return nil, invalidSession()
	}
	if !security.TokenDigestEqual(accessToken, sess.AccessTokenDigest) {
		return nil, invalidSession()
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, autherr.Internal()
	}
	if u == nil || !u.Active {
		return nil, invalidSession()
	}

	if err := s.sessions.Touch(ctx, sess.ID, now); err != nil {
		log.Printf("auth: failed to touch session %s: %v", sess.ID, err)
	}
	return &ValidationResult{User: u.Project(), Session: sess.Describe()}, nil
}

// ListSessions returns the user's active sessions, most recently used first.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]sessiondomain.Descriptor, error) {
	sessions, err := s.sessions.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, autherr.Internal()
	}
	out := make([]sessiondomain.Descriptor, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.Describe())
	}
	return out, nil
}

// RevokeSession revokes one session. A user may revoke their own sessions
// (reason logout); an admin may revoke any session in their tenant with an
// explicit reason, defaulting to admin_action. Idempotent on already-revoked
// sessions.
func (s *AuthService) RevokeSession(ctx context.Context, sessionID, actorUserID string, actorRole userdomain.Role, reason sessiondomain.RevokeReason, ip string) error {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return autherr.Internal()
	}
	if sess == nil {
		return invalidSession()
	}

	if sess.UserID != actorUserID {
		if actorRole != userdomain.RoleAdmin {
			return invalidSession()
		}
		if reason == "" {
			reason = sessiondomain.ReasonAdminAction
		}
	} else if reason == "" {
		reason = sessiondomain.ReasonLogout
	}

	revoked, err := s.sessions.RevokeIfActive(ctx, sess.ID, reason, s.now())
	if err != nil {
		return autherr.Internal()
	}
	if revoked {
		owner, err := s.users.GetByID(ctx, sess.UserID)
		tenantID := ""
		if err == nil && owner != nil {
			tenantID = owner.TenantID
		}
		s.auditor.LogAuth(ctx, tenantID, actorUserID, audit.ActionSessionRevoked, true, ip, "",
			map[string]string{"session_id": sess.ID, "owner_user_id": sess.UserID, "reason": string(reason)})
	}
	return nil
}

// CleanupExpired runs one retention sweep. See Cleaner.Run.
func (s *AuthService) CleanupExpired(ctx context.Context) (*CleanupReport, error) {
	report, err := s.cleaner.Run(ctx)
	if err != nil {
		return nil, autherr.Internal()
	}
	return report, nil
}

// mintSession creates the session row and its token pair. The row stores
// digests of both tokens, never the raw values.
func (s *AuthService) mintSession(ctx context.Context, u *userdomain.User, ip, userAgent string, now time.Time) (*sessiondomain.Session, TokenPair, error) {
	sessionID := uuid.New().String()

	accessToken, accessExp, err := s.tokens.IssueAccess(sessionID, u.ID, u.TenantID, string(u.Role), now)
	if err != nil {
		return nil, TokenPair{}, err
	}
	refreshToken, refreshExp, err := s.tokens.IssueRefresh(sessionID, u.ID, now)
	if err != nil {
		return nil, TokenPair{}, err
	}

	sess := &sessiondomain.Session{
		ID:                 sessionID,
		UserID:             u.ID,
		AccessTokenDigest:  security.TokenDigest(accessToken),
		RefreshTokenDigest: security.TokenDigest(refreshToken),
		IPAddress:          ip,
		UserAgent:          userAgent,
		Device:             sessiondomain.DeviceFromUserAgent(userAgent),
		IssuedAt:           now,
		AccessExpiresAt:    accessExp,
		RefreshExpiresAt:   refreshExp,
		Active:             true,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, TokenPair{}, err
	}
	return sess, TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email, ip, userAgent string, reason attemptdomain.FailureReason, userID string) {
	if err := s.tracker.RecordFailure(ctx, email, ip, userAgent, reason, userID); err != nil {
		log.Printf("auth: failed to record attempt for %s: %v", email, err)
	}
}

func invalidCredentials() *autherr.Error {
	return autherr.New(autherr.CodeInvalidCredentials, "invalid email or password")
}

func invalidSession() *autherr.Error {
	return autherr.New(autherr.CodeInvalidSession, "session is no longer valid")
}

func invalidResetToken() *autherr.Error {
	return autherr.New(autherr.CodeInvalidToken, "invalid or expired reset token")
}
