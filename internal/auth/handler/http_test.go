package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	auditdomain "shelfguard/backend/internal/audit/domain"
	"shelfguard/backend/internal/auth/service"
	"shelfguard/backend/internal/loginattempt"
	attemptdomain "shelfguard/backend/internal/loginattempt/domain"
	"shelfguard/backend/internal/security"
	"shelfguard/backend/internal/server/middleware"
	sessiondomain "shelfguard/backend/internal/session/domain"
	tenantdomain "shelfguard/backend/internal/tenant/domain"
	userdomain "shelfguard/backend/internal/user/domain"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*userdomain.User
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u2 := *u
		return &u2, nil
	}
	return nil, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u2 := *u
			return &u2, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByResetToken(ctx context.Context, token string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			u2 := *u
			return &u2, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u2 := *u
	r.users[u.ID] = &u2
	return nil
}

func (r *memUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[userID]
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiresAt = nil
	u.UpdatedAt = at
	return nil
}

func (r *memUserRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	at2 := at
	r.users[userID].LastLoginAt = &at2
	return nil
}

func (r *memUserRepo) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[userID]
	u.ResetToken = &token
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

type memTenantRepo struct {
	tenants map[string]*tenantdomain.Tenant
}

func (r *memTenantRepo) GetByID(ctx context.Context, id string) (*tenantdomain.Tenant, error) {
	if t, ok := r.tenants[id]; ok {
		t2 := *t
		return &t2, nil
	}
	return nil, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*sessiondomain.Session
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s2 := *s
		return &s2, nil
	}
	return nil, nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.sessions[s.ID] = &s2
	return nil
}

func (r *memSessionRepo) ListActiveByUser(ctx context.Context, userID string) ([]*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*sessiondomain.Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.Active {
			s2 := *s
			out = append(out, &s2)
		}
	}
	return out, nil
}

func (r *memSessionRepo) RevokeIfActive(ctx context.Context, id string, reason sessiondomain.RevokeReason, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || !s.Active {
		return false, nil
	}
	at2 := at
	s.Active = false
	s.RevokedAt = &at2
	s.RevokeReason = reason
	return true, nil
}

func (r *memSessionRepo) RevokeAllByUser(ctx context.Context, userID, exceptID string, reason sessiondomain.RevokeReason, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.sessions {
		if s.UserID != userID || !s.Active || s.ID == exceptID {
			continue
		}
		at2 := at
		s.Active = false
		s.RevokedAt = &at2
		s.RevokeReason = reason
		n++
	}
	return n, nil
}

func (r *memSessionRepo) Touch(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		at2 := at
		s.LastAccessedAt = &at2
	}
	return nil
}

func (r *memSessionRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (r *memSessionRepo) DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type memAttemptRepo struct {
	mu       sync.Mutex
	attempts []*attemptdomain.Attempt
}

func (r *memAttemptRepo) Create(ctx context.Context, a *attemptdomain.Attempt) error {
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
		if a.Email == email && !a.Success && a.FailureReason != attemptdomain.ReasonBlocked && !a.CreatedAt.Before(since) {
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
		if a.IPAddress == ip && !a.Success && a.FailureReason != attemptdomain.ReasonBlocked && !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *memAttemptRepo) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type memEventRepo struct {
	mu     sync.Mutex
	events []*auditdomain.Event
}

func (r *memEventRepo) Create(ctx context.Context, e *auditdomain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e2 := *e
	r.events = append(r.events, &e2)
	return nil
}

func (r *memEventRepo) ListByUser(ctx context.Context, userID string, limit int32) ([]*auditdomain.Event, error) {
	return nil, nil
}

func (r *memEventRepo) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type nopLogger struct{}

func (nopLogger) LogAuth(ctx context.Context, tenantID, userID, action string, success bool, ip, userAgent string, payload any) {
}

func newTestServer(t *testing.T) (http.Handler, *memSessionRepo) {
	t.Helper()
	tokens, err := security.NewTestTokenProvider(24*time.Hour, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	hasher := security.NewHasher(4)
	hash, err := hasher.Hash("Secret123!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	users := &memUserRepo{users: map[string]*userdomain.User{
		"u1": {ID: "u1", Email: "a@x.com", PasswordHash: hash, Role: userdomain.RoleOperator, TenantID: "t1", Active: true},
	}}
	tenants := &memTenantRepo{tenants: map[string]*tenantdomain.Tenant{
		"t1": {ID: "t1", Name: "Acme", Active: true},
	}}
	sessions := &memSessionRepo{sessions: map[string]*sessiondomain.Session{}}
	attempts := &memAttemptRepo{}
	events := &memEventRepo{}

	svc := service.NewAuthService(users, tenants, sessions,
		loginattempt.NewTracker(attempts, 5, time.Hour), nopLogger{}, events,
		hasher, tokens, 2*time.Hour,
		service.Retention{Sessions: 90 * 24 * time.Hour, Attempts: 30 * 24 * time.Hour, Events: 30 * 24 * time.Hour})

	h := NewHandler(svc, false, 7*24*time.Hour)
	return h.Routes(middleware.NewAuthenticator(svc)), sessions
}

func doJSON(t *testing.T, srv http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestLogin_SetsCookiesAndReturnsTokens(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login",
		`{"email":"a@x.com","password":"Secret123!","remember_me":true}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var body struct {
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Tokens.AccessToken == "" || body.Tokens.RefreshToken == "" {
		t.Fatal("expected a token pair in the response body")
	}
	if body.User.Email != "a@x.com" {
		t.Errorf("user email = %q", body.User.Email)
	}

	cookies := rec.Result().Cookies()
	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
	}
	access, ok := byName["access_token"]
	if !ok || !access.HttpOnly {
		t.Fatal("expected an httpOnly access_token cookie")
	}
	if access.MaxAge <= 0 {
		t.Error("remember_me should yield a persistent cookie")
	}
	if refresh, ok := byName["refresh_token"]; !ok || refresh.Path != "/api/auth" {
		t.Error("refresh cookie should be scoped to /api/auth")
	}
}

func TestLogin_WithoutRememberMeUsesSessionCookies(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login",
		`{"email":"a@x.com","password":"Secret123!"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge != 0 {
			t.Errorf("cookie %s should be a session cookie, got MaxAge %d", c.Name, c.MaxAge)
		}
	}
}

func TestLogin_ErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"wrong password", `{"email":"a@x.com","password":"nope"}`, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"malformed email", `{"email":"nope","password":"x"}`, http.StatusBadRequest, "INVALID_EMAIL"},
		{"missing fields", `{"email":"a@x.com"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad json", `{`, http.StatusBadRequest, "INVALID_JSON"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", tc.body, nil)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.status, rec.Body)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tc.code {
				t.Errorf("error code = %q, want %q", body.Error.Code, tc.code)
			}
		})
	}
}

func TestLogin_LockoutReturns429(t *testing.T) {
	srv, _ := newTestServer(t)

	for i := 0; i < 5; i++ {
		doJSON(t, srv, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"nope"}`, nil)
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"Secret123!"}`, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 (body %s)", rec.Code, rec.Body)
	}
}

func TestMe_RequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMe_WithBearerToken(t *testing.T) {
	srv, _ := newTestServer(t)

	login := doJSON(t, srv, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"Secret123!"}`, nil)
	var body struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(login.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+body.Tokens.AccessToken)
	rec := doJSON(t, srv, http.MethodGet, "/api/auth/me", "", hdr)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var me struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me.User.ID != "u1" || me.Session.ID == "" {
		t.Errorf("unexpected identity: %+v", me)
	}
}

func TestRefresh_FromCookie(t *testing.T) {
	srv, _ := newTestServer(t)

	login := doJSON(t, srv, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"Secret123!"}`, nil)
	var refreshToken string
	for _, c := range login.Result().Cookies() {
		if c.Name == "refresh_token" {
			refreshToken = c.Value
		}
	}
	if refreshToken == "" {
		t.Fatal("login should have set a refresh cookie")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refreshToken})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	// The replayed cookie now belongs to a revoked session.
	rec2 := httptest.NewRecorder()
	srv.ServeHTTP(rec2, req.Clone(req.Context()))
	if rec2.Code != http.StatusUnauthorized {
		t.Fatalf("replayed refresh: status = %d, want 401", rec2.Code)
	}
}

func TestLogout_RevokesAndClearsCookies(t *testing.T) {
	srv, sessions := newTestServer(t)

	login := doJSON(t, srv, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"Secret123!"}`, nil)
	var body struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(login.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+body.Tokens.AccessToken)
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/logout", "", hdr)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Errorf("cookie %s should be expired on logout", c.Name)
		}
	}
	for _, s := range sessions.sessions {
		if s.Active {
			t.Error("session should be revoked after logout")
		}
	}

	// Logging out again is still a 200.
	rec2 := doJSON(t, srv, http.MethodPost, "/api/auth/logout", "", hdr)
	if rec2.Code != http.StatusOK {
		t.Fatalf("repeated logout: status = %d", rec2.Code)
	}
}

func TestChangePassword_WeakPasswordFeedback(t *testing.T) {
	srv, _ := newTestServer(t)

	login := doJSON(t, srv, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"Secret123!"}`, nil)
	var body struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(login.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+body.Tokens.AccessToken)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/change-password",
		`{"current_password":"Secret123!","new_password":"weak"}`, hdr)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var errBody struct {
		Error struct {
			Code     string   `json:"code"`
			Feedback []string `json:"feedback"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errBody.Error.Code != "WEAK_PASSWORD" || len(errBody.Error.Feedback) == 0 {
		t.Errorf("expected WEAK_PASSWORD with feedback, got %+v", errBody.Error)
	}
}

func TestSessions_ListAndRevoke(t *testing.T) {
	srv, _ := newTestServer(t)

	first := doJSON(t, srv, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"Secret123!"}`, nil)
	second := doJSON(t, srv, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"Secret123!"}`, nil)
	var firstBody, secondBody struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &firstBody); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &secondBody); err != nil {
		t.Fatalf("decode: %v", err)
	}

	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+secondBody.Tokens.AccessToken)
	rec := doJSON(t, srv, http.MethodGet, "/api/auth/sessions", "", hdr)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var listing struct {
		Sessions []struct {
			ID string `json:"id"`
		} `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listing.Sessions) != 2 {
		t.Fatalf("expected 2 active sessions, got %d", len(listing.Sessions))
	}

	// Revoke the first session from the second one.
	var target string
	meHdr := http.Header{}
	meHdr.Set("Authorization", "Bearer "+firstBody.Tokens.AccessToken)
	me := doJSON(t, srv, http.MethodGet, "/api/auth/me", "", meHdr)
	var meBody struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(me.Body.Bytes(), &meBody); err != nil {
		t.Fatalf("decode: %v", err)
	}
	target = meBody.Session.ID

	rec = doJSON(t, srv, http.MethodDelete, "/api/auth/sessions/"+target, "", hdr)
	if rec.Code != http.StatusOK {
		t.Fatalf("revoke status = %d, body %s", rec.Code, rec.Body)
	}

	// The revoked session's token is dead.
	rec = doJSON(t, srv, http.MethodGet, "/api/auth/me", "", meHdr)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("revoked session should fail auth, got %d", rec.Code)
	}
}

func TestRequestPasswordReset_UniformResponse(t *testing.T) {
	srv, _ := newTestServer(t)

	known := doJSON(t, srv, http.MethodPost, "/api/auth/request-password-reset", `{"email":"a@x.com"}`, nil)
	unknown := doJSON(t, srv, http.MethodPost, "/api/auth/request-password-reset", `{"email":"ghost@x.com"}`, nil)
	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("both must be 200, got %d/%d", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Error("responses must be identical regardless of account existence")
	}
}
