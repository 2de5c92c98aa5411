package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"shelfguard/backend/internal/auth/service"
	"shelfguard/backend/internal/autherr"
)

const bearerPrefix = "bearer "

// AccessCookie is the httpOnly cookie carrying the access token on the
// cookie transport path.
const AccessCookie = "access_token"

// AccessToken returns the access token from the Authorization header or the
// access cookie, preferring the header. Empty when neither is present.
func AccessToken(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("Authorization")); v != "" {
		if len(v) >= len(bearerPrefix) && strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
			return strings.TrimSpace(v[len(bearerPrefix):])
		}
		return ""
	}
	if c, err := r.Cookie(AccessCookie); err == nil {
		return c.Value
	}
	return ""
}

// Authenticator validates bearer tokens against the session registry and
// injects the caller's identity into the request context.
type Authenticator struct {
	svc *service.AuthService
}

// NewAuthenticator returns an Authenticator backed by svc.
func NewAuthenticator(svc *service.AuthService) *Authenticator {
	return &Authenticator{svc: svc}
}

// Require rejects requests without a valid, unrevoked session. Validation
// always consults the session registry so that revocation takes effect before
// token expiry.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := AccessToken(r)
		if token == "" {
			unauthorized(w, autherr.CodeInvalidToken, "missing or invalid authorization")
			return
		}
		res, err := a.svc.ValidateSession(r.Context(), token)
		if err != nil {
			unauthorized(w, autherr.CodeOf(err), "missing or invalid authorization")
			return
		}
		ctx := WithIdentity(r.Context(), res.User.ID, res.User.TenantID, res.Session.ID, string(res.User.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a handler on the admin role. Must run inside Require.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := GetRole(r.Context())
		if !ok || role != "admin" {
			writeErrorJSON(w, http.StatusForbidden, "FORBIDDEN", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, code autherr.Code, message string) {
	writeErrorJSON(w, http.StatusUnauthorized, string(code), message)
}

func writeErrorJSON(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
