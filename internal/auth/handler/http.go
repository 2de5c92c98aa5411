// Package handler exposes the authentication service over HTTP. Request and
// response shapes are JSON; errors carry a stable machine code the frontend
// branches on. Both Authorization headers and the httpOnly cookie pair are
// accepted.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"shelfguard/backend/internal/auth/service"
	"shelfguard/backend/internal/autherr"
	"shelfguard/backend/internal/server/middleware"
	sessiondomain "shelfguard/backend/internal/session/domain"
	userdomain "shelfguard/backend/internal/user/domain"
)

type Handler struct {
	svc          *service.AuthService
	cookieSecure bool
	refreshTTL   time.Duration
}

// NewHandler returns the auth HTTP handler. cookieSecure controls the Secure
// flag on issued cookies; refreshTTL bounds the remember-me cookie lifetime.
func NewHandler(svc *service.AuthService, cookieSecure bool, refreshTTL time.Duration) *Handler {
	return &Handler{svc: svc, cookieSecure: cookieSecure, refreshTTL: refreshTTL}
}

// Routes wires the auth endpoints. auth guards the session-scoped routes.
func (h *Handler) Routes(auth *middleware.Authenticator) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)
	mux.HandleFunc("POST /api/auth/request-password-reset", h.handleRequestPasswordReset)
	mux.HandleFunc("POST /api/auth/reset-password", h.handleResetPassword)

	mux.Handle("GET /api/auth/me", auth.Require(http.HandlerFunc(h.handleMe)))
	mux.Handle("POST /api/auth/logout-all", auth.Require(http.HandlerFunc(h.handleLogoutAll)))
	mux.Handle("POST /api/auth/change-password", auth.Require(http.HandlerFunc(h.handleChangePassword)))
	mux.Handle("GET /api/auth/sessions", auth.Require(http.HandlerFunc(h.handleListSessions)))
	mux.Handle("DELETE /api/auth/sessions/{id}", auth.Require(http.HandlerFunc(h.handleRevokeSession)))

	return mux
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "email and password are required", nil)
		return
	}

	res, err := h.svc.Authenticate(r.Context(), req.Email, req.Password, middleware.ClientIP(r), r.UserAgent())
	if err != nil {
		writeAuthError(w, err)
		return
	}
	h.setTokenCookies(w, res.Tokens.AccessToken, res.Tokens.RefreshToken, req.RememberMe)
	writeJSON(w, http.StatusOK, res)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	RememberMe   bool   `json:"remember_me"`
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.Header.Get("Content-Type") != "" && r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}
	if req.RefreshToken == "" {
		if c, err := r.Cookie(refreshCookie); err == nil {
			req.RefreshToken = c.Value
		}
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "refresh_token is required", nil)
		return
	}

	res, err := h.svc.Refresh(r.Context(), req.RefreshToken, middleware.ClientIP(r), r.UserAgent())
	if err != nil {
		h.clearTokenCookies(w)
		writeAuthError(w, err)
		return
	}
	h.setTokenCookies(w, res.Tokens.AccessToken, res.Tokens.RefreshToken, req.RememberMe)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// An absent or stale token still clears cookies.
	if token := middleware.AccessToken(r); token != "" {
		if err := h.svc.Logout(r.Context(), token, middleware.ClientIP(r)); err != nil {
			writeAuthError(w, err)
			return
		}
	}
	h.clearTokenCookies(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	sessionID, _ := middleware.GetSessionID(r.Context())

	n, err := h.svc.LogoutAll(r.Context(), userID, sessionID, middleware.ClientIP(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"revoked_count": n})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "current_password and new_password are required", nil)
		return
	}
	userID, _ := middleware.GetUserID(r.Context())
	sessionID, _ := middleware.GetSessionID(r.Context())

	if err := h.svc.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword, sessionID, middleware.ClientIP(r)); err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type resetRequestPayload struct {
	Email string `json:"email"`
}

func (h *Handler) handleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequestPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "email is required", nil)
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), req.Email, middleware.ClientIP(r)); err != nil {
		writeAuthError(w, err)
		return
	}
	// Identical response whether or not the account exists.
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "if the email exists, a reset link has been sent",
	})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "token and new_password are required", nil)
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword, middleware.ClientIP(r)); err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	// Require already validated the session; validate again to return the
	// full projection and descriptor in one stable shape.
	res, err := h.svc.ValidateSession(r.Context(), middleware.AccessToken(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	sessions, err := h.svc.ListSessions(r.Context(), userID)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *Handler) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	userID, _ := middleware.GetUserID(r.Context())
	role, _ := middleware.GetRole(r.Context())

	// Admins may supply an explicit reason; it defaults server-side.
	reason := sessiondomain.RevokeReason(r.URL.Query().Get("reason"))

	if err := h.svc.RevokeSession(r.Context(), sessionID, userID, userdomain.Role(role), reason, middleware.ClientIP(r)); err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON payload", nil)
		return false
	}
	return true
}

// writeAuthError maps a service error onto an HTTP status and the stable
// error envelope. Weak-password errors carry the itemized feedback.
func writeAuthError(w http.ResponseWriter, err error) {
	code := autherr.CodeOf(err)
	writeError(w, statusFor(code), string(code), err.Error(), autherr.FeedbackOf(err))
}

func statusFor(code autherr.Code) int {
	switch code {
	case autherr.CodeInvalidEmail, autherr.CodeWeakPassword, autherr.CodeSamePassword:
		return http.StatusBadRequest
	case autherr.CodeInvalidCredentials, autherr.CodeInvalidToken, autherr.CodeInvalidSession:
		return http.StatusUnauthorized
	case autherr.CodeAccountInactive, autherr.CodeCompanyInactive, autherr.CodeSubscriptionExpired, autherr.CodeWrongPassword:
		return http.StatusForbidden
	case autherr.CodeAccountBlocked:
		return http.StatusTooManyRequests
	case autherr.CodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Feedback []string `json:"feedback,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string, feedback []string) {
	writeJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: message, Feedback: feedback},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
