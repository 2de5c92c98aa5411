package handler

import (
	"net/http"
	"time"
)

// Cookie names for the cookie transport path. Both are httpOnly; scripts
// never see token material.
const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

// setTokenCookies writes the token pair as httpOnly cookies. With rememberMe
// the cookies persist for the refresh TTL; otherwise they are session cookies
// dropped when the browser closes.
func (h *Handler) setTokenCookies(w http.ResponseWriter, accessToken, refreshToken string, rememberMe bool) {
	maxAge := 0
	if rememberMe {
		maxAge = int(h.refreshTTL / time.Second)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    refreshToken,
		Path:     "/api/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearTokenCookies expires both token cookies.
func (h *Handler) clearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: accessCookie, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, Secure: h.cookieSecure, SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name: refreshCookie, Value: "", Path: "/api/auth", MaxAge: -1,
		HttpOnly: true, Secure: h.cookieSecure, SameSite: http.SameSiteStrictMode,
	})
}
