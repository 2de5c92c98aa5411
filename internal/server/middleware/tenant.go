package middleware

import (
	"net/http"
	"time"

	tenantrepo "shelfguard/backend/internal/tenant/repository"
)

// RequireActiveTenant gates a handler on the caller's tenant being active
// with a current subscription. Must run inside Require. Callers without a
// tenant (platform-level accounts) pass through.
func RequireActiveTenant(tenants tenantrepo.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, ok := GetTenantID(r.Context())
			if !ok || tenantID == "" {
				next.ServeHTTP(w, r)
				return
			}
			t, err := tenants.GetByID(r.Context(), tenantID)
			if err != nil {
				writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
				return
			}
			if t == nil || !t.Active {
				writeErrorJSON(w, http.StatusForbidden, "COMPANY_INACTIVE", "company account is inactive")
				return
			}
			if !t.SubscriptionValid(time.Now().UTC()) {
				writeErrorJSON(w, http.StatusForbidden, "SUBSCRIPTION_EXPIRED", "company subscription has expired")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
