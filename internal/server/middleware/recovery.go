package middleware

import (
	"log"
	"net/http"
)

// Recovery turns a handler panic into a 500 response instead of tearing down
// the connection. Panics are reserved for programmer errors; expected
// failures travel as typed errors.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
