// Package server assembles the HTTP handler chain and server.
package server

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"shelfguard/backend/internal/auth/handler"
	"shelfguard/backend/internal/server/middleware"
)

// Build assembles the full handler chain: recovery innermost of the ambient
// layers, then request logging, with otel tracing outermost. Auth gating is
// per-route inside the handler's mux.
func Build(h *handler.Handler, auth *middleware.Authenticator, serviceName string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/api/auth/", h.Routes(auth))

	chained := middleware.Logging(middleware.Recovery(mux))
	return otelhttp.NewHandler(chained, serviceName)
}

// New returns an http.Server for addr with standard timeouts.
func New(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
