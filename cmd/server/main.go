// server runs the authentication HTTP API.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shelfguard/backend/internal/audit"
	auditrepo "shelfguard/backend/internal/audit/repository"
	"shelfguard/backend/internal/auth/handler"
	"shelfguard/backend/internal/auth/service"
	"shelfguard/backend/internal/config"
	"shelfguard/backend/internal/db"
	"shelfguard/backend/internal/loginattempt"
	attemptrepo "shelfguard/backend/internal/loginattempt/repository"
	"shelfguard/backend/internal/security"
	"shelfguard/backend/internal/server"
	"shelfguard/backend/internal/server/middleware"
	sessionrepo "shelfguard/backend/internal/session/repository"
	"shelfguard/backend/internal/telemetry"
	tenantrepo "shelfguard/backend/internal/tenant/repository"
	userrepo "shelfguard/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	shutdownTelemetry := telemetry.Setup("shelfguard-auth", cfg.OTLPEndpoint)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("JWT_PRIVATE_KEY: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("JWT_PUBLIC_KEY: %v", err)
	}
	tokens := security.NewTokenProvider(privateKey, publicKey,
		cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())

	events := auditrepo.NewPostgresRepository(pool)
	svc := service.NewAuthService(
		userrepo.NewPostgresRepository(pool),
		tenantrepo.NewPostgresRepository(pool),
		sessionrepo.NewPostgresRepository(pool),
		loginattempt.NewTracker(attemptrepo.NewPostgresRepository(pool), cfg.MaxLoginAttempts, cfg.LockoutWindow()),
		audit.NewLogger(events),
		events,
		security.NewHasher(cfg.BcryptCost),
		tokens,
		cfg.ResetTTL(),
		service.Retention{
			Sessions: cfg.SessionRetention(),
			Attempts: cfg.AttemptRetention(),
			Events:   cfg.AuditRetention(),
		},
	)

	h := handler.NewHandler(svc, cfg.CookieSecure, cfg.RefreshTTL())
	srv := server.New(cfg.HTTPAddr, server.Build(h, middleware.NewAuthenticator(svc), "shelfguard-auth"))

	go func() {
		log.Printf("auth server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
