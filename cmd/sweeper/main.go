// sweeper periodically expires and prunes sessions, login attempts and audit
// events past their retention windows. Safe to run alongside the API server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditrepo "shelfguard/backend/internal/audit/repository"
	"shelfguard/backend/internal/auth/service"
	"shelfguard/backend/internal/config"
	"shelfguard/backend/internal/db"
	attemptrepo "shelfguard/backend/internal/loginattempt/repository"
	sessionrepo "shelfguard/backend/internal/session/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	cleaner := service.NewCleaner(
		sessionrepo.NewPostgresRepository(pool),
		attemptrepo.NewPostgresRepository(pool),
		auditrepo.NewPostgresRepository(pool),
		service.Retention{
			Sessions: cfg.SessionRetention(),
			Attempts: cfg.AttemptRetention(),
			Events:   cfg.AuditRetention(),
		},
	)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("sweeper: shutting down...")
		cancel()
	}()

	interval := cfg.SweepInterval()
	log.Printf("sweeper: running every %s", interval)

	sweep(ctx, cleaner)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("sweeper: stopped")
			return
		case <-ticker.C:
			sweep(ctx, cleaner)
		}
	}
}

func sweep(ctx context.Context, cleaner *service.Cleaner) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	report, err := cleaner.Run(runCtx)
	if err != nil {
		log.Printf("sweeper: cleanup failed: %v", err)
		return
	}
	log.Printf("sweeper: expired=%d sessions_deleted=%d attempts_deleted=%d events_deleted=%d",
		report.SessionsExpired, report.SessionsDeleted, report.AttemptsDeleted, report.EventsDeleted)
}
