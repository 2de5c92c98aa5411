// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev admin (admin@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"shelfguard/backend/internal/config"
	"shelfguard/backend/internal/db"
	"shelfguard/backend/internal/security"
	tenantdomain "shelfguard/backend/internal/tenant/domain"
	tenantrepo "shelfguard/backend/internal/tenant/repository"
	userdomain "shelfguard/backend/internal/user/domain"
	userrepo "shelfguard/backend/internal/user/repository"
)

const (
	adminEmail    = "admin@example.com"
	operatorEmail = "operator@example.com"
	devPassword   = "Secret123!"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	users := userrepo.NewPostgresRepository(pool)
	tenants := tenantrepo.NewPostgresRepository(pool)

	existing, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash(devPassword)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	subscriptionEnd := now.AddDate(1, 0, 0)

	tenantID := uuid.New().String()
	if err := tenants.Create(ctx, &tenantdomain.Tenant{
		ID:                    tenantID,
		Name:                  "Acme Dev",
		Active:                true,
		SubscriptionExpiresAt: &subscriptionEnd,
		CreatedAt:             now,
	}); err != nil {
		log.Fatalf("create tenant: %v", err)
	}

	admin := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Role:         userdomain.RoleAdmin,
		TenantID:     tenantID,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("create admin user: %v", err)
	}

	operator := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        operatorEmail,
		PasswordHash: passwordHash,
		Role:         userdomain.RoleOperator,
		TenantID:     tenantID,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, operator); err != nil {
		log.Fatalf("create operator user: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s / %s\n", adminEmail, devPassword)
	fmt.Printf("Operator login: %s / %s\n", operatorEmail, devPassword)
}
