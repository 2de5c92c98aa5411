package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "shelfguard-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "shelfguard-auth")
	}
	if cfg.JWTAudience != "shelfguard-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "shelfguard-api")
	}
	if cfg.MaxLoginAttempts != 5 {
		t.Errorf("MaxLoginAttempts = %d, want 5", cfg.MaxLoginAttempts)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if got := cfg.AccessTTL(); got != 24*time.Hour {
		t.Errorf("AccessTTL = %v, want 24h", got)
	}
	if got := cfg.RefreshTTL(); got != 168*time.Hour {
		t.Errorf("RefreshTTL = %v, want 168h", got)
	}
	if got := cfg.ResetTTL(); got != 2*time.Hour {
		t.Errorf("ResetTTL = %v, want 2h", got)
	}
	if got := cfg.LockoutWindow(); got != time.Hour {
		t.Errorf("LockoutWindow = %v, want 1h", got)
	}
	if got := cfg.SessionRetention(); got != 2160*time.Hour {
		t.Errorf("SessionRetention = %v, want 2160h", got)
	}
	if got := cfg.AuditRetention(); got != 720*time.Hour {
		t.Errorf("AuditRetention = %v, want 720h", got)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should default to true")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("MAX_LOGIN_ATTEMPTS", "3")
	os.Setenv("LOCKOUT_WINDOW", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.MaxLoginAttempts != 3 {
		t.Errorf("MaxLoginAttempts = %d, want 3", cfg.MaxLoginAttempts)
	}
	if got := cfg.LockoutWindow(); got != 30*time.Minute {
		t.Errorf("LockoutWindow = %v, want 30m", got)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("Load with BCRYPT_COST=99 should fail")
	}
}

func TestLoad_InvalidMaxAttempts(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("MAX_LOGIN_ATTEMPTS", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("Load with negative MAX_LOGIN_ATTEMPTS should fail")
	}
}

func TestDurations_FallBackOnGarbage(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("ACCESS_TTL", "not-a-duration")
	os.Setenv("SWEEP_INTERVAL", "-5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.AccessTTL(); got != 24*time.Hour {
		t.Errorf("AccessTTL fallback = %v, want 24h", got)
	}
	if got := cfg.SweepInterval(); got != time.Hour {
		t.Errorf("SweepInterval fallback = %v, want 1h", got)
	}
}
