// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "shelfguard-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "shelfguard-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// AccessTTLRaw is the access token and session lifetime (e.g. "24h").
	AccessTTLRaw string `mapstructure:"ACCESS_TTL"`
	// RefreshTTLRaw is the refresh token lifetime (e.g. "168h" for 7d).
	RefreshTTLRaw string `mapstructure:"REFRESH_TTL"`
	// ResetTTLRaw is the password reset token lifetime (e.g. "2h").
	ResetTTLRaw string `mapstructure:"RESET_TTL"`
	// MaxLoginAttempts is the failed-attempt threshold per email or IP within the lockout window.
	MaxLoginAttempts int `mapstructure:"MAX_LOGIN_ATTEMPTS"`
	// LockoutWindowRaw is the sliding window over which failed attempts are counted (e.g. "1h").
	LockoutWindowRaw string `mapstructure:"LOCKOUT_WINDOW"`
	// SessionRetentionRaw is how long session rows are kept before the sweep hard-deletes them (e.g. "2160h" for 90d).
	SessionRetentionRaw string `mapstructure:"SESSION_RETENTION"`
	// AttemptRetentionRaw is how long login attempt rows are kept (e.g. "720h" for 30d).
	AttemptRetentionRaw string `mapstructure:"ATTEMPT_RETENTION"`
	// AuditRetentionRaw is how long audit events are kept (e.g. "720h" for 30d).
	AuditRetentionRaw string `mapstructure:"AUDIT_RETENTION"`
	// SweepIntervalRaw is how often the sweeper runs the cleanup pass (e.g. "1h").
	SweepIntervalRaw string `mapstructure:"SWEEP_INTERVAL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// OTLPEndpoint is the OTLP gRPC endpoint for traces; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// CookieSecure controls the Secure attribute on auth cookies; disable only for local development.
	CookieSecure bool `mapstructure:"COOKIE_SECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_ISSUER", "shelfguard-auth")
	v.SetDefault("JWT_AUDIENCE", "shelfguard-api")
	v.SetDefault("ACCESS_TTL", "24h")
	v.SetDefault("REFRESH_TTL", "168h") // 7d
	v.SetDefault("RESET_TTL", "2h")
	v.SetDefault("MAX_LOGIN_ATTEMPTS", 5)
	v.SetDefault("LOCKOUT_WINDOW", "1h")
	v.SetDefault("SESSION_RETENTION", "2160h") // 90d
	v.SetDefault("ATTEMPT_RETENTION", "720h")  // 30d
	v.SetDefault("AUDIT_RETENTION", "720h")    // 30d
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.MaxLoginAttempts <= 0 {
		return nil, errors.New("config: MAX_LOGIN_ATTEMPTS must be positive")
	}

	return &cfg, nil
}

// AccessTTL parses ACCESS_TTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return duration(c.AccessTTLRaw, 24*time.Hour)
}

// RefreshTTL parses REFRESH_TTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return duration(c.RefreshTTLRaw, 168*time.Hour)
}

// ResetTTL parses RESET_TTL as a time.Duration. Returns 2h if unset or invalid.
func (c *Config) ResetTTL() time.Duration {
	return duration(c.ResetTTLRaw, 2*time.Hour)
}

// LockoutWindow parses LOCKOUT_WINDOW as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) LockoutWindow() time.Duration {
	return duration(c.LockoutWindowRaw, time.Hour)
}

// SessionRetention parses SESSION_RETENTION as a time.Duration. Returns 90d if unset or invalid.
func (c *Config) SessionRetention() time.Duration {
	return duration(c.SessionRetentionRaw, 2160*time.Hour)
}

// AttemptRetention parses ATTEMPT_RETENTION as a time.Duration. Returns 30d if unset or invalid.
func (c *Config) AttemptRetention() time.Duration {
	return duration(c.AttemptRetentionRaw, 720*time.Hour)
}

// AuditRetention parses AUDIT_RETENTION as a time.Duration. Returns 30d if unset or invalid.
func (c *Config) AuditRetention() time.Duration {
	return duration(c.AuditRetentionRaw, 720*time.Hour)
}

// SweepInterval parses SWEEP_INTERVAL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) SweepInterval() time.Duration {
	return duration(c.SweepIntervalRaw, time.Hour)
}

func duration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
