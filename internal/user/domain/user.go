package domain

import (
	"errors"
	"time"
)

// Role is the user's role within their tenant.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
)

// User is the core user entity. Email is stored lowercase and compared
// case-insensitively. Users are never deleted by the auth core.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	TenantID     string
	Active       bool
	LastLoginAt  *time.Time
	// ResetToken and ResetTokenExpiresAt hold the single-use password reset
	// token; both are cleared on successful reset.
	ResetToken          *string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.Role == "" {
		u.Role = RoleOperator
	}
	return nil
}

// Projection is the caller-facing view of a user, safe to serialize in
// login/validate responses (no hash, no reset token).
type Projection struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	TenantID    string     `json:"tenant_id,omitempty"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// Project returns the safe projection of u.
func (u *User) Project() Projection {
	return Projection{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		TenantID:    u.TenantID,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
	}
}
