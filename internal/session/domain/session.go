package domain

import (
	"strings"
	"time"
)

// RevokeReason records why a session left the active state. Revoked and
// expired are both terminal; no transition leaves them.
type RevokeReason string

const (
	ReasonLogout         RevokeReason = "logout"
	ReasonLogoutAll      RevokeReason = "logout_all"
	ReasonTokenRefresh   RevokeReason = "token_refresh"
	ReasonPasswordChange RevokeReason = "password_change"
	ReasonPasswordReset  RevokeReason = "password_reset"
	ReasonAdminAction    RevokeReason = "admin_action"
	ReasonExpired        RevokeReason = "expired"
	ReasonSecurity       RevokeReason = "security"
)

// Session is one issued token pair. ID is the jti embedded in both tokens
// and is immutable; token values are stored as SHA-256 digests. Once Active
// goes false it never returns to true.
type Session struct {
	ID                 string
	UserID             string
	AccessTokenDigest  string
	RefreshTokenDigest string
	IPAddress          string
	UserAgent          string
	Device             string
	IssuedAt           time.Time
	AccessExpiresAt    time.Time
	RefreshExpiresAt   time.Time
	Active             bool
	LastAccessedAt     *time.Time
	RevokedAt          *time.Time
	RevokeReason       RevokeReason
}

// ValidForAccess reports whether the session may authorize a request at the
// given instant: active and inside its access window.
func (s *Session) ValidForAccess(now time.Time) bool {
	return s.Active && now.Before(s.AccessExpiresAt)
}

// ValidForRefresh reports whether the session may be rotated at the given
// instant: active and inside its refresh window.
func (s *Session) ValidForRefresh(now time.Time) bool {
	return s.Active && now.Before(s.RefreshExpiresAt)
}

// Descriptor is the caller-facing view of a session for listing and
// introspection responses. Token digests are not exposed.
type Descriptor struct {
	ID              string       `json:"id"`
	IPAddress       string       `json:"ip_address,omitempty"`
	Device          string       `json:"device,omitempty"`
	IssuedAt        time.Time    `json:"issued_at"`
	AccessExpiresAt time.Time    `json:"access_expires_at"`
	LastAccessedAt  *time.Time   `json:"last_accessed_at,omitempty"`
	Active          bool         `json:"active"`
	RevokeReason    RevokeReason `json:"revoke_reason,omitempty"`
}

// Describe returns the safe descriptor of s.
func (s *Session) Describe() Descriptor {
	return Descriptor{
		ID:              s.ID,
		IPAddress:       s.IPAddress,
		Device:          s.Device,
		IssuedAt:        s.IssuedAt,
		AccessExpiresAt: s.AccessExpiresAt,
		LastAccessedAt:  s.LastAccessedAt,
		Active:          s.Active,
		RevokeReason:    s.RevokeReason,
	}
}

// DeviceFromUserAgent classifies a user agent into a coarse device
// descriptor stored on the session row.
func DeviceFromUserAgent(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case ua == "":
		return "Unknown"
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		return "Tablet"
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone"):
		return "Mobile"
	default:
		return "Desktop"
	}
}
