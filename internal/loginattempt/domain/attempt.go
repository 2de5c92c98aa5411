package domain

import "time"

// FailureReason records why an authentication attempt was rejected.
type FailureReason string

const (
	ReasonInvalidEmail        FailureReason = "invalid_email"
	ReasonBlocked             FailureReason = "blocked"
	ReasonUserNotFound        FailureReason = "user_not_found"
	ReasonUserInactive        FailureReason = "user_inactive"
	ReasonWrongPassword       FailureReason = "wrong_password"
	ReasonCompanyInactive     FailureReason = "company_inactive"
	ReasonSubscriptionExpired FailureReason = "subscription_expired"
)

// Attempt is one authentication attempt, success or failure. Rows are
// append-only; they are never updated and are only read by count-in-window
// queries for lockout accounting.
type Attempt struct {
	ID            int64
	Email         string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason FailureReason
	UserID        string
	BlockedUntil  *time.Time
	CreatedAt     time.Time
}
