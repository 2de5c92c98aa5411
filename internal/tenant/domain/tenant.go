package domain

import "time"

// Tenant is the subscribing company a user belongs to. The auth core only
// reads tenant status; tenant lifecycle is owned by collaborators.
type Tenant struct {
	ID                    string
	Name                  string
	Active                bool
	SubscriptionExpiresAt *time.Time
	CreatedAt             time.Time
}

// SubscriptionValid reports whether the tenant's subscription is current at
// the given instant. A nil expiry means no fixed term.
func (t *Tenant) SubscriptionValid(now time.Time) bool {
	if t.SubscriptionExpiresAt == nil {
		return true
	}
	return now.Before(*t.SubscriptionExpiresAt)
}
