package domain

import "time"

// Category groups audit events by the subsystem that produced them.
type Category string

const (
	CategoryAuth   Category = "auth"
	CategoryCRUD   Category = "crud"
	CategorySystem Category = "system"
)

// Level is the severity of an audit event.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is one append-only audit record, retained for forensic review.
// OldData/NewData carry optional JSON payloads describing the state change.
type Event struct {
	ID        string
	TenantID  string
	UserID    string
	Action    string
	Category  Category
	Level     Level
	OldData   []byte
	NewData   []byte
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}
