package reminder

import (
	"database/sql"
	"fmt"
	"time"
)

// Status is the delivery state of a registered reminder.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusSkipped Status = "SKIPPED" // Fire time reached but the chat has not granted permission
	StatusFailed  Status = "FAILED"
)

// Reminder is a scheduled notification tied to one gift card and one offset.
type Reminder struct {
	ID         string // "<cardID>_<offset>d"
	CardID     string
	ChatID     int64
	OffsetDays int
	FireAt     time.Time
	Title      string
	Body       string
	Status     Status
	Attempts   int
	LastError  sql.NullString
	SentAt     sql.NullTime
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ID builds the reminder key for a card and an offset in days.
func ID(cardID string, offsetDays int) string {
	return fmt.Sprintf("%s_%dd", cardID, offsetDays)
}
