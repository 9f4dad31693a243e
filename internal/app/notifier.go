package app

import (
	"context"

	"giftcard_tracker_bot/internal/domain/reminder"
)

// Notifier is the notification-delivery boundary the reminder scheduler talks to.
type Notifier interface {
	// RequestPermission asks the chat for permission, only if it has not been determined yet.
	RequestPermission(ctx context.Context, chatID int64) error
	// Register schedules r for delivery at r.FireAt, replacing a reminder with the same ID.
	Register(ctx context.Context, r *reminder.Reminder) error
	// Cancel removes pending reminders by ID. Unknown IDs are not an error.
	Cancel(ctx context.Context, ids []string) error
	// PendingForCard lists the card's registered reminders that have not fired yet.
	PendingForCard(ctx context.Context, cardID string) ([]*reminder.Reminder, error)
}
