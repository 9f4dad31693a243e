package reminder

import (
	"context"
	"time"
)

// Repository defines operations for registered reminders.
type Repository interface {
	// Upsert registers a pending reminder, replacing any reminder with the same ID.
	Upsert(ctx context.Context, r *Reminder) error
	// DeletePending removes pending reminders by ID. Unknown IDs are ignored.
	DeletePending(ctx context.Context, ids []string) (int64, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Reminder, error)
	ListPendingByChat(ctx context.Context, chatID int64) ([]*Reminder, error)
	// ListPendingByCard returns every pending reminder of a card, whatever its offset.
	ListPendingByCard(ctx context.Context, cardID string) ([]*Reminder, error)
	Update(ctx context.Context, r *Reminder) error
	// PurgeFinished removes sent, skipped and failed reminders last updated before the cutoff.
	PurgeFinished(ctx context.Context, before time.Time) (int64, error)
}

// PermissionRepository stores each chat's permission answer.
type PermissionRepository interface {
	// Get returns PermissionNotDetermined for chats that were never asked.
	Get(ctx context.Context, chatID int64) (PermissionStatus, error)
	Set(ctx context.Context, chatID int64, status PermissionStatus) error
}
