package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"giftcard_tracker_bot/internal/domain/reminder"
	domainTelegram "giftcard_tracker_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	defaultMaxAttempts  = 3
	defaultDispatchSize = 100
)

// DispatchStats summarizes one DispatchDue run.
type DispatchStats struct {
	Sent    int
	Skipped int
	Retried int
	Failed  int
}

// NotificationCenter is the Notifier backed by the reminder store. Registered
// reminders wait in the store until DispatchDue delivers them over Telegram.
type NotificationCenter struct {
	reminderRepo   reminder.Repository
	permissionRepo reminder.PermissionRepository
	telegramClient domainTelegram.Client
	logger         *logrus.Entry
	maxAttempts    int
	now            func() time.Time
}

func NewNotificationCenter(
	rr reminder.Repository,
	pr reminder.PermissionRepository,
	tc domainTelegram.Client,
	logger *logrus.Entry,
	maxAttempts int,
) *NotificationCenter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &NotificationCenter{
		reminderRepo:   rr,
		permissionRepo: pr,
		telegramClient: tc,
		logger:         logger.WithField("component", "notification_center"),
		maxAttempts:    maxAttempts,
		now:            time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (c *NotificationCenter) SetClock(now func() time.Time) {
	c.now = now
}

// RequestPermission sends the permission prompt once per chat.
func (c *NotificationCenter) RequestPermission(ctx context.Context, chatID int64) error {
	status, err := c.permissionRepo.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to get permission status: %w", err)
	}
	if status.Determined() {
		return nil
	}

	replyMarkup := &telebot.ReplyMarkup{}
	btnYes := replyMarkup.Data("Yes, remind me", domainTelegram.CallbackPermission, "yes")
	btnNo := replyMarkup.Data("No thanks", domainTelegram.CallbackPermission, "no")
	replyMarkup.Inline(replyMarkup.Row(btnYes, btnNo))

	text := "May I send you a reminder before your gift cards expire?"
	if err := c.telegramClient.SendMessage(chatID, text, &telebot.SendOptions{ReplyMarkup: replyMarkup}); err != nil {
		return fmt.Errorf("failed to send permission prompt: %w", err)
	}
	if err := c.permissionRepo.Set(ctx, chatID, reminder.PermissionPending); err != nil {
		return fmt.Errorf("failed to store permission status: %w", err)
	}
	c.logger.WithField("chat_id", chatID).Info("Notification permission requested")
	return nil
}

// SetPermission records the chat's answer to the prompt.
func (c *NotificationCenter) SetPermission(ctx context.Context, chatID int64, granted bool) error {
	status := reminder.PermissionDenied
	if granted {
		status = reminder.PermissionGranted
	}
	if err := c.permissionRepo.Set(ctx, chatID, status); err != nil {
		return fmt.Errorf("failed to store permission status: %w", err)
	}
	c.logger.WithFields(logrus.Fields{"chat_id": chatID, "status": status}).Info("Notification permission updated")
	return nil
}

// Permission returns the chat's current permission status.
func (c *NotificationCenter) Permission(ctx context.Context, chatID int64) (reminder.PermissionStatus, error) {
	return c.permissionRepo.Get(ctx, chatID)
}

func (c *NotificationCenter) Register(ctx context.Context, r *reminder.Reminder) error {
	r.Status = reminder.StatusPending
	if err := c.reminderRepo.Upsert(ctx, r); err != nil {
		return err
	}
	c.logger.WithFields(logrus.Fields{"reminder_id": r.ID, "fire_at": r.FireAt}).Debug("Reminder registered")
	return nil
}

func (c *NotificationCenter) Cancel(ctx context.Context, ids []string) error {
	n, err := c.reminderRepo.DeletePending(ctx, ids)
	if err != nil {
		return err
	}
	c.logger.WithFields(logrus.Fields{"ids": ids, "removed": n}).Debug("Reminders cancelled")
	return nil
}

// Pending lists the chat's reminders that have not fired yet.
func (c *NotificationCenter) Pending(ctx context.Context, chatID int64) ([]*reminder.Reminder, error) {
	return c.reminderRepo.ListPendingByChat(ctx, chatID)
}

// PendingForCard lists the card's reminders that have not fired yet,
// including ones registered under offsets no longer configured.
func (c *NotificationCenter) PendingForCard(ctx context.Context, cardID string) ([]*reminder.Reminder, error) {
	return c.reminderRepo.ListPendingByCard(ctx, cardID)
}

// ScheduleTest registers a one-off reminder for the chat that fires after delay.
// It goes through the same store and dispatcher as gift card reminders.
func (c *NotificationCenter) ScheduleTest(ctx context.Context, chatID int64, delay time.Duration) (*reminder.Reminder, error) {
	r := &reminder.Reminder{
		ID:     fmt.Sprintf("test_%d", chatID),
		ChatID: chatID,
		FireAt: c.now().Add(delay),
		Title:  "Test reminder",
		Body:   "This is how a gift card reminder will look.",
	}
	if err := c.Register(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to register test reminder: %w", err)
	}
	c.logger.WithFields(logrus.Fields{"chat_id": chatID, "fire_at": r.FireAt}).Info("Test reminder registered")
	return r, nil
}

// DispatchDue delivers every pending reminder whose fire time has come.
// Chats without granted permission have their reminders skipped. A failed
// send stays pending until it has been attempted maxAttempts times.
func (c *NotificationCenter) DispatchDue(ctx context.Context) (DispatchStats, error) {
	var stats DispatchStats
	now := c.now()

	due, err := c.reminderRepo.ListDue(ctx, now, defaultDispatchSize)
	if err != nil {
		return stats, fmt.Errorf("failed to list due reminders: %w", err)
	}
	if len(due) == 0 {
		return stats, nil
	}
	c.logger.WithField("due_count", len(due)).Info("Dispatching due reminders")

	permissions := make(map[int64]reminder.PermissionStatus)
	for _, r := range due {
		logCtx := c.logger.WithFields(logrus.Fields{"reminder_id": r.ID, "chat_id": r.ChatID})

		status, ok := permissions[r.ChatID]
		if !ok {
			status, err = c.permissionRepo.Get(ctx, r.ChatID)
			if err != nil {
				logCtx.WithError(err).Error("Failed to get permission status, leaving reminder pending")
				continue
			}
			permissions[r.ChatID] = status
		}

		if status != reminder.PermissionGranted {
			r.Status = reminder.StatusSkipped
			stats.Skipped++
			logCtx.WithField("permission", status).Info("Reminder skipped, notifications not granted")
		} else if sendErr := c.telegramClient.SendMessage(r.ChatID, r.Title+"\n"+r.Body, nil); sendErr != nil {
			r.Attempts++
			r.LastError = sql.NullString{String: sendErr.Error(), Valid: true}
			if r.Attempts >= c.maxAttempts {
				r.Status = reminder.StatusFailed
				stats.Failed++
				logCtx.WithError(sendErr).Error("Reminder delivery failed, giving up")
			} else {
				stats.Retried++
				logCtx.WithError(sendErr).WithField("attempts", r.Attempts).Warn("Reminder delivery failed, will retry")
			}
		} else {
			r.Status = reminder.StatusSent
			r.SentAt = sql.NullTime{Time: now, Valid: true}
			stats.Sent++
			logCtx.Info("Reminder delivered")
		}

		if err := c.reminderRepo.Update(ctx, r); err != nil {
			logCtx.WithError(err).Error("Failed to update reminder after dispatch")
		}
	}
	return stats, nil
}

// Purge removes finished reminders older than the retention window.
func (c *NotificationCenter) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := c.reminderRepo.PurgeFinished(ctx, c.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to purge reminders: %w", err)
	}
	return n, nil
}
