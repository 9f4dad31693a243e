package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"giftcard_tracker_bot/internal/domain/giftcard"
	"giftcard_tracker_bot/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

const reminderTitle = "Gift card expires soon"

// DefaultReminderOffsets are the days before expiry a reminder fires.
var DefaultReminderOffsets = []int{7, 1}

// ReminderSettings controls when reminders fire.
type ReminderSettings struct {
	Offsets    []int // Days before expiry
	FireHour   int
	FireMinute int
	Location   *time.Location
}

// DefaultReminderSettings fires 7 and 1 days before expiry at 09:00 local time.
func DefaultReminderSettings() ReminderSettings {
	return ReminderSettings{
		Offsets:    DefaultReminderOffsets,
		FireHour:   9,
		FireMinute: 0,
		Location:   time.Local,
	}
}

// ReminderScheduler computes fixed-offset reminders for a gift card and
// registers or cancels them with the Notifier.
type ReminderScheduler struct {
	notifier Notifier
	settings ReminderSettings
	now      func() time.Time
	logger   *logrus.Entry
}

func NewReminderScheduler(notifier Notifier, settings ReminderSettings, logger *logrus.Entry) *ReminderScheduler {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	return &ReminderScheduler{
		notifier: notifier,
		settings: settings,
		now:      time.Now,
		logger:   logger.WithField("component", "reminder_scheduler"),
	}
}

// SetClock replaces the time source. Used by tests.
func (s *ReminderScheduler) SetClock(now func() time.Time) {
	s.now = now
}

// FireTime returns the instant the reminder offsetDays before expiry fires.
func (s *ReminderScheduler) FireTime(expiry giftcard.Date, offsetDays int) time.Time {
	return expiry.AddDays(-offsetDays).At(s.settings.FireHour, s.settings.FireMinute, s.settings.Location)
}

// Schedule cancels the card's upcoming reminders and registers one per offset
// whose fire time is still in the future. Past-due offsets are skipped.
// Pending reminders that are already due are left for the dispatcher.
// It returns the reminders that were registered; failures are joined into
// the error and do not stop the remaining offsets.
func (s *ReminderScheduler) Schedule(ctx context.Context, card *giftcard.GiftCard) ([]*reminder.Reminder, error) {
	logCtx := s.logger.WithFields(logrus.Fields{"card_id": card.ID, "chat_id": card.OwnerID})
	var errs []error

	now := s.now()
	if err := s.cancelPending(ctx, card, now, true); err != nil {
		errs = append(errs, err)
	}

	registered := make([]*reminder.Reminder, 0, len(s.settings.Offsets))
	for _, d := range s.settings.Offsets {
		fireAt := s.FireTime(card.ExpiryDate, d)
		if !fireAt.After(now) {
			logCtx.WithFields(logrus.Fields{"offset_days": d, "fire_at": fireAt}).Debug("Reminder fire time already passed, skipping")
			continue
		}

		r := &reminder.Reminder{
			ID:         reminder.ID(card.ID, d),
			CardID:     card.ID,
			ChatID:     card.OwnerID,
			OffsetDays: d,
			FireAt:     fireAt,
			Title:      reminderTitle,
			Body:       reminderBody(card.StoreName, d),
			Status:     reminder.StatusPending,
		}
		if err := s.notifier.Register(ctx, r); err != nil {
			logCtx.WithError(err).WithField("offset_days", d).Warn("Failed to register reminder")
			errs = append(errs, fmt.Errorf("register %s: %w", r.ID, err))
			continue
		}
		registered = append(registered, r)
	}

	if len(registered) > 0 {
		if err := s.notifier.RequestPermission(ctx, card.OwnerID); err != nil {
			logCtx.WithError(err).Warn("Failed to request notification permission")
			errs = append(errs, fmt.Errorf("request permission: %w", err))
		}
	}

	logCtx.WithField("registered", len(registered)).Info("Reminders scheduled")
	return registered, errors.Join(errs...)
}

// Cancel removes every pending reminder of the card: the ids of the
// configured offsets plus any left over from an earlier offset configuration.
func (s *ReminderScheduler) Cancel(ctx context.Context, card *giftcard.GiftCard) error {
	return s.cancelPending(ctx, card, s.now(), false)
}

// cancelPending cancels the card's pending reminders. With keepDue set,
// reminders whose fire time is not after now stay pending for the dispatcher.
// Configured ids are still cancelled when the pending lookup fails.
func (s *ReminderScheduler) cancelPending(ctx context.Context, card *giftcard.GiftCard, now time.Time, keepDue bool) error {
	logCtx := s.logger.WithField("card_id", card.ID)
	upcoming := func(fireAt time.Time) bool { return !keepDue || fireAt.After(now) }

	var errs []error
	ids := make([]string, 0, len(s.settings.Offsets))
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, d := range s.settings.Offsets {
		if upcoming(s.FireTime(card.ExpiryDate, d)) {
			add(reminder.ID(card.ID, d))
		}
	}

	pending, err := s.notifier.PendingForCard(ctx, card.ID)
	if err != nil {
		logCtx.WithError(err).Warn("Failed to list pending reminders")
		errs = append(errs, fmt.Errorf("list pending reminders: %w", err))
	}
	for _, r := range pending {
		if upcoming(r.FireAt) {
			add(r.ID)
		}
	}

	if len(ids) > 0 {
		if err := s.notifier.Cancel(ctx, ids); err != nil {
			logCtx.WithError(err).Warn("Failed to cancel reminders")
			errs = append(errs, fmt.Errorf("cancel reminders: %w", err))
		}
	}
	return errors.Join(errs...)
}

func reminderBody(storeName string, days int) string {
	unit := "days"
	if days == 1 {
		unit = "day"
	}
	return fmt.Sprintf("Your %s gift card expires in %d %s.", storeName, days, unit)
}
