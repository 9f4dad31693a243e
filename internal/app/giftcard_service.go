package app

import (
	"context"
	"errors"
	"sync"

	"giftcard_tracker_bot/internal/domain/giftcard"
	"giftcard_tracker_bot/internal/domain/reminder"
	idb "giftcard_tracker_bot/internal/infra/database"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ReminderPlanner schedules and cancels the reminders of a gift card.
type ReminderPlanner interface {
	Schedule(ctx context.Context, card *giftcard.GiftCard) ([]*reminder.Reminder, error)
	Cancel(ctx context.Context, card *giftcard.GiftCard) error
}

// ChangeKind names a store mutation.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeDeleted ChangeKind = "deleted"
)

// ChangeEvent is published after a successful store mutation.
type ChangeEvent struct {
	Kind    ChangeKind
	OwnerID int64
	Card    *giftcard.GiftCard
}

// ChangeListener reacts to store mutations, e.g. by re-rendering a view.
type ChangeListener func(ctx context.Context, event ChangeEvent)

// GiftCardService is the mutation boundary for gift cards. Every mutation is
// persisted synchronously before reminders are touched.
type GiftCardService struct {
	repo      giftcard.Repository
	reminders ReminderPlanner
	logger    *logrus.Entry

	mu        sync.RWMutex
	listeners []ChangeListener
}

func NewGiftCardService(repo giftcard.Repository, reminders ReminderPlanner, logger *logrus.Entry) *GiftCardService {
	return &GiftCardService{
		repo:      repo,
		reminders: reminders,
		logger:    logger.WithField("component", "giftcard_service"),
	}
}

// Subscribe registers a listener for store mutations.
func (s *GiftCardService) Subscribe(l ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *GiftCardService) publish(ctx context.Context, event ChangeEvent) {
	s.mu.RLock()
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, l := range listeners {
		l(ctx, event)
	}
}

// Add validates and persists a new card, then schedules its reminders.
// A *giftcard.ValidationError or *PersistenceError means nothing was saved.
// A *ReminderWarning is returned together with the saved card.
func (s *GiftCardService) Add(ctx context.Context, ownerID int64, storeName string, amount decimal.Decimal, expiry giftcard.Date) (*giftcard.GiftCard, error) {
	card, err := giftcard.New(ownerID, storeName, amount, expiry)
	if err != nil {
		return nil, err
	}
	logCtx := s.logger.WithFields(logrus.Fields{"card_id": card.ID, "owner_id": ownerID})

	if err := s.repo.Add(ctx, card); err != nil {
		logCtx.WithError(err).Error("Failed to persist gift card")
		return nil, &PersistenceError{Op: "save", Err: err}
	}
	logCtx.WithFields(logrus.Fields{
		"store_name":  card.StoreName,
		"expiry_date": card.ExpiryDate.String(),
	}).Info("Gift card added")

	var warning error
	if _, err := s.reminders.Schedule(ctx, card); err != nil {
		warning = &ReminderWarning{CardID: card.ID, Err: err}
	}

	s.publish(ctx, ChangeEvent{Kind: ChangeAdded, OwnerID: ownerID, Card: card})
	return card, warning
}

// Delete removes the card and cancels its reminders. Deleting a card that
// does not exist is a no-op.
func (s *GiftCardService) Delete(ctx context.Context, ownerID int64, id string) error {
	logCtx := s.logger.WithFields(logrus.Fields{"card_id": id, "owner_id": ownerID})

	card, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, idb.ErrGiftCardNotFound) {
			logCtx.Info("Gift card already deleted")
			// Still cancel so stray reminders of the id cannot fire.
			if err := s.reminders.Cancel(ctx, &giftcard.GiftCard{ID: id, OwnerID: ownerID}); err != nil {
				return &ReminderWarning{CardID: id, Err: err}
			}
			return nil
		}
		return &PersistenceError{Op: "load", Err: err}
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		logCtx.WithError(err).Error("Failed to delete gift card")
		return &PersistenceError{Op: "delete", Err: err}
	}
	logCtx.Info("Gift card deleted")

	var warning error
	if err := s.reminders.Cancel(ctx, card); err != nil {
		warning = &ReminderWarning{CardID: id, Err: err}
	}

	s.publish(ctx, ChangeEvent{Kind: ChangeDeleted, OwnerID: ownerID, Card: card})
	return warning
}

// List returns the owner's cards sorted by expiry date.
func (s *GiftCardService) List(ctx context.Context, ownerID int64) ([]*giftcard.GiftCard, error) {
	cards, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return cards, nil
}

// Get returns one of the owner's cards.
func (s *GiftCardService) Get(ctx context.Context, ownerID int64, id string) (*giftcard.GiftCard, error) {
	card, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, idb.ErrGiftCardNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	return card, nil
}

// Reschedule re-registers the reminders of every stored card, so a changed
// offset or fire time applies to existing cards. It returns how many cards
// had reminder warnings.
func (s *GiftCardService) Reschedule(ctx context.Context) (int, error) {
	cards, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, &PersistenceError{Op: "list", Err: err}
	}

	warnings := 0
	for _, card := range cards {
		if _, err := s.reminders.Schedule(ctx, card); err != nil {
			warnings++
			s.logger.WithError(err).WithField("card_id", card.ID).Warn("Failed to reschedule reminders")
		}
	}
	s.logger.WithFields(logrus.Fields{"cards": len(cards), "warnings": warnings}).Info("Reminders rescheduled")
	return warnings, nil
}
