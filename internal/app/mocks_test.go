package app

import (
	"context"
	"io"
	"time"

	"giftcard_tracker_bot/internal/domain/giftcard"
	"giftcard_tracker_bot/internal/domain/reminder"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"gopkg.in/telebot.v3"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// MockNotifier is an in-package mock of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) RequestPermission(ctx context.Context, chatID int64) error {
	return m.Called(ctx, chatID).Error(0)
}

func (m *MockNotifier) Register(ctx context.Context, r *reminder.Reminder) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockNotifier) Cancel(ctx context.Context, ids []string) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockNotifier) PendingForCard(ctx context.Context, cardID string) ([]*reminder.Reminder, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reminder.Reminder), args.Error(1)
}

// MockGiftCardRepository is an in-package mock of giftcard.Repository
type MockGiftCardRepository struct {
	mock.Mock
}

func (m *MockGiftCardRepository) Add(ctx context.Context, card *giftcard.GiftCard) error {
	return m.Called(ctx, card).Error(0)
}

func (m *MockGiftCardRepository) GetByID(ctx context.Context, ownerID int64, id string) (*giftcard.GiftCard, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*giftcard.GiftCard), args.Error(1)
}

func (m *MockGiftCardRepository) Delete(ctx context.Context, ownerID int64, id string) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *MockGiftCardRepository) List(ctx context.Context, ownerID int64) ([]*giftcard.GiftCard, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*giftcard.GiftCard), args.Error(1)
}

func (m *MockGiftCardRepository) ListAll(ctx context.Context) ([]*giftcard.GiftCard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*giftcard.GiftCard), args.Error(1)
}

// MockReminderPlanner is an in-package mock of ReminderPlanner
type MockReminderPlanner struct {
	mock.Mock
}

func (m *MockReminderPlanner) Schedule(ctx context.Context, card *giftcard.GiftCard) ([]*reminder.Reminder, error) {
	args := m.Called(ctx, card)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reminder.Reminder), args.Error(1)
}

func (m *MockReminderPlanner) Cancel(ctx context.Context, card *giftcard.GiftCard) error {
	return m.Called(ctx, card).Error(0)
}

// MockReminderRepository is an in-package mock of reminder.Repository
type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Upsert(ctx context.Context, r *reminder.Reminder) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReminderRepository) DeletePending(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*reminder.Reminder, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reminder.Reminder), args.Error(1)
}

func (m *MockReminderRepository) ListPendingByChat(ctx context.Context, chatID int64) ([]*reminder.Reminder, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reminder.Reminder), args.Error(1)
}

func (m *MockReminderRepository) ListPendingByCard(ctx context.Context, cardID string) ([]*reminder.Reminder, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reminder.Reminder), args.Error(1)
}

func (m *MockReminderRepository) Update(ctx context.Context, r *reminder.Reminder) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReminderRepository) PurgeFinished(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockPermissionRepository is an in-package mock of reminder.PermissionRepository
type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) Get(ctx context.Context, chatID int64) (reminder.PermissionStatus, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(reminder.PermissionStatus), args.Error(1)
}

func (m *MockPermissionRepository) Set(ctx context.Context, chatID int64, status reminder.PermissionStatus) error {
	return m.Called(ctx, chatID, status).Error(0)
}

// MockTelegramClient is an in-package mock of the domain Telegram client
type MockTelegramClient struct {
	mock.Mock
}

func (m *MockTelegramClient) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	return m.Called(recipientChatID, text, options).Error(0)
}
