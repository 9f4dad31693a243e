package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"giftcard_tracker_bot/internal/domain/giftcard"
	"giftcard_tracker_bot/internal/domain/reminder"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestScheduler(n Notifier, now time.Time) *ReminderScheduler {
	s := NewReminderScheduler(n, ReminderSettings{
		Offsets:    []int{7, 1},
		FireHour:   9,
		FireMinute: 0,
		Location:   time.UTC,
	}, testLogger())
	s.SetClock(func() time.Time { return now })
	return s
}

func testCard(expiry giftcard.Date) *giftcard.GiftCard {
	return &giftcard.GiftCard{
		ID:         "card",
		OwnerID:    42,
		StoreName:  "IKEA",
		Amount:     decimal.NewFromInt(500),
		ExpiryDate: expiry,
	}
}

func noPending(n *MockNotifier) {
	n.On("PendingForCard", mock.Anything, mock.Anything).Return([]*reminder.Reminder{}, nil)
}

func TestReminderScheduler_ScheduleBothOffsets(t *testing.T) {
	n := new(MockNotifier)
	s := newTestScheduler(n, fixedNow)
	card := testCard(giftcard.DateOf(fixedNow).AddDays(30))

	noPending(n)
	n.On("Cancel", mock.Anything, []string{"card_7d", "card_1d"}).Return(nil).Once()
	n.On("Register", mock.Anything, mock.AnythingOfType("*reminder.Reminder")).Return(nil).Twice()
	n.On("RequestPermission", mock.Anything, int64(42)).Return(nil).Once()

	registered, err := s.Schedule(context.Background(), card)
	require.NoError(t, err)
	require.Len(t, registered, 2)

	assert.Equal(t, "card_7d", registered[0].ID)
	assert.Equal(t, time.Date(2026, 11, 11, 9, 0, 0, 0, time.UTC), registered[0].FireAt)
	assert.Equal(t, "Your IKEA gift card expires in 7 days.", registered[0].Body)

	assert.Equal(t, "card_1d", registered[1].ID)
	assert.Equal(t, time.Date(2026, 11, 17, 9, 0, 0, 0, time.UTC), registered[1].FireAt)
	assert.Equal(t, "Your IKEA gift card expires in 1 day.", registered[1].Body)

	for _, r := range registered {
		assert.Equal(t, reminder.StatusPending, r.Status)
		assert.Equal(t, int64(42), r.ChatID)
		assert.Equal(t, "Gift card expires soon", r.Title)
	}
	n.AssertExpectations(t)
}

func TestReminderScheduler_SchedulePastOffsetsSkipped(t *testing.T) {
	n := new(MockNotifier)
	s := newTestScheduler(n, fixedNow)
	card := testCard(giftcard.DateOf(fixedNow).AddDays(3))

	noPending(n)
	n.On("Cancel", mock.Anything, []string{"card_1d"}).Return(nil).Once()
	n.On("Register", mock.Anything, mock.MatchedBy(func(r *reminder.Reminder) bool {
		return r.ID == "card_1d"
	})).Return(nil).Once()
	n.On("RequestPermission", mock.Anything, int64(42)).Return(nil).Once()

	registered, err := s.Schedule(context.Background(), card)
	require.NoError(t, err)
	require.Len(t, registered, 1)
	assert.Equal(t, 1, registered[0].OffsetDays)
	n.AssertExpectations(t)
}

func TestReminderScheduler_ScheduleNothingInFuture(t *testing.T) {
	n := new(MockNotifier)
	s := newTestScheduler(n, fixedNow)
	// Expires tomorrow: the 1-day reminder would have fired today at 09:00.
	card := testCard(giftcard.DateOf(fixedNow).AddDays(1))

	noPending(n)

	registered, err := s.Schedule(context.Background(), card)
	require.NoError(t, err)
	assert.Empty(t, registered)
	n.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
	n.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	n.AssertNotCalled(t, "RequestPermission", mock.Anything, mock.Anything)
}

func TestReminderScheduler_ScheduleKeepsDueReminders(t *testing.T) {
	n := new(MockNotifier)
	s := newTestScheduler(n, fixedNow)
	card := testCard(giftcard.DateOf(fixedNow).AddDays(5))

	// card_7d came due two days ago and was never dispatched.
	due := &reminder.Reminder{ID: "card_7d", CardID: "card", FireAt: fixedNow.AddDate(0, 0, -2), Status: reminder.StatusPending}
	upcoming := &reminder.Reminder{ID: "card_1d", CardID: "card", FireAt: fixedNow.AddDate(0, 0, 3), Status: reminder.StatusPending}
	n.On("PendingForCard", mock.Anything, "card").Return([]*reminder.Reminder{due, upcoming}, nil).Once()
	n.On("Cancel", mock.Anything, []string{"card_1d"}).Return(nil).Once()
	n.On("Register", mock.Anything, mock.Anything).Return(nil).Once()
	n.On("RequestPermission", mock.Anything, int64(42)).Return(nil).Once()

	registered, err := s.Schedule(context.Background(), card)
	require.NoError(t, err)
	require.Len(t, registered, 1)
	assert.Equal(t, "card_1d", registered[0].ID)
	n.AssertExpectations(t)
}

func TestReminderScheduler_ScheduleDropsRemovedOffsets(t *testing.T) {
	n := new(MockNotifier)
	s := NewReminderScheduler(n, ReminderSettings{Offsets: []int{3}, FireHour: 9, Location: time.UTC}, testLogger())
	s.SetClock(func() time.Time { return fixedNow })
	card := testCard(giftcard.DateOf(fixedNow).AddDays(30))

	leftovers := []*reminder.Reminder{
		{ID: "card_7d", CardID: "card", FireAt: fixedNow.AddDate(0, 0, 23)},
		{ID: "card_1d", CardID: "card", FireAt: fixedNow.AddDate(0, 0, 29)},
	}
	n.On("PendingForCard", mock.Anything, "card").Return(leftovers, nil).Once()
	n.On("Cancel", mock.Anything, []string{"card_3d", "card_7d", "card_1d"}).Return(nil).Once()
	n.On("Register", mock.Anything, mock.MatchedBy(func(r *reminder.Reminder) bool { return r.ID == "card_3d" })).Return(nil).Once()
	n.On("RequestPermission", mock.Anything, int64(42)).Return(nil).Once()

	registered, err := s.Schedule(context.Background(), card)
	require.NoError(t, err)
	require.Len(t, registered, 1)
	n.AssertExpectations(t)
}

func TestReminderScheduler_FireTimeMustBeStrictlyFuture(t *testing.T) {
	expiry := giftcard.Date{Year: 2026, Month: time.October, Day: 20}

	tests := []struct {
		name     string
		now      time.Time
		expected int
	}{
		{name: "before fire time", now: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC), expected: 1},
		{name: "exactly at fire time", now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := new(MockNotifier)
			s := newTestScheduler(n, tt.now)
			noPending(n)
			n.On("Cancel", mock.Anything, mock.Anything).Return(nil)
			n.On("Register", mock.Anything, mock.Anything).Return(nil)
			n.On("RequestPermission", mock.Anything, mock.Anything).Return(nil)

			registered, err := s.Schedule(context.Background(), testCard(expiry))
			require.NoError(t, err)
			assert.Len(t, registered, tt.expected)
		})
	}
}

func TestReminderScheduler_RegisterFailureContinues(t *testing.T) {
	n := new(MockNotifier)
	s := newTestScheduler(n, fixedNow)
	card := testCard(giftcard.DateOf(fixedNow).AddDays(30))

	noPending(n)
	n.On("Cancel", mock.Anything, mock.Anything).Return(nil)
	n.On("Register", mock.Anything, mock.MatchedBy(func(r *reminder.Reminder) bool { return r.OffsetDays == 7 })).
		Return(errors.New("disk full"))
	n.On("Register", mock.Anything, mock.MatchedBy(func(r *reminder.Reminder) bool { return r.OffsetDays == 1 })).
		Return(nil)
	n.On("RequestPermission", mock.Anything, int64(42)).Return(nil)

	registered, err := s.Schedule(context.Background(), card)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register card_7d")
	require.Len(t, registered, 1)
	assert.Equal(t, "card_1d", registered[0].ID)
}

func TestReminderScheduler_CancelUsesEveryOffset(t *testing.T) {
	n := new(MockNotifier)
	s := newTestScheduler(n, fixedNow)

	noPending(n)
	n.On("Cancel", mock.Anything, []string{"abc_7d", "abc_1d"}).Return(nil).Once()
	require.NoError(t, s.Cancel(context.Background(), &giftcard.GiftCard{ID: "abc"}))

	n.On("Cancel", mock.Anything, []string{"abc_7d", "abc_1d"}).Return(errors.New("boom")).Once()
	err := s.Cancel(context.Background(), &giftcard.GiftCard{ID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancel reminders")
	n.AssertExpectations(t)
}

func TestReminderScheduler_CancelIncludesLeftoverOffsets(t *testing.T) {
	n := new(MockNotifier)
	s := newTestScheduler(n, fixedNow)

	// Registered under an earlier REMINDER_OFFSETS, already due.
	leftover := &reminder.Reminder{ID: "abc_3d", CardID: "abc", FireAt: fixedNow.Add(-time.Hour)}
	n.On("PendingForCard", mock.Anything, "abc").Return([]*reminder.Reminder{leftover}, nil).Once()
	n.On("Cancel", mock.Anything, []string{"abc_7d", "abc_1d", "abc_3d"}).Return(nil).Once()

	require.NoError(t, s.Cancel(context.Background(), &giftcard.GiftCard{ID: "abc"}))
	n.AssertExpectations(t)
}

func TestReminderScheduler_CancelWhenPendingLookupFails(t *testing.T) {
	n := new(MockNotifier)
	s := newTestScheduler(n, fixedNow)

	n.On("PendingForCard", mock.Anything, "abc").Return(nil, errors.New("db down")).Once()
	n.On("Cancel", mock.Anything, []string{"abc_7d", "abc_1d"}).Return(nil).Once()

	err := s.Cancel(context.Background(), &giftcard.GiftCard{ID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list pending reminders")
	n.AssertExpectations(t)
}
