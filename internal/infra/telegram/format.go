package telegram

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"giftcard_tracker_bot/internal/app"
	"giftcard_tracker_bot/internal/domain/giftcard"
	domainTelegram "giftcard_tracker_bot/internal/domain/telegram"

	"github.com/shopspring/decimal"
	"gopkg.in/telebot.v3"
)

const displayDateLayout = "Jan 2, 2006"

// FormatAmount renders the amount as a whole number with the currency suffix.
func FormatAmount(amount decimal.Decimal, suffix string) string {
	whole := amount.Truncate(0).String()
	if suffix == "" {
		return whole
	}
	return whole + " " + suffix
}

// FormatDate renders an abbreviated calendar date, e.g. "Nov 18, 2026".
func FormatDate(d giftcard.Date) string {
	return d.At(0, 0, time.UTC).Format(displayDateLayout)
}

// RenderList builds the list message and a delete button per card.
func RenderList(cards []*giftcard.GiftCard, currencySuffix string) (string, *telebot.ReplyMarkup) {
	if len(cards) == 0 {
		return "You have no gift cards yet. Use /add to add one.", nil
	}

	var b strings.Builder
	b.WriteString("Your gift cards (soonest expiry first):\n")
	replyMarkup := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(cards))
	for i, c := range cards {
		b.WriteString(fmt.Sprintf("\n%d. %s\n   Amount: %s\n   Expires: %s\n",
			i+1, c.StoreName, FormatAmount(c.Amount, currencySuffix), FormatDate(c.ExpiryDate)))
		btn := replyMarkup.Data(fmt.Sprintf("Delete %d. %s", i+1, c.StoreName), domainTelegram.CallbackDeleteCard, c.ID)
		rows = append(rows, replyMarkup.Row(btn))
	}
	replyMarkup.Inline(rows...)
	return b.String(), replyMarkup
}

// deleteConfirmation answers a delete button tap. card is nil when the card
// was already gone.
func deleteConfirmation(card *giftcard.GiftCard) string {
	if card == nil {
		return "This gift card was already deleted."
	}
	return fmt.Sprintf("Deleted %s.", card.StoreName)
}

// userMessage turns a service error into text for the chat.
func userMessage(err error) string {
	var validationErr *giftcard.ValidationError
	var persistenceErr *app.PersistenceError
	var reminderWarning *app.ReminderWarning
	switch {
	case errors.As(err, &validationErr):
		return fmt.Sprintf("Please check the %s: %s.", validationErr.Field, validationErr.Message)
	case errors.As(err, &persistenceErr):
		return "Could not reach the storage right now. Please try again in a moment."
	case errors.As(err, &reminderWarning):
		return "Warning: the reminders for this card could not be updated. They will be retried on the next restart."
	default:
		return "Something went wrong. Please try again later."
	}
}
