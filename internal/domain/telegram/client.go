package telegram

import "gopkg.in/telebot.v3"

// Callback uniques shared by the markup builders and the bot handlers.
const (
	CallbackPermission = "perm"    // Data: "yes" or "no"
	CallbackDeleteCard = "delcard" // Data: gift card ID
	CallbackExpiry     = "expiry"  // Data: "default"
)

// Client sends messages to a Telegram chat.
// It keeps application code independent of the concrete bot instance.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
