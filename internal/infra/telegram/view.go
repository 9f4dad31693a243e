package telegram

import (
	"context"

	"giftcard_tracker_bot/internal/app"
	domainTelegram "giftcard_tracker_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// ListView re-renders a chat's gift card list whenever the store changes.
type ListView struct {
	service        *app.GiftCardService
	client         domainTelegram.Client
	currencySuffix string
	logger         *logrus.Entry
}

func NewListView(service *app.GiftCardService, client domainTelegram.Client, currencySuffix string, baseLogger *logrus.Entry) *ListView {
	return &ListView{
		service:        service,
		client:         client,
		currencySuffix: currencySuffix,
		logger:         baseLogger.WithField("handler_group", "list_view"),
	}
}

// Render sends the current list to the chat.
func (v *ListView) Render(ctx context.Context, chatID int64) error {
	cards, err := v.service.List(ctx, chatID)
	if err != nil {
		return err
	}
	text, markup := RenderList(cards, v.currencySuffix)
	return v.client.SendMessage(chatID, text, &telebot.SendOptions{ReplyMarkup: markup})
}

// OnChange is an app.ChangeListener.
func (v *ListView) OnChange(ctx context.Context, event app.ChangeEvent) {
	if err := v.Render(ctx, event.OwnerID); err != nil {
		v.logger.WithError(err).WithFields(logrus.Fields{
			"chat_id": event.OwnerID,
			"change":  event.Kind,
		}).Warn("Failed to re-render gift card list")
	}
}
