package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"giftcard_tracker_bot/internal/app"
	domainTelegram "giftcard_tracker_bot/internal/domain/telegram"
	idb "giftcard_tracker_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

type giftCardHandlers struct {
	ctx            context.Context
	service        *app.GiftCardService
	forms          *FormStore
	currencySuffix string
	logger         *logrus.Entry
}

// RegisterGiftCardHandlers registers the list, add-form and delete handlers.
func RegisterGiftCardHandlers(
	ctx context.Context,
	b *telebot.Bot,
	service *app.GiftCardService,
	forms *FormStore,
	currencySuffix string,
	baseLogger *logrus.Entry,
) {
	h := &giftCardHandlers{
		ctx:            ctx,
		service:        service,
		forms:          forms,
		currencySuffix: currencySuffix,
		logger:         baseLogger.WithField("handler_group", "giftcards"),
	}

	b.Handle("/list", h.handleList)
	b.Handle("/add", h.handleAdd)
	b.Handle("/skip", h.handleSkip)
	b.Handle("/retry", h.handleRetry)
	b.Handle("/cancel", h.handleCancel)
	b.Handle("/delete", h.handleDelete)
	b.Handle(telebot.OnText, h.handleText)
	b.Handle(&telebot.Btn{Unique: domainTelegram.CallbackDeleteCard}, h.handleDeleteButton)
	b.Handle(&telebot.Btn{Unique: domainTelegram.CallbackExpiry}, h.handleDefaultExpiryButton)
}

func (h *giftCardHandlers) logFor(c telebot.Context, handler string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"handler": handler,
		"chat_id": c.Chat().ID,
	})
}

func (h *giftCardHandlers) handleList(c telebot.Context) error {
	logCtx := h.logFor(c, "/list")

	cards, err := h.service.List(h.ctx, c.Chat().ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list gift cards")
		return c.Send(userMessage(err))
	}
	logCtx.WithField("cards_count", len(cards)).Info("Gift card list sent")

	text, markup := RenderList(cards, h.currencySuffix)
	return c.Send(text, &telebot.SendOptions{ReplyMarkup: markup})
}

func (h *giftCardHandlers) handleAdd(c telebot.Context) error {
	chatID := c.Chat().ID
	logCtx := h.logFor(c, "/add")

	args := c.Args()
	if len(args) == 0 {
		logCtx.Info("Add form started")
		d := h.forms.Start(chatID)
		return h.prompt(c, d)
	}

	// Expected format: /add <Store> <Amount> [Date]
	d, err := h.forms.ParseOneShot(args)
	if err != nil {
		logCtx.WithError(err).Warn("Invalid one-shot add command")
		return c.Send(userMessage(err) + "\nUsage: /add <store> <amount> [YYYY-MM-DD], or just /add for a guided form.")
	}
	h.forms.Put(chatID, d)
	return h.save(c)
}

func (h *giftCardHandlers) handleText(c telebot.Context) error {
	chatID := c.Chat().ID
	if _, ok := h.forms.Get(chatID); !ok {
		return c.Send("Use /add to add a gift card or /list to see yours. /help shows all commands.")
	}

	d, err := h.forms.Advance(chatID, c.Text())
	if err != nil {
		h.logFor(c, "form").WithError(err).Info("Form input rejected")
		if err := c.Send(userMessage(err)); err != nil {
			return err
		}
		return h.prompt(c, d)
	}
	if d.Step == StepReady {
		return h.save(c)
	}
	return h.prompt(c, d)
}

func (h *giftCardHandlers) handleSkip(c telebot.Context) error {
	d, ok := h.forms.Get(c.Chat().ID)
	if !ok || d.Step != StepExpiry {
		return c.Send("There is nothing to skip right now.")
	}
	if _, err := h.forms.Advance(c.Chat().ID, "default"); err != nil {
		return c.Send(userMessage(err))
	}
	return h.save(c)
}

func (h *giftCardHandlers) handleDefaultExpiryButton(c telebot.Context) error {
	d, ok := h.forms.Get(c.Chat().ID)
	if !ok || d.Step != StepExpiry {
		return c.Respond(&telebot.CallbackResponse{Text: "This form is no longer active."})
	}
	if _, err := h.forms.Advance(c.Chat().ID, "default"); err != nil {
		return c.Respond(&telebot.CallbackResponse{Text: userMessage(err)})
	}
	if err := c.Respond(); err != nil {
		h.logFor(c, "expiry_button").WithError(err).Warn("Failed to answer callback")
	}
	return h.save(c)
}

func (h *giftCardHandlers) handleRetry(c telebot.Context) error {
	d, ok := h.forms.Get(c.Chat().ID)
	if !ok {
		return c.Send("There is no unsaved gift card. Use /add to add one.")
	}
	if d.Step != StepReady {
		return h.prompt(c, d)
	}
	return h.save(c)
}

func (h *giftCardHandlers) handleCancel(c telebot.Context) error {
	if _, ok := h.forms.Get(c.Chat().ID); !ok {
		return c.Send("Nothing to cancel.")
	}
	h.forms.Clear(c.Chat().ID)
	h.logFor(c, "/cancel").Info("Add form discarded")
	return c.Send("Discarded. Nothing was saved.")
}

// save persists a ready draft. The draft is kept when saving fails.
func (h *giftCardHandlers) save(c telebot.Context) error {
	chatID := c.Chat().ID
	logCtx := h.logFor(c, "save")

	d, ok := h.forms.Get(chatID)
	if !ok || d.Step != StepReady {
		return c.Send("There is no complete gift card to save. Use /add to start.")
	}

	card, err := h.service.Add(h.ctx, chatID, d.StoreName, d.Amount, d.Expiry)
	if err != nil && !app.IsWarning(err) {
		var persistenceErr *app.PersistenceError
		if errors.As(err, &persistenceErr) {
			logCtx.WithError(err).Error("Failed to save gift card, draft kept")
			return c.Send(userMessage(err) + " Your input is kept: send /retry to save it or /cancel to discard it.")
		}
		logCtx.WithError(err).Warn("Gift card rejected")
		return c.Send(userMessage(err) + " Use /add to start again.")
	}
	h.forms.Clear(chatID)

	msg := fmt.Sprintf("Saved %s: %s, expires %s.",
		card.StoreName, FormatAmount(card.Amount, h.currencySuffix), FormatDate(card.ExpiryDate))
	if err != nil {
		logCtx.WithError(err).Warn("Gift card saved with reminder warning")
		msg += "\n" + userMessage(err)
	}
	return c.Send(msg)
}

// prompt asks for the field the draft is waiting for.
func (h *giftCardHandlers) prompt(c telebot.Context, d Draft) error {
	switch d.Step {
	case StepStoreName:
		return c.Send("Which store is the gift card for? (e.g. IKEA)\nSend /cancel to stop.")
	case StepAmount:
		return c.Send(fmt.Sprintf("How much is on the %s gift card? (e.g. 500 or 12,5)", d.StoreName))
	case StepExpiry:
		replyMarkup := &telebot.ReplyMarkup{}
		btn := replyMarkup.Data("Use "+FormatDate(d.Expiry), domainTelegram.CallbackExpiry, "default")
		replyMarkup.Inline(replyMarkup.Row(btn))
		return c.Send("When does it expire? Send a date like 2026-12-31 or 31.12.2026, or /skip to use "+FormatDate(d.Expiry)+".",
			&telebot.SendOptions{ReplyMarkup: replyMarkup})
	default:
		return h.save(c)
	}
}

func (h *giftCardHandlers) handleDelete(c telebot.Context) error {
	chatID := c.Chat().ID
	logCtx := h.logFor(c, "/delete")

	args := c.Args()
	// Expected format: /delete <Number from /list>
	if len(args) != 1 {
		return c.Send("Usage: /delete <number from /list>, or tap a delete button under /list.")
	}
	position, err := strconv.Atoi(args[0])
	if err != nil || position < 1 {
		return c.Send("Error: the number must be a positive integer from /list.")
	}

	cards, err := h.service.List(h.ctx, chatID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list gift cards for delete")
		return c.Send(userMessage(err))
	}
	if position > len(cards) {
		return c.Send(fmt.Sprintf("There is no gift card number %d. You have %d.", position, len(cards)))
	}

	card := cards[position-1]
	return h.deleteCard(c, logCtx, card.ID, card.StoreName)
}

func (h *giftCardHandlers) handleDeleteButton(c telebot.Context) error {
	logCtx := h.logFor(c, "delete_button")
	id := c.Callback().Data
	if id == "" {
		return c.Respond(&telebot.CallbackResponse{Text: "Unknown gift card."})
	}
	logCtx = logCtx.WithField("card_id", id)

	// A missing card still goes through Delete so its stray reminders are cancelled.
	card, err := h.service.Get(h.ctx, c.Chat().ID, id)
	if err != nil && !errors.Is(err, idb.ErrGiftCardNotFound) {
		logCtx.WithError(err).Error("Failed to load gift card for delete")
		return c.Respond(&telebot.CallbackResponse{Text: userMessage(err), ShowAlert: true})
	}

	if err := h.service.Delete(h.ctx, c.Chat().ID, id); err != nil && !app.IsWarning(err) {
		logCtx.WithError(err).Error("Failed to delete gift card")
		return c.Respond(&telebot.CallbackResponse{Text: userMessage(err), ShowAlert: true})
	} else if err != nil {
		logCtx.WithError(err).Warn("Gift card deleted with reminder warning")
	}

	// The list the button belonged to is stale; the service event renders a fresh one.
	if err := c.Delete(); err != nil {
		logCtx.WithError(err).Debug("Could not delete stale list message")
	}
	return c.Respond(&telebot.CallbackResponse{Text: deleteConfirmation(card)})
}

func (h *giftCardHandlers) deleteCard(c telebot.Context, logCtx *logrus.Entry, id, storeName string) error {
	logCtx = logCtx.WithField("card_id", id)
	err := h.service.Delete(h.ctx, c.Chat().ID, id)
	if err != nil && !app.IsWarning(err) {
		logCtx.WithError(err).Error("Failed to delete gift card")
		return c.Send(userMessage(err))
	}

	msg := fmt.Sprintf("Deleted %s.", storeName)
	if err != nil {
		logCtx.WithError(err).Warn("Gift card deleted with reminder warning")
		msg += "\n" + userMessage(err)
	}
	return c.Send(msg)
}
