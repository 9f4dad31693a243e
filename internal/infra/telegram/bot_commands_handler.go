package telegram

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Commands is the command menu published to Telegram.
var Commands = []telebot.Command{
	{Text: "list", Description: "Show your gift cards"},
	{Text: "add", Description: "Add a gift card"},
	{Text: "delete", Description: "Delete a gift card by its number"},
	{Text: "reminders", Description: "Show scheduled reminders"},
	{Text: "notifications", Description: "Turn reminders on or off"},
	{Text: "testreminder", Description: "Send a test reminder"},
	{Text: "help", Description: "How to use this bot"},
}

func RegisterBotCommands(b *telebot.Bot, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /start command")

		return c.Send("Hi " + c.Sender().FirstName + "! I keep track of your gift cards and remind you before they expire.\n\n" +
			"Use /add to add a gift card and /list to see them. /help shows all commands.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /help command")

		var helpText strings.Builder
		helpText.WriteString("Available commands:\n\n")
		helpText.WriteString("`/add`\n - Add a gift card step by step.\n\n")
		helpText.WriteString("`/add <store> <amount> [YYYY-MM-DD]`\n - Add a gift card in one message. Without a date the default expiry is used.\n\n")
		helpText.WriteString("`/list`\n - Show your gift cards, soonest expiry first, with delete buttons.\n\n")
		helpText.WriteString("`/delete <number>`\n - Delete the gift card with that number in /list.\n\n")
		helpText.WriteString("`/reminders`\n - Show scheduled reminders.\n\n")
		helpText.WriteString("`/notifications [on|off]`\n - Show or change whether I send reminders.\n\n")
		helpText.WriteString("`/testreminder`\n - Send a test reminder shortly.\n\n")
		helpText.WriteString("`/cancel`, `/retry`, `/skip`\n - Control the add form.\n\n")
		helpText.WriteString("`/help`\n - Show this message.")
		return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}
