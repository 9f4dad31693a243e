package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"giftcard_tracker_bot/internal/app"
	"giftcard_tracker_bot/internal/domain/reminder"
	domainTelegram "giftcard_tracker_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const testReminderDelay = 10 * time.Second

// RegisterNotificationHandlers registers the permission prompt callback and
// the /notifications, /reminders and /testreminder commands.
func RegisterNotificationHandlers(ctx context.Context, b *telebot.Bot, center *app.NotificationCenter, baseLogger *logrus.Entry) {
	logger := baseLogger.WithField("handler_group", "notifications")

	b.Handle(&telebot.Btn{Unique: domainTelegram.CallbackPermission}, func(c telebot.Context) error {
		logCtx := logger.WithFields(logrus.Fields{"handler": "permission_button", "chat_id": c.Chat().ID})
		granted := c.Callback().Data == "yes"

		if err := center.SetPermission(ctx, c.Chat().ID, granted); err != nil {
			logCtx.WithError(err).Error("Failed to store permission answer")
			return c.Respond(&telebot.CallbackResponse{Text: "Could not save your answer, please try again."})
		}

		text := "Reminders are off. Turn them on any time with /notifications on."
		if granted {
			text = "Reminders are on. I will message you before your gift cards expire."
		}
		if err := c.Edit(text); err != nil {
			logCtx.WithError(err).Debug("Could not edit permission prompt")
		}
		return c.Respond()
	})

	b.Handle("/notifications", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := logger.WithFields(logrus.Fields{"handler": "/notifications", "chat_id": chatID})

		args := c.Args()
		if len(args) == 0 {
			status, err := center.Permission(ctx, chatID)
			if err != nil {
				logCtx.WithError(err).Error("Failed to get permission status")
				return c.Send("Could not read your notification settings. Please try again later.")
			}
			return c.Send(fmt.Sprintf("Reminders are %s. Use /notifications on or /notifications off.", describePermission(status)))
		}

		var granted bool
		switch strings.ToLower(args[0]) {
		case "on":
			granted = true
		case "off":
			granted = false
		default:
			return c.Send("Usage: /notifications [on|off]")
		}

		if err := center.SetPermission(ctx, chatID, granted); err != nil {
			logCtx.WithError(err).Error("Failed to update permission")
			return c.Send("Could not update your notification settings. Please try again later.")
		}
		if granted {
			return c.Send("Reminders are on.")
		}
		return c.Send("Reminders are off.")
	})

	b.Handle("/reminders", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := logger.WithFields(logrus.Fields{"handler": "/reminders", "chat_id": chatID})

		pending, err := center.Pending(ctx, chatID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to list pending reminders")
			return c.Send("Could not read your reminders. Please try again later.")
		}
		if len(pending) == 0 {
			return c.Send("No reminders are scheduled.")
		}

		var response strings.Builder
		response.WriteString("Scheduled reminders:\n")
		for _, r := range pending {
			response.WriteString(fmt.Sprintf("\n%s: %s", r.FireAt.Format("Jan 2, 2006 15:04"), r.Body))
		}
		return c.Send(response.String())
	})

	b.Handle("/testreminder", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := logger.WithFields(logrus.Fields{"handler": "/testreminder", "chat_id": chatID})

		if err := center.RequestPermission(ctx, chatID); err != nil {
			logCtx.WithError(err).Warn("Failed to request notification permission")
		}
		if _, err := center.ScheduleTest(ctx, chatID, testReminderDelay); err != nil {
			logCtx.WithError(err).Error("Failed to schedule test reminder")
			return c.Send("Could not schedule a test reminder. Please try again later.")
		}

		status, err := center.Permission(ctx, chatID)
		if err != nil {
			logCtx.WithError(err).Warn("Failed to get permission status")
		}
		if status != reminder.PermissionGranted {
			return c.Send("Test reminder scheduled. It is only delivered once reminders are on: answer the prompt or use /notifications on.")
		}
		return c.Send("Test reminder scheduled. It arrives with the next reminder run, usually within a minute.")
	})
}

func describePermission(status reminder.PermissionStatus) string {
	switch status {
	case reminder.PermissionGranted:
		return "on"
	case reminder.PermissionDenied:
		return "off"
	case reminder.PermissionPending:
		return "waiting for your answer"
	default:
		return "not set up yet"
	}
}
