package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"giftcard_tracker_bot/internal/app"
	"giftcard_tracker_bot/internal/infra/config"
	idb "giftcard_tracker_bot/internal/infra/database"
	"giftcard_tracker_bot/internal/infra/logger"
	"giftcard_tracker_bot/internal/infra/scheduler"
	"giftcard_tracker_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"
)

func main() {
	fmt.Println("Gift Card Tracker Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"db_driver":   cfg.DatabaseDriver,
		"offsets":     cfg.ReminderOffsets,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	dialect, err := idb.ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		mainLogger.WithError(err).Fatal("Invalid database driver")
	}
	db, err := idb.NewConnection(dialect, cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.Migrate(ctx, db, dialect); err != nil {
		mainLogger.WithError(err).Fatal("Could not apply database schema")
	}
	mainLogger.Info("Database connection established successfully.")

	// Initialize Repositories
	giftCardRepo := idb.NewGiftCardRepository(db, dialect)
	reminderRepo := idb.NewReminderRepository(db, dialect)
	permissionRepo := idb.NewPermissionRepository(db, dialect)

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			logCtx := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				logCtx = logCtx.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
			}
			logCtx.Error("Unhandled bot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	if len(cfg.AllowedTelegramIDs) > 0 {
		bot.Use(middleware.Whitelist(cfg.AllowedTelegramIDs...))
		mainLogger.WithField("allowed_ids", cfg.AllowedTelegramIDs).Info("Bot restricted to allowed users")
	}
	telegramClient := telegram.NewTelebotAdapter(bot)

	// Initialize services
	notificationCenter := app.NewNotificationCenter(reminderRepo, permissionRepo, telegramClient, logger.Component("app"), cfg.ReminderMaxAttempts)
	reminderScheduler := app.NewReminderScheduler(notificationCenter, app.ReminderSettings{
		Offsets:    cfg.ReminderOffsets,
		FireHour:   cfg.ReminderFireHour,
		FireMinute: cfg.ReminderFireMinute,
		Location:   cfg.Location,
	}, logger.Component("app"))
	giftCardService := app.NewGiftCardService(giftCardRepo, reminderScheduler, logger.Component("app"))

	listView := telegram.NewListView(giftCardService, telegramClient, cfg.CurrencySuffix, logger.Component("telegram"))
	giftCardService.Subscribe(listView.OnChange)

	if _, err := giftCardService.Reschedule(ctx); err != nil {
		mainLogger.WithError(err).Error("Could not reschedule reminders for stored gift cards")
	}

	// Initialize cron dispatcher
	cronScheduler := scheduler.NewReminderScheduler(
		notificationCenter,
		logger.Component("scheduler"),
		cfg.Location,
		cfg.CronSpecDispatch,
		cfg.CronSpecCleanup,
		cfg.ReminderRetention,
	)
	if err := cronScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start reminder scheduler")
	}

	// Register Handlers
	forms := telegram.NewFormStore(cfg.DefaultExpiryMonths, nil)
	telegramLogger := logger.Component("telegram")
	telegram.RegisterBotCommands(bot, telegramLogger)
	telegram.RegisterGiftCardHandlers(ctx, bot, giftCardService, forms, cfg.CurrencySuffix, telegramLogger)
	telegram.RegisterNotificationHandlers(ctx, bot, notificationCenter, telegramLogger)
	if err := bot.SetCommands(telegram.Commands); err != nil {
		mainLogger.WithError(err).Warn("Could not publish bot command menu")
	}
	mainLogger.Info("Application setup complete. Bot and Scheduler are starting...")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()

	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	cronScheduler.Stop()
	// db.Close() is handled by defer
	mainLogger.Info("Application shut down gracefully.")
}
