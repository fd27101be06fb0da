package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/infra/config"
	"homework_status_bot/internal/infra/logger"
	"homework_status_bot/internal/infra/practicum"
	"homework_status_bot/internal/infra/scheduler"
	"homework_status_bot/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Nothing has touched the network yet.
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}

	closeLog := logger.Init(cfg)
	defer closeLog()
	mainLogger := logger.Component("main")

	mainLogger.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Chat ID: %d, Schedule: %s",
		cfg.LogLevel, cfg.Environment, cfg.TelegramChatID, cfg.PollSchedule)

	schedule, err := scheduler.ParseSchedule(cfg.PollSchedule)
	if err != nil {
		mainLogger.Fatalf("Invalid POLL_SCHEDULE: %v", err)
	}

	// Initialize Telegram Bot
	botLogger := logger.Component("telebot")
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := botLogger.WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Bot handler failed")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.Fatalf("Could not create Telegram bot: %v", err)
	}

	state := homework.NewPollState(time.Now().Unix())
	notifier := app.NewChatNotifier(telegram.NewTelebotAdapter(bot), cfg.TelegramChatID)
	apiClient := practicum.NewClient(cfg.Endpoint, cfg.PracticumToken, cfg.HTTPTimeout, logger.Component("practicum"))
	statusService := app.NewStatusService(apiClient, notifier, state, logger.Component("status_service"))
	mainLogger.Info("Status service initialized.")

	telegram.RegisterBotCommands(bot, cfg.TelegramChatID, state, botLogger)
	mainLogger.Info("Bot command handlers registered.")

	pollScheduler := scheduler.NewPollScheduler(statusService, schedule, logger.Component("scheduler"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go bot.Start()
	pollScheduler.Start(ctx)
	mainLogger.Info("Application setup complete. Bot and poll loop are running.")

	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	pollScheduler.Stop()
	bot.Stop()
	mainLogger.Info("Application shut down gracefully.")
}
