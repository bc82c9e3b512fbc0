package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tgstorefront/internal/config"
	"tgstorefront/internal/handler"
	"tgstorefront/internal/points"
	"tgstorefront/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting storefront launcher bot")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Auth.BotToken == "" {
		logger.Fatal("TG_BOT_TOKEN is required")
	}

	logger.Info("Configuration loaded successfully")

	pickupService := service.NewPickupService(points.Default())

	// Initialize Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Auth.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("Telegram bot initialized")

	h := handler.NewHandler(bot, pickupService, cfg.WebAppURL, logger)
	h.RegisterHandlers()

	logger.Info("Handlers registered")

	// Start bot in background
	go func() {
		logger.Info("Bot started successfully")
		bot.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping bot...")
	bot.Stop()
	logger.Info("Bot stopped gracefully")
}
