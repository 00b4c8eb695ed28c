package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"leaf-health-bot/config"
	telegram "leaf-health-bot/internal/api"
	app "leaf-health-bot/internal/application"
	"leaf-health-bot/internal/container"
	"leaf-health-bot/internal/infrastructure/storage"
	"leaf-health-bot/internal/infrastructure/vision"
	"leaf-health-bot/internal/log"
	"leaf-health-bot/internal/report"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	defer log.Sync()

	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN is required")
	}

	// Хранилища в памяти: пользователи и история диагнозов
	userRepo := storage.NewMemoryUserRepository()
	store := storage.NewMemoryDiagnosisStore(cfg.HistoryLimit)

	appContainer := container.New(userRepo, vision.NewDefault(), report.NewDescriber(), store, app.DiagnosisOptions{
		Timeout:      cfg.AnalyzeTimeout,
		MaxImageSide: cfg.MaxImageSide,
		Workers:      cfg.AnalyzeWorkers,
	})

	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer, cfg.AlbumWait)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Bot is running...")
	if err := bot.Run(ctx); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
	log.Info("Bot stopped")
}

// loadConfig поднимает логгер до чтения конфигурации, чтобы ошибка разбора попала в лог
func loadConfig() (*config.Config, error) {
	if err := log.Init(false); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if cfg.Debug {
		if err := log.Init(true); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
