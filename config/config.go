package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken  string
	Debug          bool          // подробные логи zap
	AnalyzeTimeout time.Duration // предел на анализ одного снимка, 0 = без ограничения
	MaxImageSide   int           // большие снимки уменьшаются до этой стороны, 0 = не уменьшать
	HistoryLimit   int           // сколько диагнозов помнить на пользователя
	AnalyzeWorkers int           // параллельных анализов снимков одного альбома, 0 = все сразу
	AlbumWait      time.Duration // сколько ждать остальные снимки альбома
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		AnalyzeTimeout: 30 * time.Second,
		MaxImageSide:   1024,
		HistoryLimit:   20,
		AnalyzeWorkers: 4,
		AlbumWait:      time.Second,
	}

	var err error
	if cfg.Debug, err = boolEnv("LOG_DEBUG", cfg.Debug); err != nil {
		return nil, err
	}
	if cfg.AnalyzeTimeout, err = durationEnv("ANALYZE_TIMEOUT", cfg.AnalyzeTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxImageSide, err = intEnv("MAX_IMAGE_SIDE", cfg.MaxImageSide); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = intEnv("HISTORY_LIMIT", cfg.HistoryLimit); err != nil {
		return nil, err
	}
	if cfg.AnalyzeWorkers, err = intEnv("ANALYZE_WORKERS", cfg.AnalyzeWorkers); err != nil {
		return nil, err
	}
	if cfg.AlbumWait, err = durationEnv("ALBUM_WAIT", cfg.AlbumWait); err != nil {
		return nil, err
	}

	return cfg, nil
}

func boolEnv(key string, def bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def, fmt.Errorf("parse %s: %w", key, err)
	}
	if v < 0 {
		return def, fmt.Errorf("parse %s: negative duration %s", key, raw)
	}
	return v, nil
}

func intEnv(key string, def int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("parse %s: %w", key, err)
	}
	if v < 0 {
		return def, fmt.Errorf("parse %s: negative value %d", key, v)
	}
	return v, nil
}
