package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quantglass/analyst/internal/api/analytics"
	"github.com/quantglass/analyst/internal/config"
	"github.com/quantglass/analyst/internal/database"
	"github.com/quantglass/analyst/internal/notification/telegram"
	"github.com/quantglass/analyst/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl)

	client := analytics.NewClient(analytics.ClientOptions{
		BaseURL:        cfg.AnalyticsBaseURL,
		APIKey:         cfg.AnalyticsAPIKey,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: 8,
	})

	var store server.Store
	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		store = db
		log.Info().Msg("Database connection established")
	} else {
		log.Warn().Msg("DATABASE_URL not set, screens and signal history disabled")
	}

	var notifier server.Notifier
	if cfg.TelegramToken != "" {
		n, err := telegram.New(cfg.TelegramToken, cfg.AlertThreshold)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
		}
		notifier = n
		log.Info().Msg("Telegram notifications enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, client, store, notifier)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
	log.Info().Msg("Shutdown complete")
}
