package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/quantglass/analyst/models"
)

// Load initializes configuration from environment variables, reading a
// .env file first when one is present.
func Load() (*models.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg models.Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *models.Config) error {
	if cfg.CandleCount < 20 {
		return fmt.Errorf("CANDLE_COUNT must be at least 20, got %d", cfg.CandleCount)
	}
	if cfg.PollInterval < 1 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %d", cfg.PollInterval)
	}
	if cfg.MACDFastPeriod >= cfg.MACDSlowPeriod {
		return fmt.Errorf("MACD fast period %d must be below slow period %d",
			cfg.MACDFastPeriod, cfg.MACDSlowPeriod)
	}
	if cfg.AnalyticsBaseURL == "" {
		return fmt.Errorf("ANALYTICS_BASE_URL is required")
	}
	return nil
}
