package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quantglass/analyst/internal/analysis/technical"
	"github.com/quantglass/analyst/internal/api/analytics"
	"github.com/quantglass/analyst/internal/calculate"
	"github.com/quantglass/analyst/internal/config"
	"github.com/quantglass/analyst/models"
)

func main() {
	symbolFlag := flag.String("symbol", "", "instrument symbol, overrides SYMBOL")
	intervalFlag := flag.String("interval", "", "candle interval, overrides INTERVAL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl)

	symbol := cfg.Symbol
	if *symbolFlag != "" {
		symbol = *symbolFlag
	}
	interval := cfg.Interval
	if *intervalFlag != "" {
		interval = *intervalFlag
	}

	client := analytics.NewClient(analytics.ClientOptions{
		BaseURL:        cfg.AnalyticsBaseURL,
		APIKey:         cfg.AnalyticsAPIKey,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: 8,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	candles, err := client.GetCandles(ctx, symbol, interval, cfg.CandleCount)
	if err != nil {
		log.Fatal().Err(err).Str("symbol", symbol).Msg("Failed to fetch candles")
	}
	log.Info().Int("count", len(candles)).Str("symbol", symbol).Msg("Candles received")

	var snap *models.IndicatorSnapshot
	if cfg.LocalIndicators {
		snap = calculate.BuildSnapshot(candles, cfg)
	} else {
		snap, err = client.GetSnapshot(ctx, symbol, interval)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to fetch indicator snapshot")
		}
	}
	if snap.CurrentPrice == 0 && len(candles) > 0 {
		snap.CurrentPrice = candles[len(candles)-1].Close
	}

	asOf := time.Now().UTC()
	if len(candles) > 0 {
		if t, err := models.ParseCandleTime(candles[len(candles)-1].Datetime); err == nil {
			asOf = t
		}
	}

	signals := technical.SynthesizeSignals(snap, asOf)
	support, resistance := technical.IdentifySupportResistance(candles)
	bullish, bearish, neutral := technical.CountDirections(signals)

	fmt.Printf("\n=== %s (%s) @ %.5f ===\n", symbol, interval, snap.CurrentPrice)
	fmt.Printf("As of: %s\n\n", asOf.Format(time.RFC3339))

	if len(signals) == 0 {
		fmt.Println("No signals available")
	}
	for _, s := range signals {
		fmt.Printf("%-14s %-8s strength %.1f\n", s.Type, s.Direction, s.Strength)
	}
	fmt.Printf("\nBullish %d / Bearish %d / Neutral %d\n", bullish, bearish, neutral)

	fmt.Println("\nResistance:")
	printLevels(resistance)
	fmt.Println("Support:")
	printLevels(support)
}

func printLevels(levels []float64) {
	if len(levels) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, l := range levels {
		fmt.Printf("  %.5f\n", l)
	}
}
