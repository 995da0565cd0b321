package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quantglass/analyst/internal/analysis/technical"
	"github.com/quantglass/analyst/internal/calculate"
	"github.com/quantglass/analyst/models"
)

// DataSource provides indicator snapshots and candle history.
type DataSource interface {
	GetSnapshot(ctx context.Context, symbol, interval string) (*models.IndicatorSnapshot, error)
	GetCandles(ctx context.Context, symbol, interval string, count int) ([]models.Candle, error)
}

// Store persists screens and signal history.
type Store interface {
	CreateScreen(symbol, interval string, chatID int64) (*models.Screen, error)
	GetScreen(id int64) (*models.Screen, error)
	ListEnabledScreens() ([]models.Screen, error)
	SetScreenEnabled(id int64, enabled bool) error
	SaveSignals(symbol string, signals []models.Signal) error
	RecentSignals(symbol string, limit int) ([]models.Signal, error)
}

// Notifier pushes noteworthy reports to subscribers.
type Notifier interface {
	NotifyReport(chatID int64, report *models.AnalysisReport) error
}

// Server is the dashboard backend: it analyzes screens on a polling
// cycle and serves results over HTTP and websocket.
type Server struct {
	cfg      *models.Config
	source   DataSource
	store    Store    // may be nil: screens then come from config
	notifier Notifier // may be nil: alerts disabled
	hub      *Hub
	metrics  *Metrics
	logger   zerolog.Logger
}

// New assembles a server. store and notifier are optional.
func New(cfg *models.Config, source DataSource, store Store, notifier Notifier) *Server {
	logger := log.With().Str("component", "server").Logger()
	metrics := NewMetrics()
	return &Server{
		cfg:      cfg,
		source:   source,
		store:    store,
		notifier: notifier,
		hub:      NewHub(logger, metrics),
		metrics:  metrics,
		logger:   logger,
	}
}

// Analyze runs one full analysis pass over a symbol: fetch candles,
// obtain an indicator snapshot (remote or locally computed), synthesize
// signals and detect support/resistance levels.
func (s *Server) Analyze(ctx context.Context, symbol, interval string) (*models.AnalysisReport, error) {
	started := time.Now()

	candles, err := s.source.GetCandles(ctx, symbol, interval, s.cfg.CandleCount)
	if err != nil {
		s.metrics.AnalysisFailures.WithLabelValues(symbol).Inc()
		return nil, fmt.Errorf("fetching candles: %w", err)
	}

	var snap *models.IndicatorSnapshot
	if s.cfg.LocalIndicators {
		snap = calculate.BuildSnapshot(candles, s.cfg)
	} else {
		snap, err = s.source.GetSnapshot(ctx, symbol, interval)
		if err != nil {
			s.metrics.AnalysisFailures.WithLabelValues(symbol).Inc()
			return nil, fmt.Errorf("fetching snapshot: %w", err)
		}
	}
	if snap == nil {
		s.metrics.AnalysisFailures.WithLabelValues(symbol).Inc()
		return nil, errors.New("no snapshot available")
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

	for _, sig := range signals {
		s.metrics.SignalsTotal.WithLabelValues(string(sig.Direction)).Inc()
	}
	s.metrics.AnalysesTotal.WithLabelValues(symbol).Inc()
	s.metrics.AnalysisDur.Observe(time.Since(started).Seconds())

	report := &models.AnalysisReport{
		Symbol:       symbol,
		Interval:     interval,
		AsOf:         asOf,
		CurrentPrice: snap.CurrentPrice,
		Snapshot:     *snap,
		Signals:      signals,
		Levels: models.LevelSet{
			Support:    support,
			Resistance: resistance,
		},
		BullishCount: bullish,
		BearishCount: bearish,
		NeutralCount: neutral,
	}
	normalizeReport(report)
	return report, nil
}

// normalizeReport replaces nil slices so clients always see [] instead
// of null.
func normalizeReport(report *models.AnalysisReport) {
	if report.Signals == nil {
		report.Signals = []models.Signal{}
	}
	if report.Levels.Support == nil {
		report.Levels.Support = []float64{}
	}
	if report.Levels.Resistance == nil {
		report.Levels.Resistance = []float64{}
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/analysis/", s.handleAnalysis)
	mux.HandleFunc("/api/v1/levels/", s.handleLevels)
	mux.HandleFunc("/api/v1/signals/", s.handleSignals)
	mux.HandleFunc("/api/v1/screens", s.handleScreens)
	mux.HandleFunc("/api/v1/screens/", s.handleScreenByID)
	mux.HandleFunc("/ws", s.hub.HandleWS)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	return mux
}

// Run serves HTTP and drives the polling loop until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.Router(),
	}

	go s.pollLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.Close()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// pollLoop re-analyzes every enabled screen on each tick and fans the
// reports out.
func (s *Server) pollLoop(ctx context.Context) {
	interval := time.Duration(s.cfg.PollInterval) * time.Second
	if interval <= 0 {
		// Fall back to one analysis per candle.
		interval = models.IntervalDuration(s.cfg.Interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First pass immediately, then on the ticker.
	s.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Server) pollOnce(ctx context.Context) {
	for _, screen := range s.screens() {
		report, err := s.Analyze(ctx, screen.Symbol, screen.Interval)
		if err != nil {
			s.logger.Error().Err(err).Str("symbol", screen.Symbol).Msg("analysis failed")
			continue
		}

		if s.store != nil {
			if err := s.store.SaveSignals(screen.Symbol, report.Signals); err != nil {
				s.logger.Error().Err(err).Str("symbol", screen.Symbol).Msg("saving signals failed")
			}
		}

		s.hub.Broadcast(report)

		if s.notifier != nil && screen.ChatID != 0 && hasStrongSignal(report, s.cfg.AlertThreshold) {
			if err := s.notifier.NotifyReport(screen.ChatID, report); err != nil {
				s.logger.Error().Err(err).Int64("chat_id", screen.ChatID).Msg("alert failed")
			}
		}
	}
}

// screens returns the polling set: stored screens when a database is
// configured, otherwise the single screen from the environment.
func (s *Server) screens() []models.Screen {
	if s.store != nil {
		screens, err := s.store.ListEnabledScreens()
		if err != nil {
			s.logger.Error().Err(err).Msg("listing screens failed")
			return nil
		}
		return screens
	}
	return []models.Screen{{Symbol: s.cfg.Symbol, Interval: s.cfg.Interval}}
}

func hasStrongSignal(report *models.AnalysisReport, threshold float64) bool {
	for _, sig := range report.Signals {
		if sig.Direction != models.DirectionNeutral && sig.Strength >= threshold {
			return true
		}
	}
	return false
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	symbol, ok := symbolFromPath(r.URL.Path, "/api/v1/analysis/")
	if !ok {
		http.Error(w, "symbol required", http.StatusBadRequest)
		return
	}

	report, err := s.Analyze(r.Context(), symbol, s.interval(r))
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("analysis failed")
		http.Error(w, "analysis failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, report)
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	symbol, ok := symbolFromPath(r.URL.Path, "/api/v1/levels/")
	if !ok {
		http.Error(w, "symbol required", http.StatusBadRequest)
		return
	}

	candles, err := s.source.GetCandles(r.Context(), symbol, s.interval(r), s.cfg.CandleCount)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("fetching candles failed")
		http.Error(w, "fetching candles failed", http.StatusBadGateway)
		return
	}

	support, resistance := technical.IdentifySupportResistance(candles)
	levels := models.LevelSet{Support: support, Resistance: resistance}
	if levels.Support == nil {
		levels.Support = []float64{}
	}
	if levels.Resistance == nil {
		levels.Resistance = []float64{}
	}
	writeJSON(w, levels)
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "signal history not configured", http.StatusServiceUnavailable)
		return
	}
	symbol, ok := symbolFromPath(r.URL.Path, "/api/v1/signals/")
	if !ok {
		http.Error(w, "symbol required", http.StatusBadRequest)
		return
	}

	signals, err := s.store.RecentSignals(symbol, 50)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("loading signal history failed")
		http.Error(w, "loading signal history failed", http.StatusInternalServerError)
		return
	}
	if signals == nil {
		signals = []models.Signal{}
	}
	writeJSON(w, signals)
}

func (s *Server) handleScreens(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "screens not configured", http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodGet:
		screens, err := s.store.ListEnabledScreens()
		if err != nil {
			http.Error(w, "listing screens failed", http.StatusInternalServerError)
			return
		}
		if screens == nil {
			screens = []models.Screen{}
		}
		writeJSON(w, screens)

	case http.MethodPost:
		var req struct {
			Symbol   string `json:"symbol"`
			Interval string `json:"interval"`
			ChatID   int64  `json:"chat_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Symbol == "" {
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		if req.Interval == "" {
			req.Interval = s.cfg.Interval
		}
		screen, err := s.store.CreateScreen(req.Symbol, req.Interval, req.ChatID)
		if err != nil {
			http.Error(w, "creating screen failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(screen); err != nil {
			s.logger.Error().Err(err).Msg("encoding response failed")
		}

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleScreenByID serves a single screen: GET returns it, DELETE takes
// it out of the polling cycle.
func (s *Server) handleScreenByID(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "screens not configured", http.StatusServiceUnavailable)
		return
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/v1/screens/"), 10, 64)
	if err != nil {
		http.Error(w, "numeric screen id required", http.StatusBadRequest)
		return
	}

	screen, err := s.store.GetScreen(id)
	if err != nil {
		http.Error(w, "loading screen failed", http.StatusInternalServerError)
		return
	}
	if screen == nil {
		http.Error(w, "screen not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, screen)

	case http.MethodDelete:
		if err := s.store.SetScreenEnabled(id, false); err != nil {
			http.Error(w, "disabling screen failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) interval(r *http.Request) string {
	if v := r.URL.Query().Get("interval"); v != "" {
		return v
	}
	return s.cfg.Interval
}

// symbolFromPath extracts the symbol from the tail of the request path.
// Symbols may themselves contain slashes ("EUR/USD").
func symbolFromPath(path, prefix string) (string, bool) {
	tail := strings.TrimPrefix(path, prefix)
	if tail == "" || tail == path {
		return "", false
	}
	symbol, err := url.PathUnescape(tail)
	if err != nil || symbol == "" {
		return "", false
	}
	return symbol, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encoding response failed")
	}
}
