package models

import (
	"time"
)

// Candle represents a single price candle
type Candle struct {
	Datetime string  `json:"datetime"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume,omitempty"`
}

// SignalDirection labels which way a signal points.
type SignalDirection string

const (
	DirectionBullish SignalDirection = "BULLISH"
	DirectionBearish SignalDirection = "BEARISH"
	DirectionNeutral SignalDirection = "NEUTRAL"
)

// IndicatorSnapshot holds the most recent reading of each tracked indicator
// for one symbol at one instant. A nil field means the indicator is not
// available, which is not the same thing as a zero reading.
type IndicatorSnapshot struct {
	CurrentPrice   float64  `json:"current_price"`
	RSI            *float64 `json:"rsi,omitempty"`
	MACDHistogram  *float64 `json:"macd_histogram,omitempty"`
	WilliamsR      *float64 `json:"williams_r,omitempty"`
	CCI            *float64 `json:"cci,omitempty"`
	ADX            *float64 `json:"adx,omitempty"`
	PlusDI         *float64 `json:"plus_di,omitempty"`
	MinusDI        *float64 `json:"minus_di,omitempty"`
	ParabolicSAR   *float64 `json:"parabolic_sar,omitempty"`
	IchimokuTenkan *float64 `json:"ichimoku_tenkan,omitempty"`
	IchimokuKijun  *float64 `json:"ichimoku_kijun,omitempty"`
}

// Signal is one directional reading synthesized from a single indicator
// family. Strength is non-negative and unbounded above; direction and
// strength are computed independently.
type Signal struct {
	Type      string          `json:"type"`
	Direction SignalDirection `json:"direction"`
	Strength  float64         `json:"strength"`
	Timestamp time.Time       `json:"timestamp"`
}

// LevelSet holds detected price levels, nearest to the current price first.
type LevelSet struct {
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
}

// AnalysisReport is the full output of one analysis pass over a symbol.
type AnalysisReport struct {
	Symbol       string            `json:"symbol"`
	Interval     string            `json:"interval"`
	AsOf         time.Time         `json:"as_of"`
	CurrentPrice float64           `json:"current_price"`
	Snapshot     IndicatorSnapshot `json:"snapshot"`
	Signals      []Signal          `json:"signals"`
	Levels       LevelSet          `json:"levels"`
	BullishCount int               `json:"bullish_count"`
	BearishCount int               `json:"bearish_count"`
	NeutralCount int               `json:"neutral_count"`
}

// Screen is a saved dashboard screen: a symbol/interval pair the service
// re-analyzes on every polling cycle.
type Screen struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Interval  string    `json:"interval"`
	ChatID    int64     `json:"chat_id,omitempty"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// Config holds all application configuration
type Config struct {
	AnalyticsBaseURL string  `envconfig:"ANALYTICS_BASE_URL"`
	AnalyticsAPIKey  string  `envconfig:"ANALYTICS_API_KEY"`
	DatabaseURL      string  `envconfig:"DATABASE_URL"`
	TelegramToken    string  `envconfig:"TELEGRAM_TOKEN"`
	ListenAddr       string  `envconfig:"LISTEN_ADDR" default:":8080"`
	Symbol           string  `envconfig:"SYMBOL" default:"EUR/USD"`
	Interval         string  `envconfig:"INTERVAL" default:"5min"`
	CandleCount      int     `envconfig:"CANDLE_COUNT" default:"120"`
	LocalIndicators  bool    `envconfig:"LOCAL_INDICATORS" default:"false"`
	PollInterval     int     `envconfig:"POLL_INTERVAL" default:"60"` // seconds
	AlertThreshold   float64 `envconfig:"ALERT_THRESHOLD" default:"40"`
	RSIPeriod        int     `envconfig:"RSI_PERIOD" default:"14"`
	MACDFastPeriod   int     `envconfig:"MACD_FAST_PERIOD" default:"12"`
	MACDSlowPeriod   int     `envconfig:"MACD_SLOW_PERIOD" default:"26"`
	MACDSignalPeriod int     `envconfig:"MACD_SIGNAL_PERIOD" default:"9"`
	WilliamsRPeriod  int     `envconfig:"WILLIAMS_R_PERIOD" default:"14"`
	CCIPeriod        int     `envconfig:"CCI_PERIOD" default:"20"`
	ADXPeriod        int     `envconfig:"ADX_PERIOD" default:"14"`
	SARAcceleration  float64 `envconfig:"SAR_ACCELERATION" default:"0.02"`
	SARMaximum       float64 `envconfig:"SAR_MAXIMUM" default:"0.2"`
	TenkanPeriod     int     `envconfig:"TENKAN_PERIOD" default:"9"`
	KijunPeriod      int     `envconfig:"KIJUN_PERIOD" default:"26"`
	LogLevel         string  `envconfig:"LOG_LEVEL" default:"info"`
	RequestTimeout   int     `envconfig:"REQUEST_TIMEOUT" default:"30"` // seconds
}
