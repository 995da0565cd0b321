package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/quantglass/analyst/internal/platform/http"
	"github.com/quantglass/analyst/models"
)

// Client talks to the analytics API that serves indicator snapshots and
// candle history.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *platformhttp.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new analytics client
type ClientOptions struct {
	BaseURL         string
	APIKey          string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new analytics API client
func NewClient(options ClientOptions) *Client {
	return &Client{
		apiKey:  options.APIKey,
		baseURL: options.BaseURL,
		httpClient: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "analytics_client").Logger(),
	}
}

// indicatorValue is a single-reading indicator block: {"current": 55.2}.
// Pointer fields keep "missing" distinct from "zero" all the way down.
type indicatorValue struct {
	Current *float64 `json:"current"`
}

type macdBlock struct {
	Current *struct {
		Histogram *float64 `json:"histogram"`
	} `json:"current"`
}

type adxBlock struct {
	Current *struct {
		ADX     *float64 `json:"adx"`
		PlusDI  *float64 `json:"plus_di"`
		MinusDI *float64 `json:"minus_di"`
	} `json:"current"`
}

type ichimokuBlock struct {
	Current *struct {
		TenkanSen *float64 `json:"tenkan_sen"`
		KijunSen  *float64 `json:"kijun_sen"`
	} `json:"current"`
}

// analysisResponse mirrors the analytics API payload. Every indicator
// sub-path is optional.
type analysisResponse struct {
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
	Indicators   *struct {
		RSI          *indicatorValue `json:"rsi"`
		MACD         *macdBlock      `json:"macd"`
		WilliamsR    *indicatorValue `json:"williams_r"`
		CCI          *indicatorValue `json:"cci"`
		ADX          *adxBlock       `json:"adx"`
		ParabolicSAR *indicatorValue `json:"parabolic_sar"`
		Ichimoku     *ichimokuBlock  `json:"ichimoku"`
	} `json:"indicators"`
	Status string `json:"status"`
}

// candlesResponse mirrors the candle history payload.
type candlesResponse struct {
	Symbol string          `json:"symbol"`
	Values []models.Candle `json:"values"`
	Status string          `json:"status"`
}

// GetSnapshot fetches the latest indicator snapshot for a symbol. Any
// indicator the API omits stays nil in the returned snapshot.
func (c *Client) GetSnapshot(ctx context.Context, symbol, interval string) (*models.IndicatorSnapshot, error) {
	endpoint := fmt.Sprintf(
		"%s/api/analysis/%s?interval=%s&apikey=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(interval), c.apiKey,
	)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var data analysisResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing analysis JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Status == "error" {
		return nil, fmt.Errorf("analytics API error: %s", string(body))
	}

	return toSnapshot(&data), nil
}

// GetCandles fetches candle history for a symbol, sorted oldest first.
func (c *Client) GetCandles(ctx context.Context, symbol, interval string, count int) ([]models.Candle, error) {
	endpoint := fmt.Sprintf(
		"%s/api/candles/%s?interval=%s&outputsize=%d&apikey=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(interval), count, c.apiKey,
	)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var data candlesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing candles JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Status == "error" {
		return nil, fmt.Errorf("analytics API error: %s", string(body))
	}
	if len(data.Values) == 0 {
		return nil, fmt.Errorf("empty candle data returned")
	}

	candles := make([]models.Candle, len(data.Values))
	copy(candles, data.Values)

	// Oldest first for window-based calculations.
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Datetime < candles[j].Datetime
	})

	c.logger.Debug().Int("count", len(candles)).Str("symbol", symbol).Msg("Fetched candles")
	return candles, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

// toSnapshot flattens the nested API payload into a snapshot, mapping
// every missing sub-path to an absent field.
func toSnapshot(data *analysisResponse) *models.IndicatorSnapshot {
	snap := &models.IndicatorSnapshot{
		CurrentPrice: data.CurrentPrice,
	}
	ind := data.Indicators
	if ind == nil {
		return snap
	}

	if ind.RSI != nil {
		snap.RSI = ind.RSI.Current
	}
	if ind.MACD != nil && ind.MACD.Current != nil {
		snap.MACDHistogram = ind.MACD.Current.Histogram
	}
	if ind.WilliamsR != nil {
		snap.WilliamsR = ind.WilliamsR.Current
	}
	if ind.CCI != nil {
		snap.CCI = ind.CCI.Current
	}
	if ind.ADX != nil && ind.ADX.Current != nil {
		snap.ADX = ind.ADX.Current.ADX
		snap.PlusDI = ind.ADX.Current.PlusDI
		snap.MinusDI = ind.ADX.Current.MinusDI
	}
	if ind.ParabolicSAR != nil {
		snap.ParabolicSAR = ind.ParabolicSAR.Current
	}
	if ind.Ichimoku != nil && ind.Ichimoku.Current != nil {
		snap.IchimokuTenkan = ind.Ichimoku.Current.TenkanSen
		snap.IchimokuKijun = ind.Ichimoku.Current.KijunSen
	}

	return snap
}
