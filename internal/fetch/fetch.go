// Package fetch resolves instrument price series from the historical data
// endpoint, degrades to locally generated demo data when the endpoint is
// unavailable, and normalizes and aligns series for the portfolio.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"wallstreet-rpg/internal/generator"
	"wallstreet-rpg/internal/inflation"
	"wallstreet-rpg/internal/models"
	"wallstreet-rpg/internal/resilience"
	"wallstreet-rpg/pkg/utils"
)

// Config holds fetcher configuration. An empty Endpoint or APIKey silently
// degrades every request to demo generation.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client resolves price series. All failure modes recover locally; a series
// request never surfaces an upstream error to the caller.
type Client struct {
	cfg     Config
	httpc   *http.Client
	gen     *generator.Generator
	breaker *resilience.Breaker
	log     zerolog.Logger
}

// New creates a fetch client backed by the given generator for fallback.
func New(cfg Config, gen *generator.Generator, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: timeout},
		gen:     gen,
		breaker: resilience.NewBreaker(resilience.DefaultConfig()),
		log:     logger.With().Str("component", "fetch").Logger(),
	}
}

// Historical resolves the full-year series for (symbol, year). Responses for
// a year inside the supported range are deterministic regardless of whether
// they came from the endpoint or the demo fallback.
func (c *Client) Historical(ctx context.Context, symbol string, year int) *models.HistoricalResponse {
	if c.cfg.Endpoint == "" || c.cfg.APIKey == "" {
		c.log.Debug().Str("symbol", symbol).Int("year", year).Msg("No endpoint configured, using demo data")
		return c.demo(symbol, year)
	}

	resp, err := resilience.Do(c.breaker, ctx, func() (*models.HistoricalResponse, error) {
		return utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() (*models.HistoricalResponse, error) {
			return c.request(ctx, symbol, year)
		})
	})
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Int("year", year).
			Str("breaker", string(c.breaker.State())).Msg("Endpoint unavailable, falling back to demo data")
		return c.demo(symbol, year)
	}
	if !resp.Success || len(resp.Data) == 0 {
		c.log.Warn().Str("symbol", symbol).Int("year", year).Str("message", resp.Message).Msg("Empty endpoint payload, falling back to demo data")
		return c.demo(symbol, year)
	}
	return resp
}

// RandomSample returns a single random historical series (non-deterministic
// entry point).
func (c *Client) RandomSample() *models.HistoricalResponse {
	s := c.gen.Random()
	return &models.HistoricalResponse{
		Success:      true,
		Symbol:       s.Symbol,
		StockName:    s.StockName,
		Year:         s.Year,
		Data:         s.Candles,
		Count:        len(s.Candles),
		IsHistorical: true,
		IsDemo:       true,
	}
}

func (c *Client) request(ctx context.Context, symbol string, year int) (*models.HistoricalResponse, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("year", fmt.Sprintf("%d", year))
	q.Set("type", "historical")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	httpResp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint returned status %d", httpResp.StatusCode)
	}

	var resp models.HistoricalResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

func (c *Client) demo(symbol string, year int) *models.HistoricalResponse {
	var s generator.Series
	if symbol != "" && year >= generator.MinYear && year <= generator.MaxYear {
		s = c.gen.Historical(symbol, year)
	} else {
		s = c.gen.Random()
	}
	return &models.HistoricalResponse{
		Success:      true,
		Symbol:       s.Symbol,
		StockName:    s.StockName,
		Year:         s.Year,
		Data:         s.Candles,
		Count:        len(s.Candles),
		IsHistorical: true,
		IsDemo:       true,
	}
}

// ResolveAdjusted fetches the series for every symbol, converts each candle
// into current-dollar terms, and truncates all series to a common length so
// the playback timeline stays aligned. Returns the series and display names.
func (c *Client) ResolveAdjusted(ctx context.Context, symbols []string, year int) (map[string][]models.Candle, map[string]string) {
	series := make(map[string][]models.Candle, len(symbols))
	names := make(map[string]string, len(symbols))
	for _, sym := range symbols {
		resp := c.Historical(ctx, sym, year)
		adjusted := make([]models.Candle, len(resp.Data))
		for i, candle := range resp.Data {
			adjusted[i] = inflation.AdjustCandle(candle, year)
		}
		series[sym] = adjusted
		names[sym] = resp.StockName
	}
	Synchronize(series)
	return series, names
}

// Synchronize truncates every series in place to the shortest common length
// and returns that length. A single short series must not desynchronize the
// shared day index.
func Synchronize(series map[string][]models.Candle) int {
	minLen := -1
	for _, s := range series {
		if minLen < 0 || len(s) < minLen {
			minLen = len(s)
		}
	}
	if minLen <= 0 {
		return 0
	}
	for sym, s := range series {
		if len(s) > minLen {
			series[sym] = s[:minLen]
		}
	}
	return minLen
}
