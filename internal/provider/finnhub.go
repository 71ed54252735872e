package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"swingwatch/pkg/model"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubProvider implements the Provider interface for the Finnhub API
type FinnhubProvider struct {
	apiKey    string
	baseURL   string
	client    *http.Client
	limiter   *Limiter
	rateLimit int
}

// NewFinnhubProvider creates a new Finnhub provider
func NewFinnhubProvider(apiKey string, rateLimitPerMin int) *FinnhubProvider {
	return NewFinnhubProviderWithURL(finnhubBaseURL, apiKey, rateLimitPerMin)
}

// NewFinnhubProviderWithURL points the provider at another API root
func NewFinnhubProviderWithURL(baseURL, apiKey string, rateLimitPerMin int) *FinnhubProvider {
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 60 // Free tier
	}
	return &FinnhubProvider{
		apiKey:    apiKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   NewLimiter("finnhub", rateLimitPerMin),
		rateLimit: rateLimitPerMin,
	}
}

// Name returns the provider name
func (p *FinnhubProvider) Name() string {
	return "finnhub"
}

// IsAvailable checks if the provider has an API key
func (p *FinnhubProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// RateLimit returns the rate limit per minute
func (p *FinnhubProvider) RateLimit() int {
	return p.rateLimit
}

// finnhubCandle represents the Finnhub candle response
type finnhubCandle struct {
	C []float64 `json:"c"` // Close prices
	H []float64 `json:"h"` // High prices
	L []float64 `json:"l"` // Low prices
	O []float64 `json:"o"` // Open prices
	S string    `json:"s"` // Status
	T []int64   `json:"t"` // Timestamps
	V []int64   `json:"v"` // Volumes
}

// GetDailyCandles fetches daily OHLCV data
func (p *FinnhubProvider) GetDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]model.Candle, error) {
	if to.IsZero() {
		to = time.Now()
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("resolution", "D")
	q.Set("from", fmt.Sprint(from.Unix()))
	q.Set("to", fmt.Sprint(to.AddDate(0, 0, 1).Unix()))
	q.Set("token", p.apiKey)

	var data finnhubCandle
	if err := getJSON(ctx, p.client, p.limiter, p.Name(), p.baseURL+"/stock/candle?"+q.Encode(), &data); err != nil {
		return nil, err
	}

	if data.S == "no_data" {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData}
	}
	if data.S != "ok" {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("unexpected status %q", data.S)}
	}

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	candles := make([]model.Candle, 0, len(data.T))
	for i := range data.T {
		if i >= len(data.O) || i >= len(data.H) || i >= len(data.L) || i >= len(data.C) {
			continue
		}

		var volume int64
		if i < len(data.V) {
			volume = data.V[i]
		}

		candles = append(candles, model.Candle{
			Date:   time.Unix(data.T[i], 0).In(loc),
			Open:   data.O[i],
			High:   data.H[i],
			Low:    data.L[i],
			Close:  data.C[i],
			Volume: volume,
		})
	}

	return normalize(candles, from, to), nil
}
