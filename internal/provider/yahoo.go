package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"swingwatch/pkg/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooProvider implements the Provider interface for Yahoo Finance (unofficial API)
type YahooProvider struct {
	baseURL   string
	client    *http.Client
	limiter   *Limiter
	rateLimit int
}

// NewYahooProvider creates a new Yahoo Finance provider
func NewYahooProvider(rateLimitPerMin int) *YahooProvider {
	return NewYahooProviderWithURL(yahooBaseURL, rateLimitPerMin)
}

// NewYahooProviderWithURL points the provider at another chart endpoint
func NewYahooProviderWithURL(baseURL string, rateLimitPerMin int) *YahooProvider {
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 30 // Conservative rate limit
	}
	return &YahooProvider{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   NewLimiter("yahoo", rateLimitPerMin),
		rateLimit: rateLimitPerMin,
	}
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// IsAvailable always returns true (no API key needed)
func (p *YahooProvider) IsAvailable() bool {
	return true
}

// RateLimit returns the rate limit per minute
func (p *YahooProvider) RateLimit() int {
	return p.rateLimit
}

// yahooResponse represents the Yahoo Finance chart response. Missing values
// arrive as null and decode to zero.
type yahooResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetDailyCandles fetches daily OHLCV bars
func (p *YahooProvider) GetDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]model.Candle, error) {
	if to.IsZero() {
		to = time.Now()
	}
	q := url.Values{}
	q.Set("period1", fmt.Sprint(from.Unix()))
	q.Set("period2", fmt.Sprint(to.AddDate(0, 0, 1).Unix()))
	q.Set("interval", "1d")
	q.Set("includePrePost", "false")
	reqURL := fmt.Sprintf("%s/%s?%s", p.baseURL, url.PathEscape(symbol), q.Encode())

	var data yahooResponse
	if err := getJSON(ctx, p.client, p.limiter, p.Name(), reqURL, &data); err != nil {
		return nil, err
	}

	if data.Chart.Error != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%w: %s", ErrNoData, data.Chart.Error.Description)}
	}
	if len(data.Chart.Result) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData}
	}

	result := data.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return []model.Candle{}, nil
	}
	quotes := result.Indicators.Quote[0]

	loc := time.UTC
	if tz, err := time.LoadLocation(result.Meta.ExchangeTimezoneName); err == nil && result.Meta.ExchangeTimezoneName != "" {
		loc = tz
	}

	candles := make([]model.Candle, 0, len(result.Timestamp))
	for i := range result.Timestamp {
		if i >= len(quotes.Open) || i >= len(quotes.High) || i >= len(quotes.Low) || i >= len(quotes.Close) {
			continue
		}

		var volume int64
		if i < len(quotes.Volume) {
			volume = quotes.Volume[i]
		}

		candles = append(candles, model.Candle{
			Date:   time.Unix(result.Timestamp[i], 0).In(loc),
			Open:   quotes.Open[i],
			High:   quotes.High[i],
			Low:    quotes.Low[i],
			Close:  quotes.Close[i],
			Volume: volume,
		})
	}

	return normalize(candles, from, to), nil
}
