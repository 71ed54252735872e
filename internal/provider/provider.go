package provider

import (
	"context"
	"errors"
	"sort"
	"time"

	"swingwatch/pkg/model"
)

// ErrNoData is returned when a provider has nothing for the symbol. An empty
// slice with a nil error is a valid series with no bars in the range.
var ErrNoData = errors.New("no data available")

// Provider defines the interface for market-data providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// GetDailyCandles fetches daily OHLCV bars with dates in [from, to],
	// ascending with unique dates
	GetDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]model.Candle, error)

	// IsAvailable checks if the provider is usable (has credentials)
	IsAvailable() bool

	// RateLimit returns the rate limit per minute
	RateLimit() int
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// FallbackProvider tries multiple providers in order
type FallbackProvider struct {
	providers []Provider
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	// Filter to only available providers
	available := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.IsAvailable() {
			available = append(available, p)
		}
	}
	return &FallbackProvider{providers: available}
}

// Name returns the combined provider name
func (f *FallbackProvider) Name() string {
	return "fallback"
}

// GetDailyCandles tries each provider in order until one succeeds
func (f *FallbackProvider) GetDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]model.Candle, error) {
	lastErr := error(&ProviderError{Provider: f.Name(), Err: errors.New("no provider available")})
	for _, p := range f.providers {
		data, err := p.GetDailyCandles(ctx, symbol, from, to)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, lastErr
}

// IsAvailable returns true if any provider is available
func (f *FallbackProvider) IsAvailable() bool {
	return len(f.providers) > 0
}

// RateLimit returns the highest rate limit among providers
func (f *FallbackProvider) RateLimit() int {
	maxRate := 0
	for _, p := range f.providers {
		if p.RateLimit() > maxRate {
			maxRate = p.RateLimit()
		}
	}
	return maxRate
}

// Providers returns the list of underlying providers
func (f *FallbackProvider) Providers() []Provider {
	return f.providers
}

// normalize sorts bars ascending, keeps the last bar of a duplicated date and
// drops bars outside [from, to] or without a close. Dates are truncated to
// midnight UTC of the exchange-local trading day.
func normalize(candles []model.Candle, from, to time.Time) []model.Candle {
	for i := range candles {
		d := candles[i].Date
		candles[i].Date = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Date.Before(candles[j].Date)
	})

	lo := dayOf(from)
	hi := dayOf(to)
	out := make([]model.Candle, 0, len(candles))
	for _, c := range candles {
		if c.Close <= 0 || c.Date.Before(lo) || (!to.IsZero() && c.Date.After(hi)) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Date.Equal(c.Date) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}

func dayOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
