package provider

import (
	"context"
	"sync"
	"time"

	"swingwatch/pkg/model"
)

// CachingProvider wraps a Provider with an in-memory cache for GetDailyCandles.
// It keeps the latest series per symbol: a repeated request for the same
// calendar range is served from memory, and a new range replaces the entry.
// A long-running watch therefore holds at most one series per symbol.
type CachingProvider struct {
	inner Provider
	cache map[string]cachedSeries
	mu    sync.Mutex
}

type cachedSeries struct {
	from, to time.Time
	candles  []model.Candle
}

// NewCachingProvider creates a caching wrapper
func NewCachingProvider(inner Provider) *CachingProvider {
	return &CachingProvider{
		inner: inner,
		cache: make(map[string]cachedSeries),
	}
}

func (p *CachingProvider) Name() string      { return p.inner.Name() }
func (p *CachingProvider) IsAvailable() bool { return p.inner.IsAvailable() }
func (p *CachingProvider) RateLimit() int    { return p.inner.RateLimit() }

func (p *CachingProvider) GetDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]model.Candle, error) {
	dayFrom, dayTo := dayOf(from), dayOf(to)

	p.mu.Lock()
	if cached, ok := p.cache[symbol]; ok && cached.from.Equal(dayFrom) && cached.to.Equal(dayTo) {
		p.mu.Unlock()
		return cached.candles, nil
	}
	p.mu.Unlock()

	candles, err := p.inner.GetDailyCandles(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[symbol] = cachedSeries{from: dayFrom, to: dayTo, candles: candles}
	p.mu.Unlock()

	return candles, nil
}

// Len returns the number of cached symbols
func (p *CachingProvider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}
