package backtest

import (
	"math"

	"swingwatch/internal/indicator"
	"swingwatch/internal/strategy"
	"swingwatch/pkg/model"
)

// BacktestResult contains the complete backtest results for one
// (symbol, strategy, evaluation date) triple
type BacktestResult struct {
	Symbol   string `json:"symbol,omitempty"`
	Strategy string `json:"strategy"`
	Period   string `json:"period"`

	Stats

	// Individual trades
	Trades []Trade `json:"trades"`
}

// Config holds the simulation parameters shared by the backtest and the
// walk-forward evaluator
type Config struct {
	InitialEquity  float64 `yaml:"initial_equity" validate:"gt=0"`
	WarmupBars     int     `yaml:"warmup_bars" validate:"gte=50"`
	StopATR        float64 `yaml:"stop_atr" validate:"gt=0"`   // stop = close - StopATR*ATR14
	TargetATR      float64 `yaml:"target_atr" validate:"gt=0"` // walk-forward target = close + TargetATR*ATR14
	ExitRSI        float64 `yaml:"exit_rsi" validate:"gt=0,lte=100"`
	MaxDaysInTrade int     `yaml:"max_days_in_trade" validate:"gt=0"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		InitialEquity:  10000,
		WarmupBars:     50,
		StopATR:        2,
		TargetATR:      4, // 2:1 reward:risk
		ExitRSI:        70,
		MaxDaysInTrade: 20,
	}
}

// Backtester replays a strategy label over a candle series
type Backtester struct {
	config Config
}

// NewBacktester creates a new backtester
func NewBacktester(cfg Config) *Backtester {
	return &Backtester{config: cfg}
}

// RunBacktest runs a backtest with the default configuration
func RunBacktest(candles []model.Candle, strategyLabel string) *BacktestResult {
	return NewBacktester(DefaultConfig()).Run(candles, strategyLabel)
}

// Run enters when the setup detected on a bar equals strategyLabel and exits
// on the ATR stop or an overbought RSI. One position at a time, sized with
// all available equity. A position still open after the last bar is closed
// at the final close.
func (b *Backtester) Run(candles []model.Candle, strategyLabel string) *BacktestResult {
	cfg := b.config
	result := &BacktestResult{
		Strategy: strategyLabel,
		Period:   period(candles),
		Trades:   make([]Trade, 0),
	}

	series := indicator.Compute(candles)
	equity := cfg.InitialEquity
	curve := []float64{equity}
	var pos *position

	for i := cfg.WarmupBars; i < len(candles); i++ {
		bar := candles[i]
		cond, ok := strategy.ConditionsAt(candles, series, i)
		if !ok {
			continue
		}

		if pos == nil {
			if string(strategy.DetectSetup(cond)) != strategyLabel {
				continue
			}
			atr, ok := series.ATR14.At(i)
			if !ok || atr <= 0 {
				continue
			}
			shares := int(math.Floor(equity / bar.Close))
			if shares <= 0 {
				continue
			}
			pos = openPosition(bar.Date, bar.Close, shares, bar.Close-cfg.StopATR*atr, 0)
			continue
		}

		var trade Trade
		switch {
		case bar.Low <= pos.stop:
			trade = pos.close(bar.Date, pos.stop, ExitStop)
		case cond.RSI > cfg.ExitRSI:
			trade = pos.close(bar.Date, bar.Close, ExitOverbought)
		default:
			continue
		}

		equity += trade.ProfitAbsolute
		curve = append(curve, equity)
		result.Trades = append(result.Trades, trade)
		pos = nil
	}

	if pos != nil {
		last := candles[len(candles)-1]
		trade := pos.close(last.Date, last.Close, ExitEndOfData)
		equity += trade.ProfitAbsolute
		curve = append(curve, equity)
		result.Trades = append(result.Trades, trade)
	}

	result.Stats = calculateStats(result.Trades, curve)
	return result
}

func period(candles []model.Candle) string {
	if len(candles) == 0 {
		return ""
	}
	return candles[0].Date.Format("2006-01-02") + " ~ " + candles[len(candles)-1].Date.Format("2006-01-02")
}
