package backtest

import (
	"fmt"
	"math"
	"time"

	"swingwatch/internal/analyzer"
	"swingwatch/internal/classify"
	"swingwatch/internal/indicator"
	"swingwatch/pkg/model"
)

// Summary aggregates a walk-forward run. Statistics cover closed trades only.
type Summary struct {
	Stats

	AvgWinLossRatio float64 `json:"avg_win_loss_ratio"`
	EdgeScore       float64 `json:"edge_score"`
	OpenTrades      int     `json:"open_trades"`
}

// WalkForwardResult is the outcome of replaying the classification engine
// over a historical window
type WalkForwardResult struct {
	Period  string  `json:"period"`
	Trades  []Trade `json:"trades"`
	Summary Summary `json:"summary"`
}

// WalkForward replays the classification engine day by day
type WalkForward struct {
	config Config
	engine *classify.Engine
}

// NewWalkForward creates an evaluator driving the given engine
func NewWalkForward(cfg Config, engine *classify.Engine) *WalkForward {
	return &WalkForward{config: cfg, engine: engine}
}

// Simulate replays the default engine with the default configuration
func Simulate(candles []model.Candle, start, end time.Time) (*WalkForwardResult, error) {
	return NewWalkForward(DefaultConfig(), classify.NewEngine(classify.DefaultThresholds())).Simulate(candles, start, end)
}

// Simulate evaluates every bar in [start, end] with warmed indicators. Bars
// before start only warm the indicators up. A READY or BREAKOUT_READY status
// opens a position at the close with a 2 ATR stop and a 4 ATR target; exits
// are checked from the next bar on in the order stop, target, invalidation,
// time.
func (w *WalkForward) Simulate(candles []model.Candle, start, end time.Time) (*WalkForwardResult, error) {
	cfg := w.config
	result := &WalkForwardResult{Trades: make([]Trade, 0)}

	series := indicator.Compute(candles)
	equity := cfg.InitialEquity
	curve := []float64{equity}

	var (
		pos     *position
		hist    classify.HistoryContext
		closed  []Trade
		first   = -1
		lastBar = -1
	)

	for i := model.IndexOnOrAfter(candles, start); i < len(candles); i++ {
		bar := candles[i]
		if bar.Date.After(end) {
			break
		}
		if i < indicator.WarmupBars {
			continue
		}
		snap, err := indicator.BuildSnapshot(candles, series, i)
		if err != nil {
			return nil, err
		}
		if !snap.Warm() {
			continue
		}
		if first < 0 {
			first = i
		}
		lastBar = i

		in := classify.NewInput(snap, analyzer.Structure(candles, i))
		in.History = hist
		res, err := w.engine.Evaluate(in)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", bar.Date.Format("2006-01-02"), err)
		}
		hist = hist.Advance(res, true)

		if pos != nil {
			pos.days++
			trade, exited := w.checkExit(pos, bar, res.Status)
			if exited {
				equity += trade.ProfitAbsolute
				curve = append(curve, equity)
				closed = append(closed, trade)
				result.Trades = append(result.Trades, trade)
				pos = nil
			}
			continue
		}

		if !res.Status.IsReady() || *snap.ATR14 <= 0 {
			continue
		}
		shares := int(math.Floor(equity / bar.Close))
		if shares <= 0 {
			continue
		}
		atr := *snap.ATR14
		pos = openPosition(bar.Date, bar.Close, shares, bar.Close-cfg.StopATR*atr, bar.Close+cfg.TargetATR*atr)
		hist.DaysInWatchlist = 0
	}

	if pos != nil {
		result.Trades = append(result.Trades, pos.close(time.Time{}, candles[lastBar].Close, ExitOpen))
	}
	if first >= 0 {
		result.Period = period(candles[first : lastBar+1])
	}

	result.Summary = summarize(closed, curve)
	result.Summary.OpenTrades = len(result.Trades) - len(closed)
	return result, nil
}

func (w *WalkForward) checkExit(pos *position, bar model.Candle, status classify.Status) (Trade, bool) {
	switch {
	case bar.Low <= pos.stop:
		return pos.close(bar.Date, pos.stop, ExitStop), true
	case bar.High >= pos.target:
		return pos.close(bar.Date, pos.target, ExitTarget), true
	case status == classify.StatusInvalidated:
		return pos.close(bar.Date, bar.Close, ExitInvalidated), true
	case pos.days >= w.config.MaxDaysInTrade:
		return pos.close(bar.Date, bar.Close, ExitTime), true
	}
	return Trade{}, false
}

// summarize adds the edge score and compounds the closed trade returns
func summarize(closed []Trade, curve []float64) Summary {
	s := Summary{Stats: calculateStats(closed, curve)}
	if s.AvgLoss != 0 {
		s.AvgWinLossRatio = s.AvgWin / math.Abs(s.AvgLoss)
	}
	s.EdgeScore = EdgeScore(s.WinRate, s.AvgWinLossRatio)

	growth := 1.0
	for _, t := range closed {
		growth *= 1 + t.ReturnPct/100
	}
	s.TotalReturn = (growth - 1) * 100
	return s
}

// EdgeScore combines a win rate in percent with the average win/loss ratio
func EdgeScore(winRate, avgWinLossRatio float64) float64 {
	return winRate / 100 * avgWinLossRatio * 100
}
