package backtest

import (
	"math"
)

// Stats are the aggregate statistics of a trade list
type Stats struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`

	// Returns, percent per trade
	AvgWin      float64 `json:"avg_win"`
	AvgLoss     float64 `json:"avg_loss"`
	LargestWin  float64 `json:"largest_win"`
	LargestLoss float64 `json:"largest_loss"`
	TotalReturn float64 `json:"total_return"` // % of initial equity
	FinalEquity float64 `json:"final_equity"`

	// Risk metrics
	ProfitFactor float64 `json:"profit_factor"` // Gross profit / Gross loss
	Expectancy   float64 `json:"expectancy"`    // Mean return % per trade
	ExpectancyR  float64 `json:"expectancy_r"`  // Mean R per trade
	MaxDrawdown  float64 `json:"max_drawdown"`  // Maximum drawdown %
	SharpeRatio  float64 `json:"sharpe_ratio"`

	// Streaks
	MaxWinStreak  int `json:"max_win_streak"`
	MaxLoseStreak int `json:"max_lose_streak"`

	EquityCurve []float64 `json:"equity_curve"`
}

// calculateStats computes statistics over closed trades. equity is the
// equity curve starting at the initial equity, one point per closed trade.
func calculateStats(trades []Trade, equity []float64) Stats {
	var s Stats
	s.EquityCurve = equity
	if len(equity) > 0 {
		s.FinalEquity = equity[len(equity)-1]
		if initial := equity[0]; initial > 0 {
			s.TotalReturn = (s.FinalEquity - initial) / initial * 100
		}
		s.MaxDrawdown = maxDrawdown(equity)
	}
	if len(trades) == 0 {
		return s
	}
	s.TotalTrades = len(trades)

	var totalWinPct, totalLossPct float64
	var grossProfit, grossLoss float64
	var winStreak, loseStreak int
	var totalR float64
	returns := make([]float64, len(trades))

	for i, t := range trades {
		returns[i] = t.ReturnPct / 100
		totalR += t.RMultiple

		if t.IsWin {
			s.WinningTrades++
			totalWinPct += t.ReturnPct
			grossProfit += t.ProfitAbsolute
			if t.ReturnPct > s.LargestWin {
				s.LargestWin = t.ReturnPct
			}

			winStreak++
			loseStreak = 0
			if winStreak > s.MaxWinStreak {
				s.MaxWinStreak = winStreak
			}
		} else {
			s.LosingTrades++
			totalLossPct += t.ReturnPct
			grossLoss += math.Abs(t.ProfitAbsolute)
			if t.ReturnPct < s.LargestLoss {
				s.LargestLoss = t.ReturnPct
			}

			loseStreak++
			winStreak = 0
			if loseStreak > s.MaxLoseStreak {
				s.MaxLoseStreak = loseStreak
			}
		}
	}

	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	if s.WinningTrades > 0 {
		s.AvgWin = totalWinPct / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = totalLossPct / float64(s.LosingTrades)
	}

	s.Expectancy = average(returns) * 100
	s.ExpectancyR = totalR / float64(s.TotalTrades)
	if grossLoss > 0 {
		s.ProfitFactor = grossProfit / grossLoss
	}

	// Sharpe Ratio (per trade, annualized)
	if std := stdDev(returns); std > 0 {
		s.SharpeRatio = average(returns) / std * math.Sqrt(252)
	}
	return s
}

// maxDrawdown returns the largest peak-to-trough decline in percent of the peak
func maxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	var maxDD float64
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - e) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	avg := average(values)
	var sumSquares float64
	for _, v := range values {
		sumSquares += (v - avg) * (v - avg)
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}
