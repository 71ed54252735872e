package backtest

import (
	"math"
	"testing"
	"time"

	"swingwatch/internal/strategy"
	"swingwatch/pkg/model"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// cycleCandles repeats steps as close-to-close changes starting at 100.
// Every bar spans close-0.5 to close+0.5.
func cycleCandles(n int, steps []float64, volume int64) []model.Candle {
	candles := make([]model.Candle, n)
	price := 100.0
	for i := range candles {
		if i > 0 {
			price += steps[(i-1)%len(steps)]
		}
		candles[i] = model.Candle{
			Date:   day0.AddDate(0, 0, i),
			Open:   price,
			High:   price + 0.5,
			Low:    price - 0.5,
			Close:  price,
			Volume: volume,
		}
	}
	return candles
}

func flatCandles(n int) []model.Candle {
	return cycleCandles(n, []float64{0}, 1_000_000)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestRunBacktestFlatSeries(t *testing.T) {
	candles := flatCandles(60)
	for i := range candles {
		candles[i].High = candles[i].Close
		candles[i].Low = candles[i].Close
	}

	for _, label := range strategy.Labels() {
		result := RunBacktest(candles, label)
		if result.TotalTrades != 0 || len(result.Trades) != 0 {
			t.Errorf("%s: Expected 0 trades, got %d", label, result.TotalTrades)
		}
		if result.FinalEquity != 10000 || result.TotalReturn != 0 || result.SharpeRatio != 0 {
			t.Errorf("%s: Expected untouched equity, got %+v", label, result.Stats)
		}
	}
}

func TestRunBacktestTooShort(t *testing.T) {
	result := RunBacktest(cycleCandles(50, []float64{1, -0.6}, 1000), "Trend Following")
	if result.TotalTrades != 0 {
		t.Errorf("Expected no trades inside the warmup, got %d", result.TotalTrades)
	}
	if result := RunBacktest(nil, "Pullback"); result.TotalTrades != 0 || result.Period != "" {
		t.Errorf("Expected empty result for no candles, got %+v", result)
	}
}

func TestRunBacktestForcedClose(t *testing.T) {
	// Zigzag uptrend: RSI stays between 60 and 65, so every bar is Trend
	// Following and the position is never stopped out.
	candles := cycleCandles(80, []float64{1, -0.6}, 1000)

	result := RunBacktest(candles, "Trend Following")
	if result.TotalTrades != 1 {
		t.Fatalf("Expected 1 trade, got %d", result.TotalTrades)
	}

	trade := result.Trades[0]
	if !trade.EntryDate.Equal(candles[50].Date) {
		t.Errorf("Expected entry on the first evaluated bar, got %v", trade.EntryDate)
	}
	if trade.Shares != 90 {
		t.Errorf("Expected 90 shares (floor(10000/110)), got %d", trade.Shares)
	}
	if trade.ExitReason != ExitEndOfData {
		t.Errorf("Expected %s, got %s", ExitEndOfData, trade.ExitReason)
	}
	if !trade.Closed() || !trade.ExitDate.Equal(candles[79].Date) {
		t.Errorf("Expected exit on the final bar, got %v", trade.ExitDate)
	}

	last := candles[79].Close
	if !approx(trade.ProfitAbsolute, 90*(last-110)) {
		t.Errorf("Expected profit %f, got %f", 90*(last-110), trade.ProfitAbsolute)
	}
	if !trade.IsWin || result.WinRate != 100 {
		t.Errorf("Expected a winning trade, got win=%v rate=%f", trade.IsWin, result.WinRate)
	}
	if !approx(result.FinalEquity, 10000+trade.ProfitAbsolute) {
		t.Errorf("Expected final equity %f, got %f", 10000+trade.ProfitAbsolute, result.FinalEquity)
	}
	if !approx(result.TotalReturn, trade.ProfitAbsolute/100) {
		t.Errorf("Expected total return %f, got %f", trade.ProfitAbsolute/100, result.TotalReturn)
	}
}

func TestRunBacktestStopLoss(t *testing.T) {
	candles := cycleCandles(80, []float64{1, -0.6}, 1000)
	crash := candles[78].Close - 10
	candles[79].Close, candles[79].Open = crash, crash
	candles[79].High, candles[79].Low = crash+0.5, crash-0.5

	result := RunBacktest(candles, "Trend Following")
	if result.TotalTrades != 1 {
		t.Fatalf("Expected 1 trade, got %d", result.TotalTrades)
	}

	trade := result.Trades[0]
	if trade.ExitReason != ExitStop {
		t.Errorf("Expected %s, got %s", ExitStop, trade.ExitReason)
	}
	if trade.ExitPrice != trade.Stop {
		t.Errorf("Expected exit at the stop %f, got %f", trade.Stop, trade.ExitPrice)
	}
	if trade.RMultiple != -1 {
		t.Errorf("Expected -1R, got %f", trade.RMultiple)
	}
	if trade.IsWin || result.LosingTrades != 1 || result.AvgLoss >= 0 {
		t.Errorf("Expected one losing trade, got %+v", result.Stats)
	}
	if result.MaxDrawdown <= 0 {
		t.Errorf("Expected a drawdown, got %f", result.MaxDrawdown)
	}
}

func TestRunBacktestOverboughtExit(t *testing.T) {
	// Zigzag uptrend to bar 60, then a straight rally that lifts RSI above 70
	// on bar 63 (RSI 70.2) while the stop is far below
	candles := cycleCandles(80, []float64{1, -0.6}, 1000)
	for i := 61; i < len(candles); i++ {
		price := candles[i-1].Close + 1
		candles[i].Open, candles[i].Close = price, price
		candles[i].High, candles[i].Low = price+0.5, price-0.5
	}

	result := RunBacktest(candles, "Trend Following")
	if result.TotalTrades != 1 {
		t.Fatalf("Expected 1 trade, got %d: %+v", result.TotalTrades, result.Trades)
	}

	trade := result.Trades[0]
	if trade.ExitReason != ExitOverbought {
		t.Errorf("Expected %s, got %s", ExitOverbought, trade.ExitReason)
	}
	if !trade.Closed() || !trade.ExitDate.Equal(candles[63].Date) {
		t.Errorf("Expected exit on bar 63, got %v", trade.ExitDate)
	}
	if trade.ExitPrice != candles[63].Close {
		t.Errorf("Expected exit at the close %f, got %f", candles[63].Close, trade.ExitPrice)
	}
	if !approx(trade.ProfitAbsolute, 450) {
		t.Errorf("Expected profit 450 (90 shares x 5), got %f", trade.ProfitAbsolute)
	}
	if !approx(result.FinalEquity, 10450) {
		t.Errorf("Expected final equity 10450, got %f", result.FinalEquity)
	}
}

func TestRunBacktestOtherLabelNeverEnters(t *testing.T) {
	candles := cycleCandles(80, []float64{1, -0.6}, 1000)
	for _, label := range []string{"Pullback", "Breakout", "Reversal", "Momentum"} {
		if result := RunBacktest(candles, label); result.TotalTrades != 0 {
			t.Errorf("%s: Expected 0 trades, got %d", label, result.TotalTrades)
		}
	}
}

func TestCalculateStats(t *testing.T) {
	trades := []Trade{
		{ReturnPct: 10, ProfitAbsolute: 1000, RMultiple: 2, IsWin: true},
		{ReturnPct: -5, ProfitAbsolute: -550, RMultiple: -1},
		{ReturnPct: -5, ProfitAbsolute: -522.5, RMultiple: -1},
		{ReturnPct: 20, ProfitAbsolute: 1985.5, RMultiple: 4, IsWin: true},
	}
	equity := []float64{10000, 11000, 10450, 9927.5, 11913}

	s := calculateStats(trades, equity)

	if s.TotalTrades != 4 || s.WinningTrades != 2 || s.LosingTrades != 2 {
		t.Fatalf("Expected 4/2/2 trades, got %d/%d/%d", s.TotalTrades, s.WinningTrades, s.LosingTrades)
	}
	if s.WinRate != 50 {
		t.Errorf("Expected win rate 50, got %f", s.WinRate)
	}
	if s.AvgWin != 15 || s.AvgLoss != -5 {
		t.Errorf("Expected avg win 15 / loss -5, got %f / %f", s.AvgWin, s.AvgLoss)
	}
	if s.LargestWin != 20 || s.LargestLoss != -5 {
		t.Errorf("Expected largest 20 / -5, got %f / %f", s.LargestWin, s.LargestLoss)
	}
	if !approx(s.TotalReturn, 19.13) {
		t.Errorf("Expected total return 19.13, got %f", s.TotalReturn)
	}
	if !approx(s.MaxDrawdown, (11000-9927.5)/11000*100) {
		t.Errorf("Expected drawdown %f, got %f", (11000-9927.5)/11000*100, s.MaxDrawdown)
	}
	if !approx(s.ProfitFactor, 2985.5/1072.5) {
		t.Errorf("Expected profit factor %f, got %f", 2985.5/1072.5, s.ProfitFactor)
	}
	if s.ExpectancyR != 1 {
		t.Errorf("Expected 1R expectancy, got %f", s.ExpectancyR)
	}
	if s.MaxWinStreak != 1 || s.MaxLoseStreak != 2 {
		t.Errorf("Expected streaks 1/2, got %d/%d", s.MaxWinStreak, s.MaxLoseStreak)
	}

	returns := []float64{0.10, -0.05, -0.05, 0.20}
	expected := average(returns) / stdDev(returns) * math.Sqrt(252)
	if !approx(s.SharpeRatio, expected) {
		t.Errorf("Expected sharpe %f, got %f", expected, s.SharpeRatio)
	}
}

func TestCalculateStatsSingleTrade(t *testing.T) {
	s := calculateStats([]Trade{{ReturnPct: 5, ProfitAbsolute: 500, IsWin: true}}, []float64{10000, 10500})
	if s.SharpeRatio != 0 {
		t.Errorf("Expected sharpe 0 for a single trade, got %f", s.SharpeRatio)
	}
	if s.ProfitFactor != 0 {
		t.Errorf("Expected profit factor 0 without losses, got %f", s.ProfitFactor)
	}
}

func TestStdDev(t *testing.T) {
	tests := []struct {
		values   []float64
		expected float64
	}{
		{[]float64{}, 0},
		{[]float64{5}, 0},
		{[]float64{2, 4, 4, 4, 5, 5, 7, 9}, 2.138089935},
	}

	for _, tt := range tests {
		if got := stdDev(tt.values); math.Abs(got-tt.expected) > 1e-6 {
			t.Errorf("stdDev(%v): Expected %f, got %f", tt.values, tt.expected, got)
		}
	}
}

func TestRunMonteCarlo(t *testing.T) {
	exit := day0
	trades := []Trade{
		{RMultiple: 2, ExitDate: &exit},
		{RMultiple: -1, ExitDate: &exit},
		{RMultiple: 1.5, ExitDate: &exit},
		{RMultiple: -1, ExitDate: &exit},
		{RMultiple: 100}, // open, ignored
	}

	a := RunMonteCarlo(trades, 10000, 0.01, 200, 42)
	b := RunMonteCarlo(trades, 10000, 0.01, 200, 42)
	if a == nil || b == nil {
		t.Fatal("Expected a result")
	}
	if a.MedianReturn != b.MedianReturn || a.WorstCase != b.WorstCase {
		t.Error("Expected identical results for the same seed")
	}

	// Order does not change the sum: 1.5R net at 1% risk
	if !approx(a.MedianReturn, 1.5) || !approx(a.WorstCase, 1.5) || !approx(a.BestCase, 1.5) {
		t.Errorf("Expected every path to end at 1.5%%, got %+v", a)
	}
	if a.RuinProbability != 0 {
		t.Errorf("Expected no ruin, got %f", a.RuinProbability)
	}
	if len(a.MaxDrawdowns) != 200 {
		t.Errorf("Expected 200 drawdowns, got %d", len(a.MaxDrawdowns))
	}

	if RunMonteCarlo(nil, 10000, 0.01, 100, 1) != nil {
		t.Error("Expected nil without trades")
	}
}
