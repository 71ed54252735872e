package backtest

import (
	"math"
	"testing"
	"time"

	"swingwatch/internal/classify"
)

// swingSteps is a five-bar swing with rising pivot lows: the fifth bar of
// every cycle sits just above EMA20 with calm momentum, which reads READY.
var swingSteps = []float64{1.5, 1.5, -1, -1, -0.5}

func TestSimulateTimeExits(t *testing.T) {
	candles := cycleCandles(160, swingSteps, 1_000_000)

	result, err := Simulate(candles, candles[60].Date, candles[159].Date)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []struct {
		entry, exit int
		shares      int
	}{
		{64, 84, 93},
		{89, 109, 93},
		{114, 134, 92},
		{139, 159, 92},
	}
	if len(result.Trades) != len(expected) {
		t.Fatalf("Expected %d trades, got %d: %+v", len(expected), len(result.Trades), result.Trades)
	}

	for i, want := range expected {
		trade := result.Trades[i]
		if !trade.EntryDate.Equal(candles[want.entry].Date) {
			t.Errorf("trade %d: Expected entry %v, got %v", i, candles[want.entry].Date, trade.EntryDate)
		}
		if trade.ExitDate == nil || !trade.ExitDate.Equal(candles[want.exit].Date) {
			t.Errorf("trade %d: Expected exit %v, got %v", i, candles[want.exit].Date, trade.ExitDate)
		}
		if trade.ExitReason != ExitTime {
			t.Errorf("trade %d: Expected %s, got %s", i, ExitTime, trade.ExitReason)
		}
		if trade.Shares != want.shares {
			t.Errorf("trade %d: Expected %d shares, got %d", i, want.shares, trade.Shares)
		}
		if trade.Target <= trade.EntryPrice || trade.Stop >= trade.EntryPrice {
			t.Errorf("trade %d: Expected stop below and target above entry, got %+v", i, trade)
		}
		if !approx((trade.Target-trade.EntryPrice)/(trade.EntryPrice-trade.Stop), 2) {
			t.Errorf("trade %d: Expected 2:1 reward to risk", i)
		}
	}

	s := result.Summary
	if s.TotalTrades != 4 || s.OpenTrades != 0 {
		t.Errorf("Expected 4 closed and 0 open trades, got %d/%d", s.TotalTrades, s.OpenTrades)
	}
	if s.FinalEquity != 10740 {
		t.Errorf("Expected final equity 10740, got %f", s.FinalEquity)
	}

	growth := (109.0 / 107) * (111.5 / 109.5) * (114.0 / 112) * (116.5 / 114.5)
	if !approx(s.TotalReturn, (growth-1)*100) {
		t.Errorf("Expected compounded return %f, got %f", (growth-1)*100, s.TotalReturn)
	}
	if s.WinRate != 100 || s.EdgeScore != 0 {
		t.Errorf("Expected 100%% wins and no edge without losses, got %f / %f", s.WinRate, s.EdgeScore)
	}
}

func TestSimulateOpenTradeAtWindowEnd(t *testing.T) {
	candles := cycleCandles(160, swingSteps, 1_000_000)

	result, err := Simulate(candles, candles[60].Date, candles[100].Date)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Trades) != 2 {
		t.Fatalf("Expected 2 trades, got %d", len(result.Trades))
	}

	open := result.Trades[1]
	if open.Closed() || open.ExitReason != ExitOpen {
		t.Errorf("Expected an open trade, got %+v", open)
	}
	if open.ExitPrice != candles[100].Close {
		t.Errorf("Expected mark at %f, got %f", candles[100].Close, open.ExitPrice)
	}
	if !approx(open.ProfitAbsolute, 93*0.5) {
		t.Errorf("Expected unrealized profit 46.5, got %f", open.ProfitAbsolute)
	}

	if result.Summary.TotalTrades != 1 || result.Summary.OpenTrades != 1 {
		t.Errorf("Expected 1 closed and 1 open trade, got %d/%d", result.Summary.TotalTrades, result.Summary.OpenTrades)
	}
	if result.Summary.FinalEquity != 10186 {
		t.Errorf("Expected open trade excluded from equity, got %f", result.Summary.FinalEquity)
	}
}

func TestSimulateIlliquidNeverEnters(t *testing.T) {
	// 100 shares a day at ~100 is far below the turnover floor
	candles := cycleCandles(160, swingSteps, 100)

	result, err := Simulate(candles, candles[0].Date, candles[159].Date)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Trades) != 0 {
		t.Errorf("Expected no trades, got %d", len(result.Trades))
	}
}

func TestSimulateWindowBeforeWarmup(t *testing.T) {
	candles := cycleCandles(160, swingSteps, 1_000_000)

	result, err := Simulate(candles, candles[0].Date, candles[40].Date)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Trades) != 0 || result.Period != "" {
		t.Errorf("Expected an empty run, got %+v", result)
	}
	if result.Summary.FinalEquity != 10000 {
		t.Errorf("Expected untouched equity, got %f", result.Summary.FinalEquity)
	}
}

func TestSimulateCustomEngine(t *testing.T) {
	candles := cycleCandles(160, swingSteps, 1_000_000)

	// Nothing survives a turnover floor this high
	th := classify.DefaultThresholds()
	th.MinAvgTurnover = math.MaxFloat64
	wf := NewWalkForward(DefaultConfig(), classify.NewEngine(th))

	result, err := wf.Simulate(candles, candles[60].Date, candles[159].Date)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Trades) != 0 {
		t.Errorf("Expected no trades, got %d", len(result.Trades))
	}
}

func TestCheckExitPriority(t *testing.T) {
	wf := NewWalkForward(DefaultConfig(), classify.NewEngine(classify.DefaultThresholds()))
	date := day0.AddDate(0, 1, 0)

	tests := []struct {
		name     string
		low      float64
		high     float64
		status   classify.Status
		days     int
		reason   string
		price    float64
		expected bool
	}{
		{"stop beats target", 94, 111, classify.StatusInvalidated, 25, ExitStop, 95, true},
		{"target beats invalidation", 99, 110, classify.StatusInvalidated, 25, ExitTarget, 110, true},
		{"invalidation beats time", 99, 105, classify.StatusInvalidated, 25, ExitInvalidated, 102, true},
		{"time exit", 99, 105, classify.StatusApproaching, 20, ExitTime, 102, true},
		{"expired does not exit", 99, 105, classify.StatusExpired, 3, "", 0, false},
		{"hold", 99, 105, classify.StatusReady, 19, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := openPosition(day0, 100, 10, 95, 110)
			pos.days = tt.days
			bar := cycleCandles(1, []float64{0}, 1)[0]
			bar.Date, bar.Low, bar.High, bar.Close = date, tt.low, tt.high, 102

			trade, exited := wf.checkExit(pos, bar, tt.status)
			if exited != tt.expected {
				t.Fatalf("Expected exited=%v, got %v", tt.expected, exited)
			}
			if !exited {
				return
			}
			if trade.ExitReason != tt.reason || trade.ExitPrice != tt.price {
				t.Errorf("Expected %s at %f, got %s at %f", tt.reason, tt.price, trade.ExitReason, trade.ExitPrice)
			}
		})
	}
}

func TestSummarizeEdgeScore(t *testing.T) {
	exit := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	closed := []Trade{
		{ReturnPct: 10, ProfitAbsolute: 1000, IsWin: true, ExitDate: &exit},
		{ReturnPct: 6, ProfitAbsolute: 660, IsWin: true, ExitDate: &exit},
		{ReturnPct: -4, ProfitAbsolute: -466.4, ExitDate: &exit},
	}

	s := summarize(closed, []float64{10000, 11000, 11660, 11193.6})

	if !approx(s.AvgWinLossRatio, 2) {
		t.Errorf("Expected win/loss ratio 2, got %f", s.AvgWinLossRatio)
	}
	// (2/3) * 2 * 100
	if !approx(s.EdgeScore, 400.0/3) {
		t.Errorf("Expected edge %f, got %f", 400.0/3, s.EdgeScore)
	}
	if !approx(s.TotalReturn, (1.10*1.06*0.96-1)*100) {
		t.Errorf("Expected compounded return %f, got %f", (1.10*1.06*0.96-1)*100, s.TotalReturn)
	}
}

func TestEdgeScore(t *testing.T) {
	if got := EdgeScore(60, 1.5); !approx(got, 90) {
		t.Errorf("Expected 90, got %f", got)
	}
	if got := EdgeScore(100, 0); got != 0 {
		t.Errorf("Expected 0, got %f", got)
	}
}
