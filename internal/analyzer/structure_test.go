package analyzer

import (
	"testing"
	"time"

	"swingwatch/pkg/model"
)

// candlesFromLows builds daily bars whose lows follow the given sequence
func candlesFromLows(lows []float64) []model.Candle {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, len(lows))
	for i, low := range lows {
		candles[i] = model.Candle{
			Date:   start.AddDate(0, 0, i),
			Open:   low + 1,
			High:   low + 2,
			Low:    low,
			Close:  low + 1,
			Volume: 1000,
		}
	}
	return candles
}

func TestFindPivotLows(t *testing.T) {
	lows := []float64{12, 11, 10, 11, 12, 13, 12, 11, 12, 13}

	pivots := FindPivotLows(lows, 2)
	if len(pivots) != 2 {
		t.Fatalf("Expected 2 pivots, got %d (%v)", len(pivots), pivots)
	}
	if pivots[0].Index != 2 || pivots[0].Value != 10 {
		t.Errorf("Expected first pivot 10 at index 2, got %v", pivots[0])
	}
	if pivots[1].Index != 7 || pivots[1].Value != 11 {
		t.Errorf("Expected second pivot 11 at index 7, got %v", pivots[1])
	}
}

func TestFindPivotLowsRequiresStrictLow(t *testing.T) {
	// Equal neighbour disqualifies the pivot
	lows := []float64{12, 11, 10, 10, 12, 13}
	if pivots := FindPivotLows(lows, 2); len(pivots) != 0 {
		t.Errorf("Expected no pivots with a tied low, got %v", pivots)
	}

	// Edge bars never qualify
	edge := []float64{5, 6, 7, 8, 4}
	if pivots := FindPivotLows(edge, 2); len(pivots) != 0 {
		t.Errorf("Expected no pivots at series edges, got %v", pivots)
	}
}

func TestHasHigherLow(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected bool
	}{
		{"latest below prior", []float64{10, 9}, false},
		{"latest above prior", []float64{9, 11}, true},
		{"lower low before the latest rise", []float64{10, 9, 11}, false},
		{"three rising pivots", []float64{8, 9, 11}, true},
		{"earlier pivots must also rise", []float64{12, 9, 11}, false},
		{"equal is not higher", []float64{9, 9}, false},
		{"single pivot", []float64{9}, false},
		{"no pivots", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pivots := make([]Pivot, len(tt.values))
			for i, v := range tt.values {
				pivots[i] = Pivot{Index: i * 5, Value: v}
			}
			if got := HasHigherLow(pivots); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestStructureHigherLow(t *testing.T) {
	// Pivots at 10 then 11 inside the trailing window, final bars trending up
	rising := []float64{
		15, 15, 15, 15, 15, 15,
		12, 11, 10, 11, 12, 13,
		12, 11.5, 11, 11.5, 12, 13, 14, 15,
	}
	ctx := Structure(candlesFromLows(rising), len(rising)-1)
	if !ctx.HigherLow {
		t.Error("Expected higher low for rising pivots")
	}

	// Pivots at 10 then 9: a lower low
	falling := []float64{
		15, 15, 15, 15, 15, 15,
		12, 11, 10, 11, 12, 13,
		12, 10, 9, 10, 12, 13, 14, 15,
	}
	ctx = Structure(candlesFromLows(falling), len(falling)-1)
	if ctx.HigherLow {
		t.Error("Expected no higher low when the latest pivot is lower")
	}
}

func TestStructureLowerLowInsideWindow(t *testing.T) {
	// Pivots 10, 9, 11 inside the last 20 bars: the latest rises but the
	// sequence contains a lower low
	lows := []float64{
		12, 11, 10, 11, 12,
		11, 10, 9, 10, 11,
		12, 13, 12, 11, 12,
		13, 14, 15, 16, 17,
	}
	candles := candlesFromLows(lows)

	pivots := FindPivotLows(lows, PivotLookback)
	if len(pivots) != 3 {
		t.Fatalf("Expected 3 pivots, got %v", pivots)
	}
	if ctx := Structure(candles, len(lows)-1); ctx.HigherLow {
		t.Error("Expected no higher low for pivots 10, 9, 11")
	}
}

func TestStructureInsufficientHistory(t *testing.T) {
	candles := candlesFromLows([]float64{10, 9, 8})

	ctx := Structure(candles, 2)
	if ctx.HigherLow {
		t.Error("Expected higherLow=false with insufficient history")
	}
	if ctx.High20D != nil {
		t.Error("Expected nil high20D with insufficient history")
	}
}

func TestHigh20D(t *testing.T) {
	lows := make([]float64, 25)
	for i := range lows {
		lows[i] = 100
	}
	candles := candlesFromLows(lows)
	candles[10].High = 130
	candles[24].High = 150 // current bar is excluded

	high := High20D(candles, 24)
	if high == nil || *high != 130 {
		t.Errorf("Expected high20D 130, got %v", high)
	}

	if High20D(candles, 19) != nil {
		t.Error("Expected nil with only 19 prior bars")
	}
}
