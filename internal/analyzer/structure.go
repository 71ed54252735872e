package analyzer

import "swingwatch/pkg/model"

const (
	// PivotLookback is the number of bars on each side a pivot low must undercut
	PivotLookback = 2

	// StructureWindow is the trailing window used for pivots and the 20-day high
	StructureWindow = 20
)

// Pivot is a local low at a bar index
type Pivot struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// StructuralContext is the structural confirmation for one bar
type StructuralContext struct {
	HigherLow bool     `json:"higher_low"`
	High20D   *float64 `json:"high_20d,omitempty"`
}

// FindPivotLows returns every index i where lows[i] is strictly lower than
// the lookback bars on both sides. Bars without a full neighbourhood are never
// pivots.
func FindPivotLows(lows []float64, lookback int) []Pivot {
	if lookback < 1 {
		lookback = PivotLookback
	}

	var pivots []Pivot
	for i := lookback; i < len(lows)-lookback; i++ {
		isPivot := true
		for k := 1; k <= lookback; k++ {
			if lows[i] >= lows[i-k] || lows[i] >= lows[i+k] {
				isPivot = false
				break
			}
		}
		if isPivot {
			pivots = append(pivots, Pivot{Index: i, Value: lows[i]})
		}
	}
	return pivots
}

// HasHigherLow reports whether the pivots form a rising staircase: every
// pivot strictly above the one before it. Fewer than two pivots is not a
// higher low, and one lower low anywhere in the sequence breaks it.
func HasHigherLow(pivots []Pivot) bool {
	if len(pivots) < 2 {
		return false
	}
	for k := 1; k < len(pivots); k++ {
		if pivots[k].Value <= pivots[k-1].Value {
			return false
		}
	}
	return true
}

// High20D returns the highest high of the StructureWindow bars before
// candles[i], or nil if there are not enough of them. The current bar is
// excluded so a close can break above it.
func High20D(candles []model.Candle, i int) *float64 {
	if i < StructureWindow || i >= len(candles) {
		return nil
	}

	high := candles[i-StructureWindow].High
	for j := i - StructureWindow + 1; j < i; j++ {
		if candles[j].High > high {
			high = candles[j].High
		}
	}
	return &high
}

// Structure derives the structural context of candles[i] from the trailing
// StructureWindow bars ending at i.
func Structure(candles []model.Candle, i int) StructuralContext {
	ctx := StructuralContext{High20D: High20D(candles, i)}
	if i < 0 || i >= len(candles) {
		return ctx
	}

	start := i - StructureWindow + 1
	if start < 0 {
		start = 0
	}
	window := model.Lows(candles[start : i+1])

	pivots := FindPivotLows(window, PivotLookback)
	for k := range pivots {
		pivots[k].Index += start
	}
	ctx.HigherLow = HasHigherLow(pivots)
	return ctx
}
