package indicator

import (
	"fmt"
	"time"

	"swingwatch/pkg/model"
)

// Snapshot is the point-in-time indicator view of a single bar.
// Pointer fields are nil while the indicator is still warming up.
type Snapshot struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`

	EMA20      *float64 `json:"ema20,omitempty"`
	EMA50      *float64 `json:"ema50,omitempty"`
	EMA20Slope float64  `json:"ema20_slope"`
	EMA50Slope float64  `json:"ema50_slope"`
	RSI14      *float64 `json:"rsi14,omitempty"`
	ATR14      *float64 `json:"atr14,omitempty"`

	RelativeVolume float64  `json:"relative_volume"`
	AvgTurnover    *float64 `json:"avg_turnover,omitempty"`
}

// Warm reports whether every indicator the classifier needs is available
func (s Snapshot) Warm() bool {
	return s.EMA20 != nil && s.EMA50 != nil && s.RSI14 != nil && s.ATR14 != nil
}

// BuildSnapshot assembles the snapshot for candles[i] from precomputed series
func BuildSnapshot(candles []model.Candle, series Series, i int) (Snapshot, error) {
	if i < 0 || i >= len(candles) {
		return Snapshot{}, fmt.Errorf("snapshot index %d out of range (%d candles)", i, len(candles))
	}
	if len(series.EMA20.Values) != len(candles) {
		return Snapshot{}, fmt.Errorf("series length %d does not match %d candles", len(series.EMA20.Values), len(candles))
	}

	bar := candles[i]
	return Snapshot{
		Date:           bar.Date,
		Close:          bar.Close,
		High:           bar.High,
		Low:            bar.Low,
		EMA20:          series.EMA20.Ptr(i),
		EMA50:          series.EMA50.Ptr(i),
		EMA20Slope:     series.EMA20.Slope(i),
		EMA50Slope:     series.EMA50.Slope(i),
		RSI14:          series.RSI14.Ptr(i),
		ATR14:          series.ATR14.Ptr(i),
		RelativeVolume: RelativeVolume(candles, i),
		AvgTurnover:    AvgTurnover(candles, i),
	}, nil
}

// Latest computes the series and returns the snapshot of the last bar
func Latest(candles []model.Candle) (Snapshot, error) {
	if len(candles) == 0 {
		return Snapshot{}, fmt.Errorf("no candles")
	}
	return BuildSnapshot(candles, Compute(candles), len(candles)-1)
}

// WarmupBars is the first index at which every snapshot field is available:
// EMA50 plus SlopeLookback bars for its slope.
const WarmupBars = EMASlowPeriod - 1 + SlopeLookback
