package strategy

import (
	"time"

	"swingwatch/internal/analyzer"
	"swingwatch/internal/indicator"
	"swingwatch/pkg/model"
)

// Regime is the market regime of a bar
type Regime string

const (
	RegimeBullish       Regime = "Bullish Trend"
	RegimeBearish       Regime = "Bearish Trend"
	RegimeConsolidation Regime = "Consolidation"
)

// Setup is a detected setup label. Backtests are run per label.
type Setup string

const (
	SetupPullback       Setup = "Pullback"
	SetupBreakout       Setup = "Breakout"
	SetupReversal       Setup = "Reversal"
	SetupTrendFollowing Setup = "Trend Following"
	SetupHold           Setup = "Hold"
)

const (
	PullbackRSIMin      = 40.0
	PullbackRSIMax      = 60.0
	PullbackBandPct     = 2.0 // close at most this far above EMA20
	BreakoutVolumeRatio = 1.5
	OversoldRSI         = 30.0
	OverboughtRSI       = 70.0
)

// Conditions is the per-bar view setup detection works on
type Conditions struct {
	Close   float64  `json:"close"`
	EMA20   float64  `json:"ema20"`
	EMA50   float64  `json:"ema50"`
	RSI     float64  `json:"rsi"`
	RelVol  float64  `json:"rel_vol"`
	High20D *float64 `json:"high_20d,omitempty"`
}

// ConditionsAt reads the conditions of bar i. It returns false while EMA20,
// EMA50 or RSI14 are still warming up.
func ConditionsAt(candles []model.Candle, series indicator.Series, i int) (Conditions, bool) {
	if i < 0 || i >= len(candles) {
		return Conditions{}, false
	}
	ema20, ok1 := series.EMA20.At(i)
	ema50, ok2 := series.EMA50.At(i)
	rsi, ok3 := series.RSI14.At(i)
	if !ok1 || !ok2 || !ok3 {
		return Conditions{}, false
	}

	return Conditions{
		Close:   candles[i].Close,
		EMA20:   ema20,
		EMA50:   ema50,
		RSI:     rsi,
		RelVol:  indicator.RelativeVolume(candles, i),
		High20D: analyzer.High20D(candles, i),
	}, true
}

// DetectRegime classifies the EMA ordering and the close against EMA20
func DetectRegime(c Conditions) Regime {
	switch {
	case c.EMA20 > c.EMA50 && c.Close > c.EMA20:
		return RegimeBullish
	case c.EMA20 < c.EMA50 && c.Close < c.EMA20:
		return RegimeBearish
	default:
		return RegimeConsolidation
	}
}

// DetectSetup returns the setup label for the conditions. "No setup" is
// SetupHold, never an error.
func DetectSetup(c Conditions) Setup {
	switch DetectRegime(c) {
	case RegimeBullish:
		if c.breakout() {
			return SetupBreakout
		}
		if c.RSI >= PullbackRSIMin && c.RSI <= PullbackRSIMax && c.distPct() <= PullbackBandPct {
			return SetupPullback
		}
		if c.RSI < OverboughtRSI {
			return SetupTrendFollowing
		}
	case RegimeBearish:
		if c.RSI < OversoldRSI {
			return SetupReversal
		}
	default:
		if c.breakout() {
			return SetupBreakout
		}
		if c.RSI < OversoldRSI {
			return SetupReversal
		}
	}
	return SetupHold
}

func (c Conditions) breakout() bool {
	return c.High20D != nil && c.Close > *c.High20D && c.RelVol >= BreakoutVolumeRatio
}

// distPct is the percent distance of close above EMA20
func (c Conditions) distPct() float64 {
	if c.EMA20 == 0 {
		return 0
	}
	return (c.Close - c.EMA20) / c.EMA20 * 100
}

// Signal is the detected regime and setup of one bar
type Signal struct {
	Date       time.Time  `json:"date"`
	Regime     Regime     `json:"regime"`
	Setup      Setup      `json:"setup"`
	Conditions Conditions `json:"conditions"`
}

// Detect computes the signal of the most recent bar
func Detect(candles []model.Candle) (*Signal, bool) {
	if len(candles) == 0 {
		return nil, false
	}
	i := len(candles) - 1
	c, ok := ConditionsAt(candles, indicator.Compute(candles), i)
	if !ok {
		return nil, false
	}
	return &Signal{
		Date:       candles[i].Date,
		Regime:     DetectRegime(c),
		Setup:      DetectSetup(c),
		Conditions: c,
	}, true
}
