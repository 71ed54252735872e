package indicator

import (
	talib "github.com/markcheno/go-talib"

	"swingwatch/pkg/model"
)

const (
	EMAFastPeriod = 20
	EMASlowPeriod = 50
	RSIPeriod     = 14
	ATRPeriod     = 14

	// SlopeLookback is the number of bars a slope looks back over
	SlopeLookback = 5
)

// Line is an indicator series aligned with the candle series it was computed
// from. Values before Start are not yet available and must not be read as zero.
type Line struct {
	Values []float64
	Start  int
}

// emptyLine returns a line with no available values
func emptyLine(n int) Line {
	return Line{Values: make([]float64, n), Start: n}
}

// At returns the value at index i and whether it is available
func (l Line) At(i int) (float64, bool) {
	if i < l.Start || i < 0 || i >= len(l.Values) {
		return 0, false
	}
	return l.Values[i], true
}

// Ptr returns the value at index i, or nil if it is not available
func (l Line) Ptr(i int) *float64 {
	v, ok := l.At(i)
	if !ok {
		return nil
	}
	return &v
}

// Slope returns the fractional change over SlopeLookback bars ending at i:
// (v[i] - v[i-5]) / v[i-5]. Returns 0 unless six consecutive values are
// available.
func (l Line) Slope(i int) float64 {
	now, ok := l.At(i)
	if !ok {
		return 0
	}
	then, ok := l.At(i - SlopeLookback)
	if !ok || then == 0 {
		return 0
	}
	return (now - then) / then
}

// Series holds every indicator line the engine needs
type Series struct {
	EMA20 Line
	EMA50 Line
	RSI14 Line
	ATR14 Line
}

// Compute calculates all indicator lines over the full candle series. Each
// value at index i depends only on candles[:i+1].
func Compute(candles []model.Candle) Series {
	closes := model.Closes(candles)
	return Series{
		EMA20: EMA(closes, EMAFastPeriod),
		EMA50: EMA(closes, EMASlowPeriod),
		RSI14: RSI(closes, RSIPeriod),
		ATR14: ATR(model.Highs(candles), model.Lows(candles), closes, ATRPeriod),
	}
}

// EMA calculates an SMA-seeded exponential moving average
func EMA(closes []float64, period int) Line {
	if period < 1 || len(closes) < period {
		return emptyLine(len(closes))
	}
	return Line{Values: talib.Ema(closes, period), Start: period - 1}
}

// RSI calculates Wilder's relative strength index
func RSI(closes []float64, period int) Line {
	if period < 2 || len(closes) <= period {
		return emptyLine(len(closes))
	}
	return Line{Values: talib.Rsi(closes, period), Start: period}
}

// ATR calculates Wilder's average true range
func ATR(highs, lows, closes []float64, period int) Line {
	n := len(closes)
	if period < 2 || n <= period || len(highs) != n || len(lows) != n {
		return emptyLine(n)
	}
	return Line{Values: talib.Atr(highs, lows, closes, period), Start: period}
}
