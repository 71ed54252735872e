package model

import "time"

// Candle represents a single daily bar (OHLCV data)
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Turnover is the traded value of the bar (close * volume)
func (c Candle) Turnover() float64 {
	return c.Close * float64(c.Volume)
}

// Closes extracts closing prices in series order
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts high prices in series order
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts low prices in series order
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// IndexOnOrAfter returns the first index whose date is on or after t,
// or len(candles) if none.
func IndexOnOrAfter(candles []Candle, t time.Time) int {
	for i, c := range candles {
		if !c.Date.Before(t) {
			return i
		}
	}
	return len(candles)
}
