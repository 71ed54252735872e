package classify

import (
	"fmt"
	"math"
	"time"
)

// Engine classifies an indicator snapshot into a watch status. It holds no
// state between calls and is safe for concurrent use.
type Engine struct {
	thresholds Thresholds
	rules      []statusRule
	now        func() time.Time
}

// NewEngine creates an engine with the given thresholds
func NewEngine(t Thresholds) *Engine {
	return &Engine{
		thresholds: t,
		rules:      buildStatusRules(t),
		now:        time.Now,
	}
}

// Thresholds returns the engine thresholds
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

var defaultEngine = NewEngine(DefaultThresholds())

// Evaluate classifies the input with the default thresholds
func Evaluate(in WatchEvaluationInput) (WatchEvaluationResult, error) {
	return defaultEngine.Evaluate(in)
}

// Evaluate runs the gate chain: liquidity, trend health, zone classification
// and status resolution, edge confidence, cooldown, time decay. The first gate
// that terminates decides the status; diagnostics are always filled.
func (e *Engine) Evaluate(in WatchEvaluationInput) (WatchEvaluationResult, error) {
	if err := validate(in); err != nil {
		return WatchEvaluationResult{}, err
	}
	t := e.thresholds
	snap := in.Snapshot

	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = e.now()
	}

	ema20, ema50, rsi := *snap.EMA20, *snap.EMA50, *snap.RSI14
	relVol := *in.Volume.RelVol
	dist := (snap.Close - ema20) / ema20 * 100

	c := classification{
		zone:          t.proximity(dist),
		momentum:      t.momentum(rsi),
		dist:          dist,
		rsi:           rsi,
		relVol:        relVol,
		close:         snap.Close,
		breakoutLevel: ema20,
		levelName:     "EMA20",
	}
	if in.Structure.High20D != nil {
		c.breakoutLevel = *in.Structure.High20D
		c.levelName = "20D high"
	}

	result := WatchEvaluationResult{
		Diagnostics: Diagnostics{
			DistEMA20Pct:  roundPct(dist),
			RSIZone:       c.momentum,
			VolumeState:   t.volume(relVol),
			ProximityZone: c.zone,
		},
		LastInvalidatedDate: in.History.LastInvalidatedDate,
	}

	// Liquidity gate
	if in.Volume.AvgTurnover != nil && *in.Volume.AvgTurnover < t.MinAvgTurnover {
		return invalidated(result, asOf, fmt.Sprintf("Illiquid: average turnover %.0f below minimum %.0f",
			*in.Volume.AvgTurnover, t.MinAvgTurnover)), nil
	}

	// Trend health gate
	baseTrendOK := ema20 > ema50 && snap.EMA50Slope > 0 && snap.EMA20Slope > 0 && in.Structure.HigherLow
	reclaimZone := dist >= t.ReclaimFloorPct && dist < 0
	trendOK := snap.Close > ema20 && baseTrendOK

	if !trendOK && !reclaimZone {
		return invalidated(result, asOf, trendFailure(snap.Close, ema20, ema50, snap.EMA20Slope, snap.EMA50Slope, in.Structure.HigherLow)), nil
	}
	if reclaimZone && !baseTrendOK {
		return invalidated(result, asOf, fmt.Sprintf("Below EMA20 (%.2f%%) without a healthy base trend to reclaim", dist)), nil
	}

	out, _ := resolveStatus(e.rules, c)
	out = e.edgeGate(out, in.Robustness)
	out = e.cooldownGate(out, in.History, asOf)

	out, warning, expired := e.decayGate(out, in.History)
	result.Status, result.Action, result.Reason = out.status, out.action, out.reason
	if !expired {
		result.TimeWarning = warning
	}
	return result, nil
}

func invalidated(result WatchEvaluationResult, asOf time.Time, reason string) WatchEvaluationResult {
	result.Status = StatusInvalidated
	result.Action = ActionRemove
	result.Reason = reason
	result.LastInvalidatedDate = &asOf
	return result
}

// trendFailure names the first broken trend condition
func trendFailure(price, ema20, ema50, slope20, slope50 float64, higherLow bool) string {
	switch {
	case price <= ema20:
		return fmt.Sprintf("Trend broken: close %.2f below EMA20 %.2f beyond the reclaim zone", price, ema20)
	case ema20 <= ema50:
		return fmt.Sprintf("Trend broken: EMA20 %.2f not above EMA50 %.2f", ema20, ema50)
	case slope50 <= 0:
		return fmt.Sprintf("Trend broken: EMA50 slope %.4f not rising", slope50)
	case slope20 <= 0:
		return fmt.Sprintf("Trend broken: EMA20 slope %.4f not rising", slope20)
	case !higherLow:
		return "Trend broken: no higher pivot low in the last 20 bars"
	default:
		return "Trend broken"
	}
}

// roundPct rounds to two decimals, keeping the sign of a non-zero distance
func roundPct(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 && v != 0 {
		return math.Copysign(0.01, v)
	}
	return r
}

func validate(in WatchEvaluationInput) error {
	snap := in.Snapshot
	if err := finite("close", snap.Close); err != nil {
		return err
	}
	required := []struct {
		name  string
		value *float64
	}{
		{"ema20", snap.EMA20},
		{"ema50", snap.EMA50},
		{"rsi14", snap.RSI14},
		{"relative_volume", in.Volume.RelVol},
	}
	for _, r := range required {
		if r.value == nil {
			return missing(r.name)
		}
		if err := finite(r.name, *r.value); err != nil {
			return err
		}
	}
	if *snap.EMA20 <= 0 {
		return &ContractViolationError{Field: "ema20", Detail: fmt.Sprintf("must be positive (%v)", *snap.EMA20)}
	}

	checks := []struct {
		name  string
		value float64
	}{
		{"ema20_slope", snap.EMA20Slope},
		{"ema50_slope", snap.EMA50Slope},
	}
	for _, c := range checks {
		if err := finite(c.name, c.value); err != nil {
			return err
		}
	}
	if in.Volume.AvgTurnover != nil {
		if err := finite("avg_turnover", *in.Volume.AvgTurnover); err != nil {
			return err
		}
	}
	if in.Structure.High20D != nil {
		if err := finite("high_20d", *in.Structure.High20D); err != nil {
			return err
		}
	}
	if in.Robustness.EdgeScore != nil {
		if err := finite("edge_score", *in.Robustness.EdgeScore); err != nil {
			return err
		}
	}
	return nil
}

func finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nonFinite(field, v)
	}
	return nil
}
