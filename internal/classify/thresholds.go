package classify

import "math"

// Thresholds holds every tunable constant of the gate chain
type Thresholds struct {
	// Liquidity
	MinAvgTurnover float64 `yaml:"min_avg_turnover" validate:"gte=0"`

	// Proximity zones, percent distance of close from EMA20
	FarPct          float64 `yaml:"far_pct" validate:"gt=0"`
	ApproachingPct  float64 `yaml:"approaching_pct" validate:"gt=0"`
	NearPct         float64 `yaml:"near_pct" validate:"gt=0"`
	ReclaimFloorPct float64 `yaml:"reclaim_floor_pct" validate:"lt=0"`

	// Momentum zones, RSI14
	RSIWeakBelow float64 `yaml:"rsi_weak_below" validate:"gte=0,lte=100"`
	RSICalmMax   float64 `yaml:"rsi_calm_max" validate:"gte=0,lte=100"`
	RSIWarmMax   float64 `yaml:"rsi_warm_max" validate:"gte=0,lte=100"`

	// Relative volume
	VolumeLowBelow  float64 `yaml:"volume_low_below" validate:"gte=0"`
	VolumeHighAbove float64 `yaml:"volume_high_above" validate:"gte=0"`
	EntryVolume     float64 `yaml:"entry_volume" validate:"gte=0"`
	BreakoutVolume  float64 `yaml:"breakout_volume" validate:"gte=0"`

	// Edge confidence
	MinBacktestTrades    int     `yaml:"min_backtest_trades" validate:"gte=0"`
	FullConfidenceTrades int     `yaml:"full_confidence_trades" validate:"gt=0"`
	MinAdjustedEdge      float64 `yaml:"min_adjusted_edge" validate:"gte=0,lte=100"`

	// Cooldown after invalidation, calendar days
	ReadyCooldownDays    int `yaml:"ready_cooldown_days" validate:"gte=0"`
	BreakoutCooldownDays int `yaml:"breakout_cooldown_days" validate:"gte=0"`

	// Time decay, days on the watchlist
	WarnDays   int `yaml:"warn_days" validate:"gt=0"`
	ExpireDays int `yaml:"expire_days" validate:"gtfield=WarnDays"`
}

// DefaultThresholds returns the production thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinAvgTurnover: 5_000_000,

		FarPct:          4.0,
		ApproachingPct:  2.0,
		NearPct:         1.0,
		ReclaimFloorPct: -1.0,

		RSIWeakBelow: 40,
		RSICalmMax:   55,
		RSIWarmMax:   65,

		VolumeLowBelow:  0.5,
		VolumeHighAbove: 1.5,
		EntryVolume:     1.0,
		BreakoutVolume:  1.2,

		MinBacktestTrades:    30,
		FullConfidenceTrades: 50,
		MinAdjustedEdge:      70,

		ReadyCooldownDays:    3,
		BreakoutCooldownDays: 1,

		WarnDays:   10,
		ExpireDays: 15,
	}
}

// AdjustedEdge scales an edge score by sqrt(min(trades/FullConfidenceTrades, 1))
func (t Thresholds) AdjustedEdge(edge float64, trades int) float64 {
	full := t.FullConfidenceTrades
	if full <= 0 {
		full = DefaultThresholds().FullConfidenceTrades
	}
	if trades <= 0 {
		return 0
	}
	ratio := math.Min(float64(trades)/float64(full), 1)
	return edge * math.Sqrt(ratio)
}

// AdjustedEdgeScore applies the default confidence adjustment
func AdjustedEdgeScore(edge float64, trades int) float64 {
	return DefaultThresholds().AdjustedEdge(edge, trades)
}

// proximity classifies the percent distance of close from EMA20
func (t Thresholds) proximity(dist float64) ProximityZone {
	switch {
	case dist > t.FarPct:
		return ZoneFar
	case dist > t.ApproachingPct:
		return ZoneApproaching
	case dist > t.NearPct:
		return ZoneNear
	case dist >= 0:
		return ZonePerfect
	case dist >= t.ReclaimFloorPct:
		return ZoneReclaim
	default:
		return ZoneTooDeep
	}
}

func (t Thresholds) momentum(rsi float64) MomentumZone {
	switch {
	case rsi < t.RSIWeakBelow:
		return MomentumWeak
	case rsi <= t.RSICalmMax:
		return MomentumCalm
	case rsi <= t.RSIWarmMax:
		return MomentumWarm
	default:
		return MomentumHot
	}
}

func (t Thresholds) volume(relVol float64) VolumeState {
	switch {
	case relVol < t.VolumeLowBelow:
		return VolumeLow
	case relVol > t.VolumeHighAbove:
		return VolumeHigh
	default:
		return VolumeNormal
	}
}
