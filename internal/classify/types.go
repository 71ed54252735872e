package classify

import (
	"time"

	"swingwatch/internal/analyzer"
	"swingwatch/internal/indicator"
)

// Status is the watch status of an instrument
type Status string

const (
	StatusInvalidated   Status = "INVALIDATED"
	StatusWaitPullback  Status = "WAIT_PULLBACK"
	StatusApproaching   Status = "APPROACHING"
	StatusReady         Status = "READY"
	StatusWatchReclaim  Status = "WATCH_RECLAIM"
	StatusBreakoutReady Status = "BREAKOUT_READY"
	StatusBreakoutOnly  Status = "BREAKOUT_ONLY"
	StatusExpired       Status = "EXPIRED"
)

// IsReady reports whether the status is actionable
func (s Status) IsReady() bool {
	return s == StatusReady || s == StatusBreakoutReady
}

// IsTerminal reports whether the status removes the instrument from the watchlist
func (s Status) IsTerminal() bool {
	return s == StatusInvalidated || s == StatusExpired
}

// Action is the suggested caller action for a status
type Action string

const (
	ActionRemove               Action = "REMOVE_FROM_WATCHLIST"
	ActionWait                 Action = "WAIT"
	ActionPrepareEntry         Action = "PREPARE_ENTRY"
	ActionWaitForReclaim       Action = "WAIT_FOR_RECLAIM"
	ActionPrepareBreakoutEntry Action = "PREPARE_BREAKOUT_ENTRY"
	ActionWaitForConfirmation  Action = "WAIT_FOR_CONFIRMATION"
)

// ProximityZone classifies the distance of close from EMA20
type ProximityZone string

const (
	ZoneFar         ProximityZone = "FAR"
	ZoneApproaching ProximityZone = "APPROACHING_ZONE"
	ZoneNear        ProximityZone = "NEAR"
	ZonePerfect     ProximityZone = "PERFECT"
	ZoneReclaim     ProximityZone = "RECLAIM"
	ZoneTooDeep     ProximityZone = "TOO_DEEP"
)

// MomentumZone classifies RSI14
type MomentumZone string

const (
	MomentumWeak MomentumZone = "WEAK"
	MomentumCalm MomentumZone = "CALM"
	MomentumWarm MomentumZone = "WARM"
	MomentumHot  MomentumZone = "HOT"
)

// VolumeState classifies relative volume
type VolumeState string

const (
	VolumeLow    VolumeState = "LOW"
	VolumeNormal VolumeState = "NORMAL"
	VolumeHigh   VolumeState = "HIGH"
)

// VolumeContext carries the liquidity inputs
type VolumeContext struct {
	RelVol      *float64 `json:"rel_vol"`                // required; 1.0 is the neutral value
	AvgTurnover *float64 `json:"avg_turnover,omitempty"` // nil skips the liquidity gate
}

// RobustnessContext carries historical backtest confidence. Nil means unknown.
type RobustnessContext struct {
	EdgeScore   *float64 `json:"edge_score,omitempty"`
	TotalTrades *int     `json:"total_trades,omitempty"`
}

// HistoryContext is the state the caller persists between evaluations
type HistoryContext struct {
	PrevStatus          Status     `json:"prev_status,omitempty"`
	LastInvalidatedDate *time.Time `json:"last_invalidated_date,omitempty"`
	DaysInWatchlist     int        `json:"days_in_watchlist"`
}

// WatchEvaluationInput is the complete input of one evaluation
type WatchEvaluationInput struct {
	Snapshot   indicator.Snapshot         `json:"snapshot"`
	Structure  analyzer.StructuralContext `json:"structure"`
	Volume     VolumeContext              `json:"volume"`
	Robustness RobustnessContext          `json:"robustness"`
	History    HistoryContext             `json:"history"`

	// AsOf is the evaluation time for the cooldown gate; zero means now
	AsOf time.Time `json:"as_of"`
}

// NewInput builds an input from a snapshot and its structural context, taking
// the volume context from the snapshot and AsOf from the bar date.
func NewInput(snap indicator.Snapshot, structure analyzer.StructuralContext) WatchEvaluationInput {
	relVol := snap.RelativeVolume
	return WatchEvaluationInput{
		Snapshot:  snap,
		Structure: structure,
		Volume: VolumeContext{
			RelVol:      &relVol,
			AvgTurnover: snap.AvgTurnover,
		},
		AsOf: snap.Date,
	}
}

// Diagnostics explains the classification regardless of which gate decided
type Diagnostics struct {
	DistEMA20Pct  float64       `json:"dist_ema20_pct"`
	RSIZone       MomentumZone  `json:"rsi_zone"`
	VolumeState   VolumeState   `json:"volume_state"`
	ProximityZone ProximityZone `json:"proximity_zone"`
}

// WatchEvaluationResult is the sole output of the engine
type WatchEvaluationResult struct {
	Status              Status      `json:"status"`
	Action              Action      `json:"action"`
	Reason              string      `json:"reason"`
	Diagnostics         Diagnostics `json:"diagnostics"`
	LastInvalidatedDate *time.Time  `json:"last_invalidated_date,omitempty"`
	TimeWarning         string      `json:"time_warning,omitempty"`
}
