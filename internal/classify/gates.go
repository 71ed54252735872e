package classify

import (
	"fmt"
	"math"
	"time"
)

// neverInvalidatedDays stands in for "no invalidation on record"
const neverInvalidatedDays = 9999

// edgeGate downgrades a ready status when backtest confidence is too thin
func (e *Engine) edgeGate(out outcome, r RobustnessContext) outcome {
	if !out.status.IsReady() {
		return out
	}
	t := e.thresholds

	switch {
	case r.TotalTrades != nil && *r.TotalTrades < t.MinBacktestTrades:
		return downgrade(out, fmt.Sprintf("too few backtest trades (%d < %d)", *r.TotalTrades, t.MinBacktestTrades))
	case r.EdgeScore != nil && r.TotalTrades != nil:
		adjusted := t.AdjustedEdge(*r.EdgeScore, *r.TotalTrades)
		if adjusted < t.MinAdjustedEdge {
			return downgrade(out, fmt.Sprintf("confidence-adjusted edge %.1f < %.0f (edge %.1f over %d trades)",
				adjusted, t.MinAdjustedEdge, *r.EdgeScore, *r.TotalTrades))
		}
	case r.EdgeScore != nil && *r.EdgeScore < t.MinAdjustedEdge:
		return downgrade(out, fmt.Sprintf("edge score %.1f < %.0f", *r.EdgeScore, t.MinAdjustedEdge))
	}
	return out
}

// cooldownGate holds back a ready status shortly after an invalidation
func (e *Engine) cooldownGate(out outcome, h HistoryContext, asOf time.Time) outcome {
	if !out.status.IsReady() {
		return out
	}

	required := e.thresholds.ReadyCooldownDays
	if out.status == StatusBreakoutReady {
		required = e.thresholds.BreakoutCooldownDays
	}

	days := DaysSince(h.LastInvalidatedDate, asOf)
	if days < required {
		return downgrade(out, fmt.Sprintf("cooldown: invalidated %d day(s) ago, need %d", days, required))
	}
	return out
}

// decayGate expires instruments that sat on the watchlist too long without a
// ready signal. The returned warning is empty unless the warning window is hit.
func (e *Engine) decayGate(out outcome, h HistoryContext) (outcome, string, bool) {
	if out.status.IsReady() {
		return out, "", false
	}
	t := e.thresholds

	if h.DaysInWatchlist >= t.ExpireDays {
		return outcome{
			status: StatusExpired,
			action: ActionRemove,
			reason: fmt.Sprintf("No ready signal after %d days on the watchlist (limit %d)", h.DaysInWatchlist, t.ExpireDays),
		}, "", true
	}
	if h.DaysInWatchlist >= t.WarnDays {
		return out, fmt.Sprintf("On the watchlist %d days without a ready signal; expires at %d days",
			h.DaysInWatchlist, t.ExpireDays), false
	}
	return out, "", false
}

// downgrade turns a ready outcome into APPROACHING, keeping why it was ready
func downgrade(out outcome, why string) outcome {
	return outcome{
		status: StatusApproaching,
		action: ActionWait,
		reason: fmt.Sprintf("%s held back: %s (%s)", out.status, why, out.reason),
	}
}

// DaysSince returns whole days elapsed from last to asOf, or a large number
// when last is nil.
func DaysSince(last *time.Time, asOf time.Time) int {
	if last == nil {
		return neverInvalidatedDays
	}
	days := math.Floor(asOf.Sub(*last).Hours() / 24)
	return int(days)
}
