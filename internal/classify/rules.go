package classify

import "fmt"

// classification is the zone view a status rule matches against
type classification struct {
	zone          ProximityZone
	momentum      MomentumZone
	dist          float64
	rsi           float64
	relVol        float64
	close         float64
	breakoutLevel float64
	levelName     string
}

// outcome is the status a rule resolves to
type outcome struct {
	status Status
	action Action
	reason string
}

// statusRule is one guarded step of status resolution. Rules are evaluated in
// slice order and every matching rule replaces the current outcome, so a
// later rule always overrides an earlier one.
type statusRule struct {
	name string
	when func(c classification) bool
	then func(c classification) outcome
}

// defaultOutcome applies when no rule matches (e.g. NEAR with WARM momentum)
func defaultOutcome(c classification) outcome {
	return outcome{
		status: StatusApproaching,
		action: ActionWait,
		reason: fmt.Sprintf("%s zone with %s momentum (RSI %.1f), waiting for a cleaner setup", c.zone, c.momentum, c.rsi),
	}
}

// buildStatusRules returns the resolution rules in priority order
func buildStatusRules(t Thresholds) []statusRule {
	calmIn := func(zone ProximityZone) func(c classification) bool {
		return func(c classification) bool {
			return c.zone == zone && c.momentum == MomentumCalm
		}
	}
	lowVolume := func(c classification) outcome {
		return outcome{
			status: StatusApproaching,
			action: ActionWait,
			reason: fmt.Sprintf("%s zone but low volume (%.2fx < %.2fx)", c.zone, c.relVol, t.EntryVolume),
		}
	}

	return []statusRule{
		{
			name: "far",
			when: func(c classification) bool { return c.zone == ZoneFar },
			then: func(c classification) outcome {
				return outcome{StatusWaitPullback, ActionWait,
					fmt.Sprintf("Extended %.2f%% above EMA20, wait for a pullback", c.dist)}
			},
		},
		{
			name: "approaching",
			when: func(c classification) bool { return c.zone == ZoneApproaching },
			then: func(c classification) outcome {
				return outcome{StatusApproaching, ActionWait,
					fmt.Sprintf("Approaching EMA20 (%.2f%% above)", c.dist)}
			},
		},
		{
			name: "perfect-calm",
			when: calmIn(ZonePerfect),
			then: func(c classification) outcome {
				if c.relVol < t.EntryVolume {
					return lowVolume(c)
				}
				return outcome{StatusReady, ActionPrepareEntry,
					fmt.Sprintf("At EMA20 (%.2f%%), calm momentum (RSI %.1f), volume %.2fx", c.dist, c.rsi, c.relVol)}
			},
		},
		{
			name: "near-calm",
			when: calmIn(ZoneNear),
			then: func(c classification) outcome {
				if c.relVol < t.EntryVolume {
					return lowVolume(c)
				}
				return outcome{StatusReady, ActionPrepareEntry,
					fmt.Sprintf("Near EMA20 (%.2f%%), calm momentum (RSI %.1f), volume %.2fx", c.dist, c.rsi, c.relVol)}
			},
		},
		{
			name: "reclaim-calm",
			when: calmIn(ZoneReclaim),
			then: func(c classification) outcome {
				if c.relVol < t.EntryVolume {
					return lowVolume(c)
				}
				return outcome{StatusWatchReclaim, ActionWaitForReclaim,
					fmt.Sprintf("Just below EMA20 (%.2f%%) with volume %.2fx, watch for a reclaim", c.dist, c.relVol)}
			},
		},
		{
			name: "hot-momentum",
			when: func(c classification) bool { return c.momentum == MomentumHot },
			then: func(c classification) outcome {
				if c.close > c.breakoutLevel && c.relVol >= t.BreakoutVolume {
					return outcome{StatusBreakoutReady, ActionPrepareBreakoutEntry,
						fmt.Sprintf("Hot momentum (RSI %.1f), close above %s %.2f on %.2fx volume", c.rsi, c.levelName, c.breakoutLevel, c.relVol)}
				}
				return outcome{StatusBreakoutOnly, ActionWaitForConfirmation,
					fmt.Sprintf("Hot momentum (RSI %.1f), needs close above %s %.2f on %.2fx+ volume", c.rsi, c.levelName, c.breakoutLevel, t.BreakoutVolume)}
			},
		},
		{
			name: "too-deep-or-weak",
			when: func(c classification) bool { return c.zone == ZoneTooDeep || c.momentum == MomentumWeak },
			then: func(c classification) outcome {
				if c.momentum == MomentumWeak {
					return outcome{StatusWaitPullback, ActionWait,
						fmt.Sprintf("Weak momentum (RSI %.1f)", c.rsi)}
				}
				return outcome{StatusWaitPullback, ActionWait,
					fmt.Sprintf("Too deep below EMA20 (%.2f%%)", c.dist)}
			},
		},
	}
}

// resolveStatus threads the current outcome through every rule in order
func resolveStatus(rules []statusRule, c classification) (outcome, string) {
	current := defaultOutcome(c)
	matched := "default"
	for _, r := range rules {
		if r.when(c) {
			current = r.then(c)
			matched = r.name
		}
	}
	return current, matched
}
