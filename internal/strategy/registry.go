package strategy

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Info describes a strategy label
type Info struct {
	Label       Setup  `json:"label"`
	Description string `json:"description"`
	Type        string `json:"type"` // "trend-following", "counter-trend", "momentum"
	Tradable    bool   `json:"tradable"`
}

var (
	registry     = make(map[Setup]Info)
	registryLock sync.RWMutex
)

// Register adds or replaces a strategy label
func Register(info Info) {
	registryLock.Lock()
	defer registryLock.Unlock()
	registry[info.Label] = info
}

// Get returns the strategy registered under label
func Get(label string) (Info, error) {
	registryLock.RLock()
	info, ok := registry[Setup(label)]
	registryLock.RUnlock()

	if !ok {
		return Info{}, fmt.Errorf("unknown strategy: %s (available: %s)", label, strings.Join(Labels(), ", "))
	}
	return info, nil
}

// Labels returns every registered label, sorted
func Labels() []string {
	registryLock.RLock()
	defer registryLock.RUnlock()

	names := make([]string, 0, len(registry))
	for label := range registry {
		names = append(names, string(label))
	}
	sort.Strings(names)
	return names
}

// All returns every registered strategy, sorted by label
func All() []Info {
	labels := Labels()
	infos := make([]Info, 0, len(labels))
	for _, label := range labels {
		if info, err := Get(label); err == nil {
			infos = append(infos, info)
		}
	}
	return infos
}

// Tradable returns the labels a backtest can enter on
func Tradable() []string {
	var out []string
	for _, info := range All() {
		if info.Tradable {
			out = append(out, string(info.Label))
		}
	}
	return out
}

func init() {
	Register(Info{
		Label:       SetupPullback,
		Description: "Bullish trend pulling back to within 2% of EMA20 with RSI 40-60",
		Type:        "trend-following",
		Tradable:    true,
	})
	Register(Info{
		Label:       SetupBreakout,
		Description: "Close above the prior 20-day high on 1.5x relative volume",
		Type:        "momentum",
		Tradable:    true,
	})
	Register(Info{
		Label:       SetupReversal,
		Description: "Oversold RSI below 30 outside a bullish trend",
		Type:        "counter-trend",
		Tradable:    true,
	})
	Register(Info{
		Label:       SetupTrendFollowing,
		Description: "Bullish trend that is neither extended nor overbought",
		Type:        "trend-following",
		Tradable:    true,
	})
	Register(Info{
		Label:       SetupHold,
		Description: "No setup",
		Type:        "none",
	})
}
