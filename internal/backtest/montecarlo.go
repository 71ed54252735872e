package backtest

import (
	"math/rand/v2"
	"sort"
)

// MonteCarloResult contains Monte Carlo simulation results
type MonteCarloResult struct {
	Simulations     int       `json:"simulations"`
	MedianReturn    float64   `json:"median_return"`
	WorstCase       float64   `json:"worst_case"`       // 5th percentile
	BestCase        float64   `json:"best_case"`        // 95th percentile
	RuinProbability float64   `json:"ruin_probability"` // % of sims that went bust
	MaxDrawdowns    []float64 `json:"max_drawdowns"`
}

// RunMonteCarlo reshuffles the R-multiples of the closed trades, risking
// riskPerTrade of the initial capital per trade. Open trades are ignored.
// The same seed always produces the same result.
func RunMonteCarlo(trades []Trade, initialCapital, riskPerTrade float64, simulations int, seed uint64) *MonteCarloResult {
	rMultiples := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t.Closed() {
			rMultiples = append(rMultiples, t.RMultiple)
		}
	}
	if len(rMultiples) == 0 || simulations <= 0 || initialCapital <= 0 {
		return nil
	}

	result := &MonteCarloResult{
		Simulations: simulations,
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	finalReturns := make([]float64, simulations)
	maxDDs := make([]float64, simulations)
	ruinCount := 0
	risk := initialCapital * riskPerTrade

	for sim := 0; sim < simulations; sim++ {
		capital := initialCapital
		peak := capital

		shuffled := make([]float64, len(rMultiples))
		copy(shuffled, rMultiples)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		for _, r := range shuffled {
			capital += risk * r

			if capital > peak {
				peak = capital
			}
			if dd := (peak - capital) / peak * 100; dd > maxDDs[sim] {
				maxDDs[sim] = dd
			}

			if capital <= 0 {
				ruinCount++
				break
			}
		}

		finalReturns[sim] = (capital - initialCapital) / initialCapital * 100
	}

	sort.Float64s(finalReturns)
	sort.Float64s(maxDDs)

	result.MedianReturn = finalReturns[simulations/2]
	result.WorstCase = finalReturns[simulations/20]
	result.BestCase = finalReturns[simulations*19/20]
	result.RuinProbability = float64(ruinCount) / float64(simulations) * 100
	result.MaxDrawdowns = maxDDs

	return result
}
