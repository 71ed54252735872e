package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"swingwatch/internal/backtest"
	"swingwatch/internal/strategy"
	"swingwatch/internal/store"
	"swingwatch/internal/symbols"
	"swingwatch/pkg/model"
)

func newBacktestCmd() *cobra.Command {
	var (
		strategyLabel string
		days          int
		showTrades    bool
		monteCarlo    int
		seed          uint64
		riskPct       float64
		noCache       bool
	)

	cmd := &cobra.Command{
		Use:   "backtest SYMBOL",
		Short: "Replay a setup label over daily history",
		Long: `Backtest enters whenever the setup detected on a bar matches the strategy
label and exits on a 2 ATR stop or RSI above 70. Results are cached per
symbol, strategy and last bar date.

Use --strategy all to compare every tradable label.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := symbols.Normalize(args[0])

			labels := []string{strategyLabel}
			if strategyLabel == "all" {
				labels = strategy.Tradable()
			} else if _, err := strategy.Get(strategyLabel); err != nil {
				return err
			}

			a, err := newApp(!noCache)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			candles, err := fetchHistory(ctx, a, symbol, days)
			if err != nil {
				return err
			}

			bt := backtest.NewBacktester(a.cfg.Backtest)
			results := make([]*backtest.BacktestResult, 0, len(labels))
			for _, label := range labels {
				res, err := cachedBacktest(ctx, a, bt, symbol, label, candles)
				if err != nil {
					return err
				}
				results = append(results, res)
			}

			var mc *backtest.MonteCarloResult
			if monteCarlo > 0 && len(results) == 1 {
				mc = backtest.RunMonteCarlo(results[0].Trades, a.cfg.Backtest.InitialEquity, riskPct/100, monteCarlo, seed)
			}

			if jsonOutput {
				return outputJSON(struct {
					Results    []*backtest.BacktestResult `json:"results"`
					MonteCarlo *backtest.MonteCarloResult `json:"monte_carlo,omitempty"`
				}{results, mc})
			}

			outputBacktests(symbol, results)
			if showTrades {
				for _, r := range results {
					fmt.Printf("\n--- %s trades ---\n", r.Strategy)
					outputTrades(r.Trades)
				}
			}
			if mc != nil {
				outputMonteCarlo(mc, riskPct)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&strategyLabel, "strategy", string(strategy.SetupPullback), "strategy label or 'all'")
	cmd.Flags().IntVar(&days, "days", 730, "calendar days of history")
	cmd.Flags().BoolVar(&showTrades, "trades", false, "list individual trades")
	cmd.Flags().IntVar(&monteCarlo, "monte-carlo", 0, "Monte Carlo simulations of the trade R-multiples (single strategy)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Monte Carlo random seed")
	cmd.Flags().Float64Var(&riskPct, "risk", 1, "Monte Carlo risk per trade, percent of capital")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the result cache")
	return cmd
}

func fetchHistory(ctx context.Context, a *app, symbol string, days int) ([]model.Candle, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -days)
	candles, err := a.provider.GetDailyCandles(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles for %s between %s and %s", symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	a.log.Debug().Str("symbol", symbol).Int("candles", len(candles)).Msg("history loaded")
	return candles, nil
}

func cachedBacktest(ctx context.Context, a *app, bt *backtest.Backtester, symbol, label string, candles []model.Candle) (*backtest.BacktestResult, error) {
	key := store.CacheKey{Symbol: symbol, Strategy: label, Date: candles[len(candles)-1].Date}

	var res backtest.BacktestResult
	hit, err := store.LoadJSON(ctx, a.cache, key, &res)
	if err != nil {
		a.log.Warn().Err(err).Str("key", key.String()).Msg("cache read failed")
	}
	if hit {
		a.log.Debug().Str("key", key.String()).Msg("backtest cache hit")
		return &res, nil
	}

	out := bt.Run(candles, label)
	out.Symbol = symbol
	if err := store.SaveJSON(ctx, a.cache, key, out); err != nil {
		a.log.Warn().Err(err).Str("key", key.String()).Msg("cache write failed")
	}
	return out, nil
}

func outputBacktests(symbol string, results []*backtest.BacktestResult) {
	if len(results) > 0 {
		fmt.Printf("%s  %s\n\n", symbol, results[0].Period)
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Strategy", "Trades", "Win%", "Avg Win", "Avg Loss", "Return", "Max DD", "Sharpe", "PF", "Exp R"}),
	)
	for _, r := range results {
		table.Append([]string{
			r.Strategy,
			fmt.Sprintf("%d", r.TotalTrades),
			fmt.Sprintf("%.1f%%", r.WinRate),
			fmt.Sprintf("%+.2f%%", r.AvgWin),
			fmt.Sprintf("%+.2f%%", r.AvgLoss),
			fmt.Sprintf("%+.2f%%", r.TotalReturn),
			fmt.Sprintf("%.2f%%", r.MaxDrawdown),
			fmt.Sprintf("%.2f", r.SharpeRatio),
			fmt.Sprintf("%.2f", r.ProfitFactor),
			fmt.Sprintf("%+.2f", r.ExpectancyR),
		})
	}
	table.Render()
}

func outputTrades(trades []backtest.Trade) {
	if len(trades) == 0 {
		fmt.Println("No trades.")
		return
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Entry", "Price", "Exit", "Price", "Shares", "Stop", "P/L", "Return", "R", "Reason"}),
	)
	for _, t := range trades {
		exit := "open"
		if t.ExitDate != nil {
			exit = t.ExitDate.Format("2006-01-02")
		}
		table.Append([]string{
			t.EntryDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", t.EntryPrice),
			exit,
			fmt.Sprintf("%.2f", t.ExitPrice),
			fmt.Sprintf("%d", t.Shares),
			fmt.Sprintf("%.2f", t.Stop),
			fmt.Sprintf("%+.2f", t.ProfitAbsolute),
			fmt.Sprintf("%+.2f%%", t.ReturnPct),
			fmt.Sprintf("%+.2f", t.RMultiple),
			t.ExitReason,
		})
	}
	table.Render()
}

func outputMonteCarlo(mc *backtest.MonteCarloResult, riskPct float64) {
	fmt.Printf("\n--- Monte Carlo (%d runs, %.1f%% risk per trade) ---\n", mc.Simulations, riskPct)
	fmt.Printf("  Median return: %+.2f%%\n", mc.MedianReturn)
	fmt.Printf("  5th pct:       %+.2f%%\n", mc.WorstCase)
	fmt.Printf("  95th pct:      %+.2f%%\n", mc.BestCase)
	fmt.Printf("  Ruin:          %.1f%%\n", mc.RuinProbability)
}
