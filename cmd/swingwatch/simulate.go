package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"swingwatch/internal/backtest"
	"swingwatch/internal/classify"
	"swingwatch/internal/indicator"
	"swingwatch/internal/symbols"
)

const dateLayout = "2006-01-02"

func newSimulateCmd() *cobra.Command {
	var (
		fromStr string
		toStr   string
	)

	cmd := &cobra.Command{
		Use:   "simulate SYMBOL",
		Short: "Walk the classification engine forward over a date window",
		Long: `Simulate evaluates every bar in [from, to] with the same thresholds as
evaluate. READY and BREAKOUT_READY open a position at the close with a 2 ATR
stop and 4 ATR target; exits follow stop, target, invalidation, then 20 days.
A position still open at the window end is reported with no exit date.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := symbols.Normalize(args[0])

			to := time.Now().UTC()
			if toStr != "" {
				t, err := time.Parse(dateLayout, toStr)
				if err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
				to = t
			}
			from := to.AddDate(-1, 0, 0)
			if fromStr != "" {
				t, err := time.Parse(dateLayout, fromStr)
				if err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
				from = t
			}
			if !from.Before(to) {
				return fmt.Errorf("--from %s must be before --to %s", from.Format(dateLayout), to.Format(dateLayout))
			}

			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			// trading bars to calendar days, doubled for holidays and gaps
			warmupDays := indicator.WarmupBars * 2 * 7 / 5
			candles, err := a.provider.GetDailyCandles(ctx, symbol, from.AddDate(0, 0, -warmupDays), to)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", symbol, err)
			}

			wf := backtest.NewWalkForward(a.cfg.Backtest, classify.NewEngine(a.cfg.Thresholds))
			result, err := wf.Simulate(candles, from, to)
			if err != nil {
				return err
			}

			if jsonOutput {
				return outputJSON(result)
			}

			s := result.Summary
			if result.Period == "" {
				fmt.Printf("%s: no evaluable bars between %s and %s\n", symbol, from.Format(dateLayout), to.Format(dateLayout))
				return nil
			}
			fmt.Printf("%s walk-forward %s\n\n", symbol, result.Period)
			outputTrades(result.Trades)
			fmt.Printf("\n  Closed trades: %d (open: %d)\n", s.TotalTrades, s.OpenTrades)
			fmt.Printf("  Win rate:      %.1f%%\n", s.WinRate)
			fmt.Printf("  Avg win/loss:  %+.2f%% / %+.2f%% (ratio %.2f)\n", s.AvgWin, s.AvgLoss, s.AvgWinLossRatio)
			fmt.Printf("  Edge score:    %.1f\n", s.EdgeScore)
			fmt.Printf("  Total return:  %+.2f%%\n", s.TotalReturn)
			fmt.Printf("  Max drawdown:  %.2f%%\n", s.MaxDrawdown)
			fmt.Printf("  Sharpe:        %.2f\n", s.SharpeRatio)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "window start YYYY-MM-DD (default: one year before --to)")
	cmd.Flags().StringVar(&toStr, "to", "", "window end YYYY-MM-DD (default: today)")
	return cmd
}
