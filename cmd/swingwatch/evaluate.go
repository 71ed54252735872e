package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"swingwatch/internal/backtest"
	"swingwatch/internal/classify"
	"swingwatch/internal/scanner"
	"swingwatch/internal/symbols"
)

func newEvaluateCmd() *cobra.Command {
	var (
		watchlist string
		workers   int
		noPersist bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate [SYMBOLS|UNIVERSE]",
		Short: "Classify the latest daily bar of each symbol",
		Long: `Evaluate fetches daily candles, derives the robustness context from a
walk-forward replay and classifies the latest bar. Watch state is persisted
between runs unless --no-persist is given.

UNIVERSE is one of: ` + strings.Join(symbols.Names(), ", ") + ".",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			syms, err := loadSymbols(args, watchlist)
			if err != nil {
				return err
			}

			a, err := newApp(!noPersist)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("workers") {
				a.cfg.Scanner.Workers = workers
			}

			ctx, cancel := signalContext()
			defer cancel()

			engine := classify.NewEngine(a.cfg.Thresholds)
			s := scanner.NewScanner(a.provider, engine, backtest.NewWalkForward(a.cfg.Backtest, engine), scanner.Config{
				Workers:     a.cfg.Scanner.Workers,
				Timeout:     a.cfg.Scanner.Timeout,
				HistoryDays: a.cfg.Scanner.HistoryDays,
			}, a.log)
			if a.db != nil {
				s.SetStore(a.db)
			}
			s.SetCache(a.cache)

			var bar *progressbar.ProgressBar
			if len(syms) > 1 && !jsonOutput {
				bar = newProgressBar(len(syms), "Evaluating")
				s.SetProgressCallback(func(scanned, total int) {
					bar.Set(scanned)
				})
			}

			result, err := s.Scan(ctx, syms)
			if bar != nil {
				bar.Finish()
				fmt.Fprintln(os.Stderr)
			}
			if err != nil && result == nil {
				return fmt.Errorf("evaluating: %w", err)
			}

			if jsonOutput {
				if encErr := outputJSON(result); encErr != nil {
					return encErr
				}
				return err
			}
			outputEvaluations(result)
			return err
		},
	}

	cmd.Flags().StringVar(&watchlist, "watchlist", "", "file with one symbol per line")
	cmd.Flags().IntVar(&workers, "workers", 4, "number of parallel workers")
	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "do not read or write watch state")
	return cmd
}

func loadSymbols(args []string, watchlist string) ([]string, error) {
	var syms []string
	if watchlist != "" {
		list, err := symbols.LoadWatchlist(watchlist)
		if err != nil {
			return nil, fmt.Errorf("loading watchlist: %w", err)
		}
		syms = append(syms, list...)
	}
	if len(args) > 0 {
		list, err := symbols.Resolve(args[0])
		if err != nil {
			return nil, err
		}
		syms = append(syms, list...)
	}
	if len(syms) == 0 {
		return nil, fmt.Errorf("no symbols given (pass SYMBOLS, a universe or --watchlist)")
	}
	return syms, nil
}

func newProgressBar(total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// statusRank orders the table with actionable statuses first
var statusRank = map[classify.Status]int{
	classify.StatusReady:         0,
	classify.StatusBreakoutReady: 1,
	classify.StatusWatchReclaim:  2,
	classify.StatusApproaching:   3,
	classify.StatusBreakoutOnly:  4,
	classify.StatusWaitPullback:  5,
	classify.StatusExpired:       6,
	classify.StatusInvalidated:   7,
}

func outputEvaluations(result *scanner.ScanResult) {
	results := result.Results
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := statusRank[results[i].Evaluation.Status], statusRank[results[j].Evaluation.Status]
		if ri != rj {
			return ri < rj
		}
		return results[i].Symbol < results[j].Symbol
	})

	if len(results) > 0 {
		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Symbol", "Date", "Status", "Action", "Dist", "RSI", "Vol", "Edge", "Days", "Reason"}),
		)
		for _, r := range results {
			ev := r.Evaluation
			rsi := "-"
			if r.Snapshot.RSI14 != nil {
				rsi = fmt.Sprintf("%.1f", *r.Snapshot.RSI14)
			}
			edge := "-"
			if r.Robustness.EdgeScore != nil && r.Robustness.TotalTrades != nil {
				edge = fmt.Sprintf("%.0f/%d", *r.Robustness.EdgeScore, *r.Robustness.TotalTrades)
			}
			table.Append([]string{
				r.Symbol,
				r.Date.Format("2006-01-02"),
				string(ev.Status),
				string(ev.Action),
				fmt.Sprintf("%+.2f%%", ev.Diagnostics.DistEMA20Pct),
				rsi,
				fmt.Sprintf("%.2fx", r.Snapshot.RelativeVolume),
				edge,
				fmt.Sprintf("%d", r.History.DaysInWatchlist),
				truncate(ev.Reason, 50),
			})
		}
		table.Render()
	} else {
		fmt.Println("No symbols could be evaluated.")
	}

	for _, r := range results {
		if r.Evaluation.TimeWarning != "" {
			fmt.Printf("  [%s] %s\n", r.Symbol, r.Evaluation.TimeWarning)
		}
	}
	for _, f := range result.Failures {
		fmt.Printf("  [%s] skipped: %s\n", f.Symbol, f.Error)
	}

	fmt.Printf("\nEvaluated %d symbols (%d ready) in %s\n",
		result.TotalScanned, result.ReadyCount, result.ScanTime.Round(time.Millisecond))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
