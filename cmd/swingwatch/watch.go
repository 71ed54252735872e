package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"swingwatch/internal/backtest"
	"swingwatch/internal/classify"
	"swingwatch/internal/daemon"
	"swingwatch/internal/scanner"
)

func newWatchCmd() *cobra.Command {
	var (
		watchlist  string
		settle     time.Duration
		runOnStart bool
	)

	cmd := &cobra.Command{
		Use:   "watch [SYMBOLS|UNIVERSE]",
		Short: "Re-evaluate the watchlist after every US session close",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			syms, err := loadSymbols(args, watchlist)
			if err != nil {
				return err
			}

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			engine := classify.NewEngine(a.cfg.Thresholds)
			s := scanner.NewScanner(a.provider, engine, backtest.NewWalkForward(a.cfg.Backtest, engine), scanner.Config{
				Workers:     a.cfg.Scanner.Workers,
				Timeout:     a.cfg.Scanner.Timeout,
				HistoryDays: a.cfg.Scanner.HistoryDays,
			}, a.log)
			s.SetStore(a.db)
			s.SetCache(a.cache)

			d := daemon.NewDaemon(daemon.Config{
				Symbols:     syms,
				Schedule:    daemon.DefaultMarketSchedule(),
				SettleDelay: settle,
				RunOnStart:  runOnStart,
			}, s, a.log)
			if !jsonOutput {
				d.OnScan(outputEvaluations)
			} else {
				d.OnScan(jsonScanWriter(os.Stdout, a.log))
			}

			ctx, cancel := signalContext()
			defer cancel()
			return d.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&watchlist, "watchlist", "", "file with one symbol per line")
	cmd.Flags().DurationVar(&settle, "settle", 30*time.Minute, "wait after the close before fetching daily bars")
	cmd.Flags().BoolVar(&runOnStart, "now", false, "evaluate once immediately")
	return cmd
}

// jsonScanWriter prints each scan as JSON. A failed write is logged and the
// daemon keeps running.
func jsonScanWriter(w io.Writer, log zerolog.Logger) func(*scanner.ScanResult) {
	return func(res *scanner.ScanResult) {
		if err := writeJSON(w, res); err != nil {
			log.Error().Err(err).Msg("writing scan result")
		}
	}
}
