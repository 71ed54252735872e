package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"swingwatch/internal/config"
	"swingwatch/internal/store"
	"swingwatch/internal/symbols"
	"swingwatch/pkg/logger"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		remove bool
	)

	cmd := &cobra.Command{
		Use:   "history [SYMBOL]",
		Short: "Show persisted watch state, or one symbol's evaluation history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			db, err := store.Open(cfg.Store.Path, log)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer db.Close()

			ctx := cmd.Context()

			if len(args) == 0 {
				states, err := db.ListWatchStates(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return outputJSON(states)
				}
				table := tablewriter.NewTable(os.Stdout,
					tablewriter.WithHeader([]string{"Symbol", "Last Eval", "Status", "Days", "Invalidated"}),
				)
				for _, st := range states {
					inv := "-"
					if st.History.LastInvalidatedDate != nil {
						inv = st.History.LastInvalidatedDate.Format(dateLayout)
					}
					table.Append([]string{
						st.Symbol,
						st.LastEvalDate.Format(dateLayout),
						string(st.History.PrevStatus),
						fmt.Sprintf("%d", st.History.DaysInWatchlist),
						inv,
					})
				}
				table.Render()
				return nil
			}

			symbol := symbols.Normalize(args[0])
			if remove {
				if err := db.DeleteWatchState(ctx, symbol); err != nil {
					return err
				}
				fmt.Printf("Removed %s from the watchlist state.\n", symbol)
				return nil
			}

			rows, err := db.History(ctx, symbol, limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(rows)
			}
			if len(rows) == 0 {
				fmt.Printf("No evaluations recorded for %s.\n", symbol)
				return nil
			}
			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"Date", "Status", "Action", "Dist", "RSI Zone", "Volume", "Reason"}),
			)
			for _, r := range rows {
				d := r.Result.Diagnostics
				table.Append([]string{
					r.EvalDate.Format(dateLayout),
					string(r.Result.Status),
					string(r.Result.Action),
					fmt.Sprintf("%+.2f%%", d.DistEMA20Pct),
					string(d.RSIZone),
					string(d.VolumeState),
					truncate(r.Result.Reason, 60),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 30, "maximum history rows")
	cmd.Flags().BoolVar(&remove, "remove", false, "delete the symbol's watch state")
	return cmd
}
