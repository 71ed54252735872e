package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"swingwatch/internal/strategy"
	"swingwatch/internal/symbols"
)

func newStrategiesCmd() *cobra.Command {
	var detect string

	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "List strategy labels or detect the current setup of a symbol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if detect == "" {
				infos := strategy.All()
				if jsonOutput {
					return outputJSON(infos)
				}
				table := tablewriter.NewTable(os.Stdout,
					tablewriter.WithHeader([]string{"Label", "Type", "Tradable", "Description"}),
				)
				for _, info := range infos {
					table.Append([]string{
						string(info.Label),
						info.Type,
						fmt.Sprintf("%v", info.Tradable),
						info.Description,
					})
				}
				table.Render()
				return nil
			}

			symbol := symbols.Normalize(detect)
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			candles, err := fetchHistory(ctx, a, symbol, 180)
			if err != nil {
				return err
			}
			sig, ok := strategy.Detect(candles)
			if !ok {
				return fmt.Errorf("%s: not enough history to detect a setup (%d bars)", symbol, len(candles))
			}

			if jsonOutput {
				return outputJSON(sig)
			}
			c := sig.Conditions
			fmt.Printf("[%s] %s\n", symbol, sig.Date.Format(dateLayout))
			fmt.Printf("  Regime: %s\n", sig.Regime)
			fmt.Printf("  Setup:  %s\n", sig.Setup)
			fmt.Printf("  Close: %.2f | EMA20: %.2f | EMA50: %.2f\n", c.Close, c.EMA20, c.EMA50)
			fmt.Printf("  RSI(14): %.1f | Volume: %.2fx avg\n", c.RSI, c.RelVol)
			if c.High20D != nil {
				fmt.Printf("  20-day high: %.2f\n", *c.High20D)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&detect, "detect", "", "symbol whose current regime and setup to show")
	return cmd
}
