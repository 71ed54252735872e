package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"swingwatch/internal/config"
	"swingwatch/internal/provider"
	"swingwatch/internal/store"
	"swingwatch/pkg/logger"
)

var (
	cfgFile    string
	jsonOutput bool
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "swingwatch",
		Short: "Swing-trading watchlist classifier and backtester",
		Long: `Swingwatch classifies daily price action into watch statuses and
measures how strategy rules would have performed historically.

Commands:
  evaluate    - Classify the latest bar of each symbol (READY, APPROACHING, ...)
  backtest    - Replay a setup label over daily history
  simulate    - Walk the classification engine forward over a window
  strategies  - List strategy labels or detect today's setup
  history     - Show persisted watch state and evaluation history
  watch       - Re-evaluate after every US session close

Examples:
  swingwatch evaluate AAPL,MSFT,NVDA
  swingwatch evaluate leaders --workers 8
  swingwatch backtest AAPL --strategy Pullback --trades
  swingwatch simulate NVDA --from 2024-01-01 --to 2024-12-31`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "write JSON instead of tables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newEvaluateCmd(),
		newBacktestCmd(),
		newSimulateCmd(),
		newStrategiesCmd(),
		newHistoryCmd(),
		newWatchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the collaborators a command needs
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	provider provider.Provider
	db       *store.Store
	cache    store.ResultCache
	closers  []func() error
}

func newApp(withStore bool) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, provider: buildProvider(cfg.Provider)}
	if !a.provider.IsAvailable() {
		return nil, fmt.Errorf("no available data providers")
	}

	if !withStore {
		return a, nil
	}

	db, err := store.Open(cfg.Store.Path, log)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	switch cfg.Store.Cache {
	case "sqlite":
		a.cache = db
	case "redis":
		rc := store.NewRedisCache(store.RedisConfig{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
			TTL:      cfg.Store.CacheTTL,
		})
		a.cache = rc
		a.closers = append(a.closers, rc.Close)
	}
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}

func buildProvider(cfg config.ProviderConfig) provider.Provider {
	var providers []provider.Provider
	for _, src := range cfg.Sources {
		switch src {
		case "yahoo":
			providers = append(providers, provider.NewYahooProvider(cfg.Yahoo.RateLimit))
		case "finnhub":
			providers = append(providers, provider.NewFinnhubProvider(cfg.Finnhub.Key, cfg.Finnhub.RateLimit))
		case "csv":
			providers = append(providers, provider.NewCSVProvider(cfg.CSVDir))
		}
	}

	var p provider.Provider = provider.NewFallbackProvider(providers...)
	if cfg.Cache {
		p = provider.NewCachingProvider(p)
	}
	return p
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted. Stopping...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func outputJSON(v any) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
