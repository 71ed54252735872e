package daemon

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"swingwatch/internal/scanner"
)

// Runner evaluates a watchlist
type Runner interface {
	Scan(ctx context.Context, symbols []string) (*scanner.ScanResult, error)
}

// Config holds daemon settings
type Config struct {
	Symbols     []string
	Schedule    MarketSchedule
	SettleDelay time.Duration // wait after the close for final daily bars
	RunOnStart  bool
}

// Daemon re-evaluates the watchlist once per trading day after the close
type Daemon struct {
	config Config
	runner Runner
	log    zerolog.Logger
	onScan func(*scanner.ScanResult)

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewDaemon creates a daemon driving runner
func NewDaemon(cfg Config, runner Runner, log zerolog.Logger) *Daemon {
	return &Daemon{
		config: cfg,
		runner: runner,
		log:    log.With().Str("component", "daemon").Logger(),
		now:    time.Now,
		after:  time.After,
	}
}

// OnScan registers a callback invoked with every completed scan
func (d *Daemon) OnScan(fn func(*scanner.ScanResult)) {
	d.onScan = fn
}

// NextRun returns the first scheduled run at or after now: the next session
// close plus the settle delay
func (d *Daemon) NextRun(now time.Time) time.Time {
	delay := d.config.SettleDelay
	return d.config.Schedule.NextClose(now.Add(-delay)).Add(delay)
}

// Run blocks until ctx is cancelled, scanning after every session close
func (d *Daemon) Run(ctx context.Context) error {
	d.log.Info().Int("symbols", len(d.config.Symbols)).Msg("daemon started")

	if d.config.RunOnStart {
		d.runOnce(ctx)
	}

	for {
		now := d.now()
		next := d.NextRun(now)
		wait := next.Sub(now)
		d.log.Info().
			Time("next_run", next).
			Str("in", FormatDuration(wait)).
			Msg("waiting for session close")

		select {
		case <-ctx.Done():
			d.log.Info().Msg("daemon stopped")
			return nil
		case <-d.after(wait):
		}
		d.runOnce(ctx)
	}
}

func (d *Daemon) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res, err := d.runner.Scan(ctx, d.config.Symbols)
	if err != nil {
		d.log.Error().Err(err).Msg("scheduled scan failed")
		if res == nil {
			return
		}
	}

	for _, r := range res.Results {
		if r.Evaluation.Status.IsReady() {
			d.log.Info().
				Str("symbol", r.Symbol).
				Str("status", string(r.Evaluation.Status)).
				Str("reason", r.Evaluation.Reason).
				Msg("ready")
		}
	}
	if d.onScan != nil {
		d.onScan(res)
	}
}
