package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"swingwatch/internal/analyzer"
	"swingwatch/internal/backtest"
	"swingwatch/internal/classify"
	"swingwatch/internal/indicator"
	"swingwatch/internal/provider"
	"swingwatch/internal/store"
	"swingwatch/pkg/model"
)

// ErrInsufficientHistory is returned when a symbol has too few candles for
// warmed indicators
var ErrInsufficientHistory = errors.New("insufficient history")

// RobustnessStrategy is the cache label of the walk-forward run that feeds the
// robustness context
const RobustnessStrategy = "walkforward"

// DefaultHistoryDays covers about five years of daily bars, enough for the
// robustness walk-forward to close the trade count the edge gate asks for
const DefaultHistoryDays = 1825

// ProgressCallback is called with progress updates
type ProgressCallback func(scanned, total int)

// StateStore persists watch state between scans
type StateStore interface {
	GetWatchState(ctx context.Context, symbol string) (*store.WatchState, error)
	SaveEvaluation(ctx context.Context, state store.WatchState, res classify.WatchEvaluationResult) (string, error)
}

// Config holds scanner settings
type Config struct {
	Workers     int
	Timeout     time.Duration
	HistoryDays int
}

// Result is the evaluation of one symbol
type Result struct {
	Symbol     string                         `json:"symbol"`
	Date       time.Time                      `json:"date"`
	Snapshot   indicator.Snapshot             `json:"snapshot"`
	Structure  analyzer.StructuralContext     `json:"structure"`
	Robustness classify.RobustnessContext     `json:"robustness"`
	Evaluation classify.WatchEvaluationResult `json:"evaluation"`
	History    classify.HistoryContext        `json:"history"` // state carried into the next scan
	HistoryID  string                         `json:"history_id,omitempty"`
}

// Failure records a symbol that could not be evaluated
type Failure struct {
	Symbol string `json:"symbol"`
	Err    error  `json:"-"`
	Error  string `json:"error"`
}

// ScanResult holds the results of a scan
type ScanResult struct {
	TotalScanned int           `json:"total_scanned"`
	ReadyCount   int           `json:"ready_count"`
	Results      []Result      `json:"results"`
	Failures     []Failure     `json:"failures,omitempty"`
	ScanTime     time.Duration `json:"scan_time"`
}

// Scanner evaluates a watchlist in parallel
type Scanner struct {
	provider     provider.Provider
	engine       *classify.Engine
	walk         *backtest.WalkForward
	states       StateStore
	cache        store.ResultCache
	config       Config
	log          zerolog.Logger
	progressFunc ProgressCallback
	now          func() time.Time
}

// NewScanner creates a new scanner. State persistence and result caching are
// disabled until SetStore and SetCache are called.
func NewScanner(p provider.Provider, engine *classify.Engine, walk *backtest.WalkForward, cfg Config, log zerolog.Logger) *Scanner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = DefaultHistoryDays
	}
	return &Scanner{
		provider: p,
		engine:   engine,
		walk:     walk,
		config:   cfg,
		log:      log.With().Str("component", "scanner").Logger(),
		now:      time.Now,
	}
}

// SetStore enables watch-state persistence
func (s *Scanner) SetStore(states StateStore) {
	s.states = states
}

// SetCache enables caching of the walk-forward robustness runs
func (s *Scanner) SetCache(cache store.ResultCache) {
	s.cache = cache
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(fn ProgressCallback) {
	s.progressFunc = fn
}

// Scan evaluates every symbol. Per-symbol failures are collected in the
// result; only a cancelled context fails the scan as a whole.
func (s *Scanner) Scan(ctx context.Context, symbols []string) (*ScanResult, error) {
	startTime := time.Now()

	if len(symbols) == 0 {
		return &ScanResult{Results: []Result{}, ScanTime: time.Since(startTime)}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	jobChan := make(chan string, len(symbols))
	for _, sym := range symbols {
		jobChan <- sym
	}
	close(jobChan)

	type outcome struct {
		result *Result
		fail   *Failure
	}
	outChan := make(chan outcome, len(symbols))

	var scannedCount int64
	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobChan {
				if ctx.Err() != nil {
					return
				}
				res, err := s.EvaluateSymbol(ctx, sym)
				if err != nil {
					s.log.Warn().Err(err).Str("symbol", sym).Msg("evaluation failed")
					outChan <- outcome{fail: &Failure{Symbol: sym, Err: err, Error: err.Error()}}
				} else {
					outChan <- outcome{result: res}
				}

				count := atomic.AddInt64(&scannedCount, 1)
				if s.progressFunc != nil {
					s.progressFunc(int(count), len(symbols))
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(outChan)
	}()

	scan := &ScanResult{Results: []Result{}}
	for out := range outChan {
		if out.fail != nil {
			scan.Failures = append(scan.Failures, *out.fail)
			continue
		}
		scan.Results = append(scan.Results, *out.result)
		if out.result.Evaluation.Status.IsReady() {
			scan.ReadyCount++
		}
	}

	sort.Slice(scan.Results, func(i, j int) bool { return scan.Results[i].Symbol < scan.Results[j].Symbol })
	sort.Slice(scan.Failures, func(i, j int) bool { return scan.Failures[i].Symbol < scan.Failures[j].Symbol })
	scan.TotalScanned = int(atomic.LoadInt64(&scannedCount))
	scan.ScanTime = time.Since(startTime)

	if err := ctx.Err(); err != nil {
		return scan, fmt.Errorf("scan interrupted after %d of %d symbols: %w", scan.TotalScanned, len(symbols), err)
	}

	s.log.Info().
		Int("symbols", len(symbols)).
		Int("ready", scan.ReadyCount).
		Int("failed", len(scan.Failures)).
		Dur("elapsed", scan.ScanTime).
		Msg("scan complete")
	return scan, nil
}

// EvaluateSymbol fetches candles for symbol, derives the robustness context
// from a walk-forward run, evaluates the latest bar and persists the outcome
func (s *Scanner) EvaluateSymbol(ctx context.Context, symbol string) (*Result, error) {
	to := s.now()
	from := to.AddDate(0, 0, -s.config.HistoryDays)

	candles, err := s.provider.GetDailyCandles(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	return s.EvaluateCandles(ctx, symbol, candles)
}

// EvaluateCandles evaluates the last bar of candles
func (s *Scanner) EvaluateCandles(ctx context.Context, symbol string, candles []model.Candle) (*Result, error) {
	if len(candles) <= indicator.WarmupBars {
		return nil, fmt.Errorf("%s: %d candles: %w", symbol, len(candles), ErrInsufficientHistory)
	}

	last := len(candles) - 1
	snap, err := indicator.BuildSnapshot(candles, indicator.Compute(candles), last)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	if !snap.Warm() {
		return nil, fmt.Errorf("%s: indicators not warm: %w", symbol, ErrInsufficientHistory)
	}

	result := &Result{
		Symbol:    symbol,
		Date:      snap.Date,
		Snapshot:  snap,
		Structure: analyzer.Structure(candles, last),
	}

	result.Robustness, err = s.robustness(ctx, symbol, candles)
	if err != nil {
		return nil, err
	}

	prev, err := s.loadState(ctx, symbol)
	if err != nil {
		return nil, err
	}

	in := classify.NewInput(snap, result.Structure)
	in.Robustness = result.Robustness
	if prev != nil {
		in.History = prev.History
	}

	result.Evaluation, err = s.engine.Evaluate(in)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", symbol, err)
	}

	newDay := prev == nil || snap.Date.After(prev.LastEvalDate)
	result.History = in.History.Advance(result.Evaluation, newDay)

	if s.states != nil {
		state := store.WatchState{Symbol: symbol, History: result.History, LastEvalDate: snap.Date}
		id, err := s.states.SaveEvaluation(ctx, state, result.Evaluation)
		if err != nil {
			return nil, fmt.Errorf("persist %s: %w", symbol, err)
		}
		result.HistoryID = id
	}

	s.log.Debug().
		Str("symbol", symbol).
		Str("status", string(result.Evaluation.Status)).
		Str("reason", result.Evaluation.Reason).
		Msg("evaluated")
	return result, nil
}

func (s *Scanner) loadState(ctx context.Context, symbol string) (*store.WatchState, error) {
	if s.states == nil {
		return nil, nil
	}
	st, err := s.states.GetWatchState(ctx, symbol)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", symbol, err)
	}
	return st, nil
}

// robustness replays the classification engine over the whole history. The
// run is cached per symbol and last bar date; cache failures only cost a
// recomputation.
func (s *Scanner) robustness(ctx context.Context, symbol string, candles []model.Candle) (classify.RobustnessContext, error) {
	if s.walk == nil {
		return classify.RobustnessContext{}, nil
	}

	first, last := candles[0].Date, candles[len(candles)-1].Date
	key := store.CacheKey{Symbol: symbol, Strategy: RobustnessStrategy, Date: last}

	var wf backtest.WalkForwardResult
	hit, err := store.LoadJSON(ctx, s.cache, key, &wf)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key.String()).Msg("robustness cache read failed")
	}
	if !hit {
		res, err := s.walk.Simulate(candles, first, last)
		if err != nil {
			return classify.RobustnessContext{}, fmt.Errorf("walk-forward %s: %w", symbol, err)
		}
		wf = *res
		if err := store.SaveJSON(ctx, s.cache, key, wf); err != nil {
			s.log.Warn().Err(err).Str("key", key.String()).Msg("robustness cache write failed")
		}
	}

	edge := clamp(wf.Summary.EdgeScore, 0, 100)
	trades := wf.Summary.TotalTrades
	return classify.RobustnessContext{EdgeScore: &edge, TotalTrades: &trades}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
