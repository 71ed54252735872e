package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"swingwatch/internal/classify"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOpenEmptyPath(t *testing.T) {
	if _, err := Open("", zerolog.Nop()); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "swing.db")
	s, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected database file at %s, got %v", path, err)
	}
}

func TestGetWatchStateNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetWatchState(context.Background(), "AAPL")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSaveEvaluation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := WatchState{
		Symbol:       "AAPL",
		History:      classify.HistoryContext{PrevStatus: classify.StatusApproaching, DaysInWatchlist: 3},
		LastEvalDate: date(2025, 6, 9),
	}
	res := classify.WatchEvaluationResult{
		Status: classify.StatusApproaching,
		Action: classify.ActionWait,
		Reason: "approaching the EMA20 zone",
		Diagnostics: classify.Diagnostics{
			DistEMA20Pct:  2.4,
			RSIZone:       classify.MomentumWarm,
			VolumeState:   classify.VolumeNormal,
			ProximityZone: classify.ZoneApproaching,
		},
	}

	id, err := s.SaveEvaluation(ctx, first, res)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == "" {
		t.Error("Expected non-empty history ID")
	}

	got, err := s.GetWatchState(ctx, "AAPL")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.History.PrevStatus != classify.StatusApproaching {
		t.Errorf("Expected prev status APPROACHING, got %s", got.History.PrevStatus)
	}
	if got.History.DaysInWatchlist != 3 {
		t.Errorf("Expected 3 days, got %d", got.History.DaysInWatchlist)
	}
	if got.History.LastInvalidatedDate != nil {
		t.Errorf("Expected nil invalidation date, got %v", got.History.LastInvalidatedDate)
	}
	if !got.LastEvalDate.Equal(first.LastEvalDate) {
		t.Errorf("Expected eval date %v, got %v", first.LastEvalDate, got.LastEvalDate)
	}

	// second evaluation overwrites the state and appends history
	inv := date(2025, 6, 10)
	second := WatchState{
		Symbol:       "AAPL",
		History:      classify.HistoryContext{PrevStatus: classify.StatusInvalidated, LastInvalidatedDate: &inv},
		LastEvalDate: date(2025, 6, 10),
	}
	res2 := classify.WatchEvaluationResult{
		Status:              classify.StatusInvalidated,
		Action:              classify.ActionRemove,
		Reason:              "close below EMA50",
		LastInvalidatedDate: &inv,
		Diagnostics: classify.Diagnostics{
			DistEMA20Pct:  -6.1,
			RSIZone:       classify.MomentumWeak,
			VolumeState:   classify.VolumeHigh,
			ProximityZone: classify.ZoneTooDeep,
		},
	}
	if _, err := s.SaveEvaluation(ctx, second, res2); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err = s.GetWatchState(ctx, "AAPL")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.History.PrevStatus != classify.StatusInvalidated {
		t.Errorf("Expected prev status INVALIDATED, got %s", got.History.PrevStatus)
	}
	if got.History.LastInvalidatedDate == nil || !got.History.LastInvalidatedDate.Equal(inv) {
		t.Errorf("Expected invalidation date %v, got %v", inv, got.History.LastInvalidatedDate)
	}
	if got.History.DaysInWatchlist != 0 {
		t.Errorf("Expected 0 days, got %d", got.History.DaysInWatchlist)
	}

	hist, err := s.History(ctx, "AAPL", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("Expected 2 history rows, got %d", len(hist))
	}
	if hist[0].Result.Status != classify.StatusInvalidated {
		t.Errorf("Expected newest row first, got %s", hist[0].Result.Status)
	}
	if hist[0].Result.Diagnostics.ProximityZone != classify.ZoneTooDeep {
		t.Errorf("Expected TOO_DEEP, got %s", hist[0].Result.Diagnostics.ProximityZone)
	}
	if hist[1].Result.Diagnostics.DistEMA20Pct != 2.4 {
		t.Errorf("Expected dist 2.4, got %f", hist[1].Result.Diagnostics.DistEMA20Pct)
	}
	if hist[1].Result.Reason != "approaching the EMA20 zone" {
		t.Errorf("Expected reason to round-trip, got %q", hist[1].Result.Reason)
	}
	if hist[0].ID == hist[1].ID {
		t.Error("Expected distinct history IDs")
	}

	limited, err := s.History(ctx, "AAPL", 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected 1 row with limit, got %d", len(limited))
	}
}

func TestListAndDeleteWatchStates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, sym := range []string{"MSFT", "AAPL", "NVDA"} {
		st := WatchState{
			Symbol:       sym,
			History:      classify.HistoryContext{PrevStatus: classify.StatusWaitPullback},
			LastEvalDate: date(2025, 6, 10),
		}
		res := classify.WatchEvaluationResult{Status: classify.StatusWaitPullback, Action: classify.ActionWait}
		if _, err := s.SaveEvaluation(ctx, st, res); err != nil {
			t.Fatalf("save %s: %v", sym, err)
		}
	}

	states, err := s.ListWatchStates(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"AAPL", "MSFT", "NVDA"}
	if len(states) != len(want) {
		t.Fatalf("Expected %d states, got %d", len(want), len(states))
	}
	for i, w := range want {
		if states[i].Symbol != w {
			t.Errorf("Expected states[%d] = %s, got %s", i, w, states[i].Symbol)
		}
	}

	if err := s.DeleteWatchState(ctx, "MSFT"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetWatchState(ctx, "MSFT"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	hist, err := s.History(ctx, "MSFT", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 {
		t.Errorf("Expected history to survive delete, got %d rows", len(hist))
	}
}

type cachedRun struct {
	Trades    int     `json:"trades"`
	EdgeScore float64 `json:"edge_score"`
}

func TestSQLiteResultCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := CacheKey{Symbol: "aapl", Strategy: "walkforward", Date: date(2025, 6, 10)}

	if _, ok, err := s.Get(ctx, key); err != nil || ok {
		t.Fatalf("Expected miss, got ok=%v err=%v", ok, err)
	}

	if err := SaveJSON(ctx, s, key, cachedRun{Trades: 12, EdgeScore: 55.5}); err != nil {
		t.Fatalf("save: %v", err)
	}

	var got cachedRun
	ok, err := LoadJSON(ctx, s, key, &got)
	if err != nil || !ok {
		t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Trades != 12 || got.EdgeScore != 55.5 {
		t.Errorf("Expected {12 55.5}, got %+v", got)
	}

	// symbol is case-insensitive and Set overwrites
	upper := CacheKey{Symbol: "AAPL", Strategy: "walkforward", Date: date(2025, 6, 10)}
	if err := SaveJSON(ctx, s, upper, cachedRun{Trades: 13}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := LoadJSON(ctx, s, key, &got); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Trades != 13 {
		t.Errorf("Expected overwritten value 13, got %d", got.Trades)
	}

	other := CacheKey{Symbol: "AAPL", Strategy: "Pullback", Date: date(2025, 6, 10)}
	if _, ok, _ := s.Get(ctx, other); ok {
		t.Error("Expected miss for a different strategy")
	}
}

func TestLoadJSONCorrupt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := CacheKey{Symbol: "AAPL", Strategy: "walkforward", Date: date(2025, 6, 10)}

	if err := s.Set(ctx, key, []byte("{not json")); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got cachedRun
	if ok, err := LoadJSON(ctx, s, key, &got); err == nil || ok {
		t.Errorf("Expected decode error, got ok=%v err=%v", ok, err)
	}
}

func TestNilCache(t *testing.T) {
	ctx := context.Background()
	key := CacheKey{Symbol: "AAPL", Strategy: "walkforward", Date: date(2025, 6, 10)}

	if err := SaveJSON(ctx, nil, key, cachedRun{}); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
	var got cachedRun
	if ok, err := LoadJSON(ctx, nil, key, &got); ok || err != nil {
		t.Errorf("Expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestCacheKey(t *testing.T) {
	key := CacheKey{Symbol: "brk.b", Strategy: "Trend Following", Date: date(2025, 1, 2)}

	if got := key.String(); got != "BRK.B:Trend Following:2025-01-02" {
		t.Errorf("Expected BRK.B:Trend Following:2025-01-02, got %s", got)
	}
	if got := redisKey(key); got != "swingwatch:backtest:BRK.B:Trend Following:2025-01-02" {
		t.Errorf("Expected prefixed redis key, got %s", got)
	}
}

// Runs only with SWINGWATCH_TEST_REDIS pointing at a live server
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("SWINGWATCH_TEST_REDIS")
	if addr == "" {
		t.Skip("SWINGWATCH_TEST_REDIS not set")
	}
	ctx := context.Background()
	c := NewRedisCache(RedisConfig{Addr: addr, TTL: time.Minute})
	defer c.Close()
	if err := c.Ping(ctx); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	key := CacheKey{Symbol: "TEST", Strategy: "walkforward", Date: time.Now().UTC().Truncate(24 * time.Hour)}
	if err := SaveJSON(ctx, c, key, cachedRun{Trades: 7}); err != nil {
		t.Fatalf("save: %v", err)
	}
	var got cachedRun
	ok, err := LoadJSON(ctx, c, key, &got)
	if err != nil || !ok {
		t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Trades != 7 {
		t.Errorf("Expected 7 trades, got %d", got.Trades)
	}

	miss := CacheKey{Symbol: "NOPE", Strategy: "walkforward", Date: key.Date}
	if _, ok, err := c.Get(ctx, miss); ok || err != nil {
		t.Errorf("Expected miss, got ok=%v err=%v", ok, err)
	}
}
