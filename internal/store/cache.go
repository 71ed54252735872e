package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CacheKey identifies one cached backtest or walk-forward run
type CacheKey struct {
	Symbol   string
	Strategy string
	Date     time.Time
}

// String renders the key as "SYMBOL:strategy:YYYY-MM-DD"
func (k CacheKey) String() string {
	return strings.ToUpper(k.Symbol) + ":" + k.Strategy + ":" + k.Date.Format(dateLayout)
}

// ResultCache stores serialized backtest results. Get reports a miss with
// ok=false and a nil error.
type ResultCache interface {
	Get(ctx context.Context, key CacheKey) ([]byte, bool, error)
	Set(ctx context.Context, key CacheKey, value []byte) error
}

var (
	_ ResultCache = (*Store)(nil)
	_ ResultCache = (*RedisCache)(nil)
)

// Get returns the cached payload from backtest_results
func (s *Store) Get(ctx context.Context, key CacheKey) ([]byte, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM backtest_results
		WHERE symbol = ? AND strategy = ? AND eval_date = ?`,
		strings.ToUpper(key.Symbol), key.Strategy, key.Date.Format(dateLayout)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached result %s: %w", key, err)
	}
	return []byte(payload), true, nil
}

// Set upserts the payload into backtest_results
func (s *Store) Set(ctx context.Context, key CacheKey, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO backtest_results (symbol, strategy, eval_date, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol, strategy, eval_date) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at
	`, strings.ToUpper(key.Symbol), key.Strategy, key.Date.Format(dateLayout), string(value),
		s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set cached result %s: %w", key, err)
	}
	return nil
}

// LoadJSON decodes the cached value of key into out. A nil cache is always a miss.
func LoadJSON(ctx context.Context, c ResultCache, key CacheKey, out any) (bool, error) {
	if c == nil {
		return false, nil
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key. A nil cache discards it.
func SaveJSON(ctx context.Context, c ResultCache, key CacheKey, v any) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, b)
}
