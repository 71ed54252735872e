package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when no row exists for the requested key
var ErrNotFound = errors.New("not found")

const dateLayout = "2006-01-02"

// Store persists watch state, evaluation history and cached backtests in
// SQLite
type Store struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// Open opens (and creates if needed) the SQLite database at path and applies
// the schema. ":memory:" opens a private in-memory database.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; also keeps one :memory: database
	db.SetConnMaxLifetime(0)

	s := &Store{
		db:  db,
		log: log.With().Str("component", "store").Logger(),
		now: time.Now,
	}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	s.log.Debug().Str("path", path).Msg("sqlite store ready")
	return s, nil
}

// Close releases the underlying DB handle
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const schema = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS watch_state (
    symbol TEXT PRIMARY KEY,
    prev_status TEXT NOT NULL,
    last_invalidated_date TEXT,
    days_in_watchlist INTEGER NOT NULL DEFAULT 0,
    last_eval_date TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS watch_history (
    id TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    eval_date TEXT NOT NULL,
    status TEXT NOT NULL,
    action TEXT NOT NULL,
    reason TEXT NOT NULL,
    dist_ema20_pct REAL NOT NULL,
    rsi_zone TEXT NOT NULL,
    volume_state TEXT NOT NULL,
    proximity_zone TEXT NOT NULL,
    time_warning TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_watch_history_symbol ON watch_history(symbol, eval_date);

CREATE TABLE IF NOT EXISTS backtest_results (
    symbol TEXT NOT NULL,
    strategy TEXT NOT NULL,
    eval_date TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (symbol, strategy, eval_date)
);
`
