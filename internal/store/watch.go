package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"swingwatch/internal/classify"
)

// WatchState is the persisted history of one instrument on the watchlist
type WatchState struct {
	Symbol       string                  `json:"symbol"`
	History      classify.HistoryContext `json:"history"`
	LastEvalDate time.Time               `json:"last_eval_date"`
}

// Evaluation is one row of the append-only evaluation history
type Evaluation struct {
	ID        string                         `json:"id"`
	Symbol    string                         `json:"symbol"`
	EvalDate  time.Time                      `json:"eval_date"`
	Result    classify.WatchEvaluationResult `json:"result"`
	CreatedAt time.Time                      `json:"created_at"`
}

// GetWatchState returns the state of symbol or ErrNotFound
func (s *Store) GetWatchState(ctx context.Context, symbol string) (*WatchState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT symbol, prev_status, last_invalidated_date, days_in_watchlist, last_eval_date
		FROM watch_state WHERE symbol = ?`, symbol)

	st, err := scanWatchState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get watch state %s: %w", symbol, err)
	}
	return st, nil
}

// ListWatchStates returns every instrument with persisted state
func (s *Store) ListWatchStates(ctx context.Context) ([]WatchState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, prev_status, last_invalidated_date, days_in_watchlist, last_eval_date
		FROM watch_state ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []WatchState
	for rows.Next() {
		st, err := scanWatchState(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *st)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWatchState(row rowScanner) (*WatchState, error) {
	var (
		st          WatchState
		status      string
		invalidated sql.NullString
		evalDate    string
	)
	if err := row.Scan(&st.Symbol, &status, &invalidated, &st.History.DaysInWatchlist, &evalDate); err != nil {
		return nil, err
	}
	st.History.PrevStatus = classify.Status(status)

	d, err := time.Parse(dateLayout, evalDate)
	if err != nil {
		return nil, fmt.Errorf("last_eval_date: %w", err)
	}
	st.LastEvalDate = d

	if invalidated.Valid {
		t, err := time.Parse(time.RFC3339, invalidated.String)
		if err != nil {
			return nil, fmt.Errorf("last_invalidated_date: %w", err)
		}
		st.History.LastInvalidatedDate = &t
	}
	return &st, nil
}

// SaveEvaluation upserts the watch state and appends the result to the
// history in one transaction. It returns the history row ID.
func (s *Store) SaveEvaluation(ctx context.Context, state WatchState, res classify.WatchEvaluationResult) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	now := s.now().UTC().Format(time.RFC3339)
	var invalidated any
	if state.History.LastInvalidatedDate != nil {
		invalidated = state.History.LastInvalidatedDate.UTC().Format(time.RFC3339)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO watch_state (symbol, prev_status, last_invalidated_date, days_in_watchlist, last_eval_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			prev_status = excluded.prev_status,
			last_invalidated_date = excluded.last_invalidated_date,
			days_in_watchlist = excluded.days_in_watchlist,
			last_eval_date = excluded.last_eval_date,
			updated_at = excluded.updated_at
	`, state.Symbol, string(state.History.PrevStatus), invalidated, state.History.DaysInWatchlist,
		state.LastEvalDate.Format(dateLayout), now); err != nil {
		return "", fmt.Errorf("upsert watch state %s: %w", state.Symbol, err)
	}

	id := uuid.NewString()
	d := res.Diagnostics
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO watch_history (id, symbol, eval_date, status, action, reason,
			dist_ema20_pct, rsi_zone, volume_state, proximity_zone, time_warning, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, state.Symbol, state.LastEvalDate.Format(dateLayout), string(res.Status), string(res.Action), res.Reason,
		d.DistEMA20Pct, string(d.RSIZone), string(d.VolumeState), string(d.ProximityZone), res.TimeWarning, now); err != nil {
		return "", fmt.Errorf("append history %s: %w", state.Symbol, err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	s.log.Debug().Str("symbol", state.Symbol).Str("status", string(res.Status)).Str("id", id).Msg("evaluation saved")
	return id, nil
}

// History returns the most recent evaluations of symbol, newest first
func (s *Store) History(ctx context.Context, symbol string, limit int) ([]Evaluation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, eval_date, status, action, reason, dist_ema20_pct,
			rsi_zone, volume_state, proximity_zone, time_warning, created_at
		FROM watch_history WHERE symbol = ?
		ORDER BY eval_date DESC, created_at DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Evaluation
	for rows.Next() {
		var (
			e                 Evaluation
			evalDate, created string
			status, action    string
			rsiZone, volState string
			proximity         string
		)
		if err := rows.Scan(&e.ID, &e.Symbol, &evalDate, &status, &action, &e.Result.Reason,
			&e.Result.Diagnostics.DistEMA20Pct, &rsiZone, &volState, &proximity,
			&e.Result.TimeWarning, &created); err != nil {
			return nil, err
		}
		e.Result.Status = classify.Status(status)
		e.Result.Action = classify.Action(action)
		e.Result.Diagnostics.RSIZone = classify.MomentumZone(rsiZone)
		e.Result.Diagnostics.VolumeState = classify.VolumeState(volState)
		e.Result.Diagnostics.ProximityZone = classify.ProximityZone(proximity)
		if e.EvalDate, err = time.Parse(dateLayout, evalDate); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// DeleteWatchState removes symbol from the watchlist. History is kept.
func (s *Store) DeleteWatchState(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM watch_state WHERE symbol = ?`, symbol)
	return err
}
