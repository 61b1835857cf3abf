package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrRunNotFound = errors.New("store: run not found")

// stamp has a fixed width so stored times sort as text.
const stamp = "2006-01-02T15:04:05.000000000Z07:00"

type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
	Status     string    `json:"status"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}

type Item struct {
	RunID     string    `json:"runId"`
	ItemID    string    `json:"itemId"`
	Label     string    `json:"label"`
	State     string    `json:"state"`
	Attempts  int       `json:"attempts"`
	Reason    string    `json:"reason,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Attempt struct {
	RunID      string    `json:"runId"`
	ItemID     string    `json:"itemId"`
	Number     int       `json:"number"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

func (d *DB) BeginRun(ctx context.Context, id string, at time.Time) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO runs(id, started_at) VALUES(?, ?);`, id, at.UTC().Format(stamp))
	if err != nil {
		return fmt.Errorf("store: begin run: %w", err)
	}
	return nil
}

// FinishRun closes a run and stores its tallies, computed from its items.
func (d *DB) FinishRun(ctx context.Context, id, status string, at time.Time) error {
	res, err := d.Pool.ExecContext(ctx, `
UPDATE runs SET
  finished_at = ?,
  status = ?,
  total = (SELECT COUNT(*) FROM items WHERE run_id = runs.id),
  succeeded = (SELECT COUNT(*) FROM items WHERE run_id = runs.id AND state = 'success'),
  skipped = (SELECT COUNT(*) FROM items WHERE run_id = runs.id AND state = 'skipped'),
  failed = (SELECT COUNT(*) FROM items WHERE run_id = runs.id AND state = 'failed')
WHERE id = ?;`, at.UTC().Format(stamp), status, id)
	if err != nil {
		return fmt.Errorf("store: finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (d *DB) UpsertItem(ctx context.Context, it Item) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO items(run_id, item_id, label, state, attempts, reason, error, updated_at)
VALUES(?,?,?,?,?,?,?,?)
ON CONFLICT(run_id, item_id) DO UPDATE SET
  label = excluded.label,
  state = excluded.state,
  attempts = excluded.attempts,
  reason = excluded.reason,
  error = excluded.error,
  updated_at = excluded.updated_at;`,
		it.RunID, it.ItemID, it.Label, it.State, it.Attempts, it.Reason, it.Error, it.UpdatedAt.UTC().Format(stamp))
	if err != nil {
		return fmt.Errorf("store: upsert item: %w", err)
	}
	return nil
}

func (d *DB) AddAttempt(ctx context.Context, a Attempt) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO attempts(run_id, item_id, number, outcome, reason, error, started_at, finished_at)
VALUES(?,?,?,?,?,?,?,?);`,
		a.RunID, a.ItemID, a.Number, a.Outcome, a.Reason, a.Error,
		a.StartedAt.UTC().Format(stamp), a.FinishedAt.UTC().Format(stamp))
	if err != nil {
		return fmt.Errorf("store: add attempt: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, started_at, finished_at, status, total, succeeded, skipped, failed
FROM runs
ORDER BY started_at DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) GetRun(ctx context.Context, id string) (Run, error) {
	row := d.Pool.QueryRowContext(ctx, `
SELECT id, started_at, finished_at, status, total, succeeded, skipped, failed
FROM runs WHERE id = ?;`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return r, err
}

func (d *DB) ListItems(ctx context.Context, runID string) ([]Item, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT run_id, item_id, label, state, attempts, reason, error, updated_at
FROM items
WHERE run_id = ?
ORDER BY rowid;`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		var updated string
		if err := rows.Scan(&it.RunID, &it.ItemID, &it.Label, &it.State, &it.Attempts, &it.Reason, &it.Error, &updated); err != nil {
			return nil, err
		}
		it.UpdatedAt, _ = time.Parse(stamp, updated)
		out = append(out, it)
	}
	return out, rows.Err()
}

func (d *DB) ListAttempts(ctx context.Context, runID, itemID string) ([]Attempt, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT run_id, item_id, number, outcome, reason, error, started_at, finished_at
FROM attempts
WHERE run_id = ? AND item_id = ?
ORDER BY number;`, runID, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var started, finished string
		if err := rows.Scan(&a.RunID, &a.ItemID, &a.Number, &a.Outcome, &a.Reason, &a.Error, &started, &finished); err != nil {
			return nil, err
		}
		a.StartedAt, _ = time.Parse(stamp, started)
		a.FinishedAt, _ = time.Parse(stamp, finished)
		out = append(out, a)
	}
	return out, rows.Err()
}

// CleanupOldRuns deletes runs started before cutoff, with their items and attempts.
func (d *DB) CleanupOldRuns(ctx context.Context, cutoff time.Time) (deleted int64, err error) {
	res, err := d.Pool.ExecContext(ctx, `
DELETE FROM runs WHERE started_at < ?;`, cutoff.UTC().Format(stamp))
	if err != nil {
		return 0, fmt.Errorf("cleanup old runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var r Run
	var started, finished string
	if err := s.Scan(&r.ID, &started, &finished, &r.Status, &r.Total, &r.Succeeded, &r.Skipped, &r.Failed); err != nil {
		return Run{}, err
	}
	r.StartedAt, _ = time.Parse(stamp, started)
	if finished != "" {
		r.FinishedAt, _ = time.Parse(stamp, finished)
	}
	return r, nil
}
