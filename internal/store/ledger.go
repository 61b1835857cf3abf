package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"receitanet-engine/internal/runner"
)

// Ledger persists runner progress. Write errors are logged and never stop
// the run.
type Ledger struct {
	DB  *DB
	Log *zap.Logger
	Now func() time.Time
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Ledger) warn(msg string, err error) {
	if err != nil && l.Log != nil {
		l.Log.Warn(msg, zap.Error(err))
	}
}

func (l *Ledger) ItemStarted(ctx context.Context, runID, itemID, label string) {
	l.warn("ledger: item start", l.DB.UpsertItem(ctx, Item{
		RunID: runID, ItemID: itemID, Label: label,
		State: string(runner.StateRunning), UpdatedAt: l.now(),
	}))
}

func (l *Ledger) AttemptFinished(ctx context.Context, a runner.Attempt) {
	row := Attempt{
		RunID:      a.RunID,
		ItemID:     a.ItemID,
		Number:     a.Number,
		Outcome:    a.Outcome.Kind.String(),
		Reason:     a.Outcome.Reason,
		StartedAt:  a.Started,
		FinishedAt: a.Finished,
	}
	if a.Outcome.Err != nil {
		row.Error = a.Outcome.Err.Error()
	}
	l.warn("ledger: attempt", l.DB.AddAttempt(context.WithoutCancel(ctx), row))
}

func (l *Ledger) ItemFinished(ctx context.Context, runID string, r runner.Result) {
	it := Item{
		RunID: runID, ItemID: r.ItemID, Label: r.Label,
		State: string(r.State), Attempts: r.Attempts, Reason: r.Reason,
		UpdatedAt: l.now(),
	}
	if r.Err != nil {
		it.Error = r.Err.Error()
	}
	l.warn("ledger: item finish", l.DB.UpsertItem(context.WithoutCancel(ctx), it))
}
