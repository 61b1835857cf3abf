package httpapi

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"receitanet-engine/internal/runner"
)

// Tracker keeps a Status current from runner progress.
type Tracker struct {
	mu  sync.Mutex
	val *atomic.Value
	now func() time.Time
}

func NewTracker(val *atomic.Value) *Tracker {
	return &Tracker{val: val, now: time.Now}
}

func (t *Tracker) update(fn func(s *Status)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, _ := t.val.Load().(Status)
	fn(&s)
	s.UpdatedAt = t.now().UTC()
	t.val.Store(s)
}

// Begin marks a run of total items as started.
func (t *Tracker) Begin(runID string, total int) {
	t.update(func(s *Status) {
		*s = Status{RunID: runID, Running: true, StartedAt: t.now().UTC(), Total: total}
	})
}

// End marks the run finished; aborted records a failsafe or user stop.
func (t *Tracker) End(aborted bool) {
	t.update(func(s *Status) {
		s.Running = false
		s.Aborted = aborted
		s.Item, s.Label, s.Attempt = "", "", 0
	})
}

func (t *Tracker) ItemStarted(_ context.Context, runID, itemID, label string) {
	t.update(func(s *Status) {
		s.RunID, s.Item, s.Label, s.Attempt = runID, itemID, label, 1
	})
}

func (t *Tracker) AttemptFinished(_ context.Context, a runner.Attempt) {
	t.update(func(s *Status) {
		s.Attempt = a.Number + 1
		if a.Outcome.Err != nil {
			s.LastError = a.Outcome.Err.Error()
		}
	})
}

func (t *Tracker) ItemFinished(_ context.Context, _ string, _ runner.Result) {
	t.update(func(s *Status) {
		s.Done++
		s.Item, s.Label, s.Attempt = "", "", 0
	})
}
