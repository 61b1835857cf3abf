// Package runner drives a work list with bounded retries. Each item is
// processed at most once per run; a Skip outcome ends the item without
// using a retry, a Fail outcome is retried after a delay.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"receitanet-engine/internal/outcome"
)

type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSuccess   State = "success"
	StateSkipped   State = "skipped"
	StateFailed    State = "failed"
	StateDuplicate State = "duplicate"
	StateAborted   State = "aborted"
)

// Item is one unit of work. An empty ID is replaced by a random one.
type Item[T any] struct {
	ID    string
	Label string
	Value T
}

// Func processes one attempt of an item. attempt starts at 1.
type Func[T any] func(ctx context.Context, item Item[T], attempt int) outcome.Outcome

// Attempt is one call of Func.
type Attempt struct {
	RunID    string
	ItemID   string
	Label    string
	Number   int
	Outcome  outcome.Outcome
	Started  time.Time
	Finished time.Time
}

// Result is the final state of an item.
type Result struct {
	ItemID   string
	Label    string
	State    State
	Attempts int
	Reason   string
	Err      error
}

type Report struct {
	RunID   string
	Results []Result
}

func (r Report) Count(s State) int {
	n := 0
	for _, res := range r.Results {
		if res.State == s {
			n++
		}
	}
	return n
}

func (r Report) Get(itemID string) (Result, bool) {
	for _, res := range r.Results {
		if res.ItemID == itemID {
			return res, true
		}
	}
	return Result{}, false
}

// Recorder observes attempts and final results.
type Recorder interface {
	ItemStarted(ctx context.Context, runID, itemID, label string)
	AttemptFinished(ctx context.Context, a Attempt)
	ItemFinished(ctx context.Context, runID string, r Result)
}

type Options struct {
	RunID      string
	MaxRetries int
	RetryDelay time.Duration
	// Settle is slept after every cleanup.
	Settle time.Duration
	// Cleanup runs after every attempt, however it ended.
	Cleanup  func(ctx context.Context)
	Recorder Recorder
	Sleep    func(ctx context.Context, d time.Duration) error
	Now      func() time.Time
	Logger   *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		MaxRetries: 2,
		RetryDelay: 5 * time.Minute,
		Settle:     5 * time.Second,
	}
}

func (o *Options) normalize() {
	if o.RunID == "" {
		o.RunID = uuid.NewString()
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.Sleep == nil {
		o.Sleep = sleep
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Recorder == nil {
		o.Recorder = Multi()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ForEach processes items in order and reports the state of every one.
func ForEach[T any](ctx context.Context, items []Item[T], fn Func[T], opts Options) Report {
	opts.normalize()
	log := opts.Logger.Named("runner")
	rep := Report{RunID: opts.RunID}
	seen := make(map[string]bool, len(items))

	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if it.Label == "" {
			it.Label = it.ID
		}
		if ctx.Err() != nil {
			rep.Results = append(rep.Results, Result{ItemID: it.ID, Label: it.Label, State: StateAborted, Err: ctx.Err()})
			continue
		}
		if seen[it.ID] {
			log.Warn("duplicate item ignored", zap.String("item", it.ID), zap.String("label", it.Label))
			rep.Results = append(rep.Results, Result{ItemID: it.ID, Label: it.Label, State: StateDuplicate})
			continue
		}
		seen[it.ID] = true

		res := process(ctx, it, fn, &opts, log)
		opts.Recorder.ItemFinished(ctx, opts.RunID, res)
		rep.Results = append(rep.Results, res)
	}

	log.Info("run finished",
		zap.String("run", rep.RunID),
		zap.Int("success", rep.Count(StateSuccess)),
		zap.Int("skipped", rep.Count(StateSkipped)),
		zap.Int("failed", rep.Count(StateFailed)),
		zap.Int("duplicate", rep.Count(StateDuplicate)),
		zap.Int("aborted", rep.Count(StateAborted)))
	return rep
}

func process[T any](ctx context.Context, it Item[T], fn Func[T], opts *Options, log *zap.Logger) Result {
	log = log.With(zap.String("item", it.ID), zap.String("label", it.Label))
	res := Result{ItemID: it.ID, Label: it.Label, State: StateRunning}
	opts.Recorder.ItemStarted(ctx, opts.RunID, it.ID, it.Label)

	for n := 1; ; n++ {
		res.Attempts = n
		started := opts.Now()
		o := attempt(ctx, it, n, fn, opts)
		opts.Recorder.AttemptFinished(ctx, Attempt{
			RunID: opts.RunID, ItemID: it.ID, Label: it.Label, Number: n,
			Outcome: o, Started: started, Finished: opts.Now(),
		})

		switch o.Kind {
		case outcome.KindSuccess:
			log.Info("item done", zap.Int("attempt", n))
			res.State = StateSuccess
			return res
		case outcome.KindSkip:
			log.Info("item skipped", zap.String("reason", o.Reason), zap.Int("attempt", n))
			res.State, res.Reason = StateSkipped, o.Reason
			return res
		}

		res.Err = o.Err
		if ctx.Err() != nil {
			log.Warn("item aborted", zap.Error(o.Err))
			res.State = StateFailed
			return res
		}
		if n > opts.MaxRetries {
			log.Error("item failed, retries exhausted", zap.Int("attempts", n), zap.Error(o.Err))
			res.State = StateFailed
			return res
		}
		log.Warn("attempt failed, retrying",
			zap.Int("attempt", n), zap.Duration("delay", opts.RetryDelay), zap.Error(o.Err))
		if err := opts.Sleep(ctx, opts.RetryDelay); err != nil {
			res.State = StateFailed
			return res
		}
	}
}

func attempt[T any](ctx context.Context, it Item[T], n int, fn Func[T], opts *Options) (o outcome.Outcome) {
	defer func() {
		if opts.Cleanup != nil {
			opts.Cleanup(ctx)
		}
		_ = opts.Sleep(ctx, opts.Settle)
	}()
	defer func() {
		if p := recover(); p != nil {
			o = outcome.Fail(fmt.Errorf("runner: panic in %s: %v", it.Label, p))
		}
	}()
	return fn(ctx, it, n)
}
