package runner

import "context"

type multi []Recorder

// Multi fans every call out to recs in order.
func Multi(recs ...Recorder) Recorder {
	var m multi
	for _, r := range recs {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m multi) ItemStarted(ctx context.Context, runID, itemID, label string) {
	for _, r := range m {
		r.ItemStarted(ctx, runID, itemID, label)
	}
}

func (m multi) AttemptFinished(ctx context.Context, a Attempt) {
	for _, r := range m {
		r.AttemptFinished(ctx, a)
	}
}

func (m multi) ItemFinished(ctx context.Context, runID string, res Result) {
	for _, r := range m {
		r.ItemFinished(ctx, runID, res)
	}
}
