package events

import (
	"context"

	"receitanet-engine/internal/runner"
)

type itemData struct {
	Item     string `json:"item"`
	Label    string `json:"label,omitempty"`
	State    string `json:"state,omitempty"`
	Attempt  int    `json:"attempt,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

// Publisher forwards runner progress to a hub.
type Publisher struct {
	Hub *Hub
}

func (p Publisher) ItemStarted(_ context.Context, runID, itemID, label string) {
	p.Hub.Publish(MakeEvent(runID, TypeItemStarted, 1, itemData{Item: itemID, Label: label}))
}

func (p Publisher) AttemptFinished(_ context.Context, a runner.Attempt) {
	d := itemData{
		Item:    a.ItemID,
		Label:   a.Label,
		Attempt: a.Number,
		Outcome: a.Outcome.Kind.String(),
		Reason:  a.Outcome.Reason,
	}
	if a.Outcome.Err != nil {
		d.Error = a.Outcome.Err.Error()
	}
	p.Hub.Publish(MakeEvent(a.RunID, TypeAttemptFinished, 1, d))
}

func (p Publisher) ItemFinished(_ context.Context, runID string, r runner.Result) {
	d := itemData{
		Item:     r.ItemID,
		Label:    r.Label,
		State:    string(r.State),
		Reason:   r.Reason,
		Attempts: r.Attempts,
	}
	if r.Err != nil {
		d.Error = r.Err.Error()
	}
	p.Hub.Publish(MakeEvent(runID, TypeItemFinished, 1, d))
}
