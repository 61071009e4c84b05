package domain

import (
	"fmt"
	"time"
)

// RunState is the lifecycle state of a run
type RunState string

const (
	RunStateCreated    RunState = "created"
	RunStateInProgress RunState = "in_progress"
	RunStateCompleted  RunState = "completed" // Terminal
)

// RunItemState is the lifecycle state of a single item within a run
type RunItemState string

const (
	RunItemStatePending  RunItemState = "pending"
	RunItemStateAnalyzed RunItemState = "analyzed" // Terminal
	RunItemStateFailed   RunItemState = "failed"   // Terminal
)

// Run is one evaluation pass over a project's documents.
// A run completes even if every item fails; there is no failed terminal
// state for the run itself.
type Run struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	State         RunState   `json:"state"`
	ItemsTotal    int        `json:"items_total"`
	ItemsOK       int        `json:"items_ok"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	TokensIn      int64      `json:"tokens_in"`
	TokensOut     int64      `json:"tokens_out"`
	EstimatedCost float64    `json:"estimated_cost"`
}

// RunItem is one document's unit of work within a run
type RunItem struct {
	ID         string       `json:"id"`
	RunID      string       `json:"run_id"`
	DocumentID string       `json:"document_id"`
	State      RunItemState `json:"state"`
	ErrorMsg   string       `json:"error_msg,omitempty"`
	DurationMS int64        `json:"duration_ms,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// runTransitions enumerates the legal run state transitions
var runTransitions = map[RunState][]RunState{
	RunStateCreated:    {RunStateInProgress, RunStateCompleted},
	RunStateInProgress: {RunStateCompleted},
	RunStateCompleted:  {},
}

// itemTransitions enumerates the legal run item state transitions.
// Both terminal states are final: there is no retry back to pending.
var itemTransitions = map[RunItemState][]RunItemState{
	RunItemStatePending:  {RunItemStateAnalyzed, RunItemStateFailed},
	RunItemStateAnalyzed: {},
	RunItemStateFailed:   {},
}

// Transition moves the run to the target state, enforcing the state machine.
// Transitioning a completed run to completed is a no-op rather than an error
// so that repeated Advance calls stay idempotent.
func (r *Run) Transition(to RunState) error {
	if r.State == to {
		return nil
	}
	for _, allowed := range runTransitions[r.State] {
		if allowed == to {
			r.State = to
			return nil
		}
	}
	return fmt.Errorf("%w: run %s -> %s", ErrInvalidTransition, r.State, to)
}

// Transition moves the item to the target state, recording the error message
// when the target is failed.
func (i *RunItem) Transition(to RunItemState, errMsg string) error {
	for _, allowed := range itemTransitions[i.State] {
		if allowed == to {
			i.State = to
			if to == RunItemStateFailed {
				i.ErrorMsg = errMsg
			}
			return nil
		}
	}
	return fmt.Errorf("%w: item %s -> %s", ErrInvalidTransition, i.State, to)
}

// IsTerminal reports whether the item has reached a terminal state
func (i *RunItem) IsTerminal() bool {
	return i.State == RunItemStateAnalyzed || i.State == RunItemStateFailed
}
