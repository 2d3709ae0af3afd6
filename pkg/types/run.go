package types

import "time"

// RunStatus is the terminal-state model for a hook run. A run is created
// PENDING and moves exactly once to SUCCESS or FAILED.
type RunStatus string

const (
	RunStatusPending RunStatus = "PENDING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
)

// ActionStatus is the outcome of one action within a run.
type ActionStatus string

const (
	ActionStatusSuccess ActionStatus = "SUCCESS"
	ActionStatusFailed  ActionStatus = "FAILED"
)

// ActionExecutionRecord is the per-action outcome embedded in RunMeta.
// Owned exclusively by the run that produced it.
type ActionExecutionRecord struct {
	ActionId   string         `json:"action_id"`
	Type       ActionType     `json:"type"`
	Status     ActionStatus   `json:"status"`
	DurationMs int64          `json:"duration_ms"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// RunMeta is the structured detail stored on a run: enough for the metrics
// UI to compute success rate and latency without a separate table.
type RunMeta struct {
	Actions     []ActionExecutionRecord `json:"actions"`
	TriggerType TriggerType             `json:"trigger_type,omitempty"`
	ParentRunId string                  `json:"parent_run_id,omitempty"` // set for CHAIN-invoked runs
}

// HookRun is one audit record per firing attempt. Append-only: the row is
// inserted PENDING before any action executes and updated exactly once to a
// terminal state.
type HookRun struct {
	Id          uint       `json:"id" db:"id"`
	ExternalId  string     `json:"external_id" db:"external_id"`
	HookId      uint       `json:"hook_id" db:"hook_id"`
	Status      RunStatus  `json:"status" db:"status"`
	TriggeredAt time.Time  `json:"triggered_at" db:"triggered_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Error       string     `json:"error,omitempty" db:"error"`
	Meta        RunMeta    `json:"meta" db:"meta"`
}
