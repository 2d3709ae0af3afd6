// Package registry maps trigger and action type tags to their validators,
// executors, and UI-facing schema descriptors. The set is closed and
// statically registered at process start; "plugin" means a registered
// variant, not runtime-loaded code.
package registry

import (
	"context"
	"fmt"

	"github.com/sanketnighot/hookified/pkg/interpolate"
	"github.com/sanketnighot/hookified/pkg/types"
)

// ValidationResult is the outcome of config validation. Validation is
// pure: calling it twice with the same input yields the same result.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

func valid() ValidationResult {
	return ValidationResult{IsValid: true}
}

func invalid(errs ...string) ValidationResult {
	return ValidationResult{IsValid: false, Errors: errs}
}

// ExecutionResult is one action's outcome. Expected failure modes (HTTP
// non-2xx, rate limits, timeouts) come back as FAILED results, never as
// returned errors.
type ExecutionResult struct {
	Status types.ActionStatus
	Output map[string]any
	Error  string
}

func failed(format string, args ...any) ExecutionResult {
	return ExecutionResult{Status: types.ActionStatusFailed, Error: fmt.Sprintf(format, args...)}
}

func succeeded(output map[string]any) ExecutionResult {
	return ExecutionResult{Status: types.ActionStatusSuccess, Output: output}
}

// Executor is the capability bundle for one action kind.
type Executor interface {
	Type() types.ActionType

	// Validate checks an action config. Unknown extra fields are tolerated
	// (forward-compatible); missing required fields are hard errors.
	Validate(cfg types.ActionConfig) ValidationResult

	// Execute runs the action with templated fields resolved against scope.
	Execute(ctx context.Context, cfg types.ActionConfig, scope *interpolate.Scope) ExecutionResult

	// Schema returns the UI-facing config descriptor. The execution core
	// never reads it, but the dashboard wizard does.
	Schema() map[string]any
}

// Registry resolves action types to executors and validates trigger
// configs. Populated once at startup from the fixed built-in set.
type Registry struct {
	executors map[types.ActionType]Executor
}

func New(executors ...Executor) *Registry {
	r := &Registry{executors: make(map[types.ActionType]Executor, len(executors))}
	for _, e := range executors {
		r.executors[e.Type()] = e
	}
	return r
}

// Resolve returns the executor for an action type.
func (r *Registry) Resolve(t types.ActionType) (Executor, error) {
	e, ok := r.executors[t]
	if !ok {
		return nil, fmt.Errorf("unknown action type: %s", t)
	}
	return e, nil
}

// ValidateAction validates one action block's type and config.
func (r *Registry) ValidateAction(block types.ActionBlock) ValidationResult {
	if !block.Type.Valid() {
		return invalid(fmt.Sprintf("unknown action type: %s", block.Type))
	}
	e, err := r.Resolve(block.Type)
	if err != nil {
		return invalid(err.Error())
	}
	return e.Validate(block.Config)
}

// ValidateTrigger validates a trigger type and its config variant. The
// switch is exhaustive over the closed TriggerType set; an unknown tag is
// an error, never a silent default.
func (r *Registry) ValidateTrigger(t types.TriggerType, cfg types.TriggerConfig) ValidationResult {
	switch t {
	case types.TriggerCron:
		if cfg.Cron == nil || cfg.Cron.Expression == "" {
			return invalid("cron trigger requires an expression")
		}
		return valid()
	case types.TriggerOnchain:
		if cfg.Onchain == nil {
			return invalid("onchain trigger requires contract configuration")
		}
		var errs []string
		if cfg.Onchain.ContractAddress == "" {
			errs = append(errs, "onchain trigger requires a contract address")
		}
		if cfg.Onchain.ChainId == 0 {
			errs = append(errs, "onchain trigger requires a chain id")
		}
		if len(errs) > 0 {
			return invalid(errs...)
		}
		return valid()
	case types.TriggerWebhook:
		return valid() // secret is optional
	case types.TriggerManual:
		return valid()
	default:
		return invalid(fmt.Sprintf("unknown trigger type: %s", t))
	}
}

// Schemas returns the UI descriptors for every registered action kind.
func (r *Registry) Schemas() map[types.ActionType]map[string]any {
	out := make(map[types.ActionType]map[string]any, len(r.executors))
	for t, e := range r.executors {
		out[t] = e.Schema()
	}
	return out
}
