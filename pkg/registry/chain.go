package registry

import (
	"context"

	"github.com/sanketnighot/hookified/pkg/interpolate"
	"github.com/sanketnighot/hookified/pkg/types"
)

// HookInvoker fires another hook from within a run (avoids an import cycle
// with the executor package, which owns the pipeline). The target must be
// owned by ownerId.
type HookInvoker interface {
	InvokeChained(ctx context.Context, hookExternalId, parentRunId string, ownerId uint, depth int) (runId string, status types.RunStatus, err error)
}

// ChainExecutor triggers another hook of the same owner. The invoker is
// wired in after construction because the executor engine depends on the
// registry, not the other way around.
type ChainExecutor struct {
	invoker HookInvoker
}

func NewChainExecutor() *ChainExecutor {
	return &ChainExecutor{}
}

// SetInvoker wires the executor engine in. Must be called before any
// CHAIN action executes.
func (e *ChainExecutor) SetInvoker(invoker HookInvoker) {
	e.invoker = invoker
}

func (e *ChainExecutor) Type() types.ActionType { return types.ActionChain }

func (e *ChainExecutor) Validate(cfg types.ActionConfig) ValidationResult {
	c := cfg.Chain
	if c == nil || c.HookId == "" {
		return invalid("chain action requires a hook id")
	}
	return valid()
}

func (e *ChainExecutor) Execute(ctx context.Context, cfg types.ActionConfig, scope *interpolate.Scope) ExecutionResult {
	c := cfg.Chain
	if c == nil {
		return failed("chain action has no configuration")
	}
	if e.invoker == nil {
		return failed("chain executor is not wired to an invoker")
	}

	runId, status, err := e.invoker.InvokeChained(ctx, scope.Resolve(c.HookId), scope.RunId, scope.OwnerId, scope.ChainDepth())
	if err != nil {
		return failed("chained hook failed: %v", err)
	}

	output := map[string]any{
		"run_id":  runId,
		"status":  string(status),
		"hook_id": c.HookId,
	}
	if status != types.RunStatusSuccess {
		return ExecutionResult{
			Status: types.ActionStatusFailed,
			Output: output,
			Error:  "chained run finished with status " + string(status),
		}
	}
	return succeeded(output)
}

func (e *ChainExecutor) Schema() map[string]any {
	return map[string]any{
		"type": "CHAIN",
		"fields": []map[string]any{
			{"name": "hook_id", "type": "string", "required": true},
		},
	}
}
