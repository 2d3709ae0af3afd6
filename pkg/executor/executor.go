// Package executor runs one firing of one hook end-to-end: builds the
// per-action inputs, invokes each action's executor in order, records
// per-step outcomes, and persists exactly one terminal HookRun per firing.
//
// Firings of the same hook are never serialized here. Two concurrent
// firings produce two independent runs; duplicate prevention, if needed,
// belongs to the scheduler, and idempotency to the action layer.
package executor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sanketnighot/hookified/pkg/interpolate"
	"github.com/sanketnighot/hookified/pkg/registry"
	"github.com/sanketnighot/hookified/pkg/repository"
	"github.com/sanketnighot/hookified/pkg/types"
)

const (
	defaultActionTimeout = 30 * time.Second
	defaultMaxChainDepth = 3
)

// Engine orchestrates the ordered action pipeline for hook firings.
type Engine struct {
	backend       repository.BackendRepository
	registry      *registry.Registry
	actionTimeout time.Duration
	maxChainDepth int
	now           func() time.Time
}

func NewEngine(backend repository.BackendRepository, reg *registry.Registry, cfg types.ExecutorConfig) *Engine {
	timeout := cfg.ActionTimeout
	if timeout <= 0 {
		timeout = defaultActionTimeout
	}
	depth := cfg.MaxChainDepth
	if depth <= 0 {
		depth = defaultMaxChainDepth
	}
	return &Engine{
		backend:       backend,
		registry:      reg,
		actionTimeout: timeout,
		maxChainDepth: depth,
		now:           time.Now,
	}
}

// Fire executes one firing of hook with the given trigger context.
//
// Automated firings (anything but MANUAL) require the hook to be active
// and not in ERROR; they produce no run at all otherwise. Manual firings
// bypass that gate: a human explicitly retrying is never blocked by the
// automated-trigger gate.
//
// The returned run may have Status FAILED without err being set; err is
// reserved for gate rejections and audit-durability failures.
func (e *Engine) Fire(ctx context.Context, hook *types.Hook, tc *types.TriggerContext) (*types.HookRun, error) {
	return e.fire(ctx, hook, tc, "", 0)
}

func (e *Engine) fire(ctx context.Context, hook *types.Hook, tc *types.TriggerContext, parentRunId string, depth int) (*types.HookRun, error) {
	if tc.Type != types.TriggerManual && !hook.CanAutoFire() {
		return nil, &types.ErrHookInactive{ExternalId: hook.ExternalId, Status: hook.Status}
	}

	run := &types.HookRun{
		ExternalId:  uuid.New().String(),
		HookId:      hook.Id,
		Status:      types.RunStatusPending,
		TriggeredAt: e.now(),
		Meta: types.RunMeta{
			TriggerType: tc.Type,
			ParentRunId: parentRunId,
			Actions:     []types.ActionExecutionRecord{},
		},
	}

	// PENDING row first: a crash mid-pipeline still leaves an auditable,
	// if incomplete, record.
	if _, err := e.backend.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	// An automated context type that doesn't match the hook's trigger type
	// means the firing was misrouted; that is a configuration error, not
	// something to execute through. Manual contexts are exempt: a human may
	// fire a hook of any trigger type by hand.
	if tc.Type != types.TriggerManual && tc.Type != hook.TriggerType {
		cfgErr := &types.ErrInvalidTriggerConfig{
			Detail: fmt.Sprintf("trigger context type %s does not match hook trigger type %s", tc.Type, hook.TriggerType),
		}
		return e.complete(ctx, hook, run, types.RunStatusFailed, cfgErr.Error())
	}

	scope := interpolate.NewScope(hook.ExternalId, run.ExternalId, tc, run.TriggeredAt)
	scope.OwnerId = hook.UserId
	scope.Depth = depth

	actions := make([]types.ActionBlock, len(hook.Actions))
	copy(actions, hook.Actions)
	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Order < actions[j].Order })

	var firstErr string
	for _, action := range actions {
		record := e.executeAction(ctx, action, scope)
		run.Meta.Actions = append(run.Meta.Actions, record)
		if record.Status != types.ActionStatusSuccess {
			// Fail fast: a later action templated against this one's
			// output would operate on undefined data.
			firstErr = record.Error
			break
		}
		scope.Actions = append(scope.Actions, record)
	}

	if firstErr != "" {
		return e.complete(ctx, hook, run, types.RunStatusFailed, firstErr)
	}
	return e.complete(ctx, hook, run, types.RunStatusSuccess, "")
}

func (e *Engine) executeAction(ctx context.Context, action types.ActionBlock, scope *interpolate.Scope) types.ActionExecutionRecord {
	record := types.ActionExecutionRecord{
		ActionId: action.Id,
		Type:     action.Type,
	}

	exec, err := e.registry.Resolve(action.Type)
	if err != nil {
		record.Status = types.ActionStatusFailed
		record.Error = err.Error()
		return record
	}

	actionCtx, cancel := context.WithTimeout(ctx, e.actionTimeout)
	defer cancel()

	start := e.now()
	result := exec.Execute(actionCtx, action.Config, scope)
	record.DurationMs = e.now().Sub(start).Milliseconds()
	record.Status = result.Status
	record.Output = result.Output
	record.Error = result.Error
	return record
}

// complete persists the terminal run state and stamps the hook. A failed
// terminal write propagates to the caller: audit-log durability failures
// should be visible, not swallowed.
func (e *Engine) complete(ctx context.Context, hook *types.Hook, run *types.HookRun, status types.RunStatus, errMsg string) (*types.HookRun, error) {
	completedAt := e.now()
	run.Status = status
	run.CompletedAt = &completedAt
	run.Error = errMsg

	if err := e.backend.CompleteRun(ctx, run); err != nil {
		return run, fmt.Errorf("persist terminal run state: %w", err)
	}
	if err := e.backend.TouchHookExecuted(ctx, hook.Id, completedAt); err != nil {
		log.Warn().Err(err).Str("hook", hook.ExternalId).Msg("failed to stamp hook execution time")
	}

	log.Info().
		Str("hook", hook.ExternalId).
		Str("run", run.ExternalId).
		Str("status", string(status)).
		Int("actions", len(run.Meta.Actions)).
		Msg("hook run finished")
	return run, nil
}

// InvokeChained fires another hook from within a run, implementing the
// CHAIN action. A chained target must belong to the same owner as the
// invoking hook. Chained firings count as automated: the active/ERROR
// gate is checked here explicitly, regardless of the target's trigger
// type, and invocations are depth-limited to break cycles.
func (e *Engine) InvokeChained(ctx context.Context, hookExternalId, parentRunId string, ownerId uint, depth int) (string, types.RunStatus, error) {
	if depth+1 > e.maxChainDepth {
		return "", "", fmt.Errorf("chain depth limit (%d) exceeded", e.maxChainDepth)
	}

	hook, err := e.backend.GetHook(ctx, hookExternalId)
	if err != nil {
		return "", "", err
	}
	if hook.UserId != ownerId {
		return "", "", &types.ErrUnauthorized{Reason: "chained hook belongs to another user"}
	}
	if !hook.CanAutoFire() {
		return "", "", &types.ErrHookInactive{ExternalId: hook.ExternalId, Status: hook.Status}
	}

	tc := &types.TriggerContext{
		Type: hook.TriggerType,
		Data: map[string]any{
			"chained_from": parentRunId,
		},
		Timestamp: e.now(),
	}

	run, err := e.fire(ctx, hook, tc, parentRunId, depth+1)
	if err != nil {
		return "", "", err
	}
	return run.ExternalId, run.Status, nil
}

var _ registry.HookInvoker = (*Engine)(nil)
