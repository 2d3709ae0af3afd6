package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketnighot/hookified/pkg/interpolate"
	"github.com/sanketnighot/hookified/pkg/registry"
	"github.com/sanketnighot/hookified/pkg/repository"
	"github.com/sanketnighot/hookified/pkg/types"
)

// countingExecutor records how many times it ran.
type countingExecutor struct {
	mu    sync.Mutex
	count int
	done  chan struct{}
}

func (c *countingExecutor) Type() types.ActionType { return types.ActionWebhook }

func (c *countingExecutor) Validate(types.ActionConfig) registry.ValidationResult {
	return registry.ValidationResult{IsValid: true}
}

func (c *countingExecutor) Execute(context.Context, types.ActionConfig, *interpolate.Scope) registry.ExecutionResult {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
	select {
	case c.done <- struct{}{}:
	default:
	}
	return registry.ExecutionResult{Status: types.ActionStatusSuccess}
}

func (c *countingExecutor) Schema() map[string]any { return map[string]any{} }

func TestPoolExecutesEnqueuedFirings(t *testing.T) {
	backend := repository.NewMemoryBackend()
	counting := &countingExecutor{done: make(chan struct{}, 1)}
	engine := NewEngine(backend, registry.New(counting), types.ExecutorConfig{})
	pool := NewPool(engine, types.ExecutorConfig{Workers: 2, QueueSize: 8})

	hook, err := backend.CreateHook(context.Background(), &types.Hook{
		UserId:      1,
		TriggerType: types.TriggerWebhook,
		Status:      types.HookStatusActive,
		IsActive:    true,
		Actions: []types.ActionBlock{{
			Id: "a", Type: types.ActionWebhook,
			Config: types.ActionConfig{Webhook: &types.WebhookActionConfig{URL: "https://example.com"}},
		}},
	})
	require.NoError(t, err)

	pool.Start(context.Background())
	defer pool.Stop()

	ok := pool.Enqueue(Job{
		Hook:    hook,
		Context: &types.TriggerContext{Type: types.TriggerWebhook, Data: map[string]any{}, Timestamp: time.Now()},
	})
	require.True(t, ok)

	select {
	case <-counting.done:
	case <-time.After(2 * time.Second):
		t.Fatal("firing was never executed")
	}
}

func TestPoolEnqueueRejectsWhenFull(t *testing.T) {
	backend := repository.NewMemoryBackend()
	engine := NewEngine(backend, registry.New(), types.ExecutorConfig{})
	// Never started: the queue only drains if workers run.
	pool := NewPool(engine, types.ExecutorConfig{Workers: 1, QueueSize: 1})

	hook := &types.Hook{ExternalId: "h", TriggerType: types.TriggerWebhook, IsActive: true}
	tc := &types.TriggerContext{Type: types.TriggerWebhook}

	assert.True(t, pool.Enqueue(Job{Hook: hook, Context: tc}))
	assert.False(t, pool.Enqueue(Job{Hook: hook, Context: tc}))
}
