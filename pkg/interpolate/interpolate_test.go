package interpolate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sanketnighot/hookified/pkg/types"
)

func testScope() *Scope {
	tc := &types.TriggerContext{
		Type: types.TriggerWebhook,
		Data: map[string]any{
			"payload": map[string]any{
				"user":   map[string]any{"name": "alice"},
				"amount": float64(42),
				"rate":   1.5,
				"flag":   true,
			},
		},
	}
	s := NewScope("hook-123", "run-456", tc, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.Actions = append(s.Actions, types.ActionExecutionRecord{
		Type:   types.ActionWebhook,
		Status: types.ActionStatusSuccess,
		Output: map[string]any{
			"status_code": float64(200),
			"body":        `{"ok":true}`,
		},
	})
	return s
}

func TestResolveBuiltins(t *testing.T) {
	s := testScope()

	assert.Equal(t, "hook-123", s.Resolve("{hookId}"))
	assert.Equal(t, "run-456", s.Resolve("{runId}"))
	assert.Equal(t, "2026-03-01T12:00:00Z", s.Resolve("{timestamp}"))
}

func TestResolveTriggerPaths(t *testing.T) {
	s := testScope()

	assert.Equal(t, "hello alice", s.Resolve("hello {trigger.payload.user.name}"))
	assert.Equal(t, "42", s.Resolve("{trigger.payload.amount}"))
	assert.Equal(t, "1.5", s.Resolve("{trigger.payload.rate}"))
	assert.Equal(t, "true", s.Resolve("{trigger.payload.flag}"))
}

func TestResolveActionOutputs(t *testing.T) {
	s := testScope()

	assert.Equal(t, "200", s.Resolve("{actions[0].status_code}"))
	assert.Equal(t, "200", s.Resolve("{action0.status_code}"))
	assert.Equal(t, `{"ok":true}`, s.Resolve("{actions[0].body}"))
}

func TestResolveMissingPathsRenderEmpty(t *testing.T) {
	s := testScope()

	assert.Equal(t, "x  y", s.Resolve("x {trigger.payload.nope} y"))
	assert.Equal(t, "", s.Resolve("{actions[5].anything}"))
	assert.Equal(t, "", s.Resolve("{unknownRoot.field}"))
}

func TestResolveMultiplePlaceholders(t *testing.T) {
	s := testScope()

	got := s.Resolve("{hookId}/{runId}: {trigger.payload.user.name} paid {trigger.payload.amount}")
	assert.Equal(t, "hook-123/run-456: alice paid 42", got)
}

func TestResolveUnterminatedBraceLeftVerbatim(t *testing.T) {
	s := testScope()

	assert.Equal(t, "before {trigger.payload", s.Resolve("before {trigger.payload"))
}

func TestResolveMap(t *testing.T) {
	s := testScope()

	out := s.ResolveMap(map[string]string{
		"X-Run":    "{runId}",
		"X-Static": "fixed",
	})
	assert.Equal(t, "run-456", out["X-Run"])
	assert.Equal(t, "fixed", out["X-Static"])

	assert.Nil(t, s.ResolveMap(nil))
}

func TestNilTriggerResolvesEmpty(t *testing.T) {
	s := NewScope("h", "r", nil, time.Now())
	assert.Equal(t, "", s.Resolve("{trigger.payload.x}"))
}
