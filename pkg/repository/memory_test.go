package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketnighot/hookified/pkg/types"
)

func TestCompleteRunIsTerminalOnce(t *testing.T) {
	m := NewMemoryBackend()
	ctx := context.Background()

	run := &types.HookRun{
		ExternalId:  uuid.New().String(),
		HookId:      1,
		Status:      types.RunStatusPending,
		TriggeredAt: time.Now(),
	}
	_, err := m.CreateRun(ctx, run)
	require.NoError(t, err)

	run.Status = types.RunStatusSuccess
	require.NoError(t, m.CompleteRun(ctx, run))

	// A second terminal write is rejected: the run already left PENDING.
	run.Status = types.RunStatusFailed
	err = m.CompleteRun(ctx, run)
	assert.Error(t, err)

	stored, err := m.GetRun(ctx, run.ExternalId)
	require.NoError(t, err)
	assert.Equal(t, types.RunStatusSuccess, stored.Status)
}

func TestDeleteHookCascadesRuns(t *testing.T) {
	m := NewMemoryBackend()
	ctx := context.Background()

	hook, err := m.CreateHook(ctx, &types.Hook{UserId: 1, TriggerType: types.TriggerManual})
	require.NoError(t, err)

	run := &types.HookRun{ExternalId: uuid.New().String(), HookId: hook.Id, Status: types.RunStatusPending, TriggeredAt: time.Now()}
	_, err = m.CreateRun(ctx, run)
	require.NoError(t, err)

	require.NoError(t, m.DeleteHook(ctx, hook.ExternalId))

	_, err = m.GetRun(ctx, run.ExternalId)
	assert.True(t, types.IsNotFound(err))
}

func TestListRunsNewestFirstWithPagination(t *testing.T) {
	m := NewMemoryBackend()
	ctx := context.Background()

	hook, err := m.CreateHook(ctx, &types.Hook{UserId: 1, TriggerType: types.TriggerManual})
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err = m.CreateRun(ctx, &types.HookRun{
			ExternalId:  uuid.New().String(),
			HookId:      hook.Id,
			Status:      types.RunStatusPending,
			TriggeredAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	runs, err := m.ListRuns(ctx, hook.Id, 2, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].TriggeredAt.After(runs[1].TriggeredAt))
	assert.Equal(t, base.Add(4*time.Minute), runs[0].TriggeredAt)

	page2, err := m.ListRuns(ctx, hook.Id, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, base.Add(2*time.Minute), page2[0].TriggeredAt)

	empty, err := m.ListRuns(ctx, hook.Id, 10, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
