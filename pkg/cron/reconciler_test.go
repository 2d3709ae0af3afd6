package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketnighot/hookified/pkg/types"
)

// fakeScheduler records calls instead of touching pg_cron.
type fakeScheduler struct {
	scheduled   map[string]string // name -> schedule
	active      map[string]bool
	unscheduled []string
	failAll     error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: map[string]string{}, active: map[string]bool{}}
}

func (f *fakeScheduler) ScheduleJob(_ context.Context, name, schedule, command string) error {
	if f.failAll != nil {
		return f.failAll
	}
	f.scheduled[name] = schedule
	f.active[name] = true
	return nil
}

func (f *fakeScheduler) SetJobActive(_ context.Context, name string, active bool) error {
	if f.failAll != nil {
		return f.failAll
	}
	f.active[name] = active
	return nil
}

func (f *fakeScheduler) UnscheduleJob(_ context.Context, name string) error {
	if f.failAll != nil {
		return f.failAll
	}
	delete(f.scheduled, name)
	f.unscheduled = append(f.unscheduled, name)
	return nil
}

func (f *fakeScheduler) ListJobs(_ context.Context, prefix string) ([]Job, error) {
	var out []Job
	for name, schedule := range f.scheduled {
		out = append(out, Job{Name: name, Schedule: schedule, Active: f.active[name]})
	}
	return out, nil
}

func testReconciler(sched SchedulerClient) *Reconciler {
	return NewReconciler(sched, types.CronConfig{Secret: "topsecret"}, "https://gw.example.com")
}

func cronHook(externalId, expression string) *types.Hook {
	return &types.Hook{
		ExternalId:  externalId,
		TriggerType: types.TriggerCron,
		TriggerConfig: types.TriggerConfig{
			Cron: &types.CronTriggerConfig{Expression: expression},
		},
	}
}

func TestJobNameIsDeterministic(t *testing.T) {
	r := testReconciler(newFakeScheduler())
	assert.Equal(t, "hookified-cron-abc", r.JobName("abc"))
	assert.Equal(t, r.JobName("abc"), r.JobName("abc"))
}

func TestValidateExpression(t *testing.T) {
	r := testReconciler(newFakeScheduler())

	assert.NoError(t, r.ValidateExpression("0 9 * * *", ""))
	assert.NoError(t, r.ValidateExpression("*/5 * * * *", "America/New_York"))

	assert.Error(t, r.ValidateExpression("", ""))
	assert.Error(t, r.ValidateExpression("not a cron", ""))
	assert.Error(t, r.ValidateExpression("0 9 * * *", "Mars/Olympus_Mons"))
	// 6-field (seconds) syntax is not accepted.
	assert.Error(t, r.ValidateExpression("0 0 9 * * *", ""))
}

func TestIsDue(t *testing.T) {
	r := testReconciler(newFakeScheduler())
	created := time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	// Last ran yesterday; the 09:00 slot has passed.
	last := time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)
	due, err := r.IsDue("0 9 * * *", "UTC", &last, created, now)
	require.NoError(t, err)
	assert.True(t, due)

	// Already ran today at 09:00; next slot is tomorrow.
	last = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	due, err = r.IsDue("0 9 * * *", "UTC", &last, created, now)
	require.NoError(t, err)
	assert.False(t, due)

	// Never ran: due once the first occurrence after creation passes.
	due, err = r.IsDue("0 9 * * *", "UTC", nil, created, now)
	require.NoError(t, err)
	assert.True(t, due)

	// Never ran, created this morning: not due before the next 09:00.
	createdToday := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	earlyNow := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	due, err = r.IsDue("0 9 * * *", "UTC", nil, createdToday, earlyNow)
	require.NoError(t, err)
	assert.False(t, due)

	_, err = r.IsDue("garbage", "UTC", nil, created, now)
	assert.Error(t, err)
}

func TestRegisterCreatesJobWithExecuteCommand(t *testing.T) {
	sched := newFakeScheduler()
	r := testReconciler(sched)

	hook := cronHook("hook-1", "0 9 * * *")
	require.NoError(t, r.Register(context.Background(), hook))

	assert.Equal(t, "0 9 * * *", sched.scheduled["hookified-cron-hook-1"])

	cmd := r.executeCommand("hook-1")
	assert.Contains(t, cmd, "net.http_post")
	assert.Contains(t, cmd, "https://gw.example.com/api/v1/cron/execute/hook-1")
	assert.Contains(t, cmd, "x-cron-secret")
	assert.Contains(t, cmd, "topsecret")
}

func TestRegisterRejectsInvalidExpression(t *testing.T) {
	sched := newFakeScheduler()
	r := testReconciler(sched)

	err := r.Register(context.Background(), cronHook("hook-1", "every day at nine"))
	require.Error(t, err)
	assert.Empty(t, sched.scheduled)
}

func TestPauseResumeRemove(t *testing.T) {
	sched := newFakeScheduler()
	r := testReconciler(sched)
	hook := cronHook("hook-1", "0 9 * * *")
	require.NoError(t, r.Register(context.Background(), hook))

	require.NoError(t, r.Pause(context.Background(), hook))
	assert.False(t, sched.active["hookified-cron-hook-1"])

	require.NoError(t, r.Resume(context.Background(), hook))
	assert.True(t, sched.active["hookified-cron-hook-1"])

	require.NoError(t, r.Remove(context.Background(), hook))
	assert.Equal(t, []string{"hookified-cron-hook-1"}, sched.unscheduled)
}
