package hooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketnighot/hookified/pkg/cron"
	"github.com/sanketnighot/hookified/pkg/executor"
	"github.com/sanketnighot/hookified/pkg/onchain"
	"github.com/sanketnighot/hookified/pkg/registry"
	"github.com/sanketnighot/hookified/pkg/repository"
	"github.com/sanketnighot/hookified/pkg/types"
)

type fakeScheduler struct {
	scheduled map[string]string
	active    map[string]bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: map[string]string{}, active: map[string]bool{}}
}

func (f *fakeScheduler) ScheduleJob(_ context.Context, name, schedule, _ string) error {
	f.scheduled[name] = schedule
	f.active[name] = true
	return nil
}

func (f *fakeScheduler) SetJobActive(_ context.Context, name string, active bool) error {
	f.active[name] = active
	return nil
}

func (f *fakeScheduler) UnscheduleJob(_ context.Context, name string) error {
	delete(f.scheduled, name)
	return nil
}

func (f *fakeScheduler) ListJobs(context.Context, string) ([]cron.Job, error) { return nil, nil }

type fakeProvider struct {
	nextId     string
	createFail error
	deleted    []string
}

func (f *fakeProvider) CreateWebhook(context.Context, *types.OnchainTriggerConfig, string) (string, error) {
	if f.createFail != nil {
		return "", f.createFail
	}
	return f.nextId, nil
}

func (f *fakeProvider) DeleteWebhook(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fixture struct {
	service  *Service
	backend  *repository.MemoryBackend
	sched    *fakeScheduler
	provider *fakeProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := repository.NewMemoryBackend()
	reg := registry.New(
		registry.NewTelegramExecutor(types.TelegramConfig{BotToken: "t"}, time.Second),
		registry.NewWebhookExecutor(time.Second),
		registry.NewChainExecutor(),
	)
	sched := newFakeScheduler()
	provider := &fakeProvider{nextId: "sub_1"}

	pool := executor.NewPool(executor.NewEngine(backend, reg, types.ExecutorConfig{}), types.ExecutorConfig{})
	onchainEngine := onchain.NewEngine(provider, pool, nil, types.OnchainConfig{}, "https://gw.example.com")

	return &fixture{
		service: &Service{
			Backend:  backend,
			Registry: reg,
			Cron:     cron.NewReconciler(sched, types.CronConfig{Secret: "s"}, "https://gw.example.com"),
			Onchain:  onchainEngine,
		},
		backend:  backend,
		sched:    sched,
		provider: provider,
	}
}

func telegramAction() types.ActionBlock {
	return types.ActionBlock{
		Type:   types.ActionTelegram,
		Config: types.ActionConfig{Telegram: &types.TelegramActionConfig{ChatId: "1", Message: "hi"}},
	}
}

func TestCreateManualHook(t *testing.T) {
	f := newFixture(t)

	hook, err := f.service.Create(context.Background(), CreateParams{
		UserId:      1,
		Name:        "notify me",
		TriggerType: types.TriggerManual,
		Actions:     []types.ActionBlock{telegramAction(), telegramAction()},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, hook.ExternalId)
	assert.Equal(t, types.HookStatusActive, hook.Status)
	assert.True(t, hook.IsActive)

	// Ids assigned, dense ascending order.
	assert.NotEmpty(t, hook.Actions[0].Id)
	assert.Equal(t, 0, hook.Actions[0].Order)
	assert.Equal(t, 1, hook.Actions[1].Order)
}

func TestCreateCronHookRegistersJob(t *testing.T) {
	f := newFixture(t)

	hook, err := f.service.Create(context.Background(), CreateParams{
		UserId:        1,
		Name:          "daily",
		TriggerType:   types.TriggerCron,
		TriggerConfig: types.TriggerConfig{Cron: &types.CronTriggerConfig{Expression: "0 9 * * *"}},
		Actions:       []types.ActionBlock{telegramAction()},
	})
	require.NoError(t, err)

	assert.Contains(t, f.sched.scheduled, "hookified-cron-"+hook.ExternalId)
}

func TestCreateCronHookRejectsBadExpressionBeforePersist(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), CreateParams{
		UserId:        1,
		Name:          "broken",
		TriggerType:   types.TriggerCron,
		TriggerConfig: types.TriggerConfig{Cron: &types.CronTriggerConfig{Expression: "whenever"}},
		Actions:       []types.ActionBlock{telegramAction()},
	})
	require.Error(t, err)

	list, err := f.backend.ListHooks(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.sched.scheduled)
}

func TestCreateOnchainHookStoresSubscriptionId(t *testing.T) {
	f := newFixture(t)

	hook, err := f.service.Create(context.Background(), CreateParams{
		UserId:      1,
		Name:        "transfers",
		TriggerType: types.TriggerOnchain,
		TriggerConfig: types.TriggerConfig{
			Onchain: &types.OnchainTriggerConfig{ContractAddress: "0xabc", ChainId: 1},
		},
		Actions: []types.ActionBlock{telegramAction()},
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_1", hook.SubscriptionId)

	stored, err := f.backend.GetHook(context.Background(), hook.ExternalId)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", stored.SubscriptionId)
}

func TestCreateOnchainHookRollsBackOnRegistrationFailure(t *testing.T) {
	f := newFixture(t)
	f.provider.createFail = errors.New("provider down")

	_, err := f.service.Create(context.Background(), CreateParams{
		UserId:      1,
		Name:        "transfers",
		TriggerType: types.TriggerOnchain,
		TriggerConfig: types.TriggerConfig{
			Onchain: &types.OnchainTriggerConfig{ContractAddress: "0xabc", ChainId: 1},
		},
		Actions: []types.ActionBlock{telegramAction()},
	})
	require.Error(t, err)

	var regErr *types.ErrWebhookRegistration
	assert.ErrorAs(t, err, &regErr)

	// No hook row survives the failed registration.
	list, err := f.backend.ListHooks(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateRejectsInvalidAction(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), CreateParams{
		UserId:      1,
		Name:        "bad action",
		TriggerType: types.TriggerManual,
		Actions: []types.ActionBlock{{
			Type:   types.ActionTelegram,
			Config: types.ActionConfig{Telegram: &types.TelegramActionConfig{}},
		}},
	})
	assert.Error(t, err)
}

func TestGetEnforcesOwnership(t *testing.T) {
	f := newFixture(t)
	hook, err := f.service.Create(context.Background(), CreateParams{
		UserId:      1,
		Name:        "mine",
		TriggerType: types.TriggerManual,
		Actions:     []types.ActionBlock{telegramAction()},
	})
	require.NoError(t, err)

	_, err = f.service.Get(context.Background(), hook.ExternalId, 1)
	assert.NoError(t, err)

	_, err = f.service.Get(context.Background(), hook.ExternalId, 2)
	var unauthorized *types.ErrUnauthorized
	assert.ErrorAs(t, err, &unauthorized)
}

func TestToggleCronHookPausesAndResumesJob(t *testing.T) {
	f := newFixture(t)
	hook, err := f.service.Create(context.Background(), CreateParams{
		UserId:        1,
		Name:          "daily",
		TriggerType:   types.TriggerCron,
		TriggerConfig: types.TriggerConfig{Cron: &types.CronTriggerConfig{Expression: "0 9 * * *"}},
		Actions:       []types.ActionBlock{telegramAction()},
	})
	require.NoError(t, err)
	jobName := "hookified-cron-" + hook.ExternalId

	paused, err := f.service.Toggle(context.Background(), hook.ExternalId, 1, false)
	require.NoError(t, err)
	assert.False(t, paused.IsActive)
	assert.Equal(t, types.HookStatusPaused, paused.Status)
	assert.False(t, f.sched.active[jobName])

	resumed, err := f.service.Toggle(context.Background(), hook.ExternalId, 1, true)
	require.NoError(t, err)
	assert.True(t, resumed.IsActive)
	assert.Equal(t, types.HookStatusActive, resumed.Status)
	assert.True(t, f.sched.active[jobName])
}

func TestToggleOffErrorHookKeepsErrorStatus(t *testing.T) {
	f := newFixture(t)
	hook, err := f.service.Create(context.Background(), CreateParams{
		UserId:      1,
		Name:        "broken",
		TriggerType: types.TriggerManual,
		Actions:     []types.ActionBlock{telegramAction()},
	})
	require.NoError(t, err)

	f.service.MarkError(context.Background(), hook)

	toggled, err := f.service.Toggle(context.Background(), hook.ExternalId, 1, false)
	require.NoError(t, err)
	assert.Equal(t, types.HookStatusError, toggled.Status)

	// Explicit re-activation clears ERROR.
	reactivated, err := f.service.Toggle(context.Background(), hook.ExternalId, 1, true)
	require.NoError(t, err)
	assert.Equal(t, types.HookStatusActive, reactivated.Status)
}

func TestDeleteOnchainHookUnregisters(t *testing.T) {
	f := newFixture(t)
	hook, err := f.service.Create(context.Background(), CreateParams{
		UserId:      1,
		Name:        "transfers",
		TriggerType: types.TriggerOnchain,
		TriggerConfig: types.TriggerConfig{
			Onchain: &types.OnchainTriggerConfig{ContractAddress: "0xabc", ChainId: 1},
		},
		Actions: []types.ActionBlock{telegramAction()},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(context.Background(), hook.ExternalId, 1))
	assert.Equal(t, []string{"sub_1"}, f.provider.deleted)

	_, err = f.backend.GetHook(context.Background(), hook.ExternalId)
	assert.True(t, types.IsNotFound(err))
}

func TestUpdateKeepsTriggerTypeAndReassignsActionOrder(t *testing.T) {
	f := newFixture(t)
	hook, err := f.service.Create(context.Background(), CreateParams{
		UserId:      1,
		Name:        "original",
		TriggerType: types.TriggerManual,
		Actions:     []types.ActionBlock{telegramAction()},
	})
	require.NoError(t, err)

	name := "renamed"
	actions := []types.ActionBlock{telegramAction(), telegramAction(), telegramAction()}
	updated, err := f.service.Update(context.Background(), hook.ExternalId, 1, UpdateParams{
		Name:    &name,
		Actions: &actions,
	})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, types.TriggerManual, updated.TriggerType)
	require.Len(t, updated.Actions, 3)
	assert.Equal(t, 2, updated.Actions[2].Order)
}

func TestToggledStatus(t *testing.T) {
	assert.Equal(t, types.HookStatusActive, toggledStatus(types.HookStatusPaused, true))
	assert.Equal(t, types.HookStatusActive, toggledStatus(types.HookStatusError, true))
	assert.Equal(t, types.HookStatusPaused, toggledStatus(types.HookStatusActive, false))
	assert.Equal(t, types.HookStatusError, toggledStatus(types.HookStatusError, false))
}
