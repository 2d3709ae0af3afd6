package apiv1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketnighot/hookified/pkg/auth"
	"github.com/sanketnighot/hookified/pkg/cron"
	"github.com/sanketnighot/hookified/pkg/executor"
	"github.com/sanketnighot/hookified/pkg/hooks"
	"github.com/sanketnighot/hookified/pkg/onchain"
	"github.com/sanketnighot/hookified/pkg/registry"
	"github.com/sanketnighot/hookified/pkg/repository"
	"github.com/sanketnighot/hookified/pkg/trigger"
	"github.com/sanketnighot/hookified/pkg/types"
)

const (
	testJWTSecret  = "test-jwt-secret"
	testCronSecret = "test-cron-secret"
)

type nullScheduler struct{}

func (nullScheduler) ScheduleJob(context.Context, string, string, string) error { return nil }
func (nullScheduler) SetJobActive(context.Context, string, bool) error          { return nil }
func (nullScheduler) UnscheduleJob(context.Context, string) error               { return nil }
func (nullScheduler) ListJobs(context.Context, string) ([]cron.Job, error)      { return nil, nil }

type nullProvider struct{}

func (nullProvider) CreateWebhook(context.Context, *types.OnchainTriggerConfig, string) (string, error) {
	return "sub_1", nil
}
func (nullProvider) DeleteWebhook(context.Context, string) error { return nil }

type testServer struct {
	echo    *echo.Echo
	backend *repository.MemoryBackend
	service *hooks.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	backend := repository.NewMemoryBackend()
	reg := registry.New(
		registry.NewTelegramExecutor(types.TelegramConfig{BotToken: "t"}, time.Second),
		registry.NewWebhookExecutor(time.Second),
		registry.NewChainExecutor(),
	)
	engine := executor.NewEngine(backend, reg, types.ExecutorConfig{})
	pool := executor.NewPool(engine, types.ExecutorConfig{QueueSize: 16})
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	reconciler := cron.NewReconciler(nullScheduler{}, types.CronConfig{Secret: testCronSecret}, "https://gw.example.com")
	validator := cron.NewSetupValidator(nil, types.CronConfig{Secret: testCronSecret}, "https://gw.example.com")
	onchainEngine := onchain.NewEngine(nullProvider{}, pool, nil, types.OnchainConfig{}, "https://gw.example.com")

	service := &hooks.Service{Backend: backend, Registry: reg, Cron: reconciler, Onchain: onchainEngine}

	e := echo.New()
	base := e.Group(HttpServerBaseRoute)

	NewWebhooksGroup(base.Group("/webhooks"), backend, pool, onchainEngine, "")
	cronGroup := NewCronGroup(base.Group("/cron"), backend, service, engine, reconciler, validator, testCronSecret)

	authed := base.Group("")
	authed.Use(NewUserAuthMiddleware(testJWTSecret))
	NewHooksGroup(authed.Group("/hooks"), service, engine)
	NewRunsGroup(authed.Group("/runs"), service)
	cronGroup.RegisterDiagnostics(authed.Group("/cron"))

	return &testServer{echo: e, backend: backend, service: service}
}

func (s *testServer) request(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, userId uint) map[string]string {
	t.Helper()
	token, err := auth.IssueToken(testJWTSecret, userId, time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "body: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestAuthMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, http.MethodGet, "/api/v1/hooks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.request(t, http.MethodGet, "/api/v1/hooks", "", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.request(t, http.MethodGet, "/api/v1/hooks", "", bearer(t, 1))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHookCRUDOverHTTP(t *testing.T) {
	s := newTestServer(t)

	body := `{
		"name": "my hook",
		"trigger_type": "MANUAL",
		"actions": [{"type": "TELEGRAM", "config": {"telegram": {"chat_id": "1", "message": "hi {trigger.note}"}}}]
	}`
	rec := s.request(t, http.MethodPost, "/api/v1/hooks", body, bearer(t, 1))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created HookResponse
	decodeData(t, rec, &created)
	assert.Equal(t, "my hook", created.Name)
	assert.True(t, created.IsActive)

	// Owner sees it; another user gets 404, not 403.
	rec = s.request(t, http.MethodGet, "/api/v1/hooks/"+created.ExternalId, "", bearer(t, 1))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.request(t, http.MethodGet, "/api/v1/hooks/"+created.ExternalId, "", bearer(t, 2))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.request(t, http.MethodDelete, "/api/v1/hooks/"+created.ExternalId, "", bearer(t, 1))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.request(t, http.MethodGet, "/api/v1/hooks/"+created.ExternalId, "", bearer(t, 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateHookValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, http.MethodPost, "/api/v1/hooks", `{"name":"x","trigger_type":"MANUAL","actions":[]}`, bearer(t, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.request(t, http.MethodPost, "/api/v1/hooks",
		`{"name":"x","trigger_type":"CRON","trigger_config":{"cron":{"expression":"bad"}},"actions":[{"type":"TELEGRAM","config":{"telegram":{"chat_id":"1","message":"m"}}}]}`,
		bearer(t, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookDeliveryGates(t *testing.T) {
	s := newTestServer(t)

	// Unknown hook.
	rec := s.request(t, http.MethodPost, "/api/v1/webhooks/nope", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	hook, err := s.service.Create(context.Background(), hooks.CreateParams{
		UserId:        1,
		Name:          "inbound",
		TriggerType:   types.TriggerWebhook,
		TriggerConfig: types.TriggerConfig{Webhook: &types.WebhookTriggerConfig{Secret: "whsec"}},
		Actions: []types.ActionBlock{{
			Type:   types.ActionTelegram,
			Config: types.ActionConfig{Telegram: &types.TelegramActionConfig{ChatId: "1", Message: "m"}},
		}},
	})
	require.NoError(t, err)

	// Missing signature.
	rec = s.request(t, http.MethodPost, "/api/v1/webhooks/"+hook.ExternalId, `{"a":1}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid signature: accepted for async execution.
	payload := `{"a":1}`
	rec = s.request(t, http.MethodPost, "/api/v1/webhooks/"+hook.ExternalId, payload, map[string]string{
		trigger.HeaderWebhookSignature: trigger.Sign("whsec", []byte(payload)),
	})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	// Paused hook: delivery is rejected instead of queued.
	_, err = s.service.Toggle(context.Background(), hook.ExternalId, 1, false)
	require.NoError(t, err)
	rec = s.request(t, http.MethodPost, "/api/v1/webhooks/"+hook.ExternalId, payload, map[string]string{
		trigger.HeaderWebhookSignature: trigger.Sign("whsec", []byte(payload)),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCronExecuteEndpoint(t *testing.T) {
	s := newTestServer(t)

	hook, err := s.service.Create(context.Background(), hooks.CreateParams{
		UserId:        1,
		Name:          "daily",
		TriggerType:   types.TriggerCron,
		TriggerConfig: types.TriggerConfig{Cron: &types.CronTriggerConfig{Expression: "0 9 * * *"}},
		Actions: []types.ActionBlock{{
			Type:   types.ActionWebhook,
			Config: types.ActionConfig{Webhook: &types.WebhookActionConfig{URL: "http://127.0.0.1:1"}},
		}},
	})
	require.NoError(t, err)

	// Wrong secret.
	rec := s.request(t, http.MethodPost, "/api/v1/cron/execute/"+hook.ExternalId, "", map[string]string{HeaderCronSecret: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct secret: the firing runs synchronously and reports its run.
	rec = s.request(t, http.MethodPost, "/api/v1/cron/execute/"+hook.ExternalId, "", map[string]string{HeaderCronSecret: testCronSecret})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		RunId  string          `json:"run_id"`
		Status types.RunStatus `json:"status"`
	}
	decodeData(t, rec, &result)
	assert.NotEmpty(t, result.RunId)
	// The action endpoint is unreachable, so the run records a failure.
	assert.Equal(t, types.RunStatusFailed, result.Status)

	// Unknown hook with valid secret.
	rec = s.request(t, http.MethodPost, "/api/v1/cron/execute/nope", "", map[string]string{HeaderCronSecret: testCronSecret})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestManualRunEndpoint(t *testing.T) {
	s := newTestServer(t)

	hook, err := s.service.Create(context.Background(), hooks.CreateParams{
		UserId:      1,
		Name:        "manual",
		TriggerType: types.TriggerManual,
		Actions: []types.ActionBlock{{
			Type:   types.ActionWebhook,
			Config: types.ActionConfig{Webhook: &types.WebhookActionConfig{URL: "http://127.0.0.1:1"}},
		}},
	})
	require.NoError(t, err)

	rec := s.request(t, http.MethodPost, "/api/v1/hooks/"+hook.ExternalId+"/run", `{"data":{"note":"retry"}}`, bearer(t, 1))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var run types.HookRun
	decodeData(t, rec, &run)
	assert.Equal(t, types.RunStatusFailed, run.Status)
	require.Len(t, run.Meta.Actions, 1)

	// The run is visible in history and by id.
	rec = s.request(t, http.MethodGet, "/api/v1/hooks/"+hook.ExternalId+"/runs", "", bearer(t, 1))
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []types.HookRun
	decodeData(t, rec, &runs)
	require.Len(t, runs, 1)

	rec = s.request(t, http.MethodGet, "/api/v1/runs/"+run.ExternalId, "", bearer(t, 1))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.request(t, http.MethodGet, "/api/v1/runs/"+run.ExternalId, "", bearer(t, 2))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetupDiagnosticsRequireAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, http.MethodGet, "/api/v1/cron/setup", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.request(t, http.MethodGet, "/api/v1/cron/setup", "", bearer(t, 1))
	require.Equal(t, http.StatusOK, rec.Code)

	var report cron.SetupReport
	decodeData(t, rec, &report)
	assert.Len(t, report.Checks, 5)
}
