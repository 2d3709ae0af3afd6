package trigger

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketnighot/hookified/pkg/types"
)

func TestBuildCron(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	last := now.Add(-time.Hour)

	tc, err := BuildCron(&types.CronTriggerConfig{Expression: "0 9 * * *", Timezone: "UTC"}, now, &last)
	require.NoError(t, err)

	assert.Equal(t, types.TriggerCron, tc.Type)
	assert.Equal(t, "0 9 * * *", tc.Data["expression"])
	assert.Equal(t, "2026-03-01T09:00:00Z", tc.Data["scheduled_at"])
	assert.Equal(t, "2026-03-01T08:00:00Z", tc.Data["last_executed_at"])
}

func TestBuildCronEmptyExpression(t *testing.T) {
	_, err := BuildCron(&types.CronTriggerConfig{}, time.Now(), nil)
	assert.Error(t, err)

	_, err = BuildCron(nil, time.Now(), nil)
	assert.Error(t, err)
}

func TestBuildWebhook(t *testing.T) {
	body := []byte(`{"event":"push","ref":"main"}`)
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("X-Internal-Noise", "dropped")

	tc, err := BuildWebhook(body, headers, "", "github", time.Now())
	require.NoError(t, err)

	assert.Equal(t, types.TriggerWebhook, tc.Type)
	payload := tc.Data["payload"].(map[string]any)
	assert.Equal(t, "push", payload["event"])

	hdrs := tc.Data["headers"].(map[string]string)
	assert.Equal(t, "application/json", hdrs["Content-Type"])
	assert.NotContains(t, hdrs, "X-Internal-Noise")
	assert.Equal(t, "github", tc.Data["source"])
}

func TestBuildWebhookNonJSONBodyDegrades(t *testing.T) {
	tc, err := BuildWebhook([]byte("plain text"), http.Header{}, "", "", time.Now())
	require.NoError(t, err)

	assert.Empty(t, tc.Data["payload"].(map[string]any))
}

func TestBuildWebhookEnforcesSignature(t *testing.T) {
	body := []byte(`{}`)
	_, err := BuildWebhook(body, http.Header{}, "secret", "", time.Now())
	assert.Error(t, err)

	headers := http.Header{}
	headers.Set(HeaderWebhookSignature, Sign("secret", body))
	_, err = BuildWebhook(body, headers, "secret", "", time.Now())
	assert.NoError(t, err)
}

func TestBuildManualCallerCannotSpoofBuiltins(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tc := BuildManual(7, map[string]any{
		"note":         "retry",
		"triggered_by": uint(999),
		"triggered_at": "1970-01-01T00:00:00Z",
	}, now)

	assert.Equal(t, types.TriggerManual, tc.Type)
	assert.Equal(t, "retry", tc.Data["note"])
	assert.Equal(t, uint(7), tc.Data["triggered_by"])
	assert.Equal(t, "2026-03-01T09:00:00Z", tc.Data["triggered_at"])
}
