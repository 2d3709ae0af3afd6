// Package trigger normalizes firing events from heterogeneous sources
// (cron tick, inbound webhook, onchain log, manual call) into a uniform
// TriggerContext, isolating the executor from source-specific parsing.
package trigger

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sanketnighot/hookified/pkg/types"
)

// Headers forwarded into webhook trigger data. Everything else is dropped
// so caller-controlled noise doesn't bloat run metadata.
var forwardedHeaders = []string{
	"Content-Type",
	"User-Agent",
	HeaderWebhookSignature,
	HeaderHubSignature,
}

// BuildCron builds the context for a scheduled firing. Expression syntax
// is the reconciler's job at registration time; here only a non-empty
// expression is required.
func BuildCron(cfg *types.CronTriggerConfig, now time.Time, lastExecutedAt *time.Time) (*types.TriggerContext, error) {
	if cfg == nil || cfg.Expression == "" {
		return nil, &types.ErrInvalidTriggerConfig{Detail: "cron expression is empty"}
	}

	data := map[string]any{
		"expression":   cfg.Expression,
		"timezone":     cfg.Timezone,
		"scheduled_at": now.UTC().Format(time.RFC3339),
	}
	if lastExecutedAt != nil {
		data["last_executed_at"] = lastExecutedAt.UTC().Format(time.RFC3339)
	}

	return &types.TriggerContext{
		Type:      types.TriggerCron,
		Data:      data,
		Timestamp: now,
	}, nil
}

// BuildWebhook verifies the request signature and builds the context from
// the raw body and headers. A body that isn't valid JSON degrades to an
// empty payload rather than failing the trigger: the event's metadata is
// still worth recording.
func BuildWebhook(body []byte, headers http.Header, secret, source string, now time.Time) (*types.TriggerContext, error) {
	if err := VerifySignature(secret, body, headers); err != nil {
		return nil, err
	}

	payload := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			log.Debug().Err(err).Msg("webhook body is not a JSON object, using empty payload")
			payload = map[string]any{}
		}
	}

	hdrs := map[string]string{}
	for _, name := range forwardedHeaders {
		if v := headers.Get(name); v != "" {
			hdrs[name] = v
		}
	}

	return &types.TriggerContext{
		Type: types.TriggerWebhook,
		Data: map[string]any{
			"payload": payload,
			"headers": hdrs,
			"source":  source,
		},
		Timestamp: now,
	}, nil
}

// BuildManual builds the context for a user-initiated firing. Caller fields
// are merged first and builder keys written last, so a caller can never
// spoof triggered_by or triggered_at.
func BuildManual(userId uint, fields map[string]any, now time.Time) *types.TriggerContext {
	data := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		data[k] = v
	}
	data["triggered_by"] = userId
	data["triggered_at"] = now.UTC().Format(time.RFC3339)

	return &types.TriggerContext{
		Type:      types.TriggerManual,
		Data:      data,
		Timestamp: now,
	}
}
