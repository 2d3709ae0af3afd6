package registry

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sanketnighot/hookified/pkg/interpolate"
	"github.com/sanketnighot/hookified/pkg/types"
)

// WebhookExecutor calls an external HTTP endpoint with templated
// method/headers/body.
type WebhookExecutor struct {
	httpClient *http.Client
}

func NewWebhookExecutor(timeout time.Duration) *WebhookExecutor {
	return &WebhookExecutor{httpClient: &http.Client{Timeout: timeout}}
}

func (w *WebhookExecutor) Type() types.ActionType { return types.ActionWebhook }

func (w *WebhookExecutor) Validate(cfg types.ActionConfig) ValidationResult {
	c := cfg.Webhook
	if c == nil {
		return invalid("webhook action requires configuration")
	}
	if c.URL == "" {
		return invalid("webhook action requires a url")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("webhook action url must be http or https")
	}
	return valid()
}

func (w *WebhookExecutor) Execute(ctx context.Context, cfg types.ActionConfig, scope *interpolate.Scope) ExecutionResult {
	c := cfg.Webhook
	if c == nil {
		return failed("webhook action has no configuration")
	}

	method := strings.ToUpper(c.Method)
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	resolvedBody := scope.Resolve(c.Body)
	if resolvedBody != "" {
		body = strings.NewReader(resolvedBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, scope.Resolve(c.URL), body)
	if err != nil {
		return failed("build webhook request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range scope.ResolveMap(c.Headers) {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return failed("webhook request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	output := map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(respBody),
		"duration_ms": time.Since(start).Milliseconds(),
		"url":         req.URL.String(),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ExecutionResult{
			Status: types.ActionStatusFailed,
			Output: output,
			Error:  "webhook returned status " + resp.Status,
		}
	}
	return succeeded(output)
}

func (w *WebhookExecutor) Schema() map[string]any {
	return map[string]any{
		"type": "WEBHOOK",
		"fields": []map[string]any{
			{"name": "url", "type": "string", "required": true, "templated": true},
			{"name": "method", "type": "string", "required": false},
			{"name": "headers", "type": "map", "required": false, "templated": true},
			{"name": "body", "type": "string", "required": false, "templated": true},
		},
	}
}
