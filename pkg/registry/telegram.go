package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sanketnighot/hookified/pkg/interpolate"
	"github.com/sanketnighot/hookified/pkg/types"
)

const defaultTelegramAPIBase = "https://api.telegram.org"

// TelegramExecutor sends messages through the Telegram Bot API.
type TelegramExecutor struct {
	httpClient *http.Client
	botToken   string
	apiBase    string
}

func NewTelegramExecutor(cfg types.TelegramConfig, timeout time.Duration) *TelegramExecutor {
	base := cfg.APIBase
	if base == "" {
		base = defaultTelegramAPIBase
	}
	return &TelegramExecutor{
		httpClient: &http.Client{Timeout: timeout},
		botToken:   cfg.BotToken,
		apiBase:    base,
	}
}

func (t *TelegramExecutor) Type() types.ActionType { return types.ActionTelegram }

func (t *TelegramExecutor) Validate(cfg types.ActionConfig) ValidationResult {
	c := cfg.Telegram
	if c == nil {
		return invalid("telegram action requires configuration")
	}
	var errs []string
	if c.ChatId == "" {
		errs = append(errs, "telegram action requires a chat id")
	}
	if c.Message == "" {
		errs = append(errs, "telegram action requires a message")
	}
	if len(errs) > 0 {
		return invalid(errs...)
	}
	return valid()
}

func (t *TelegramExecutor) Execute(ctx context.Context, cfg types.ActionConfig, scope *interpolate.Scope) ExecutionResult {
	c := cfg.Telegram
	if c == nil {
		return failed("telegram action has no configuration")
	}
	if t.botToken == "" {
		return failed("telegram bot token is not configured")
	}

	body, _ := json.Marshal(map[string]string{
		"chat_id": scope.Resolve(c.ChatId),
		"text":    scope.Resolve(c.Message),
	})

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return failed("build telegram request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return failed("telegram request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failed("telegram API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp struct {
		Ok     bool `json:"ok"`
		Result struct {
			MessageId int64 `json:"message_id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err == nil && !apiResp.Ok {
		return failed("telegram API rejected message: %s", string(respBody))
	}

	return succeeded(map[string]any{
		"message_id": apiResp.Result.MessageId,
		"chat_id":    scope.Resolve(c.ChatId),
	})
}

func (t *TelegramExecutor) Schema() map[string]any {
	return map[string]any{
		"type": "TELEGRAM",
		"fields": []map[string]any{
			{"name": "chat_id", "type": "string", "required": true},
			{"name": "message", "type": "string", "required": true, "templated": true},
		},
	}
}
