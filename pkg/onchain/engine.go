package onchain

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sanketnighot/hookified/pkg/common"
	"github.com/sanketnighot/hookified/pkg/executor"
	"github.com/sanketnighot/hookified/pkg/trigger"
	"github.com/sanketnighot/hookified/pkg/types"
)

const defaultDedupeWindow = 10 * time.Minute

// Engine manages provider subscriptions for ONCHAIN hooks and forwards
// decoded notifications to the executor pool.
type Engine struct {
	provider     ProviderClient
	pool         *executor.Pool
	seen         *common.SeenTracker
	baseURL      string
	dedupeWindow time.Duration
	now          func() time.Time
}

func NewEngine(provider ProviderClient, pool *executor.Pool, seen *common.SeenTracker, cfg types.OnchainConfig, baseURL string) *Engine {
	window := time.Duration(cfg.DedupeWindowS) * time.Second
	if window <= 0 {
		window = defaultDedupeWindow
	}
	return &Engine{
		provider:     provider,
		pool:         pool,
		seen:         seen,
		baseURL:      baseURL,
		dedupeWindow: window,
		now:          time.Now,
	}
}

// Register creates the provider subscription for an ONCHAIN hook and
// returns the provider-assigned id. Unlike cron jobs (deterministic name,
// retryable), the subscription id must exist before the hook is valid, so
// failure aborts hook creation with a distinguishable error class.
func (e *Engine) Register(ctx context.Context, hook *types.Hook) (string, error) {
	cfg := hook.TriggerConfig.Onchain
	if cfg == nil {
		return "", &types.ErrInvalidTriggerConfig{Detail: "hook has no onchain configuration"}
	}

	callbackURL := fmt.Sprintf("%s/api/v1/webhooks/onchain/%s", e.baseURL, hook.ExternalId)
	id, err := e.provider.CreateWebhook(ctx, cfg, callbackURL)
	if err != nil {
		return "", &types.ErrWebhookRegistration{Provider: "alchemy", Err: err}
	}

	log.Info().Str("hook", hook.ExternalId).Str("subscription", id).Msg("onchain subscription registered")
	return id, nil
}

// Unregister removes the provider subscription. Best-effort: failure is
// logged and never blocks hook deletion.
func (e *Engine) Unregister(ctx context.Context, hook *types.Hook) {
	if hook.SubscriptionId == "" {
		return
	}
	if err := e.provider.DeleteWebhook(ctx, hook.SubscriptionId); err != nil {
		log.Warn().Err(err).Str("hook", hook.ExternalId).Str("subscription", hook.SubscriptionId).
			Msg("failed to remove onchain subscription")
		return
	}
	log.Info().Str("hook", hook.ExternalId).Str("subscription", hook.SubscriptionId).Msg("onchain subscription removed")
}

// HandleNotification decodes a provider payload into zero or more trigger
// contexts and enqueues one firing per matched log. The caller has already
// acknowledged receipt; everything here is out-of-band and best-effort.
// Returns how many firings were enqueued.
func (e *Engine) HandleNotification(ctx context.Context, hook *types.Hook, body []byte) (int, error) {
	notification, err := trigger.ParseOnchainNotification(body)
	if err != nil {
		return 0, err
	}

	now := e.now()
	contexts := trigger.BuildOnchain(notification, now)
	if len(contexts) == 0 {
		// A payload with zero matching logs is a valid no-op.
		return 0, nil
	}

	enqueued := 0
	seenKey := common.Keys.HookSeen(hook.Id)
	for i, tc := range contexts {
		dedupe := notification.Event.Data.Block.Logs[i].DedupeKey()
		if !e.seen.MarkSeen(ctx, seenKey, dedupe, e.dedupeWindow) {
			log.Debug().Str("hook", hook.ExternalId).Str("log", dedupe).Msg("duplicate onchain delivery skipped")
			continue
		}
		if e.pool.Enqueue(executor.Job{Hook: hook, Context: tc}) {
			enqueued++
		}
	}
	return enqueued, nil
}
