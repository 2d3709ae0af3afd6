package apiv1

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sanketnighot/hookified/pkg/executor"
	"github.com/sanketnighot/hookified/pkg/onchain"
	"github.com/sanketnighot/hookified/pkg/repository"
	"github.com/sanketnighot/hookified/pkg/trigger"
	"github.com/sanketnighot/hookified/pkg/types"
)

// Webhook bodies above this size are rejected outright.
const maxWebhookBodyBytes = 1 << 20

// WebhooksGroup receives inbound trigger deliveries: generic webhooks and
// provider notifications for onchain events. These routes carry no user
// auth; callers prove themselves with signatures instead.
type WebhooksGroup struct {
	g             *echo.Group
	backend       repository.BackendRepository
	pool          *executor.Pool
	onchainEngine *onchain.Engine
	signingKey    string
}

func NewWebhooksGroup(g *echo.Group, backend repository.BackendRepository, pool *executor.Pool, onchainEngine *onchain.Engine, signingKey string) *WebhooksGroup {
	wg := &WebhooksGroup{g: g, backend: backend, pool: pool, onchainEngine: onchainEngine, signingKey: signingKey}
	wg.g.POST("/:id", wg.Receive)
	wg.g.POST("/onchain/:id", wg.ReceiveOnchain)
	return wg
}

func (wg *WebhooksGroup) loadHook(c echo.Context, wantType types.TriggerType) (*types.Hook, []byte, error) {
	ctx := c.Request().Context()

	hook, err := wg.backend.GetHook(ctx, c.Param("id"))
	if err != nil {
		if types.IsNotFound(err) {
			return nil, nil, ErrorResponse(c, http.StatusNotFound, "not found")
		}
		log.Error().Err(err).Str("hook", c.Param("id")).Msg("failed to load hook for delivery")
		return nil, nil, ErrorResponse(c, http.StatusInternalServerError, "internal error")
	}
	if hook.TriggerType != wantType {
		return nil, nil, ErrorResponse(c, http.StatusBadRequest, "hook does not accept this trigger")
	}
	if !hook.CanAutoFire() {
		return nil, nil, ErrorResponse(c, http.StatusBadRequest, "hook is not active")
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodyBytes))
	if err != nil {
		return nil, nil, ErrorResponse(c, http.StatusBadRequest, "unreadable body")
	}
	return hook, body, nil
}

// Receive handles a generic inbound webhook. The delivery is acknowledged
// with 202 once signature checks pass and the firing is queued; execution
// happens out-of-band.
func (wg *WebhooksGroup) Receive(c echo.Context) error {
	hook, body, errResp := wg.loadHook(c, types.TriggerWebhook)
	if errResp != nil {
		return errResp
	}

	source := c.Request().Header.Get("User-Agent")
	tc, err := trigger.BuildWebhook(body, c.Request().Header, hook.WebhookSecret(), source, time.Now())
	if err != nil {
		var unauthorized *types.ErrUnauthorized
		if errors.As(err, &unauthorized) {
			return ErrorResponse(c, http.StatusUnauthorized, "signature verification failed")
		}
		return ErrorResponse(c, http.StatusBadRequest, err.Error())
	}

	queued := wg.pool.Enqueue(executor.Job{Hook: hook, Context: tc})
	if !queued {
		return ErrorResponse(c, http.StatusServiceUnavailable, "execution queue full")
	}
	return AcceptedResponse(c, map[string]bool{"queued": true})
}

// ReceiveOnchain handles a provider notification. Signature verification
// uses the provider signing key when configured; the provider retries on
// non-2xx, so anything after a valid signature is acknowledged.
func (wg *WebhooksGroup) ReceiveOnchain(c echo.Context) error {
	hook, body, errResp := wg.loadHook(c, types.TriggerOnchain)
	if errResp != nil {
		return errResp
	}

	if wg.signingKey != "" {
		headers := http.Header{}
		headers.Set(trigger.HeaderWebhookSignature, c.Request().Header.Get("X-Alchemy-Signature"))
		if err := trigger.VerifySignature(wg.signingKey, body, headers); err != nil {
			return ErrorResponse(c, http.StatusUnauthorized, "signature verification failed")
		}
	}

	enqueued, err := wg.onchainEngine.HandleNotification(c.Request().Context(), hook, body)
	if err != nil {
		log.Warn().Err(err).Str("hook", hook.ExternalId).Msg("unparsable onchain notification")
		return ErrorResponse(c, http.StatusBadRequest, "unparsable notification")
	}
	return AcceptedResponse(c, map[string]int{"enqueued": enqueued})
}
