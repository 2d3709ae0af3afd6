package apiv1

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sanketnighot/hookified/pkg/auth"
	"github.com/sanketnighot/hookified/pkg/executor"
	"github.com/sanketnighot/hookified/pkg/hooks"
	"github.com/sanketnighot/hookified/pkg/trigger"
	"github.com/sanketnighot/hookified/pkg/types"
)

// HooksGroup handles hook CRUD, toggles, manual firings, and run history.
type HooksGroup struct {
	g       *echo.Group
	service *hooks.Service
	engine  *executor.Engine
}

// NewHooksGroup registers hook API routes.
func NewHooksGroup(g *echo.Group, service *hooks.Service, engine *executor.Engine) *HooksGroup {
	hg := &HooksGroup{g: g, service: service, engine: engine}
	hg.g.POST("", hg.Create)
	hg.g.GET("", hg.List)
	hg.g.GET("/:id", hg.Get)
	hg.g.PATCH("/:id", hg.Update)
	hg.g.DELETE("/:id", hg.Delete)
	hg.g.POST("/:id/toggle", hg.Toggle)
	hg.g.POST("/:id/run", hg.Run)
	hg.g.GET("/:id/runs", hg.ListRuns)
	return hg
}

type CreateHookRequest struct {
	Name          string              `json:"name"`
	TriggerType   types.TriggerType   `json:"trigger_type"`
	TriggerConfig types.TriggerConfig `json:"trigger_config"`
	Actions       []types.ActionBlock `json:"actions"`
}

type UpdateHookRequest struct {
	Name          *string              `json:"name,omitempty"`
	TriggerConfig *types.TriggerConfig `json:"trigger_config,omitempty"`
	Actions       *[]types.ActionBlock `json:"actions,omitempty"`
}

type ToggleHookRequest struct {
	Active bool `json:"active"`
}

type RunHookRequest struct {
	Data map[string]any `json:"data,omitempty"`
}

type HookResponse struct {
	ExternalId     string              `json:"id"`
	Name           string              `json:"name"`
	TriggerType    types.TriggerType   `json:"trigger_type"`
	TriggerConfig  types.TriggerConfig `json:"trigger_config"`
	Actions        []types.ActionBlock `json:"actions"`
	Status         types.HookStatus    `json:"status"`
	IsActive       bool                `json:"is_active"`
	LastExecutedAt *time.Time          `json:"last_executed_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func hookToResponse(h *types.Hook) HookResponse {
	return HookResponse{
		ExternalId:     h.ExternalId,
		Name:           h.Name,
		TriggerType:    h.TriggerType,
		TriggerConfig:  h.TriggerConfig,
		Actions:        h.Actions,
		Status:         h.Status,
		IsActive:       h.IsActive,
		LastExecutedAt: h.LastExecutedAt,
		CreatedAt:      h.CreatedAt,
		UpdatedAt:      h.UpdatedAt,
	}
}

// serviceError maps domain errors to HTTP responses.
func serviceError(c echo.Context, err error) error {
	var invalid *types.ErrInvalidTriggerConfig
	var unauthorized *types.ErrUnauthorized
	var inactive *types.ErrHookInactive
	var registration *types.ErrWebhookRegistration

	switch {
	case types.IsNotFound(err):
		return ErrorResponse(c, http.StatusNotFound, "not found")
	case errors.As(err, &unauthorized):
		// Existence of another user's hook is not disclosed.
		return ErrorResponse(c, http.StatusNotFound, "not found")
	case errors.As(err, &invalid):
		return ErrorResponse(c, http.StatusBadRequest, invalid.Error())
	case errors.As(err, &inactive):
		return ErrorResponse(c, http.StatusBadRequest, inactive.Error())
	case errors.As(err, &registration):
		return ErrorResponse(c, http.StatusBadGateway, registration.Error())
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return ErrorResponse(c, http.StatusInternalServerError, "internal error")
}

func (hg *HooksGroup) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateHookRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "invalid request")
	}
	if req.Name == "" {
		return ErrorResponse(c, http.StatusBadRequest, "name required")
	}
	if len(req.Actions) == 0 {
		return ErrorResponse(c, http.StatusBadRequest, "at least one action required")
	}

	hook, err := hg.service.Create(ctx, hooks.CreateParams{
		UserId:        auth.UserId(ctx),
		Name:          req.Name,
		TriggerType:   req.TriggerType,
		TriggerConfig: req.TriggerConfig,
		Actions:       req.Actions,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return CreatedResponse(c, hookToResponse(hook))
}

func (hg *HooksGroup) List(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := hg.service.List(ctx, auth.UserId(ctx))
	if err != nil {
		return serviceError(c, err)
	}

	out := make([]HookResponse, len(list))
	for i, h := range list {
		out[i] = hookToResponse(h)
	}
	return SuccessResponse(c, out)
}

func (hg *HooksGroup) Get(c echo.Context) error {
	ctx := c.Request().Context()

	hook, err := hg.service.Get(ctx, c.Param("id"), auth.UserId(ctx))
	if err != nil {
		return serviceError(c, err)
	}
	return SuccessResponse(c, hookToResponse(hook))
}

func (hg *HooksGroup) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req UpdateHookRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "invalid request")
	}

	hook, err := hg.service.Update(ctx, c.Param("id"), auth.UserId(ctx), hooks.UpdateParams{
		Name:          req.Name,
		TriggerConfig: req.TriggerConfig,
		Actions:       req.Actions,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return SuccessResponse(c, hookToResponse(hook))
}

func (hg *HooksGroup) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := hg.service.Delete(ctx, c.Param("id"), auth.UserId(ctx)); err != nil {
		return serviceError(c, err)
	}
	return SuccessResponse(c, map[string]bool{"deleted": true})
}

func (hg *HooksGroup) Toggle(c echo.Context) error {
	ctx := c.Request().Context()

	var req ToggleHookRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "invalid request")
	}

	hook, err := hg.service.Toggle(ctx, c.Param("id"), auth.UserId(ctx), req.Active)
	if err != nil {
		return serviceError(c, err)
	}
	return SuccessResponse(c, hookToResponse(hook))
}

// Run fires a hook manually and waits for the result. Manual firings are a
// debugging tool: they run even when the hook is paused or in ERROR.
func (hg *HooksGroup) Run(c echo.Context) error {
	ctx := c.Request().Context()

	var req RunHookRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "invalid request")
	}

	hook, err := hg.service.Get(ctx, c.Param("id"), auth.UserId(ctx))
	if err != nil {
		return serviceError(c, err)
	}

	tc := trigger.BuildManual(auth.UserId(ctx), req.Data, time.Now())
	run, err := hg.engine.Fire(ctx, hook, tc)
	if err != nil {
		return serviceError(c, err)
	}
	return SuccessResponse(c, run)
}

func (hg *HooksGroup) ListRuns(c echo.Context) error {
	ctx := c.Request().Context()
	limit, offset := paginationParams(c)

	runs, err := hg.service.ListRuns(ctx, c.Param("id"), auth.UserId(ctx), limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return SuccessResponse(c, runs)
}

// RunsGroup exposes run lookup by run id.
type RunsGroup struct {
	g       *echo.Group
	service *hooks.Service
}

func NewRunsGroup(g *echo.Group, service *hooks.Service) *RunsGroup {
	rg := &RunsGroup{g: g, service: service}
	rg.g.GET("/:id", rg.Get)
	return rg
}

func (rg *RunsGroup) Get(c echo.Context) error {
	ctx := c.Request().Context()

	run, err := rg.service.GetRun(ctx, c.Param("id"), auth.UserId(ctx))
	if err != nil {
		return serviceError(c, err)
	}
	return SuccessResponse(c, run)
}
