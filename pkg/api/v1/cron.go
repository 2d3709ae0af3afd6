package apiv1

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sanketnighot/hookified/pkg/cron"
	"github.com/sanketnighot/hookified/pkg/executor"
	"github.com/sanketnighot/hookified/pkg/hooks"
	"github.com/sanketnighot/hookified/pkg/repository"
	"github.com/sanketnighot/hookified/pkg/trigger"
	"github.com/sanketnighot/hookified/pkg/types"
)

// HeaderCronSecret authenticates the scheduler's callback requests.
const HeaderCronSecret = "x-cron-secret"

// CronGroup owns the scheduler-facing surface: the execution callback the
// scheduler jobs POST to, and operator diagnostics.
type CronGroup struct {
	g          *echo.Group
	backend    repository.BackendRepository
	service    *hooks.Service
	engine     *executor.Engine
	reconciler *cron.Reconciler
	validator  *cron.SetupValidator
	secret     string
}

func NewCronGroup(g *echo.Group, backend repository.BackendRepository, service *hooks.Service, engine *executor.Engine, reconciler *cron.Reconciler, validator *cron.SetupValidator, secret string) *CronGroup {
	cg := &CronGroup{
		g:          g,
		backend:    backend,
		service:    service,
		engine:     engine,
		reconciler: reconciler,
		validator:  validator,
		secret:     secret,
	}
	cg.g.POST("/execute/:id", cg.Execute)
	return cg
}

// RegisterDiagnostics mounts the operator-facing diagnostic routes on an
// authenticated group.
func (cg *CronGroup) RegisterDiagnostics(g *echo.Group) {
	g.GET("/setup", cg.Setup)
	g.POST("/setup/refresh", cg.RefreshSetup)
	g.GET("/jobs", cg.Jobs)
}

// Execute is the scheduler's callback: fire one CRON hook now. Structural
// failures flip the hook to ERROR so the scheduler stops hammering a hook
// that can never succeed.
func (cg *CronGroup) Execute(c echo.Context) error {
	ctx := c.Request().Context()

	provided := c.Request().Header.Get(HeaderCronSecret)
	if cg.secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(cg.secret)) != 1 {
		return ErrorResponse(c, http.StatusUnauthorized, "invalid scheduler secret")
	}

	hook, err := cg.backend.GetHook(ctx, c.Param("id"))
	if err != nil {
		if types.IsNotFound(err) {
			// The row is gone but the job still fired; report the drift.
			log.Warn().Str("hook", c.Param("id")).Msg("scheduler fired for a deleted hook")
			return ErrorResponse(c, http.StatusNotFound, "not found")
		}
		return ErrorResponse(c, http.StatusInternalServerError, "internal error")
	}
	if hook.TriggerType != types.TriggerCron {
		return ErrorResponse(c, http.StatusBadRequest, "hook is not scheduled")
	}
	if !hook.CanAutoFire() {
		return ErrorResponse(c, http.StatusBadRequest, "hook is not active")
	}

	tc, err := trigger.BuildCron(hook.TriggerConfig.Cron, time.Now(), hook.LastExecutedAt)
	if err != nil {
		// An unbuildable context means the stored config itself is broken.
		cg.service.MarkError(ctx, hook)
		return ErrorResponse(c, http.StatusBadRequest, err.Error())
	}

	run, err := cg.engine.Fire(ctx, hook, tc)
	if err != nil {
		var inactive *types.ErrHookInactive
		if errors.As(err, &inactive) {
			return ErrorResponse(c, http.StatusBadRequest, inactive.Error())
		}
		log.Error().Err(err).Str("hook", hook.ExternalId).Msg("scheduled firing failed")
		cg.service.MarkError(ctx, hook)
		return ErrorResponse(c, http.StatusInternalServerError, "execution failed")
	}

	return SuccessResponse(c, map[string]any{
		"run_id": run.ExternalId,
		"status": run.Status,
	})
}

// Setup reports the scheduler prerequisite checks, itemized per check so
// operators can tell which prerequisite is unmet.
func (cg *CronGroup) Setup(c echo.Context) error {
	return SuccessResponse(c, cg.validator.Validate(c.Request().Context()))
}

// RefreshSetup drops the cached report and re-probes.
func (cg *CronGroup) RefreshSetup(c echo.Context) error {
	cg.validator.Invalidate()
	return SuccessResponse(c, cg.validator.Validate(c.Request().Context()))
}

// Jobs lists scheduler-side jobs for drift inspection. Jobs are never
// auto-deleted from here; orphans are reported, not reaped.
func (cg *CronGroup) Jobs(c echo.Context) error {
	jobs, err := cg.reconciler.ListJobs(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list scheduler jobs")
		return ErrorResponse(c, http.StatusInternalServerError, "scheduler unavailable")
	}
	return SuccessResponse(c, jobs)
}
