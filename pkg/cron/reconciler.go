package cron

import (
	"context"
	"fmt"
	"time"

	robfig "github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/sanketnighot/hookified/pkg/types"
)

const defaultJobPrefix = "hookified-cron"

// Reconciler keeps external scheduler entries consistent with CRON hooks'
// lifecycle state. Job names derive deterministically from the hook id,
// so reconciliation needs no side table.
type Reconciler struct {
	scheduler SchedulerClient
	parser    robfig.Parser
	jobPrefix string
	secret    string
	baseURL   string
}

func NewReconciler(scheduler SchedulerClient, cfg types.CronConfig, baseURL string) *Reconciler {
	prefix := cfg.JobPrefix
	if prefix == "" {
		prefix = defaultJobPrefix
	}
	return &Reconciler{
		scheduler: scheduler,
		// Standard 5-field parser (min, hour, dom, month, dow), matching pg_cron.
		parser:    robfig.NewParser(robfig.Minute | robfig.Hour | robfig.Dom | robfig.Month | robfig.Dow),
		jobPrefix: prefix,
		secret:    cfg.Secret,
		baseURL:   baseURL,
	}
}

// JobName returns the deterministic scheduler entry name for a hook.
func (r *Reconciler) JobName(hookExternalId string) string {
	return fmt.Sprintf("%s-%s", r.jobPrefix, hookExternalId)
}

// ValidateExpression checks cron syntax and timezone. Hooks with an
// unparsable schedule are never persisted.
func (r *Reconciler) ValidateExpression(expression, timezone string) error {
	if expression == "" {
		return &types.ErrInvalidTriggerConfig{Detail: "cron expression is empty"}
	}
	if _, err := r.parser.Parse(expression); err != nil {
		return &types.ErrInvalidTriggerConfig{Detail: fmt.Sprintf("invalid cron expression %q: %v", expression, err)}
	}
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return &types.ErrInvalidTriggerConfig{Detail: fmt.Sprintf("invalid timezone %q", timezone)}
		}
	}
	return nil
}

// NextRun computes the next firing after the given instant, in the hook's
// timezone. Used by diagnostics and due-time tests.
func (r *Reconciler) NextRun(expression, timezone string, after time.Time) (time.Time, error) {
	schedule, err := r.parser.Parse(expression)
	if err != nil {
		return time.Time{}, &types.ErrInvalidTriggerConfig{Detail: fmt.Sprintf("invalid cron expression %q: %v", expression, err)}
	}
	loc := time.UTC
	if timezone != "" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return time.Time{}, &types.ErrInvalidTriggerConfig{Detail: fmt.Sprintf("invalid timezone %q", timezone)}
		}
	}
	return schedule.Next(after.In(loc)), nil
}

// IsDue reports whether a hook's schedule has a due occurrence between its
// last execution and now. A hook that has never run is anchored to its
// creation time, so it only becomes due once the first occurrence after
// creation passes.
func (r *Reconciler) IsDue(expression, timezone string, lastExecutedAt *time.Time, createdAt, now time.Time) (bool, error) {
	from := createdAt
	if lastExecutedAt != nil {
		from = *lastExecutedAt
	}
	next, err := r.NextRun(expression, timezone, from)
	if err != nil {
		return false, err
	}
	return !next.After(now), nil
}

// Register creates the scheduler entry for a CRON hook: a job that calls
// the hook's execution endpoint with the shared secret header.
func (r *Reconciler) Register(ctx context.Context, hook *types.Hook) error {
	cfg := hook.TriggerConfig.Cron
	if cfg == nil {
		return &types.ErrInvalidTriggerConfig{Detail: "hook has no cron configuration"}
	}
	if err := r.ValidateExpression(cfg.Expression, cfg.Timezone); err != nil {
		return err
	}

	name := r.JobName(hook.ExternalId)
	if err := r.scheduler.ScheduleJob(ctx, name, cfg.Expression, r.executeCommand(hook.ExternalId)); err != nil {
		return err
	}

	log.Info().Str("hook", hook.ExternalId).Str("job", name).Str("schedule", cfg.Expression).Msg("cron job registered")
	return nil
}

// Pause disables the scheduler entry, keeping its definition.
func (r *Reconciler) Pause(ctx context.Context, hook *types.Hook) error {
	return r.scheduler.SetJobActive(ctx, r.JobName(hook.ExternalId), false)
}

// Resume re-enables a paused entry.
func (r *Reconciler) Resume(ctx context.Context, hook *types.Hook) error {
	return r.scheduler.SetJobActive(ctx, r.JobName(hook.ExternalId), true)
}

// Remove deletes the scheduler entry. Callers treat failure as non-fatal:
// an orphaned job pointing at a deleted hook 404s harmlessly on its next
// tick.
func (r *Reconciler) Remove(ctx context.Context, hook *types.Hook) error {
	name := r.JobName(hook.ExternalId)
	if err := r.scheduler.UnscheduleJob(ctx, name); err != nil {
		return err
	}
	log.Info().Str("hook", hook.ExternalId).Str("job", name).Msg("cron job removed")
	return nil
}

// ListJobs enumerates all scheduler entries matching the naming
// convention, for drift diagnostics against the hook table. Jobs with no
// matching hook are reported, never deleted automatically.
func (r *Reconciler) ListJobs(ctx context.Context) ([]Job, error) {
	return r.scheduler.ListJobs(ctx, r.jobPrefix)
}

// executeCommand builds the pg_net call that fires the execution endpoint.
func (r *Reconciler) executeCommand(hookExternalId string) string {
	url := fmt.Sprintf("%s/api/v1/cron/execute/%s", r.baseURL, hookExternalId)
	return fmt.Sprintf(
		`SELECT net.http_post(url:='%s', headers:=jsonb_build_object('x-cron-secret', '%s'))`,
		url, r.secret,
	)
}
