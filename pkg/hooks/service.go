// Package hooks owns hook CRUD and the lifecycle state machine, and keeps
// external scheduling state (cron jobs, provider subscriptions) consistent
// with it.
package hooks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sanketnighot/hookified/pkg/cron"
	"github.com/sanketnighot/hookified/pkg/onchain"
	"github.com/sanketnighot/hookified/pkg/registry"
	"github.com/sanketnighot/hookified/pkg/repository"
	"github.com/sanketnighot/hookified/pkg/types"
)

// Service handles hook CRUD and lifecycle transitions.
type Service struct {
	Backend  repository.BackendRepository
	Registry *registry.Registry
	Cron     *cron.Reconciler
	Onchain  *onchain.Engine
}

// CreateParams are the user-supplied fields for a new hook.
type CreateParams struct {
	UserId        uint
	Name          string
	TriggerType   types.TriggerType
	TriggerConfig types.TriggerConfig
	Actions       []types.ActionBlock
}

// Create validates the definition, persists the hook, and registers any
// external state (cron job, provider subscription). Registration failure
// aborts creation: no hook row survives a failed registration.
func (s *Service) Create(ctx context.Context, p CreateParams) (*types.Hook, error) {
	if !p.TriggerType.Valid() {
		return nil, &types.ErrInvalidTriggerConfig{Detail: fmt.Sprintf("unknown trigger type: %s", p.TriggerType)}
	}
	if res := s.Registry.ValidateTrigger(p.TriggerType, p.TriggerConfig); !res.IsValid {
		return nil, &types.ErrInvalidTriggerConfig{Detail: strings.Join(res.Errors, "; ")}
	}
	if p.TriggerType == types.TriggerCron {
		// Never persist a hook with an unparsable schedule.
		cfg := p.TriggerConfig.Cron
		if err := s.Cron.ValidateExpression(cfg.Expression, cfg.Timezone); err != nil {
			return nil, err
		}
	}

	actions, err := s.normalizeActions(p.Actions)
	if err != nil {
		return nil, err
	}

	hook := &types.Hook{
		UserId:        p.UserId,
		Name:          p.Name,
		TriggerType:   p.TriggerType,
		TriggerConfig: p.TriggerConfig,
		Actions:       actions,
		Status:        types.HookStatusActive,
		IsActive:      true,
	}

	if _, err := s.Backend.CreateHook(ctx, hook); err != nil {
		return nil, err
	}

	if err := s.registerExternal(ctx, hook); err != nil {
		// Roll the row back; the hook is not valid without its
		// external registration.
		if delErr := s.Backend.DeleteHook(ctx, hook.ExternalId); delErr != nil {
			log.Error().Err(delErr).Str("hook", hook.ExternalId).Msg("failed to roll back hook after registration failure")
		}
		return nil, err
	}

	log.Info().Str("hook", hook.ExternalId).Str("trigger", string(hook.TriggerType)).
		Int("actions", len(hook.Actions)).Msg("hook created")
	return hook, nil
}

func (s *Service) registerExternal(ctx context.Context, hook *types.Hook) error {
	switch hook.TriggerType {
	case types.TriggerCron:
		return s.Cron.Register(ctx, hook)
	case types.TriggerOnchain:
		subscriptionId, err := s.Onchain.Register(ctx, hook)
		if err != nil {
			return err
		}
		hook.SubscriptionId = subscriptionId
		return s.Backend.UpdateHook(ctx, hook)
	}
	return nil
}

// normalizeActions validates every block and assigns ids and a dense
// ascending order.
func (s *Service) normalizeActions(actions []types.ActionBlock) ([]types.ActionBlock, error) {
	out := make([]types.ActionBlock, len(actions))
	for i, block := range actions {
		if res := s.Registry.ValidateAction(block); !res.IsValid {
			return nil, &types.ErrInvalidTriggerConfig{
				Detail: fmt.Sprintf("action %d: %s", i, strings.Join(res.Errors, "; ")),
			}
		}
		if block.Id == "" {
			block.Id = uuid.New().String()
		}
		block.Order = i
		out[i] = block
	}
	return out, nil
}

// Get returns a hook after checking ownership.
func (s *Service) Get(ctx context.Context, externalId string, userId uint) (*types.Hook, error) {
	hook, err := s.Backend.GetHook(ctx, externalId)
	if err != nil {
		return nil, err
	}
	if hook.UserId != userId {
		return nil, &types.ErrUnauthorized{Reason: "hook belongs to another user"}
	}
	return hook, nil
}

// List returns all hooks for a user.
func (s *Service) List(ctx context.Context, userId uint) ([]*types.Hook, error) {
	return s.Backend.ListHooks(ctx, userId)
}

// UpdateParams are the mutable fields of a hook. TriggerType is immutable;
// changing trigger behavior means supplying a new config of the same kind.
type UpdateParams struct {
	Name          *string
	TriggerConfig *types.TriggerConfig
	Actions       *[]types.ActionBlock
}

// Update edits a hook, re-registering external state when the trigger
// config changed.
func (s *Service) Update(ctx context.Context, externalId string, userId uint, p UpdateParams) (*types.Hook, error) {
	hook, err := s.Get(ctx, externalId, userId)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		hook.Name = *p.Name
	}
	if p.Actions != nil {
		actions, err := s.normalizeActions(*p.Actions)
		if err != nil {
			return nil, err
		}
		hook.Actions = actions
	}

	triggerChanged := false
	if p.TriggerConfig != nil {
		if res := s.Registry.ValidateTrigger(hook.TriggerType, *p.TriggerConfig); !res.IsValid {
			return nil, &types.ErrInvalidTriggerConfig{Detail: strings.Join(res.Errors, "; ")}
		}
		hook.TriggerConfig = *p.TriggerConfig
		triggerChanged = true
	}

	if triggerChanged && hook.IsActive {
		switch hook.TriggerType {
		case types.TriggerCron:
			if err := s.Cron.Register(ctx, hook); err != nil {
				return nil, err
			}
		case types.TriggerOnchain:
			s.Onchain.Unregister(ctx, hook)
			subscriptionId, err := s.Onchain.Register(ctx, hook)
			if err != nil {
				return nil, err
			}
			hook.SubscriptionId = subscriptionId
		}
	}

	if err := s.Backend.UpdateHook(ctx, hook); err != nil {
		return nil, err
	}
	return hook, nil
}

// Toggle pauses or resumes a hook and reconciles external registrations.
// Resuming an ERROR hook re-activates it: an explicit toggle implies the
// user fixed the underlying config.
func (s *Service) Toggle(ctx context.Context, externalId string, userId uint, active bool) (*types.Hook, error) {
	hook, err := s.Get(ctx, externalId, userId)
	if err != nil {
		return nil, err
	}
	if hook.IsActive == active {
		return hook, nil
	}

	hook.IsActive = active
	hook.Status = toggledStatus(hook.Status, active)

	switch hook.TriggerType {
	case types.TriggerCron:
		if active {
			err = s.Cron.Resume(ctx, hook)
		} else {
			err = s.Cron.Pause(ctx, hook)
		}
		if err != nil {
			return nil, err
		}
	case types.TriggerOnchain:
		if active {
			subscriptionId, err := s.Onchain.Register(ctx, hook)
			if err != nil {
				return nil, err
			}
			hook.SubscriptionId = subscriptionId
		} else {
			s.Onchain.Unregister(ctx, hook)
			hook.SubscriptionId = ""
		}
	}

	if err := s.Backend.UpdateHook(ctx, hook); err != nil {
		return nil, err
	}
	log.Info().Str("hook", hook.ExternalId).Bool("active", active).Str("status", string(hook.Status)).Msg("hook toggled")
	return hook, nil
}

// Delete removes a hook after deregistering external state. Deregistration
// failures are logged, not fatal: an orphaned scheduler entry 404s
// harmlessly on its next tick.
func (s *Service) Delete(ctx context.Context, externalId string, userId uint) error {
	hook, err := s.Get(ctx, externalId, userId)
	if err != nil {
		return err
	}

	switch hook.TriggerType {
	case types.TriggerCron:
		if err := s.Cron.Remove(ctx, hook); err != nil {
			log.Warn().Err(err).Str("hook", hook.ExternalId).Msg("failed to remove cron job during delete")
		}
	case types.TriggerOnchain:
		s.Onchain.Unregister(ctx, hook)
	}

	if err := s.Backend.DeleteHook(ctx, externalId); err != nil {
		return err
	}
	log.Info().Str("hook", hook.ExternalId).Msg("hook deleted")
	return nil
}

// MarkError flips a hook to ERROR. Reserved for structural failures
// (unparsable schedule discovered at execution time, execution endpoint
// failures), never transient action failures.
func (s *Service) MarkError(ctx context.Context, hook *types.Hook) {
	if hook.Status == types.HookStatusError {
		return
	}
	if err := s.Backend.UpdateHookStatus(ctx, hook.Id, types.HookStatusError); err != nil {
		log.Error().Err(err).Str("hook", hook.ExternalId).Msg("failed to mark hook as ERROR")
		return
	}
	log.Warn().Str("hook", hook.ExternalId).Msg("hook marked ERROR, user attention required")
}

// ListRuns returns a hook's runs with pagination after an ownership check.
func (s *Service) ListRuns(ctx context.Context, externalId string, userId uint, limit, offset int) ([]*types.HookRun, error) {
	hook, err := s.Get(ctx, externalId, userId)
	if err != nil {
		return nil, err
	}
	return s.Backend.ListRuns(ctx, hook.Id, limit, offset)
}

// GetRun returns a single run, checking ownership through its parent hook.
func (s *Service) GetRun(ctx context.Context, runExternalId string, userId uint) (*types.HookRun, error) {
	run, err := s.Backend.GetRun(ctx, runExternalId)
	if err != nil {
		return nil, err
	}
	hook, err := s.Backend.GetHookById(ctx, run.HookId)
	if err != nil {
		return nil, err
	}
	if hook.UserId != userId {
		return nil, &types.ErrUnauthorized{Reason: "run belongs to another user"}
	}
	return run, nil
}

// LastExecutedWithin reports whether the hook fired within d of now, used
// by diagnostics to spot stalled schedules.
func LastExecutedWithin(hook *types.Hook, d time.Duration, now time.Time) bool {
	return hook.LastExecutedAt != nil && now.Sub(*hook.LastExecutedAt) <= d
}
