package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sanketnighot/hookified/pkg/types"
)

// Hook methods on PostgresBackend

// CreateHook inserts a new hook and returns it with generated ids.
func (b *PostgresBackend) CreateHook(ctx context.Context, hook *types.Hook) (*types.Hook, error) {
	triggerJSON, err := json.Marshal(hook.TriggerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trigger config: %w", err)
	}
	actionsJSON, err := json.Marshal(hook.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal actions: %w", err)
	}

	query := `
		INSERT INTO hook (user_id, name, trigger_type, trigger_config, actions, status, is_active, subscription_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, external_id, created_at, updated_at
	`

	err = b.db.QueryRowContext(ctx, query,
		hook.UserId,
		hook.Name,
		hook.TriggerType,
		triggerJSON,
		actionsJSON,
		hook.Status,
		hook.IsActive,
		hook.SubscriptionId,
	).Scan(&hook.Id, &hook.ExternalId, &hook.CreatedAt, &hook.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create hook: %w", err)
	}

	return hook, nil
}

const hookColumns = `id, external_id, user_id, name, trigger_type, trigger_config, actions,
	       status, is_active, subscription_id, last_executed_at, last_checked_at, created_at, updated_at`

// GetHook retrieves a hook by external ID.
func (b *PostgresBackend) GetHook(ctx context.Context, externalId string) (*types.Hook, error) {
	query := fmt.Sprintf(`SELECT %s FROM hook WHERE external_id = $1`, hookColumns)
	hook, err := b.scanHook(b.db.QueryRowContext(ctx, query, externalId))
	if err == sql.ErrNoRows {
		return nil, &types.ErrHookNotFound{ExternalId: externalId}
	}
	return hook, err
}

// GetHookById retrieves a hook by internal ID.
func (b *PostgresBackend) GetHookById(ctx context.Context, id uint) (*types.Hook, error) {
	query := fmt.Sprintf(`SELECT %s FROM hook WHERE id = $1`, hookColumns)
	hook, err := b.scanHook(b.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &types.ErrHookNotFound{ExternalId: fmt.Sprintf("id=%d", id)}
	}
	return hook, err
}

// ListHooks returns all hooks owned by a user.
func (b *PostgresBackend) ListHooks(ctx context.Context, userId uint) ([]*types.Hook, error) {
	query := fmt.Sprintf(`SELECT %s FROM hook WHERE user_id = $1 ORDER BY created_at DESC`, hookColumns)
	rows, err := b.db.QueryContext(ctx, query, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to list hooks: %w", err)
	}
	defer rows.Close()

	var hooks []*types.Hook
	for rows.Next() {
		hook, err := b.scanHook(rows)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, hook)
	}
	return hooks, rows.Err()
}

// UpdateHook persists mutable hook fields.
func (b *PostgresBackend) UpdateHook(ctx context.Context, hook *types.Hook) error {
	triggerJSON, err := json.Marshal(hook.TriggerConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger config: %w", err)
	}
	actionsJSON, err := json.Marshal(hook.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	query := `
		UPDATE hook
		SET name = $2, trigger_config = $3, actions = $4, status = $5,
		    is_active = $6, subscription_id = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err = b.db.ExecContext(ctx, query,
		hook.Id, hook.Name, triggerJSON, actionsJSON, hook.Status, hook.IsActive, hook.SubscriptionId)
	if err != nil {
		return fmt.Errorf("failed to update hook: %w", err)
	}
	return nil
}

// UpdateHookStatus sets only the lifecycle status.
func (b *PostgresBackend) UpdateHookStatus(ctx context.Context, id uint, status types.HookStatus) error {
	query := `UPDATE hook SET status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	if _, err := b.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("failed to update hook status: %w", err)
	}
	return nil
}

// TouchHookExecuted stamps last_executed_at/last_checked_at after a firing.
// Last write wins; concurrent firings just leave the later timestamp.
func (b *PostgresBackend) TouchHookExecuted(ctx context.Context, id uint, executedAt time.Time) error {
	query := `UPDATE hook SET last_executed_at = $2, last_checked_at = $2 WHERE id = $1`
	if _, err := b.db.ExecContext(ctx, query, id, executedAt); err != nil {
		return fmt.Errorf("failed to touch hook: %w", err)
	}
	return nil
}

// DeleteHook removes a hook; runs cascade.
func (b *PostgresBackend) DeleteHook(ctx context.Context, externalId string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM hook WHERE external_id = $1`, externalId)
	if err != nil {
		return fmt.Errorf("failed to delete hook: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &types.ErrHookNotFound{ExternalId: externalId}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanHook scans a hook row into a Hook struct.
func (b *PostgresBackend) scanHook(row rowScanner) (*types.Hook, error) {
	hook := &types.Hook{}
	var triggerJSON, actionsJSON []byte
	var lastExecutedAt, lastCheckedAt sql.NullTime

	err := row.Scan(
		&hook.Id,
		&hook.ExternalId,
		&hook.UserId,
		&hook.Name,
		&hook.TriggerType,
		&triggerJSON,
		&actionsJSON,
		&hook.Status,
		&hook.IsActive,
		&hook.SubscriptionId,
		&lastExecutedAt,
		&lastCheckedAt,
		&hook.CreatedAt,
		&hook.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan hook: %w", err)
	}

	if err := json.Unmarshal(triggerJSON, &hook.TriggerConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger config: %w", err)
	}
	if err := json.Unmarshal(actionsJSON, &hook.Actions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}
	if lastExecutedAt.Valid {
		hook.LastExecutedAt = &lastExecutedAt.Time
	}
	if lastCheckedAt.Valid {
		hook.LastCheckedAt = &lastCheckedAt.Time
	}
	return hook, nil
}
