package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sanketnighot/hookified/pkg/types"
)

// Run methods on PostgresBackend

// CreateRun inserts a PENDING run row before any action executes, so a
// crash mid-pipeline still leaves an auditable record.
func (b *PostgresBackend) CreateRun(ctx context.Context, run *types.HookRun) (*types.HookRun, error) {
	metaJSON, err := json.Marshal(run.Meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run meta: %w", err)
	}

	query := `
		INSERT INTO hook_run (external_id, hook_id, status, triggered_at, meta)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = b.db.QueryRowContext(ctx, query,
		run.ExternalId, run.HookId, run.Status, run.TriggeredAt, metaJSON,
	).Scan(&run.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun writes the terminal state. Only PENDING rows are touched so
// a run can never move between terminal states.
func (b *PostgresBackend) CompleteRun(ctx context.Context, run *types.HookRun) error {
	metaJSON, err := json.Marshal(run.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal run meta: %w", err)
	}

	query := `
		UPDATE hook_run
		SET status = $2, completed_at = $3, error = $4, meta = $5
		WHERE external_id = $1 AND status = 'PENDING'
	`
	res, err := b.db.ExecContext(ctx, query,
		run.ExternalId, run.Status, run.CompletedAt, run.Error, metaJSON)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &types.ErrRunNotFound{ExternalId: run.ExternalId}
	}
	return nil
}

const runColumns = `id, external_id, hook_id, status, triggered_at, completed_at, error, meta`

// GetRun retrieves a run by external ID.
func (b *PostgresBackend) GetRun(ctx context.Context, externalId string) (*types.HookRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM hook_run WHERE external_id = $1`, runColumns)
	run, err := b.scanRun(b.db.QueryRowContext(ctx, query, externalId))
	if err == sql.ErrNoRows {
		return nil, &types.ErrRunNotFound{ExternalId: externalId}
	}
	return run, err
}

// ListRuns returns runs for a hook, newest first.
func (b *PostgresBackend) ListRuns(ctx context.Context, hookId uint, limit, offset int) ([]*types.HookRun, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM hook_run
		WHERE hook_id = $1
		ORDER BY triggered_at DESC
		LIMIT $2 OFFSET $3
	`, runColumns)

	rows, err := b.db.QueryContext(ctx, query, hookId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.HookRun
	for rows.Next() {
		run, err := b.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// scanRun scans a run row into a HookRun struct.
func (b *PostgresBackend) scanRun(row rowScanner) (*types.HookRun, error) {
	run := &types.HookRun{}
	var metaJSON []byte
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(
		&run.Id,
		&run.ExternalId,
		&run.HookId,
		&run.Status,
		&run.TriggeredAt,
		&completedAt,
		&errMsg,
		&metaJSON,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	if err := json.Unmarshal(metaJSON, &run.Meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run meta: %w", err)
	}
	return run, nil
}
