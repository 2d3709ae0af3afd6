package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sanketnighot/hookified/pkg/types"
)

// BackendRepository is the main Postgres repository for persistent data.
type BackendRepository interface {
	// Hooks
	CreateHook(ctx context.Context, hook *types.Hook) (*types.Hook, error)
	GetHook(ctx context.Context, externalId string) (*types.Hook, error)
	GetHookById(ctx context.Context, id uint) (*types.Hook, error)
	ListHooks(ctx context.Context, userId uint) ([]*types.Hook, error)
	UpdateHook(ctx context.Context, hook *types.Hook) error
	UpdateHookStatus(ctx context.Context, id uint, status types.HookStatus) error
	TouchHookExecuted(ctx context.Context, id uint, executedAt time.Time) error
	DeleteHook(ctx context.Context, externalId string) error

	// Runs
	CreateRun(ctx context.Context, run *types.HookRun) (*types.HookRun, error)
	CompleteRun(ctx context.Context, run *types.HookRun) error
	GetRun(ctx context.Context, externalId string) (*types.HookRun, error)
	ListRuns(ctx context.Context, hookId uint, limit, offset int) ([]*types.HookRun, error)

	// Database access
	DB() *sql.DB

	// Utilities
	Ping(ctx context.Context) error
	Close() error
	RunMigrations() error
}
