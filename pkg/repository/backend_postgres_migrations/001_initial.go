package backend_postgres_migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upInitial, downInitial)
}

func upInitial(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS hook (
			id SERIAL PRIMARY KEY,
			external_id UUID NOT NULL DEFAULT gen_random_uuid() UNIQUE,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			trigger_type TEXT NOT NULL,
			trigger_config JSONB NOT NULL DEFAULT '{}',
			actions JSONB NOT NULL DEFAULT '[]',
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			is_active BOOLEAN NOT NULL DEFAULT true,
			subscription_id TEXT NOT NULL DEFAULT '',
			last_executed_at TIMESTAMP WITH TIME ZONE,
			last_checked_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_hook_user ON hook(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_hook_user_active ON hook(user_id) WHERE is_active = true`,
		`CREATE INDEX IF NOT EXISTS idx_hook_external_id ON hook(external_id)`,

		`CREATE TABLE IF NOT EXISTS hook_run (
			id SERIAL PRIMARY KEY,
			external_id UUID NOT NULL UNIQUE,
			hook_id INTEGER NOT NULL REFERENCES hook(id) ON DELETE CASCADE,
			status TEXT NOT NULL DEFAULT 'PENDING',
			triggered_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMP WITH TIME ZONE,
			error TEXT NOT NULL DEFAULT '',
			meta JSONB NOT NULL DEFAULT '{}'
		)`,

		`CREATE INDEX IF NOT EXISTS idx_hook_run_hook ON hook_run(hook_id, triggered_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_hook_run_external_id ON hook_run(external_id)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func downInitial(tx *sql.Tx) error {
	stmts := []string{
		`DROP TABLE IF EXISTS hook_run`,
		`DROP TABLE IF EXISTS hook`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
