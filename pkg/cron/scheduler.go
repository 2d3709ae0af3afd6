// Package cron owns the mapping between CRON hooks and entries in the
// external scheduler (pg_cron jobs that call back into the execution
// endpoint through pg_net).
package cron

import (
	"context"
	"database/sql"
	"fmt"
)

// Job is one scheduler entry, as listed from cron.job.
type Job struct {
	JobId    int64  `json:"job_id"`
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	Command  string `json:"command"`
	Active   bool   `json:"active"`
}

// SchedulerClient issues commands to the external cron scheduler.
type SchedulerClient interface {
	// ScheduleJob creates or replaces a named job.
	ScheduleJob(ctx context.Context, name, schedule, command string) error
	// SetJobActive enables or disables a job without removing its
	// definition (cheap to re-enable, no expression re-validation).
	SetJobActive(ctx context.Context, name string, active bool) error
	// UnscheduleJob removes a job.
	UnscheduleJob(ctx context.Context, name string) error
	// ListJobs enumerates jobs whose name starts with prefix.
	ListJobs(ctx context.Context, prefix string) ([]Job, error)
}

// PostgresScheduler drives pg_cron through the existing database
// connection. pg_cron upserts on name, so ScheduleJob is idempotent.
type PostgresScheduler struct {
	db *sql.DB
}

func NewPostgresScheduler(db *sql.DB) *PostgresScheduler {
	return &PostgresScheduler{db: db}
}

func (s *PostgresScheduler) ScheduleJob(ctx context.Context, name, schedule, command string) error {
	if _, err := s.db.ExecContext(ctx, `SELECT cron.schedule($1, $2, $3)`, name, schedule, command); err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	return nil
}

func (s *PostgresScheduler) SetJobActive(ctx context.Context, name string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE cron.job SET active = $2 WHERE jobname = $1`, name, active)
	if err != nil {
		return fmt.Errorf("set job %s active=%t: %w", name, active, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set job %s active=%t: job not found", name, active)
	}
	return nil
}

func (s *PostgresScheduler) UnscheduleJob(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `SELECT cron.unschedule($1)`, name); err != nil {
		return fmt.Errorf("unschedule job %s: %w", name, err)
	}
	return nil
}

func (s *PostgresScheduler) ListJobs(ctx context.Context, prefix string) ([]Job, error) {
	query := `
		SELECT jobid, jobname, schedule, command, active
		FROM cron.job
		WHERE jobname LIKE $1 || '%'
		ORDER BY jobname
	`
	rows, err := s.db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.JobId, &j.Name, &j.Schedule, &j.Command, &j.Active); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

var _ SchedulerClient = (*PostgresScheduler)(nil)
