package storage

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/cuongbtq/render-jobs/internal/domain"
	"github.com/cuongbtq/render-jobs/shared/postgresql"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS render_jobs (
	job_id         TEXT PRIMARY KEY,
	submission_id  TEXT NOT NULL,
	status         TEXT NOT NULL,
	reward_amount  DOUBLE PRECISION NOT NULL,
	deadline_hours INTEGER NOT NULL,
	content_hash   TEXT NOT NULL,
	result_hash    TEXT NOT NULL DEFAULT '',
	result_path    TEXT NOT NULL DEFAULT '',
	engine         TEXT NOT NULL DEFAULT '',
	output_format  TEXT NOT NULL DEFAULT '',
	submitted_at   TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_render_jobs_submitted_at ON render_jobs (submitted_at DESC);
`

const upsertJob = `
	INSERT INTO render_jobs (
		job_id, submission_id, status, reward_amount, deadline_hours,
		content_hash, result_hash, result_path, engine, output_format,
		submitted_at, updated_at
	) VALUES (
		:job_id, :submission_id, :status, :reward_amount, :deadline_hours,
		:content_hash, :result_hash, :result_path, :engine, :output_format,
		:submitted_at, :updated_at
	)
	ON CONFLICT (job_id) DO UPDATE SET
		status      = EXCLUDED.status,
		result_hash = EXCLUDED.result_hash,
		result_path = EXCLUDED.result_path,
		updated_at  = EXCLUDED.updated_at
`

// Storage persists the job history in PostgreSQL so it survives restarts
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.DB(),
		logger: logger,
	}
}

// EnsureSchema creates the history table when it does not exist yet
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveJob inserts a job or updates its mutable columns
func (s *Storage) SaveJob(ctx context.Context, job domain.Job) error {
	if _, err := s.db.NamedExecContext(ctx, upsertJob, job); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.JobID, err)
	}

	s.logger.Debug("Job persisted",
		slog.String("job_id", job.JobID),
		slog.String("status", job.Status.String()),
	)
	return nil
}

// LoadJobs returns up to limit of the most recent jobs, oldest first
func (s *Storage) LoadJobs(ctx context.Context, limit int) ([]domain.Job, error) {
	query := `
		SELECT
			job_id, submission_id, status, reward_amount, deadline_hours,
			content_hash, result_hash, result_path, engine, output_format,
			submitted_at, updated_at
		FROM render_jobs
		ORDER BY submitted_at DESC, job_id DESC
		LIMIT $1
	`

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}

	slices.Reverse(jobs)
	return jobs, nil
}

// DeleteJobs removes jobs that fell out of the in-memory history
func (s *Storage) DeleteJobs(ctx context.Context, jobIDs []string) error {
	if len(jobIDs) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM render_jobs WHERE job_id IN (?)`, jobIDs)
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to delete jobs: %w", err)
	}
	return nil
}
