// Package lifecycle drives render jobs from submission to result retrieval.
//
// The orchestrator is the only writer of the job history. Remote calls run
// outside the history lock; only the final commit of a result takes it.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cuongbtq/render-jobs/internal/contentstore"
	"github.com/cuongbtq/render-jobs/internal/domain"
	"github.com/cuongbtq/render-jobs/internal/events"
	"github.com/cuongbtq/render-jobs/internal/history"
	"github.com/cuongbtq/render-jobs/internal/metrics"
	"github.com/cuongbtq/render-jobs/internal/registry"
	"github.com/cuongbtq/render-jobs/internal/validator"
)

// DefaultRefreshConcurrency bounds parallel status queries in RefreshAll
const DefaultRefreshConcurrency = 4

// DefaultDownloadDir is where results land when no directory is configured
const DefaultDownloadDir = "render_downloads"

// Persister stores the history outside the process
type Persister interface {
	SaveJob(ctx context.Context, job domain.Job) error
	LoadJobs(ctx context.Context, limit int) ([]domain.Job, error)
	DeleteJobs(ctx context.Context, jobIDs []string) error
}

// Publisher announces lifecycle transitions
type Publisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// Config holds the orchestrator collaborators. Persister and Publisher are optional.
type Config struct {
	Store              contentstore.Store
	Registry           registry.Registry
	Validator          *validator.Validator
	History            *history.History
	Persister          Persister
	Publisher          Publisher
	Logger             *slog.Logger
	DownloadDir        string
	RefreshConcurrency int
	Clock              func() time.Time
}

// Orchestrator implements the job state machine
type Orchestrator struct {
	store       contentstore.Store
	registry    registry.Registry
	validator   *validator.Validator
	history     *history.History
	persister   Persister
	publisher   Publisher
	logger      *slog.Logger
	downloadDir string
	concurrency int
	now         func() time.Time
}

// New creates an orchestrator; Store and Registry are required
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, errors.New("content store is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("job registry is required")
	}

	o := &Orchestrator{
		store:       cfg.Store,
		registry:    cfg.Registry,
		validator:   cfg.Validator,
		history:     cfg.History,
		persister:   cfg.Persister,
		publisher:   cfg.Publisher,
		logger:      cfg.Logger,
		downloadDir: cfg.DownloadDir,
		concurrency: cfg.RefreshConcurrency,
		now:         cfg.Clock,
	}
	if o.validator == nil {
		o.validator = validator.New(validator.Config{})
	}
	if o.history == nil {
		o.history = history.New(history.DefaultMaxSize)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.downloadDir == "" {
		o.downloadDir = DefaultDownloadDir
	}
	if o.concurrency <= 0 {
		o.concurrency = DefaultRefreshConcurrency
	}
	if o.now == nil {
		o.now = time.Now
	}

	return o, nil
}

// Validate runs the scene validator
func (o *Orchestrator) Validate(spec domain.RenderTaskSpec) domain.ValidationReport {
	return o.validator.Validate(spec)
}

// Jobs returns the history, oldest first
func (o *Orchestrator) Jobs() []domain.Job {
	return o.history.List()
}

// Job returns one tracked job
func (o *Orchestrator) Job(jobID string) (domain.Job, error) {
	return o.history.Get(jobID)
}

// ActiveJobs returns the jobs still pending or in progress
func (o *Orchestrator) ActiveJobs() []domain.Job {
	return o.history.Active()
}

// Restore loads the persisted history. Without a persister it is a no-op.
func (o *Orchestrator) Restore(ctx context.Context) error {
	if o.persister == nil {
		return nil
	}

	jobs, err := o.persister.LoadJobs(ctx, o.history.MaxSize())
	if err != nil {
		return fmt.Errorf("failed to restore history: %w", err)
	}

	dropped := o.history.Restore(jobs)
	o.forget(ctx, dropped)
	o.updateGauges()

	o.logger.Info("History restored",
		slog.Int("jobs", o.history.Len()),
		slog.Int("active", len(o.history.Active())),
	)
	return nil
}

// StatInput asks the content store about the job's uploaded payload.
// Store failures are logged and reported as a nil result.
func (o *Orchestrator) StatInput(ctx context.Context, jobID string) (*contentstore.ObjectInfo, error) {
	job, err := o.history.Get(jobID)
	if err != nil {
		return nil, err
	}

	info, err := o.store.Stat(ctx, job.ContentHash)
	if err != nil {
		o.logger.Warn("Content stat failed",
			slog.String("job_id", jobID),
			slog.String("content_hash", job.ContentHash),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}
	return info, nil
}

// persist saves job; failures never fail the caller since the remote side already changed
func (o *Orchestrator) persist(ctx context.Context, job domain.Job) {
	if o.persister == nil {
		return
	}
	if err := o.persister.SaveJob(ctx, job); err != nil {
		o.logger.Warn("Failed to persist job",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
	}
}

func (o *Orchestrator) forget(ctx context.Context, jobs []domain.Job) {
	if o.persister == nil || len(jobs) == 0 {
		return
	}
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.JobID
	}
	if err := o.persister.DeleteJobs(ctx, ids); err != nil {
		o.logger.Warn("Failed to delete evicted jobs",
			slog.Int("count", len(ids)),
			slog.String("error", err.Error()),
		)
	}
}

func (o *Orchestrator) publish(ctx context.Context, ev events.Event) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, ev); err != nil {
		o.logger.Warn("Failed to publish event",
			slog.String("job_id", ev.JobID),
			slog.String("type", string(ev.Type)),
			slog.String("error", err.Error()),
		)
	}
}

func (o *Orchestrator) updateGauges() {
	metrics.HistorySize.Set(float64(o.history.Len()))
	metrics.ActiveJobs.Set(float64(len(o.history.Active())))
}
