package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/render-jobs/internal/contentstore"
	"github.com/cuongbtq/render-jobs/internal/domain"
)

// Service is the lifecycle surface the handlers drive
type Service interface {
	Submit(ctx context.Context, sub domain.Submission, creds domain.Credentials) (*domain.Job, error)
	RefreshOne(ctx context.Context, jobID string) (domain.Status, error)
	RefreshAll(ctx context.Context) (int, error)
	FetchResult(ctx context.Context, jobID string) (string, error)
	Cancel(ctx context.Context, jobID string, creds domain.Credentials) (bool, error)
	Validate(spec domain.RenderTaskSpec) domain.ValidationReport
	Jobs() []domain.Job
	ActiveJobs() []domain.Job
	Job(jobID string) (domain.Job, error)
	StatInput(ctx context.Context, jobID string) (*contentstore.ObjectInfo, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger               *slog.Logger
	Service              Service
	Session              *Session
	DefaultReward        float64
	DefaultDeadlineHours int
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger          *slog.Logger
	service         Service
	session         *Session
	defaultReward   float64
	defaultDeadline int
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	h := &JobHandler{
		logger:          deps.Logger,
		service:         deps.Service,
		session:         deps.Session,
		defaultReward:   deps.DefaultReward,
		defaultDeadline: deps.DefaultDeadlineHours,
	}
	if h.defaultReward == 0 {
		h.defaultReward = domain.DefaultRewardAmount
	}
	if h.defaultDeadline == 0 {
		h.defaultDeadline = domain.DefaultDeadlineHours
	}
	return h
}
