package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/render-jobs/internal/domain"
	"github.com/cuongbtq/render-jobs/internal/events"
	"github.com/cuongbtq/render-jobs/internal/metrics"
	"github.com/google/uuid"
)

// Submit uploads the payload, registers the job and starts tracking it.
// A job enters the history only when both remote steps succeeded.
func (o *Orchestrator) Submit(ctx context.Context, sub domain.Submission, creds domain.Credentials) (*domain.Job, error) {
	if err := checkSubmission(sub, creds); err != nil {
		metrics.SubmitFailuresTotal.WithLabelValues(metrics.StageValidate).Inc()
		return nil, err
	}

	report := o.validator.Validate(sub.Spec)
	if !report.Valid {
		metrics.SubmitFailuresTotal.WithLabelValues(metrics.StageValidate).Inc()
		return nil, &domain.ValidationError{Report: report}
	}

	submissionID := uuid.NewString()
	logger := o.logger.With(slog.String("submission_id", submissionID))
	for _, w := range report.Warnings {
		logger.Warn("Render task warning", slog.String("warning", w))
	}

	logger.Info("Uploading scene payload",
		slog.String("size", domain.FormatSize(int64(len(sub.Payload)))),
	)
	contentHash, err := o.store.Upload(ctx, sub.Payload)
	if err != nil {
		metrics.SubmitFailuresTotal.WithLabelValues(metrics.StageUpload).Inc()
		logger.Error("Scene upload failed", slog.String("error", err.Error()))
		var uploadErr *domain.UploadError
		if !errors.As(err, &uploadErr) {
			err = &domain.UploadError{Err: err}
		}
		return nil, err
	}

	jobID, err := o.registry.SubmitJob(ctx, contentHash, sub.RewardAmount, sub.DeadlineHours, creds.WalletAddress)
	if err != nil {
		metrics.SubmitFailuresTotal.WithLabelValues(metrics.StageRegister).Inc()
		logger.Error("Job registration failed",
			slog.String("content_hash", contentHash),
			slog.String("error", err.Error()),
		)
		var regErr *domain.RegistrationError
		if !errors.As(err, &regErr) {
			err = &domain.RegistrationError{Err: err}
		}
		return nil, err
	}

	now := o.now().UTC()
	job := domain.Job{
		JobID:         jobID,
		SubmissionID:  submissionID,
		Status:        domain.StatusPending,
		RewardAmount:  sub.RewardAmount,
		DeadlineHours: sub.DeadlineHours,
		ContentHash:   contentHash,
		Engine:        sub.Spec.Engine,
		OutputFormat:  sub.Spec.OutputFormat,
		SubmittedAt:   now,
		UpdatedAt:     now,
	}

	evicted, err := o.history.Append(job)
	if err != nil {
		metrics.SubmitFailuresTotal.WithLabelValues(metrics.StageRegister).Inc()
		// the remote job exists and holds the reward; only the local entry is missing
		logger.Error("Registered job could not be tracked",
			slog.String("job_id", jobID),
			slog.String("content_hash", contentHash),
			slog.String("error", err.Error()),
		)
		return nil, &domain.RegistrationError{Err: fmt.Errorf("registry returned job id %s: %w", jobID, err)}
	}

	metrics.JobsSubmittedTotal.WithLabelValues(string(job.Engine)).Inc()
	o.updateGauges()
	o.persist(ctx, job)
	o.forget(ctx, evicted)
	o.publish(ctx, events.Event{
		Type:        events.TypeSubmitted,
		JobID:       job.JobID,
		Status:      job.Status,
		ContentHash: job.ContentHash,
	})

	logger.Info("Job submitted",
		slog.String("job_id", job.JobID),
		slog.String("content_hash", contentHash),
		slog.Float64("reward_amount", job.RewardAmount),
		slog.Int("deadline_hours", job.DeadlineHours),
	)

	return &job, nil
}

// checkSubmission enforces the preconditions that must hold before any network call
func checkSubmission(sub domain.Submission, creds domain.Credentials) error {
	if !creds.Connected || creds.WalletAddress == "" {
		return domain.ErrNotConnected
	}
	if sub.RewardAmount <= 0 {
		return fmt.Errorf("%w: must be greater than 0", domain.ErrInvalidReward)
	}
	if sub.RewardAmount < domain.MinRewardAmount || sub.RewardAmount > domain.MaxRewardAmount {
		return fmt.Errorf("%w: %v is outside %v..%v",
			domain.ErrInvalidReward, sub.RewardAmount, domain.MinRewardAmount, domain.MaxRewardAmount)
	}
	if sub.DeadlineHours < domain.MinDeadlineHours || sub.DeadlineHours > domain.MaxDeadlineHours {
		return fmt.Errorf("%w: %d hours is outside %d..%d",
			domain.ErrInvalidDeadline, sub.DeadlineHours, domain.MinDeadlineHours, domain.MaxDeadlineHours)
	}
	return nil
}
