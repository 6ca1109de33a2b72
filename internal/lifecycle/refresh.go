package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuongbtq/render-jobs/internal/domain"
	"github.com/cuongbtq/render-jobs/internal/events"
	"github.com/cuongbtq/render-jobs/internal/metrics"
)

var errNoChange = errors.New("status unchanged")

// RefreshOne reconciles a single job against the registry and returns its status.
// Terminal jobs are not queried. A failed query leaves the job untouched.
func (o *Orchestrator) RefreshOne(ctx context.Context, jobID string) (domain.Status, error) {
	job, err := o.history.Get(jobID)
	if err != nil {
		return "", err
	}
	if job.Status.IsTerminal() {
		return job.Status, nil
	}

	remote, err := o.queryStatus(ctx, jobID)
	if err != nil {
		return job.Status, err
	}

	current, _, err := o.commitStatus(ctx, jobID, remote)
	if err != nil {
		return "", err
	}
	return current, nil
}

// RefreshAll reconciles every non-terminal job and returns how many changed status.
// Per-job query failures are logged and skipped; only a cancelled ctx is returned.
func (o *Orchestrator) RefreshAll(ctx context.Context) (int, error) {
	active := o.history.Active()
	if len(active) == 0 {
		return 0, nil
	}

	start := time.Now()
	defer func() { metrics.RefreshDurationSeconds.Observe(time.Since(start).Seconds()) }()

	var (
		updated atomic.Int64
		wg      sync.WaitGroup
		jobsCh  = make(chan string)
	)

	workers := min(o.concurrency, len(active))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go o.refreshLoop(ctx, &wg, jobsCh, &updated)
	}

feed:
	for _, job := range active {
		select {
		case <-ctx.Done():
			break feed
		case jobsCh <- job.JobID:
		}
	}
	close(jobsCh)
	wg.Wait()

	count := int(updated.Load())
	o.logger.Info("Refresh completed",
		slog.Int("checked", len(active)),
		slog.Int("updated", count),
	)

	if err := ctx.Err(); err != nil {
		return count, err
	}
	return count, nil
}

// refreshLoop is one worker of the RefreshAll pool
func (o *Orchestrator) refreshLoop(ctx context.Context, wg *sync.WaitGroup, jobsCh <-chan string, updated *atomic.Int64) {
	defer wg.Done()

	for jobID := range jobsCh {
		remote, err := o.queryStatus(ctx, jobID)
		if err != nil {
			continue
		}

		_, changed, err := o.commitStatus(ctx, jobID, remote)
		if err != nil {
			o.logger.Debug("Job left history during refresh", slog.String("job_id", jobID))
			continue
		}
		if changed {
			updated.Add(1)
		}
	}
}

func (o *Orchestrator) queryStatus(ctx context.Context, jobID string) (domain.Status, error) {
	status, err := o.registry.GetStatus(ctx, jobID)
	if err != nil {
		metrics.RefreshErrorsTotal.Inc()
		o.logger.Warn("Status query failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		var queryErr *domain.QueryError
		if !errors.As(err, &queryErr) {
			err = &domain.QueryError{JobID: jobID, Err: err}
		}
		return "", err
	}
	return status, nil
}

// commitStatus writes remote into the history and reports whether the value changed.
// Terminal jobs and regressions from IN_PROGRESS back to PENDING are left as they are.
func (o *Orchestrator) commitStatus(ctx context.Context, jobID string, remote domain.Status) (domain.Status, bool, error) {
	var previous domain.Status
	job, err := o.history.Update(jobID, func(j *domain.Job) error {
		previous = j.Status
		if j.Status.IsTerminal() || j.Status == remote {
			return errNoChange
		}
		if j.Status == domain.StatusInProgress && remote == domain.StatusPending {
			return errNoChange
		}
		j.Status = remote
		j.UpdatedAt = o.now().UTC()
		return nil
	})
	if errors.Is(err, errNoChange) {
		return job.Status, false, nil
	}
	if err != nil {
		return "", false, err
	}

	metrics.StatusChangesTotal.WithLabelValues(string(remote)).Inc()
	o.updateGauges()
	o.persist(ctx, job)
	o.publish(ctx, events.Event{
		Type:           events.TypeStatusChanged,
		JobID:          jobID,
		Status:         job.Status,
		PreviousStatus: previous,
	})

	o.logger.Info("Job status changed",
		slog.String("job_id", jobID),
		slog.String("from", previous.String()),
		slog.String("to", job.Status.String()),
	)
	return job.Status, true, nil
}
