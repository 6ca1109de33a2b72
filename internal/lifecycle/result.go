package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cuongbtq/render-jobs/internal/domain"
	"github.com/cuongbtq/render-jobs/internal/events"
	"github.com/cuongbtq/render-jobs/internal/metrics"
)

// ResultPath returns where the result with hash is stored under dir
func ResultPath(dir, hash string) string {
	return filepath.Join(dir, hash+".zip")
}

// checkResultHash rejects hashes that would not name a single file under the download dir
func checkResultHash(hash string) error {
	if hash == "" || hash == "." || hash == ".." ||
		strings.ContainsAny(hash, `/\`) || strings.Contains(hash, "..") ||
		filepath.Base(hash) != hash {
		return fmt.Errorf("unsafe result hash %q", hash)
	}
	return nil
}

// FetchResult downloads the result of a completed job and returns the local path.
// The result hash is resolved from the registry once and cached on the job.
func (o *Orchestrator) FetchResult(ctx context.Context, jobID string) (string, error) {
	job, err := o.history.Get(jobID)
	if err != nil {
		return "", err
	}
	if job.Status != domain.StatusCompleted {
		return "", fmt.Errorf("%w: job %s is %s", domain.ErrJobNotCompleted, jobID, job.Status)
	}

	hash := job.ResultHash
	if hash == "" {
		hash, err = o.resolveResultHash(ctx, jobID)
		if err != nil {
			return "", err
		}
	} else if err := checkResultHash(hash); err != nil {
		return "", &domain.DownloadError{Hash: hash, Err: err}
	}

	dest := ResultPath(o.downloadDir, hash)
	o.logger.Info("Downloading result",
		slog.String("job_id", jobID),
		slog.String("result_hash", hash),
		slog.String("path", dest),
	)

	if err := o.store.Download(ctx, hash, dest); err != nil {
		metrics.ResultsFetchedTotal.WithLabelValues(metrics.BoolLabel(false)).Inc()
		o.logger.Error("Result download failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		var downloadErr *domain.DownloadError
		if !errors.As(err, &downloadErr) {
			err = &domain.DownloadError{Hash: hash, Err: err}
		}
		return "", err
	}
	metrics.ResultsFetchedTotal.WithLabelValues(metrics.BoolLabel(true)).Inc()

	updated, err := o.history.Update(jobID, func(j *domain.Job) error {
		j.ResultPath = dest
		j.UpdatedAt = o.now().UTC()
		return nil
	})
	if err != nil {
		// evicted while downloading; the file is still on disk
		o.logger.Warn("Job left history during download", slog.String("job_id", jobID))
		return dest, nil
	}

	o.persist(ctx, updated)
	o.publish(ctx, events.Event{
		Type:       events.TypeResultFetched,
		JobID:      jobID,
		Status:     updated.Status,
		ResultHash: updated.ResultHash,
		ResultPath: dest,
	})

	return dest, nil
}

func (o *Orchestrator) resolveResultHash(ctx context.Context, jobID string) (string, error) {
	hash, ok, err := o.registry.GetResultHash(ctx, jobID)
	if err != nil {
		var queryErr *domain.QueryError
		if !errors.As(err, &queryErr) {
			err = &domain.QueryError{JobID: jobID, Err: err}
		}
		return "", err
	}
	if !ok || hash == "" {
		return "", fmt.Errorf("%w: job %s", domain.ErrResultNotAvailable, jobID)
	}
	if err := checkResultHash(hash); err != nil {
		o.logger.Error("Registry published an unusable result hash",
			slog.String("job_id", jobID),
			slog.String("result_hash", hash),
		)
		return "", &domain.QueryError{JobID: jobID, Err: err}
	}

	// first writer wins; the hash never changes once set
	job, err := o.history.Update(jobID, func(j *domain.Job) error {
		if j.ResultHash == "" {
			j.ResultHash = hash
			j.UpdatedAt = o.now().UTC()
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	o.persist(ctx, job)
	return job.ResultHash, nil
}

// Cancel asks the registry to cancel a pending job. It returns false without a
// remote call when the job is not pending locally.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string, creds domain.Credentials) (bool, error) {
	job, err := o.history.Get(jobID)
	if err != nil {
		return false, err
	}
	if job.Status != domain.StatusPending {
		metrics.CancellationsTotal.WithLabelValues(metrics.BoolLabel(false)).Inc()
		return false, nil
	}
	if !creds.Connected || creds.WalletAddress == "" {
		return false, domain.ErrNotConnected
	}

	ok, err := o.registry.CancelJob(ctx, jobID, creds.WalletAddress)
	if err != nil {
		o.logger.Error("Cancel request failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		var regErr *domain.RegistrationError
		if !errors.As(err, &regErr) {
			err = &domain.RegistrationError{Err: err}
		}
		return false, err
	}
	metrics.CancellationsTotal.WithLabelValues(metrics.BoolLabel(ok)).Inc()
	if !ok {
		o.logger.Info("Registry declined cancellation", slog.String("job_id", jobID))
		return false, nil
	}

	var previous domain.Status
	updated, err := o.history.Update(jobID, func(j *domain.Job) error {
		previous = j.Status
		if j.Status.IsTerminal() {
			return errNoChange
		}
		j.Status = domain.StatusCancelled
		j.UpdatedAt = o.now().UTC()
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		return true, nil
	}
	if err == nil {
		o.updateGauges()
		o.persist(ctx, updated)
		o.publish(ctx, events.Event{
			Type:           events.TypeCancelled,
			JobID:          jobID,
			Status:         updated.Status,
			PreviousStatus: previous,
		})
	}

	o.logger.Info("Job cancelled", slog.String("job_id", jobID))
	return true, nil
}
