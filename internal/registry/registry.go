// Package registry talks to the on-chain job registry that escrows rewards
// and tracks job status.
package registry

import (
	"context"

	"github.com/cuongbtq/render-jobs/internal/domain"
)

// Registry is the remote ledger contract as seen by the client
type Registry interface {
	// SubmitJob registers a job for contentHash and returns its id.
	// Rejections are reported as *domain.RegistrationError.
	SubmitJob(ctx context.Context, contentHash string, reward float64, deadlineHours int, wallet string) (string, error)

	// GetStatus returns the current remote status. Failures are *domain.QueryError.
	GetStatus(ctx context.Context, jobID string) (domain.Status, error)

	// GetResultHash returns the result hash; ok is false when nothing was published yet.
	GetResultHash(ctx context.Context, jobID string) (hash string, ok bool, err error)

	// CancelJob asks the registry to cancel a pending job.
	// It returns false, without error, when the job is no longer pending.
	CancelJob(ctx context.Context, jobID, wallet string) (bool, error)
}
