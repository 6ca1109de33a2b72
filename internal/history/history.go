// Package history holds the ordered, size-bounded collection of tracked jobs.
//
// Reads take a shared lock and return copies, so a display can poll the
// history at any time without observing a half-applied mutation.
package history

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cuongbtq/render-jobs/internal/domain"
)

// Size limits for the history
const (
	DefaultMaxSize = 50
	MinMaxSize     = 10
	MaxMaxSize     = 500
)

// ErrDuplicateJob is returned when appending a job whose id is already tracked
var ErrDuplicateJob = errors.New("duplicate job id")

// History is the ordered list of tracked jobs, oldest first
type History struct {
	mu      sync.RWMutex
	jobs    []*domain.Job
	index   map[string]*domain.Job
	maxSize int
}

// New creates an empty history holding at most maxSize jobs
func New(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &History{
		index:   make(map[string]*domain.Job),
		maxSize: maxSize,
	}
}

// MaxSize returns the configured bound
func (h *History) MaxSize() int {
	return h.maxSize
}

// Append adds job at the newest end and evicts the oldest jobs beyond the bound.
// The evicted jobs are returned so callers can drop them from persistence.
func (h *History) Append(job domain.Job) ([]domain.Job, error) {
	if job.JobID == "" {
		return nil, fmt.Errorf("cannot append job without id")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.index[job.JobID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, job.JobID)
	}

	stored := job
	h.jobs = append(h.jobs, &stored)
	h.index[stored.JobID] = &stored

	return h.evictLocked(), nil
}

func (h *History) evictLocked() []domain.Job {
	over := len(h.jobs) - h.maxSize
	if over <= 0 {
		return nil
	}

	evicted := make([]domain.Job, 0, over)
	for _, j := range h.jobs[:over] {
		evicted = append(evicted, *j)
		delete(h.index, j.JobID)
	}

	kept := make([]*domain.Job, len(h.jobs)-over)
	copy(kept, h.jobs[over:])
	h.jobs = kept

	return evicted
}

// Get returns a copy of the job with the given id
func (h *History) Get(jobID string) (domain.Job, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	j, ok := h.index[jobID]
	if !ok {
		return domain.Job{}, fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
	}
	return *j, nil
}

// Update runs fn on the stored job under the exclusive lock.
// fn must not block on I/O. If fn returns an error the job is left untouched.
func (h *History) Update(jobID string, fn func(*domain.Job) error) (domain.Job, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	j, ok := h.index[jobID]
	if !ok {
		return domain.Job{}, fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
	}

	draft := *j
	if err := fn(&draft); err != nil {
		return *j, err
	}
	draft.JobID = j.JobID
	*j = draft

	return *j, nil
}

// List returns copies of all jobs, oldest first
func (h *History) List() []domain.Job {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.Job, len(h.jobs))
	for i, j := range h.jobs {
		out[i] = *j
	}
	return out
}

// Active returns copies of the jobs still pending or in progress
func (h *History) Active() []domain.Job {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.Job, 0)
	for _, j := range h.jobs {
		if j.Status.IsActive() {
			out = append(out, *j)
		}
	}
	return out
}

// Len returns the number of tracked jobs
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.jobs)
}

// Restore replaces the content with jobs (oldest first), dropping duplicates and
// applying the size bound. It returns the jobs that did not fit.
func (h *History) Restore(jobs []domain.Job) []domain.Job {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.jobs = h.jobs[:0]
	h.index = make(map[string]*domain.Job, len(jobs))
	for _, j := range jobs {
		if j.JobID == "" {
			continue
		}
		if _, ok := h.index[j.JobID]; ok {
			continue
		}
		stored := j
		h.jobs = append(h.jobs, &stored)
		h.index[stored.JobID] = &stored
	}
	return h.evictLocked()
}
