package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/cuongbtq/render-jobs/internal/domain"
)

// MemoryJob is the ledger record kept by Memory
type MemoryJob struct {
	ContentHash   string
	RewardAmount  float64
	DeadlineHours int
	Wallet        string
	Status        domain.Status
	ResultHash    string
}

// Memory is a deterministic in-process Registry. It backs the offline mode of
// the client and is configured explicitly by tests; nothing in it is random.
type Memory struct {
	mu        sync.Mutex
	jobs      map[string]*MemoryJob
	ids       []string
	seq       int
	errs      map[string]error
	jobErrs   map[string]error
	callCount map[string]int
}

// NewMemory creates an empty in-memory registry
func NewMemory() *Memory {
	return &Memory{
		jobs:      make(map[string]*MemoryJob),
		errs:      make(map[string]error),
		jobErrs:   make(map[string]error),
		callCount: make(map[string]int),
	}
}

// QueueIDs makes the next SubmitJob calls return ids in order; afterwards ids are sequential.
func (m *Memory) QueueIDs(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, ids...)
}

// Seed registers a job directly, bypassing SubmitJob
func (m *Memory) Seed(jobID string, status domain.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[jobID] = &MemoryJob{Status: status}
}

// SetStatus changes the remote status of jobID
func (m *Memory) SetStatus(jobID string, status domain.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[jobID]; ok {
		j.Status = status
		return
	}
	m.jobs[jobID] = &MemoryJob{Status: status}
}

// Complete marks jobID completed and publishes resultHash (empty means not yet published)
func (m *Memory) Complete(jobID, resultHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		j = &MemoryJob{}
		m.jobs[jobID] = j
	}
	j.Status = domain.StatusCompleted
	j.ResultHash = resultHash
}

// FailMethod makes every call of method fail with err until cleared with a nil err
func (m *Memory) FailMethod(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, method)
		return
	}
	m.errs[method] = err
}

// FailJob makes status and result queries for jobID fail with err until cleared with nil
func (m *Memory) FailJob(jobID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.jobErrs, jobID)
		return
	}
	m.jobErrs[jobID] = err
}

// Job returns a copy of the ledger record for jobID
func (m *Memory) Job(jobID string) (MemoryJob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return MemoryJob{}, false
	}
	return *j, true
}

// Calls returns how many times method was invoked
func (m *Memory) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount[method]
}

// SubmitJob implements Registry
func (m *Memory) SubmitJob(_ context.Context, contentHash string, reward float64, deadlineHours int, wallet string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount[MethodSubmitJob]++

	if err := m.errs[MethodSubmitJob]; err != nil {
		return "", &domain.RegistrationError{Err: err}
	}
	if wallet == "" {
		return "", &domain.RegistrationError{Err: fmt.Errorf("malformed wallet address")}
	}

	var id string
	if len(m.ids) > 0 {
		id, m.ids = m.ids[0], m.ids[1:]
	} else {
		m.seq++
		id = fmt.Sprintf("job-%04d", m.seq)
	}
	if _, exists := m.jobs[id]; exists {
		return "", &domain.RegistrationError{Err: fmt.Errorf("job id %s already registered", id)}
	}

	m.jobs[id] = &MemoryJob{
		ContentHash:   contentHash,
		RewardAmount:  reward,
		DeadlineHours: deadlineHours,
		Wallet:        wallet,
		Status:        domain.StatusPending,
	}
	return id, nil
}

// GetStatus implements Registry
func (m *Memory) GetStatus(_ context.Context, jobID string) (domain.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount[MethodGetStatus]++

	if err := m.queryErrLocked(MethodGetStatus, jobID); err != nil {
		return "", err
	}
	j, ok := m.jobs[jobID]
	if !ok {
		return "", &domain.QueryError{JobID: jobID, Err: fmt.Errorf("unknown job")}
	}
	return j.Status, nil
}

// GetResultHash implements Registry
func (m *Memory) GetResultHash(_ context.Context, jobID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount[MethodGetResultHash]++

	if err := m.queryErrLocked(MethodGetResultHash, jobID); err != nil {
		return "", false, err
	}
	j, ok := m.jobs[jobID]
	if !ok || j.ResultHash == "" {
		return "", false, nil
	}
	return j.ResultHash, true, nil
}

// CancelJob implements Registry
func (m *Memory) CancelJob(_ context.Context, jobID, wallet string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount[MethodCancelJob]++

	if err := m.errs[MethodCancelJob]; err != nil {
		return false, &domain.RegistrationError{Err: err}
	}
	j, ok := m.jobs[jobID]
	if !ok || j.Status != domain.StatusPending {
		return false, nil
	}
	if j.Wallet != "" && j.Wallet != wallet {
		return false, &domain.RegistrationError{Err: fmt.Errorf("wallet %s does not own job %s", wallet, jobID)}
	}
	j.Status = domain.StatusCancelled
	return true, nil
}

func (m *Memory) queryErrLocked(method, jobID string) error {
	if err := m.jobErrs[jobID]; err != nil {
		return &domain.QueryError{JobID: jobID, Err: err}
	}
	if err := m.errs[method]; err != nil {
		return &domain.QueryError{JobID: jobID, Err: err}
	}
	return nil
}
