package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when an operation needs a connected wallet
	ErrNotConnected = errors.New("wallet not connected")

	// ErrInvalidReward is returned when the reward amount is not positive or out of range
	ErrInvalidReward = errors.New("invalid reward amount")

	// ErrInvalidDeadline is returned when the deadline is outside the accepted hours
	ErrInvalidDeadline = errors.New("invalid deadline")

	// ErrJobNotFound is returned when a job id is not present in the history
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotCompleted is returned when fetching the result of a job that is not COMPLETED
	ErrJobNotCompleted = errors.New("job is not completed yet")

	// ErrResultNotAvailable is returned when the registry has not published a result yet
	ErrResultNotAvailable = errors.New("result not available yet")

	// ErrPayloadTooLarge is returned when the scene payload exceeds the upload limit
	ErrPayloadTooLarge = errors.New("payload too large")
)

// UploadError wraps a failed content store upload
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return "upload failed: " + e.Err.Error()
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// DownloadError wraps a failed content store download
type DownloadError struct {
	Hash string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download of %s failed: %s", e.Hash, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// QueryError wraps a failed registry read (status or result hash)
type QueryError struct {
	JobID string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query for job %s failed: %s", e.JobID, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// RegistrationError wraps a ledger rejection of submitJob or cancelJob
type RegistrationError struct {
	Err error
}

func (e *RegistrationError) Error() string {
	return "registration failed: " + e.Err.Error()
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// ValidationError is returned when a render task has blocking issues
type ValidationError struct {
	Report ValidationReport
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("render task has %d blocking issue(s)", len(e.Report.Issues))
}

// IsRetryable reports whether err is a transient I/O failure the caller may retry
func IsRetryable(err error) bool {
	var (
		uploadErr   *UploadError
		downloadErr *DownloadError
		queryErr    *QueryError
	)
	if errors.Is(err, ErrPayloadTooLarge) {
		return false
	}
	return errors.As(err, &uploadErr) || errors.As(err, &downloadErr) || errors.As(err, &queryErr)
}
