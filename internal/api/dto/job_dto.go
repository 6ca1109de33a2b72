package dto

import (
	"time"

	"github.com/cuongbtq/render-jobs/internal/domain"
)

// SubmitJobRequest is the body of POST /api/v1/jobs.
// Payload is the packed scene, base64 encoded in JSON.
type SubmitJobRequest struct {
	Payload       []byte                `json:"payload" binding:"required"`
	Spec          domain.RenderTaskSpec `json:"spec"`
	RewardAmount  *float64              `json:"reward_amount"`
	DeadlineHours *int                  `json:"deadline_hours"`
}

type ListJobsRequest struct {
	Status   string `form:"status"`
	Active   bool   `form:"active"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type JobDTO struct {
	JobID         string  `json:"job_id"`
	SubmissionID  string  `json:"submission_id"`
	Status        string  `json:"status"`
	RewardAmount  float64 `json:"reward_amount"`
	DeadlineHours int     `json:"deadline_hours"`
	ContentHash   string  `json:"content_hash"`
	ResultHash    string  `json:"result_hash,omitempty"`
	ResultPath    string  `json:"result_path,omitempty"`
	Engine        string  `json:"engine"`
	OutputFormat  string  `json:"output_format"`
	SubmittedAt   string  `json:"submitted_at"`
	UpdatedAt     string  `json:"updated_at"`
	Deadline      string  `json:"deadline"`
}

// NewJobDTO renders a job for the API
func NewJobDTO(job domain.Job) JobDTO {
	return JobDTO{
		JobID:         job.JobID,
		SubmissionID:  job.SubmissionID,
		Status:        job.Status.String(),
		RewardAmount:  job.RewardAmount,
		DeadlineHours: job.DeadlineHours,
		ContentHash:   job.ContentHash,
		ResultHash:    job.ResultHash,
		ResultPath:    job.ResultPath,
		Engine:        string(job.Engine),
		OutputFormat:  string(job.OutputFormat),
		SubmittedAt:   job.SubmittedAt.Format(time.RFC3339),
		UpdatedAt:     job.UpdatedAt.Format(time.RFC3339),
		Deadline:      job.Deadline().Format(time.RFC3339),
	}
}

type ValidateResponse struct {
	Valid            bool     `json:"valid"`
	Issues           []string `json:"issues"`
	Warnings         []string `json:"warnings"`
	EstimatedMinutes int      `json:"estimated_minutes"`
}

type RefreshAllResponse struct {
	Updated int `json:"updated"`
}

type StatusResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type ResultResponse struct {
	JobID string `json:"job_id"`
	Path  string `json:"path"`
}

type CancelResponse struct {
	JobID     string `json:"job_id"`
	Cancelled bool   `json:"cancelled"`
}

// ContentResponse describes the uploaded scene payload as the content store sees it.
// Known is false when the store has no metadata for the hash.
type ContentResponse struct {
	JobID          string `json:"job_id"`
	ContentHash    string `json:"content_hash"`
	Known          bool   `json:"known"`
	DataSize       int64  `json:"data_size,omitempty"`
	CumulativeSize int64  `json:"cumulative_size,omitempty"`
	NumLinks       int    `json:"num_links,omitempty"`
	Size           string `json:"size,omitempty"`
}

type ConnectWalletRequest struct {
	WalletAddress string `json:"wallet_address"`
}

type WalletResponse struct {
	WalletAddress string `json:"wallet_address"`
	Connected     bool   `json:"connected"`
}

type ErrorResponse struct {
	Error     string                   `json:"error"`
	Code      string                   `json:"code"`
	Retryable bool                     `json:"retryable"`
	Report    *domain.ValidationReport `json:"report,omitempty"`
}
