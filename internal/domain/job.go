package domain

import "time"

// Reward and deadline bounds accepted by the job registry
const (
	MinRewardAmount      = 0.1
	MaxRewardAmount      = 10000.0
	DefaultRewardAmount  = 10.0
	MinDeadlineHours     = 1
	MaxDeadlineHours     = 168
	DefaultDeadlineHours = 24
)

// Job is a render job that has been uploaded and registered.
// A Job only exists once both steps succeeded; it is mutated by the lifecycle orchestrator only.
type Job struct {
	JobID         string       `json:"job_id" db:"job_id"`
	SubmissionID  string       `json:"submission_id" db:"submission_id"`
	Status        Status       `json:"status" db:"status"`
	RewardAmount  float64      `json:"reward_amount" db:"reward_amount"`
	DeadlineHours int          `json:"deadline_hours" db:"deadline_hours"`
	ContentHash   string       `json:"content_hash" db:"content_hash"`
	ResultHash    string       `json:"result_hash,omitempty" db:"result_hash"`
	ResultPath    string       `json:"result_path,omitempty" db:"result_path"`
	Engine        Engine       `json:"engine" db:"engine"`
	OutputFormat  OutputFormat `json:"output_format" db:"output_format"`
	SubmittedAt   time.Time    `json:"submitted_at" db:"submitted_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// Deadline returns the point in time after which the registry may expire the job
func (j *Job) Deadline() time.Time {
	return j.SubmittedAt.Add(time.Duration(j.DeadlineHours) * time.Hour)
}

// Submission is everything the render host hands over to start a job.
// Payload is the already packed scene; it is treated as an opaque blob.
type Submission struct {
	Payload       []byte
	Spec          RenderTaskSpec
	RewardAmount  float64
	DeadlineHours int
}

// Credentials holds the wallet and endpoint settings used for a single operation
type Credentials struct {
	WalletAddress     string
	Connected         bool
	RPCURL            string
	ContractAddress   string
	ContentAPIURL     string
	ContentGatewayURL string
}
