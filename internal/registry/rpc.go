package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ybbus/jsonrpc/v3"

	"github.com/cuongbtq/render-jobs/internal/domain"
)

// DefaultCallTimeout bounds every registry call
const DefaultCallTimeout = 15 * time.Second

// JSON-RPC method names exposed by the registry gateway
const (
	MethodSubmitJob     = "registry_submitJob"
	MethodGetStatus     = "registry_getStatus"
	MethodGetResultHash = "registry_getResultHash"
	MethodCancelJob     = "registry_cancelJob"
)

// RPCConfig holds the ledger endpoint configuration
type RPCConfig struct {
	RPCURL          string
	ContractAddress string
	CallTimeout     time.Duration
	HTTPClient      *http.Client
}

// RPCClient implements Registry over JSON-RPC 2.0
type RPCClient struct {
	contract string
	timeout  time.Duration
	rpc      jsonrpc.RPCClient
	logger   *slog.Logger
}

// NewRPCClient creates a new RPCClient
func NewRPCClient(cfg *RPCConfig, logger *slog.Logger) *RPCClient {
	c := &RPCClient{
		contract: cfg.ContractAddress,
		timeout:  cfg.CallTimeout,
		logger:   logger,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultCallTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c.rpc = jsonrpc.NewClientWithOpts(cfg.RPCURL, &jsonrpc.RPCClientOpts{
		HTTPClient:         httpClient,
		AllowUnknownFields: true,
	})
	return c
}

type submitParams struct {
	Contract      string  `json:"contract_address"`
	ContentHash   string  `json:"content_hash"`
	RewardAmount  float64 `json:"reward_amount"`
	DeadlineHours int     `json:"deadline_hours"`
	Wallet        string  `json:"wallet_address"`
}

type jobParams struct {
	Contract string `json:"contract_address"`
	JobID    string `json:"job_id"`
	Wallet   string `json:"wallet_address,omitempty"`
}

// SubmitJob registers a new job on the ledger
func (c *RPCClient) SubmitJob(ctx context.Context, contentHash string, reward float64, deadlineHours int, wallet string) (string, error) {
	var result struct {
		JobID string `json:"job_id"`
	}
	err := c.call(ctx, MethodSubmitJob, submitParams{
		Contract:      c.contract,
		ContentHash:   contentHash,
		RewardAmount:  reward,
		DeadlineHours: deadlineHours,
		Wallet:        wallet,
	}, &result)
	if err != nil {
		return "", &domain.RegistrationError{Err: err}
	}
	if result.JobID == "" {
		return "", &domain.RegistrationError{Err: fmt.Errorf("registry returned an empty job id")}
	}

	c.logger.Info("Job registered",
		slog.String("job_id", result.JobID),
		slog.String("content_hash", contentHash),
		slog.Float64("reward_amount", reward),
	)

	return result.JobID, nil
}

// GetStatus queries the remote status of jobID
func (c *RPCClient) GetStatus(ctx context.Context, jobID string) (domain.Status, error) {
	var result struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, MethodGetStatus, jobParams{Contract: c.contract, JobID: jobID}, &result); err != nil {
		return "", &domain.QueryError{JobID: jobID, Err: err}
	}

	status, err := domain.ParseStatus(result.Status)
	if err != nil {
		return "", &domain.QueryError{JobID: jobID, Err: err}
	}
	return status, nil
}

// GetResultHash queries the result hash of jobID
func (c *RPCClient) GetResultHash(ctx context.Context, jobID string) (string, bool, error) {
	var result struct {
		ResultHash *string `json:"result_hash"`
	}
	if err := c.call(ctx, MethodGetResultHash, jobParams{Contract: c.contract, JobID: jobID}, &result); err != nil {
		return "", false, &domain.QueryError{JobID: jobID, Err: err}
	}
	if result.ResultHash == nil || *result.ResultHash == "" {
		return "", false, nil
	}
	return *result.ResultHash, true, nil
}

// CancelJob requests cancellation of jobID
func (c *RPCClient) CancelJob(ctx context.Context, jobID, wallet string) (bool, error) {
	var result struct {
		Cancelled bool `json:"cancelled"`
	}
	if err := c.call(ctx, MethodCancelJob, jobParams{Contract: c.contract, JobID: jobID, Wallet: wallet}, &result); err != nil {
		return false, &domain.RegistrationError{Err: err}
	}
	return result.Cancelled, nil
}

func (c *RPCClient) call(ctx context.Context, method string, params, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.rpc.CallFor(ctx, out, method, params)

	c.logger.Debug("Registry call",
		slog.String("method", method),
		slog.Duration("latency", time.Since(start)),
		slog.Bool("ok", err == nil),
	)

	if err == nil {
		return nil
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return fmt.Errorf("%s rejected: %w", method, rpcErr)
	}
	return fmt.Errorf("failed to call %s: %w", method, err)
}
