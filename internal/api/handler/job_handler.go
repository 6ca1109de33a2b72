package handler

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/cuongbtq/render-jobs/internal/api/dto"
	"github.com/cuongbtq/render-jobs/internal/domain"
	"github.com/cuongbtq/render-jobs/internal/validator"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ValidateSpec handles POST /api/v1/validate
func (h *JobHandler) ValidateSpec(c *gin.Context) {
	var spec domain.RenderTaskSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		h.logger.Warn("Invalid render task", slog.String("error", err.Error()))
		badRequest(c, "Invalid request body")
		return
	}

	report := h.service.Validate(spec)
	c.JSON(http.StatusOK, dto.ValidateResponse{
		Valid:            report.Valid,
		Issues:           nonNil(report.Issues),
		Warnings:         nonNil(report.Warnings),
		EstimatedMinutes: validator.EstimateRenderMinutes(spec),
	})
}

// SubmitJob handles POST /api/v1/jobs
func (h *JobHandler) SubmitJob(c *gin.Context) {
	var req dto.SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		badRequest(c, "Invalid request body")
		return
	}

	sub := domain.Submission{
		Payload:       req.Payload,
		Spec:          req.Spec,
		RewardAmount:  h.defaultReward,
		DeadlineHours: h.defaultDeadline,
	}
	if req.RewardAmount != nil {
		sub.RewardAmount = *req.RewardAmount
	}
	if req.DeadlineHours != nil {
		sub.DeadlineHours = *req.DeadlineHours
	}

	job, err := h.service.Submit(c.Request.Context(), sub, h.session.Credentials())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewJobDTO(*job))
}

// ListJobs handles GET /api/v1/jobs, newest first with cursor pagination
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	var status domain.Status
	if req.Status != "" {
		parsed, err := domain.ParseStatus(req.Status)
		if err != nil {
			badRequest(c, "Invalid status filter")
			return
		}
		status = parsed
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		badRequest(c, "Invalid cursor")
		return
	}

	var jobs []domain.Job
	if req.Active {
		jobs = h.service.ActiveJobs()
	} else {
		jobs = h.service.Jobs()
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		if !jobs[i].SubmittedAt.Equal(jobs[j].SubmittedAt) {
			return jobs[i].SubmittedAt.After(jobs[j].SubmittedAt)
		}
		return jobs[i].JobID > jobs[j].JobID
	})

	page := make([]domain.Job, 0, req.PageSize+1)
	for _, job := range jobs {
		if status != "" && job.Status != status {
			continue
		}
		if cursor != nil && !cursor.before(job) {
			continue
		}
		page = append(page, job)
		if len(page) > req.PageSize {
			break
		}
	}

	var nextCursor string
	if len(page) > req.PageSize {
		page = page[:req.PageSize]
		last := page[len(page)-1]
		nextCursor = EncodeJobCursor(&JobCursor{SubmittedAt: last.SubmittedAt, JobID: last.JobID})
	}

	resp := dto.ListJobsResponse{
		Jobs:       make([]dto.JobDTO, len(page)),
		NextCursor: nextCursor,
	}
	for i, job := range page {
		resp.Jobs[i] = dto.NewJobDTO(job)
	}
	c.JSON(http.StatusOK, resp)
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.service.Job(c.Param("job_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewJobDTO(job))
}

// GetJobContent handles GET /api/v1/jobs/:job_id/content
func (h *JobHandler) GetJobContent(c *gin.Context) {
	jobID := c.Param("job_id")
	job, err := h.service.Job(jobID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	info, err := h.service.StatInput(c.Request.Context(), jobID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := dto.ContentResponse{JobID: jobID, ContentHash: job.ContentHash}
	if info != nil {
		resp.Known = true
		resp.DataSize = info.DataSize
		resp.CumulativeSize = info.CumulativeSize
		resp.NumLinks = info.NumLinks
		resp.Size = domain.FormatSize(info.CumulativeSize)
	}
	c.JSON(http.StatusOK, resp)
}

// RefreshAll handles POST /api/v1/jobs/refresh
func (h *JobHandler) RefreshAll(c *gin.Context) {
	updated, err := h.service.RefreshAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RefreshAllResponse{Updated: updated})
}

// RefreshJob handles POST /api/v1/jobs/:job_id/refresh
func (h *JobHandler) RefreshJob(c *gin.Context) {
	jobID := c.Param("job_id")

	status, err := h.service.RefreshOne(c.Request.Context(), jobID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{JobID: jobID, Status: status.String()})
}

// FetchResult handles POST /api/v1/jobs/:job_id/result
func (h *JobHandler) FetchResult(c *gin.Context) {
	jobID := c.Param("job_id")

	path, err := h.service.FetchResult(c.Request.Context(), jobID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ResultResponse{JobID: jobID, Path: path})
}

// CancelJob handles POST /api/v1/jobs/:job_id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	jobID := c.Param("job_id")

	cancelled, err := h.service.Cancel(c.Request.Context(), jobID, h.session.Credentials())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CancelResponse{JobID: jobID, Cancelled: cancelled})
}

// ConnectWallet handles POST /api/v1/wallet/connect
func (h *JobHandler) ConnectWallet(c *gin.Context) {
	var req dto.ConnectWalletRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
	}

	creds, err := h.session.Connect(req.WalletAddress)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Info("Wallet connected", slog.String("wallet_address", creds.WalletAddress))
	c.JSON(http.StatusOK, dto.WalletResponse{WalletAddress: creds.WalletAddress, Connected: creds.Connected})
}

// DisconnectWallet handles POST /api/v1/wallet/disconnect
func (h *JobHandler) DisconnectWallet(c *gin.Context) {
	creds := h.session.Disconnect()
	c.JSON(http.StatusOK, dto.WalletResponse{WalletAddress: creds.WalletAddress, Connected: creds.Connected})
}

// GetWallet handles GET /api/v1/wallet
func (h *JobHandler) GetWallet(c *gin.Context) {
	creds := h.session.Credentials()
	c.JSON(http.StatusOK, dto.WalletResponse{WalletAddress: creds.WalletAddress, Connected: creds.Connected})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
