package handler

import (
	"errors"
	"net/http"

	"github.com/cuongbtq/render-jobs/internal/api/dto"
	"github.com/cuongbtq/render-jobs/internal/domain"
	"github.com/gin-gonic/gin"
)

// Stable error codes returned to the render host
const (
	CodeInvalidRequest     = "invalid_request"
	CodeNotConnected       = "wallet_not_connected"
	CodeInvalidReward      = "invalid_reward"
	CodeInvalidDeadline    = "invalid_deadline"
	CodeValidationFailed   = "validation_failed"
	CodeJobNotFound        = "job_not_found"
	CodeJobNotCompleted    = "job_not_completed"
	CodeResultNotAvailable = "result_not_available"
	CodePayloadTooLarge    = "payload_too_large"
	CodeUploadFailed       = "upload_failed"
	CodeDownloadFailed     = "download_failed"
	CodeQueryFailed        = "query_failed"
	CodeRegistrationFailed = "registration_failed"
	CodeInternal           = "internal_error"
)

// classify maps an error to an HTTP status and error code
func classify(err error) (int, string) {
	var (
		validationErr   *domain.ValidationError
		uploadErr       *domain.UploadError
		downloadErr     *domain.DownloadError
		queryErr        *domain.QueryError
		registrationErr *domain.RegistrationError
	)

	switch {
	case errors.Is(err, domain.ErrNotConnected):
		return http.StatusPreconditionFailed, CodeNotConnected
	case errors.Is(err, domain.ErrInvalidReward):
		return http.StatusBadRequest, CodeInvalidReward
	case errors.Is(err, domain.ErrInvalidDeadline):
		return http.StatusBadRequest, CodeInvalidDeadline
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, CodeValidationFailed
	case errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound, CodeJobNotFound
	case errors.Is(err, domain.ErrJobNotCompleted):
		return http.StatusConflict, CodeJobNotCompleted
	case errors.Is(err, domain.ErrResultNotAvailable):
		return http.StatusConflict, CodeResultNotAvailable
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, CodePayloadTooLarge
	case errors.As(err, &uploadErr):
		return http.StatusBadGateway, CodeUploadFailed
	case errors.As(err, &downloadErr):
		return http.StatusBadGateway, CodeDownloadFailed
	case errors.As(err, &queryErr):
		return http.StatusBadGateway, CodeQueryFailed
	case errors.As(err, &registrationErr):
		return http.StatusBadGateway, CodeRegistrationFailed
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func (h *JobHandler) writeError(c *gin.Context, err error) {
	status, code := classify(err)

	resp := dto.ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		Retryable: domain.IsRetryable(err),
	}
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		resp.Report = &validationErr.Report
	}
	if status == http.StatusInternalServerError {
		resp.Error = "internal error"
	}

	_ = c.Error(err)
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg, Code: CodeInvalidRequest})
}
