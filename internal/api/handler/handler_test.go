package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/cuongbtq/render-jobs/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not connected", domain.ErrNotConnected, http.StatusPreconditionFailed, CodeNotConnected},
		{"invalid reward", fmt.Errorf("%w: must be greater than 0", domain.ErrInvalidReward), http.StatusBadRequest, CodeInvalidReward},
		{"invalid deadline", domain.ErrInvalidDeadline, http.StatusBadRequest, CodeInvalidDeadline},
		{"validation", &domain.ValidationError{}, http.StatusUnprocessableEntity, CodeValidationFailed},
		{"not found", fmt.Errorf("%w: abc", domain.ErrJobNotFound), http.StatusNotFound, CodeJobNotFound},
		{"not completed", domain.ErrJobNotCompleted, http.StatusConflict, CodeJobNotCompleted},
		{"result not available", domain.ErrResultNotAvailable, http.StatusConflict, CodeResultNotAvailable},
		{"payload too large", &domain.UploadError{Err: domain.ErrPayloadTooLarge}, http.StatusRequestEntityTooLarge, CodePayloadTooLarge},
		{"upload", &domain.UploadError{Err: errors.New("eof")}, http.StatusBadGateway, CodeUploadFailed},
		{"download", &domain.DownloadError{Hash: "Qm", Err: errors.New("eof")}, http.StatusBadGateway, CodeDownloadFailed},
		{"query", &domain.QueryError{JobID: "abc", Err: errors.New("eof")}, http.StatusBadGateway, CodeQueryFailed},
		{"registration", &domain.RegistrationError{Err: errors.New("rejected")}, http.StatusBadGateway, CodeRegistrationFailed},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestJobCursor_RoundTrip(t *testing.T) {
	in := &JobCursor{SubmittedAt: time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC), JobID: "job|0001"}

	out, err := DecodeJobCursor(EncodeJobCursor(in))
	require.NoError(t, err)
	assert.True(t, in.SubmittedAt.Equal(out.SubmittedAt))
	assert.Equal(t, in.JobID, out.JobID)

	empty, err := DecodeJobCursor("")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestDecodeJobCursor_Invalid(t *testing.T) {
	for _, raw := range []string{"%%%", "bm9waXBl", "YWJjfA"} {
		_, err := DecodeJobCursor(raw)
		assert.Error(t, err, raw)
	}
}

func TestSession(t *testing.T) {
	s := NewSession(domain.Credentials{WalletAddress: "0xabc", Connected: true})
	assert.False(t, s.Credentials().Connected, "sessions start disconnected")

	creds, err := s.Connect("")
	require.NoError(t, err)
	assert.True(t, creds.Connected)
	assert.Equal(t, "0xabc", creds.WalletAddress)

	creds, err = s.Connect("  0xdef ")
	require.NoError(t, err)
	assert.Equal(t, "0xdef", creds.WalletAddress)

	assert.False(t, s.Disconnect().Connected)

	empty := NewSession(domain.Credentials{})
	_, err = empty.Connect("")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.False(t, empty.Credentials().Connected)
}
