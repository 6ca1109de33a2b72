package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "upload error", err: &UploadError{Err: errors.New("timeout")}, want: true},
		{name: "download error", err: &DownloadError{Hash: "Qm1", Err: errors.New("502")}, want: true},
		{name: "wrapped query error", err: fmt.Errorf("refresh: %w", &QueryError{JobID: "abc", Err: errors.New("eof")}), want: true},
		{name: "payload too large", err: &UploadError{Err: ErrPayloadTooLarge}, want: false},
		{name: "registration error", err: &RegistrationError{Err: errors.New("insufficient funds")}, want: false},
		{name: "not connected", err: ErrNotConnected, want: false},
		{name: "invalid reward", err: ErrInvalidReward, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestTypedErrorsUnwrap(t *testing.T) {
	cause := errors.New("connection refused")

	assert.ErrorIs(t, &UploadError{Err: cause}, cause)
	assert.ErrorIs(t, &DownloadError{Hash: "Qm", Err: cause}, cause)
	assert.ErrorIs(t, &QueryError{JobID: "x", Err: cause}, cause)
	assert.ErrorIs(t, &RegistrationError{Err: cause}, cause)
	assert.Contains(t, (&QueryError{JobID: "x", Err: cause}).Error(), "job x")
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{in: "PENDING", want: StatusPending},
		{in: "in_progress", want: StatusInProgress},
		{in: "Running", want: StatusInProgress},
		{in: "completed", want: StatusCompleted},
		{in: "FAILED", want: StatusFailed},
		{in: "canceled", want: StatusCancelled},
		{in: "bogus", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())

	assert.True(t, StatusPending.IsActive())
	assert.False(t, StatusFailed.IsActive())
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0B", FormatSize(0))
	assert.Equal(t, "512.0B", FormatSize(512))
	assert.Equal(t, "1.5KB", FormatSize(1536))
	assert.Equal(t, "500.0MB", FormatSize(500*1024*1024))
}
