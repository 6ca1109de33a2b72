package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/cuongbtq/render-jobs/internal/domain"
)

// JobCursor marks the last job of a page in newest-first order
type JobCursor struct {
	SubmittedAt time.Time
	JobID       string
}

// before reports whether job sorts after the cursor in newest-first order
func (c *JobCursor) before(job domain.Job) bool {
	if !job.SubmittedAt.Equal(c.SubmittedAt) {
		return job.SubmittedAt.Before(c.SubmittedAt)
	}
	return job.JobID < c.JobID
}

func DecodeJobCursor(cursorStr string) (*JobCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}

	var submittedAt int64
	if _, err := fmt.Sscanf(parts[0], "%d", &submittedAt); err != nil {
		return nil, fmt.Errorf("invalid submitted_at in cursor: %w", err)
	}

	return &JobCursor{
		SubmittedAt: time.Unix(0, submittedAt).UTC(),
		JobID:       parts[1],
	}, nil
}

func EncodeJobCursor(cursor *JobCursor) string {
	cs := fmt.Sprintf("%d|%s", cursor.SubmittedAt.UnixNano(), cursor.JobID)
	return base64.RawURLEncoding.EncodeToString([]byte(cs))
}
