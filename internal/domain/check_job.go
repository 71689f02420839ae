package domain

import (
	"fmt"
	"time"
)

// CheckJobStatus represents the status of a queued check run
type CheckJobStatus string

const (
	CheckJobStatusPending    CheckJobStatus = "pending"
	CheckJobStatusProcessing CheckJobStatus = "processing"
	CheckJobStatusCompleted  CheckJobStatus = "completed"
	CheckJobStatusFailed     CheckJobStatus = "failed"
)

// CheckJob represents an async request to run a project's full check matrix.
// The worker claims pending jobs and retries whole runs, so the synchronous
// endpoint never has to.
type CheckJob struct {
	ID          string
	ProjectID   string
	Status      CheckJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewCheckJob creates a new pending CheckJob instance
func NewCheckJob(id, projectID string, createdAt time.Time) *CheckJob {
	return &CheckJob{
		ID:        id,
		ProjectID: projectID,
		Status:    CheckJobStatusPending,
		CreatedAt: createdAt,
	}
}

// ValidateCheckJob validates a CheckJob instance
func ValidateCheckJob(j *CheckJob) error {
	if j == nil {
		return fmt.Errorf("check job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("check job ID is required")
	}

	if j.ProjectID == "" {
		return fmt.Errorf("check job ProjectID is required")
	}

	if !isValidCheckJobStatus(j.Status) {
		return fmt.Errorf("check job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("check job Retries cannot be negative")
	}

	return nil
}

func isValidCheckJobStatus(s CheckJobStatus) bool {
	switch s {
	case CheckJobStatusPending, CheckJobStatusProcessing,
		CheckJobStatusCompleted, CheckJobStatusFailed:
		return true
	}
	return false
}
