package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/aeotrackhq/aeotrack/internal/domain"
)

const (
	// MaxRetries is the maximum number of attempts for a failed check run
	MaxRetries = 3

	// ClaimBatchSize bounds how many queued runs one poll picks up
	ClaimBatchSize = 10
)

// CheckJobRepository defines the interface for check job persistence
type CheckJobRepository interface {
	// ClaimPending retrieves and claims pending check jobs
	ClaimPending(ctx context.Context, limit int) ([]*domain.CheckJob, error)

	// UpdateStatus updates the status of a check job
	UpdateStatus(ctx context.Context, jobID string, status domain.CheckJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, jobID string) error
}

// CheckRunService defines the interface for executing a project's check matrix
type CheckRunService interface {
	RunChecksForProject(ctx context.Context, projectID string) (*domain.CheckBatchResult, error)
}

// CheckWorker processes queued check runs
type CheckWorker struct {
	repo    CheckJobRepository
	service CheckRunService
}

// NewCheckWorker creates a new CheckWorker instance
func NewCheckWorker(repo CheckJobRepository, service CheckRunService) *CheckWorker {
	return &CheckWorker{
		repo:    repo,
		service: service,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *CheckWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, ClaimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("processing %d queued check runs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *CheckWorker) processJob(ctx context.Context, job *domain.CheckJob) error {
	log.Printf("running queued checks: job=%s project=%s", job.ID, job.ProjectID)

	result, err := w.service.RunChecksForProject(ctx, job.ProjectID)
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	// Individual cell failures are part of a completed run; only a run that
	// could not execute at all counts as a job failure.
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.CheckJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("job %s completed: %s", job.ID, result.Summary())
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *CheckWorker) handleJobFailure(ctx context.Context, job *domain.CheckJob, jobErr error) error {
	log.Printf("job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.CheckJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.CheckJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
