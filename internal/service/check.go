package service

import (
	"context"
	"log"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/aeotrackhq/aeotrack/internal/pagination"
	"github.com/aeotrackhq/aeotrack/internal/repository"
	"github.com/aeotrackhq/aeotrack/internal/telemetry"
)

// DefaultHistoryDays is the lookback applied when a history, dashboard, or
// export request gives none
const DefaultHistoryDays = 30

// BatchScheduler runs a project's full keyword × engine matrix
type BatchScheduler interface {
	RunBatch(ctx context.Context, project *domain.Project, engines []domain.EngineConfig) (*domain.CheckBatchResult, error)
}

// CheckRepositoryInterface defines the repository interface for check persistence
type CheckRepositoryInterface interface {
	CreateBatch(ctx context.Context, checks []*domain.VisibilityCheck) error
	ListByProjectWindow(ctx context.Context, projectID string, window domain.Window) ([]*domain.VisibilityCheck, error)
	ListByProjectWithCursor(ctx context.Context, projectID string, since time.Time, cursor *pagination.Cursor, limit int) (*repository.CheckPageResult, error)
}

// CheckJobRepositoryInterface defines the repository interface for queued check runs
type CheckJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.CheckJob) error
	GetByID(ctx context.Context, id string) (*domain.CheckJob, error)
}

// CheckService orchestrates on-demand and queued check runs for a project
type CheckService struct {
	projectRepo ProjectRepositoryInterface
	checkRepo   CheckRepositoryInterface
	jobRepo     CheckJobRepositoryInterface
	scheduler   BatchScheduler
	engines     []domain.EngineConfig
	uuidGen     UUIDGenerator
}

// NewCheckService creates a new CheckService instance
func NewCheckService(
	projectRepo ProjectRepositoryInterface,
	checkRepo CheckRepositoryInterface,
	jobRepo CheckJobRepositoryInterface,
	scheduler BatchScheduler,
	engines []domain.EngineConfig,
) *CheckService {
	return &CheckService{
		projectRepo: projectRepo,
		checkRepo:   checkRepo,
		jobRepo:     jobRepo,
		scheduler:   scheduler,
		engines:     engines,
		uuidGen:     &DefaultUUIDGenerator{},
	}
}

// NewCheckServiceWithUUIDGen creates a new CheckService with custom UUID generator (for testing)
func NewCheckServiceWithUUIDGen(
	projectRepo ProjectRepositoryInterface,
	checkRepo CheckRepositoryInterface,
	jobRepo CheckJobRepositoryInterface,
	scheduler BatchScheduler,
	engines []domain.EngineConfig,
	uuidGen UUIDGenerator,
) *CheckService {
	return &CheckService{
		projectRepo: projectRepo,
		checkRepo:   checkRepo,
		jobRepo:     jobRepo,
		scheduler:   scheduler,
		engines:     engines,
		uuidGen:     uuidGen,
	}
}

// RunChecks executes the full matrix for an org's project and persists the
// successful records in one transaction. Failed cells are returned but never
// persisted; a batch where every cell failed still returns a result, not an
// error.
func (s *CheckService) RunChecks(ctx context.Context, orgID, projectID string) (*domain.CheckBatchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "CheckService.RunChecks", telemetry.SpanAttributes{
		OrgID:     orgID,
		ProjectID: projectID,
		Operation: "run_checks",
	})
	defer span.End()

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OrgID != orgID {
		return nil, domain.ErrProjectNotFound
	}

	return s.runForProject(ctx, project)
}

// RunChecksForProject executes the matrix for an already-loaded project.
// The job worker uses this path; it has no org in hand.
func (s *CheckService) RunChecksForProject(ctx context.Context, projectID string) (*domain.CheckBatchResult, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return s.runForProject(ctx, project)
}

func (s *CheckService) runForProject(ctx context.Context, project *domain.Project) (*domain.CheckBatchResult, error) {
	result, err := s.scheduler.RunBatch(ctx, project, s.engines)
	if err != nil {
		return nil, err
	}

	if checks := result.Checks(); len(checks) > 0 {
		if err := s.checkRepo.CreateBatch(ctx, checks); err != nil {
			telemetry.CaptureError(ctx, err)
			return nil, err
		}
	}

	for _, failure := range result.Failures() {
		log.Printf("check failed: project=%s %v", project.ID, failure)
	}

	return result, nil
}

// EnqueueChecks records a pending check run for the background worker
func (s *CheckService) EnqueueChecks(ctx context.Context, orgID, projectID string) (*domain.CheckJob, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OrgID != orgID {
		return nil, domain.ErrProjectNotFound
	}

	job := domain.NewCheckJob(s.uuidGen.NewString(), project.ID, time.Now().UTC())
	if err := domain.ValidateCheckJob(job); err != nil {
		return nil, err
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	return job, nil
}

// GetJob returns a queued check run, verifying org ownership via its project
func (s *CheckService) GetJob(ctx context.Context, orgID, jobID string) (*domain.CheckJob, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, job.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.OrgID != orgID {
		return nil, domain.ErrCheckJobNotFound
	}

	return job, nil
}

// HistoryInput selects a page of a project's check history
type HistoryInput struct {
	OrgID     string
	ProjectID string
	Days      int
	Cursor    string
	Limit     int
}

// HistoryOutput is one page of check history, newest first
type HistoryOutput struct {
	Items   []*domain.VisibilityCheck
	Cursor  string
	HasMore bool
}

// History returns a cursor page of checks recorded in the last N days
func (s *CheckService) History(ctx context.Context, input HistoryInput) (*HistoryOutput, error) {
	project, err := s.projectRepo.GetByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.OrgID != input.OrgID {
		return nil, domain.ErrProjectNotFound
	}

	days := input.Days
	if days <= 0 {
		days = DefaultHistoryDays
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	var cursor *pagination.Cursor
	if input.Cursor != "" {
		cursor, err = pagination.DecodeCursor(input.Cursor)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
		}
	}

	page, err := s.checkRepo.ListByProjectWithCursor(ctx, project.ID, since, cursor, input.Limit)
	if err != nil {
		return nil, err
	}

	return &HistoryOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}
