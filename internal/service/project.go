package service

import (
	"context"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/aeotrackhq/aeotrack/internal/telemetry"
	"github.com/google/uuid"
)

// ProjectRepositoryInterface defines the repository interface for project persistence
type ProjectRepositoryInterface interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id string) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// ProjectService handles business logic for tracked projects
type ProjectService struct {
	projectRepo ProjectRepositoryInterface
	uuidGen     UUIDGenerator
}

// NewProjectService creates a new ProjectService instance
func NewProjectService(projectRepo ProjectRepositoryInterface) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		uuidGen:     &DefaultUUIDGenerator{},
	}
}

// NewProjectServiceWithUUIDGen creates a new ProjectService with custom UUID generator (for testing)
func NewProjectServiceWithUUIDGen(projectRepo ProjectRepositoryInterface, uuidGen UUIDGenerator) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		uuidGen:     uuidGen,
	}
}

// CreateProjectInput represents the input for creating a project
type CreateProjectInput struct {
	OrgID       string
	Name        string
	Domain      string
	Brand       string
	Competitors []string
	Keywords    []string
}

// UpdateProjectInput represents the input for updating a project
type UpdateProjectInput struct {
	ProjectID   string
	Name        string
	Domain      string
	Brand       string
	Competitors []string
	Keywords    []string
}

// Create creates a new tracked project
func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput) (*domain.Project, error) {
	ctx, span := telemetry.StartSpan(ctx, "ProjectService.Create", telemetry.SpanAttributes{
		OrgID:     input.OrgID,
		Operation: "create",
	})
	defer span.End()

	project := domain.NewProject(
		s.uuidGen.NewString(),
		input.OrgID,
		input.Name,
		input.Domain,
		input.Brand,
		input.Competitors,
		input.Keywords,
		time.Now().UTC(),
	)

	if err := domain.ValidateProject(project); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid project", err)
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		span.SetError(err)
		return nil, err
	}

	return project, nil
}

// Get returns a project by ID, verifying it belongs to the organization
func (s *ProjectService) Get(ctx context.Context, orgID, projectID string) (*domain.Project, error) {
	if projectID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "project ID is required")
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if project.OrgID != orgID {
		return nil, domain.ErrProjectNotFound
	}

	return project, nil
}

// List returns all projects belonging to the organization
func (s *ProjectService) List(ctx context.Context, orgID string) ([]*domain.Project, error) {
	if orgID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "organization ID is required")
	}

	return s.projectRepo.ListByOrg(ctx, orgID)
}

// Update replaces a project's mutable fields. Keywords and competitors are
// replaced wholesale, not merged.
func (s *ProjectService) Update(ctx context.Context, orgID string, input UpdateProjectInput) (*domain.Project, error) {
	ctx, span := telemetry.StartSpan(ctx, "ProjectService.Update", telemetry.SpanAttributes{
		OrgID:     orgID,
		ProjectID: input.ProjectID,
		Operation: "update",
	})
	defer span.End()

	project, err := s.Get(ctx, orgID, input.ProjectID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		project.Name = input.Name
	}
	if input.Domain != "" {
		project.Domain = input.Domain
	}
	if input.Brand != "" {
		project.Brand = input.Brand
	}
	if input.Competitors != nil {
		project.Competitors = input.Competitors
	}
	if input.Keywords != nil {
		project.Keywords = input.Keywords
	}

	if err := domain.ValidateProject(project); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid project", err)
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		span.SetError(err)
		return nil, err
	}

	return project, nil
}

// Delete removes a project and lets the database cascade its checks
func (s *ProjectService) Delete(ctx context.Context, orgID, projectID string) error {
	if _, err := s.Get(ctx, orgID, projectID); err != nil {
		return err
	}

	return s.projectRepo.Delete(ctx, projectID)
}
