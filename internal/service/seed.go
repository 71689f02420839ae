package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
)

// SeedDays is the history depth the demo dataset covers
const SeedDays = 14

// SeedService populates a demo project with a plausible check history so the
// dashboard has something to show before any real runs happen.
type SeedService struct {
	projectRepo ProjectRepositoryInterface
	checkRepo   CheckRepositoryInterface
	uuidGen     UUIDGenerator
	now         func() time.Time
}

// NewSeedService creates a new SeedService instance
func NewSeedService(projectRepo ProjectRepositoryInterface, checkRepo CheckRepositoryInterface, uuidGen UUIDGenerator) *SeedService {
	return &SeedService{
		projectRepo: projectRepo,
		checkRepo:   checkRepo,
		uuidGen:     uuidGen,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SeedResult summarizes what the seeder created
type SeedResult struct {
	Project *domain.Project
	Checks  int
}

// Seed creates the demo project and one check per keyword × engine per day
// for the last SeedDays days. The generator is deterministic for a given
// start time; rerunning creates a fresh project rather than touching an
// existing one.
func (s *SeedService) Seed(ctx context.Context, orgID string) (*SeedResult, error) {
	if orgID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "organization ID is required")
	}

	project := domain.NewProject(
		s.uuidGen.NewString(),
		orgID,
		"Acme Widgets Demo",
		"acmewidgets.example.com",
		"Acme Widgets",
		[]string{"WidgetCo", "Widgetly", "BoltWorks"},
		[]string{"best widgets for startups", "widget pricing comparison", "enterprise widget platform"},
		s.now(),
	)

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	engines := []domain.Engine{
		domain.EngineChatGPT,
		domain.EnginePerplexity,
		domain.EngineGemini,
		domain.EngineClaude,
	}

	end := s.now().Truncate(time.Hour)
	rng := rand.New(rand.NewSource(end.Unix()))

	var checks []*domain.VisibilityCheck
	for day := SeedDays - 1; day >= 0; day-- {
		ts := end.AddDate(0, 0, -day)
		for _, keyword := range project.Keywords {
			for _, engine := range engines {
				checks = append(checks, s.generateCheck(rng, project, engine, keyword, ts))
			}
		}
	}

	if err := s.checkRepo.CreateBatch(ctx, checks); err != nil {
		return nil, err
	}

	return &SeedResult{Project: project, Checks: len(checks)}, nil
}

func (s *SeedService) generateCheck(rng *rand.Rand, project *domain.Project, engine domain.Engine, keyword string, ts time.Time) *domain.VisibilityCheck {
	presence := rng.Float64() < 0.6

	analysis := &domain.Analysis{Presence: presence}

	if presence {
		position := 1 + rng.Intn(12)
		analysis.Position = &position
		analysis.CitationsCount = 1 + rng.Intn(3)
		analysis.AnswerSnippet = fmt.Sprintf(
			"For %s, %s is a strong option alongside a few alternatives.",
			keyword, project.Brand,
		)
		analysis.ObservedURLs = []string{
			fmt.Sprintf("https://%s/compare", project.Domain),
		}
	} else {
		analysis.AnswerSnippet = fmt.Sprintf(
			"There are several tools worth considering for %s.", keyword,
		)
	}

	// Competitor mentions are independent of brand presence, but stay in the
	// project's configured order like the analyzer reports them.
	for _, competitor := range project.Competitors {
		if rng.Float64() < 0.3 {
			analysis.CompetitorsMentioned = append(analysis.CompetitorsMentioned, competitor)
		}
	}

	return domain.NewVisibilityCheck(s.uuidGen.NewString(), project.ID, engine, keyword, analysis, ts)
}
