package service

import (
	"context"
	"sort"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/aeotrackhq/aeotrack/internal/telemetry"
)

// StatsService derives dashboard aggregates from persisted checks. Nothing
// here is cached or stored; every request recomputes from the window's rows.
type StatsService struct {
	projectRepo ProjectRepositoryInterface
	checkRepo   CheckRepositoryInterface
}

// NewStatsService creates a new StatsService instance
func NewStatsService(projectRepo ProjectRepositoryInterface, checkRepo CheckRepositoryInterface) *StatsService {
	return &StatsService{
		projectRepo: projectRepo,
		checkRepo:   checkRepo,
	}
}

// Dashboard aggregates a project's checks over the last N days
func (s *StatsService) Dashboard(ctx context.Context, orgID, projectID string, days int) (*domain.DashboardStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "StatsService.Dashboard", telemetry.SpanAttributes{
		OrgID:     orgID,
		ProjectID: projectID,
		Operation: "dashboard",
	})
	defer span.End()

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OrgID != orgID {
		return nil, domain.ErrProjectNotFound
	}

	if days <= 0 {
		days = DefaultHistoryDays
	}
	now := time.Now().UTC()
	window := domain.Window{From: now.AddDate(0, 0, -days), To: now}

	checks, err := s.checkRepo.ListByProjectWindow(ctx, projectID, window)
	if err != nil {
		return nil, err
	}

	stats, err := Aggregate(project, checks, window)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return stats, nil
}

// Aggregate computes dashboard statistics from a window of checks. Checks are
// expected in ascending timestamp order; trend points preserve that order.
// A check that violates the presence/position/citations coupling makes the
// whole aggregation fail rather than silently skewing the rates.
func Aggregate(project *domain.Project, checks []*domain.VisibilityCheck, window domain.Window) (*domain.DashboardStats, error) {
	if project == nil {
		return nil, domain.ErrMissingRequiredField
	}

	for _, c := range checks {
		if err := domain.ValidateVisibilityCheck(c); err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDataIntegrity, "stored check failed validation", err)
		}
		if !window.Contains(c.Timestamp) {
			return nil, domain.NewDomainError(domain.ErrCodeDataIntegrity, "stored check falls outside the requested window")
		}
	}

	stats := &domain.DashboardStats{
		Window:      window,
		TotalChecks: len(checks),
	}

	for _, c := range checks {
		if c.Presence {
			stats.PresenceCount++
		}
	}
	stats.PresenceRate = ratio(stats.PresenceCount, stats.TotalChecks)

	stats.EngineStats = aggregateEngines(checks)
	stats.KeywordTrends = aggregateTrends(project, checks)
	stats.ShareOfVoice = aggregateVoice(project, checks)

	return stats, nil
}

func aggregateEngines(checks []*domain.VisibilityCheck) []domain.EngineStats {
	byEngine := make(map[domain.Engine]*domain.EngineStats)
	var order []domain.Engine

	for _, c := range checks {
		es, ok := byEngine[c.Engine]
		if !ok {
			es = &domain.EngineStats{Engine: c.Engine}
			byEngine[c.Engine] = es
			order = append(order, c.Engine)
		}
		es.TotalChecks++
		if c.Presence {
			es.PresenceCount++
		}
	}

	result := make([]domain.EngineStats, 0, len(order))
	for _, engine := range order {
		es := byEngine[engine]
		es.PresenceRate = ratio(es.PresenceCount, es.TotalChecks)
		result = append(result, *es)
	}
	return result
}

func aggregateTrends(project *domain.Project, checks []*domain.VisibilityCheck) []domain.KeywordTrend {
	byKeyword := make(map[string][]domain.TrendPoint)
	var seen []string

	for _, c := range checks {
		if _, ok := byKeyword[c.Keyword]; !ok {
			seen = append(seen, c.Keyword)
		}
		byKeyword[c.Keyword] = append(byKeyword[c.Keyword], domain.TrendPoint{
			Timestamp: c.Timestamp,
			Presence:  c.Presence,
		})
	}

	// Current project keywords first, in their configured order; keywords
	// that only exist in history follow in first-seen order.
	ordered := make([]string, 0, len(byKeyword))
	current := make(map[string]bool, len(project.Keywords))
	for _, kw := range project.Keywords {
		current[kw] = true
		if _, ok := byKeyword[kw]; ok {
			ordered = append(ordered, kw)
		}
	}
	for _, kw := range seen {
		if !current[kw] {
			ordered = append(ordered, kw)
		}
	}

	trends := make([]domain.KeywordTrend, 0, len(ordered))
	for _, kw := range ordered {
		points := byKeyword[kw]
		sort.SliceStable(points, func(i, j int) bool {
			return points[i].Timestamp.Before(points[j].Timestamp)
		})
		trends = append(trends, domain.KeywordTrend{Keyword: kw, Points: points})
	}
	return trends
}

func aggregateVoice(project *domain.Project, checks []*domain.VisibilityCheck) []domain.VoiceShare {
	total := len(checks)

	brandMentions := 0
	competitorMentions := make(map[string]int, len(project.Competitors))
	for _, c := range checks {
		if c.Presence {
			brandMentions++
		}
		for _, name := range c.CompetitorsMentioned {
			competitorMentions[name]++
		}
	}

	// Brand first, then competitors in the project's configured order. One
	// answer can mention several names, so proportions do not sum to 1.
	voice := make([]domain.VoiceShare, 0, len(project.Competitors)+1)
	voice = append(voice, domain.VoiceShare{
		Name:       project.Brand,
		Mentions:   brandMentions,
		Proportion: ratio(brandMentions, total),
	})
	for _, name := range project.Competitors {
		mentions := competitorMentions[name]
		voice = append(voice, domain.VoiceShare{
			Name:       name,
			Mentions:   mentions,
			Proportion: ratio(mentions, total),
		})
	}
	return voice
}

// ratio avoids the 0/0 case: no observations means rate 0, not NaN
func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
