package checker

import (
	"context"
	"sync"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
)

// DefaultConcurrency bounds the worker pool when no explicit bound is given
const DefaultConcurrency = 4

// CellRunner runs one (keyword, engine) cell to an outcome
type CellRunner interface {
	Run(ctx context.Context, projectID, keyword string, engine domain.EngineConfig, brand string, competitors []string) domain.CheckOutcome
}

// Scheduler fans a project's keywords out across the configured engines.
// Cells execute concurrently on a bounded pool, but outcomes are always
// reported in matrix order (keywords outer, engines inner) so batches are
// reproducible byte for byte.
type Scheduler struct {
	runner      CellRunner
	concurrency int
	now         func() time.Time
}

// NewScheduler creates a new Scheduler instance with the given pool bound
func NewScheduler(runner CellRunner, concurrency int) *Scheduler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Scheduler{
		runner:      runner,
		concurrency: concurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type cell struct {
	index   int
	keyword string
	engine  domain.EngineConfig
}

// RunBatch executes the full keyword × engine matrix for the project.
// One cell's failure never aborts another: the result carries exactly one
// outcome per cell. Cancelling ctx stops dispatching new cells; in-flight
// cells still resolve, and never-dispatched cells resolve to failures so the
// matrix stays complete.
func (s *Scheduler) RunBatch(ctx context.Context, project *domain.Project, engines []domain.EngineConfig) (*domain.CheckBatchResult, error) {
	if project == nil {
		return nil, domain.ErrMissingRequiredField
	}
	if len(project.Keywords) == 0 {
		return nil, domain.ErrNoKeywords
	}
	if project.Brand == "" {
		return nil, domain.ErrEmptyBrand
	}
	if len(engines) == 0 {
		return nil, domain.ErrNoEngines
	}

	cells := make([]cell, 0, len(project.Keywords)*len(engines))
	for _, keyword := range project.Keywords {
		for _, engine := range engines {
			cells = append(cells, cell{index: len(cells), keyword: keyword, engine: engine})
		}
	}

	result := &domain.CheckBatchResult{
		ProjectID: project.ID,
		StartedAt: s.now(),
		Outcomes:  make([]domain.CheckOutcome, len(cells)),
	}

	jobs := make(chan cell)
	var wg sync.WaitGroup

	workers := s.concurrency
	if workers > len(cells) {
		workers = len(cells)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				// Outcomes land at their matrix index, so completion
				// order never affects reported order.
				result.Outcomes[c.index] = s.runner.Run(ctx, project.ID, c.keyword, c.engine, project.Brand, project.Competitors)
			}
		}()
	}

dispatch:
	for _, c := range cells {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- c:
		}
	}
	close(jobs)
	wg.Wait()

	// Cells the cancellation prevented from dispatching still owe an outcome.
	for i := range result.Outcomes {
		if result.Outcomes[i].Check == nil && result.Outcomes[i].Failure == nil {
			result.Outcomes[i] = failureOutcome(cells[i].keyword, cells[i].engine.Name,
				domain.CheckFailureExternalService, "batch canceled before cell was dispatched")
		}
	}

	return result, nil
}
