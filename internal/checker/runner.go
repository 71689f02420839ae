package checker

import (
	"context"
	"errors"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
)

// Answerer is the external answering capability: ask one query against one
// model and get raw answer text back. The fixed search-assistant system
// prompt is the client's concern.
type Answerer interface {
	Ask(ctx context.Context, query, model string) (string, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// Runner executes a single matrix cell: one keyword against one engine.
// It never persists and never panics past its boundary; every external
// failure comes back as a CheckFailure outcome.
type Runner struct {
	client  Answerer
	uuidGen UUIDGenerator
	now     func() time.Time
	timeout time.Duration
}

// NewRunner creates a new Runner instance. A non-zero timeout bounds each
// external call so a stuck engine cannot hang the batch.
func NewRunner(client Answerer, uuidGen UUIDGenerator, timeout time.Duration) *Runner {
	return &Runner{
		client:  client,
		uuidGen: uuidGen,
		now:     func() time.Time { return time.Now().UTC() },
		timeout: timeout,
	}
}

// NewRunnerWithClock creates a Runner with a custom clock (for testing)
func NewRunnerWithClock(client Answerer, uuidGen UUIDGenerator, timeout time.Duration, now func() time.Time) *Runner {
	r := NewRunner(client, uuidGen, timeout)
	r.now = now
	return r
}

// Run queries one engine for one keyword and analyzes the answer. The
// returned outcome always has exactly one of Check or Failure set.
func (r *Runner) Run(ctx context.Context, projectID, keyword string, engine domain.EngineConfig, brand string, competitors []string) domain.CheckOutcome {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	answer, err := r.client.Ask(ctx, keyword, engine.Model)
	if err != nil {
		return failureOutcome(keyword, engine.Name, domain.CheckFailureExternalService, classifyExternal(err))
	}

	analysis, err := Analyze(answer, brand, competitors)
	if err != nil {
		return failureOutcome(keyword, engine.Name, domain.CheckFailureInvalidInput, err.Error())
	}

	check := domain.NewVisibilityCheck(r.uuidGen.NewString(), projectID, engine.Name, keyword, analysis, r.now())
	if err := domain.ValidateVisibilityCheck(check); err != nil {
		return failureOutcome(keyword, engine.Name, domain.CheckFailureDataIntegrity, err.Error())
	}

	return domain.CheckOutcome{Check: check}
}

func failureOutcome(keyword string, engine domain.Engine, kind domain.CheckFailureKind, message string) domain.CheckOutcome {
	return domain.CheckOutcome{
		Failure: &domain.CheckFailure{
			Keyword: keyword,
			Engine:  engine,
			Kind:    kind,
			Message: message,
		},
	}
}

func classifyExternal(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "engine call timed out: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "engine call canceled: " + err.Error()
	default:
		return err.Error()
	}
}
