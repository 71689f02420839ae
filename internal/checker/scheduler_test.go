package checker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	mu         sync.Mutex
	inFlight   int32
	maxActive  int32
	delay      time.Duration
	failFor    map[string]bool // keyword -> fail
	calledWith []string
}

func (r *recordingRunner) Run(ctx context.Context, projectID, keyword string, engine domain.EngineConfig, brand string, competitors []string) domain.CheckOutcome {
	active := atomic.AddInt32(&r.inFlight, 1)
	for {
		max := atomic.LoadInt32(&r.maxActive)
		if active <= max || atomic.CompareAndSwapInt32(&r.maxActive, max, active) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	atomic.AddInt32(&r.inFlight, -1)

	r.mu.Lock()
	r.calledWith = append(r.calledWith, keyword+"/"+string(engine.Name))
	r.mu.Unlock()

	if r.failFor[keyword] {
		return failureOutcome(keyword, engine.Name, domain.CheckFailureExternalService, "boom")
	}

	pos := 1
	return domain.CheckOutcome{Check: &domain.VisibilityCheck{
		ID:             keyword + "/" + string(engine.Name),
		ProjectID:      projectID,
		Engine:         engine.Name,
		Keyword:        keyword,
		Presence:       true,
		Position:       &pos,
		CitationsCount: 1,
		Timestamp:      time.Now().UTC(),
	}}
}

func testProject() *domain.Project {
	return &domain.Project{
		ID:       "project-1",
		OrgID:    "org-1",
		Name:     "Acme Widgets",
		Domain:   "acmewidgets.com",
		Brand:    "Acme Widgets",
		Keywords: []string{"best widgets", "widget pricing", "widget reviews"},
	}
}

func twoEngines() []domain.EngineConfig {
	return []domain.EngineConfig{
		{Name: domain.EngineChatGPT, Model: "gpt-4o-mini"},
		{Name: domain.EnginePerplexity, Model: "gpt-4o-mini"},
	}
}

func TestScheduler_RunBatch_MatrixOrder(t *testing.T) {
	runner := &recordingRunner{}
	scheduler := NewScheduler(runner, 2)

	result, err := scheduler.RunBatch(context.Background(), testProject(), twoEngines())
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 6)

	// Outcomes are in matrix order regardless of completion order:
	// keywords outer, engines inner.
	want := []string{
		"best widgets/ChatGPT",
		"best widgets/Perplexity",
		"widget pricing/ChatGPT",
		"widget pricing/Perplexity",
		"widget reviews/ChatGPT",
		"widget reviews/Perplexity",
	}
	for i, id := range want {
		require.True(t, result.Outcomes[i].OK())
		assert.Equal(t, id, result.Outcomes[i].Check.ID)
	}

	assert.Equal(t, "project-1", result.ProjectID)
	assert.Equal(t, 6, result.Succeeded())
	assert.Equal(t, 0, result.Failed())
}

func TestScheduler_RunBatch_OneFailureDoesNotAbortOthers(t *testing.T) {
	runner := &recordingRunner{failFor: map[string]bool{"widget pricing": true}}
	scheduler := NewScheduler(runner, 2)

	result, err := scheduler.RunBatch(context.Background(), testProject(), twoEngines())
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 6)

	assert.Equal(t, 4, result.Succeeded())
	assert.Equal(t, 2, result.Failed())
	assert.Equal(t, "4 of 6 checks completed", result.Summary())

	for _, f := range result.Failures() {
		assert.Equal(t, "widget pricing", f.Keyword)
		assert.Equal(t, domain.CheckFailureExternalService, f.Kind)
	}
}

func TestScheduler_RunBatch_ConcurrencyBound(t *testing.T) {
	runner := &recordingRunner{delay: 20 * time.Millisecond}
	scheduler := NewScheduler(runner, 2)

	_, err := scheduler.RunBatch(context.Background(), testProject(), twoEngines())
	require.NoError(t, err)

	assert.LessOrEqual(t, atomic.LoadInt32(&runner.maxActive), int32(2))
}

func TestScheduler_RunBatch_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &recordingRunner{}
	scheduler := NewScheduler(runner, 1)

	result, err := scheduler.RunBatch(ctx, testProject(), twoEngines())
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 6)

	// The matrix stays complete: never-dispatched cells resolve to failures.
	for _, o := range result.Outcomes {
		if o.OK() {
			continue
		}
		assert.Equal(t, domain.CheckFailureExternalService, o.Failure.Kind)
		assert.Equal(t, "batch canceled before cell was dispatched", o.Failure.Message)
	}
	assert.NotZero(t, result.Failed())
}

func TestScheduler_RunBatch_Validation(t *testing.T) {
	scheduler := NewScheduler(&recordingRunner{}, 2)
	ctx := context.Background()

	_, err := scheduler.RunBatch(ctx, nil, twoEngines())
	assert.ErrorIs(t, err, domain.ErrMissingRequiredField)

	noKeywords := testProject()
	noKeywords.Keywords = nil
	_, err = scheduler.RunBatch(ctx, noKeywords, twoEngines())
	assert.ErrorIs(t, err, domain.ErrNoKeywords)

	noBrand := testProject()
	noBrand.Brand = ""
	_, err = scheduler.RunBatch(ctx, noBrand, twoEngines())
	assert.ErrorIs(t, err, domain.ErrEmptyBrand)

	_, err = scheduler.RunBatch(ctx, testProject(), nil)
	assert.ErrorIs(t, err, domain.ErrNoEngines)
}

func TestScheduler_DefaultConcurrency(t *testing.T) {
	scheduler := NewScheduler(&recordingRunner{}, 0)
	assert.Equal(t, DefaultConcurrency, scheduler.concurrency)
}
