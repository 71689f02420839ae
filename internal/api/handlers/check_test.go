package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/aeotrackhq/aeotrack/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCheckService struct {
	mock.Mock
}

func (m *MockCheckService) RunChecks(ctx context.Context, orgID, projectID string) (*domain.CheckBatchResult, error) {
	args := m.Called(ctx, orgID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckBatchResult), args.Error(1)
}

func (m *MockCheckService) EnqueueChecks(ctx context.Context, orgID, projectID string) (*domain.CheckJob, error) {
	args := m.Called(ctx, orgID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckJob), args.Error(1)
}

func (m *MockCheckService) GetJob(ctx context.Context, orgID, jobID string) (*domain.CheckJob, error) {
	args := m.Called(ctx, orgID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckJob), args.Error(1)
}

func (m *MockCheckService) History(ctx context.Context, input service.HistoryInput) (*service.HistoryOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.HistoryOutput), args.Error(1)
}

func newTestBatch() *domain.CheckBatchResult {
	pos := 2
	return &domain.CheckBatchResult{
		ProjectID: "project-1",
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Outcomes: []domain.CheckOutcome{
			{Check: &domain.VisibilityCheck{
				ID:             "c1",
				ProjectID:      "project-1",
				Engine:         domain.EngineChatGPT,
				Keyword:        "best widgets",
				Presence:       true,
				Position:       &pos,
				CitationsCount: 1,
				Timestamp:      time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC),
			}},
			{Failure: &domain.CheckFailure{
				Keyword: "widget pricing",
				Engine:  domain.EngineGemini,
				Kind:    domain.CheckFailureExternalService,
				Message: "engine call timed out",
			}},
		},
	}
}

func TestCheckHandler_Run(t *testing.T) {
	mockSvc := new(MockCheckService)
	handler := NewCheckHandler(mockSvc)

	mockSvc.On("RunChecks", mock.Anything, "org-1", "project-1").Return(newTestBatch(), nil)

	body, _ := json.Marshal(RunChecksRequest{ProjectID: "project-1"})
	req := withOrg(httptest.NewRequest(http.MethodPost, "/checks/run", bytes.NewReader(body)), "org-1")
	rec := httptest.NewRecorder()

	handler.Run(rec, req)

	// Partial completion is still a 200.
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data RunChecksResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1 of 2 checks completed", resp.Data.Summary)
	assert.Equal(t, 1, resp.Data.Succeeded)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Checks, 1)
	assert.Equal(t, "c1", resp.Data.Checks[0].ID)
	require.Len(t, resp.Data.Failures, 1)
	assert.Equal(t, "external_service", resp.Data.Failures[0].Kind)
}

func TestCheckHandler_Run_MissingProjectID(t *testing.T) {
	handler := NewCheckHandler(new(MockCheckService))

	req := withOrg(httptest.NewRequest(http.MethodPost, "/checks/run", bytes.NewReader([]byte("{}"))), "org-1")
	rec := httptest.NewRecorder()

	handler.Run(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckHandler_Run_Unauthorized(t *testing.T) {
	handler := NewCheckHandler(new(MockCheckService))

	req := httptest.NewRequest(http.MethodPost, "/checks/run", bytes.NewReader([]byte("{}")))
	rec := httptest.NewRecorder()

	handler.Run(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckHandler_Run_ProjectNotFound(t *testing.T) {
	mockSvc := new(MockCheckService)
	handler := NewCheckHandler(mockSvc)

	mockSvc.On("RunChecks", mock.Anything, "org-1", "missing").Return(nil, domain.ErrProjectNotFound)

	body, _ := json.Marshal(RunChecksRequest{ProjectID: "missing"})
	req := withOrg(httptest.NewRequest(http.MethodPost, "/checks/run", bytes.NewReader(body)), "org-1")
	rec := httptest.NewRecorder()

	handler.Run(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckHandler_Enqueue(t *testing.T) {
	mockSvc := new(MockCheckService)
	handler := NewCheckHandler(mockSvc)

	job := domain.NewCheckJob("job-1", "project-1", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	mockSvc.On("EnqueueChecks", mock.Anything, "org-1", "project-1").Return(job, nil)

	body, _ := json.Marshal(RunChecksRequest{ProjectID: "project-1"})
	req := withOrg(httptest.NewRequest(http.MethodPost, "/checks/enqueue", bytes.NewReader(body)), "org-1")
	rec := httptest.NewRecorder()

	handler.Enqueue(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp struct {
		Data CheckJobResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.Data.ID)
	assert.Equal(t, "pending", resp.Data.Status)
}

func TestCheckHandler_GetJob(t *testing.T) {
	mockSvc := new(MockCheckService)
	handler := NewCheckHandler(mockSvc)

	job := &domain.CheckJob{
		ID:        "job-1",
		ProjectID: "project-1",
		Status:    domain.CheckJobStatusFailed,
		Retries:   3,
		Error:     "max retries exceeded: project gone",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	mockSvc.On("GetJob", mock.Anything, "org-1", "job-1").Return(job, nil)

	req := withURLParam(withOrg(httptest.NewRequest(http.MethodGet, "/checks/jobs/job-1", nil), "org-1"), "id", "job-1")
	rec := httptest.NewRecorder()

	handler.GetJob(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data CheckJobResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Data.Status)
	assert.Equal(t, 3, resp.Data.Retries)
	assert.Contains(t, resp.Data.Error, "max retries exceeded")
}

func TestCheckHandler_GetJob_NotFound(t *testing.T) {
	mockSvc := new(MockCheckService)
	handler := NewCheckHandler(mockSvc)

	mockSvc.On("GetJob", mock.Anything, "org-1", "job-missing").Return(nil, domain.ErrCheckJobNotFound)

	req := withURLParam(withOrg(httptest.NewRequest(http.MethodGet, "/checks/jobs/job-missing", nil), "org-1"), "id", "job-missing")
	rec := httptest.NewRecorder()

	handler.GetJob(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "check job not found", resp.Error)
}

func TestCheckHandler_History(t *testing.T) {
	mockSvc := new(MockCheckService)
	handler := NewCheckHandler(mockSvc)

	output := &service.HistoryOutput{
		Items:   []*domain.VisibilityCheck{newTestBatch().Outcomes[0].Check},
		Cursor:  "next-cursor",
		HasMore: true,
	}
	mockSvc.On("History", mock.Anything, service.HistoryInput{
		OrgID:     "org-1",
		ProjectID: "project-1",
		Days:      14,
		Limit:     10,
	}).Return(output, nil)

	req := withOrg(httptest.NewRequest(http.MethodGet, "/checks/history?project_id=project-1&days=14&limit=10", nil), "org-1")
	rec := httptest.NewRecorder()

	handler.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data HistoryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "next-cursor", resp.Data.Cursor)
	assert.True(t, resp.Data.HasMore)
}

func TestCheckHandler_History_BadQuery(t *testing.T) {
	handler := NewCheckHandler(new(MockCheckService))

	tests := []struct {
		name string
		url  string
	}{
		{"missing project_id", "/checks/history"},
		{"bad days", "/checks/history?project_id=p1&days=soon"},
		{"bad limit", "/checks/history?project_id=p1&limit=lots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withOrg(httptest.NewRequest(http.MethodGet, tt.url, nil), "org-1")
			rec := httptest.NewRecorder()

			handler.History(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
