package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/api"
	"github.com/aeotrackhq/aeotrack/internal/api/middleware"
	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/aeotrackhq/aeotrack/internal/service"
	"github.com/go-chi/chi/v5"
)

type CheckService interface {
	RunChecks(ctx context.Context, orgID, projectID string) (*domain.CheckBatchResult, error)
	EnqueueChecks(ctx context.Context, orgID, projectID string) (*domain.CheckJob, error)
	GetJob(ctx context.Context, orgID, jobID string) (*domain.CheckJob, error)
	History(ctx context.Context, input service.HistoryInput) (*service.HistoryOutput, error)
}

type CheckHandler struct {
	svc CheckService
}

func NewCheckHandler(svc CheckService) *CheckHandler {
	return &CheckHandler{svc: svc}
}

type RunChecksRequest struct {
	ProjectID string `json:"project_id"`
}

type CheckResponse struct {
	ID                   string   `json:"id"`
	ProjectID            string   `json:"project_id"`
	Engine               string   `json:"engine"`
	Keyword              string   `json:"keyword"`
	Presence             bool     `json:"presence"`
	Position             *int     `json:"position"`
	CitationsCount       int      `json:"citations_count"`
	ObservedURLs         []string `json:"observed_urls"`
	CompetitorsMentioned []string `json:"competitors_mentioned"`
	AnswerSnippet        string   `json:"answer_snippet"`
	Timestamp            string   `json:"timestamp"`
}

type CheckFailureResponse struct {
	Keyword string `json:"keyword"`
	Engine  string `json:"engine"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type RunChecksResponse struct {
	ProjectID string                 `json:"project_id"`
	StartedAt string                 `json:"started_at"`
	Summary   string                 `json:"summary"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Checks    []CheckResponse        `json:"checks"`
	Failures  []CheckFailureResponse `json:"failures"`
}

type CheckJobResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Status    string `json:"status"`
	Retries   int    `json:"retries"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

type HistoryResponse struct {
	Items   []CheckResponse `json:"items"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

func checkResponse(c *domain.VisibilityCheck) CheckResponse {
	urls := c.ObservedURLs
	if urls == nil {
		urls = []string{}
	}
	competitors := c.CompetitorsMentioned
	if competitors == nil {
		competitors = []string{}
	}
	return CheckResponse{
		ID:                   c.ID,
		ProjectID:            c.ProjectID,
		Engine:               string(c.Engine),
		Keyword:              c.Keyword,
		Presence:             c.Presence,
		Position:             c.Position,
		CitationsCount:       c.CitationsCount,
		ObservedURLs:         urls,
		CompetitorsMentioned: competitors,
		AnswerSnippet:        c.AnswerSnippet,
		Timestamp:            c.Timestamp.UTC().Format(time.RFC3339),
	}
}

func checkJobResponse(j *domain.CheckJob) CheckJobResponse {
	return CheckJobResponse{
		ID:        j.ID,
		ProjectID: j.ProjectID,
		Status:    string(j.Status),
		Retries:   int(j.Retries),
		Error:     j.Error,
		CreatedAt: j.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Run executes the full keyword × engine matrix synchronously. A response
// with failures is still a 200: partial completion is a result, not an error.
func (h *CheckHandler) Run(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RunChecksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProjectID == "" {
		api.Error(w, http.StatusBadRequest, "project_id is required")
		return
	}

	result, err := h.svc.RunChecks(r.Context(), orgID, req.ProjectID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	checks := result.Checks()
	checkResponses := make([]CheckResponse, len(checks))
	for i, c := range checks {
		checkResponses[i] = checkResponse(c)
	}

	failures := result.Failures()
	failureResponses := make([]CheckFailureResponse, len(failures))
	for i, f := range failures {
		failureResponses[i] = CheckFailureResponse{
			Keyword: f.Keyword,
			Engine:  string(f.Engine),
			Kind:    string(f.Kind),
			Message: f.Message,
		}
	}

	api.Success(w, http.StatusOK, RunChecksResponse{
		ProjectID: result.ProjectID,
		StartedAt: result.StartedAt.UTC().Format(time.RFC3339),
		Summary:   result.Summary(),
		Succeeded: result.Succeeded(),
		Failed:    result.Failed(),
		Checks:    checkResponses,
		Failures:  failureResponses,
	})
}

// Enqueue records a check run for the background worker instead of running inline
func (h *CheckHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RunChecksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProjectID == "" {
		api.Error(w, http.StatusBadRequest, "project_id is required")
		return
	}

	job, err := h.svc.EnqueueChecks(r.Context(), orgID, req.ProjectID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, checkJobResponse(job))
}

// GetJob returns the status of a queued check run
func (h *CheckHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	job, err := h.svc.GetJob(r.Context(), orgID, chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, checkJobResponse(job))
}

// History returns a cursor page of recent checks, newest first
func (h *CheckHandler) History(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		api.Error(w, http.StatusBadRequest, "project_id is required")
		return
	}

	days, err := queryInt(r, "days", 0)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid days")
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid limit")
		return
	}

	output, err := h.svc.History(r.Context(), service.HistoryInput{
		OrgID:     orgID,
		ProjectID: projectID,
		Days:      days,
		Cursor:    r.URL.Query().Get("cursor"),
		Limit:     limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]CheckResponse, len(output.Items))
	for i, c := range output.Items {
		items[i] = checkResponse(c)
	}

	api.Success(w, http.StatusOK, HistoryResponse{
		Items:   items,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
