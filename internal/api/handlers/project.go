package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/api"
	"github.com/aeotrackhq/aeotrack/internal/api/middleware"
	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/aeotrackhq/aeotrack/internal/service"
	"github.com/go-chi/chi/v5"
)

type ProjectService interface {
	Create(ctx context.Context, input service.CreateProjectInput) (*domain.Project, error)
	Get(ctx context.Context, orgID, projectID string) (*domain.Project, error)
	List(ctx context.Context, orgID string) ([]*domain.Project, error)
	Update(ctx context.Context, orgID string, input service.UpdateProjectInput) (*domain.Project, error)
	Delete(ctx context.Context, orgID, projectID string) error
}

type ProjectHandler struct {
	svc ProjectService
}

func NewProjectHandler(svc ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

type CreateProjectRequest struct {
	Name        string   `json:"name"`
	Domain      string   `json:"domain"`
	Brand       string   `json:"brand"`
	Competitors []string `json:"competitors"`
	Keywords    []string `json:"keywords"`
}

type UpdateProjectRequest struct {
	Name        string   `json:"name"`
	Domain      string   `json:"domain"`
	Brand       string   `json:"brand"`
	Competitors []string `json:"competitors"`
	Keywords    []string `json:"keywords"`
}

type ProjectResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Domain      string   `json:"domain,omitempty"`
	Brand       string   `json:"brand"`
	Competitors []string `json:"competitors"`
	Keywords    []string `json:"keywords"`
	CreatedAt   string   `json:"created_at"`
}

func projectResponse(p *domain.Project) ProjectResponse {
	competitors := p.Competitors
	if competitors == nil {
		competitors = []string{}
	}
	keywords := p.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Domain:      p.Domain,
		Brand:       p.Brand,
		Competitors: competitors,
		Keywords:    keywords,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Brand == "" {
		api.Error(w, http.StatusBadRequest, "brand is required")
		return
	}

	project, err := h.svc.Create(r.Context(), service.CreateProjectInput{
		OrgID:       orgID,
		Name:        req.Name,
		Domain:      req.Domain,
		Brand:       req.Brand,
		Competitors: req.Competitors,
		Keywords:    req.Keywords,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, projectResponse(project))
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	project, err := h.svc.Get(r.Context(), orgID, chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, projectResponse(project))
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	projects, err := h.svc.List(r.Context(), orgID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]ProjectResponse, len(projects))
	for i, p := range projects {
		responses[i] = projectResponse(p)
	}

	api.Success(w, http.StatusOK, responses)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project, err := h.svc.Update(r.Context(), orgID, service.UpdateProjectInput{
		ProjectID:   chi.URLParam(r, "id"),
		Name:        req.Name,
		Domain:      req.Domain,
		Brand:       req.Brand,
		Competitors: req.Competitors,
		Keywords:    req.Keywords,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, projectResponse(project))
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.svc.Delete(r.Context(), orgID, chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}
