package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aeotrackhq/aeotrack/internal/api"
	"github.com/aeotrackhq/aeotrack/internal/api/middleware"
	"github.com/aeotrackhq/aeotrack/internal/service"
)

type ExportService interface {
	Export(ctx context.Context, orgID, projectID string, days int) (*service.ExportResult, error)
}

type ExportHandler struct {
	svc ExportService
}

func NewExportHandler(svc ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

type CreateExportRequest struct {
	ProjectID string `json:"project_id"`
	Days      int    `json:"days"`
}

// Create renders a CSV export and returns a presigned download link
func (h *ExportHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProjectID == "" {
		api.Error(w, http.StatusBadRequest, "project_id is required")
		return
	}

	result, err := h.svc.Export(r.Context(), orgID, req.ProjectID, req.Days)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, result)
}
