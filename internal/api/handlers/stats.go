package handlers

import (
	"context"
	"net/http"

	"github.com/aeotrackhq/aeotrack/internal/api"
	"github.com/aeotrackhq/aeotrack/internal/api/middleware"
	"github.com/aeotrackhq/aeotrack/internal/domain"
)

type StatsService interface {
	Dashboard(ctx context.Context, orgID, projectID string, days int) (*domain.DashboardStats, error)
}

type StatsHandler struct {
	svc StatsService
}

func NewStatsHandler(svc StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// Dashboard returns aggregated visibility stats for a project window
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
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

	stats, err := h.svc.Dashboard(r.Context(), orgID, projectID, days)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, stats)
}
