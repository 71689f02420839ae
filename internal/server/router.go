package server

import (
	"net/http"

	"github.com/aeotrackhq/aeotrack/internal/api"
	"github.com/aeotrackhq/aeotrack/internal/api/handlers"
	"github.com/aeotrackhq/aeotrack/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AuthValidator  middleware.AuthValidator
	AuthHandler    *handlers.AuthHandler
	ProjectHandler *handlers.ProjectHandler
	CheckHandler   *handlers.CheckHandler
	StatsHandler   *handlers.StatsHandler
	ExportHandler  *handlers.ExportHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", cfg.ProjectHandler.Create)
			r.Get("/", cfg.ProjectHandler.List)
			r.Get("/{id}", cfg.ProjectHandler.Get)
			r.Put("/{id}", cfg.ProjectHandler.Update)
			r.Delete("/{id}", cfg.ProjectHandler.Delete)
		})

		r.Route("/checks", func(r chi.Router) {
			r.Post("/run", cfg.CheckHandler.Run)
			r.Post("/enqueue", cfg.CheckHandler.Enqueue)
			r.Get("/jobs/{id}", cfg.CheckHandler.GetJob)
			r.Get("/history", cfg.CheckHandler.History)
		})

		r.Get("/dashboard/stats", cfg.StatsHandler.Dashboard)

		if cfg.ExportHandler != nil {
			r.Post("/exports", cfg.ExportHandler.Create)
		}
	})

	r.Post("/orgs", cfg.AuthHandler.CreateOrg)
	r.Post("/apikeys", cfg.AuthHandler.CreateAPIKey)

	return r
}
