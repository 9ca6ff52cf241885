package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes registers all analysis routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/analysis", func(r chi.Router) {
		// A full run fans out several upstream fetches and a 10k-path
		// simulation; give it more headroom than the default timeout.
		r.Use(middleware.Timeout(90 * time.Second))

		r.Post("/", h.HandleRunAnalysis)
		r.Get("/", h.HandleListAnalyses)
		r.Get("/{id}", h.HandleGetAnalysis)
	})
}
