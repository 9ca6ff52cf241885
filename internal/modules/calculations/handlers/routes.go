package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all standalone calculation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/calculations", func(r chi.Router) {
		r.Post("/cagr", h.HandleCAGR)
		r.Post("/beta", h.HandleBeta)
		r.Post("/npv", h.HandleNPV)
		r.Post("/monte-carlo", h.HandleMonteCarlo)
	})
}
