package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all coin catalog routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/coins", func(r chi.Router) {
		r.Get("/", h.HandleListCoins)
		r.Get("/{id}", h.HandleGetCoin)
		r.Get("/{id}/history", h.HandleGetHistory)
	})
}
