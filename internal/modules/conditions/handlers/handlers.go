// Package handlers provides HTTP handlers for market-condition snapshots.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/conditions"
)

// Handler handles market-conditions HTTP requests
type Handler struct {
	service *conditions.Service
	log     zerolog.Logger
}

// NewHandler creates a new conditions handler
func NewHandler(service *conditions.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "conditions").Logger(),
	}
}

// RegisterRoutes registers the conditions routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/conditions", h.HandleGetConditions)
}

// HandleGetConditions handles GET /api/conditions
func (h *Handler) HandleGetConditions(w http.ResponseWriter, r *http.Request) {
	snapshot := h.service.Snapshot(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
