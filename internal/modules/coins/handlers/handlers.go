// Package handlers provides HTTP handlers for the coin catalog.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/coins"
)

// Handler handles coin catalog HTTP requests
type Handler struct {
	repo *coins.Repository
	log  zerolog.Logger
}

// NewHandler creates a new coins handler
func NewHandler(repo *coins.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "coins").Logger(),
	}
}

// HandleListCoins handles GET /api/coins
func (h *Handler) HandleListCoins(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.ListCoins()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list coins")
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if list == nil {
		list = []domain.Coin{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"coins": list,
		"count": len(list),
	})
}

// HandleGetCoin handles GET /api/coins/{id}
func (h *Handler) HandleGetCoin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	coin, err := h.repo.GetCoin(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.log.Error().Err(err).Str("coin", id).Msg("Failed to get coin")
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.writeJSON(w, http.StatusOK, coin)
}

// HandleGetHistory handles GET /api/coins/{id}/history?days=N
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	days := 365
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
			return
		}
		days = parsed
	}

	series, err := h.repo.GetPriceHistory(id, days)
	if err != nil {
		h.log.Error().Err(err).Str("coin", id).Msg("Failed to get price history")
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(series) == 0 {
		h.writeError(w, http.StatusNotFound, domain.ErrNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"coin_id": id,
		"days":    days,
		"history": series,
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response with its machine-readable code
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  domain.ErrorCode(err),
	})
}
