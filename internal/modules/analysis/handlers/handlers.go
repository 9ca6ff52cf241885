// Package handlers provides HTTP handlers for running and retrieving
// analyses.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/analysis"
)

// Handler handles analysis HTTP requests
type Handler struct {
	service *analysis.Service
	repo    *analysis.Repository
	log     zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(service *analysis.Service, repo *analysis.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		log:     log.With().Str("handler", "analysis").Logger(),
	}
}

// HandleRunAnalysis handles POST /api/analysis
func (h *Handler) HandleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	var inputs domain.InvestmentInputs
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
		return
	}

	result, err := h.service.Analyze(r.Context(), inputs)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.Error().Err(err).Str("coin", inputs.CoinID).Msg("Analysis failed")
		}
		h.writeError(w, status, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, result)
}

// HandleGetAnalysis handles GET /api/analysis/{id}
func (h *Handler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.repo.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Failed to get analysis")
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleListAnalyses handles GET /api/analysis?coin=bitcoin&limit=N
func (h *Handler) HandleListAnalyses(w http.ResponseWriter, r *http.Request) {
	coinID := r.URL.Query().Get("coin")
	if coinID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			h.writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
			return
		}
		limit = parsed
	}

	results, err := h.repo.ListByCoin(coinID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("coin", coinID).Msg("Failed to list analyses")
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if results == nil {
		results = []domain.AnalysisResult{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"coin_id":  coinID,
		"analyses": results,
		"count":    len(results),
	})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientData), errors.Is(err, domain.ErrDeadAsset):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAPIError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
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
