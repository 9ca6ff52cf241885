// Package handlers exposes the formula engines as standalone HTTP
// endpoints, so each cluster can be invoked without running a full
// analysis.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/pkg/formulas"
)

// Handler handles standalone calculation requests
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new calculations handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "calculations").Logger(),
	}
}

// CAGRRequest is the body of POST /api/calculations/cagr.
type CAGRRequest struct {
	Dates             []string  `json:"dates"`  // YYYY-MM-DD, strictly increasing
	Prices            []float64 `json:"prices"` // Aligned with dates
	SourceReliability float64   `json:"source_reliability,omitempty"`
}

// HandleCAGR handles POST /api/calculations/cagr
func (h *Handler) HandleCAGR(w http.ResponseWriter, r *http.Request) {
	var req CAGRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
		return
	}

	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
			return
		}
		dates = append(dates, parsed)
	}

	reliability := req.SourceReliability
	if reliability == 0 {
		reliability = 0.9
	}

	result, err := formulas.CalculateCAGR(formulas.CAGRInput{
		Dates:             dates,
		Prices:            req.Prices,
		SourceReliability: reliability,
	})
	if err != nil && !result.Dead {
		h.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// BetaRequest is the body of POST /api/calculations/beta.
type BetaRequest struct {
	AssetReturns     []float64 `json:"asset_returns"`
	BenchmarkReturns []float64 `json:"benchmark_returns"`
	Volumes          []float64 `json:"volumes,omitempty"`
	SectorBeta       float64   `json:"sector_beta,omitempty"`
}

// HandleBeta handles POST /api/calculations/beta
func (h *Handler) HandleBeta(w http.ResponseWriter, r *http.Request) {
	var req BetaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
		return
	}
	if len(req.AssetReturns) != len(req.BenchmarkReturns) {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
		return
	}

	sectorBeta := req.SectorBeta
	if sectorBeta == 0 {
		sectorBeta = formulas.DefaultBeta
	}

	result := formulas.CalculateComprehensiveBeta(req.AssetReturns, req.BenchmarkReturns, req.Volumes, sectorBeta)
	h.writeJSON(w, http.StatusOK, result)
}

// NPVRequest is the body of POST /api/calculations/npv.
type NPVRequest struct {
	Investment       float64 `json:"investment"`
	CAGR             float64 `json:"cagr"`
	Years            float64 `json:"years"`
	Beta             float64 `json:"beta,omitempty"`
	RiskFreeRate     float64 `json:"risk_free_rate,omitempty"`
	MarketReturn     float64 `json:"market_return,omitempty"`
	LiquidityPremium float64 `json:"liquidity_premium,omitempty"`
}

// HandleNPV handles POST /api/calculations/npv
func (h *Handler) HandleNPV(w http.ResponseWriter, r *http.Request) {
	var req NPVRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
		return
	}
	if req.Investment <= 0 || req.Years <= 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
		return
	}

	beta := req.Beta
	if beta == 0 {
		beta = formulas.DefaultBeta
	}
	riskFree := req.RiskFreeRate
	if riskFree == 0 {
		riskFree = formulas.DefaultRiskFreeRate
	}
	marketReturn := req.MarketReturn
	if marketReturn == 0 {
		marketReturn = formulas.MarketReturnSP500
	}

	discountRate := formulas.DiscountRate(riskFree, beta, marketReturn, req.LiquidityPremium)
	result := formulas.CalculateNPV(req.Investment, req.CAGR, req.Years, discountRate)
	h.writeJSON(w, http.StatusOK, result)
}

// MonteCarloRequest is the body of POST /api/calculations/monte-carlo.
type MonteCarloRequest struct {
	Investment        float64 `json:"investment"`
	MeanMonthlyReturn float64 `json:"mean_monthly_return"`
	MonthlyStdDev     float64 `json:"monthly_std_dev"`
	HorizonMonths     int     `json:"horizon_months"`
	Paths             int     `json:"paths,omitempty"`
}

// HandleMonteCarlo handles POST /api/calculations/monte-carlo
func (h *Handler) HandleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	var req MonteCarloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
		return
	}
	if req.Investment <= 0 || req.HorizonMonths <= 0 || req.MonthlyStdDev < 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
		return
	}

	paths := req.Paths
	if paths <= 0 {
		paths = formulas.DefaultMonteCarloPaths
	}
	if paths > 100000 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
		return
	}

	result := formulas.RunMonteCarlo(req.Investment, req.MeanMonthlyReturn, req.MonthlyStdDev, req.HorizonMonths, paths)
	h.writeJSON(w, http.StatusOK, result)
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
