package domain

import (
	"errors"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/pkg/formulas"
)

// Typed errors surfaced by the pipeline. Calculation-level errors
// (insufficient data, dead asset) originate in pkg/formulas and are
// re-exported here so callers have one package to match against.
var (
	// ErrInsufficientData: history too short or too sparse.
	ErrInsufficientData = formulas.ErrInsufficientData
	// ErrDeadAsset: price collapsed relative to the all-time high.
	ErrDeadAsset = formulas.ErrDeadAsset

	// ErrAPIError: an upstream fetch failed, including auth and
	// rate-limit statuses.
	ErrAPIError = errors.New("API_ERROR")
	// ErrInvalidInput: user-supplied parameters failed validation.
	ErrInvalidInput = errors.New("INVALID_INPUT")
	// ErrNotFound: a referenced coin or analysis does not exist.
	ErrNotFound = errors.New("NOT_FOUND")
)

// ErrorCode maps a pipeline error to its wire-level code for the JSON
// error envelope. Unknown errors map to CALCULATION_ERROR.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientData):
		return "INSUFFICIENT_DATA"
	case errors.Is(err, ErrDeadAsset):
		return "DEAD_ASSET"
	case errors.Is(err, ErrAPIError):
		return "API_ERROR"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	default:
		return "CALCULATION_ERROR"
	}
}
