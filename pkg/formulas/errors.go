package formulas

import "errors"

// Calculation errors. Callers are expected to match these with errors.Is
// and either surface them or fall back to a lower-fidelity path.
var (
	// ErrInsufficientData indicates the price history is too short or too
	// sparse for a reliable calculation.
	ErrInsufficientData = errors.New("INSUFFICIENT_DATA")

	// ErrDeadAsset indicates the asset's price has collapsed below 1% of
	// its all-time high.
	ErrDeadAsset = errors.New("DEAD_ASSET")
)
