package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Coin metadata changes rarely.
	TTLCoinMetadata = 24 * time.Hour

	// Daily price history: the current day's candle keeps moving, so the
	// cached series is refreshed hourly.
	TTLPriceHistory = time.Hour

	// On-chain metrics publish on a daily cadence.
	TTLOnchainMetric = 6 * time.Hour

	// Macro series (Fed funds, S&P 500 index) update daily at most.
	TTLMacroSeries = 24 * time.Hour
)
