package conditions

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clients/glassnode"
)

// SnapshotStore persists durable on-chain observations.
type SnapshotStore interface {
	SaveOnchainSnapshot(coinID, metric string, date time.Time, value float64) error
}

// RefreshJob warms the macro and on-chain caches once a day and records the
// latest on-chain values as durable snapshots, so trend queries work even
// when the provider is down later.
type RefreshJob struct {
	onchain OnchainSource
	macro   MacroSource
	store   SnapshotStore
	log     zerolog.Logger
}

// NewRefreshJob creates the daily refresh job.
func NewRefreshJob(onchain OnchainSource, macro MacroSource, store SnapshotStore, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		onchain: onchain,
		macro:   macro,
		store:   store,
		log:     log.With().Str("job", "macro_refresh").Logger(),
	}
}

// Name returns the job name used in scheduler logs.
func (j *RefreshJob) Name() string {
	return "macro_refresh"
}

// Run refreshes the macro series and snapshots the on-chain metrics.
func (j *RefreshJob) Run(ctx context.Context) error {
	if j.macro != nil {
		if _, err := j.macro.FedRateChange(ctx); err != nil {
			j.log.Warn().Err(err).Msg("Failed to refresh macro series")
		}
	}

	if j.onchain == nil || !j.onchain.Enabled() {
		return nil
	}

	today := time.Now().UTC()
	metrics := map[string]string{
		"aviv":          glassnode.MetricAVIV,
		"vaulted":       glassnode.MetricVaultedSupply,
		"active_supply": glassnode.MetricActiveSupply,
	}

	for name, path := range metrics {
		value, err := j.onchain.LatestValue(ctx, path, "BTC")
		if err != nil {
			j.log.Warn().Err(err).Str("metric", name).Msg("Failed to fetch on-chain metric")
			continue
		}
		if err := j.store.SaveOnchainSnapshot("bitcoin", name, today, value); err != nil {
			j.log.Error().Err(err).Str("metric", name).Msg("Failed to store on-chain snapshot")
		}
	}

	return nil
}
