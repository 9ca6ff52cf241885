package coins

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
)

// MarketDataClient is the slice of the market-data API the sync needs.
type MarketDataClient interface {
	GetCoin(ctx context.Context, coinID string) (domain.Coin, error)
	GetPriceHistory(ctx context.Context, coinID string, days int) (domain.PriceSeries, error)
}

// Days of history pulled per sync run. The CAGR engine needs at least 90
// dense days; a full year keeps the volatility windows well fed.
const syncHistoryDays = 365

// SyncService refreshes the coin catalog and price history from the
// market-data provider.
type SyncService struct {
	repo    *Repository
	client  MarketDataClient
	tracked []string
	log     zerolog.Logger
}

// NewSyncService creates a sync service for the given tracked coin IDs.
func NewSyncService(repo *Repository, client MarketDataClient, tracked []string, log zerolog.Logger) *SyncService {
	return &SyncService{
		repo:    repo,
		client:  client,
		tracked: tracked,
		log:     log.With().Str("component", "coin_sync").Logger(),
	}
}

// SyncAll refreshes every tracked coin. A failure on one coin is logged and
// skipped so the rest of the universe still syncs.
func (s *SyncService) SyncAll(ctx context.Context) error {
	var failed int
	for _, coinID := range s.tracked {
		if err := s.SyncCoin(ctx, coinID); err != nil {
			s.log.Error().Err(err).Str("coin", coinID).Msg("Sync failed")
			failed++
		}
	}

	if failed == len(s.tracked) && len(s.tracked) > 0 {
		return fmt.Errorf("sync failed for all %d tracked coins", failed)
	}

	s.log.Info().Int("synced", len(s.tracked)-failed).Int("failed", failed).Msg("Coin sync complete")
	return nil
}

// SyncCoin refreshes metadata and price history for one coin.
func (s *SyncService) SyncCoin(ctx context.Context, coinID string) error {
	coin, err := s.client.GetCoin(ctx, coinID)
	if err != nil {
		return fmt.Errorf("fetch coin %s: %w", coinID, err)
	}
	coin.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpsertCoin(coin); err != nil {
		return err
	}

	series, err := s.client.GetPriceHistory(ctx, coinID, syncHistoryDays)
	if err != nil {
		return fmt.Errorf("fetch history %s: %w", coinID, err)
	}

	return s.repo.SavePriceHistory(coinID, series)
}

// Name returns the job name used in scheduler logs.
func (s *SyncService) Name() string {
	return "coin_sync"
}

// Run implements the scheduled-job contract.
func (s *SyncService) Run(ctx context.Context) error {
	return s.SyncAll(ctx)
}
