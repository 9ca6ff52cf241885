// Package coins manages the tracked-asset catalog, durable price history
// and on-chain snapshots in market.db.
package coins

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
)

// Repository provides access to coins, price history and on-chain snapshots.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new coin repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "coin_repository").Logger(),
	}
}

// UpsertCoin inserts or refreshes a coin's static attributes.
func (r *Repository) UpsertCoin(coin domain.Coin) error {
	query := `
		INSERT INTO coins (id, symbol, name, sector, market_cap, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			symbol     = excluded.symbol,
			name       = excluded.name,
			sector     = excluded.sector,
			market_cap = excluded.market_cap,
			updated_at = excluded.updated_at
	`

	updatedAt := coin.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(query, coin.ID, coin.Symbol, coin.Name, coin.Sector, coin.MarketCap, updatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert coin %s: %w", coin.ID, err)
	}
	return nil
}

// GetCoin fetches one coin by identifier.
func (r *Repository) GetCoin(id string) (domain.Coin, error) {
	query := `SELECT id, symbol, name, sector, market_cap, updated_at FROM coins WHERE id = ?`

	var coin domain.Coin
	var updatedAt string
	err := r.db.QueryRow(query, id).Scan(&coin.ID, &coin.Symbol, &coin.Name, &coin.Sector, &coin.MarketCap, &updatedAt)
	if err == sql.ErrNoRows {
		return domain.Coin{}, fmt.Errorf("%w: coin %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Coin{}, fmt.Errorf("failed to query coin %s: %w", id, err)
	}

	coin.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return coin, nil
}

// ListCoins returns all tracked coins ordered by market cap descending.
func (r *Repository) ListCoins() ([]domain.Coin, error) {
	query := `SELECT id, symbol, name, sector, market_cap, updated_at FROM coins ORDER BY market_cap DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query coins: %w", err)
	}
	defer rows.Close()

	var coins []domain.Coin
	for rows.Next() {
		var coin domain.Coin
		var updatedAt string
		if err := rows.Scan(&coin.ID, &coin.Symbol, &coin.Name, &coin.Sector, &coin.MarketCap, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan coin: %w", err)
		}
		coin.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		coins = append(coins, coin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coins: %w", err)
	}
	return coins, nil
}

// SavePriceHistory stores a series of daily price points. Existing rows for
// the same (coin, date) are replaced, so re-syncing a window is safe.
func (r *Repository) SavePriceHistory(coinID string, series domain.PriceSeries) error {
	if len(series) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO price_history (coin_id, date, price, volume, market_cap)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare price insert: %w", err)
	}
	defer stmt.Close()

	for _, point := range series {
		date := point.Date.UTC().Format("2006-01-02")
		if _, err := stmt.Exec(coinID, date, point.Price, point.Volume, point.MarketCap); err != nil {
			return fmt.Errorf("failed to insert price for %s %s: %w", coinID, date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price history: %w", err)
	}

	r.log.Debug().Str("coin", coinID).Int("points", len(series)).Msg("Saved price history")
	return nil
}

// GetPriceHistory returns up to `days` of daily prices for a coin, oldest
// first.
func (r *Repository) GetPriceHistory(coinID string, days int) (domain.PriceSeries, error) {
	if days <= 0 {
		return domain.PriceSeries{}, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	query := `
		SELECT date, price, volume, market_cap
		FROM price_history
		WHERE coin_id = ? AND date >= ?
		ORDER BY date ASC
	`

	rows, err := r.db.Query(query, coinID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var series domain.PriceSeries
	for rows.Next() {
		var point domain.PricePoint
		var date string
		if err := rows.Scan(&date, &point.Price, &point.Volume, &point.MarketCap); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		point.Date, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("bad date %q in price history: %w", date, err)
		}
		series = append(series, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}
	return series, nil
}

// SaveOnchainSnapshot records one (coin, metric, date) observation.
func (r *Repository) SaveOnchainSnapshot(coinID, metric string, date time.Time, value float64) error {
	query := `
		INSERT OR REPLACE INTO onchain_snapshots (coin_id, metric, date, value)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, coinID, metric, date.UTC().Format("2006-01-02"), value)
	if err != nil {
		return fmt.Errorf("failed to save onchain snapshot %s/%s: %w", coinID, metric, err)
	}
	return nil
}

// LatestOnchainSnapshot returns the most recent value of a metric for a coin.
func (r *Repository) LatestOnchainSnapshot(coinID, metric string) (float64, time.Time, error) {
	query := `
		SELECT value, date
		FROM onchain_snapshots
		WHERE coin_id = ? AND metric = ?
		ORDER BY date DESC
		LIMIT 1
	`

	var value float64
	var date string
	err := r.db.QueryRow(query, coinID, metric).Scan(&value, &date)
	if err == sql.ErrNoRows {
		return 0, time.Time{}, fmt.Errorf("%w: no %s snapshot for %s", domain.ErrNotFound, metric, coinID)
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to query onchain snapshot: %w", err)
	}

	parsed, _ := time.Parse("2006-01-02", date)
	return value, parsed, nil
}
