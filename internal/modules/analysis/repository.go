// Package analysis orchestrates the full investment-analysis pipeline and
// persists its results append-only.
package analysis

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
)

// Repository stores analysis results. The analyses table is append-only:
// rows are inserted once and never updated or deleted.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new analysis repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "analysis_repository").Logger(),
	}
}

// Save inserts one analysis result. The full aggregate goes into the JSON
// data column; a few fields are extracted for indexed querying.
func (r *Repository) Save(result domain.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis %s: %w", result.ID, err)
	}

	query := `
		INSERT INTO analyses (id, coin_id, recommendation, npv, cagr, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		result.ID,
		result.Coin.ID,
		result.Verdict.Action,
		result.Metrics.NPV,
		result.Metrics.CAGR,
		string(data),
		result.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis %s: %w", result.ID, err)
	}

	r.log.Info().
		Str("id", result.ID).
		Str("coin", result.Coin.ID).
		Str("recommendation", result.Verdict.Action).
		Msg("Analysis saved")
	return nil
}

// Get fetches one analysis by ID.
func (r *Repository) Get(id string) (domain.AnalysisResult, error) {
	var data string
	err := r.db.QueryRow(`SELECT data FROM analyses WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return domain.AnalysisResult{}, fmt.Errorf("%w: analysis %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("failed to query analysis %s: %w", id, err)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("failed to unmarshal analysis %s: %w", id, err)
	}
	return result, nil
}

// ListByCoin returns the most recent analyses for a coin, newest first.
func (r *Repository) ListByCoin(coinID string, limit int) ([]domain.AnalysisResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT data
		FROM analyses
		WHERE coin_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, coinID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses for %s: %w", coinID, err)
	}
	defer rows.Close()

	var results []domain.AnalysisResult
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		var result domain.AnalysisResult
		if err := json.Unmarshal([]byte(data), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}
	return results, nil
}
