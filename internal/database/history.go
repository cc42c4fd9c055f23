package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
)

// HistoryRepository stores daily closing prices for the returns
// matrices fed to the portfolio optimizers.
type HistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// SaveClose upserts one daily close.
func (r *HistoryRepository) SaveClose(symbol domain.Symbol, date time.Time, close float64) error {
	query := `
		INSERT INTO price_history (symbol, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT (symbol, date) DO UPDATE SET close = excluded.close
	`
	if _, err := r.db.Exec(query, string(symbol), date.Format("2006-01-02"), close); err != nil {
		return fmt.Errorf("failed to save close for %s: %w", symbol, err)
	}
	return nil
}

// Closes returns up to limit most recent closes for a symbol, oldest
// first.
func (r *HistoryRepository) Closes(symbol domain.Symbol, limit int) ([]float64, error) {
	query := `
		SELECT close FROM (
			SELECT date, close
			FROM price_history
			WHERE symbol = ?
			ORDER BY date DESC
			LIMIT ?
		)
		ORDER BY date ASC
	`
	rows, err := r.db.Query(query, string(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes for %s: %w", symbol, err)
	}
	defer rows.Close()

	var closes []float64
	for rows.Next() {
		var close float64
		if err := rows.Scan(&close); err != nil {
			return nil, fmt.Errorf("failed to scan close: %w", err)
		}
		closes = append(closes, close)
	}
	return closes, rows.Err()
}

// Symbols returns every symbol with stored history.
func (r *HistoryRepository) Symbols() ([]domain.Symbol, error) {
	rows, err := r.db.Query(`SELECT DISTINCT symbol FROM price_history ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []domain.Symbol
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, domain.Symbol(s))
	}
	return symbols, rows.Err()
}

// Prune deletes closes older than the retention window.
func (r *HistoryRepository) Prune(olderThan time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM price_history WHERE date < ?`, olderThan.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		r.log.Info().Int64("rows", deleted).Msg("Pruned stale price history")
	}
	return deleted, nil
}
