package optimization

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/pkg/formulas"
)

// HistorySource supplies stored daily closes, most recent last.
type HistorySource interface {
	Closes(symbol domain.Symbol, limit int) ([]float64, error)
}

// ReturnsProvider builds the T x N historical-returns matrix the
// optimizers consume from a price-history store.
type ReturnsProvider struct {
	history HistorySource
	log     zerolog.Logger
}

// NewReturnsProvider creates a provider over the given history store.
func NewReturnsProvider(history HistorySource, log zerolog.Logger) *ReturnsProvider {
	return &ReturnsProvider{
		history: history,
		log:     log.With().Str("component", "returns_provider").Logger(),
	}
}

// Matrix returns a lookback x len(symbols) matrix of simple daily
// returns. Every symbol must have at least lookback+1 stored closes.
func (p *ReturnsProvider) Matrix(symbols []domain.Symbol, lookback int) (*mat.Dense, error) {
	if len(symbols) == 0 || lookback < 2 {
		return nil, ErrEmptyReturns
	}

	m := mat.NewDense(lookback, len(symbols), nil)
	for j, symbol := range symbols {
		closes, err := p.history.Closes(symbol, lookback+1)
		if err != nil {
			return nil, fmt.Errorf("failed to load closes for %s: %w", symbol, err)
		}
		returns := formulas.CalculateReturns(closes)
		if len(returns) < lookback {
			return nil, fmt.Errorf("%w: %s has %d return samples, need %d", ErrEmptyReturns, symbol, len(returns), lookback)
		}
		// Most recent lookback samples.
		returns = returns[len(returns)-lookback:]
		for i, r := range returns {
			m.Set(i, j, r)
		}
	}

	p.log.Debug().
		Int("symbols", len(symbols)).
		Int("lookback", lookback).
		Msg("Built historical returns matrix")

	return m, nil
}
