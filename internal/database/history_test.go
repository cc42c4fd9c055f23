package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/pkg/logger"
)

func testRepository(t *testing.T) *HistoryRepository {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return NewHistoryRepository(db.Conn(), logger.Nop())
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestSaveCloseAndReadBackOldestFirst(t *testing.T) {
	repo := testRepository(t)

	require.NoError(t, repo.SaveClose("AAPL", day(3), 103))
	require.NoError(t, repo.SaveClose("AAPL", day(1), 101))
	require.NoError(t, repo.SaveClose("AAPL", day(2), 102))

	closes, err := repo.Closes("AAPL", 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{101, 102, 103}, closes)
}

func TestClosesLimitKeepsMostRecent(t *testing.T) {
	repo := testRepository(t)

	for d := 1; d <= 5; d++ {
		require.NoError(t, repo.SaveClose("AAPL", day(d), float64(100+d)))
	}

	closes, err := repo.Closes("AAPL", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{104, 105}, closes)
}

func TestSaveCloseUpsertsSameDay(t *testing.T) {
	repo := testRepository(t)

	require.NoError(t, repo.SaveClose("AAPL", day(1), 100))
	require.NoError(t, repo.SaveClose("AAPL", day(1), 105))

	closes, err := repo.Closes("AAPL", 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{105}, closes)
}

func TestClosesUnknownSymbolIsEmpty(t *testing.T) {
	repo := testRepository(t)

	closes, err := repo.Closes("NOPE", 10)
	require.NoError(t, err)
	assert.Empty(t, closes)
}

func TestSymbols(t *testing.T) {
	repo := testRepository(t)

	require.NoError(t, repo.SaveClose("MSFT", day(1), 400))
	require.NoError(t, repo.SaveClose("AAPL", day(1), 100))
	require.NoError(t, repo.SaveClose("AAPL", day(2), 101))

	symbols, err := repo.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []domain.Symbol{"AAPL", "MSFT"}, symbols)
}

func TestPruneDeletesOnlyStaleRows(t *testing.T) {
	repo := testRepository(t)

	require.NoError(t, repo.SaveClose("AAPL", day(1), 101))
	require.NoError(t, repo.SaveClose("AAPL", day(2), 102))
	require.NoError(t, repo.SaveClose("AAPL", day(10), 110))

	deleted, err := repo.Prune(day(3))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	closes, err := repo.Closes("AAPL", 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{110}, closes)
}
