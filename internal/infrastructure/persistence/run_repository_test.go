package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketsync/backend/internal/domain/run"
	"github.com/marketsync/backend/tests/testutil"
)

func TestRunRepositorySaveAndFindRecent(t *testing.T) {
	repo := NewGormRunRepository(newTestDB(t))

	first, err := run.Start("store-1", run.KindCards)
	require.NoError(t, err)
	first.StartedAt = time.Now().Add(-time.Hour)
	first.Complete(10, 8, 2)
	require.NoError(t, repo.Save(context.Background(), first))

	second, err := run.Start("store-1", run.KindPrices)
	require.NoError(t, err)
	second.Fail(assert.AnError)
	require.NoError(t, repo.Save(context.Background(), second))

	runs, err := repo.FindRecent(context.Background(), "store-1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Newest first.
	assert.Equal(t, run.KindPrices, runs[0].Kind)
	assert.Equal(t, run.StatusFailed, runs[0].Status)
	assert.Equal(t, run.StatusCompleted, runs[1].Status)
	assert.Equal(t, 8, runs[1].Succeeded)
}

func TestRunRepositoryFindRecentDefaultLimit(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"id", "store", "kind", "status"}).
		AddRow(uuid.New(), "store-1", "cards", "completed")

	mockDB.Mock.ExpectQuery(`SELECT \* FROM "sync_runs" WHERE store = \$1 ORDER BY started_at DESC LIMIT \$2`).
		WithArgs("store-1", 50).
		WillReturnRows(rows)

	repo := NewGormRunRepository(mockDB.DB)
	runs, err := repo.FindRecent(context.Background(), "store-1", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	mockDB.ExpectationsWereMet(t)
}
