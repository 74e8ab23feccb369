package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/reconciliation/domain"
)

func newMockDB(t *testing.T) (sqlmock.Sqlmock, *PostgreSQLReconciliationRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck
	return mock, NewPostgreSQLReconciliationRepository(db)
}

func sampleResult() *domain.Result {
	result := domain.NewResult("2026-I", time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC))
	result.DurationMS = 1250
	result.Summaries = []domain.TypeSummary{
		{EntityType: "enrollment", LocalCount: 120, RemoteCount: 119, DiscrepancyCount: 1},
		{EntityType: "grade", LocalCount: 300, RemoteCount: 0, RemoteFetchFailed: true},
	}
	result.Discrepancies = []domain.Discrepancy{
		{EntityType: "enrollment", Key: "EST-042", Type: domain.MissingInRemote},
	}
	result.DiscrepancyCount = 1
	result.ReprocessedCount = 1
	result.ReportPath = "reconciliations/2026-I/" + result.ID.String() + ".csv"
	return result
}

func resultRows(results ...*domain.Result) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "period_id", "started_at", "duration_ms", "summaries", "discrepancies",
		"discrepancy_count", "reprocessed_count", "report_path", "created_at",
	})
	for _, r := range results {
		summaries, _ := json.Marshal(r.Summaries)
		discrepancies, _ := json.Marshal(r.Discrepancies)
		rows.AddRow(
			r.ID, r.PeriodID, r.StartedAt, r.DurationMS, summaries, discrepancies,
			r.DiscrepancyCount, r.ReprocessedCount, r.ReportPath, r.CreatedAt,
		)
	}
	return rows
}

func TestPostgreSQLReconciliationRepository_Create(t *testing.T) {
	t.Run("Success_Create", func(t *testing.T) {
		mock, repo := newMockDB(t)
		result := sampleResult()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reconciliation_results")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(context.Background(), result))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_NilDocumentsStoredAsEmptyArrays", func(t *testing.T) {
		mock, repo := newMockDB(t)
		result := domain.NewResult("2026-II", time.Now().UTC())

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reconciliation_results")).
			WithArgs(
				result.ID, result.PeriodID, result.StartedAt, result.DurationMS,
				[]byte("[]"), []byte("[]"),
				result.DiscrepancyCount, result.ReprocessedCount, result.ReportPath, result.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(context.Background(), result))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLReconciliationRepository_GetByID(t *testing.T) {
	t.Run("Success_GetByID", func(t *testing.T) {
		mock, repo := newMockDB(t)
		result := sampleResult()

		mock.ExpectQuery(regexp.QuoteMeta("FROM reconciliation_results WHERE id = $1")).
			WithArgs(result.ID).
			WillReturnRows(resultRows(result))

		found, err := repo.GetByID(context.Background(), result.ID)

		require.NoError(t, err)
		assert.Equal(t, result.PeriodID, found.PeriodID)
		require.Len(t, found.Summaries, 2)
		assert.True(t, found.Summaries[1].RemoteFetchFailed)
		require.Len(t, found.Discrepancies, 1)
		assert.Equal(t, domain.MissingInRemote, found.Discrepancies[0].Type)
		assert.Equal(t, result.ReportPath, found.ReportPath)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		mock, repo := newMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM reconciliation_results WHERE id = $1")).
			WillReturnRows(resultRows())

		_, err := repo.GetByID(context.Background(), uuid.Must(uuid.NewV7()))

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestPostgreSQLReconciliationRepository_ListByPeriod(t *testing.T) {
	t.Run("Success_FilteredByPeriod", func(t *testing.T) {
		mock, repo := newMockDB(t)
		result := sampleResult()

		mock.ExpectQuery(regexp.QuoteMeta("WHERE period_id = $1")).
			WithArgs("2026-I", 10, 0).
			WillReturnRows(resultRows(result))

		results, err := repo.ListByPeriod(context.Background(), "2026-I", 10, 0)

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, result.ID, results[0].ID)
	})

	t.Run("Success_EmptyPeriodListsAll", func(t *testing.T) {
		mock, repo := newMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
			WithArgs(10, 0).
			WillReturnRows(resultRows(sampleResult(), sampleResult()))

		results, err := repo.ListByPeriod(context.Background(), "", 10, 0)

		require.NoError(t, err)
		assert.Len(t, results, 2)
	})
}
