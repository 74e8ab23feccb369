package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/GarciaKevinFab/academico-sync/internal/database"
	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/reconciliation/domain"
)

// MySQLReconciliationRepository persists reconciliation results in MySQL.
// UUIDs are stored as BINARY(16).
type MySQLReconciliationRepository struct {
	db *sql.DB
}

// NewMySQLReconciliationRepository creates a new MySQLReconciliationRepository.
func NewMySQLReconciliationRepository(db *sql.DB) *MySQLReconciliationRepository {
	return &MySQLReconciliationRepository{db: db}
}

const myResultColumns = `id, period_id, started_at, duration_ms, summaries, discrepancies,
	discrepancy_count, reprocessed_count, report_path, created_at`

// Create inserts a reconciliation result.
func (m *MySQLReconciliationRepository) Create(ctx context.Context, result *domain.Result) error {
	querier := database.GetTx(ctx, m.db)

	summaries, discrepancies, err := marshalResultDocs(result)
	if err != nil {
		return err
	}

	idBytes, err := result.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal result id")
	}

	query := `INSERT INTO reconciliation_results (` + myResultColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		result.PeriodID,
		result.StartedAt,
		result.DurationMS,
		summaries,
		discrepancies,
		result.DiscrepancyCount,
		result.ReprocessedCount,
		result.ReportPath,
		result.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create reconciliation result")
	}
	return nil
}

// GetByID retrieves one result.
func (m *MySQLReconciliationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Result, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal result id")
	}

	query := `SELECT ` + myResultColumns + ` FROM reconciliation_results WHERE id = ?`

	result, err := scanMyResult(querier.QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return result, nil
}

// ListByPeriod retrieves a period's results, newest first. An empty period
// lists every run.
func (m *MySQLReconciliationRepository) ListByPeriod(
	ctx context.Context,
	periodID string,
	limit, offset int,
) ([]*domain.Result, error) {
	querier := database.GetTx(ctx, m.db)

	var rows *sql.Rows
	var err error
	if periodID == "" {
		query := `SELECT ` + myResultColumns + ` FROM reconciliation_results
				  ORDER BY created_at DESC LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	} else {
		query := `SELECT ` + myResultColumns + ` FROM reconciliation_results
				  WHERE period_id = ?
				  ORDER BY created_at DESC LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, periodID, limit, offset)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list reconciliation results")
	}
	defer rows.Close() //nolint:errcheck

	var results []*domain.Result
	for rows.Next() {
		result, err := scanMyResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate reconciliation results")
	}
	return results, nil
}

func scanMyResult(scanner rowScanner) (*domain.Result, error) {
	var result domain.Result
	var idBytes, summaries, discrepancies []byte
	err := scanner.Scan(
		&idBytes,
		&result.PeriodID,
		&result.StartedAt,
		&result.DurationMS,
		&summaries,
		&discrepancies,
		&result.DiscrepancyCount,
		&result.ReprocessedCount,
		&result.ReportPath,
		&result.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan reconciliation result")
	}

	// Convert bytes back to UUID
	if err := result.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := json.Unmarshal(summaries, &result.Summaries); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal summaries")
	}
	if err := json.Unmarshal(discrepancies, &result.Discrepancies); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal discrepancies")
	}
	return &result, nil
}
