// Package repository implements append-only persistence for reconciliation
// results. Summaries and discrepancies are stored as JSON documents.
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

// PostgreSQLReconciliationRepository persists reconciliation results in PostgreSQL.
type PostgreSQLReconciliationRepository struct {
	db *sql.DB
}

// NewPostgreSQLReconciliationRepository creates a new PostgreSQLReconciliationRepository.
func NewPostgreSQLReconciliationRepository(db *sql.DB) *PostgreSQLReconciliationRepository {
	return &PostgreSQLReconciliationRepository{db: db}
}

const pgResultColumns = `id, period_id, started_at, duration_ms, summaries, discrepancies,
	discrepancy_count, reprocessed_count, report_path, created_at`

// Create inserts a reconciliation result.
func (p *PostgreSQLReconciliationRepository) Create(ctx context.Context, result *domain.Result) error {
	querier := database.GetTx(ctx, p.db)

	summaries, discrepancies, err := marshalResultDocs(result)
	if err != nil {
		return err
	}

	query := `INSERT INTO reconciliation_results (` + pgResultColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = querier.ExecContext(
		ctx,
		query,
		result.ID,
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
func (p *PostgreSQLReconciliationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Result, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgResultColumns + ` FROM reconciliation_results WHERE id = $1`

	result, err := scanResult(querier.QueryRowContext(ctx, query, id))
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
func (p *PostgreSQLReconciliationRepository) ListByPeriod(
	ctx context.Context,
	periodID string,
	limit, offset int,
) ([]*domain.Result, error) {
	querier := database.GetTx(ctx, p.db)

	var rows *sql.Rows
	var err error
	if periodID == "" {
		query := `SELECT ` + pgResultColumns + ` FROM reconciliation_results
				  ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	} else {
		query := `SELECT ` + pgResultColumns + ` FROM reconciliation_results
				  WHERE period_id = $1
				  ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = querier.QueryContext(ctx, query, periodID, limit, offset)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list reconciliation results")
	}
	defer rows.Close() //nolint:errcheck

	var results []*domain.Result
	for rows.Next() {
		result, err := scanResult(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(scanner rowScanner) (*domain.Result, error) {
	var result domain.Result
	var summaries, discrepancies []byte
	err := scanner.Scan(
		&result.ID,
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

	if err := json.Unmarshal(summaries, &result.Summaries); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal summaries")
	}
	if err := json.Unmarshal(discrepancies, &result.Discrepancies); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal discrepancies")
	}
	return &result, nil
}

func marshalResultDocs(result *domain.Result) (summaries, discrepancies []byte, err error) {
	// Empty slices marshal to [] so scans never face NULL documents.
	if result.Summaries == nil {
		result.Summaries = []domain.TypeSummary{}
	}
	if result.Discrepancies == nil {
		result.Discrepancies = []domain.Discrepancy{}
	}
	summaries, err = json.Marshal(result.Summaries)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal summaries")
	}
	discrepancies, err = json.Marshal(result.Discrepancies)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal discrepancies")
	}
	return summaries, discrepancies, nil
}
