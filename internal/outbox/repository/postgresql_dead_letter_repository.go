package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/GarciaKevinFab/academico-sync/internal/database"
	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
)

// PostgreSQLDeadLetterRepository implements dead-letter persistence for PostgreSQL.
type PostgreSQLDeadLetterRepository struct {
	db *sql.DB
}

// NewPostgreSQLDeadLetterRepository creates a new PostgreSQLDeadLetterRepository.
func NewPostgreSQLDeadLetterRepository(db *sql.DB) *PostgreSQLDeadLetterRepository {
	return &PostgreSQLDeadLetterRepository{db: db}
}

const pgDeadLetterColumns = `id, event_id, entity_type, entity_id, period_id, version, payload,
	retry_count, last_error, failed_at, requires_manual_review`

// Create inserts a dead-letter record.
func (p *PostgreSQLDeadLetterRepository) Create(ctx context.Context, record *domain.DeadLetterRecord) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO dead_letters (` + pgDeadLetterColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.EventID,
		record.EntityType,
		record.EntityID,
		record.PeriodID,
		record.Version,
		record.Payload,
		record.RetryCount,
		record.LastError,
		record.FailedAt,
		record.RequiresManualReview,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create dead letter")
	}
	return nil
}

// GetByID retrieves a dead-letter record by id.
func (p *PostgreSQLDeadLetterRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DeadLetterRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgDeadLetterColumns + ` FROM dead_letters WHERE id = $1`

	var record domain.DeadLetterRecord
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.EventID,
		&record.EntityType,
		&record.EntityID,
		&record.PeriodID,
		&record.Version,
		&record.Payload,
		&record.RetryCount,
		&record.LastError,
		&record.FailedAt,
		&record.RequiresManualReview,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get dead letter")
	}
	return &record, nil
}

// List retrieves dead-letter records, most recent failures first.
func (p *PostgreSQLDeadLetterRepository) List(ctx context.Context, limit, offset int) ([]*domain.DeadLetterRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgDeadLetterColumns + `
			  FROM dead_letters
			  ORDER BY failed_at DESC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dead letters")
	}
	defer rows.Close() //nolint:errcheck

	var records []*domain.DeadLetterRecord
	for rows.Next() {
		var record domain.DeadLetterRecord
		err := rows.Scan(
			&record.ID,
			&record.EventID,
			&record.EntityType,
			&record.EntityID,
			&record.PeriodID,
			&record.Version,
			&record.Payload,
			&record.RetryCount,
			&record.LastError,
			&record.FailedAt,
			&record.RequiresManualReview,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan dead letter")
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate dead letters")
	}
	return records, nil
}

// Count returns the number of dead-letter records.
func (p *PostgreSQLDeadLetterRepository) Count(ctx context.Context) (int, error) {
	querier := database.GetTx(ctx, p.db)

	var count int
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letters`).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count dead letters")
	}
	return count, nil
}

// Delete removes a dead-letter record by id.
func (p *PostgreSQLDeadLetterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM dead_letters WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete dead letter")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check delete result")
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
