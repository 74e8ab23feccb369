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

// MySQLDeadLetterRepository implements dead-letter persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLDeadLetterRepository struct {
	db *sql.DB
}

// NewMySQLDeadLetterRepository creates a new MySQLDeadLetterRepository.
func NewMySQLDeadLetterRepository(db *sql.DB) *MySQLDeadLetterRepository {
	return &MySQLDeadLetterRepository{db: db}
}

const myDeadLetterColumns = `id, event_id, entity_type, entity_id, period_id, version, payload,
	retry_count, last_error, failed_at, requires_manual_review`

// Create inserts a dead-letter record.
func (m *MySQLDeadLetterRepository) Create(ctx context.Context, record *domain.DeadLetterRecord) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO dead_letters (` + myDeadLetterColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	idBytes, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal dead letter id")
	}
	eventIDBytes, err := record.EventID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		eventIDBytes,
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
func (m *MySQLDeadLetterRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DeadLetterRecord, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal dead letter id")
	}

	query := `SELECT ` + myDeadLetterColumns + ` FROM dead_letters WHERE id = ?`

	record, err := scanMyDeadLetter(querier.QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// List retrieves dead-letter records, most recent failures first.
func (m *MySQLDeadLetterRepository) List(ctx context.Context, limit, offset int) ([]*domain.DeadLetterRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + myDeadLetterColumns + `
			  FROM dead_letters
			  ORDER BY failed_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dead letters")
	}
	defer rows.Close() //nolint:errcheck

	var records []*domain.DeadLetterRecord
	for rows.Next() {
		record, err := scanMyDeadLetter(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate dead letters")
	}
	return records, nil
}

// Count returns the number of dead-letter records.
func (m *MySQLDeadLetterRepository) Count(ctx context.Context) (int, error) {
	querier := database.GetTx(ctx, m.db)

	var count int
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letters`).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count dead letters")
	}
	return count, nil
}

// Delete removes a dead-letter record by id.
func (m *MySQLDeadLetterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal dead letter id")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM dead_letters WHERE id = ?`, idBytes)
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

func scanMyDeadLetter(scanner rowScanner) (*domain.DeadLetterRecord, error) {
	var record domain.DeadLetterRecord
	var idBytes, eventIDBytes []byte
	err := scanner.Scan(
		&idBytes,
		&eventIDBytes,
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
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan dead letter")
	}

	// Convert bytes back to UUIDs
	if err := record.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := record.EventID.UnmarshalBinary(eventIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	return &record, nil
}
