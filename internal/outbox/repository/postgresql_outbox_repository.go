// Package repository implements outbox event and dead-letter persistence.
// Repositories support both PostgreSQL and MySQL; every status transition is
// a single guarded UPDATE matching the expected prior status, so two workers
// can never double-process one event.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GarciaKevinFab/academico-sync/internal/database"
	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
)

// ListFilter narrows event listings. Zero values mean "any".
type ListFilter struct {
	Status     domain.Status
	EntityType string
	PeriodID   string
}

// PostgreSQLEventRepository implements outbox event persistence for PostgreSQL.
type PostgreSQLEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLEventRepository creates a new PostgreSQLEventRepository.
func NewPostgreSQLEventRepository(db *sql.DB) *PostgreSQLEventRepository {
	return &PostgreSQLEventRepository{db: db}
}

const pgEventColumns = `id, idempotent_key, entity_type, entity_id, period_id, version, payload, status,
	retry_count, max_retries, next_attempt_at, last_error, created_at, updated_at, sent_at, acked_at`

// Create inserts a new outbox event. A duplicate idempotent key maps to
// ErrConflict so the caller can fall back to the existing event.
func (p *PostgreSQLEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO outbox_events (` + pgEventColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := querier.ExecContext(
		ctx,
		query,
		event.ID,
		event.IdempotentKey,
		event.EntityType,
		event.EntityID,
		event.PeriodID,
		event.Version,
		event.Payload,
		event.Status,
		event.RetryCount,
		event.MaxRetries,
		event.NextAttemptAt,
		event.LastError,
		event.CreatedAt,
		event.UpdatedAt,
		event.SentAt,
		event.AckedAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "idempotent key already exists")
		}
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// GetByID retrieves an event by its id.
func (p *PostgreSQLEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgEventColumns + ` FROM outbox_events WHERE id = $1`

	return scanPGEvent(querier.QueryRowContext(ctx, query, id))
}

// GetByIdempotentKey retrieves an event by its unique idempotent key.
func (p *PostgreSQLEventRepository) GetByIdempotentKey(ctx context.Context, key string) (*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgEventColumns + ` FROM outbox_events WHERE idempotent_key = $1`

	return scanPGEvent(querier.QueryRowContext(ctx, query, key))
}

// ClaimBatch retrieves due events (pending or scheduled retries whose
// next_attempt_at has passed), oldest first, locking the rows so concurrent
// workers skip them.
func (p *PostgreSQLEventRepository) ClaimBatch(ctx context.Context, limit int, now time.Time) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgEventColumns + `
			  FROM outbox_events
			  WHERE status IN ($1, $2) AND next_attempt_at <= $3
			  ORDER BY created_at ASC
			  LIMIT $4
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.StatusPending, domain.StatusRetry, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to claim outbox events")
	}
	defer rows.Close() //nolint:errcheck

	var events []*domain.OutboxEvent
	for rows.Next() {
		event, err := scanPGEventRows(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate outbox events")
	}
	return events, nil
}

// MarkSending transitions an event to sending, guarded on its prior status.
func (p *PostgreSQLEventRepository) MarkSending(ctx context.Context, id uuid.UUID, from domain.Status) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE outbox_events SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	return p.guardedExec(ctx, querier, query, domain.StatusSending, id, from)
}

// MarkSent records a ministry 2xx, guarded on the sending status.
func (p *PostgreSQLEventRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE outbox_events SET status = $1, sent_at = NOW(), last_error = NULL, updated_at = NOW()
			  WHERE id = $2 AND status = $3`

	return p.guardedExec(ctx, querier, query, domain.StatusSent, id, domain.StatusSending)
}

// MarkAcked confirms delivery, guarded on the sent status.
func (p *PostgreSQLEventRepository) MarkAcked(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE outbox_events SET status = $1, acked_at = NOW(), updated_at = NOW()
			  WHERE id = $2 AND status = $3`

	return p.guardedExec(ctx, querier, query, domain.StatusAcked, id, domain.StatusSent)
}

// ScheduleRetry moves a sending event to retry with its new retry count and
// scheduled attempt time.
func (p *PostgreSQLEventRepository) ScheduleRetry(
	ctx context.Context,
	id uuid.UUID,
	retryCount int,
	nextAttemptAt time.Time,
	lastError string,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE outbox_events
			  SET status = $1, retry_count = $2, next_attempt_at = $3, last_error = $4, updated_at = NOW()
			  WHERE id = $5 AND status = $6`

	return p.guardedExec(ctx, querier, query,
		domain.StatusRetry, retryCount, nextAttemptAt, lastError, id, domain.StatusSending)
}

// MarkFailed moves a sending event to the terminal failed status.
func (p *PostgreSQLEventRepository) MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, lastError string) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE outbox_events
			  SET status = $1, retry_count = $2, last_error = $3, updated_at = NOW()
			  WHERE id = $4 AND status = $5`

	return p.guardedExec(ctx, querier, query,
		domain.StatusFailed, retryCount, lastError, id, domain.StatusSending)
}

// List retrieves events matching the filter, newest first.
func (p *PostgreSQLEventRepository) List(
	ctx context.Context,
	filter ListFilter,
	limit, offset int,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, p.db)

	var conditions []string
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	if filter.PeriodID != "" {
		args = append(args, filter.PeriodID)
		conditions = append(conditions, fmt.Sprintf("period_id = $%d", len(args)))
	}

	query := `SELECT ` + pgEventColumns + ` FROM outbox_events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list outbox events")
	}
	defer rows.Close() //nolint:errcheck

	var events []*domain.OutboxEvent
	for rows.Next() {
		event, err := scanPGEventRows(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate outbox events")
	}
	return events, nil
}

// CountByStatus returns event counts grouped by status.
func (p *PostgreSQLEventRepository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT status, COUNT(*) FROM outbox_events GROUP BY status`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count outbox events")
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var status domain.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan status count")
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate status counts")
	}
	return counts, nil
}

// Delete removes an event by id.
func (p *PostgreSQLEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM outbox_events WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete outbox event")
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

// ResetByIDs resets the given events for a fresh delivery cycle.
func (p *PostgreSQLEventRepository) ResetByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	querier := database.GetTx(ctx, p.db)

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}

	query := fmt.Sprintf(`UPDATE outbox_events
			  SET status = '%s', retry_count = 0, next_attempt_at = NOW(), last_error = NULL, updated_at = NOW()
			  WHERE id IN (%s)`, domain.StatusPending, strings.Join(placeholders, ", "))

	result, err := querier.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to reset outbox events")
	}
	return result.RowsAffected()
}

// ResetByStatus resets every event currently in the given status.
func (p *PostgreSQLEventRepository) ResetByStatus(ctx context.Context, status domain.Status) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE outbox_events
			  SET status = $1, retry_count = 0, next_attempt_at = NOW(), last_error = NULL, updated_at = NOW()
			  WHERE status = $2`

	result, err := querier.ExecContext(ctx, query, domain.StatusPending, status)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to reset outbox events by status")
	}
	return result.RowsAffected()
}

// ResetAckedEntity resets acknowledged events for one entity in one period
// back to pending. Used by the reconciler when the ministry is missing a
// record the local side believes was delivered.
func (p *PostgreSQLEventRepository) ResetAckedEntity(
	ctx context.Context,
	entityType, entityID, periodID, note string,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE outbox_events
			  SET status = $1, retry_count = 0, next_attempt_at = NOW(), last_error = $2, updated_at = NOW()
			  WHERE entity_type = $3 AND entity_id = $4 AND period_id = $5 AND status = $6`

	result, err := querier.ExecContext(ctx, query,
		domain.StatusPending, note, entityType, entityID, periodID, domain.StatusAcked)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to reset acked events")
	}
	return result.RowsAffected()
}

// PurgeAcked deletes acknowledged events older than the cutoff.
func (p *PostgreSQLEventRepository) PurgeAcked(ctx context.Context, olderThan time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM outbox_events WHERE status = $1 AND acked_at < $2`

	result, err := querier.ExecContext(ctx, query, domain.StatusAcked, olderThan)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to purge acked events")
	}
	return result.RowsAffected()
}

// ResetStuckSending moves events stuck in sending since before the cutoff
// back to retry. Recovers claims orphaned by a crashed worker.
func (p *PostgreSQLEventRepository) ResetStuckSending(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE outbox_events
			  SET status = $1, next_attempt_at = NOW(), last_error = 'reset after being stuck in sending', updated_at = NOW()
			  WHERE status = $2 AND updated_at < $3`

	result, err := querier.ExecContext(ctx, query, domain.StatusRetry, domain.StatusSending, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to reset stuck events")
	}
	return result.RowsAffected()
}

// guardedExec runs a conditional update and maps a zero-row result to
// ErrConflict: the event was not in the expected prior status.
func (p *PostgreSQLEventRepository) guardedExec(
	ctx context.Context,
	querier database.Querier,
	query string,
	args ...any,
) error {
	result, err := querier.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.Wrap(err, "failed to update outbox event")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if affected == 0 {
		return apperrors.Wrap(apperrors.ErrConflict, "event not in expected status")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPGEvent(row *sql.Row) (*domain.OutboxEvent, error) {
	event, err := scanPGEventRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

func scanPGEventRows(scanner rowScanner) (*domain.OutboxEvent, error) {
	var event domain.OutboxEvent
	err := scanner.Scan(
		&event.ID,
		&event.IdempotentKey,
		&event.EntityType,
		&event.EntityID,
		&event.PeriodID,
		&event.Version,
		&event.Payload,
		&event.Status,
		&event.RetryCount,
		&event.MaxRetries,
		&event.NextAttemptAt,
		&event.LastError,
		&event.CreatedAt,
		&event.UpdatedAt,
		&event.SentAt,
		&event.AckedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan outbox event")
	}
	return &event, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
