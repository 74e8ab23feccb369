package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GarciaKevinFab/academico-sync/internal/database"
	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
)

// MySQLEventRepository implements outbox event persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLEventRepository struct {
	db *sql.DB
}

// NewMySQLEventRepository creates a new MySQLEventRepository.
func NewMySQLEventRepository(db *sql.DB) *MySQLEventRepository {
	return &MySQLEventRepository{db: db}
}

const myEventColumns = `id, idempotent_key, entity_type, entity_id, period_id, version, payload, status,
	retry_count, max_retries, next_attempt_at, last_error, created_at, updated_at, sent_at, acked_at`

// Create inserts a new outbox event. A duplicate idempotent key maps to
// ErrConflict so the caller can fall back to the existing event.
func (m *MySQLEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO outbox_events (` + myEventColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	idBytes, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
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
		if isMySQLUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "idempotent key already exists")
		}
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// GetByID retrieves an event by its id.
func (m *MySQLEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal event id")
	}

	query := `SELECT ` + myEventColumns + ` FROM outbox_events WHERE id = ?`

	return scanMyEvent(querier.QueryRowContext(ctx, query, idBytes))
}

// GetByIdempotentKey retrieves an event by its unique idempotent key.
func (m *MySQLEventRepository) GetByIdempotentKey(ctx context.Context, key string) (*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + myEventColumns + ` FROM outbox_events WHERE idempotent_key = ?`

	return scanMyEvent(querier.QueryRowContext(ctx, query, key))
}

// ClaimBatch retrieves due events (pending or scheduled retries whose
// next_attempt_at has passed), oldest first, locking the rows so concurrent
// workers skip them.
func (m *MySQLEventRepository) ClaimBatch(ctx context.Context, limit int, now time.Time) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + myEventColumns + `
			  FROM outbox_events
			  WHERE status IN (?, ?) AND next_attempt_at <= ?
			  ORDER BY created_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.StatusPending, domain.StatusRetry, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to claim outbox events")
	}
	defer rows.Close() //nolint:errcheck

	var events []*domain.OutboxEvent
	for rows.Next() {
		event, err := scanMyEventRows(rows)
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
func (m *MySQLEventRepository) MarkSending(ctx context.Context, id uuid.UUID, from domain.Status) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event id")
	}

	query := `UPDATE outbox_events SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?`

	return m.guardedExec(ctx, querier, query, domain.StatusSending, idBytes, from)
}

// MarkSent records a ministry 2xx, guarded on the sending status.
func (m *MySQLEventRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event id")
	}

	query := `UPDATE outbox_events SET status = ?, sent_at = NOW(), last_error = NULL, updated_at = NOW()
			  WHERE id = ? AND status = ?`

	return m.guardedExec(ctx, querier, query, domain.StatusSent, idBytes, domain.StatusSending)
}

// MarkAcked confirms delivery, guarded on the sent status.
func (m *MySQLEventRepository) MarkAcked(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event id")
	}

	query := `UPDATE outbox_events SET status = ?, acked_at = NOW(), updated_at = NOW()
			  WHERE id = ? AND status = ?`

	return m.guardedExec(ctx, querier, query, domain.StatusAcked, idBytes, domain.StatusSent)
}

// ScheduleRetry moves a sending event to retry with its new retry count and
// scheduled attempt time.
func (m *MySQLEventRepository) ScheduleRetry(
	ctx context.Context,
	id uuid.UUID,
	retryCount int,
	nextAttemptAt time.Time,
	lastError string,
) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event id")
	}

	query := `UPDATE outbox_events
			  SET status = ?, retry_count = ?, next_attempt_at = ?, last_error = ?, updated_at = NOW()
			  WHERE id = ? AND status = ?`

	return m.guardedExec(ctx, querier, query,
		domain.StatusRetry, retryCount, nextAttemptAt, lastError, idBytes, domain.StatusSending)
}

// MarkFailed moves a sending event to the terminal failed status.
func (m *MySQLEventRepository) MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, lastError string) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event id")
	}

	query := `UPDATE outbox_events
			  SET status = ?, retry_count = ?, last_error = ?, updated_at = NOW()
			  WHERE id = ? AND status = ?`

	return m.guardedExec(ctx, querier, query,
		domain.StatusFailed, retryCount, lastError, idBytes, domain.StatusSending)
}

// List retrieves events matching the filter, newest first.
func (m *MySQLEventRepository) List(
	ctx context.Context,
	filter ListFilter,
	limit, offset int,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, m.db)

	var conditions []string
	var args []any
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.EntityType != "" {
		conditions = append(conditions, "entity_type = ?")
		args = append(args, filter.EntityType)
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, "period_id = ?")
		args = append(args, filter.PeriodID)
	}

	query := `SELECT ` + myEventColumns + ` FROM outbox_events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list outbox events")
	}
	defer rows.Close() //nolint:errcheck

	var events []*domain.OutboxEvent
	for rows.Next() {
		event, err := scanMyEventRows(rows)
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
func (m *MySQLEventRepository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	querier := database.GetTx(ctx, m.db)

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
func (m *MySQLEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event id")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM outbox_events WHERE id = ?`, idBytes)
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
func (m *MySQLEventRepository) ResetByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	querier := database.GetTx(ctx, m.db)

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, domain.StatusPending)
	for i, id := range ids {
		idBytes, err := id.MarshalBinary()
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to marshal event id")
		}
		placeholders[i] = "?"
		args = append(args, idBytes)
	}

	query := `UPDATE outbox_events
			  SET status = ?, retry_count = 0, next_attempt_at = NOW(), last_error = NULL, updated_at = NOW()
			  WHERE id IN (` + strings.Join(placeholders, ", ") + `)`

	result, err := querier.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to reset outbox events")
	}
	return result.RowsAffected()
}

// ResetByStatus resets every event currently in the given status.
func (m *MySQLEventRepository) ResetByStatus(ctx context.Context, status domain.Status) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE outbox_events
			  SET status = ?, retry_count = 0, next_attempt_at = NOW(), last_error = NULL, updated_at = NOW()
			  WHERE status = ?`

	result, err := querier.ExecContext(ctx, query, domain.StatusPending, status)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to reset outbox events by status")
	}
	return result.RowsAffected()
}

// ResetAckedEntity resets acknowledged events for one entity in one period
// back to pending. Used by the reconciler when the ministry is missing a
// record the local side believes was delivered.
func (m *MySQLEventRepository) ResetAckedEntity(
	ctx context.Context,
	entityType, entityID, periodID, note string,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE outbox_events
			  SET status = ?, retry_count = 0, next_attempt_at = NOW(), last_error = ?, updated_at = NOW()
			  WHERE entity_type = ? AND entity_id = ? AND period_id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query,
		domain.StatusPending, note, entityType, entityID, periodID, domain.StatusAcked)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to reset acked events")
	}
	return result.RowsAffected()
}

// PurgeAcked deletes acknowledged events older than the cutoff.
func (m *MySQLEventRepository) PurgeAcked(ctx context.Context, olderThan time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM outbox_events WHERE status = ? AND acked_at < ?`

	result, err := querier.ExecContext(ctx, query, domain.StatusAcked, olderThan)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to purge acked events")
	}
	return result.RowsAffected()
}

// ResetStuckSending moves events stuck in sending since before the cutoff
// back to retry. Recovers claims orphaned by a crashed worker.
func (m *MySQLEventRepository) ResetStuckSending(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE outbox_events
			  SET status = ?, next_attempt_at = NOW(), last_error = 'reset after being stuck in sending', updated_at = NOW()
			  WHERE status = ? AND updated_at < ?`

	result, err := querier.ExecContext(ctx, query, domain.StatusRetry, domain.StatusSending, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to reset stuck events")
	}
	return result.RowsAffected()
}

// guardedExec runs a conditional update and maps a zero-row result to
// ErrConflict: the event was not in the expected prior status.
func (m *MySQLEventRepository) guardedExec(
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

func scanMyEvent(row *sql.Row) (*domain.OutboxEvent, error) {
	event, err := scanMyEventRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

func scanMyEventRows(scanner rowScanner) (*domain.OutboxEvent, error) {
	var event domain.OutboxEvent
	var idBytes []byte
	err := scanner.Scan(
		&idBytes,
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

	// Convert bytes back to UUID
	if err := event.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	return &event, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
