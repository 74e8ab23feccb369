// Package usecase implements the outbox business logic: producing events,
// delivering them to the ministry, and the operator/admin operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/GarciaKevinFab/academico-sync/internal/circuit"
	"github.com/GarciaKevinFab/academico-sync/internal/ministry"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/repository"
)

// EventRepository defines outbox event persistence operations.
type EventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.OutboxEvent, error)
	GetByIdempotentKey(ctx context.Context, key string) (*domain.OutboxEvent, error)
	ClaimBatch(ctx context.Context, limit int, now time.Time) ([]*domain.OutboxEvent, error)
	MarkSending(ctx context.Context, id uuid.UUID, from domain.Status) error
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkAcked(ctx context.Context, id uuid.UUID) error
	ScheduleRetry(ctx context.Context, id uuid.UUID, retryCount int, nextAttemptAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, lastError string) error
	List(ctx context.Context, filter repository.ListFilter, limit, offset int) ([]*domain.OutboxEvent, error)
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ResetByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
	ResetByStatus(ctx context.Context, status domain.Status) (int64, error)
	ResetAckedEntity(ctx context.Context, entityType, entityID, periodID, note string) (int64, error)
	PurgeAcked(ctx context.Context, olderThan time.Time) (int64, error)
	ResetStuckSending(ctx context.Context, before time.Time) (int64, error)
}

// DeadLetterRepository defines dead-letter persistence operations.
type DeadLetterRepository interface {
	Create(ctx context.Context, record *domain.DeadLetterRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DeadLetterRecord, error)
	List(ctx context.Context, limit, offset int) ([]*domain.DeadLetterRecord, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MinistrySubmitter is the slice of the ministry client the worker needs.
type MinistrySubmitter interface {
	Submit(ctx context.Context, entityType string, payload []byte) (ministry.SubmitResult, error)
}

// Breaker guards ministry calls. Implemented by circuit.Breaker.
type Breaker interface {
	CanExecute() bool
	OnSuccess()
	OnFailure()
	State() circuit.State
	FailureCount() int
}

// BusinessMetrics records domain operation counters and durations.
// Implemented by metrics.BusinessMetrics and its no-op variant.
type BusinessMetrics interface {
	RecordOperation(ctx context.Context, domain, operation, status string)
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)
}
