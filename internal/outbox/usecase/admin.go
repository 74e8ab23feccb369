package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/GarciaKevinFab/academico-sync/internal/database"
	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/repository"
	customValidation "github.com/GarciaKevinFab/academico-sync/internal/validation"
)

// Stats summarizes the pipeline for operators.
type Stats struct {
	EventsByStatus      map[domain.Status]int
	DeadLetterCount     int
	BreakerState        string
	BreakerFailureCount int
}

// ReprocessInput selects events to reset: an explicit id list or every
// event in one status. Exactly one selector must be set.
type ReprocessInput struct {
	IDs    []uuid.UUID
	Status domain.Status
}

// Validate checks that exactly one selector is present.
func (i ReprocessInput) Validate() error {
	if len(i.IDs) > 0 && i.Status != "" {
		return validation.NewError("validation_reprocess", "ids and status are mutually exclusive")
	}
	if len(i.IDs) == 0 && i.Status == "" {
		return validation.NewError("validation_reprocess", "either ids or status is required")
	}
	if i.Status != "" && !i.Status.Valid() {
		return validation.NewError("validation_reprocess", "unknown status")
	}
	return nil
}

// AdminUseCase implements the operator surface over the outbox: listings,
// statistics, reprocessing and maintenance.
type AdminUseCase struct {
	txManager      database.TxManager
	eventRepo      EventRepository
	deadLetterRepo DeadLetterRepository
	breaker        Breaker
	logger         *slog.Logger
}

// NewAdminUseCase creates a new AdminUseCase.
func NewAdminUseCase(
	txManager database.TxManager,
	eventRepo EventRepository,
	deadLetterRepo DeadLetterRepository,
	breaker Breaker,
	logger *slog.Logger,
) *AdminUseCase {
	return &AdminUseCase{
		txManager:      txManager,
		eventRepo:      eventRepo,
		deadLetterRepo: deadLetterRepo,
		breaker:        breaker,
		logger:         logger,
	}
}

// ListEvents retrieves events matching the filter.
func (uc *AdminUseCase) ListEvents(
	ctx context.Context,
	filter repository.ListFilter,
	limit, offset int,
) ([]*domain.OutboxEvent, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown status filter")
	}
	return uc.eventRepo.List(ctx, filter, limit, offset)
}

// GetEvent retrieves one event by id.
func (uc *AdminUseCase) GetEvent(ctx context.Context, id uuid.UUID) (*domain.OutboxEvent, error) {
	return uc.eventRepo.GetByID(ctx, id)
}

// DeleteEvent removes an event. Operators use this to abandon an event
// entirely; a delivered event's ministry-side record is unaffected.
func (uc *AdminUseCase) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := uc.eventRepo.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.InfoContext(ctx, "outbox event deleted", slog.String("event_id", id.String()))
	return nil
}

// GetStats returns pipeline statistics including breaker state.
func (uc *AdminUseCase) GetStats(ctx context.Context) (*Stats, error) {
	counts, err := uc.eventRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	deadLetters, err := uc.deadLetterRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		EventsByStatus:      counts,
		DeadLetterCount:     deadLetters,
		BreakerState:        string(uc.breaker.State()),
		BreakerFailureCount: uc.breaker.FailureCount(),
	}, nil
}

// Reprocess resets the selected events to pending with a fresh retry budget.
func (uc *AdminUseCase) Reprocess(ctx context.Context, input ReprocessInput) (int64, error) {
	if err := input.Validate(); err != nil {
		return 0, customValidation.WrapValidationError(err)
	}

	var affected int64
	var err error
	if len(input.IDs) > 0 {
		affected, err = uc.eventRepo.ResetByIDs(ctx, input.IDs)
	} else {
		affected, err = uc.eventRepo.ResetByStatus(ctx, input.Status)
	}
	if err != nil {
		return 0, err
	}

	uc.logger.InfoContext(ctx, "events reset for reprocessing", slog.Int64("count", affected))
	return affected, nil
}

// ListDeadLetters retrieves dead-letter records, newest first.
func (uc *AdminUseCase) ListDeadLetters(ctx context.Context, limit, offset int) ([]*domain.DeadLetterRecord, error) {
	return uc.deadLetterRepo.List(ctx, limit, offset)
}

// DeleteDeadLetter removes a dead-letter record.
func (uc *AdminUseCase) DeleteDeadLetter(ctx context.Context, id uuid.UUID) error {
	return uc.deadLetterRepo.Delete(ctx, id)
}

// ReprocessDeadLetter resets the event a dead letter points at and removes
// the dead letter, atomically. The operator fixes the underlying data first.
func (uc *AdminUseCase) ReprocessDeadLetter(ctx context.Context, id uuid.UUID) error {
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		record, err := uc.deadLetterRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := uc.eventRepo.ResetByIDs(ctx, []uuid.UUID{record.EventID}); err != nil {
			return err
		}
		return uc.deadLetterRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.logger.InfoContext(ctx, "dead letter reprocessed", slog.String("dead_letter_id", id.String()))
	return nil
}

// PurgeAcked deletes acknowledged events older than the given number of days.
func (uc *AdminUseCase) PurgeAcked(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays < 1 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "older_than_days must be at least 1")
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	affected, err := uc.eventRepo.PurgeAcked(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	uc.logger.InfoContext(ctx, "acked events purged",
		slog.Int64("count", affected),
		slog.Int("older_than_days", olderThanDays),
	)
	return affected, nil
}

// ResetStuck moves events stuck in sending longer than the threshold back
// to retry.
func (uc *AdminUseCase) ResetStuck(ctx context.Context, stuckForMinutes int) (int64, error) {
	if stuckForMinutes < 1 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "stuck_for_minutes must be at least 1")
	}
	cutoff := time.Now().UTC().Add(-time.Duration(stuckForMinutes) * time.Minute)
	affected, err := uc.eventRepo.ResetStuckSending(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	uc.logger.InfoContext(ctx, "stuck events reset",
		slog.Int64("count", affected),
		slog.Int("stuck_for_minutes", stuckForMinutes),
	)
	return affected, nil
}
