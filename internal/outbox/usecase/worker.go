package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/GarciaKevinFab/academico-sync/internal/database"
	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/ministry"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
)

// WorkerConfig holds delivery worker configuration.
type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
}

// WorkerUseCase is the delivery loop: it claims due events, posts them to
// the ministry behind the circuit breaker, and applies the retry and
// dead-letter bookkeeping. Safe to run in several processes concurrently;
// row claims are guarded updates.
type WorkerUseCase struct {
	config         WorkerConfig
	txManager      database.TxManager
	eventRepo      EventRepository
	deadLetterRepo DeadLetterRepository
	ministryClient MinistrySubmitter
	breaker        Breaker
	metrics        BusinessMetrics
	wake           <-chan struct{}
	logger         *slog.Logger
	now            func() time.Time
}

// NewWorkerUseCase creates a new WorkerUseCase. The wake channel may be nil;
// when set, the producer signals it so fresh events skip the poll wait.
func NewWorkerUseCase(
	config WorkerConfig,
	txManager database.TxManager,
	eventRepo EventRepository,
	deadLetterRepo DeadLetterRepository,
	ministryClient MinistrySubmitter,
	breaker Breaker,
	metrics BusinessMetrics,
	wake <-chan struct{},
	logger *slog.Logger,
) *WorkerUseCase {
	return &WorkerUseCase{
		config:         config,
		txManager:      txManager,
		eventRepo:      eventRepo,
		deadLetterRepo: deadLetterRepo,
		ministryClient: ministryClient,
		breaker:        breaker,
		metrics:        metrics,
		wake:           wake,
		logger:         logger,
		now:            time.Now,
	}
}

// Start runs the delivery loop until the context is canceled.
func (uc *WorkerUseCase) Start(ctx context.Context) error {
	uc.logger.InfoContext(ctx, "starting delivery worker",
		slog.Duration("poll_interval", uc.config.PollInterval),
		slog.Int("batch_size", uc.config.BatchSize),
		slog.Int("max_retries", uc.config.MaxRetries),
	)

	ticker := time.NewTicker(uc.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.InfoContext(ctx, "stopping delivery worker")
			return ctx.Err()
		case <-ticker.C:
		case <-uc.wake:
		}

		if err := uc.ProcessBatch(ctx); err != nil {
			uc.logger.ErrorContext(ctx, "failed to process delivery batch", slog.Any("error", err))
		}
	}
}

// ProcessBatch claims one batch of due events and delivers each. A failure
// on one event never halts the rest of the batch.
func (uc *WorkerUseCase) ProcessBatch(ctx context.Context) error {
	if !uc.breaker.CanExecute() {
		uc.logger.WarnContext(ctx, "circuit breaker open, skipping delivery batch",
			slog.String("breaker_state", string(uc.breaker.State())),
		)
		return nil
	}

	events, err := uc.claimBatch(ctx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	uc.logger.InfoContext(ctx, "delivering batch", slog.Int("count", len(events)))
	for _, event := range events {
		uc.deliver(ctx, event)
	}
	return nil
}

// claimBatch fetches due events and transitions them to sending inside one
// transaction, so the delivery calls happen without holding row locks.
func (uc *WorkerUseCase) claimBatch(ctx context.Context) ([]*domain.OutboxEvent, error) {
	var claimed []*domain.OutboxEvent
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := uc.eventRepo.ClaimBatch(ctx, uc.config.BatchSize, uc.now().UTC())
		if err != nil {
			return err
		}
		for _, event := range events {
			if err := uc.eventRepo.MarkSending(ctx, event.ID, event.Status); err != nil {
				if apperrors.Is(err, apperrors.ErrConflict) {
					// Another worker claimed it between fetch and update.
					continue
				}
				return err
			}
			event.Status = domain.StatusSending
			claimed = append(claimed, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// deliver posts one event to the ministry and applies the outcome. All
// failures are recorded on the event itself.
func (uc *WorkerUseCase) deliver(ctx context.Context, event *domain.OutboxEvent) {
	if !uc.breaker.CanExecute() {
		// The breaker opened mid-batch. Release the claim without spending a
		// retry; the event becomes due again after the base delay.
		uc.release(ctx, event, "circuit breaker open")
		return
	}

	start := uc.now()
	result, err := uc.ministryClient.Submit(ctx, event.EntityType, []byte(event.Payload))
	if err != nil {
		// Local error building the request (e.g. unknown entity type).
		// Retrying cannot help.
		uc.failAndDeadLetter(ctx, event, event.RetryCount+1, err.Error())
		return
	}
	duration := uc.now().Sub(start)

	switch result.Outcome {
	case ministry.OutcomeSuccess:
		uc.breaker.OnSuccess()
		uc.markDelivered(ctx, event, result.ConfirmationID)
		uc.metrics.RecordOperation(ctx, "delivery", "event_deliver", "success")
		uc.metrics.RecordDuration(ctx, "delivery", "event_deliver", duration, "success")

	case ministry.OutcomeTransient:
		uc.breaker.OnFailure()
		uc.metrics.RecordOperation(ctx, "delivery", "event_deliver", "error")
		uc.metrics.RecordDuration(ctx, "delivery", "event_deliver", duration, "error")
		newCount := event.RetryCount + 1
		if newCount >= event.MaxRetries {
			uc.failAndDeadLetter(ctx, event, newCount, result.Detail)
			return
		}
		delay := domain.BackoffDelay(uc.config.BackoffBase, uc.config.BackoffMax, newCount)
		if err := uc.eventRepo.ScheduleRetry(ctx, event.ID, newCount, uc.now().UTC().Add(delay), result.Detail); err != nil {
			uc.logger.ErrorContext(ctx, "failed to schedule retry",
				slog.String("event_id", event.ID.String()),
				slog.Any("error", err),
			)
			return
		}
		uc.logger.WarnContext(ctx, "delivery failed, retry scheduled",
			slog.String("event_id", event.ID.String()),
			slog.Int("retry_count", newCount),
			slog.Duration("delay", delay),
			slog.String("last_error", result.Detail),
		)

	case ministry.OutcomePermanent:
		// The ministry rejected the payload; count the attempt for the audit
		// trail and route straight to the dead-letter store.
		uc.metrics.RecordOperation(ctx, "delivery", "event_deliver", "error")
		uc.metrics.RecordDuration(ctx, "delivery", "event_deliver", duration, "error")
		uc.failAndDeadLetter(ctx, event, event.RetryCount+1, result.Detail)
	}
}

// markDelivered records the 2xx and acknowledges the event. Acknowledgment
// is a distinct transition so a future ministry callback can own it instead.
func (uc *WorkerUseCase) markDelivered(ctx context.Context, event *domain.OutboxEvent, confirmationID string) {
	if err := uc.eventRepo.MarkSent(ctx, event.ID); err != nil {
		uc.logger.ErrorContext(ctx, "failed to mark event sent",
			slog.String("event_id", event.ID.String()),
			slog.Any("error", err),
		)
		return
	}
	if err := uc.Acknowledge(ctx, event.ID); err != nil {
		uc.logger.ErrorContext(ctx, "failed to acknowledge event",
			slog.String("event_id", event.ID.String()),
			slog.Any("error", err),
		)
		return
	}
	uc.logger.InfoContext(ctx, "event delivered",
		slog.String("event_id", event.ID.String()),
		slog.String("idempotent_key", event.IdempotentKey),
		slog.String("confirmation_id", confirmationID),
	)
}

// Acknowledge confirms a sent event. Called inline after a 2xx today; the
// guarded sent->acked update makes it safe to call from a webhook later.
func (uc *WorkerUseCase) Acknowledge(ctx context.Context, id uuid.UUID) error {
	return uc.eventRepo.MarkAcked(ctx, id)
}

// failAndDeadLetter moves an event to the terminal failed status and writes
// exactly one dead-letter snapshot, atomically. Both routes here — permanent
// rejection and retry exhaustion — leave the event waiting on an operator.
func (uc *WorkerUseCase) failAndDeadLetter(
	ctx context.Context,
	event *domain.OutboxEvent,
	retryCount int,
	lastError string,
) {
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.eventRepo.MarkFailed(ctx, event.ID, retryCount, lastError); err != nil {
			return err
		}
		event.RetryCount = retryCount
		return uc.deadLetterRepo.Create(ctx, domain.NewDeadLetterRecord(event, lastError))
	})
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to dead-letter event",
			slog.String("event_id", event.ID.String()),
			slog.Any("error", err),
		)
		return
	}
	uc.metrics.RecordOperation(ctx, "deadletter", "record", "success")
	uc.logger.ErrorContext(ctx, "event moved to dead letter",
		slog.String("event_id", event.ID.String()),
		slog.String("idempotent_key", event.IdempotentKey),
		slog.Int("retry_count", retryCount),
		slog.String("last_error", lastError),
	)
}

// release returns a claimed event to the retry queue without consuming a
// retry attempt.
func (uc *WorkerUseCase) release(ctx context.Context, event *domain.OutboxEvent, reason string) {
	delay := domain.BackoffDelay(uc.config.BackoffBase, uc.config.BackoffMax, 1)
	if err := uc.eventRepo.ScheduleRetry(ctx, event.ID, event.RetryCount, uc.now().UTC().Add(delay), reason); err != nil {
		uc.logger.ErrorContext(ctx, "failed to release claimed event",
			slog.String("event_id", event.ID.String()),
			slog.Any("error", err),
		)
	}
}
