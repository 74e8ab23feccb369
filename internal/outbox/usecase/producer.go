package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	validation "github.com/jellydator/validation"

	"github.com/GarciaKevinFab/academico-sync/internal/database"
	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/ministry"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
	customValidation "github.com/GarciaKevinFab/academico-sync/internal/validation"
)

// CreateEventInput carries the arguments for producing an outbox event.
type CreateEventInput struct {
	EntityType string
	EntityID   string
	PeriodID   string
	Version    int
	Payload    string
}

// Validate checks the input fields.
func (i CreateEventInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.EntityType, validation.Required, validation.In(
			ministry.EntityEnrollment, ministry.EntityGrade, ministry.EntityCertificate,
		)),
		validation.Field(&i.EntityID, validation.Required, customValidation.NotBlank, customValidation.NoWhitespace),
		validation.Field(&i.PeriodID, validation.Required, customValidation.AcademicPeriod),
		validation.Field(&i.Version, validation.Required, validation.Min(1)),
		validation.Field(&i.Payload, validation.Required, validation.By(validJSON)),
	)
}

func validJSON(value any) error {
	s, _ := value.(string)
	if !json.Valid([]byte(s)) {
		return validation.NewError("validation_json", "must be valid JSON")
	}
	return nil
}

// ProducerUseCase creates outbox events. Domain write paths call it
// synchronously when a fact is finalized; they wait only for the outbox
// write, never for delivery.
type ProducerUseCase struct {
	txManager  database.TxManager
	eventRepo  EventRepository
	maxRetries int
	wake       chan<- struct{}
	logger     *slog.Logger
}

// NewProducerUseCase creates a new ProducerUseCase. The wake channel may be
// nil; when set, a signal is sent (without blocking) after each new event so
// a co-located worker can skip its poll wait.
func NewProducerUseCase(
	txManager database.TxManager,
	eventRepo EventRepository,
	maxRetries int,
	wake chan<- struct{},
	logger *slog.Logger,
) *ProducerUseCase {
	return &ProducerUseCase{
		txManager:  txManager,
		eventRepo:  eventRepo,
		maxRetries: maxRetries,
		wake:       wake,
		logger:     logger,
	}
}

// CreateEvent records a domain fact for delivery. Calling it again with the
// same (entityType, entityID, periodID, version) is a silent no-op that
// returns the existing event; a higher version creates a distinct event.
func (uc *ProducerUseCase) CreateEvent(ctx context.Context, input CreateEventInput) (*domain.OutboxEvent, error) {
	if err := input.Validate(); err != nil {
		return nil, customValidation.WrapValidationError(err)
	}

	key := domain.IdempotentKey(input.EntityType, input.EntityID, input.PeriodID, input.Version)

	var event *domain.OutboxEvent
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		existing, err := uc.eventRepo.GetByIdempotentKey(ctx, key)
		if err == nil {
			event = existing
			return nil
		}
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		created := domain.NewOutboxEvent(
			input.EntityType, input.EntityID, input.PeriodID, input.Version, input.Payload, uc.maxRetries,
		)
		if err := uc.eventRepo.Create(ctx, created); err != nil {
			// Lost a race with a concurrent producer; the unique index on the
			// idempotent key is the source of truth.
			if apperrors.Is(err, apperrors.ErrConflict) {
				existing, getErr := uc.eventRepo.GetByIdempotentKey(ctx, key)
				if getErr != nil {
					return getErr
				}
				event = existing
				return nil
			}
			return err
		}
		event = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if event.Status == domain.StatusPending {
		uc.signalWorker()
	}

	uc.logger.InfoContext(ctx, "outbox event recorded",
		slog.String("event_id", event.ID.String()),
		slog.String("idempotent_key", event.IdempotentKey),
		slog.String("status", string(event.Status)),
	)
	return event, nil
}

// CreateEnrollmentEvent shapes and records a matricula fact.
func (uc *ProducerUseCase) CreateEnrollmentEvent(
	ctx context.Context,
	payload domain.EnrollmentPayload,
	version int,
) (*domain.OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal enrollment payload")
	}
	return uc.CreateEvent(ctx, CreateEventInput{
		EntityType: ministry.EntityEnrollment,
		EntityID:   payload.StudentID,
		PeriodID:   payload.PeriodID,
		Version:    version,
		Payload:    string(body),
	})
}

// CreateGradeEvent shapes and records a calificacion fact.
func (uc *ProducerUseCase) CreateGradeEvent(
	ctx context.Context,
	payload domain.GradePayload,
	version int,
) (*domain.OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal grade payload")
	}
	return uc.CreateEvent(ctx, CreateEventInput{
		EntityType: ministry.EntityGrade,
		EntityID:   payload.GradeID,
		PeriodID:   payload.PeriodID,
		Version:    version,
		Payload:    string(body),
	})
}

// CreateCertificateEvent shapes and records a certificado fact.
func (uc *ProducerUseCase) CreateCertificateEvent(
	ctx context.Context,
	payload domain.CertificatePayload,
	version int,
) (*domain.OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal certificate payload")
	}
	return uc.CreateEvent(ctx, CreateEventInput{
		EntityType: ministry.EntityCertificate,
		EntityID:   payload.CertificateID,
		PeriodID:   payload.PeriodID,
		Version:    version,
		Payload:    string(body),
	})
}

func (uc *ProducerUseCase) signalWorker() {
	if uc.wake == nil {
		return
	}
	select {
	case uc.wake <- struct{}{}:
	default:
	}
}
