// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"encoding/json"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/usecase"
)

// CreateEventRequest contains the parameters for producing an outbox event.
// Payload is kept raw; the use case validates it is well-formed JSON.
type CreateEventRequest struct {
	EntityType string          `json:"entity_type" binding:"required"`
	EntityID   string          `json:"entity_id" binding:"required"`
	PeriodID   string          `json:"period_id" binding:"required"`
	Version    int             `json:"version" binding:"required"`
	Payload    json.RawMessage `json:"payload" binding:"required"`
}

// ToInput converts the request to use case input.
func (r *CreateEventRequest) ToInput() usecase.CreateEventInput {
	return usecase.CreateEventInput{
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		PeriodID:   r.PeriodID,
		Version:    r.Version,
		Payload:    string(r.Payload),
	}
}

// ReprocessRequest selects events to reset: an id list or a status. The use
// case enforces that exactly one selector is present.
type ReprocessRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

// ToInput parses the request into use case input.
func (r *ReprocessRequest) ToInput() (usecase.ReprocessInput, error) {
	ids := make([]uuid.UUID, 0, len(r.IDs))
	for _, raw := range r.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return usecase.ReprocessInput{}, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid event id: "+raw)
		}
		ids = append(ids, id)
	}
	return usecase.ReprocessInput{IDs: ids, Status: domain.Status(r.Status)}, nil
}

// PurgeAckedRequest contains the retention threshold for purging
// acknowledged events.
type PurgeAckedRequest struct {
	OlderThanDays int `json:"older_than_days" binding:"required"`
}

// Validate checks if the purge request is valid.
func (r *PurgeAckedRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.OlderThanDays, validation.Required, validation.Min(1)),
	)
}

// ResetStuckRequest contains the threshold for resetting events stuck in
// the sending state.
type ResetStuckRequest struct {
	StuckForMinutes int `json:"stuck_for_minutes" binding:"required"`
}

// Validate checks if the reset request is valid.
func (r *ResetStuckRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.StuckForMinutes, validation.Required, validation.Min(1)),
	)
}
