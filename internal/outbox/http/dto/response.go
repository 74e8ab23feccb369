package dto

import (
	"encoding/json"
	"time"

	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/usecase"
)

// EventResponse represents an outbox event in API responses.
type EventResponse struct {
	ID            string          `json:"id"`
	IdempotentKey string          `json:"idempotent_key"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	PeriodID      string          `json:"period_id"`
	Version       int             `json:"version"`
	Payload       json.RawMessage `json:"payload"`
	Status        string          `json:"status"`
	RetryCount    int             `json:"retry_count"`
	MaxRetries    int             `json:"max_retries"`
	NextAttemptAt time.Time       `json:"next_attempt_at"`
	LastError     *string         `json:"last_error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	SentAt        *time.Time      `json:"sent_at,omitempty"`
	AckedAt       *time.Time      `json:"acked_at,omitempty"`
}

// MapEventToResponse converts a domain event to an API response.
func MapEventToResponse(event *domain.OutboxEvent) EventResponse {
	return EventResponse{
		ID:            event.ID.String(),
		IdempotentKey: event.IdempotentKey,
		EntityType:    event.EntityType,
		EntityID:      event.EntityID,
		PeriodID:      event.PeriodID,
		Version:       event.Version,
		Payload:       json.RawMessage(event.Payload),
		Status:        string(event.Status),
		RetryCount:    event.RetryCount,
		MaxRetries:    event.MaxRetries,
		NextAttemptAt: event.NextAttemptAt,
		LastError:     event.LastError,
		CreatedAt:     event.CreatedAt,
		UpdatedAt:     event.UpdatedAt,
		SentAt:        event.SentAt,
		AckedAt:       event.AckedAt,
	}
}

// ListEventsResponse wraps a page of events.
type ListEventsResponse struct {
	Events []EventResponse `json:"events"`
}

// MapEventsToListResponse converts domain events to a list response.
func MapEventsToListResponse(events []*domain.OutboxEvent) ListEventsResponse {
	response := ListEventsResponse{Events: make([]EventResponse, 0, len(events))}
	for _, event := range events {
		response.Events = append(response.Events, MapEventToResponse(event))
	}
	return response
}

// DeadLetterResponse represents a dead-letter record in API responses.
type DeadLetterResponse struct {
	ID                   string          `json:"id"`
	EventID              string          `json:"event_id"`
	EntityType           string          `json:"entity_type"`
	EntityID             string          `json:"entity_id"`
	PeriodID             string          `json:"period_id"`
	Version              int             `json:"version"`
	Payload              json.RawMessage `json:"payload"`
	RetryCount           int             `json:"retry_count"`
	LastError            string          `json:"last_error"`
	FailedAt             time.Time       `json:"failed_at"`
	RequiresManualReview bool            `json:"requires_manual_review"`
}

// MapDeadLetterToResponse converts a domain dead-letter record to an API response.
func MapDeadLetterToResponse(record *domain.DeadLetterRecord) DeadLetterResponse {
	return DeadLetterResponse{
		ID:                   record.ID.String(),
		EventID:              record.EventID.String(),
		EntityType:           record.EntityType,
		EntityID:             record.EntityID,
		PeriodID:             record.PeriodID,
		Version:              record.Version,
		Payload:              json.RawMessage(record.Payload),
		RetryCount:           record.RetryCount,
		LastError:            record.LastError,
		FailedAt:             record.FailedAt,
		RequiresManualReview: record.RequiresManualReview,
	}
}

// ListDeadLettersResponse wraps a page of dead-letter records.
type ListDeadLettersResponse struct {
	DeadLetters []DeadLetterResponse `json:"dead_letters"`
}

// MapDeadLettersToListResponse converts dead-letter records to a list response.
func MapDeadLettersToListResponse(records []*domain.DeadLetterRecord) ListDeadLettersResponse {
	response := ListDeadLettersResponse{DeadLetters: make([]DeadLetterResponse, 0, len(records))}
	for _, record := range records {
		response.DeadLetters = append(response.DeadLetters, MapDeadLetterToResponse(record))
	}
	return response
}

// StatsResponse summarizes the pipeline for operators.
type StatsResponse struct {
	EventsByStatus      map[string]int `json:"events_by_status"`
	DeadLetterCount     int            `json:"dead_letter_count"`
	BreakerState        string         `json:"breaker_state"`
	BreakerFailureCount int            `json:"breaker_failure_count"`
}

// MapStatsToResponse converts use case stats to an API response.
func MapStatsToResponse(stats *usecase.Stats) StatsResponse {
	byStatus := make(map[string]int, len(stats.EventsByStatus))
	for status, count := range stats.EventsByStatus {
		byStatus[string(status)] = count
	}
	return StatsResponse{
		EventsByStatus:      byStatus,
		DeadLetterCount:     stats.DeadLetterCount,
		BreakerState:        stats.BreakerState,
		BreakerFailureCount: stats.BreakerFailureCount,
	}
}

// AffectedResponse reports how many rows a bulk operation touched.
type AffectedResponse struct {
	Affected int64 `json:"affected"`
}
