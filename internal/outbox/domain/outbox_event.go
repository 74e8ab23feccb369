// Package domain defines the outbox entities: events with their delivery
// lifecycle and the dead-letter snapshots produced when retries run out.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the delivery state of an outbox event. The set is closed; every
// transition site matches exhaustively and rejects unknown values.
type Status string

const (
	// StatusPending means the event is waiting for its first delivery attempt.
	StatusPending Status = "pending"
	// StatusSending means a worker has claimed the event and is delivering it.
	StatusSending Status = "sending"
	// StatusSent means the ministry accepted the submission (2xx).
	StatusSent Status = "sent"
	// StatusAcked means delivery is confirmed; the terminal success state.
	StatusAcked Status = "acked"
	// StatusRetry means a transient failure occurred and the event is
	// scheduled for another attempt at NextAttemptAt.
	StatusRetry Status = "retry"
	// StatusFailed means retries were exhausted or the ministry rejected the
	// event permanently; the terminal failure state.
	StatusFailed Status = "failed"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSending, StatusSent, StatusAcked, StatusRetry, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s ends the event lifecycle.
func (s Status) Terminal() bool {
	return s == StatusAcked || s == StatusFailed
}

// OutboxEvent is one domain fact queued for delivery to the ministry.
type OutboxEvent struct {
	ID            uuid.UUID
	IdempotentKey string
	EntityType    string
	EntityID      string
	PeriodID      string
	Version       int
	Payload       string
	Status        Status
	RetryCount    int
	MaxRetries    int
	NextAttemptAt time.Time
	LastError     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SentAt        *time.Time
	AckedAt       *time.Time
}

// IdempotentKey derives the unique delivery key for a domain fact. Two calls
// with the same entity, period and version address the same event; a version
// bump addresses a new one.
func IdempotentKey(entityType, entityID, periodID string, version int) string {
	return fmt.Sprintf("%s:%s:%s:v%d", entityType, entityID, periodID, version)
}

// NewOutboxEvent builds a pending event ready for its first attempt.
func NewOutboxEvent(entityType, entityID, periodID string, version int, payload string, maxRetries int) *OutboxEvent {
	now := time.Now().UTC()
	return &OutboxEvent{
		ID:            uuid.Must(uuid.NewV7()),
		IdempotentKey: IdempotentKey(entityType, entityID, periodID, version),
		EntityType:    entityType,
		EntityID:      entityID,
		PeriodID:      periodID,
		Version:       version,
		Payload:       payload,
		Status:        StatusPending,
		RetryCount:    0,
		MaxRetries:    maxRetries,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// BackoffDelay returns the wait before retry attempt number `attempt`
// (1-based): min(base * 2^(attempt-1), max). Non-decreasing until capped.
func BackoffDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
