package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeadLetterRecord is a snapshot of an event whose delivery failed for good:
// either the ministry rejected it permanently or retries ran out. It carries
// everything an operator needs to fix and reprocess without joining back to
// the event row.
type DeadLetterRecord struct {
	ID                   uuid.UUID
	EventID              uuid.UUID
	EntityType           string
	EntityID             string
	PeriodID             string
	Version              int
	Payload              string
	RetryCount           int
	LastError            string
	FailedAt             time.Time
	RequiresManualReview bool
}

// NewDeadLetterRecord snapshots a failed event. Every dead letter requires
// manual review: there is no automated path out of the dead-letter store.
func NewDeadLetterRecord(event *OutboxEvent, lastError string) *DeadLetterRecord {
	return &DeadLetterRecord{
		ID:                   uuid.Must(uuid.NewV7()),
		EventID:              event.ID,
		EntityType:           event.EntityType,
		EntityID:             event.EntityID,
		PeriodID:             event.PeriodID,
		Version:              event.Version,
		Payload:              event.Payload,
		RetryCount:           event.RetryCount,
		LastError:            lastError,
		FailedAt:             time.Now().UTC(),
		RequiresManualReview: true,
	}
}
