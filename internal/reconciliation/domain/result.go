// Package domain defines reconciliation results: the outcome of comparing
// local academic records against the ministry's records for one period.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DiscrepancyType classifies one reconciliation finding.
type DiscrepancyType string

const (
	// MissingInRemote means the local side has a record the ministry lacks.
	MissingInRemote DiscrepancyType = "missing_in_remote"
	// MissingInLocal means the ministry has a record the local side lacks.
	MissingInLocal DiscrepancyType = "missing_in_local"
	// DataMismatch means both sides have the record but field values differ.
	DataMismatch DiscrepancyType = "data_mismatch"
)

// FieldDiff is one differing field inside a data mismatch, expressed in the
// local vocabulary.
type FieldDiff struct {
	Field       string `json:"field"`
	LocalValue  string `json:"local_value"`
	RemoteValue string `json:"remote_value"`
}

// Discrepancy is one finding for one entity key.
type Discrepancy struct {
	EntityType string          `json:"entity_type"`
	Key        string          `json:"key"`
	Type       DiscrepancyType `json:"type"`
	Fields     []FieldDiff     `json:"fields,omitempty"`
}

// TypeSummary reports per-entity-type counts for one run. RemoteFetchFailed
// distinguishes "the ministry returned nothing" from "we could not ask": when
// set, the type's diff was skipped entirely.
type TypeSummary struct {
	EntityType        string `json:"entity_type"`
	LocalCount        int    `json:"local_count"`
	RemoteCount       int    `json:"remote_count"`
	DiscrepancyCount  int    `json:"discrepancy_count"`
	RemoteFetchFailed bool   `json:"remote_fetch_failed"`
}

// Result is one reconciliation run. Rows are append-only: re-running a
// period adds a new result rather than replacing the old one.
type Result struct {
	ID               uuid.UUID
	PeriodID         string
	StartedAt        time.Time
	DurationMS       int64
	Summaries        []TypeSummary
	Discrepancies    []Discrepancy
	DiscrepancyCount int
	ReprocessedCount int
	ReportPath       string
	CreatedAt        time.Time
}

// NewResult builds an empty result for a run that just started.
func NewResult(periodID string, startedAt time.Time) *Result {
	return &Result{
		ID:        uuid.Must(uuid.NewV7()),
		PeriodID:  periodID,
		StartedAt: startedAt,
		CreatedAt: time.Now().UTC(),
	}
}
