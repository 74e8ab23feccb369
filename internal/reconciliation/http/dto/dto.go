// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	"github.com/GarciaKevinFab/academico-sync/internal/reconciliation/domain"
	customValidation "github.com/GarciaKevinFab/academico-sync/internal/validation"
)

// RunReconciliationRequest contains the parameters for starting a run.
type RunReconciliationRequest struct {
	PeriodID string `json:"period_id" binding:"required"`
}

// Validate checks if the run request is valid.
func (r *RunReconciliationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PeriodID, validation.Required, customValidation.AcademicPeriod),
	)
}

// FieldDiffResponse is one differing field inside a data mismatch.
type FieldDiffResponse struct {
	Field       string `json:"field"`
	LocalValue  string `json:"local_value"`
	RemoteValue string `json:"remote_value"`
}

// DiscrepancyResponse is one reconciliation finding.
type DiscrepancyResponse struct {
	EntityType string              `json:"entity_type"`
	Key        string              `json:"key"`
	Type       string              `json:"type"`
	Fields     []FieldDiffResponse `json:"fields,omitempty"`
}

// TypeSummaryResponse reports per-entity-type counts for one run.
type TypeSummaryResponse struct {
	EntityType        string `json:"entity_type"`
	LocalCount        int    `json:"local_count"`
	RemoteCount       int    `json:"remote_count"`
	DiscrepancyCount  int    `json:"discrepancy_count"`
	RemoteFetchFailed bool   `json:"remote_fetch_failed"`
}

// ResultResponse represents one reconciliation run in API responses.
type ResultResponse struct {
	ID               string                `json:"id"`
	PeriodID         string                `json:"period_id"`
	StartedAt        time.Time             `json:"started_at"`
	DurationMS       int64                 `json:"duration_ms"`
	Summaries        []TypeSummaryResponse `json:"summaries"`
	Discrepancies    []DiscrepancyResponse `json:"discrepancies"`
	DiscrepancyCount int                   `json:"discrepancy_count"`
	ReprocessedCount int                   `json:"reprocessed_count"`
	ReportPath       string                `json:"report_path,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}

// MapResultToResponse converts a domain result to an API response.
func MapResultToResponse(result *domain.Result) ResultResponse {
	summaries := make([]TypeSummaryResponse, 0, len(result.Summaries))
	for _, s := range result.Summaries {
		summaries = append(summaries, TypeSummaryResponse{
			EntityType:        s.EntityType,
			LocalCount:        s.LocalCount,
			RemoteCount:       s.RemoteCount,
			DiscrepancyCount:  s.DiscrepancyCount,
			RemoteFetchFailed: s.RemoteFetchFailed,
		})
	}

	discrepancies := make([]DiscrepancyResponse, 0, len(result.Discrepancies))
	for _, d := range result.Discrepancies {
		fields := make([]FieldDiffResponse, 0, len(d.Fields))
		for _, f := range d.Fields {
			fields = append(fields, FieldDiffResponse{
				Field:       f.Field,
				LocalValue:  f.LocalValue,
				RemoteValue: f.RemoteValue,
			})
		}
		discrepancies = append(discrepancies, DiscrepancyResponse{
			EntityType: d.EntityType,
			Key:        d.Key,
			Type:       string(d.Type),
			Fields:     fields,
		})
	}

	return ResultResponse{
		ID:               result.ID.String(),
		PeriodID:         result.PeriodID,
		StartedAt:        result.StartedAt,
		DurationMS:       result.DurationMS,
		Summaries:        summaries,
		Discrepancies:    discrepancies,
		DiscrepancyCount: result.DiscrepancyCount,
		ReprocessedCount: result.ReprocessedCount,
		ReportPath:       result.ReportPath,
		CreatedAt:        result.CreatedAt,
	}
}

// ListResultsResponse wraps a page of reconciliation results.
type ListResultsResponse struct {
	Results []ResultResponse `json:"results"`
}

// MapResultsToListResponse converts domain results to a list response.
func MapResultsToListResponse(results []*domain.Result) ListResultsResponse {
	response := ListResultsResponse{Results: make([]ResultResponse, 0, len(results))}
	for _, result := range results {
		response.Results = append(response.Results, MapResultToResponse(result))
	}
	return response
}
